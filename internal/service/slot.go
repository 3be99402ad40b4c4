package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"

	"github.com/shopspring/decimal"
)

const (
	defaultSlotHorizon = 7 * 24 * time.Hour
	maxGenerateDays    = 60
)

type SlotRepo interface {
	AvailableSlots(ctx context.Context, from, to time.Time) ([]entities.DeliverySlot, error)
	CreateSlots(ctx context.Context, slots []entities.DeliverySlot) (int, error)
}

type slotService struct {
	logger          *slog.Logger
	repo            SlotRepo
	fees            *feeEstimator
	defaultCapacity int
	now             func() time.Time
}

func NewSlotService(logger *slog.Logger, repo SlotRepo, estimator DeliveryEstimator, fallbackFee decimal.Decimal, defaultCapacity int) *slotService {
	logger = logger.With(slog.String("service", "slot"))
	if defaultCapacity < 1 {
		defaultCapacity = entities.DefaultSlotCapacity
	}
	return &slotService{
		logger:          logger,
		repo:            repo,
		fees:            newFeeEstimator(logger, estimator, fallbackFee),
		defaultCapacity: defaultCapacity,
		now:             time.Now,
	}
}

// AvailableSlots lists bookable slots between from and to. Zero bounds
// default to today and a week after from.
func (s *slotService) AvailableSlots(ctx context.Context, from, to time.Time) ([]entities.DeliverySlot, error) {
	if from.IsZero() {
		from = truncateDay(s.now())
	}
	if to.IsZero() {
		to = from.Add(defaultSlotHorizon)
	}
	if to.Before(from) {
		return nil, entities.Invalid("to", "to must not be before from")
	}

	slots, err := s.repo.AvailableSlots(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

// GenerateSlots creates the default daily windows for every day in
// [from, to]. Windows that already exist are left alone.
func (s *slotService) GenerateSlots(ctx context.Context, from, to time.Time, capacity int) (int, error) {
	from, to = truncateDay(from), truncateDay(to)
	if to.Before(from) {
		return 0, entities.Invalid("to", "to must not be before from")
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > maxGenerateDays {
		return 0, entities.Invalid("to", "at most %d days can be generated at once", maxGenerateDays)
	}
	if capacity == 0 {
		capacity = s.defaultCapacity
	}
	if capacity < 1 {
		return 0, entities.Invalid("capacity", "capacity must be at least 1")
	}

	slots := make([]entities.DeliverySlot, 0, days*len(entities.DefaultSlotWindows))
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		for _, window := range entities.DefaultSlotWindows {
			slots = append(slots, entities.DeliverySlot{
				Date:        day,
				StartTime:   window.Start,
				EndTime:     window.End,
				MaxCapacity: capacity,
				IsActive:    true,
			})
		}
	}

	created, err := s.repo.CreateSlots(ctx, slots)
	if err != nil {
		return 0, fmt.Errorf("failed to create slots: %w", err)
	}
	s.logger.InfoContext(ctx, "delivery slots generated",
		slog.Int("created", created), slog.Int("skipped", len(slots)-created))
	return created, nil
}

func (s *slotService) EstimateDelivery(ctx context.Context, point entities.GeoPoint) (entities.DeliveryEstimate, error) {
	return s.fees.forQuote(ctx, point)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
