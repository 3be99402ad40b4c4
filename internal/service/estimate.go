package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"

	"github.com/shopspring/decimal"
)

// feeEstimator wraps the delivery estimator with the configured fallback fee.
type feeEstimator struct {
	logger    *slog.Logger
	estimator DeliveryEstimator
	fallback  decimal.Decimal
}

func newFeeEstimator(logger *slog.Logger, estimator DeliveryEstimator, fallback decimal.Decimal) *feeEstimator {
	return &feeEstimator{logger: logger, estimator: estimator, fallback: fallback}
}

func (e *feeEstimator) fallbackEstimate() entities.DeliveryEstimate {
	return entities.DeliveryEstimate{Fee: e.fallback, Fallback: true}
}

// forPlacement never fails: a delivery fee is an estimate, so every estimator
// error, out of service area included, falls back to the configured fee.
func (e *feeEstimator) forPlacement(ctx context.Context, address entities.Address) entities.DeliveryEstimate {
	point, ok := address.Location.Get()
	if !ok {
		e.logger.WarnContext(ctx, "address has no coordinates, using fallback delivery fee",
			slog.String("address_id", address.ID))
		return e.fallbackEstimate()
	}

	estimate, err := e.estimator.Estimate(ctx, point)
	if err != nil {
		e.logger.WarnContext(ctx, "delivery estimate failed, using fallback delivery fee",
			slog.String("address_id", address.ID), slog.Any("error", err))
		return e.fallbackEstimate()
	}
	return estimate
}

// forQuote is what the checkout page shows. Unlike placement it reports
// addresses outside the service area, while upstream failures still fall
// back.
func (e *feeEstimator) forQuote(ctx context.Context, point entities.GeoPoint) (entities.DeliveryEstimate, error) {
	estimate, err := e.estimator.Estimate(ctx, point)
	if errors.Is(err, entities.ErrOutOfServiceArea) {
		return entities.DeliveryEstimate{}, err
	}
	if err != nil {
		e.logger.WarnContext(ctx, "delivery estimate failed, using fallback delivery fee", slog.Any("error", err))
		return e.fallbackEstimate(), nil
	}
	return estimate, nil
}
