package entities

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type DeliveryEstimate struct {
	Fee             decimal.Decimal
	DistanceMeters  int
	DurationMinutes int
	// Fallback is set when the fee is the configured default rather than a quote.
	Fallback bool
}

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliverySearching DeliveryStatus = "SEARCHING"
	DeliveryAssigned  DeliveryStatus = "ASSIGNED"
	DeliveryPickedUp  DeliveryStatus = "PICKED_UP"
	DeliveryCompleted DeliveryStatus = "COMPLETED"
	DeliveryCancelled DeliveryStatus = "CANCELLED"
)

// bookableStatuses are the order states a courier may be booked in: the cake
// is in the oven or already boxed.
var bookableStatuses = []OrderStatus{StatusBaking, StatusReady}

// CanBookCourier reports whether a courier may be booked for an order in s.
func (s OrderStatus) CanBookCourier() bool {
	return slices.Contains(bookableStatuses, s)
}

// Contact is a person the courier calls at a route point.
type Contact struct {
	Name  string
	Phone string
}

// Delivery is the courier booking of one order.
type Delivery struct {
	ID            string
	OrderID       string
	ExternalID    string
	TrackingURL   Optional[string]
	CourierName   Optional[string]
	CourierPhone  Optional[string]
	Status        DeliveryStatus
	EstimatedCost Optional[decimal.Decimal]
	ActualCost    Optional[decimal.Decimal]
	PickedUpAt    Optional[time.Time]
	DeliveredAt   Optional[time.Time]
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Booked reports whether the courier service already accepted the order.
func (d Delivery) Booked() bool {
	return d.ExternalID != ""
}

// DispatchRequest is what the courier service needs to carry an order from
// the kitchen to the buyer.
type DispatchRequest struct {
	OrderNumber string
	Recipient   Contact
	Address     string
	To          GeoPoint
	// Note is passed to the courier with the drop-off point.
	Note string
}

// Dispatch is the courier service's answer to a booking.
type Dispatch struct {
	ExternalID  string
	TrackingURL string
	Cost        decimal.Decimal
	Status      DeliveryStatus
}

// Tracking is the live state of a booked delivery.
type Tracking struct {
	ExternalID   string
	Status       DeliveryStatus
	CourierName  Optional[string]
	CourierPhone Optional[string]
	TrackingURL  Optional[string]
}

// Apply copies the tracked state onto d and reports whether anything changed.
// Pick-up and drop-off times are stamped the first time they are seen.
func (d *Delivery) Apply(t Tracking, now time.Time) bool {
	changed := false
	if t.Status != "" && t.Status != d.Status {
		d.Status = t.Status
		changed = true
	}
	if t.CourierName.Set && t.CourierName != d.CourierName {
		d.CourierName = t.CourierName
		changed = true
	}
	if t.CourierPhone.Set && t.CourierPhone != d.CourierPhone {
		d.CourierPhone = t.CourierPhone
		changed = true
	}
	if t.TrackingURL.Set && t.TrackingURL != d.TrackingURL {
		d.TrackingURL = t.TrackingURL
		changed = true
	}
	if (d.Status == DeliveryPickedUp || d.Status == DeliveryCompleted) && !d.PickedUpAt.Set {
		d.PickedUpAt = Some(now)
		changed = true
	}
	if d.Status == DeliveryCompleted && !d.DeliveredAt.Set {
		d.DeliveredAt = Some(now)
		changed = true
	}
	return changed
}
