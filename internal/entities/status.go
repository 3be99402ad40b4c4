package entities

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusConfirmed  OrderStatus = "CONFIRMED"
	StatusBaking     OrderStatus = "BAKING"
	StatusReady      OrderStatus = "READY"
	StatusDispatched OrderStatus = "DISPATCHED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusBaking,
	StatusReady,
	StatusDispatched,
	StatusDelivered,
	StatusCancelled,
}

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusBaking, StatusReady,
		StatusDispatched, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// NextStatuses returns the statuses an order may move to from s.
func (s OrderStatus) NextStatuses() []OrderStatus {
	switch s {
	case StatusPending:
		return []OrderStatus{StatusConfirmed, StatusCancelled}
	case StatusConfirmed:
		return []OrderStatus{StatusBaking, StatusCancelled}
	case StatusBaking:
		return []OrderStatus{StatusReady, StatusCancelled}
	case StatusReady:
		return []OrderStatus{StatusDispatched}
	case StatusDispatched:
		return []OrderStatus{StatusDelivered}
	case StatusDelivered, StatusCancelled:
		return nil
	default:
		return nil
	}
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range s.NextStatuses() {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return len(s.NextStatuses()) == 0
}

// ApplyTransition moves the order to next or returns a *TransitionError.
func (o *Order) ApplyTransition(next OrderStatus) error {
	if !o.Status.CanTransitionTo(next) {
		return &TransitionError{From: o.Status, To: next}
	}
	o.Status = next
	return nil
}
