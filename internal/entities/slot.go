package entities

import "time"

const DefaultSlotCapacity = 5

type DeliverySlot struct {
	ID              string
	Date            time.Time
	StartTime       string
	EndTime         string
	MaxCapacity     int
	CurrentBookings int
	IsActive        bool
}

func (s DeliverySlot) Remaining() int {
	if s.CurrentBookings >= s.MaxCapacity {
		return 0
	}
	return s.MaxCapacity - s.CurrentBookings
}

// Book takes one unit of the slot's capacity.
func (s *DeliverySlot) Book() error {
	if !s.IsActive {
		return ErrSlotInactive
	}
	if s.CurrentBookings >= s.MaxCapacity {
		return ErrSlotFull
	}
	s.CurrentBookings++
	return nil
}

// Release gives back one booking. Bookings never drop below zero.
func (s *DeliverySlot) Release() {
	if s.CurrentBookings > 0 {
		s.CurrentBookings--
	}
}

// SlotWindow is a daily delivery time window in HH:MM.
type SlotWindow struct {
	Start string
	End   string
}

var DefaultSlotWindows = []SlotWindow{
	{Start: "10:00", End: "13:00"},
	{Start: "14:00", End: "17:00"},
	{Start: "18:00", End: "21:00"},
}
