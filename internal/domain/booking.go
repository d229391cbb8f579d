package domain

import (
	"encoding/json"
	"time"
)

// BookingStatus represents the current status of a booking.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusAccepted   BookingStatus = "accepted"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// Booking is a ride requested by a user and served by a driver.
type Booking struct {
	ID             string
	OrderNumber    string
	UserID         string
	DriverID       string
	PickupLocation json.RawMessage
	DropLocation   json.RawMessage
	PickupDate     time.Time
	PickupTime     time.Time
	Status         BookingStatus
	CreatedAt      time.Time
}
