package domain

import "time"

// SessionState is a step of the trip-booking conversation.
type SessionState string

const (
	SessionStateIdle        SessionState = "idle"
	SessionStateAwaitPickup SessionState = "await_pickup"
	SessionStateChooseRide  SessionState = "choose_ride"
	SessionStateRideBooked  SessionState = "ride_booked"
)

// RideType is the vehicle a user picked in the conversation.
type RideType string

const (
	RideTypeAuto RideType = "Auto"
	RideTypeBike RideType = "Bike"
)

// ChatSession is the per-user conversation record.
type ChatSession struct {
	UserID      string       `json:"user_id"`
	State       SessionState `json:"state"`
	Pickup      string       `json:"pickup,omitempty"`
	Destination string       `json:"destination,omitempty"`
	RideType    RideType     `json:"ride_type,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewChatSession returns an idle session for the user.
func NewChatSession(userID string) *ChatSession {
	return &ChatSession{
		UserID:    userID,
		State:     SessionStateIdle,
		UpdatedAt: time.Now(),
	}
}
