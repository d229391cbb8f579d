package domain

import "time"

// JourneyState represents a leg of a multi-modal journey.
type JourneyState string

const (
	JourneyStateStart      JourneyState = "start"
	JourneyStateInTransit1 JourneyState = "intransit1"
	JourneyStateMid        JourneyState = "mid"
	JourneyStateInTransit2 JourneyState = "intransit2"
	JourneyStateEnd        JourneyState = "end"
)

// Place is a named coordinate.
type Place struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Journey is the persisted record of a journey.
type Journey struct {
	ID        string
	Username  string
	StartLat  float64
	StartLng  float64
	EndLat    float64
	EndLng    float64
	State     JourneyState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JourneyContext is the live state of an active journey, kept until it ends.
type JourneyContext struct {
	JourneyID   string       `json:"journey_id"`
	Username    string       `json:"username"`
	Start       Place        `json:"start"`
	Destination Place        `json:"destination"`
	Endpoint    Place        `json:"endpoint"`
	UsesMetro   bool         `json:"uses_metro"`
	State       JourneyState `json:"state"`
}
