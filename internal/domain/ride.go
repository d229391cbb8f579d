package domain

// Location is a latitude/longitude pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RideEstimate is a quote from a ride provider.
type RideEstimate struct {
	RideID          string `json:"ride_id"`
	ServiceProvider string `json:"service_provider"`
	Category        string `json:"category"`
	Price           string `json:"price"`
	ETA             string `json:"eta"`
	Distance        string `json:"distance"`
}

// DriverDetails describes the driver assigned to a provider ride.
type DriverDetails struct {
	Name        string   `json:"name"`
	Rating      float64  `json:"rating"`
	Vehicle     string   `json:"vehicle"`
	PlateNumber string   `json:"plate_number"`
	Experience  string   `json:"experience"`
	Phone       string   `json:"phone"`
	Location    Location `json:"location"`
}

// RideBooking is the confirmation returned when a ride is booked.
type RideBooking struct {
	RideID  string `json:"ride_id,omitempty"`
	Driver  string `json:"driver"`
	Vehicle string `json:"vehicle,omitempty"`
	ETA     string `json:"eta"`
}

// TrackingData is the map payload for a ride in progress.
type TrackingData struct {
	ETA            string   `json:"eta"`
	Distance       string   `json:"distance"`
	DriverLocation Location `json:"driver_location"`
	Status         string   `json:"status"`
	RoutePolyline  string   `json:"route_polyline"`
}
