package tracking

// Dispatch events exchanged between riders and drivers.
const (
	EventNewRideRequest       = "newRideRequest"
	EventSearchingDrivers     = "searchingDrivers"
	EventNoDriversFound       = "noDriversFound"
	EventRideAccepted         = "rideAccepted"
	EventRideCompleted        = "rideCompleted"
	EventDriverLocationUpdate = "driverLocationUpdate"
)

// BookingTopic is the topic a rider follows for one booking.
func BookingTopic(bookingID string) string {
	return "booking_" + bookingID
}

// DriverTopic is the topic on which a driver receives ride requests.
func DriverTopic(driverID string) string {
	return "driver_" + driverID
}
