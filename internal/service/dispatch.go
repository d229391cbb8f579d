package service

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"roadchal/internal/domain"
	"roadchal/internal/geo"
	"roadchal/internal/repository"
	"roadchal/internal/tracking"
)

// Pickup point used when a request carries no usable coordinates.
const (
	defaultPickupLat = 18.5104
	defaultPickupLng = 73.8467
	dispatchRadiusKm = 5
)

// EventPublisher delivers live events to the subscribers of a topic.
type EventPublisher interface {
	Publish(topic string, event tracking.Event)
}

// NearbyDriverFinder lists available drivers around a point.
type NearbyDriverFinder interface {
	Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]NearbyDriver, error)
}

// DriverProfiles looks up driver accounts.
type DriverProfiles interface {
	Profile(ctx context.Context, driverID string) (*domain.Driver, error)
}

// RideRequestEvent is sent to each nearby driver when a ride is requested.
type RideRequestEvent struct {
	BookingID      string          `json:"bookingId"`
	UserID         string          `json:"userId"`
	PickupLat      float64         `json:"pickupLat"`
	PickupLng      float64         `json:"pickupLng"`
	PickupLocation json.RawMessage `json:"pickupLocation"`
	DropLocation   json.RawMessage `json:"dropLocation"`
}

// SearchingDriversEvent tells the rider how many drivers were asked.
type SearchingDriversEvent struct {
	BookingID string `json:"bookingId"`
	Count     int    `json:"count"`
}

// BookingEvent carries only the booking, for noDriversFound and rideCompleted.
type BookingEvent struct {
	BookingID string `json:"bookingId"`
}

// AssignedDriver is the public part of a driver account shown to riders.
type AssignedDriver struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Phone         string  `json:"phone,omitempty"`
	VehicleNumber string  `json:"vehicleNumber,omitempty"`
	VehicleType   string  `json:"vehicleType,omitempty"`
	VehicleModel  string  `json:"vehicleModel,omitempty"`
	Rating        float64 `json:"rating"`
}

// RideAcceptedEvent tells the rider which driver took the booking.
type RideAcceptedEvent struct {
	BookingID     string          `json:"bookingId"`
	DriverID      string          `json:"driverId"`
	DriverDetails *AssignedDriver `json:"driverDetails"`
}

// DriverLocationEvent is a driver position forwarded to the rider.
type DriverLocationEvent struct {
	DriverID string  `json:"driverId"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// WithDispatch publishes booking events: ride requests to nearby drivers,
// and search, acceptance and completion updates to the booking topic.
func (s *BookingService) WithDispatch(publisher EventPublisher, finder NearbyDriverFinder, profiles DriverProfiles) *BookingService {
	s.publisher = publisher
	s.finder = finder
	s.profiles = profiles
	return s
}

func (s *BookingService) dispatchRequest(ctx context.Context, booking *domain.Booking) {
	if s.publisher == nil {
		return
	}

	lat, lng := pickupPoint(booking.PickupLocation)
	var drivers []NearbyDriver
	if s.finder != nil {
		found, err := s.finder.Nearby(ctx, lat, lng, dispatchRadiusKm)
		if err != nil {
			s.logger.Warn("nearby driver search failed", zap.String("booking_id", booking.ID), zap.Error(err))
		}
		drivers = found
	}

	request := RideRequestEvent{
		BookingID:      booking.ID,
		UserID:         booking.UserID,
		PickupLat:      lat,
		PickupLng:      lng,
		PickupLocation: booking.PickupLocation,
		DropLocation:   booking.DropLocation,
	}
	for _, d := range drivers {
		s.publisher.Publish(tracking.DriverTopic(d.DriverID), tracking.Event{Event: tracking.EventNewRideRequest, Data: request})
	}

	topic := tracking.BookingTopic(booking.ID)
	if len(drivers) == 0 {
		s.publisher.Publish(topic, tracking.Event{Event: tracking.EventNoDriversFound, Data: BookingEvent{BookingID: booking.ID}})
	}
	s.publisher.Publish(topic, tracking.Event{
		Event: tracking.EventSearchingDrivers,
		Data:  SearchingDriversEvent{BookingID: booking.ID, Count: len(drivers)},
	})
}

func (s *BookingService) dispatchAccepted(ctx context.Context, booking *domain.Booking) {
	if s.publisher == nil {
		return
	}

	event := RideAcceptedEvent{BookingID: booking.ID, DriverID: booking.DriverID}
	if s.profiles != nil {
		driver, err := s.profiles.Profile(ctx, booking.DriverID)
		if err != nil {
			s.logger.Warn("driver lookup failed", zap.String("driver_id", booking.DriverID), zap.Error(err))
		} else {
			event.DriverDetails = &AssignedDriver{
				ID:            driver.ID,
				Name:          driver.FullName(),
				Phone:         driver.Phone,
				VehicleNumber: driver.VehicleNumber,
				VehicleType:   string(driver.VehicleType),
				VehicleModel:  driver.VehicleModel,
				Rating:        driver.Rating,
			}
		}
	}
	s.publisher.Publish(tracking.BookingTopic(booking.ID), tracking.Event{Event: tracking.EventRideAccepted, Data: event})
}

func (s *BookingService) dispatchStatus(booking *domain.Booking) {
	if s.publisher == nil || booking.Status != domain.BookingStatusCompleted {
		return
	}
	s.publisher.Publish(tracking.BookingTopic(booking.ID), tracking.Event{
		Event: tracking.EventRideCompleted,
		Data:  BookingEvent{BookingID: booking.ID},
	})
}

// WithLocationFeed lets drivers forward their position to the rider of a booking they serve.
func (s *DriverService) WithLocationFeed(bookings repository.BookingRepository, publisher EventPublisher) *DriverService {
	s.bookings = bookings
	s.publisher = publisher
	return s
}

// UpdateRideLocation records a driver position. With a bookingID the
// position is also forwarded to the booking topic, which requires the
// booking to be served by driverID.
func (s *DriverService) UpdateRideLocation(ctx context.Context, driverID, bookingID string, lat, lng float64) error {
	if bookingID == "" || s.bookings == nil || s.publisher == nil {
		return s.UpdateLocation(ctx, driverID, lat, lng)
	}
	if !geo.ValidCoordinates(lat, lng) {
		return ErrInvalidLocation
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBookingNotFound
		}
		return err
	}
	if booking.DriverID != driverID {
		return ErrNotBookingDriver
	}

	if err := s.UpdateLocation(ctx, driverID, lat, lng); err != nil {
		return err
	}
	s.publisher.Publish(tracking.BookingTopic(bookingID), tracking.Event{
		Event: tracking.EventDriverLocationUpdate,
		Data:  DriverLocationEvent{DriverID: driverID, Lat: lat, Lon: lng},
	})
	return nil
}

// pickupPoint reads coordinates from a pickup location given either as an
// object with lat and lng (or lon) or as a [lng, lat] pair.
func pickupPoint(raw json.RawMessage) (lat, lng float64) {
	var pair []float64
	if err := json.Unmarshal(raw, &pair); err == nil && len(pair) == 2 {
		if geo.ValidCoordinates(pair[1], pair[0]) {
			return pair[1], pair[0]
		}
		return defaultPickupLat, defaultPickupLng
	}

	var point struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
		Lon *float64 `json:"lon"`
	}
	if err := json.Unmarshal(raw, &point); err != nil || point.Lat == nil {
		return defaultPickupLat, defaultPickupLng
	}
	switch {
	case point.Lng != nil:
		lng = *point.Lng
	case point.Lon != nil:
		lng = *point.Lon
	default:
		return defaultPickupLat, defaultPickupLng
	}
	if !geo.ValidCoordinates(*point.Lat, lng) {
		return defaultPickupLat, defaultPickupLng
	}
	return *point.Lat, lng
}
