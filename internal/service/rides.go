package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"roadchal/internal/config"
	"roadchal/internal/domain"
	"roadchal/internal/redis"
)

// QuoteCache caches ride estimates per route.
type QuoteCache interface {
	GetQuotes(ctx context.Context, source, destination string) ([]domain.RideEstimate, error)
	SetQuotes(ctx context.Context, source, destination string, quotes []domain.RideEstimate) error
}

// DriverLocator returns the last known position of a driver.
type DriverLocator interface {
	GetLocation(ctx context.Context, driverID string) (*redis.DriverLocation, error)
}

const mockDistance = "4.2 km"

// RideService serves ride quotes, driver details and tracking data.
type RideService struct {
	cache   QuoteCache
	locator DriverLocator
	logger  *zap.Logger
}

// NewRideService creates a new RideService. cache and locator may be nil.
func NewRideService(cache QuoteCache, locator DriverLocator, providers config.ProviderConfig, logger *zap.Logger) *RideService {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("ride providers",
		zap.Bool("uber_configured", providers.UberServerToken != ""),
		zap.Bool("ola_configured", providers.OlaAPIKey != ""),
		zap.Bool("maps_configured", providers.GoogleMapsKey != ""),
	)
	return &RideService{cache: cache, locator: locator, logger: logger}
}

// Estimates returns quotes for a route. Cache failures are logged and ignored.
func (s *RideService) Estimates(ctx context.Context, source, destination string) ([]domain.RideEstimate, error) {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(destination) == "" {
		return nil, ErrInvalidRoute
	}

	if s.cache != nil {
		quotes, err := s.cache.GetQuotes(ctx, source, destination)
		if err != nil {
			s.logger.Warn("quote cache read failed", zap.Error(err))
		} else if quotes != nil {
			return quotes, nil
		}
	}

	quotes := []domain.RideEstimate{
		{RideID: "uber_123", ServiceProvider: "Uber", Category: "UberGo", Price: "₹150", ETA: "5 min", Distance: mockDistance},
		{RideID: "ola_456", ServiceProvider: "Ola", Category: "Mini", Price: "₹145", ETA: "8 min", Distance: mockDistance},
		{RideID: "uber_789", ServiceProvider: "Uber", Category: "Premier", Price: "₹210", ETA: "4 min", Distance: mockDistance},
	}

	if s.cache != nil {
		if err := s.cache.SetQuotes(ctx, source, destination, quotes); err != nil {
			s.logger.Warn("quote cache write failed", zap.Error(err))
		}
	}
	return quotes, nil
}

// DriverDetails returns the driver of a provider ride.
func (s *RideService) DriverDetails(ctx context.Context, rideID string) (*domain.DriverDetails, error) {
	rideID = strings.TrimSpace(rideID)
	if rideID == "" {
		return nil, ErrRideNotFound
	}

	if strings.Contains(strings.ToLower(rideID), "uber") {
		return &domain.DriverDetails{
			Name:        "Rajesh Kumar",
			Rating:      4.9,
			Vehicle:     "Honda City",
			PlateNumber: "MH 12 AB 1234",
			Experience:  "5 years",
			Phone:       "+91 98765 43210",
			Location:    domain.Location{Lat: 18.5104, Lng: 73.8467},
		}, nil
	}

	return &domain.DriverDetails{
		Name:        "Suresh Patil",
		Rating:      4.7,
		Vehicle:     "Maruti Swift",
		PlateNumber: "MH 14 CD 5678",
		Experience:  "3 years",
		Phone:       "+91 91234 56789",
		Location:    domain.Location{Lat: 18.5204, Lng: 73.8567},
	}, nil
}

// MapData returns the tracking map payload. With a known driverID the
// driver's last reported position replaces the mock one.
func (s *RideService) MapData(ctx context.Context, driverID string) (*domain.TrackingData, error) {
	data := &domain.TrackingData{
		ETA:            "15 min",
		Distance:       "4.5 km",
		DriverLocation: domain.Location{Lat: 18.5204, Lng: 73.8567},
		Status:         "On time",
		RoutePolyline:  "...",
	}

	if driverID == "" || s.locator == nil {
		return data, nil
	}

	loc, err := s.locator.GetLocation(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if loc != nil {
		data.DriverLocation = domain.Location{Lat: loc.Lat, Lng: loc.Lng}
	}
	return data, nil
}
