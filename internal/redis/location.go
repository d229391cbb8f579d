package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// availableDriversKey is a GEO set holding only drivers that are available.
const availableDriversKey = "drivers:available:geo"

// DriverLocation is a driver's last reported position.
type DriverLocation struct {
	DriverID string
	Lat      float64
	Lng      float64
}

// LocationStore keeps the positions of available drivers in a Redis GEO set.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation records the position of driverID.
func (s *LocationStore) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	member := &redis.GeoLocation{Name: driverID, Latitude: lat, Longitude: lng}
	return s.client.GeoAdd(ctx, availableDriversKey, member).Err()
}

// GetLocation returns the position of driverID, or nil if the driver is not in the set.
func (s *LocationStore) GetLocation(ctx context.Context, driverID string) (*DriverLocation, error) {
	positions, err := s.client.GeoPos(ctx, availableDriversKey, driverID).Result()
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 || positions[0] == nil {
		return nil, nil
	}

	pos := positions[0]
	return &DriverLocation{DriverID: driverID, Lat: pos.Latitude, Lng: pos.Longitude}, nil
}

// FindNearbyDrivers returns the drivers within radiusKm of (lat, lng), nearest first.
func (s *LocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]DriverLocation, error) {
	found, err := s.client.GeoSearchLocation(ctx, availableDriversKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Latitude:   lat,
			Longitude:  lng,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithCoord: true,
	}).Result()
	if err != nil {
		return nil, err
	}

	drivers := make([]DriverLocation, len(found))
	for i, loc := range found {
		drivers[i] = DriverLocation{DriverID: loc.Name, Lat: loc.Latitude, Lng: loc.Longitude}
	}
	return drivers, nil
}

// RemoveLocation drops driverID from the set, e.g. when the driver goes offline.
func (s *LocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	return s.client.ZRem(ctx, availableDriversKey, driverID).Err()
}
