package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"roadchal/internal/domain"
	"roadchal/internal/geo"
	"roadchal/internal/redis"
	"roadchal/internal/repository"
)

const (
	// RoleDriver is the role claim of driver tokens.
	RoleDriver = "driver"

	bcryptCost      = 10
	maxNearbyRadius = 50.0
	maxNearby       = 10
)

// DriverClaims are the claims of a driver token.
type DriverClaims struct {
	DriverID string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// DriverService handles driver accounts, availability and positions.
type DriverService struct {
	driverRepo    repository.DriverRepository
	locationStore redis.LocationStoreInterface
	secret        []byte
	tokenTTL      time.Duration
	logger        *zap.Logger

	bookings  repository.BookingRepository
	publisher EventPublisher
}

// NewDriverService creates a new DriverService.
func NewDriverService(
	driverRepo repository.DriverRepository,
	locationStore redis.LocationStoreInterface,
	secret string,
	tokenTTL time.Duration,
	logger *zap.Logger,
) *DriverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DriverService{
		driverRepo:    driverRepo,
		locationStore: locationStore,
		secret:        []byte(secret),
		tokenTTL:      tokenTTL,
		logger:        logger,
	}
}

// RegisterDriverRequest contains the parameters of a driver sign-up.
type RegisterDriverRequest struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// AuthenticatedDriver is a driver with a freshly issued token.
type AuthenticatedDriver struct {
	Driver *domain.Driver
	Token  string
}

// Register creates a driver account and issues a token.
func (s *DriverService) Register(ctx context.Context, req RegisterDriverRequest) (*AuthenticatedDriver, error) {
	fields := []struct{ name, value string }{
		{"firstname", req.FirstName},
		{"lastname", req.LastName},
		{"email", req.Email},
		{"password", req.Password},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return nil, &RequiredFieldError{Field: f.name}
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	driver := &domain.Driver{
		ID:           uuid.New().String(),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        normalizeEmail(req.Email),
		PasswordHash: string(hash),
		Status:       domain.DriverStatusOffline,
		CreatedAt:    time.Now(),
	}
	if err := s.driverRepo.Create(ctx, driver); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDriverExists
		}
		return nil, fmt.Errorf("create driver: %w", err)
	}

	token, err := s.issueToken(driver)
	if err != nil {
		return nil, err
	}

	s.logger.Info("driver registered", zap.String("driver_id", driver.ID))
	return &AuthenticatedDriver{Driver: driver, Token: token}, nil
}

// Login checks driver credentials and issues a token.
func (s *DriverService) Login(ctx context.Context, email, password string) (*AuthenticatedDriver, error) {
	driver, err := s.driverRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(driver.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(driver)
	if err != nil {
		return nil, err
	}
	return &AuthenticatedDriver{Driver: driver, Token: token}, nil
}

// ParseToken validates a driver token and returns its claims.
func (s *DriverService) ParseToken(tokenString string) (*DriverClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &DriverClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.DriverID == "" {
		return nil, ErrInvalidToken
	}
	if claims.Role != RoleDriver {
		return nil, ErrNotDriver
	}
	return claims, nil
}

// Profile returns a driver.
func (s *DriverService) Profile(ctx context.Context, driverID string) (*domain.Driver, error) {
	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}
	return driver, nil
}

// OnboardRequest contains the vehicle and contact details of a driver.
type OnboardRequest struct {
	Phone         string
	Address       string
	VehicleNumber string
	VehicleType   string
	VehicleModel  string
}

// Onboard completes a driver profile.
func (s *DriverService) Onboard(ctx context.Context, driverID string, req OnboardRequest) (*domain.Driver, error) {
	driver, err := s.Profile(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver.IsOnboarded {
		return nil, ErrAlreadyOnboarded
	}

	vehicleType := domain.VehicleType(strings.ToLower(strings.TrimSpace(req.VehicleType)))
	switch vehicleType {
	case domain.VehicleTypeCar, domain.VehicleTypeBikeTaxi, domain.VehicleTypeAuto, domain.VehicleTypeShuttle:
	default:
		if vehicleType == "" {
			return nil, &RequiredFieldError{Field: "vehicleType"}
		}
		return nil, ErrInvalidVehicleType
	}

	fields := []struct{ name, value string }{
		{"phone", req.Phone},
		{"address", req.Address},
		{"vehicleNumber", req.VehicleNumber},
		{"vehicleModel", req.VehicleModel},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return nil, &RequiredFieldError{Field: f.name}
		}
	}

	driver.Phone = strings.TrimSpace(req.Phone)
	driver.Address = strings.TrimSpace(req.Address)
	driver.VehicleNumber = strings.TrimSpace(req.VehicleNumber)
	driver.VehicleType = vehicleType
	driver.VehicleModel = strings.TrimSpace(req.VehicleModel)
	driver.IsOnboarded = true

	if err := s.driverRepo.Update(ctx, driver); err != nil {
		return nil, fmt.Errorf("update driver: %w", err)
	}
	return driver, nil
}

// SetAvailability sets the status of a driver. Going offline removes the
// driver from the location index.
func (s *DriverService) SetAvailability(ctx context.Context, driverID string, status domain.DriverStatus) error {
	if status != domain.DriverStatusOffline && status != domain.DriverStatusAvailable {
		return ErrInvalidDriverStatus
	}

	if err := s.driverRepo.UpdateStatus(ctx, driverID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDriverNotFound
		}
		return err
	}

	if status == domain.DriverStatusOffline {
		if err := s.locationStore.RemoveLocation(ctx, driverID); err != nil {
			s.logger.Warn("failed to remove driver location", zap.String("driver_id", driverID), zap.Error(err))
		}
	}
	return nil
}

// ToggleAvailability flips a driver between offline and available.
func (s *DriverService) ToggleAvailability(ctx context.Context, driverID string) (domain.DriverStatus, error) {
	driver, err := s.Profile(ctx, driverID)
	if err != nil {
		return "", err
	}

	next := domain.DriverStatusAvailable
	if driver.Status == domain.DriverStatusAvailable {
		next = domain.DriverStatusOffline
	}
	if err := s.SetAvailability(ctx, driverID, next); err != nil {
		return "", err
	}
	return next, nil
}

// UpdateLocation stores a driver's position and marks the driver available.
func (s *DriverService) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	if !geo.ValidCoordinates(lat, lng) {
		return ErrInvalidLocation
	}

	// The status update proves the driver exists before it enters the GEO set.
	if err := s.driverRepo.UpdateStatus(ctx, driverID, domain.DriverStatusAvailable); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDriverNotFound
		}
		return err
	}

	return s.locationStore.UpdateLocation(ctx, driverID, lat, lng)
}

// NearbyDriver is a driver position with its distance from a query point.
type NearbyDriver struct {
	DriverID   string  `json:"driver_id"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	DistanceKm float64 `json:"distance_km"`
}

// Nearby returns the closest available drivers within radiusKm.
func (s *DriverService) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]NearbyDriver, error) {
	if !geo.ValidCoordinates(lat, lng) {
		return nil, ErrInvalidLocation
	}
	if radiusKm <= 0 {
		radiusKm = 5
	}
	radiusKm = math.Min(radiusKm, maxNearbyRadius)

	locations, err := s.locationStore.FindNearbyDrivers(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}
	if len(locations) > maxNearby {
		locations = locations[:maxNearby]
	}

	drivers := make([]NearbyDriver, 0, len(locations))
	for _, loc := range locations {
		km := geo.Haversine(lat, lng, loc.Lat, loc.Lng) / 1000
		drivers = append(drivers, NearbyDriver{
			DriverID:   loc.DriverID,
			Lat:        loc.Lat,
			Lng:        loc.Lng,
			DistanceKm: math.Round(km*100) / 100,
		})
	}
	return drivers, nil
}

func (s *DriverService) issueToken(driver *domain.Driver) (string, error) {
	now := time.Now()
	claims := DriverClaims{
		DriverID: driver.ID,
		Email:    driver.Email,
		Role:     RoleDriver,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   driver.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
