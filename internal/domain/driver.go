package domain

import "time"

// DriverStatus represents the availability of a driver.
type DriverStatus string

const (
	DriverStatusOffline   DriverStatus = "offline"
	DriverStatusAvailable DriverStatus = "available"
)

// VehicleType is the kind of vehicle a driver operates.
type VehicleType string

const (
	VehicleTypeCar      VehicleType = "car"
	VehicleTypeBikeTaxi VehicleType = "biketaxi"
	VehicleTypeAuto     VehicleType = "auto"
	VehicleTypeShuttle  VehicleType = "shuttle"
)

// Driver represents a driver account.
type Driver struct {
	ID            string
	FirstName     string
	LastName      string
	Email         string
	PasswordHash  string
	Phone         string
	Address       string
	VehicleNumber string
	VehicleType   VehicleType
	VehicleModel  string
	Rating        float64
	IsOnboarded   bool
	Status        DriverStatus
	CreatedAt     time.Time
}

// FullName returns the driver's display name.
func (d *Driver) FullName() string {
	return d.FirstName + " " + d.LastName
}
