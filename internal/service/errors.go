package service

import "errors"

var (
	// ErrInvalidUserID is returned when user ID is empty.
	ErrInvalidUserID = errors.New("user_id is required")

	// ErrEmptyMessage is returned when a chat message is blank.
	ErrEmptyMessage = errors.New("message required")

	// ErrInvalidUsername is returned when a journey message has no sender.
	ErrInvalidUsername = errors.New("username required")

	// ErrSessionBusy is returned when another turn of the same conversation is in flight.
	ErrSessionBusy = errors.New("conversation is busy, try again")

	// ErrIllegalTransition is returned when a conversation step is not allowed from the current state.
	ErrIllegalTransition = errors.New("illegal conversation transition")

	// ErrInvalidRoute is returned when source or destination is missing.
	ErrInvalidRoute = errors.New("source and destination are required")

	// ErrRideNotFound is returned when no driver is known for a ride ID.
	ErrRideNotFound = errors.New("Ride or driver not found")

	// ErrAuthNotConfigured is returned when the auth provider has no credentials.
	ErrAuthNotConfigured = errors.New("authentication service is not configured")

	// ErrInvalidCredentials is returned when a login does not produce a session.
	ErrInvalidCredentials = errors.New("Invalid credentials")

	// ErrSignupFailed is returned when sign-up does not produce a user.
	ErrSignupFailed = errors.New("Signup failed")

	// ErrUnauthorized is returned when a bearer token cannot be verified.
	ErrUnauthorized = errors.New("Invalid user token")

	// ErrMissingLocations is returned when a booking lacks pickup or drop location.
	ErrMissingLocations = errors.New("Pickup and drop locations are required")

	// ErrBookingNotFound is returned when a booking does not exist.
	ErrBookingNotFound = errors.New("Booking not found")

	// ErrRideUnavailable is returned when a booking was already taken.
	ErrRideUnavailable = errors.New("This ride is no longer available")

	// ErrInvalidBookingStatus is returned for a status a driver cannot set.
	ErrInvalidBookingStatus = errors.New("Invalid status update")

	// ErrNotBookingDriver is returned when a driver updates a booking assigned to someone else.
	ErrNotBookingDriver = errors.New("You are not authorized to update this ride")

	// ErrDriverExists is returned when registering an email that is taken.
	ErrDriverExists = errors.New("Driver with this email already exists")

	// ErrDriverNotFound is returned when a driver does not exist.
	ErrDriverNotFound = errors.New("Driver not found")

	// ErrAlreadyOnboarded is returned when onboarding twice.
	ErrAlreadyOnboarded = errors.New("Driver is already onboarded")

	// ErrInvalidVehicleType is returned for an unknown vehicle type.
	ErrInvalidVehicleType = errors.New("Invalid vehicle type")

	// ErrInvalidDriverStatus is returned for an unknown availability status.
	ErrInvalidDriverStatus = errors.New("Invalid status")

	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidToken is returned when a driver token is missing, malformed or expired.
	ErrInvalidToken = errors.New("Token is not valid")

	// ErrNotDriver is returned when a valid token does not belong to a driver.
	ErrNotDriver = errors.New("Access denied. Not a driver.")
)

// RequiredFieldError reports a missing request field.
type RequiredFieldError struct {
	Field string
}

func (e *RequiredFieldError) Error() string {
	return e.Field + " is required"
}
