package domain

// User is an authenticated rider as reported by the auth provider.
type User struct {
	ID    string
	Email string
	Role  string
}
