package domain

import "context"

// User is a registered account keyed by email.
// Password holds opaque credential material and is never interpreted here.
type User struct {
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Password    string         `json:"-"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

// UserRepository defines the data-access contract for user operations.
// Implementations live in internal/core/repository (Core layer).
// The Logic layer depends on this interface only, never on the driver directly.
type UserRepository interface {
	// Create inserts a new user.
	// An existing email fails with ErrOperation and ErrDuplicateKey.
	Create(ctx context.Context, u User) error

	// GetByEmail returns the user matching the given email.
	// Returns (nil, nil) when no user is found.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Delete removes the user with the given email. Missing users are not an error.
	Delete(ctx context.Context, email string) error

	// ReplacePreferences overwrites the whole preferences document of the user.
	// Missing users are not an error.
	ReplacePreferences(ctx context.Context, email string, prefs map[string]any) error
}
