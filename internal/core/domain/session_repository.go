package domain

import "context"

// Session binds a bearer token to a user. UserID holds the user's email.
type Session struct {
	UserID string `json:"user_id"`
	Token  string `json:"jwt"`
}

// SessionRepository defines the data-access contract for session operations.
// At most one session exists per user id.
type SessionRepository interface {
	// Upsert sets the token of the user's session, creating it if absent.
	Upsert(ctx context.Context, userID, token string) error

	// GetByUserID returns the session of the given user.
	// Returns (nil, nil) when the user has no session.
	GetByUserID(ctx context.Context, userID string) (*Session, error)

	// DeleteByUserID removes the user's sessions. Deleting nothing is not an error.
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteOrphaned removes sessions whose user no longer exists and
	// returns how many were removed.
	DeleteOrphaned(ctx context.Context) (int64, error)
}
