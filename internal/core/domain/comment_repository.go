package domain

import (
	"context"
	"time"
)

// DefaultCriticLimit is the leaderboard size used when no positive limit is given.
const DefaultCriticLimit = 20

// Comment is a user-authored comment about a movie.
// ID and MovieID are hex-encoded 12-byte object ids; the caller assigns ID
// before insertion. Email identifies the owner and never changes after creation.
type Comment struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	MovieID string    `json:"movie_id,omitempty"`
	Text    string    `json:"text"`
	Date    time.Time `json:"date"`
}

// Critic is a leaderboard entry: an owner email and how many comments it authored.
// It is computed on demand and never stored.
type Critic struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// CommentRepository defines the data-access contract for comment operations.
// Implementations live in internal/core/repository (Core layer).
type CommentRepository interface {
	// GetByID returns the comment with the given id.
	// Returns (nil, nil) when no comment matches.
	GetByID(ctx context.Context, id string) (*Comment, error)

	// Create inserts the comment under its own ID.
	// A taken ID fails with ErrOperation and ErrDuplicateKey.
	Create(ctx context.Context, c Comment) error

	// UpdateText sets text and date on the comment matching both id and owner email.
	// Returns false when nothing matched.
	UpdateText(ctx context.Context, id, email, text string, at time.Time) (bool, error)

	// Delete removes the comment matching both id and owner email in one call.
	// Returns false when nothing matched.
	Delete(ctx context.Context, id, email string) (bool, error)

	// TopCommenters groups comments by owner email and returns at most limit
	// entries ordered by count descending, then email ascending.
	// A non-positive limit means DefaultCriticLimit.
	TopCommenters(ctx context.Context, limit int) ([]Critic, error)
}
