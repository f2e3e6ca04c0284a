// Package memory implements the domain repositories in process memory.
// It backs tests and local runs without a document store. Every repository
// returned by one Store shares its state, so cross-family operations such as
// orphan detection behave like the store-backed versions.
package memory

import (
	"context"
	"sync"

	"github.com/duynhne/mflix-service/internal/core/domain"
)

// Store holds users, sessions and comments. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	comments map[string]domain.Comment
	users    map[string]domain.User
	sessions map[string]domain.Session
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		comments: make(map[string]domain.Comment),
		users:    make(map[string]domain.User),
		sessions: make(map[string]domain.Session),
	}
}

// Comments returns a domain.CommentRepository view of the store.
func (s *Store) Comments() *CommentRepository { return &CommentRepository{store: s} }

// Users returns a domain.UserRepository view of the store.
func (s *Store) Users() *UserRepository { return &UserRepository{store: s} }

// Sessions returns a domain.SessionRepository view of the store.
func (s *Store) Sessions() *SessionRepository { return &SessionRepository{store: s} }

// WithinTransaction runs fn directly; the memory store has no transactions.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *Store) Transactional() bool { return false }

func copyPreferences(prefs map[string]any) map[string]any {
	if prefs == nil {
		return nil
	}
	out := make(map[string]any, len(prefs))
	for k, v := range prefs {
		out[k] = copyValue(v)
	}
	return out
}

// copyValue deep-copies nested maps and slices so callers never share
// state with the store.
func copyValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return copyPreferences(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
