package memory

import (
	"context"

	"github.com/duynhne/mflix-service/internal/core/domain"
)

// SessionRepository implements domain.SessionRepository on a Store.
// Sessions are keyed by user id, so at most one exists per user.
type SessionRepository struct {
	store *Store
}

func (r *SessionRepository) Upsert(ctx context.Context, userID, token string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.sessions[userID] = domain.Session{UserID: userID, Token: token}
	return nil
}

func (r *SessionRepository) GetByUserID(ctx context.Context, userID string) (*domain.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s, ok := r.store.sessions[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.sessions, userID)
	return nil
}

func (r *SessionRepository) DeleteOrphaned(ctx context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var removed int64
	for userID := range r.store.sessions {
		if _, ok := r.store.users[userID]; !ok {
			delete(r.store.sessions, userID)
			removed++
		}
	}
	return removed, nil
}
