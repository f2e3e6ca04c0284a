package memory

import (
	"context"
	"fmt"

	"github.com/duynhne/mflix-service/internal/core/domain"
)

// UserRepository implements domain.UserRepository on a Store.
type UserRepository struct {
	store *Store
}

func (r *UserRepository) Create(ctx context.Context, u domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.users[u.Email]; exists {
		return fmt.Errorf("insert user %q: %w: %w", u.Email, domain.ErrOperation, domain.ErrDuplicateKey)
	}
	u.Preferences = copyPreferences(u.Preferences)
	r.store.users[u.Email] = u
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[email]
	if !ok {
		return nil, nil
	}
	u.Preferences = copyPreferences(u.Preferences)
	return &u, nil
}

func (r *UserRepository) Delete(ctx context.Context, email string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.users, email)
	return nil
}

func (r *UserRepository) ReplacePreferences(ctx context.Context, email string, prefs map[string]any) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[email]
	if !ok {
		return nil
	}
	u.Preferences = copyPreferences(prefs)
	r.store.users[email] = u
	return nil
}
