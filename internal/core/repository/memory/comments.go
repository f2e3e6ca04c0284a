package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/duynhne/mflix-service/internal/core/domain"
)

// CommentRepository implements domain.CommentRepository on a Store.
type CommentRepository struct {
	store *Store
}

func (r *CommentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.comments[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// Create validates ids the same way the store-backed repository does, so
// both accept and reject the same input.
func (r *CommentRepository) Create(ctx context.Context, c domain.Comment) error {
	if !isObjectID(c.ID) {
		return fmt.Errorf("comment id %q: %w", c.ID, domain.ErrValidation)
	}
	if c.MovieID != "" && !isObjectID(c.MovieID) {
		return fmt.Errorf("movie id %q: %w", c.MovieID, domain.ErrValidation)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.comments[c.ID]; exists {
		return fmt.Errorf("insert comment %s: %w: %w", c.ID, domain.ErrOperation, domain.ErrDuplicateKey)
	}
	r.store.comments[c.ID] = c
	return nil
}

func (r *CommentRepository) UpdateText(ctx context.Context, id, email, text string, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c, ok := r.store.comments[id]
	if !ok || c.Email != email {
		return false, nil
	}
	c.Text = text
	c.Date = at
	r.store.comments[id] = c
	return true, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id, email string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c, ok := r.store.comments[id]
	if !ok || c.Email != email {
		return false, nil
	}
	delete(r.store.comments, id)
	return true, nil
}

func (r *CommentRepository) TopCommenters(ctx context.Context, limit int) ([]domain.Critic, error) {
	if limit <= 0 {
		limit = domain.DefaultCriticLimit
	}
	r.store.mu.RLock()
	counts := make(map[string]int)
	for _, c := range r.store.comments {
		counts[c.Email]++
	}
	r.store.mu.RUnlock()

	critics := make([]domain.Critic, 0, len(counts))
	for email, n := range counts {
		critics = append(critics, domain.Critic{ID: email, Count: n})
	}
	sort.Slice(critics, func(i, j int) bool {
		if critics[i].Count != critics[j].Count {
			return critics[i].Count > critics[j].Count
		}
		return critics[i].ID < critics[j].ID
	})

	if len(critics) > limit {
		critics = critics[:limit]
	}
	return critics, nil
}

func isObjectID(s string) bool {
	_, err := bson.ObjectIDFromHex(s)
	return err == nil
}
