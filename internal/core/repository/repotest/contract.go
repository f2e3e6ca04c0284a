// Package repotest holds contract suites that every domain repository
// implementation must pass.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/duynhne/mflix-service/internal/core/domain"
)

// NewID returns a fresh comment identifier.
func NewID() string {
	return bson.NewObjectID().Hex()
}

// NewComment returns a comment owned by email with a fresh id.
func NewComment(email, text string) domain.Comment {
	return domain.Comment{
		ID:      NewID(),
		Name:    "Contract Tester",
		Email:   email,
		MovieID: bson.NewObjectID().Hex(),
		Text:    text,
		Date:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

// RunCommentRepositoryContract verifies a domain.CommentRepository.
// newRepo must return an empty repository on every call.
func RunCommentRepositoryContract(t *testing.T, newRepo func(t *testing.T) domain.CommentRepository) {
	ctx := context.Background()

	t.Run("Create and GetByID", func(t *testing.T) {
		repo := newRepo(t)
		c := NewComment("owner@example.com", "great movie")

		require.NoError(t, repo.Create(ctx, c))

		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, c.ID, got.ID)
		assert.Equal(t, c.Email, got.Email)
		assert.Equal(t, c.Name, got.Name)
		assert.Equal(t, c.MovieID, got.MovieID)
		assert.Equal(t, c.Text, got.Text)
		assert.True(t, c.Date.Equal(got.Date), "date: want %v, got %v", c.Date, got.Date)
	})

	t.Run("GetByID Not Found", func(t *testing.T) {
		repo := newRepo(t)

		got, err := repo.GetByID(ctx, NewID())
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = repo.GetByID(ctx, "not-an-object-id")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Create Duplicate", func(t *testing.T) {
		repo := newRepo(t)
		c := NewComment("owner@example.com", "first")
		require.NoError(t, repo.Create(ctx, c))

		dup := c
		dup.Text = "second"
		err := repo.Create(ctx, dup)
		assert.ErrorIs(t, err, domain.ErrOperation)
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)

		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "first", got.Text)
	})

	t.Run("Create Malformed IDs", func(t *testing.T) {
		repo := newRepo(t)

		c := NewComment("owner@example.com", "text")
		c.ID = "xyz"
		assert.ErrorIs(t, repo.Create(ctx, c), domain.ErrValidation)

		c = NewComment("owner@example.com", "text")
		c.MovieID = "not-a-movie"
		assert.ErrorIs(t, repo.Create(ctx, c), domain.ErrValidation)
	})

	t.Run("UpdateText By Owner", func(t *testing.T) {
		repo := newRepo(t)
		c := NewComment("owner@example.com", "before")
		require.NoError(t, repo.Create(ctx, c))

		at := c.Date.Add(time.Hour)
		ok, err := repo.UpdateText(ctx, c.ID, c.Email, "after", at)
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "after", got.Text)
		assert.True(t, at.Equal(got.Date))
	})

	t.Run("UpdateText By Other", func(t *testing.T) {
		repo := newRepo(t)
		c := NewComment("owner@example.com", "before")
		require.NoError(t, repo.Create(ctx, c))

		ok, err := repo.UpdateText(ctx, c.ID, "intruder@example.com", "hijacked", time.Now())
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = repo.UpdateText(ctx, NewID(), c.Email, "ghost", time.Now())
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "before", got.Text)
	})

	t.Run("Delete Requires Owner", func(t *testing.T) {
		repo := newRepo(t)
		c := NewComment("owner@example.com", "doomed")
		require.NoError(t, repo.Create(ctx, c))

		ok, err := repo.Delete(ctx, c.ID, "intruder@example.com")
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.NotNil(t, got, "non-owner delete must not remove the comment")

		ok, err = repo.Delete(ctx, c.ID, c.Email)
		require.NoError(t, err)
		assert.True(t, ok)

		got, err = repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		ok, err = repo.Delete(ctx, c.ID, c.Email)
		require.NoError(t, err)
		assert.False(t, ok, "second delete removes nothing")
	})

	t.Run("TopCommenters", func(t *testing.T) {
		repo := newRepo(t)

		// 25 emails, counts strictly descending from 25 to 1.
		for i := 0; i < 25; i++ {
			email := fmt.Sprintf("%c@example.com", 'a'+i)
			for n := 0; n < 25-i; n++ {
				require.NoError(t, repo.Create(ctx, NewComment(email, "c")))
			}
		}

		critics, err := repo.TopCommenters(ctx, domain.DefaultCriticLimit)
		require.NoError(t, err)
		require.Len(t, critics, 20)
		assert.Equal(t, domain.Critic{ID: "a@example.com", Count: 25}, critics[0])
		assert.Equal(t, domain.Critic{ID: "t@example.com", Count: 6}, critics[19])
		for i := 1; i < len(critics); i++ {
			assert.Greater(t, critics[i-1].Count, critics[i].Count)
		}

		for _, limit := range []int{0, -1} {
			got, err := repo.TopCommenters(ctx, limit)
			require.NoError(t, err, "limit %d", limit)
			assert.Equal(t, critics, got, "limit %d falls back to the default", limit)
		}
	})

	t.Run("TopCommenters Ties", func(t *testing.T) {
		repo := newRepo(t)
		for _, email := range []string{"b@example.com", "a@example.com", "c@example.com", "a@example.com"} {
			require.NoError(t, repo.Create(ctx, NewComment(email, "c")))
		}

		critics, err := repo.TopCommenters(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, []domain.Critic{
			{ID: "a@example.com", Count: 2},
			{ID: "b@example.com", Count: 1},
		}, critics)
	})
}

// RunUserRepositoryContract verifies a domain.UserRepository and
// domain.SessionRepository pair sharing one backing store.
// newRepos must return empty repositories on every call.
func RunUserRepositoryContract(t *testing.T, newRepos func(t *testing.T) (domain.UserRepository, domain.SessionRepository)) {
	ctx := context.Background()

	t.Run("Create and GetByEmail", func(t *testing.T) {
		users, _ := newRepos(t)
		u := domain.User{
			Name:        "Ned Stark",
			Email:       "ned@example.com",
			Password:    "$2a$10$opaque",
			Preferences: map[string]any{"language": "English"},
		}
		require.NoError(t, users.Create(ctx, u))

		got, err := users.GetByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, u.Name, got.Name)
		assert.Equal(t, u.Password, got.Password)
		assert.Equal(t, "English", got.Preferences["language"])

		missing, err := users.GetByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("Create Duplicate Email", func(t *testing.T) {
		users, _ := newRepos(t)
		require.NoError(t, users.Create(ctx, domain.User{Name: "first", Email: "dup@example.com"}))

		err := users.Create(ctx, domain.User{Name: "second", Email: "dup@example.com"})
		assert.ErrorIs(t, err, domain.ErrOperation)
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)

		got, err := users.GetByEmail(ctx, "dup@example.com")
		require.NoError(t, err)
		assert.Equal(t, "first", got.Name)
	})

	t.Run("ReplacePreferences", func(t *testing.T) {
		users, _ := newRepos(t)
		email := "prefs@example.com"
		require.NoError(t, users.Create(ctx, domain.User{Email: email}))

		require.NoError(t, users.ReplacePreferences(ctx, email, map[string]any{"a": "1", "b": "2"}))
		require.NoError(t, users.ReplacePreferences(ctx, email, map[string]any{"c": "3"}))

		got, err := users.GetByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"c": "3"}, got.Preferences)

		require.NoError(t, users.ReplacePreferences(ctx, "ghost@example.com", map[string]any{"x": "y"}))
		ghost, err := users.GetByEmail(ctx, "ghost@example.com")
		require.NoError(t, err)
		assert.Nil(t, ghost, "replacing preferences must not create users")
	})

	t.Run("ReplacePreferences Nested Values", func(t *testing.T) {
		users, _ := newRepos(t)
		email := "nested@example.com"
		require.NoError(t, users.Create(ctx, domain.User{Email: email}))

		prefs := map[string]any{
			"language": "English",
			"display": map[string]any{
				"theme":   "dark",
				"compact": true,
			},
			"genres": []any{"Drama", map[string]any{"name": "Comedy"}},
		}
		require.NoError(t, users.ReplacePreferences(ctx, email, prefs))

		got, err := users.GetByEmail(ctx, email)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, prefs, got.Preferences)

		// Mutating the returned value must not leak into the store.
		got.Preferences["display"].(map[string]any)["theme"] = "light"
		again, err := users.GetByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, "dark", again.Preferences["display"].(map[string]any)["theme"])
	})

	t.Run("Delete User", func(t *testing.T) {
		users, _ := newRepos(t)
		require.NoError(t, users.Create(ctx, domain.User{Email: "gone@example.com"}))

		require.NoError(t, users.Delete(ctx, "gone@example.com"))
		got, err := users.GetByEmail(ctx, "gone@example.com")
		require.NoError(t, err)
		assert.Nil(t, got)

		assert.NoError(t, users.Delete(ctx, "gone@example.com"))
	})

	t.Run("Session Upsert Overwrites", func(t *testing.T) {
		_, sessions := newRepos(t)
		require.NoError(t, sessions.Upsert(ctx, "u@example.com", "token-1"))
		require.NoError(t, sessions.Upsert(ctx, "u@example.com", "token-2"))

		got, err := sessions.GetByUserID(ctx, "u@example.com")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, domain.Session{UserID: "u@example.com", Token: "token-2"}, *got)

		require.NoError(t, sessions.DeleteByUserID(ctx, "u@example.com"))
		got, err = sessions.GetByUserID(ctx, "u@example.com")
		require.NoError(t, err)
		assert.Nil(t, got, "one delete must leave no session behind")
	})

	t.Run("Session Upsert Concurrent", func(t *testing.T) {
		_, sessions := newRepos(t)

		var wg sync.WaitGroup
		errs := make(chan error, 16)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- sessions.Upsert(ctx, "race@example.com", fmt.Sprintf("token-%d", i))
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := sessions.GetByUserID(ctx, "race@example.com")
		require.NoError(t, err)
		require.NotNil(t, got)

		require.NoError(t, sessions.DeleteByUserID(ctx, "race@example.com"))
		got, err = sessions.GetByUserID(ctx, "race@example.com")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("DeleteByUserID Idempotent", func(t *testing.T) {
		_, sessions := newRepos(t)
		assert.NoError(t, sessions.DeleteByUserID(ctx, "never@example.com"))
		assert.NoError(t, sessions.DeleteByUserID(ctx, "never@example.com"))
	})

	t.Run("DeleteOrphaned", func(t *testing.T) {
		users, sessions := newRepos(t)
		require.NoError(t, users.Create(ctx, domain.User{Email: "alive@example.com"}))
		require.NoError(t, sessions.Upsert(ctx, "alive@example.com", "t1"))
		require.NoError(t, sessions.Upsert(ctx, "ghost@example.com", "t2"))

		removed, err := sessions.DeleteOrphaned(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, removed)

		alive, err := sessions.GetByUserID(ctx, "alive@example.com")
		require.NoError(t, err)
		assert.NotNil(t, alive)

		ghost, err := sessions.GetByUserID(ctx, "ghost@example.com")
		require.NoError(t, err)
		assert.Nil(t, ghost)

		removed, err = sessions.DeleteOrphaned(ctx)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})
}
