package v1

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/mflix-service/internal/core/domain"
	"github.com/duynhne/mflix-service/internal/core/repository/memory"
	"github.com/duynhne/mflix-service/internal/core/repository/repotest"
)

func newCommentService(t *testing.T) *CommentService {
	t.Helper()
	return NewCommentService(memory.NewStore().Comments())
}

func TestCommentService_CreateRequiresID(t *testing.T) {
	repo := new(mockCommentRepository)
	svc := NewCommentService(repo)

	c := repotest.NewComment("owner@example.com", "hello")
	c.ID = ""

	_, err := svc.Create(context.Background(), c)
	assert.ErrorIs(t, err, ErrCommentIDRequired)
	assert.ErrorIs(t, err, domain.ErrValidation)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCommentService_CreateRequiresOwner(t *testing.T) {
	svc := newCommentService(t)

	_, err := svc.Create(context.Background(), repotest.NewComment("", "anonymous"))
	assert.ErrorIs(t, err, ErrEmailRequired)
}

func TestCommentService_CreateStampsDate(t *testing.T) {
	ctx := context.Background()
	svc := newCommentService(t)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	c := repotest.NewComment("owner@example.com", "hello")
	c.Date = time.Time{}

	stored, err := svc.Create(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, fixed, stored.Date)

	fetched, err := svc.Fetch(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, fixed, fetched.Date)
}

func TestCommentService_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := newCommentService(t)
	c := repotest.NewComment("owner@example.com", "hello")

	_, err := svc.Create(ctx, c)
	require.NoError(t, err)

	_, err = svc.Create(ctx, c)
	assert.ErrorIs(t, err, domain.ErrOperation)
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
}

func TestCommentService_FetchNotFound(t *testing.T) {
	svc := newCommentService(t)

	c, err := svc.Fetch(context.Background(), repotest.NewID())
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCommentService_Update(t *testing.T) {
	ctx := context.Background()
	svc := newCommentService(t)
	c := repotest.NewComment("owner@example.com", "original")
	_, err := svc.Create(ctx, c)
	require.NoError(t, err)

	tests := []struct {
		name     string
		id       string
		email    string
		wantOK   bool
		wantText string
	}{
		{name: "other user", id: c.ID, email: "intruder@example.com", wantOK: false, wantText: "original"},
		{name: "missing comment", id: repotest.NewID(), email: c.Email, wantOK: false, wantText: "original"},
		{name: "owner", id: c.ID, email: c.Email, wantOK: true, wantText: "edited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := svc.Update(ctx, tt.id, "edited", tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)

			got, err := svc.Fetch(ctx, c.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, got.Text)
		})
	}
}

func TestCommentService_UpdateRefreshesDate(t *testing.T) {
	ctx := context.Background()
	svc := newCommentService(t)
	c := repotest.NewComment("owner@example.com", "original")
	_, err := svc.Create(ctx, c)
	require.NoError(t, err)

	later := c.Date.Add(48 * time.Hour)
	svc.now = func() time.Time { return later }

	ok, err := svc.Update(ctx, c.ID, "edited", c.Email)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := svc.Fetch(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, later, got.Date)
}

func TestCommentService_UpdateLostRace(t *testing.T) {
	ctx := context.Background()
	repo := new(mockCommentRepository)
	svc := NewCommentService(repo)

	current := &domain.Comment{ID: "c1", Email: "owner@example.com", Text: "before"}
	repo.On("GetByID", mock.Anything, "c1").Return(current, nil)
	// Ownership changed between the check and the conditional write.
	repo.On("UpdateText", mock.Anything, "c1", "owner@example.com", "after", mock.Anything).Return(false, nil)

	ok, err := svc.Update(ctx, "c1", "after", "owner@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
	repo.AssertExpectations(t)
}

func TestCommentService_UpdateSkipsWriteWhenNotOwner(t *testing.T) {
	repo := new(mockCommentRepository)
	svc := NewCommentService(repo)

	repo.On("GetByID", mock.Anything, "c1").Return(&domain.Comment{ID: "c1", Email: "owner@example.com"}, nil)

	ok, err := svc.Update(context.Background(), "c1", "after", "intruder@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
	repo.AssertNotCalled(t, "UpdateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCommentService_UpdateWriteErrorPropagates(t *testing.T) {
	repo := new(mockCommentRepository)
	svc := NewCommentService(repo)

	writeErr := fmt.Errorf("update comment c1: %w: write conflict", domain.ErrOperation)
	repo.On("GetByID", mock.Anything, "c1").Return(&domain.Comment{ID: "c1", Email: "owner@example.com"}, nil)
	repo.On("UpdateText", mock.Anything, "c1", "owner@example.com", "after", mock.Anything).Return(false, writeErr)

	ok, err := svc.Update(context.Background(), "c1", "after", "owner@example.com")
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrOperation)
}

func TestCommentService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := newCommentService(t)
	c := repotest.NewComment("owner@example.com", "bye")
	_, err := svc.Create(ctx, c)
	require.NoError(t, err)

	ok, err := svc.Delete(ctx, c.ID, "intruder@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := svc.Fetch(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	ok, err = svc.Delete(ctx, c.ID, c.Email)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = svc.Fetch(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCommentService_DeleteFaultPropagates(t *testing.T) {
	repo := new(mockCommentRepository)
	svc := NewCommentService(repo)

	fault := errors.New("connection reset by peer")
	repo.On("Delete", mock.Anything, "c1", "owner@example.com").Return(false, fault)

	_, err := svc.Delete(context.Background(), "c1", "owner@example.com")
	assert.ErrorIs(t, err, fault)
	assert.NotErrorIs(t, err, domain.ErrOperation)
}

func TestCommentService_RankTopCommenters(t *testing.T) {
	ctx := context.Background()
	svc := newCommentService(t)

	for i := 0; i < 25; i++ {
		email := fmt.Sprintf("critic-%02d@example.com", i)
		for n := 0; n < 25-i; n++ {
			_, err := svc.Create(ctx, repotest.NewComment(email, "review"))
			require.NoError(t, err)
		}
	}

	critics, err := svc.RankTopCommenters(ctx, 0)
	require.NoError(t, err)
	require.Len(t, critics, domain.DefaultCriticLimit)
	assert.Equal(t, domain.Critic{ID: "critic-00@example.com", Count: 25}, critics[0])
	for _, c := range critics {
		assert.Greater(t, c.Count, 5, "no entry below the 21st-highest count")
	}

	top3, err := svc.RankTopCommenters(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, top3, 3)
}

func TestCommentService_RankDefaultsLimit(t *testing.T) {
	repo := new(mockCommentRepository)
	svc := NewCommentService(repo)
	repo.On("TopCommenters", mock.Anything, domain.DefaultCriticLimit).Return([]domain.Critic{}, nil)

	_, err := svc.RankTopCommenters(context.Background(), -5)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
