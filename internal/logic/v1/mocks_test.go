package v1

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/duynhne/mflix-service/internal/core/domain"
)

type mockCommentRepository struct {
	mock.Mock
}

func (m *mockCommentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*domain.Comment)
	return c, args.Error(1)
}

func (m *mockCommentRepository) Create(ctx context.Context, c domain.Comment) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCommentRepository) UpdateText(ctx context.Context, id, email, text string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, email, text, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockCommentRepository) Delete(ctx context.Context, id, email string) (bool, error) {
	args := m.Called(ctx, id, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockCommentRepository) TopCommenters(ctx context.Context, limit int) ([]domain.Critic, error) {
	args := m.Called(ctx, limit)
	critics, _ := args.Get(0).([]domain.Critic)
	return critics, args.Error(1)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, u domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUserRepository) Delete(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockUserRepository) ReplacePreferences(ctx context.Context, email string, prefs map[string]any) error {
	return m.Called(ctx, email, prefs).Error(0)
}

type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) Upsert(ctx context.Context, userID, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}

func (m *mockSessionRepository) GetByUserID(ctx context.Context, userID string) (*domain.Session, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*domain.Session)
	return s, args.Error(1)
}

func (m *mockSessionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockSessionRepository) DeleteOrphaned(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// directTransactor runs fn without a transaction.
type directTransactor struct{}

func (directTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (directTransactor) Transactional() bool { return false }

// atomicTransactor stands in for a store where a failing fn rolls back.
type atomicTransactor struct{}

func (atomicTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (atomicTransactor) Transactional() bool { return true }
