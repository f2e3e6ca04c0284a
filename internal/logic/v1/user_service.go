package v1

import (
	"context"
	"fmt"
	"time"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/mflix-service/internal/core/domain"
	"github.com/duynhne/mflix-service/middleware"
)

// UserService implements the user and session accessor.
// It depends on repository interfaces (injected via constructor) and
// MUST NOT access the driver directly.
type UserService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	tx       domain.Transactor
}

// NewUserService creates a new UserService with the given repository dependencies.
func NewUserService(users domain.UserRepository, sessions domain.SessionRepository, tx domain.Transactor) *UserService {
	return &UserService{
		users:    users,
		sessions: sessions,
		tx:       tx,
	}
}

// AddUser inserts a new user. An existing email fails with domain.ErrDuplicateKey.
func (s *UserService) AddUser(ctx context.Context, user domain.User) (err error) {
	ctx, span := middleware.StartSpan(ctx, "user.add", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("email", user.Email),
	))
	defer span.End()
	defer observe("user.add", time.Now(), &err)

	if user.Email == "" {
		return ErrEmailRequired
	}

	if err := s.users.Create(ctx, user); err != nil {
		span.RecordError(err)
		logger := pkgzerolog.FromContext(ctx)
		logger.Error().Err(err).Str("email", user.Email).Msg("User insert failed")
		return fmt.Errorf("add user %q: %w", user.Email, err)
	}

	span.AddEvent("user.added")
	return nil
}

// CreateOrRefreshSession stores token as the user's only session,
// overwriting the token of an existing one.
func (s *UserService) CreateOrRefreshSession(ctx context.Context, userID, token string) (err error) {
	ctx, span := middleware.StartSpan(ctx, "session.upsert", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", userID),
	))
	defer span.End()
	defer observe("session.upsert", time.Now(), &err)

	if userID == "" {
		return ErrUserIDRequired
	}

	if err := s.sessions.Upsert(ctx, userID, token); err != nil {
		span.RecordError(err)
		logger := pkgzerolog.FromContext(ctx)
		logger.Error().Err(err).Str("user_id", userID).Msg("Session upsert failed")
		return fmt.Errorf("create or refresh session of %q: %w", userID, err)
	}
	return nil
}

// GetUser returns the user with the given email, or nil when absent.
func (s *UserService) GetUser(ctx context.Context, email string) (user *domain.User, err error) {
	ctx, span := middleware.StartSpan(ctx, "user.get", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("email", email),
	))
	defer span.End()
	defer observe("user.get", time.Now(), &err)

	user, err = s.users.GetByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("get user %q: %w", email, err)
	}
	span.SetAttributes(attribute.Bool("user.found", user != nil))
	return user, nil
}

// GetSession returns the session of the given user, or nil when absent.
func (s *UserService) GetSession(ctx context.Context, userID string) (session *domain.Session, err error) {
	ctx, span := middleware.StartSpan(ctx, "session.get", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", userID),
	))
	defer span.End()
	defer observe("session.get", time.Now(), &err)

	session, err = s.sessions.GetByUserID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("get session of %q: %w", userID, err)
	}
	span.SetAttributes(attribute.Bool("session.found", session != nil))
	return session, nil
}

// DeleteSessions removes the user's sessions. It succeeds when there are none.
func (s *UserService) DeleteSessions(ctx context.Context, userID string) (err error) {
	ctx, span := middleware.StartSpan(ctx, "session.delete", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", userID),
	))
	defer span.End()
	defer observe("session.delete", time.Now(), &err)

	if err := s.sessions.DeleteByUserID(ctx, userID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete sessions of %q: %w", userID, err)
	}
	return nil
}

// DeleteUser removes the user and then the user's sessions.
// With a transactional store both steps commit together. Otherwise a
// failure after the first step leaves orphaned sessions behind, which
// RepairOrphanedSessions removes later, and the error matches
// domain.ErrCascadeIncomplete.
func (s *UserService) DeleteUser(ctx context.Context, email string) (err error) {
	ctx, span := middleware.StartSpan(ctx, "user.delete", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("email", email),
	))
	defer span.End()
	defer observe("user.delete", time.Now(), &err)

	userDeleted := false
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Delete(ctx, email); err != nil {
			return err
		}
		userDeleted = true
		return s.sessions.DeleteByUserID(ctx, email)
	})
	if err != nil {
		span.RecordError(err)
		logger := pkgzerolog.FromContext(ctx)
		if userDeleted && !s.tx.Transactional() {
			logger.Warn().Err(err).Str("email", email).
				Msg("Session cascade failed after user delete; repair job removes any orphans")
			return fmt.Errorf("delete user %q: %w: %w", email, domain.ErrCascadeIncomplete, err)
		}
		logger.Error().Err(err).Str("email", email).Msg("User delete failed")
		return fmt.Errorf("delete user %q: %w", email, err)
	}

	span.AddEvent("user.deleted")
	return nil
}

// UpdateUserPreferences replaces the whole preferences map of the user.
// A nil map is rejected; pass an empty map to clear preferences.
func (s *UserService) UpdateUserPreferences(ctx context.Context, email string, preferences map[string]any) (err error) {
	ctx, span := middleware.StartSpan(ctx, "user.update_preferences", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("email", email),
	))
	defer span.End()
	defer observe("user.update_preferences", time.Now(), &err)

	if preferences == nil {
		return fmt.Errorf("update preferences of %q: %w", email, ErrPreferencesRequired)
	}

	if err := s.users.ReplacePreferences(ctx, email, preferences); err != nil {
		span.RecordError(err)
		return fmt.Errorf("update preferences of %q: %w", email, err)
	}
	return nil
}

// RepairOrphanedSessions deletes sessions whose user no longer exists and
// returns how many were removed. It completes cascades interrupted in DeleteUser.
func (s *UserService) RepairOrphanedSessions(ctx context.Context) (removed int64, err error) {
	ctx, span := middleware.StartSpan(ctx, "session.repair_orphans", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()
	defer observe("session.repair_orphans", time.Now(), &err)

	removed, err = s.sessions.DeleteOrphaned(ctx)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("repair orphaned sessions: %w", err)
	}

	span.SetAttributes(attribute.Int64("sessions.removed", removed))
	if removed > 0 {
		logger := pkgzerolog.FromContext(ctx)
		logger.Info().Int64("removed", removed).Msg("Removed orphaned sessions")
	}
	return removed, nil
}
