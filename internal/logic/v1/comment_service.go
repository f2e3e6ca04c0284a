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

// CommentService implements the comment accessor: CRUD gated on ownership
// plus the critic leaderboard. It depends on the repository interface
// (injected via constructor) and MUST NOT access the driver directly.
type CommentService struct {
	comments domain.CommentRepository
	now      func() time.Time
}

// NewCommentService creates a new CommentService with the given repository.
func NewCommentService(comments domain.CommentRepository) *CommentService {
	return &CommentService{
		comments: comments,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Fetch returns the comment with the given id, or nil when absent.
func (s *CommentService) Fetch(ctx context.Context, id string) (comment *domain.Comment, err error) {
	ctx, span := middleware.StartSpan(ctx, "comment.fetch", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("comment.id", id),
	))
	defer span.End()
	defer observe("comment.fetch", time.Now(), &err)

	comment, err = s.comments.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("fetch comment %s: %w", id, err)
	}
	span.SetAttributes(attribute.Bool("comment.found", comment != nil))
	return comment, nil
}

// Create stores a comment whose ID the caller has already assigned.
// A zero Date is stamped with the current time.
func (s *CommentService) Create(ctx context.Context, comment domain.Comment) (stored *domain.Comment, err error) {
	ctx, span := middleware.StartSpan(ctx, "comment.create", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("comment.id", comment.ID),
	))
	defer span.End()
	defer observe("comment.create", time.Now(), &err)

	if comment.ID == "" {
		return nil, ErrCommentIDRequired
	}
	if comment.Email == "" {
		return nil, fmt.Errorf("create comment %s: %w", comment.ID, ErrEmailRequired)
	}
	if comment.Date.IsZero() {
		comment.Date = s.now()
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		span.RecordError(err)
		logger := pkgzerolog.FromContext(ctx)
		logger.Error().Err(err).Str("comment_id", comment.ID).Msg("Comment insert failed")
		return nil, fmt.Errorf("create comment %s: %w", comment.ID, err)
	}

	span.AddEvent("comment.created")
	return &comment, nil
}

// Update replaces the text of a comment owned by email and refreshes its date.
// It returns false without writing when the comment is absent or owned by
// someone else. The write itself is filtered on the owner as well, so an
// ownership change between the check and the write also yields false.
func (s *CommentService) Update(ctx context.Context, id, text, email string) (updated bool, err error) {
	ctx, span := middleware.StartSpan(ctx, "comment.update", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("comment.id", id),
	))
	defer span.End()
	defer observe("comment.update", time.Now(), &err)

	current, err := s.comments.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("resolve owner of comment %s: %w", id, err)
	}
	if current == nil || current.Email != email {
		span.SetAttributes(attribute.Bool("comment.authorized", false))
		return false, nil
	}

	updated, err = s.comments.UpdateText(ctx, id, email, text, s.now())
	if err != nil {
		span.RecordError(err)
		logger := pkgzerolog.FromContext(ctx)
		logger.Error().Err(err).Str("comment_id", id).Msg("Comment update failed")
		return false, fmt.Errorf("update comment %s: %w", id, err)
	}

	span.SetAttributes(attribute.Bool("comment.updated", updated))
	return updated, nil
}

// Delete removes the comment if email owns it, reporting whether one was removed.
func (s *CommentService) Delete(ctx context.Context, id, email string) (deleted bool, err error) {
	ctx, span := middleware.StartSpan(ctx, "comment.delete", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("comment.id", id),
	))
	defer span.End()
	defer observe("comment.delete", time.Now(), &err)

	deleted, err = s.comments.Delete(ctx, id, email)
	if err != nil {
		span.RecordError(err)
		logger := pkgzerolog.FromContext(ctx)
		logger.Error().Err(err).Str("comment_id", id).Msg("Comment delete failed")
		return false, fmt.Errorf("delete comment %s: %w", id, err)
	}

	span.SetAttributes(attribute.Bool("comment.deleted", deleted))
	return deleted, nil
}

// RankTopCommenters returns the limit most prolific commenters, most comments
// first. A non-positive limit means domain.DefaultCriticLimit.
func (s *CommentService) RankTopCommenters(ctx context.Context, limit int) (critics []domain.Critic, err error) {
	if limit <= 0 {
		limit = domain.DefaultCriticLimit
	}

	ctx, span := middleware.StartSpan(ctx, "comment.rank_top_commenters", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("critics.limit", limit),
	))
	defer span.End()
	defer observe("comment.rank_top_commenters", time.Now(), &err)

	critics, err = s.comments.TopCommenters(ctx, limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("rank top commenters: %w", err)
	}

	span.SetAttributes(attribute.Int("critics.count", len(critics)))
	return critics, nil
}

// observe records operation metrics once the named error result is final.
func observe(operation string, start time.Time, err *error) {
	middleware.ObserveStoreOperation(operation, start, *err)
}
