// Package v1 provides the comment and user/session accessors for API version 1.
//
// Error Handling:
// Store failures are classified with the sentinels in internal/core/domain
// (ErrValidation, ErrOperation, ErrDuplicateKey) and wrapped with context
// using fmt.Errorf("%w"). This package adds the specific validation errors
// below, each of which also matches domain.ErrValidation.
//
// Not-found and not-authorized are ordinary results, never errors:
//
//	comment, err := comments.Fetch(ctx, id) // comment == nil when absent
//	ok, err := comments.Update(ctx, id, text, email) // ok == false when absent or not owned
//
// Error Checking (in callers):
//
//	switch {
//	case errors.Is(err, domain.ErrValidation):
//	    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
//	case errors.Is(err, domain.ErrDuplicateKey):
//	    c.JSON(http.StatusConflict, gin.H{"error": "Already exists"})
//	case errors.Is(err, domain.ErrOperation):
//	    c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Write rejected"})
//	default:
//	    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
//	}
package v1

import (
	"fmt"

	"github.com/duynhne/mflix-service/internal/core/domain"
)

// Validation errors raised before the store is touched.
var (
	// ErrCommentIDRequired indicates a comment was submitted without an identifier.
	ErrCommentIDRequired = fmt.Errorf("comment id is required: %w", domain.ErrValidation)

	// ErrEmailRequired indicates a user or owner email is missing.
	ErrEmailRequired = fmt.Errorf("email is required: %w", domain.ErrValidation)

	// ErrUserIDRequired indicates a session operation without a user id.
	ErrUserIDRequired = fmt.Errorf("user id is required: %w", domain.ErrValidation)

	// ErrPreferencesRequired indicates a nil preferences map; use an empty map to clear them.
	ErrPreferencesRequired = fmt.Errorf("preferences are required: %w", domain.ErrValidation)
)
