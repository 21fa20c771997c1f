// Package errdefs defines the stable error categories surfaced by the
// platform. Handlers wrap collaborator failures into one of these categories
// so the REST layer can map them to programmatically distinguishable codes
// without exposing internal detail.
package errdefs

import (
	"errors"
	"fmt"
)

// Category identifies the class of a platform error.
type Category string

const (
	// CategoryCollaboratorUnavailable means the cluster backend could not be
	// reached. Reads degrade to placeholder markers; writes fail hard.
	CategoryCollaboratorUnavailable Category = "COLLABORATOR_UNAVAILABLE"

	// CategoryMalformedResponse means the reasoning engine returned output
	// that does not parse to the expected structure.
	CategoryMalformedResponse Category = "MALFORMED_RESPONSE"

	// CategoryClassificationUnavailable means intent classification exhausted
	// its retry budget.
	CategoryClassificationUnavailable Category = "CLASSIFICATION_UNAVAILABLE"

	// CategoryInvalidRequest means the caller supplied an unusable request.
	CategoryInvalidRequest Category = "INVALID_REQUEST"

	// CategoryInternal is the fallback for uncategorized failures.
	CategoryInternal Category = "INTERNAL_ERROR"
)

// Error is a category-tagged error. The category is stable API surface; the
// message is human-readable and may change.
type Error struct {
	Category Category
	Message  string
	cause    error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a categorized error without a cause.
func New(category Category, message string) *Error {
	return &Error{Category: category, Message: message}
}

// Wrap creates a categorized error wrapping cause.
func Wrap(category Category, message string, cause error) *Error {
	return &Error{Category: category, Message: message, cause: cause}
}

// CategoryOf returns the category of err, or CategoryInternal when err carries
// no category.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryInternal
}

// IsCategory reports whether err carries the given category.
func IsCategory(err error, category Category) bool {
	return CategoryOf(err) == category
}
