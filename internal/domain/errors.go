package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrMalformedContent is returned when a rich-text document is not
	// valid structured content.
	ErrMalformedContent = errors.New("malformed rich-text content")

	// ErrInvalidTaskStatus is returned when a task status is empty. Statuses
	// outside the known vocabulary are accepted; the workflow is permissive.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrInvalidCommentType is returned when a comment type discriminator is
	// not recognized.
	ErrInvalidCommentType = errors.New("invalid comment type")

	// ErrInvalidActivityAction is returned when an activity action is not
	// one of the defined action types.
	ErrInvalidActivityAction = errors.New("invalid activity action")
)
