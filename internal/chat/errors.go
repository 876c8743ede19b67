package chat

import "errors"

var (
	// ErrLoginRequired is returned when an action needs an authenticated session
	ErrLoginRequired = errors.New("login required")

	// ErrNotConfirmed is returned when a confirm step has no matching request
	ErrNotConfirmed = errors.New("no matching delete request")

	// ErrEntryNotFound is returned when a history id matches nothing
	ErrEntryNotFound = errors.New("history entry not found")
)

// User facing messages
const (
	ApologyMessage       = "I apologize, but I'm having trouble processing your request right now. Please try again later."
	ChatFailedMessage    = "Failed to get response. Please try again."
	NoCommentPlaceholder = "No comment provided"
)
