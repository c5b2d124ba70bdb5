package domain

import "errors"

// Client-caused failures surface before any external call is made.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrMissingField         = errors.New("missing field")
	ErrTooManyImages        = errors.New("too many images")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)

// Collaborator-caused failures may occur after partial side effects.
var (
	ErrSourceFetch  = errors.New("source fetch failed")
	ErrModel        = errors.New("model invocation failed")
	ErrNoCandidates = errors.New("no candidates returned")
	ErrPublish      = errors.New("publish failed")
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrDuplicateUser = errors.New("duplicate user")
)
