package service

import "errors"

// Error taxonomy returned by every service operation. The HTTP layer maps
// these to status codes with errors.Is; services never see transport codes.
var (
	// ErrInvalidInput marks malformed input: bad page/size, out-of-range
	// rating, empty name, unparseable duration or birthdate.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden marks authorization failures: unknown/deleted/mismatched
	// identity, acting on another user's resource, self-follow, self-like.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound marks a referenced recipe/review/user that does not exist,
	// so callers can distinguish absence from breakage.
	ErrNotFound = errors.New("not found")
)
