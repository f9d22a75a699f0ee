package services

import "errors"

// Business-rule failures surfaced verbatim to the caller. Handlers map these
// to HTTP statuses; anything else is treated as an internal error.
var (
	ErrNotFound          = errors.New("not found")
	ErrOwnership         = errors.New("dino does not belong to caller")
	ErrInvalidTarget     = errors.New("a dino cannot duel itself")
	ErrInvalidMoveSet    = errors.New("move set must be exactly 3 attacks and 3 defenses in valid zones")
	ErrRateLimitExceeded = errors.New("daily duel limit reached")
	ErrInvalidTransition = errors.New("duel is not in a state that allows this action")
	ErrNotYourDuel       = errors.New("duel is not addressed to this dino")
)
