package session

import (
	"errors"
	"fmt"
)

// ErrIdentityUnavailable is matched by every identity failure. Identity is
// the one lookup that cannot degrade: without it neither tracking nor
// session linkage can proceed.
var ErrIdentityUnavailable = errors.New("session: identity unavailable")

// IdentityError reports a failed identity lookup or creation.
type IdentityError struct {
	SessionID string
	Op        string // "load", "create" or "reload"
	Err       error
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("session: identity %s for %s: %v", e.Op, e.SessionID, e.Err)
}

// Unwrap exposes both ErrIdentityUnavailable and the store error.
func (e *IdentityError) Unwrap() []error {
	return []error{ErrIdentityUnavailable, e.Err}
}
