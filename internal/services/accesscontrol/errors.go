package accesscontrol

import (
	"errors"
	"fmt"

	"github.com/asakaida/monban/internal/entities"
)

// ErrAccessDenied is the sentinel all denial errors match via errors.Is
var ErrAccessDenied = errors.New("access denied")

// AccessDeniedError is returned by every CheckCanX operation when
// evaluation yields deny. It names the principal, the attempted action,
// and the resource, but deliberately not the rule (or absence of rules)
// that produced the decision.
type AccessDeniedError struct {
	Principal string // Principal display name
	Action    string // Attempted action (e.g., "create table")
	Resource  string // Resource identity (e.g., "alice-catalog.schema.table")
}

// Error returns the denial message surfaced to callers
func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: user %s cannot %s %s", e.Principal, e.Action, e.Resource)
}

// Is reports whether the target is the access-denied sentinel
func (e *AccessDeniedError) Is(target error) bool {
	return target == ErrAccessDenied
}

// ConfigError is a fatal configuration failure: malformed rule document,
// invalid pattern syntax, or an unrecognized/missing registration option.
// It surfaces at load or registration time, never mid-request.
type ConfigError struct {
	Message string
	Err     error
}

// Error returns the configuration failure message
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// deny constructs the uniform denial failure
func deny(principal *entities.Principal, action, resource string) error {
	return &AccessDeniedError{Principal: principal.Name, Action: action, Resource: resource}
}
