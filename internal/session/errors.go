package session

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrNotConnected is returned when a send is attempted through an
	// account that has no established session.
	ErrNotConnected = errors.New("account not connected")

	// ErrBindingUnverified is returned when the egress path fails the
	// identity probe and fallback is disabled. The caller may retry; the
	// manager never silently downgrades to direct egress.
	ErrBindingUnverified = errors.New("egress binding could not be verified")
)

// ConfigurationError reports an invalid network binding: an account in proxy
// mode without an assigned, active proxy. It is fatal to the triggering call
// and never creates a session.
type ConfigurationError struct {
	AccountID string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("account %s: %s", e.AccountID, e.Reason)
}

// IsConfigurationError reports whether err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
