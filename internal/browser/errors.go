package browser

import (
	"errors"
	"fmt"
)

// Interaction errors raised by Session. The scenario executor classifies
// failures by these sentinels.
var (
	ErrElementNotFound   = errors.New("element not found")
	ErrNavigationTimeout = errors.New("navigation timeout")
	ErrSessionClosed     = errors.New("session closed")
	ErrInvalidEndpoint   = errors.New("invalid remote endpoint")
)

// ProvisionKind classifies why a session could not be provisioned
type ProvisionKind string

const (
	LaunchFailed      ProvisionKind = "launch_failed"
	RemoteUnavailable ProvisionKind = "remote_unavailable"
)

// ProvisionError is returned by Provisioner.Acquire. For remote failures Err is
// the final attempt's error, unchanged.
type ProvisionError struct {
	Kind     ProvisionKind
	Mode     Mode
	Endpoint string
	Attempts int
	Err      error
}

func (e *ProvisionError) Error() string {
	switch e.Kind {
	case RemoteUnavailable:
		return fmt.Sprintf("remote browser %s unavailable after %d attempt(s): %v", e.Endpoint, e.Attempts, e.Err)
	default:
		return fmt.Sprintf("browser launch failed: %v", e.Err)
	}
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// IsRemoteUnavailable reports whether err is a ProvisionError of kind RemoteUnavailable
func IsRemoteUnavailable(err error) bool {
	var perr *ProvisionError
	return errors.As(err, &perr) && perr.Kind == RemoteUnavailable
}
