package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gscho/graphql-engine/pkg/backend"
)

// Standard dispatch errors
var (
	// ErrUnknownCommand is returned when a request names a command absent
	// from the resolved backend's registry.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUnknownBackend is returned when a request's backend kind cannot be
	// resolved.
	ErrUnknownBackend = errors.New("unknown backend kind")

	// ErrInvalidPayload is returned when a payload fails schema validation.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrStartup is returned for construction-time failures: a duplicate
	// command name within a registry, or a capability declared without its
	// operator. Startup errors are fatal; the process must not serve.
	ErrStartup = errors.New("registry construction failed")
)

// StartupError reports a registry construction failure for one backend kind.
type StartupError struct {
	Kind   backend.Kind
	Reason string
}

// Error implements the error interface.
func (e *StartupError) Error() string {
	return fmt.Sprintf("[%s] registry construction failed: %s", e.Kind, e.Reason)
}

// Is checks if the error is ErrStartup.
func (e *StartupError) Is(target error) bool {
	return errors.Is(target, ErrStartup)
}

// NewStartupError creates a new StartupError.
func NewStartupError(kind backend.Kind, reason string) *StartupError {
	return &StartupError{Kind: kind, Reason: reason}
}

// UnknownCommandError reports a dispatch miss: the command name with the
// backend kind whose registry was searched.
type UnknownCommandError struct {
	Name string
	Kind backend.Kind
}

// Error implements the error interface.
func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q for backend %q", e.Name, e.Kind)
}

// Is checks if the error is ErrUnknownCommand.
func (e *UnknownCommandError) Is(target error) bool {
	return errors.Is(target, ErrUnknownCommand)
}

// UnknownBackendError reports an unresolvable backend kind.
type UnknownBackendError struct {
	// Name is the backend name or source name that failed to resolve.
	Name string

	// Reason distinguishes an unregistered kind from an untracked source.
	Reason string
}

// Error implements the error interface.
func (e *UnknownBackendError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot resolve backend for %q: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("cannot resolve backend for %q", e.Name)
}

// Is checks if the error is ErrUnknownBackend.
func (e *UnknownBackendError) Is(target error) bool {
	return errors.Is(target, ErrUnknownBackend)
}

// InvalidPayloadError reports schema validation failure with every violation
// found. The handler was not invoked.
type InvalidPayloadError struct {
	Command    string
	Kind       backend.Kind
	Violations []Violation
}

// Error implements the error interface.
func (e *InvalidPayloadError) Error() string {
	details := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		details[i] = v.String()
	}
	return fmt.Sprintf("invalid payload for %q (%s): %s", e.Command, e.Kind, strings.Join(details, "; "))
}

// Is checks if the error is ErrInvalidPayload.
func (e *InvalidPayloadError) Is(target error) bool {
	return errors.Is(target, ErrInvalidPayload)
}

// IsRequestError reports whether an error is recoverable at the request
// boundary. Startup errors are not; everything else, including handler
// errors, is.
func IsRequestError(err error) bool {
	return err != nil && !errors.Is(err, ErrStartup)
}
