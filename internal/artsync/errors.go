package artsync

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is returned when a branch moved between being read and
	// being written. The run is failed, never merged or retried.
	ErrConflict = errors.New("branch was updated by another sync")

	// ErrUnauthorized is returned when the provider rejects the credential.
	ErrUnauthorized = errors.New("access token was rejected")

	// ErrRepositoryNotFound is returned when the repository does not exist
	// or the credential cannot see it.
	ErrRepositoryNotFound = errors.New("repository not found")
)

// ConfigError is a non-retryable problem the user has to fix in settings.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// SerializationError means a record could not be rendered to a file.
type SerializationError struct {
	Kind     Kind
	RecordID string
	Err      error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serializing %s %s: %v", e.Kind, e.RecordID, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// UpstreamError is a provider failure at a named step of a sync run.
type UpstreamError struct {
	Step string
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is, or wraps, a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
