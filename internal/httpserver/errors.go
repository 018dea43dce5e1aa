package httpserver

import (
	"errors"
	"net/http"

	"artsync/internal/artsync"
)

// codedError carries the HTTP status an error should be answered with.
type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func withCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return &codedError{err: err, code: code}
}

// statusOf maps an error to a response status. Problems the caller can fix
// are client errors; provider failures are gateway errors.
func statusOf(err error) int {
	var (
		coded  *codedError
		cfgErr *artsync.ConfigError
		serErr *artsync.SerializationError
		upErr  *artsync.UpstreamError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &coded):
		return coded.code
	case errors.Is(err, artsync.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest
	case errors.As(err, &serErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &upErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// publicMessage returns the text shown to the caller. Unclassified errors
// are reported generically and only logged in full.
func publicMessage(err error, status int) string {
	if status == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}
