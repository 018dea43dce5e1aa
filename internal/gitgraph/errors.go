package gitgraph

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v48/github"

	"artsync/internal/artsync"
)

// APIError is a non-2xx response from the provider.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	// RateLimited is set when the provider reported an exhausted quota.
	RateLimited bool

	kind  error
	cause error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.RateLimited {
		msg += " (rate limited)"
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// Unwrap exposes the artsync sentinel matching the status, if any, and the
// go-github error.
func (e *APIError) Unwrap() []error {
	if e.kind == nil {
		return []error{e.cause}
	}
	return []error{e.kind, e.cause}
}

// wrapError turns go-github response errors into *APIError. Transport and
// context errors pass through unchanged.
func wrapError(err error) error {
	var (
		rateErr  *github.RateLimitError
		abuseErr *github.AbuseRateLimitError
		respErr  *github.ErrorResponse
		resp     *http.Response
	)
	e := &APIError{cause: err}
	switch {
	case errors.As(err, &rateErr):
		resp, e.Message, e.RateLimited = rateErr.Response, rateErr.Message, true
	case errors.As(err, &abuseErr):
		resp, e.Message, e.RateLimited = abuseErr.Response, abuseErr.Message, true
	case errors.As(err, &respErr):
		resp, e.Message = respErr.Response, respErr.Message
	default:
		return err
	}

	if resp != nil {
		e.StatusCode = resp.StatusCode
		if resp.Request != nil {
			e.Method = resp.Request.Method
			e.Path = resp.Request.URL.Path
		}
	}

	switch e.StatusCode {
	case http.StatusUnauthorized:
		e.kind = artsync.ErrUnauthorized
	case http.StatusNotFound:
		e.kind = artsync.ErrRepositoryNotFound
	case http.StatusTooManyRequests:
		e.RateLimited = true
	case http.StatusForbidden:
		if !e.RateLimited {
			e.kind = artsync.ErrUnauthorized
		}
	}
	return e
}

// statusOf returns the HTTP status carried by err, or 0.
func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
