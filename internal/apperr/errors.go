// Package apperr defines the error taxonomy shared by the resolution core.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAuthenticationExpired = errors.New("access token expired or invalid")
	ErrEmbeddingService      = errors.New("embedding service failed")
	ErrMalformedLocator      = errors.New("malformed storage locator")
	ErrSignedURLMissing      = errors.New("signed URL missing from response")
	ErrNoConfidentMatch      = errors.New("no confident match")
	ErrResolutionNotFound    = errors.New("resolution not found")
)

// UpstreamError is a non-success response from the remote repository.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream request failed: HTTP %d", e.Status)
	}
	return fmt.Sprintf("upstream request failed: HTTP %d: %s", e.Status, e.Body)
}

// IndexLoadError reports an embedding index that cannot be served.
type IndexLoadError struct {
	Path string
	Err  error
}

func (e *IndexLoadError) Error() string {
	return fmt.Sprintf("cannot load index %s: %v", e.Path, e.Err)
}

func (e *IndexLoadError) Unwrap() error { return e.Err }

// FromStatus maps a non-success HTTP status to the taxonomy.
// An expired or invalid credential is recognised by status alone.
func FromStatus(status int, body string) error {
	if status == http.StatusUnauthorized {
		return fmt.Errorf("%w: HTTP %d", ErrAuthenticationExpired, status)
	}
	return &UpstreamError{Status: status, Body: body}
}

// IsUpstream reports whether err carries an UpstreamError and returns its status.
func IsUpstream(err error) (int, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Status, true
	}
	return 0, false
}
