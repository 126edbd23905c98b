// Package supernote provides a client for the Supernote Cloud file API.
// The service is ID-addressed (list-by-directory-id, get-by-id); this
// package adds path-based addressing on top by walking directory listings
// segment by segment.
package supernote

import (
	"errors"
	"fmt"
)

// Sentinel errors for the client's failure taxonomy.
// Use errors.Is(err, supernote.ErrNotFound) to check.
var (
	// ErrAuthRequired means no session token is held. The caller must log
	// in before issuing file operations.
	ErrAuthRequired = errors.New("supernote: not authenticated")

	// ErrAuthFailed means the service rejected a login attempt.
	ErrAuthFailed = errors.New("supernote: authentication failed")

	// ErrNotFound means a path segment or final item was absent at
	// resolution time.
	ErrNotFound = errors.New("supernote: not found")

	// ErrInvalidArgument means the caller supplied an unsupported input
	// shape, such as a batch delete spanning parent directories.
	ErrInvalidArgument = errors.New("supernote: invalid argument")

	// ErrRemote means the service accepted the request but reported an
	// application-level failure in its response envelope.
	ErrRemote = errors.New("supernote: remote error")

	// ErrTransport means the request failed below the application layer:
	// a network error or a non-2xx HTTP status.
	ErrTransport = errors.New("supernote: transport error")
)

// NotFoundError reports the exact point where a path resolution failed:
// the first missing segment and the path prefix reached when the walk
// stopped. Unwraps to ErrNotFound.
type NotFoundError struct {
	Segment string    // the segment that did not match
	Prefix  string    // path walked so far, including Segment for directories
	Kind    EntryKind // what the walk was looking for
}

func (e *NotFoundError) Error() string {
	if e.Kind == KindDirectory {
		return fmt.Sprintf("supernote: directory not found: %s in %s", e.Segment, e.Prefix)
	}

	return fmt.Sprintf("supernote: file not found: %s in %s", e.Segment, e.Prefix)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// AuthError carries the service's own message for a rejected login, such
// as a wrong password or a verification-code requirement. Unwraps to
// ErrAuthFailed.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("supernote: login failed: %s", e.Message)
}

func (e *AuthError) Unwrap() error {
	return ErrAuthFailed
}

// APIError wraps an application-level failure reported in a 2xx response
// envelope (success=false). Unwraps to ErrRemote.
type APIError struct {
	Op      string // the operation that failed, e.g. "file list"
	Message string // the service's errorMsg, may be empty
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("supernote: %s rejected by service", e.Op)
	}

	return fmt.Sprintf("supernote: %s failed: %s", e.Op, e.Message)
}

func (e *APIError) Unwrap() error {
	return ErrRemote
}

// TransportError wraps a failure below the application layer. Exactly one
// of StatusCode (non-2xx response) or Err (network failure) is set.
// Unwraps to ErrTransport.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("supernote: transport: %v", e.Err)
	}

	return fmt.Sprintf("supernote: HTTP %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return ErrTransport
}
