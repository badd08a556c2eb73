package interview

import (
	"errors"
	"fmt"
)

// ValidationError rejects an operation locally: missing role or tech stack,
// empty answer. No session state changes when one is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// UpstreamError wraps a failed generation or persistence call. The coordinator
// never rolls back transcript mutations already applied in memory, so the
// local and remote transcripts may diverge until the next successful write.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *UpstreamError) Unwrap() error { return e.Err }

// ErrNoSession is returned by operations that need an active session.
var ErrNoSession = errors.New("interview: no active session")

// IsValidation reports whether err is a locally rejected input.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
