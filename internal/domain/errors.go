package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across repositories and services.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned on a uniqueness-constraint conflict.
	// Callers treat it as "record already exists" and re-fetch.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrSiteNotFound aborts a pipeline invocation before any stage runs.
	ErrSiteNotFound = errors.New("site not found")
	// ErrCampaignNotFound aborts an outreach invocation before any send.
	ErrCampaignNotFound = errors.New("outreach campaign not found")
)

// TransientError marks an external failure worth retrying: rate limits,
// overload, and the like. The resilient invoker retries these with backoff.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError for the given operation.
func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// PermanentError marks an external failure that will not succeed on retry:
// bad input, auth failure, missing resource. Recorded against the item.
type PermanentError struct {
	Op  string
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a PermanentError for the given operation.
func Permanent(op string, err error) error {
	return &PermanentError{Op: op, Err: err}
}

// MalformedResponseError marks structured output from a capability that failed
// to parse. Callers substitute safe defaults and continue; the item does not fail.
type MalformedResponseError struct {
	Capability string
	Reason     string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s returned malformed response: %s", e.Capability, e.Reason)
}

// transientSignatures are message fragments that identify rate-limit and
// overload failures from providers that only surface plain errors.
var transientSignatures = []string{
	"rate limit",
	"too many requests",
	"429",
	"quota exceeded",
	"overloaded",
	"service unavailable",
	"503",
	"timeout",
	"deadline exceeded",
	"connection reset",
	"connection refused",
	"temporary failure",
}

// IsTransient reports whether err should be retried. Typed TransientErrors
// always qualify; otherwise the error text is matched against known
// rate-limit/overload signatures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var pe *PermanentError
	if errors.As(err, &pe) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}

	return false
}
