//nolint:testpackage // Testing internal signature tables requires same package access
package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsTransient_TypedErrors(t *testing.T) {
	transient := Transient("lookup", errors.New("boom"))
	if !IsTransient(transient) {
		t.Error("IsTransient(TransientError) = false, want true")
	}

	// Typed permanence wins even when the message looks retryable.
	permanent := Permanent("lookup", errors.New("rate limit exceeded"))
	if IsTransient(permanent) {
		t.Error("IsTransient(PermanentError) = true, want false")
	}
}

func TestIsTransient_WrappedTransient(t *testing.T) {
	wrapped := fmt.Errorf("research keyword: %w", Transient("serp", errors.New("overloaded")))
	if !IsTransient(wrapped) {
		t.Error("IsTransient should see through fmt.Errorf wrapping")
	}
}

func TestIsTransient_MessageSignatures(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("429 Too Many Requests"), true},
		{errors.New("upstream overloaded, try later"), true},
		{errors.New("context deadline exceeded"), true},
		{errors.New("invalid api key"), false},
		{errors.New("unauthorized"), false},
		{nil, false},
	}

	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestMalformedResponseError_Message(t *testing.T) {
	err := &MalformedResponseError{Capability: "content-intelligence", Reason: "missing sections"}
	want := "content-intelligence returned malformed response: missing sections"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
