// Package tracking implements the delivery-tracking engine: signed pixel and
// click URLs, the idempotent message state machine, and the inbound reply scan.
package tracking

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultSignatureLength is the number of hex characters kept from the
// truncated HMAC signature.
const DefaultSignatureLength = 12

// OpenParams identifies a tracking-pixel fetch for signing.
type OpenParams struct {
	CorrelationID string
	Timestamp     int64
}

// Message returns the pipe-delimited signing input. Format: "o|cid|timestamp".
func (p OpenParams) Message() string {
	return fmt.Sprintf("o|%s|%s", p.CorrelationID, strconv.FormatInt(p.Timestamp, 10))
}

// ClickParams identifies a click-redirect hit for signing. The destination is
// part of the signed message so a valid signature cannot be replayed against
// an attacker-chosen redirect target.
type ClickParams struct {
	CorrelationID string
	Destination   string
	Timestamp     int64
}

// Message returns the pipe-delimited signing input. Format: "c|cid|timestamp|url".
func (p ClickParams) Message() string {
	return fmt.Sprintf("c|%s|%s|%s", p.CorrelationID, strconv.FormatInt(p.Timestamp, 10), p.Destination)
}

// StatusEvent names a provider delivery-status callback kind.
type StatusEvent string

const (
	// StatusDelivered confirms the provider handed the message to the
	// recipient's server.
	StatusDelivered StatusEvent = "delivered"
	// StatusBounced reports a permanent delivery failure.
	StatusBounced StatusEvent = "bounced"
)

// StatusParams identifies a provider delivery-status callback for signing.
// The provider echoes back the signature it was handed at send time, so a
// forged callback cannot flip message state.
type StatusParams struct {
	Event         StatusEvent
	CorrelationID string
	Timestamp     int64
}

// Message returns the pipe-delimited signing input. Format: "d|cid|timestamp"
// for delivered, "b|cid|timestamp" for bounced.
func (p StatusParams) Message() string {
	code := "d"
	if p.Event == StatusBounced {
		code = "b"
	}

	return fmt.Sprintf("%s|%s|%s", code, p.CorrelationID, strconv.FormatInt(p.Timestamp, 10))
}

// Signer builds and verifies HMAC-SHA256 signed tracking URLs. The mailer
// signs when composing a message body and the tracking handlers verify on
// every hit, sharing one secret.
type Signer struct {
	secret  []byte
	baseURL string
	sigLen  int
}

// NewSigner creates a Signer. baseURL is the externally reachable root the
// tracking routes are mounted under, without a trailing slash.
func NewSigner(secret, baseURL string, sigLen int) *Signer {
	if sigLen <= 0 || sigLen > sha256.Size*2 {
		sigLen = DefaultSignatureLength
	}

	return &Signer{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		sigLen:  sigLen,
	}
}

// Sign computes an HMAC-SHA256 of the message and returns the first sigLen
// hex characters.
func (s *Signer) Sign(message string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(message))
	fullHex := hex.EncodeToString(mac.Sum(nil))

	return fullHex[:s.sigLen]
}

// Verify checks a signature in constant time.
func (s *Signer) Verify(message, signature string) bool {
	expected := s.Sign(message)

	return hmac.Equal([]byte(expected), []byte(signature))
}

// PixelURL returns the signed open-tracking URL for a correlation id.
func (s *Signer) PixelURL(correlationID string, timestamp int64) string {
	params := OpenParams{CorrelationID: correlationID, Timestamp: timestamp}
	query := url.Values{}
	query.Set("ts", strconv.FormatInt(timestamp, 10))
	query.Set("sig", s.Sign(params.Message()))

	return fmt.Sprintf("%s/t/o/%s?%s", s.baseURL, url.PathEscape(correlationID), query.Encode())
}

// StatusCallbackURL returns the endpoint mail providers post signed
// delivery-status callbacks to.
func (s *Signer) StatusCallbackURL() string {
	return s.baseURL + "/t/s"
}

// StatusSignature signs a delivery-status callback for a correlation id. The
// signatures are handed to the provider at send time, one per event kind.
func (s *Signer) StatusSignature(event StatusEvent, correlationID string, timestamp int64) string {
	params := StatusParams{Event: event, CorrelationID: correlationID, Timestamp: timestamp}

	return s.Sign(params.Message())
}

// ClickURL returns the signed redirect URL wrapping a destination link.
func (s *Signer) ClickURL(correlationID, destination string, timestamp int64) string {
	params := ClickParams{CorrelationID: correlationID, Destination: destination, Timestamp: timestamp}
	query := url.Values{}
	query.Set("cid", correlationID)
	query.Set("d", destination)
	query.Set("ts", strconv.FormatInt(timestamp, 10))
	query.Set("sig", s.Sign(params.Message()))

	return fmt.Sprintf("%s/t/c?%s", s.baseURL, query.Encode())
}
