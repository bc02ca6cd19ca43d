//nolint:testpackage // Testing internal signing helpers requires same package access
package tracking

import (
	"net/url"
	"strings"
	"testing"
)

func TestSigner_SignVerify(t *testing.T) {
	signer := NewSigner("test-secret", "https://track.example.com", DefaultSignatureLength)

	message := ClickParams{
		CorrelationID: "corr-abc",
		Destination:   "https://example.com/page",
		Timestamp:     1700000000,
	}.Message()

	sig := signer.Sign(message)
	if len(sig) != DefaultSignatureLength {
		t.Errorf("signature length = %d, want %d", len(sig), DefaultSignatureLength)
	}
	if !signer.Verify(message, sig) {
		t.Error("Verify() should accept a signature it produced")
	}
}

func TestSigner_RejectsTamperedDestination(t *testing.T) {
	signer := NewSigner("test-secret", "https://track.example.com", DefaultSignatureLength)

	original := ClickParams{
		CorrelationID: "corr-abc",
		Destination:   "https://example.com/page",
		Timestamp:     1700000000,
	}
	sig := signer.Sign(original.Message())

	tampered := original
	tampered.Destination = "https://evil.example.com"

	if signer.Verify(tampered.Message(), sig) {
		t.Error("Verify() should reject a signature for a different destination")
	}
}

func TestSigner_DifferentSecretsDisagree(t *testing.T) {
	one := NewSigner("secret-one", "https://t.example.com", DefaultSignatureLength)
	two := NewSigner("secret-two", "https://t.example.com", DefaultSignatureLength)

	message := OpenParams{CorrelationID: "corr-1", Timestamp: 1700000000}.Message()

	if two.Verify(message, one.Sign(message)) {
		t.Error("a signature from one secret should not verify under another")
	}
}

func TestSigner_PixelURLVerifies(t *testing.T) {
	signer := NewSigner("test-secret", "https://track.example.com/", DefaultSignatureLength)

	raw := signer.PixelURL("corr-xyz", 1700000000)

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("PixelURL produced unparseable URL: %v", err)
	}
	if !strings.HasPrefix(parsed.Path, "/t/o/") {
		t.Errorf("pixel path = %q, want /t/o/ prefix", parsed.Path)
	}

	params := OpenParams{CorrelationID: "corr-xyz", Timestamp: 1700000000}
	if !signer.Verify(params.Message(), parsed.Query().Get("sig")) {
		t.Error("pixel URL signature should verify")
	}
}

func TestSigner_ClickURLCarriesDestination(t *testing.T) {
	signer := NewSigner("test-secret", "https://track.example.com", DefaultSignatureLength)
	dest := "https://example.com/best-seo-tools?ref=mail"

	raw := signer.ClickURL("corr-xyz", dest, 1700000000)

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("ClickURL produced unparseable URL: %v", err)
	}

	query := parsed.Query()
	if query.Get("d") != dest {
		t.Errorf("destination = %q, want %q", query.Get("d"), dest)
	}

	params := ClickParams{CorrelationID: "corr-xyz", Destination: dest, Timestamp: 1700000000}
	if !signer.Verify(params.Message(), query.Get("sig")) {
		t.Error("click URL signature should verify")
	}
}
