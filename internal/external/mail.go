package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/gocampaign/internal/domain"
	"github.com/jonesrussell/gocampaign/internal/tracking"
)

const mailTimeout = 30 * time.Second

// hrefPattern matches double-quoted href attributes in an HTML mail body.
var hrefPattern = regexp.MustCompile(`href="([^"]+)"`)

// MailClient is the HTTP implementation of Mailer. Before handing the body to
// the provider it assigns a correlation id, wraps every link through the
// click redirect, and appends the open pixel, so engagement events arrive
// already attributable.
type MailClient struct {
	baseURL    string
	apiKey     string
	signer     *tracking.Signer
	httpClient *http.Client
}

// NewMailClient creates an outbound mail client.
func NewMailClient(baseURL, apiKey string, signer *tracking.Signer) *MailClient {
	return &MailClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		signer:  signer,
		httpClient: &http.Client{
			Timeout: mailTimeout,
		},
	}
}

type mailSendRequest struct {
	To            string `json:"to"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	CorrelationID string `json:"correlation_id"`

	// Delivery-status callback contract: the provider posts to
	// StatusCallback with the matching signature when the message is
	// delivered or bounces.
	StatusCallback string `json:"status_callback"`
	StatusTS       int64  `json:"status_ts"`
	DeliveredSig   string `json:"delivered_sig"`
	BouncedSig     string `json:"bounced_sig"`
}

// Send transmits one outreach mail and returns the correlation id the
// tracking engine will see events under.
func (c *MailClient) Send(ctx context.Context, sendReq SendRequest) (string, error) {
	correlationID := uuid.NewString()
	now := time.Now().Unix()

	body := c.wrapLinks(sendReq.Body, correlationID, now)
	body += fmt.Sprintf(
		`<img src=%q width="1" height="1" alt="" style="display:none">`,
		c.signer.PixelURL(correlationID, now),
	)

	reqBody, err := json.Marshal(mailSendRequest{
		To:             sendReq.To,
		Subject:        sendReq.Subject,
		Body:           body,
		CorrelationID:  correlationID,
		StatusCallback: c.signer.StatusCallbackURL(),
		StatusTS:       now,
		DeliveredSig:   c.signer.StatusSignature(tracking.StatusDelivered, correlationID, now),
		BouncedSig:     c.signer.StatusSignature(tracking.StatusBounced, correlationID, now),
	})
	if err != nil {
		return "", fmt.Errorf("marshal mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/send", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.Transient("mail send", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", classifyStatus("mail send", resp.StatusCode)
	}

	return correlationID, nil
}

// wrapLinks rewrites every href in the body through the signed click
// redirect. Links already pointing at the tracking host are left alone.
func (c *MailClient) wrapLinks(body, correlationID string, timestamp int64) string {
	return hrefPattern.ReplaceAllStringFunc(body, func(match string) string {
		dest := hrefPattern.FindStringSubmatch(match)[1]
		if strings.Contains(dest, "/t/c?") {
			return match
		}

		return fmt.Sprintf("href=%q", c.signer.ClickURL(correlationID, dest, timestamp))
	})
}

// MailboxClient is the HTTP implementation of Mailbox.
type MailboxClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewMailboxClient creates an inbound mailbox client.
func NewMailboxClient(baseURL, apiKey string) *MailboxClient {
	return &MailboxClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: mailTimeout,
		},
	}
}

// FetchNew returns inbound messages that arrived since the last poll. The
// provider tracks the cursor; delivery is at-least-once, which the reply
// application downstream tolerates.
func (c *MailboxClient) FetchNew(ctx context.Context) ([]domain.InboundMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/messages/new", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create mailbox request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.Transient("mailbox fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus("mailbox fetch", resp.StatusCode)
	}

	var messages []domain.InboundMessage
	if decodeErr := json.NewDecoder(resp.Body).Decode(&messages); decodeErr != nil {
		return nil, fmt.Errorf("decode mailbox response: %w", decodeErr)
	}

	return messages, nil
}
