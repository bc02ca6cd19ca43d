package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jonesrussell/gocampaign/internal/domain"
)

const publishTimeout = 30 * time.Second

// CMSChannel publishes artifacts to a content-management-system endpoint.
type CMSChannel struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewCMSChannel creates a CMS publishing channel.
func NewCMSChannel(baseURL, apiKey string) *CMSChannel {
	return &CMSChannel{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: publishTimeout,
		},
	}
}

// Name identifies the channel in reports and logs.
func (c *CMSChannel) Name() string { return "cms" }

type cmsPublishRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Slug  string `json:"slug,omitempty"`
}

// Publish creates a page on the CMS and returns its provider identity.
func (c *CMSChannel) Publish(ctx context.Context, artifact *domain.ContentArtifact) (*PublishResult, error) {
	payload := cmsPublishRequest{
		Title: artifact.Title,
		Body:  artifact.Body,
	}

	return postPublish(ctx, c.httpClient, c.baseURL+"/v1/pages", c.apiKey, "cms publish", payload)
}

// NetworkChannel publishes artifact announcements to a professional-network
// endpoint. It shares nothing with the CMS channel beyond the interface:
// one channel failing never rolls back the other.
type NetworkChannel struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewNetworkChannel creates a professional-network publishing channel.
func NewNetworkChannel(baseURL, apiKey string) *NetworkChannel {
	return &NetworkChannel{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: publishTimeout,
		},
	}
}

// Name identifies the channel in reports and logs.
func (c *NetworkChannel) Name() string { return "professional-network" }

type networkPublishRequest struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	LinkURL  string `json:"link_url,omitempty"`
}

// Publish shares an artifact announcement and returns its provider identity.
func (c *NetworkChannel) Publish(ctx context.Context, artifact *domain.ContentArtifact) (*PublishResult, error) {
	payload := networkPublishRequest{
		Headline: artifact.Title,
		Summary:  summarize(artifact.Body),
		LinkURL:  artifact.PublishedURL,
	}

	return postPublish(ctx, c.httpClient, c.baseURL+"/v1/posts", c.apiKey, "network publish", payload)
}

const summaryLimit = 280

func summarize(body string) string {
	body = strings.TrimSpace(body)
	if len(body) <= summaryLimit {
		return body
	}

	return body[:summaryLimit]
}

// postPublish is the shared request/response cycle for publish channels.
func postPublish(
	ctx context.Context,
	client *http.Client,
	endpoint, apiKey, op string,
	payload any,
) (*PublishResult, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, domain.Transient(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, classifyStatus(op, resp.StatusCode)
	}

	var result PublishResult
	if decodeErr := json.NewDecoder(resp.Body).Decode(&result); decodeErr != nil {
		return nil, fmt.Errorf("decode %s response: %w", op, decodeErr)
	}

	return &result, nil
}
