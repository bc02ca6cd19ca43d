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
	"github.com/jonesrussell/gocampaign/internal/logger"
)

const generationTimeout = 60 * time.Second

// IntelligenceClient is the HTTP implementation of ContentIntelligence.
type IntelligenceClient struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewIntelligenceClient creates a content-intelligence client.
func NewIntelligenceClient(baseURL string, log logger.Logger) *IntelligenceClient {
	return &IntelligenceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: generationTimeout,
		},
		log: log,
	}
}

// Generate requests content for a topic. Malformed or partial provider output
// is substituted with safe defaults and logged; parse problems never surface
// as item failures.
func (c *IntelligenceClient) Generate(ctx context.Context, req GenerationRequest) (*GeneratedContent, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/generate", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.Transient("content generation", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus("content generation", resp.StatusCode)
	}

	var content GeneratedContent
	if decodeErr := json.NewDecoder(resp.Body).Decode(&content); decodeErr != nil {
		c.substituteDefaults(&content, req.Topic, decodeErr.Error())
		return &content, nil
	}

	if content.Title == "" || len(content.Sections) == 0 {
		c.substituteDefaults(&content, req.Topic, "missing title or sections")
	}

	return &content, nil
}

type extractTopicsRequest struct {
	Domain string   `json:"domain"`
	Goals  []string `json:"goals,omitempty"`
}

// ExtractTopics discovers candidate keywords for a site. Suggestions come
// back in the provider's relevance order, which downstream caps rely on.
func (c *IntelligenceClient) ExtractTopics(
	ctx context.Context,
	siteDomain string,
	goals []string,
) ([]TopicSuggestion, error) {
	reqBody, err := json.Marshal(extractTopicsRequest{Domain: siteDomain, Goals: goals})
	if err != nil {
		return nil, fmt.Errorf("marshal topics request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/topics", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create topics request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.Transient("topic extraction", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus("topic extraction", resp.StatusCode)
	}

	var suggestions []TopicSuggestion
	if decodeErr := json.NewDecoder(resp.Body).Decode(&suggestions); decodeErr != nil {
		return nil, fmt.Errorf("decode topics response: %w", decodeErr)
	}

	return suggestions, nil
}

type researchRequest struct {
	Keyword string `json:"keyword"`
}

// Research surveys the competitive landscape for a keyword.
func (c *IntelligenceClient) Research(ctx context.Context, keyword string) (*ResearchResult, error) {
	reqBody, err := json.Marshal(researchRequest{Keyword: keyword})
	if err != nil {
		return nil, fmt.Errorf("marshal research request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/research", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create research request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.Transient("research", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus("research", resp.StatusCode)
	}

	var result ResearchResult
	if decodeErr := json.NewDecoder(resp.Body).Decode(&result); decodeErr != nil {
		return nil, fmt.Errorf("decode research response: %w", decodeErr)
	}

	return &result, nil
}

// substituteDefaults fills the parts of a generation result the provider
// failed to supply, keeping whatever parsed cleanly.
func (c *IntelligenceClient) substituteDefaults(content *GeneratedContent, topic, reason string) {
	malformed := &domain.MalformedResponseError{Capability: "content generation", Reason: reason}
	c.log.Warn("substituting generation defaults",
		logger.String("topic", topic),
		logger.Error(malformed))

	if content.Title == "" {
		content.Title = topic
	}
	if len(content.Sections) == 0 {
		content.Sections = []Section{{
			Heading: topic,
			Body:    fmt.Sprintf("An overview of %s.", topic),
		}}
	}
}
