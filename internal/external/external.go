// Package external defines the capability interfaces the pipeline invokes and
// their HTTP implementations. Providers are opaque: each client speaks one
// JSON endpoint and classifies failures for the retry layer, nothing more.
package external

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonesrussell/gocampaign/internal/domain"
)

// GenerationRequest carries everything the content-intelligence capability
// needs to produce an article for one keyword.
type GenerationRequest struct {
	Topic    string                 `json:"topic"`
	Goals    []string               `json:"goals,omitempty"`
	Research *domain.ResearchRecord `json:"research,omitempty"`
}

// Section is one heading/body block of generated content.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// GeneratedContent is the structured output of the content-intelligence
// capability.
type GeneratedContent struct {
	Title           string   `json:"title"`
	Sections        []Section `json:"sections"`
	MetaDescription string   `json:"meta_description,omitempty"`
}

// ContentIntelligence generates structured content for a topic. Malformed
// provider output is substituted with safe defaults by the implementation;
// it never fails an item over a parse problem.
type ContentIntelligence interface {
	Generate(ctx context.Context, req GenerationRequest) (*GeneratedContent, error)
}

// TopicSuggestion is one candidate keyword from topic extraction.
type TopicSuggestion struct {
	Keyword      string `json:"keyword"`
	SearchVolume int    `json:"search_volume"`
	Difficulty   int    `json:"difficulty"`
	Intent       string `json:"intent"`
}

// TopicExtractor discovers candidate keywords for a site.
type TopicExtractor interface {
	ExtractTopics(ctx context.Context, siteDomain string, goals []string) ([]TopicSuggestion, error)
}

// ResearchResult is the competitive snapshot for one keyword.
type ResearchResult struct {
	CompetitorURLs []string `json:"competitor_urls"`
	AvgWordCount   int      `json:"avg_word_count"`
	ContentGaps    []string `json:"content_gaps"`
}

// Researcher surveys the competitive landscape for a keyword.
type Researcher interface {
	Research(ctx context.Context, keyword string) (*ResearchResult, error)
}

// RankResult is one search-ranking observation from the lookup capability.
// Rank 0 with Found false means the tracked domain was not in the results.
type RankResult struct {
	Rank  int    `json:"rank"`
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
	Found bool   `json:"found"`
}

// RankLookup resolves the current search rank of a domain for a keyword.
type RankLookup interface {
	Lookup(ctx context.Context, siteDomain, keyword string) (*RankResult, error)
}

// PublishResult is the provider-side identity of a published item.
type PublishResult struct {
	ExternalID string `json:"external_id"`
	URL        string `json:"url"`
	Status     string `json:"status"`
}

// Channel publishes a content artifact to one distribution surface. Channel
// calls for the same artifact are independent: one channel failing must not
// block another.
type Channel interface {
	Name() string
	Publish(ctx context.Context, artifact *domain.ContentArtifact) (*PublishResult, error)
}

// SendRequest is one outbound mail send.
type SendRequest struct {
	To      string
	Subject string
	Body    string
}

// Mailer transmits outreach mail. The implementation embeds the open pixel
// and wraps links through the click redirect before transmission, and
// returns the correlation id the tracking engine will see events under.
type Mailer interface {
	Send(ctx context.Context, req SendRequest) (string, error)
}

// Mailbox fetches newly arrived inbound messages for the reply scan.
type Mailbox interface {
	FetchNew(ctx context.Context) ([]domain.InboundMessage, error)
}

// classifyStatus maps a non-2xx provider response to the retry taxonomy:
// rate-limit and overload signals are transient, everything else permanent.
func classifyStatus(op string, code int) error {
	err := fmt.Errorf("%s: provider returned %d", op, code)
	if code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable {
		return domain.Transient(op, err)
	}

	return domain.Permanent(op, err)
}
