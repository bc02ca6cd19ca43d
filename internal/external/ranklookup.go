package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonesrussell/gocampaign/internal/domain"
)

const lookupTimeout = 15 * time.Second

// RankClient is the HTTP implementation of RankLookup.
type RankClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewRankClient creates a search-ranking lookup client.
func NewRankClient(baseURL string) *RankClient {
	return &RankClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: lookupTimeout,
		},
	}
}

// Lookup resolves the current rank of a domain for a keyword. A domain that
// is not in the results comes back as Rank 0 / Found false, which is a valid
// observation, not an error.
func (c *RankClient) Lookup(ctx context.Context, siteDomain, keyword string) (*RankResult, error) {
	query := url.Values{}
	query.Set("domain", siteDomain)
	query.Set("keyword", keyword)

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet,
		c.baseURL+"/v1/rank?"+query.Encode(), http.NoBody,
	)
	if err != nil {
		return nil, fmt.Errorf("create rank request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.Transient("rank lookup", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus("rank lookup", resp.StatusCode)
	}

	var result RankResult
	if decodeErr := json.NewDecoder(resp.Body).Decode(&result); decodeErr != nil {
		return nil, fmt.Errorf("decode rank response: %w", decodeErr)
	}

	return &result, nil
}
