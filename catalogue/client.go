// catalogue/client.go
package catalogue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	logger "github.com/datakaveri/dx-resource-server-sub002/logging"
	"github.com/datakaveri/dx-resource-server-sub002/model"
)

// searchResponse is the envelope the catalogue service wraps results in.
type searchResponse struct {
	Type      string                 `json:"type"`
	TotalHits int                    `json:"totalHits"`
	Results   []model.CatalogueEntry `json:"results"`
}

// Client talks to the remote catalogue service. Timeouts are the client's
// own concern; callers treat a timeout like any other fetch failure.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchAll retrieves the complete set of resource records via the catalogue's
// search-by-property endpoint.
func (c *Client) FetchAll(ctx context.Context) (map[string]model.CatalogueEntry, error) {
	query := url.Values{}
	query.Set("property", "[itemStatus]")
	query.Set("value", "[[ACTIVE]]")

	results, err := c.search(ctx, query)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]model.CatalogueEntry, len(results))
	for _, entry := range results {
		if entry.ID == "" {
			continue
		}
		entries[entry.ID] = entry
	}
	logger.Debug("Fetched catalogue entries", zap.Int("count", len(entries)))
	return entries, nil
}

// FetchByID retrieves a single resource record; found is false when the
// catalogue has no entry for the id.
func (c *Client) FetchByID(ctx context.Context, id string) (model.CatalogueEntry, bool, error) {
	query := url.Values{}
	query.Set("property", "[id]")
	query.Set("value", fmt.Sprintf("[[%s]]", id))

	results, err := c.search(ctx, query)
	if err != nil {
		return model.CatalogueEntry{}, false, err
	}
	if len(results) == 0 {
		return model.CatalogueEntry{}, false, nil
	}
	return results[0], true, nil
}

func (c *Client) search(ctx context.Context, query url.Values) ([]model.CatalogueEntry, error) {
	searchURL := fmt.Sprintf("%s/search?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalogue request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalogue search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalogue search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue response: %w", err)
	}

	var envelope searchResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode catalogue response: %w", err)
	}
	return envelope.Results, nil
}
