// Package stockphoto wraps a Pexels-compatible stock photo search API, the
// last tier of the feature-image cascade.
package stockphoto

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Photo is one stock photo result. LargeURL points at the large-size rendition.
type Photo struct {
	LargeURL string
}

// Client calls the stock photo search API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a stock photo client. An empty baseURL uses the Pexels API.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://api.pexels.com"
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Search returns photos matching the query.
func (c *Client) Search(ctx context.Context, query string) ([]Photo, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", "10")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("photo search returned status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Photos []struct {
			Src struct {
				Large string `json:"large"`
			} `json:"src"`
		} `json:"photos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	photos := make([]Photo, 0, len(out.Photos))
	for _, p := range out.Photos {
		if p.Src.Large != "" {
			photos = append(photos, Photo{LargeURL: p.Src.Large})
		}
	}
	return photos, nil
}
