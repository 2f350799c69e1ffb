// Package audio notifies the downstream audio-rendering service that a brief
// has a script ready. The call is best-effort: the renderer runs its own
// poller over script_ready briefs, so a lost notification only delays audio,
// it never loses it.
package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the fire-and-forget notify client for the audio renderer.
type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

// NewClient creates an audio renderer client with the given configuration.
func NewClient(baseURL, secret string) *Client {
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		// Short timeout: the renderer's poller is the reliable path, this
		// call just shaves latency off the happy case.
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// NotifyScriptReady asks the renderer to start on the given brief now rather
// than waiting for its next poll.
func (c *Client) NotifyScriptReady(ctx context.Context, briefID uint) error {
	if c.baseURL == "" {
		return fmt.Errorf("audio renderer URL is not configured")
	}

	payload, err := json.Marshal(map[string]uint{"brief_id": briefID})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Renderer-Secret", c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("renderer returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
