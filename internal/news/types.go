// Package news wraps the external news-search service behind a narrow typed
// contract. The provider applies its own recency filtering; callers only
// supply interests, optional geography, and a result cap.
package news

import "time"

// Item is a single news article returned by the search provider.
type Item struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
