package images

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Tier 2: fetch the first few news article pages and pull an Open Graph or
// Twitter-card image out of the head. Each fetch is bounded by the client's
// 5-second timeout so a slow publisher cannot stall the pipeline.
func (r *Resolver) fromOpenGraph(ctx context.Context, req Request) (string, error) {
	tried := 0
	for _, item := range req.News {
		if tried >= scrapeCandidates {
			break
		}
		if item.URL == "" {
			continue
		}
		tried++

		imageURL, err := r.scrapeMetaImage(ctx, item.URL)
		if err != nil {
			r.logger.Debug("og:image scrape failed", "url", item.URL, "error", err.Error())
			continue
		}
		if imageURL != "" {
			return imageURL, nil
		}
	}
	return "", nil
}

func (r *Resolver) scrapeMetaImage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "hakivo-brief-engine/1.0")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	for _, selector := range []string{
		`meta[property="og:image"]`,
		`meta[name="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[property="twitter:image"]`,
	} {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			content = strings.TrimSpace(content)
			if looksLikeImageURL(content) {
				return content, nil
			}
		}
	}
	return "", nil
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true, ".avif": true,
}

// looksLikeImageURL accepts only URLs that plausibly point at a real image
// resource: an absolute http(s) URL with a known extension or an image-ish
// path segment. Meta tags on real pages carry plenty of junk.
func looksLikeImageURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	lower := strings.ToLower(u.Path)
	if imageExtensions[path.Ext(lower)] {
		return true
	}
	return strings.Contains(lower, "/image") || strings.Contains(lower, "/img/") || strings.Contains(lower, "/photo")
}
