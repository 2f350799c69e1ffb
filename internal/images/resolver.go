// Package images resolves a single feature image URL for a brief through an
// ordered fallback cascade. Every tier is optional: exhausting the cascade
// leaves the brief without an image, which is an accepted degraded state.
package images

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hakivo/brief-engine/internal/llm"
	"github.com/hakivo/brief-engine/internal/news"
	"github.com/hakivo/brief-engine/internal/stockphoto"
	"github.com/hakivo/brief-engine/internal/taxonomy"
)

const (
	scrapeTimeout    = 5 * time.Second
	scrapeCandidates = 3
)

// Uploader stores synthesized image bytes and returns a public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) (string, error)
}

// StockSearcher is the stock-photo search contract.
type StockSearcher interface {
	Search(ctx context.Context, query string) ([]stockphoto.Photo, error)
}

// Request carries the per-brief inputs the cascade draws from.
type Request struct {
	BriefID   uint
	Headline  string
	Interests []string
	News      []news.Item
}

// tier is one cascade step. Returning ("", nil) means "nothing found, try the
// next tier"; an error is logged and treated the same way.
type tier struct {
	name  string
	fetch func(ctx context.Context, req Request) (string, error)
}

// Resolver evaluates the cascade in order and short-circuits on the first
// tier that yields a URL. Tiers live in an ordered slice so adding or
// removing one is a one-line change.
type Resolver struct {
	tiers      []tier
	logger     *slog.Logger
	httpClient *http.Client
	imageGen   llm.ImageGenerator
	uploader   Uploader
	stock      StockSearcher
	tax        *taxonomy.Taxonomy
	randInt    func(n int) int
}

// NewResolver creates the four-tier resolver. Any nil adapter simply makes
// its tier a no-op.
func NewResolver(imageGen llm.ImageGenerator, uploader Uploader, stock StockSearcher, tax *taxonomy.Taxonomy, logger *slog.Logger) *Resolver {
	r := &Resolver{
		logger:     logger,
		httpClient: &http.Client{Timeout: scrapeTimeout},
		imageGen:   imageGen,
		uploader:   uploader,
		stock:      stock,
		tax:        tax,
		randInt:    rand.Intn,
	}
	r.tiers = []tier{
		{name: "news_metadata", fetch: r.fromNewsMetadata},
		{name: "og_scrape", fetch: r.fromOpenGraph},
		{name: "synthesis", fetch: r.fromSynthesis},
		{name: "stock_photo", fetch: r.fromStockPhoto},
	}
	return r
}

// Resolve returns the first image URL the cascade produces, or "" when every
// tier comes up empty.
func (r *Resolver) Resolve(ctx context.Context, req Request) string {
	for _, t := range r.tiers {
		url, err := t.fetch(ctx, req)
		if err != nil {
			r.logger.Warn("Image tier failed", "tier", t.name, "brief_id", req.BriefID, "error", err.Error())
			continue
		}
		if url != "" {
			r.logger.Info("Feature image resolved", "tier", t.name, "brief_id", req.BriefID)
			return url
		}
	}
	r.logger.Warn("All image tiers exhausted, brief proceeds without a feature image", "brief_id", req.BriefID)
	return ""
}

// Tier 1: reuse an image URL already present in the news result metadata.
func (r *Resolver) fromNewsMetadata(_ context.Context, req Request) (string, error) {
	for _, item := range req.News {
		if item.ImageURL != "" {
			return item.ImageURL, nil
		}
	}
	return "", nil
}

// Tier 3: synthesize an image, upload it, use the public URL.
func (r *Resolver) fromSynthesis(ctx context.Context, req Request) (string, error) {
	if r.imageGen == nil || r.uploader == nil {
		return "", nil
	}
	if req.Headline == "" {
		return "", nil
	}

	raw, err := r.imageGen.GenerateImage(ctx, synthesisPrompt(req))
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", nil
	}

	key := fmt.Sprintf("briefs/%d/feature-%s.png", req.BriefID, uuid.NewString())
	url, err := r.uploader.Upload(ctx, key, raw, "image/png", map[string]string{
		"brief-id": fmt.Sprintf("%d", req.BriefID),
	})
	if err != nil {
		return "", err
	}
	return url, nil
}

// Tier 4: stock photo search using the per-interest keyword table, with a
// random query term for variety.
func (r *Resolver) fromStockPhoto(ctx context.Context, req Request) (string, error) {
	if r.stock == nil {
		return "", nil
	}

	var terms []string
	for _, interest := range req.Interests {
		terms = append(terms, r.tax.ImageTerms(interest)...)
	}
	if len(terms) == 0 {
		terms = []string{"capitol building"}
	}

	query := terms[r.randInt(len(terms))]
	photos, err := r.stock.Search(ctx, query)
	if err != nil {
		return "", err
	}
	if len(photos) == 0 {
		return "", nil
	}
	return photos[0].LargeURL, nil
}

func synthesisPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Photojournalistic editorial image for a civic news brief headlined ")
	fmt.Fprintf(&b, "%q.", req.Headline)
	if len(req.Interests) > 0 {
		top := req.Interests
		if len(top) > 2 {
			top = top[:2]
		}
		fmt.Fprintf(&b, " Themes: %s.", strings.Join(top, ", "))
	}
	b.WriteString(" Realistic civic imagery such as government buildings, communities, or public infrastructure. No text, no logos, no recognizable faces.")
	return b.String()
}
