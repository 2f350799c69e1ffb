package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hakivo/brief-engine/internal/news"
	"github.com/hakivo/brief-engine/internal/stockphoto"
	"github.com/hakivo/brief-engine/internal/taxonomy"
)

type fakeImageGen struct {
	calls int
	data  []byte
	err   error
}

func (f *fakeImageGen) GenerateImage(_ context.Context, _ string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

type fakeUploader struct {
	calls   int
	lastKey string
	url     string
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, key string, _ []byte, _ string, _ map[string]string) (string, error) {
	f.calls++
	f.lastKey = key
	return f.url, f.err
}

type fakeStock struct {
	calls     int
	lastQuery string
	photos    []stockphoto.Photo
	err       error
}

func (f *fakeStock) Search(_ context.Context, query string) ([]stockphoto.Photo, error) {
	f.calls++
	f.lastQuery = query
	return f.photos, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	tax, err := taxonomy.Load()
	if err != nil {
		t.Fatalf("failed to load taxonomy: %v", err)
	}
	return tax
}

func TestResolveUsesNewsMetadataFirst(t *testing.T) {
	gen := &fakeImageGen{data: []byte("png")}
	up := &fakeUploader{url: "https://cdn.example/synth.png"}
	stock := &fakeStock{photos: []stockphoto.Photo{{LargeURL: "https://photos.example/1.jpg"}}}
	r := NewResolver(gen, up, stock, mustTaxonomy(t), testLogger())

	got := r.Resolve(context.Background(), Request{
		BriefID:  1,
		Headline: "Energy bill advances",
		News: []news.Item{
			{URL: "https://news.example/a", ImageURL: ""},
			{URL: "https://news.example/b", ImageURL: "https://news.example/b.jpg"},
		},
	})

	if got != "https://news.example/b.jpg" {
		t.Fatalf("expected metadata image, got %q", got)
	}
	if gen.calls != 0 || up.calls != 0 || stock.calls != 0 {
		t.Errorf("later tiers invoked after metadata hit: gen=%d up=%d stock=%d", gen.calls, up.calls, stock.calls)
	}
}

func TestResolveScrapesOpenGraphImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><meta property="og:image" content="https://pub.example/hero.jpg"></head><body></body></html>`)
	}))
	defer srv.Close()

	gen := &fakeImageGen{data: []byte("png")}
	stock := &fakeStock{photos: []stockphoto.Photo{{LargeURL: "https://photos.example/1.jpg"}}}
	r := NewResolver(gen, &fakeUploader{}, stock, mustTaxonomy(t), testLogger())

	got := r.Resolve(context.Background(), Request{
		BriefID:  2,
		Headline: "Health bill advances",
		News:     []news.Item{{URL: srv.URL}},
	})

	if got != "https://pub.example/hero.jpg" {
		t.Fatalf("expected scraped og:image, got %q", got)
	}
	if gen.calls != 0 || stock.calls != 0 {
		t.Errorf("later tiers invoked after scrape hit: gen=%d stock=%d", gen.calls, stock.calls)
	}
}

func TestResolveFallsThroughToSynthesis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head></head><body>no meta tags here</body></html>`)
	}))
	defer srv.Close()

	gen := &fakeImageGen{data: []byte("png-bytes")}
	up := &fakeUploader{url: "https://cdn.example/briefs/3/feature.png"}
	stock := &fakeStock{}
	r := NewResolver(gen, up, stock, mustTaxonomy(t), testLogger())

	got := r.Resolve(context.Background(), Request{
		BriefID:   3,
		Headline:  "Budget deal reached",
		Interests: []string{"Economy & Taxes"},
		News:      []news.Item{{URL: srv.URL}},
	})

	if got != up.url {
		t.Fatalf("expected synthesis URL, got %q", got)
	}
	if gen.calls != 1 || up.calls != 1 {
		t.Errorf("expected one generate and one upload, got gen=%d up=%d", gen.calls, up.calls)
	}
	if stock.calls != 0 {
		t.Errorf("stock tier invoked after synthesis hit")
	}
	wantPrefix := "briefs/3/feature-"
	if len(up.lastKey) <= len(wantPrefix) || up.lastKey[:len(wantPrefix)] != wantPrefix {
		t.Errorf("unexpected upload key %q", up.lastKey)
	}
}

func TestResolveFallsBackToStockPhoto(t *testing.T) {
	gen := &fakeImageGen{err: errors.New("image model unavailable")}
	stock := &fakeStock{photos: []stockphoto.Photo{{LargeURL: "https://photos.example/capitol.jpg"}}}
	r := NewResolver(gen, &fakeUploader{}, stock, mustTaxonomy(t), testLogger())
	r.randInt = func(int) int { return 0 }

	got := r.Resolve(context.Background(), Request{
		BriefID:   4,
		Headline:  "School funding vote",
		Interests: []string{"Education"},
	})

	if got != "https://photos.example/capitol.jpg" {
		t.Fatalf("expected stock photo URL, got %q", got)
	}
	if stock.lastQuery != "classroom" {
		t.Errorf("expected first education image term as query, got %q", stock.lastQuery)
	}
}

func TestResolveStockFallbackQueryWithoutInterests(t *testing.T) {
	stock := &fakeStock{photos: []stockphoto.Photo{{LargeURL: "https://photos.example/1.jpg"}}}
	r := NewResolver(nil, nil, stock, mustTaxonomy(t), testLogger())
	r.randInt = func(int) int { return 0 }

	r.Resolve(context.Background(), Request{BriefID: 5, Headline: "Weekly brief"})

	if stock.lastQuery != "capitol building" {
		t.Errorf("expected generic fallback query, got %q", stock.lastQuery)
	}
}

func TestResolveEmptyWhenEveryTierExhausted(t *testing.T) {
	r := NewResolver(nil, nil, nil, mustTaxonomy(t), testLogger())

	if got := r.Resolve(context.Background(), Request{BriefID: 6, Headline: "Quiet week"}); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

func TestLooksLikeImageURL(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"https://pub.example/hero.jpg", true},
		{"https://pub.example/assets/photo/123", true},
		{"https://pub.example/img/lead.webp", true},
		{"https://pub.example/images/abc", true},
		{"http://pub.example/a.PNG", true},
		{"https://pub.example/article", false},
		{"ftp://pub.example/hero.jpg", false},
		{"/relative/hero.jpg", false},
		{"", false},
		{"not a url at all %%", false},
	}
	for _, tc := range cases {
		if got := looksLikeImageURL(tc.raw); got != tc.want {
			t.Errorf("looksLikeImageURL(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
