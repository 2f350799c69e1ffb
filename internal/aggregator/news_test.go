package aggregator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hakivo/brief-engine/internal/models"
	"github.com/hakivo/brief-engine/internal/news"
)

func newsItem(title, url string) news.Item {
	return news.Item{Title: title, URL: url, PublishedAt: fixedNow.AddDate(0, 0, -1)}
}

func TestSelectNewsMergesStateFirst(t *testing.T) {
	searcher := &fakeSearcher{
		national: []news.Item{
			newsItem("national one", "https://news.example/n1"),
			newsItem("national two", "https://news.example/n2"),
		},
		state: []news.Item{
			newsItem("state one", "https://news.example/s1"),
		},
	}
	a := newTestAggregator(t, &fakeStore{}, searcher)

	got := a.SelectNews(context.Background(), wisconsinUser(), []string{"Education"})

	if len(got) != 3 {
		t.Fatalf("expected 3 merged items, got %d", len(got))
	}
	if got[0].URL != "https://news.example/s1" {
		t.Errorf("expected state item first, got %s", got[0].URL)
	}
}

func TestSelectNewsDeduplicatesByURL(t *testing.T) {
	shared := "https://news.example/shared"
	searcher := &fakeSearcher{
		national: []news.Item{
			newsItem("syndicated copy", shared),
			newsItem("national only", "https://news.example/n1"),
		},
		state: []news.Item{
			newsItem("local original", shared),
		},
	}
	a := newTestAggregator(t, &fakeStore{}, searcher)

	got := a.SelectNews(context.Background(), wisconsinUser(), []string{"Education"})

	if len(got) != 2 {
		t.Fatalf("expected dedup to 2 items, got %d", len(got))
	}
	// The state copy wins the shared URL.
	if got[0].Title != "local original" {
		t.Errorf("expected state copy to win the shared URL, got %q", got[0].Title)
	}
}

func TestSelectNewsCapsAtTen(t *testing.T) {
	var national []news.Item
	for i := 0; i < 15; i++ {
		national = append(national, newsItem("story", fmt.Sprintf("https://news.example/n%d", i)))
	}
	a := newTestAggregator(t, &fakeStore{}, &fakeSearcher{national: national})

	got := a.SelectNews(context.Background(), wisconsinUser(), []string{"Education"})
	if len(got) != maxNewsItems {
		t.Errorf("expected cap at %d items, got %d", maxNewsItems, len(got))
	}
}

func TestSelectNewsFallsBackToCache(t *testing.T) {
	st := &fakeStore{
		cachedNews: []models.CachedNewsItem{
			{
				Interest:    "Education",
				Title:       "cached story",
				URL:         "https://news.example/cached",
				PublishedAt: fixedNow.AddDate(0, 0, -3),
			},
		},
	}
	a := newTestAggregator(t, st, &fakeSearcher{err: errors.New("adapter unreachable")})

	got := a.SelectNews(context.Background(), wisconsinUser(), []string{"Education"})

	if len(got) != 1 || got[0].URL != "https://news.example/cached" {
		t.Fatalf("expected cached fallback item, got %v", got)
	}
}

func TestSelectNewsEmptyWhenAllSourcesFail(t *testing.T) {
	st := &fakeStore{
		failures: map[string]error{"CachedNews": errors.New("db down")},
	}
	a := newTestAggregator(t, st, &fakeSearcher{err: errors.New("adapter unreachable")})

	if got := a.SelectNews(context.Background(), wisconsinUser(), []string{"Education"}); len(got) != 0 {
		t.Errorf("expected no news when live and cache both fail, got %d items", len(got))
	}
}

func TestMergeNewsSkipsEmptyURLs(t *testing.T) {
	got := mergeNews([]news.Item{{Title: "no url"}}, []news.Item{newsItem("ok", "https://news.example/1")})
	if len(got) != 1 || got[0].URL != "https://news.example/1" {
		t.Errorf("expected url-less item dropped, got %v", got)
	}
}
