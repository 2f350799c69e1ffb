package aggregator

import (
	"context"
	"sync"

	"github.com/hakivo/brief-engine/internal/models"
	"github.com/hakivo/brief-engine/internal/news"
)

const newsCacheLookbackDays = 7

// SelectNews fetches national and, when the user has a home state,
// state-scoped news concurrently. State results merge first since they read
// as more personally relevant; the merged list is URL-deduplicated and capped
// at ten. If the live adapter fails outright, the pre-synced cache filtered
// to the last week stands in.
func (a *Aggregator) SelectNews(ctx context.Context, user *models.User, interests []string) []news.Item {
	var (
		wg                    sync.WaitGroup
		national, stateScoped []news.Item
		nationalErr, stateErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		national, nationalErr = a.searcher.Search(ctx, interests, "", maxNewsItems)
	}()

	if user.State != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stateScoped, stateErr = a.searcher.Search(ctx, interests, user.State, stateNewsLimit)
		}()
	}

	wg.Wait()

	if nationalErr != nil {
		a.logger.Warn("National news fetch failed", "error", nationalErr.Error())
	}
	if stateErr != nil {
		a.logger.Warn("State news fetch failed", "state", user.State, "error", stateErr.Error())
	}

	merged := mergeNews(stateScoped, national)
	if len(merged) > 0 {
		return merged
	}

	// Live adapter produced nothing usable: fall back to the pre-synced
	// cache so the brief still carries news.
	cached, err := a.store.CachedNews(ctx, interests, a.now().AddDate(0, 0, -newsCacheLookbackDays), maxNewsItems)
	if err != nil {
		a.logger.Warn("News cache fallback failed", "error", err.Error())
		return nil
	}
	if len(cached) > 0 {
		a.logger.Info("Using cached news fallback", "user_id", user.ID, "items", len(cached))
	}

	items := make([]news.Item, 0, len(cached))
	for _, c := range cached {
		items = append(items, news.Item{
			Title:       c.Title,
			Summary:     c.Summary,
			URL:         c.URL,
			ImageURL:    c.ImageURL,
			PublishedAt: c.PublishedAt,
		})
	}
	return mergeNews(items, nil)
}

// mergeNews concatenates first-priority then second-priority items,
// deduplicating by URL and capping at the news limit.
func mergeNews(first, second []news.Item) []news.Item {
	seen := make(map[string]bool)
	var out []news.Item
	for _, item := range append(append([]news.Item{}, first...), second...) {
		if item.URL == "" || seen[item.URL] {
			continue
		}
		seen[item.URL] = true
		out = append(out, item)
		if len(out) == maxNewsItems {
			break
		}
	}
	return out
}
