// Package aggregator selects the legislative and news content for one user's
// brief: a small interest-diverse set of federal bills that avoids repeating
// previously surfaced items, state-legislature coverage, and a deduplicated
// news list.
package aggregator

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/hakivo/brief-engine/internal/models"
	"github.com/hakivo/brief-engine/internal/news"
	"github.com/hakivo/brief-engine/internal/taxonomy"
)

// Selection windows and caps.
const (
	dedupLookbackDays = 30 // ledger exclusion window
	interestLookback  = 14 // interest-bill query window, wider so recess weeks still yield items
	repLookbackDays   = 7  // representative-bill freshness window
	maxBills          = 5
	maxInterestLead   = 4 // interest items when a representative bonus is appended
	maxPerBucket      = 2
	maxBuckets        = 3
	topUpThreshold    = 4 // below this, refill from the remaining pool by recency
	perChamberLimit   = 3
	maxStateBills     = 5
	stateFallbackMax  = 3
	maxNewsItems      = 10
	stateNewsLimit    = 5
	candidateLimit    = 25 // per interest query, pre-balancing
)

// Store is the subset of the content store the aggregator reads.
type Store interface {
	FeaturedBillIDs(ctx context.Context, userID uint, since time.Time) ([]string, error)
	FeaturedStateBillIDs(ctx context.Context, userID uint, since time.Time) ([]uint, error)
	Representatives(ctx context.Context, state string, district int) ([]models.Member, error)
	BillsBySponsor(ctx context.Context, bioguideID string, since time.Time, exclude []string, limit int) ([]models.Bill, error)
	BillsByPolicyArea(ctx context.Context, areas []string, since time.Time, limit int) ([]models.Bill, error)
	BillsByTitleKeyword(ctx context.Context, keywords []string, since time.Time, limit int) ([]models.Bill, error)
	StateBillsBySubject(ctx context.Context, state string, subjects []string, exclude []uint, limit int) ([]models.StateBill, error)
	RecentStateBills(ctx context.Context, state string, exclude []uint, limit int) ([]models.StateBill, error)
	CachedNews(ctx context.Context, interests []string, since time.Time, limit int) ([]models.CachedNewsItem, error)
}

// NewsSearcher is the live news-search adapter contract.
type NewsSearcher interface {
	Search(ctx context.Context, interests []string, state string, limit int) ([]news.Item, error)
}

// SelectedBill is a federal bill chosen for a brief, flagged when it was
// picked because the user's own representative sponsors it.
type SelectedBill struct {
	models.Bill
	FromRepresentative bool
}

// Content is everything the aggregator hands to the narrative stage.
type Content struct {
	Bills      []SelectedBill
	StateBills []models.StateBill
	News       []news.Item
}

// Aggregator runs the content selection for one user. Lookup tables are
// injected at construction so tests can swap them.
type Aggregator struct {
	store    Store
	searcher NewsSearcher
	tax      *taxonomy.Taxonomy
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an Aggregator.
func New(store Store, searcher NewsSearcher, tax *taxonomy.Taxonomy, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		store:    store,
		searcher: searcher,
		tax:      tax,
		logger:   logger,
		now:      time.Now,
	}
}

// Aggregate selects bills, state bills, and news for the user. Every fetch in
// here is individually degradable: a failed read is logged and its slice
// stays empty, because a brief that leans on the remaining content beats no
// brief at all.
func (a *Aggregator) Aggregate(ctx context.Context, user *models.User, interests []string) *Content {
	return &Content{
		Bills:      a.selectBills(ctx, user, interests),
		StateBills: a.selectStateBills(ctx, user, interests),
		News:       a.SelectNews(ctx, user, interests),
	}
}

// selectBills implements the legislative selection: exclusion set, then
// representative bills, then interest-balanced bills, then the composition
// policy (interest items lead, at most one fresh representative bonus, five
// total).
func (a *Aggregator) selectBills(ctx context.Context, user *models.User, interests []string) []SelectedBill {
	now := a.now()

	exclude, err := a.store.FeaturedBillIDs(ctx, user.ID, now.AddDate(0, 0, -dedupLookbackDays))
	if err != nil {
		a.logger.Warn("Failed to load dedup ledger, selecting without exclusions",
			"user_id", user.ID, "error", err.Error())
		exclude = nil
	}

	repBills := a.representativeBills(ctx, user, exclude, now)

	taken := make(map[string]bool, len(exclude)+len(repBills))
	for _, id := range exclude {
		taken[id] = true
	}
	for _, b := range repBills {
		taken[b.BillID] = true
	}

	candidates := a.interestCandidates(ctx, interests, taken, now)
	balanced := a.balanceByInterest(candidates, interests)

	return composeSelection(balanced, repBills, now)
}

// representativeBills fetches up to three bills sponsored by the user's
// senators and up to three by their house member, newest action first.
func (a *Aggregator) representativeBills(ctx context.Context, user *models.User, exclude []string, now time.Time) []models.Bill {
	if user.State == "" {
		return nil
	}

	members, err := a.store.Representatives(ctx, user.State, user.District)
	if err != nil {
		a.logger.Warn("Failed to resolve representatives",
			"user_id", user.ID, "state", user.State, "error", err.Error())
		return nil
	}

	since := now.AddDate(0, 0, -repLookbackDays)
	var senate, house []models.Bill
	for _, m := range members {
		bills, err := a.store.BillsBySponsor(ctx, m.BioguideID, since, exclude, perChamberLimit)
		if err != nil {
			a.logger.Warn("Failed to fetch sponsored bills",
				"bioguide_id", m.BioguideID, "error", err.Error())
			continue
		}
		if m.Chamber == models.ChamberSenate {
			senate = append(senate, bills...)
		} else {
			house = append(house, bills...)
		}
	}

	sortByActionDesc(senate)
	if len(senate) > perChamberLimit {
		senate = senate[:perChamberLimit]
	}
	sortByActionDesc(house)
	if len(house) > perChamberLimit {
		house = house[:perChamberLimit]
	}

	merged := append(senate, house...)
	return dedupeBills(merged)
}

// interestCandidates unions the category-match and title-keyword queries over
// the 14-day window, deduplicated and with already-taken ids removed.
func (a *Aggregator) interestCandidates(ctx context.Context, interests []string, taken map[string]bool, now time.Time) []models.Bill {
	since := now.AddDate(0, 0, -interestLookback)

	byArea, err := a.store.BillsByPolicyArea(ctx, a.tax.PolicyAreas(interests), since, candidateLimit)
	if err != nil {
		a.logger.Warn("Failed to fetch bills by policy area", "error", err.Error())
	}
	byKeyword, err := a.store.BillsByTitleKeyword(ctx, a.tax.Keywords(interests), since, candidateLimit)
	if err != nil {
		a.logger.Warn("Failed to fetch bills by keyword", "error", err.Error())
	}

	var out []models.Bill
	seen := make(map[string]bool)
	for _, b := range append(byArea, byKeyword...) {
		if taken[b.BillID] || seen[b.BillID] {
			continue
		}
		seen[b.BillID] = true
		out = append(out, b)
	}
	return out
}

// balanceByInterest buckets candidates by the first interest they match,
// then greedily takes up to two items from each of the three largest buckets
// so the brief touches multiple topics instead of over-indexing on the
// biggest one. Below four items it tops up from the remainder by recency.
func (a *Aggregator) balanceByInterest(candidates []models.Bill, interests []string) []models.Bill {
	buckets := make(map[string][]models.Bill)
	for _, b := range candidates {
		interest := a.tax.MatchInterest(interests, b.PolicyArea, b.Title)
		if interest == "" {
			continue
		}
		buckets[interest] = append(buckets[interest], b)
	}

	// Largest bucket first; ties break on the user's declared interest order
	// so the pick is deterministic.
	order := make([]string, 0, len(buckets))
	for _, interest := range interests {
		if len(buckets[interest]) > 0 {
			order = append(order, interest)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return len(buckets[order[i]]) > len(buckets[order[j]])
	})

	var selected []models.Bill
	picked := make(map[string]bool)
	for i, interest := range order {
		if i >= maxBuckets || len(selected) >= maxBills {
			break
		}
		bucket := buckets[interest]
		sortByActionDesc(bucket)
		for j := 0; j < len(bucket) && j < maxPerBucket && len(selected) < maxBills; j++ {
			selected = append(selected, bucket[j])
			picked[bucket[j].BillID] = true
		}
	}

	if len(selected) < topUpThreshold {
		var rest []models.Bill
		for _, b := range candidates {
			if !picked[b.BillID] {
				rest = append(rest, b)
			}
		}
		sortByActionDesc(rest)
		for _, b := range rest {
			if len(selected) >= maxBills {
				break
			}
			selected = append(selected, b)
		}
	}

	return selected
}

// composeSelection applies the final composition policy: up to four
// interest-balanced items lead, then at most one representative bill and only
// when its latest action is within the last week. A stale representative bill
// is worse than no bonus item.
func composeSelection(balanced, repBills []models.Bill, now time.Time) []SelectedBill {
	freshCutoff := now.AddDate(0, 0, -repLookbackDays)
	var bonus *models.Bill
	sortByActionDesc(repBills)
	for i := range repBills {
		if !repBills[i].LatestActionDate.Before(freshCutoff) {
			bonus = &repBills[i]
			break
		}
	}

	lead := balanced
	if bonus != nil && len(lead) > maxInterestLead {
		lead = lead[:maxInterestLead]
	} else if len(lead) > maxBills {
		lead = lead[:maxBills]
	}

	out := make([]SelectedBill, 0, len(lead)+1)
	for _, b := range lead {
		out = append(out, SelectedBill{Bill: b})
	}
	if bonus != nil && len(out) < maxBills {
		out = append(out, SelectedBill{Bill: *bonus, FromRepresentative: true})
	}
	return out
}

// selectStateBills picks up to five state-legislature items by mapped
// subject, falling back to the most recent bills regardless of subject so
// state coverage is never empty when data exists.
func (a *Aggregator) selectStateBills(ctx context.Context, user *models.User, interests []string) []models.StateBill {
	if user.State == "" {
		return nil
	}
	now := a.now()

	exclude, err := a.store.FeaturedStateBillIDs(ctx, user.ID, now.AddDate(0, 0, -dedupLookbackDays))
	if err != nil {
		a.logger.Warn("Failed to load state dedup ledger, selecting without exclusions",
			"user_id", user.ID, "error", err.Error())
		exclude = nil
	}

	bills, err := a.store.StateBillsBySubject(ctx, user.State, a.tax.StateSubjects(interests), exclude, maxStateBills)
	if err != nil {
		a.logger.Warn("Failed to fetch state bills by subject",
			"state", user.State, "error", err.Error())
		bills = nil
	}
	if len(bills) > 0 {
		return bills
	}

	bills, err = a.store.RecentStateBills(ctx, user.State, exclude, stateFallbackMax)
	if err != nil {
		a.logger.Warn("Failed to fetch recent state bills",
			"state", user.State, "error", err.Error())
		return nil
	}
	return bills
}

func sortByActionDesc(bills []models.Bill) {
	sort.SliceStable(bills, func(i, j int) bool {
		return bills[i].LatestActionDate.After(bills[j].LatestActionDate)
	})
}

func dedupeBills(bills []models.Bill) []models.Bill {
	seen := make(map[string]bool, len(bills))
	out := bills[:0]
	for _, b := range bills {
		if seen[b.BillID] {
			continue
		}
		seen[b.BillID] = true
		out = append(out, b)
	}
	return out
}
