package aggregator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hakivo/brief-engine/internal/models"
	"github.com/hakivo/brief-engine/internal/news"
	"github.com/hakivo/brief-engine/internal/taxonomy"
)

var fixedNow = time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)

type fakeStore struct {
	featured      []string
	featuredState []uint
	members       []models.Member
	sponsorBills  map[string][]models.Bill
	areaBills     []models.Bill
	keywordBills  []models.Bill
	subjectBills  []models.StateBill
	recentState   []models.StateBill
	cachedNews    []models.CachedNewsItem

	failures map[string]error
}

func (f *fakeStore) fail(method string) error {
	if f.failures == nil {
		return nil
	}
	return f.failures[method]
}

func (f *fakeStore) FeaturedBillIDs(_ context.Context, _ uint, _ time.Time) ([]string, error) {
	return f.featured, f.fail("FeaturedBillIDs")
}

func (f *fakeStore) FeaturedStateBillIDs(_ context.Context, _ uint, _ time.Time) ([]uint, error) {
	return f.featuredState, f.fail("FeaturedStateBillIDs")
}

func (f *fakeStore) Representatives(_ context.Context, _ string, _ int) ([]models.Member, error) {
	return f.members, f.fail("Representatives")
}

func (f *fakeStore) BillsBySponsor(_ context.Context, bioguideID string, since time.Time, exclude []string, limit int) ([]models.Bill, error) {
	if err := f.fail("BillsBySponsor"); err != nil {
		return nil, err
	}
	excluded := make(map[string]bool)
	for _, id := range exclude {
		excluded[id] = true
	}
	var out []models.Bill
	for _, b := range f.sponsorBills[bioguideID] {
		if excluded[b.BillID] || b.LatestActionDate.Before(since) {
			continue
		}
		out = append(out, b)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) BillsByPolicyArea(_ context.Context, _ []string, since time.Time, _ int) ([]models.Bill, error) {
	if err := f.fail("BillsByPolicyArea"); err != nil {
		return nil, err
	}
	return billsSince(f.areaBills, since), nil
}

func (f *fakeStore) BillsByTitleKeyword(_ context.Context, _ []string, since time.Time, _ int) ([]models.Bill, error) {
	if err := f.fail("BillsByTitleKeyword"); err != nil {
		return nil, err
	}
	return billsSince(f.keywordBills, since), nil
}

func (f *fakeStore) StateBillsBySubject(_ context.Context, _ string, _ []string, exclude []uint, _ int) ([]models.StateBill, error) {
	if err := f.fail("StateBillsBySubject"); err != nil {
		return nil, err
	}
	return stateBillsExcluding(f.subjectBills, exclude), nil
}

func (f *fakeStore) RecentStateBills(_ context.Context, _ string, exclude []uint, limit int) ([]models.StateBill, error) {
	if err := f.fail("RecentStateBills"); err != nil {
		return nil, err
	}
	out := stateBillsExcluding(f.recentState, exclude)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) CachedNews(_ context.Context, _ []string, _ time.Time, _ int) ([]models.CachedNewsItem, error) {
	return f.cachedNews, f.fail("CachedNews")
}

func billsSince(bills []models.Bill, since time.Time) []models.Bill {
	var out []models.Bill
	for _, b := range bills {
		if !b.LatestActionDate.Before(since) {
			out = append(out, b)
		}
	}
	return out
}

func stateBillsExcluding(bills []models.StateBill, exclude []uint) []models.StateBill {
	excluded := make(map[uint]bool)
	for _, id := range exclude {
		excluded[id] = true
	}
	var out []models.StateBill
	for _, b := range bills {
		if !excluded[b.ID] {
			out = append(out, b)
		}
	}
	return out
}

type fakeSearcher struct {
	national []news.Item
	state    []news.Item
	err      error
}

func (f *fakeSearcher) Search(_ context.Context, _ []string, state string, _ int) ([]news.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	if state != "" {
		return f.state, nil
	}
	return f.national, nil
}

func mustTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	tax, err := taxonomy.Load()
	if err != nil {
		t.Fatalf("failed to load taxonomy: %v", err)
	}
	return tax
}

func newTestAggregator(t *testing.T, st Store, searcher NewsSearcher) *Aggregator {
	t.Helper()
	a := New(st, searcher, mustTaxonomy(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	a.now = func() time.Time { return fixedNow }
	return a
}

func makeBill(id, area, title string, daysAgo int) models.Bill {
	return models.Bill{
		BillID:           id,
		Title:            title,
		PolicyArea:       area,
		LatestActionDate: fixedNow.AddDate(0, 0, -daysAgo),
	}
}

func makeSponsorBill(id, sponsor, area, title string, daysAgo int) models.Bill {
	b := makeBill(id, area, title, daysAgo)
	b.SponsorBioguideID = sponsor
	b.SponsorName = "Test Sponsor"
	return b
}

func wisconsinUser() *models.User {
	u := &models.User{State: "WI", District: 3}
	u.ID = 42
	return u
}

func billIDs(bills []SelectedBill) []string {
	ids := make([]string, 0, len(bills))
	for _, b := range bills {
		ids = append(ids, b.BillID)
	}
	return ids
}

func TestSelectBillsExcludesRecentlyFeatured(t *testing.T) {
	st := &fakeStore{
		featured: []string{"hr-1-118", "s-2-118"},
		areaBills: []models.Bill{
			makeBill("hr-1-118", "Energy", "Grid Act", 3),
			makeBill("s-2-118", "Energy", "Pipeline Act", 4),
			makeBill("s-3-118", "Energy", "Solar Act", 2),
		},
	}
	a := newTestAggregator(t, st, &fakeSearcher{})

	got := a.selectBills(context.Background(), wisconsinUser(), []string{"Environment & Energy"})

	for _, b := range got {
		if b.BillID == "hr-1-118" || b.BillID == "s-2-118" {
			t.Errorf("previously featured bill %s reselected", b.BillID)
		}
	}
	if len(got) != 1 || got[0].BillID != "s-3-118" {
		t.Errorf("expected only s-3-118, got %v", billIDs(got))
	}
}

func TestSelectBillsEmptyPoolIsTolerated(t *testing.T) {
	st := &fakeStore{
		featured: []string{"hr-1-118"},
		areaBills: []models.Bill{
			makeBill("hr-1-118", "Energy", "Grid Act", 3),
		},
	}
	a := newTestAggregator(t, st, &fakeSearcher{})

	got := a.selectBills(context.Background(), wisconsinUser(), []string{"Environment & Energy"})
	if len(got) != 0 {
		t.Errorf("expected empty selection when every candidate was featured, got %v", billIDs(got))
	}
}

func TestInterestCoverageSpansMultipleCategories(t *testing.T) {
	st := &fakeStore{
		areaBills: []models.Bill{
			makeBill("s-1-118", "Energy", "Wind Act", 1),
			makeBill("s-2-118", "Energy", "Solar Act", 2),
			makeBill("s-3-118", "Energy", "Grid Act", 3),
			makeBill("s-4-118", "Energy", "Pipeline Act", 4),
			makeBill("hr-1-118", "Health", "Clinic Act", 1),
			makeBill("hr-2-118", "Health", "Hospital Act", 2),
			makeBill("hr-3-118", "Education", "School Act", 1),
			makeBill("hr-4-118", "Education", "Teacher Act", 2),
		},
	}
	a := newTestAggregator(t, st, &fakeSearcher{})
	interests := []string{"Environment & Energy", "Health & Social Welfare", "Education"}

	got := a.selectBills(context.Background(), wisconsinUser(), interests)

	if len(got) < 4 {
		t.Fatalf("expected at least 4 bills, got %d", len(got))
	}

	tax := mustTaxonomy(t)
	categories := make(map[string]bool)
	perCategory := make(map[string]int)
	for _, b := range got {
		cat := tax.MatchInterest(interests, b.PolicyArea, b.Title)
		categories[cat] = true
		perCategory[cat]++
	}
	if len(categories) < 2 {
		t.Errorf("expected selection to span >=2 interest categories, got %v", categories)
	}
	for cat, n := range perCategory {
		if n > maxPerBucket {
			t.Errorf("category %s has %d items, want <= %d", cat, n, maxPerBucket)
		}
	}
}

func TestCompositionCapWithFreshRepresentativeBonus(t *testing.T) {
	st := &fakeStore{
		members: []models.Member{
			{BioguideID: "S001", State: "WI", Chamber: models.ChamberSenate},
		},
		sponsorBills: map[string][]models.Bill{
			"S001": {makeSponsorBill("s-900-118", "S001", "Taxation", "Tax Cut Act", 2)},
		},
		areaBills: []models.Bill{
			makeBill("s-1-118", "Energy", "Wind Act", 1),
			makeBill("s-2-118", "Energy", "Solar Act", 2),
			makeBill("hr-1-118", "Health", "Clinic Act", 1),
			makeBill("hr-2-118", "Health", "Hospital Act", 2),
			makeBill("hr-3-118", "Health", "Medicare Act", 3),
			makeBill("s-3-118", "Energy", "Grid Act", 3),
		},
	}
	a := newTestAggregator(t, st, &fakeSearcher{})

	got := a.selectBills(context.Background(), wisconsinUser(), []string{"Environment & Energy", "Health & Social Welfare"})

	if len(got) > maxBills {
		t.Errorf("selection length %d exceeds cap %d", len(got), maxBills)
	}

	repCount := 0
	for _, b := range got {
		if b.FromRepresentative {
			repCount++
			if b.LatestActionDate.Before(fixedNow.AddDate(0, 0, -7)) {
				t.Errorf("representative bonus %s is older than 7 days", b.BillID)
			}
		}
	}
	if repCount != 1 {
		t.Errorf("expected exactly 1 representative bonus item, got %d", repCount)
	}
}

func TestComposeSelectionRejectsStaleBonus(t *testing.T) {
	balanced := []models.Bill{
		makeBill("s-1-118", "Energy", "Wind Act", 1),
		makeBill("s-2-118", "Energy", "Solar Act", 2),
	}

	stale := []models.Bill{makeSponsorBill("s-900-118", "S001", "Taxation", "Tax Cut Act", 8)}
	got := composeSelection(balanced, stale, fixedNow)
	for _, b := range got {
		if b.FromRepresentative {
			t.Errorf("stale representative bill %s should not be appended", b.BillID)
		}
	}

	fresh := []models.Bill{makeSponsorBill("s-901-118", "S001", "Taxation", "Tax Relief Act", 6)}
	got = composeSelection(balanced, fresh, fixedNow)
	bonus := 0
	for _, b := range got {
		if b.FromRepresentative {
			bonus++
		}
	}
	if bonus != 1 {
		t.Errorf("expected a week-old representative bill to qualify, got %d bonus items", bonus)
	}
}

func TestBalancedSelectionTopsUpByRecency(t *testing.T) {
	// Only one bucket with two items: balanced pick yields 2, below the
	// threshold, so the remainder fills from the pool newest-first.
	st := &fakeStore{
		areaBills: []models.Bill{
			makeBill("s-1-118", "Energy", "Wind Act", 1),
			makeBill("s-2-118", "Energy", "Solar Act", 2),
			makeBill("s-3-118", "Energy", "Grid Act", 3),
			makeBill("s-4-118", "Energy", "Pipeline Act", 4),
		},
	}
	a := newTestAggregator(t, st, &fakeSearcher{})

	got := a.selectBills(context.Background(), wisconsinUser(), []string{"Environment & Energy"})

	if len(got) != 4 {
		t.Fatalf("expected 4 bills after top-up, got %d: %v", len(got), billIDs(got))
	}
	// Top-up items arrive in recency order after the bucket picks.
	if got[2].BillID != "s-3-118" || got[3].BillID != "s-4-118" {
		t.Errorf("unexpected top-up order: %v", billIDs(got))
	}
}

func TestDegradedBillFetchYieldsPartialContent(t *testing.T) {
	st := &fakeStore{
		failures: map[string]error{
			"BillsByPolicyArea":   errors.New("provider down"),
			"BillsByTitleKeyword": errors.New("provider down"),
		},
	}
	a := newTestAggregator(t, st, &fakeSearcher{
		national: []news.Item{{Title: "story", URL: "https://n.example/1"}},
	})

	content := a.Aggregate(context.Background(), wisconsinUser(), []string{"Environment & Energy"})

	if len(content.Bills) != 0 {
		t.Errorf("expected no bills when legislative reads fail, got %d", len(content.Bills))
	}
	if len(content.News) != 1 {
		t.Errorf("expected news to survive legislative failure, got %d items", len(content.News))
	}
}

func TestStateBillSubjectFallback(t *testing.T) {
	st := &fakeStore{
		recentState: []models.StateBill{
			{ID: 1, State: "WI", BillNumber: "AB 1", Title: "Budget Act", LatestActionDate: fixedNow.AddDate(0, 0, -2)},
			{ID: 2, State: "WI", BillNumber: "AB 2", Title: "Roads Act", LatestActionDate: fixedNow.AddDate(0, 0, -3)},
		},
	}
	a := newTestAggregator(t, st, &fakeSearcher{})

	got := a.selectStateBills(context.Background(), wisconsinUser(), []string{"Environment & Energy"})

	if len(got) != 2 {
		t.Fatalf("expected fallback to recent state bills, got %d", len(got))
	}
}

func TestStateBillsSkippedWithoutState(t *testing.T) {
	user := &models.User{}
	user.ID = 7
	st := &fakeStore{
		recentState: []models.StateBill{{ID: 1, State: "WI"}},
	}
	a := newTestAggregator(t, st, &fakeSearcher{})

	if got := a.selectStateBills(context.Background(), user, []string{"Education"}); got != nil {
		t.Errorf("expected no state bills for stateless user, got %d", len(got))
	}
}

func TestWisconsinScenario(t *testing.T) {
	// User with two interests, WI district 3, nothing previously featured:
	// the selection should touch both interests given two candidates each.
	st := &fakeStore{
		members: []models.Member{
			{BioguideID: "S001", State: "WI", Chamber: models.ChamberSenate},
			{BioguideID: "S002", State: "WI", Chamber: models.ChamberSenate},
			{BioguideID: "H003", State: "WI", District: 3, Chamber: models.ChamberHouse},
		},
		sponsorBills: map[string][]models.Bill{
			"H003": {makeSponsorBill("hr-900-118", "H003", "Agriculture and Food", "Dairy Act", 1)},
		},
		areaBills: []models.Bill{
			makeBill("s-1-118", "Energy", "Wind Act", 1),
			makeBill("s-2-118", "Environmental Protection", "Clean Water Act Update", 2),
			makeBill("hr-1-118", "Health", "Clinic Act", 1),
			makeBill("hr-2-118", "Social Welfare", "Family Support Act", 2),
		},
	}
	a := newTestAggregator(t, st, &fakeSearcher{})
	interests := []string{"Environment & Energy", "Health & Social Welfare"}

	got := a.selectBills(context.Background(), wisconsinUser(), interests)

	tax := mustTaxonomy(t)
	counts := make(map[string]int)
	for _, b := range got {
		if !b.FromRepresentative {
			counts[tax.MatchInterest(interests, b.PolicyArea, b.Title)]++
		}
	}
	for _, interest := range interests {
		if counts[interest] < 1 {
			t.Errorf("expected at least one bill for %q, got %v", interest, counts)
		}
	}

	repFound := false
	for _, b := range got {
		if b.FromRepresentative && b.BillID == "hr-900-118" {
			repFound = true
		}
	}
	if !repFound {
		t.Error("expected the representative-sponsored dairy bill as the bonus item")
	}
}

func TestRepresentativeBillsDeduplicated(t *testing.T) {
	shared := makeSponsorBill("s-500-118", "S001", "Energy", "Shared Act", 1)
	st := &fakeStore{
		members: []models.Member{
			{BioguideID: "S001", State: "WI", Chamber: models.ChamberSenate},
			{BioguideID: "S002", State: "WI", Chamber: models.ChamberSenate},
		},
		sponsorBills: map[string][]models.Bill{
			"S001": {shared},
			"S002": {shared},
		},
	}
	a := newTestAggregator(t, st, &fakeSearcher{})

	got := a.representativeBills(context.Background(), wisconsinUser(), nil, fixedNow)
	if len(got) != 1 {
		t.Errorf("expected shared bill deduplicated, got %d entries", len(got))
	}
}

func TestRepresentativeLimitPerChamber(t *testing.T) {
	var senateBills []models.Bill
	for i := 0; i < 5; i++ {
		senateBills = append(senateBills, makeSponsorBill(
			fmt.Sprintf("s-%d-118", i), "S001", "Energy", "Act", i))
	}
	st := &fakeStore{
		members: []models.Member{
			{BioguideID: "S001", State: "WI", Chamber: models.ChamberSenate},
		},
		sponsorBills: map[string][]models.Bill{"S001": senateBills},
	}
	a := newTestAggregator(t, st, &fakeSearcher{})

	got := a.representativeBills(context.Background(), wisconsinUser(), nil, fixedNow)
	if len(got) > perChamberLimit {
		t.Errorf("expected at most %d senate bills, got %d", perChamberLimit, len(got))
	}
}
