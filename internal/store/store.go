// Package store is the typed read/write accessor over the relational store.
// The pipeline never touches gorm directly; every query it needs is a named
// method here so the selection logic can be tested against small fakes.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hakivo/brief-engine/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Store wraps a gorm connection with the typed accessors the pipeline uses.
type Store struct {
	db *gorm.DB
}

// New creates a Store over an initialized gorm connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user %d: %w", userID, err)
	}
	return &user, nil
}

// GetPreferences fetches a user's preferences, or ErrNotFound when the user
// has never completed onboarding.
func (s *Store) GetPreferences(ctx context.Context, userID uint) (*models.UserPreferences, error) {
	var prefs models.UserPreferences
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch preferences for user %d: %w", userID, err)
	}
	return &prefs, nil
}

// GetBrief fetches a brief by id.
func (s *Store) GetBrief(ctx context.Context, briefID uint) (*models.Brief, error) {
	var brief models.Brief
	if err := s.db.WithContext(ctx).First(&brief, briefID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch brief %d: %w", briefID, err)
	}
	return &brief, nil
}

// CreateBrief inserts a new brief row.
func (s *Store) CreateBrief(ctx context.Context, brief *models.Brief) error {
	if err := s.db.WithContext(ctx).Create(brief).Error; err != nil {
		return fmt.Errorf("failed to create brief: %w", err)
	}
	return nil
}

// FindInFlightBrief returns the user's pending or mid-pipeline brief of the
// given type, if one exists. Used to refuse duplicate triggers.
func (s *Store) FindInFlightBrief(ctx context.Context, userID uint, briefType string) (*models.Brief, error) {
	var brief models.Brief
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND brief_type = ? AND status IN ?", userID, briefType, []string{
			models.BriefStatusPending,
			models.BriefStatusProcessing,
			models.BriefStatusContentGathered,
		}).
		First(&brief).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query in-flight brief: %w", err)
	}
	return &brief, nil
}

// UpdateBriefStatus unconditionally overwrites the brief's status. Replay
// safety comes from the overwrite semantics plus the orchestrator's refusal
// to re-enter finished briefs, not from conditional updates.
func (s *Store) UpdateBriefStatus(ctx context.Context, briefID uint, status string) error {
	err := s.db.WithContext(ctx).Model(&models.Brief{}).Where("id = ?", briefID).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to update brief %d status: %w", briefID, err)
	}
	return nil
}

// UpdateBrief applies a partial column update to a brief.
func (s *Store) UpdateBrief(ctx context.Context, briefID uint, fields map[string]interface{}) error {
	err := s.db.WithContext(ctx).Model(&models.Brief{}).Where("id = ?", briefID).
		Updates(fields).Error
	if err != nil {
		return fmt.Errorf("failed to update brief %d: %w", briefID, err)
	}
	return nil
}

// FeaturedBillIDs returns the federal bill ids surfaced to the user since the
// given time, i.e. the dedup exclusion set.
func (s *Store) FeaturedBillIDs(ctx context.Context, userID uint, since time.Time) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.FeaturedBill{}).
		Where("user_id = ? AND featured_at >= ?", userID, since).
		Pluck("bill_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch featured bill ids: %w", err)
	}
	return ids, nil
}

// FeaturedStateBillIDs returns the state bill row ids surfaced to the user
// since the given time.
func (s *Store) FeaturedStateBillIDs(ctx context.Context, userID uint, since time.Time) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.FeaturedStateBill{}).
		Where("user_id = ? AND featured_at >= ?", userID, since).
		Pluck("state_bill_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch featured state bill ids: %w", err)
	}
	return ids, nil
}

// RecordFeaturedBills appends ledger rows for the bills a brief surfaced.
// Inserts are ON CONFLICT DO NOTHING so at-least-once replay cannot create
// duplicate rows.
func (s *Store) RecordFeaturedBills(ctx context.Context, briefID, userID uint, billIDs []string) error {
	if len(billIDs) == 0 {
		return nil
	}
	now := time.Now()
	rows := make([]models.FeaturedBill, 0, len(billIDs))
	for _, id := range billIDs {
		rows = append(rows, models.FeaturedBill{
			BriefID:    briefID,
			UserID:     userID,
			BillID:     id,
			FeaturedAt: now,
		})
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to record featured bills: %w", err)
	}
	return nil
}

// RecordFeaturedStateBills appends ledger rows for surfaced state bills.
func (s *Store) RecordFeaturedStateBills(ctx context.Context, briefID, userID uint, stateBillIDs []uint) error {
	if len(stateBillIDs) == 0 {
		return nil
	}
	now := time.Now()
	rows := make([]models.FeaturedStateBill, 0, len(stateBillIDs))
	for _, id := range stateBillIDs {
		rows = append(rows, models.FeaturedStateBill{
			BriefID:     briefID,
			UserID:      userID,
			StateBillID: id,
			FeaturedAt:  now,
		})
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to record featured state bills: %w", err)
	}
	return nil
}

// Representatives returns the user's two senators plus the house member for
// their district, resolved from the synced members table.
func (s *Store) Representatives(ctx context.Context, state string, district int) ([]models.Member, error) {
	var members []models.Member
	err := s.db.WithContext(ctx).
		Where("state = ? AND (chamber = ? OR (chamber = ? AND district = ?))",
			state, models.ChamberSenate, models.ChamberHouse, district).
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch representatives for %s-%d: %w", state, district, err)
	}
	return members, nil
}

// BillsBySponsor returns the sponsor's most recently acted-on bills since the
// given time, excluding the given bill ids.
func (s *Store) BillsBySponsor(ctx context.Context, bioguideID string, since time.Time, exclude []string, limit int) ([]models.Bill, error) {
	q := s.db.WithContext(ctx).
		Where("sponsor_bioguide_id = ? AND latest_action_date >= ?", bioguideID, since)
	if len(exclude) > 0 {
		q = q.Where("bill_id NOT IN ?", exclude)
	}
	var bills []models.Bill
	if err := q.Order("latest_action_date DESC").Limit(limit).Find(&bills).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch bills for sponsor %s: %w", bioguideID, err)
	}
	return bills, nil
}

// BillsByPolicyArea returns recent bills whose policy area is in areas.
func (s *Store) BillsByPolicyArea(ctx context.Context, areas []string, since time.Time, limit int) ([]models.Bill, error) {
	if len(areas) == 0 {
		return nil, nil
	}
	var bills []models.Bill
	err := s.db.WithContext(ctx).
		Where("policy_area IN ? AND latest_action_date >= ?", areas, since).
		Order("latest_action_date DESC").Limit(limit).Find(&bills).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bills by policy area: %w", err)
	}
	return bills, nil
}

// BillsByTitleKeyword returns recent bills whose title contains any of the
// given keywords (case-insensitive).
func (s *Store) BillsByTitleKeyword(ctx context.Context, keywords []string, since time.Time, limit int) ([]models.Bill, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	q := s.db.WithContext(ctx).Where("latest_action_date >= ?", since)
	conds := make([]string, 0, len(keywords))
	args := make([]interface{}, 0, len(keywords))
	for _, kw := range keywords {
		conds = append(conds, "title ILIKE ?")
		args = append(args, "%"+kw+"%")
	}
	q = q.Where(strings.Join(conds, " OR "), args...)
	var bills []models.Bill
	if err := q.Order("latest_action_date DESC").Limit(limit).Find(&bills).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch bills by keyword: %w", err)
	}
	return bills, nil
}

// StateBillsBySubject returns the state's recent bills matching any of the
// given subjects, excluding the given row ids.
func (s *Store) StateBillsBySubject(ctx context.Context, state string, subjects []string, exclude []uint, limit int) ([]models.StateBill, error) {
	if len(subjects) == 0 {
		return nil, nil
	}
	// jsonb_exists_any instead of the ?| operator: gorm rewrites bare ? into
	// positional placeholders, which mangles the operator form.
	q := s.db.WithContext(ctx).Where("state = ?", state).
		Where("jsonb_exists_any(subjects, ?::text[])", pgTextArray(subjects))
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	var bills []models.StateBill
	if err := q.Order("latest_action_date DESC").Limit(limit).Find(&bills).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch state bills by subject: %w", err)
	}
	return bills, nil
}

// RecentStateBills returns the state's most recently acted-on bills
// regardless of subject, excluding the given row ids. Fallback so state
// coverage is never empty when data exists.
func (s *Store) RecentStateBills(ctx context.Context, state string, exclude []uint, limit int) ([]models.StateBill, error) {
	q := s.db.WithContext(ctx).Where("state = ?", state)
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	var bills []models.StateBill
	if err := q.Order("latest_action_date DESC").Limit(limit).Find(&bills).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch recent state bills: %w", err)
	}
	return bills, nil
}

// CachedNews returns pre-synced news items for the given interests published
// since the given time, newest first.
func (s *Store) CachedNews(ctx context.Context, interests []string, since time.Time, limit int) ([]models.CachedNewsItem, error) {
	if len(interests) == 0 {
		return nil, nil
	}
	var items []models.CachedNewsItem
	err := s.db.WithContext(ctx).
		Where("interest IN ? AND published_at >= ?", interests, since).
		Order("published_at DESC").Limit(limit).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cached news: %w", err)
	}
	return items, nil
}

// DailyBriefUsers returns users with daily briefs enabled.
func (s *Store) DailyBriefUsers(ctx context.Context) ([]models.User, error) {
	return s.briefUsers(ctx, "daily_brief_enabled")
}

// WeeklyBriefUsers returns users with weekly briefs enabled.
func (s *Store) WeeklyBriefUsers(ctx context.Context) ([]models.User, error) {
	return s.briefUsers(ctx, "weekly_brief_enabled")
}

func (s *Store) briefUsers(ctx context.Context, flag string) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN user_preferences ON user_preferences.user_id = users.id").
		Where(flag + " = TRUE").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch brief subscribers: %w", err)
	}
	return users, nil
}

// pgTextArray renders a Postgres text[] literal for the jsonb ?| operator.
func pgTextArray(values []string) string {
	escaped := make([]string, 0, len(values))
	for _, v := range values {
		escaped = append(escaped, `"`+strings.ReplaceAll(v, `"`, `\"`)+`"`)
	}
	return "{" + strings.Join(escaped, ",") + "}"
}
