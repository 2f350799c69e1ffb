package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Brief status lifecycle. Transitions are monotonic along the pipeline; any
// stage may jump to failed, and only the external audio renderer moves a
// script_ready brief to completed or audio_failed.
const (
	BriefStatusPending         = "pending"
	BriefStatusProcessing      = "processing"
	BriefStatusContentGathered = "content_gathered"
	BriefStatusScriptReady     = "script_ready"
	BriefStatusCompleted       = "completed"
	BriefStatusAudioFailed     = "audio_failed"
	BriefStatusFailed          = "failed"
)

// Brief type constants
const (
	BriefTypeDaily  = "daily"
	BriefTypeWeekly = "weekly"
)

// statusRank orders the lifecycle for monotonicity checks. failed is a
// terminal sink reachable from anywhere, so it carries no rank.
var statusRank = map[string]int{
	BriefStatusPending:         0,
	BriefStatusProcessing:      1,
	BriefStatusContentGathered: 2,
	BriefStatusScriptReady:     3,
	BriefStatusCompleted:       4,
	BriefStatusAudioFailed:     4,
}

// StatusAtLeast reports whether status has progressed to at least want along
// the pipeline. failed always reports false.
func StatusAtLeast(status, want string) bool {
	r, ok := statusRank[status]
	w, ok2 := statusRank[want]
	return ok && ok2 && r >= w
}

// Brief is one personalized content bundle generated for one user for one
// period. Mutated exclusively by the pipeline worker; the status column is
// the sole contract with the downstream audio renderer.
type Brief struct {
	gorm.Model
	UserID          uint   `gorm:"not null;index"`
	User            User   `gorm:"constraint:OnDelete:CASCADE;"`
	BriefType       string `gorm:"not null;default:'daily'"`
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Status          string `gorm:"not null;default:'pending';index"`
	Headline        string `gorm:"type:text"`
	Script          string `gorm:"type:text"`
	Article         string `gorm:"type:text"`
	WordCount       int
	FeatureImageURL string         `gorm:"type:text"`
	NewsSnapshot    datatypes.JSON `gorm:"type:jsonb"`
	ErrorMessage    string         `gorm:"column:error_message;type:text"`
	GeneratedAt     *time.Time
	CompletedAt     *time.Time
}

// FeaturedBill is a dedup-ledger row linking a brief to a federal bill it
// surfaced. Append-only; duplicate (user, bill, brief) inserts are ignored so
// at-least-once task replay stays idempotent.
type FeaturedBill struct {
	ID         uint      `gorm:"primarykey"`
	BriefID    uint      `gorm:"not null;index;uniqueIndex:idx_featured_bills_dedup"`
	UserID     uint      `gorm:"not null;index:idx_featured_bills_user_time"`
	BillID     string    `gorm:"not null;uniqueIndex:idx_featured_bills_dedup"`
	FeaturedAt time.Time `gorm:"not null;index:idx_featured_bills_user_time"`
}

// FeaturedStateBill is the state-legislature counterpart of FeaturedBill.
type FeaturedStateBill struct {
	ID          uint      `gorm:"primarykey"`
	BriefID     uint      `gorm:"not null;index;uniqueIndex:idx_featured_state_bills_dedup"`
	UserID      uint      `gorm:"not null;index:idx_featured_state_bills_user_time"`
	StateBillID uint      `gorm:"not null;uniqueIndex:idx_featured_state_bills_dedup"`
	FeaturedAt  time.Time `gorm:"not null;index:idx_featured_state_bills_user_time"`
}
