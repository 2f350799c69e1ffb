package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User represents an application user. Account creation, auth, and billing are
// owned by external services; this subsystem only reads users when generating
// briefs.
type User struct {
	gorm.Model
	Email          string `gorm:"uniqueIndex:idx_users_email_not_deleted,where:deleted_at IS NULL;not null"`
	Name           string `gorm:"not null;default:''"`
	State          string `gorm:"not null;default:''"` // two-letter home state, e.g. "WI"
	District       int    `gorm:"not null;default:0"`  // congressional district, 0 = unknown
	Timezone       string `gorm:"not null;default:'UTC'"`
	Role           string `gorm:"not null;default:'user'"`
	LastBriefingAt *time.Time

	// Associations
	Preferences *UserPreferences `gorm:"constraint:OnDelete:CASCADE;"`
	Briefs      []Brief          `gorm:"constraint:OnDelete:CASCADE;"`
}

// UserPreferences holds the policy interests and delivery flags that drive
// brief personalization. Read-only to the pipeline; managed by the account
// service.
type UserPreferences struct {
	gorm.Model
	UserID             uint                        `gorm:"not null;uniqueIndex"`
	Interests          datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	DailyBriefEnabled  bool                        `gorm:"not null;default:false"`
	WeeklyBriefEnabled bool                        `gorm:"not null;default:false"`
}
