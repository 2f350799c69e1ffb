package models

import (
	"time"

	"gorm.io/datatypes"
)

// Member chamber constants
const (
	ChamberSenate = "senate"
	ChamberHouse  = "house"
)

// Member is a current member of Congress, keyed by bioguide id. The members
// table is synced by the legislative data importer; this subsystem only reads
// it to resolve a user's senators and house representative.
type Member struct {
	ID         uint   `gorm:"primarykey"`
	BioguideID string `gorm:"not null;uniqueIndex"`
	FullName   string `gorm:"not null"`
	Party      string `gorm:"not null;default:''"`
	State      string `gorm:"not null;index:idx_members_state_district"`
	District   int    `gorm:"not null;default:0;index:idx_members_state_district"` // 0 for senators
	Chamber    string `gorm:"not null"`
	UpdatedAt  time.Time
}

// Bill is a federal bill row synced from the legislative data provider.
// Read-only from the pipeline's perspective.
type Bill struct {
	ID                uint      `gorm:"primarykey"`
	BillID            string    `gorm:"not null;uniqueIndex"` // e.g. "hr-1234-118"
	Congress          int       `gorm:"not null"`
	BillType          string    `gorm:"not null"` // hr, s, hjres, sjres
	Number            int       `gorm:"not null"`
	Title             string    `gorm:"not null;type:text"`
	PolicyArea        string    `gorm:"not null;default:'';index"`
	SponsorBioguideID string    `gorm:"not null;default:'';index"`
	SponsorName       string    `gorm:"not null;default:''"`
	SponsorParty      string    `gorm:"not null;default:''"`
	SponsorState      string    `gorm:"not null;default:''"`
	LatestActionDate  time.Time `gorm:"not null;index"`
	LatestActionText  string    `gorm:"not null;default:'';type:text"`
	SourceURL         string    `gorm:"not null;default:''"`
	UpdatedAt         time.Time
}

// StateBill is a state-legislature bill row synced from the state data
// provider. Subjects is a JSONB array of subject strings.
type StateBill struct {
	ID               uint                        `gorm:"primarykey"`
	State            string                      `gorm:"not null;index"`
	BillNumber       string                      `gorm:"not null"`
	Title            string                      `gorm:"not null;type:text"`
	Subjects         datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	LatestActionDate time.Time                   `gorm:"not null;index"`
	LatestActionText string                      `gorm:"not null;default:'';type:text"`
	SourceURL        string                      `gorm:"not null;default:''"`
	UpdatedAt        time.Time
}

// CachedNewsItem is a pre-synced news article used as a fallback when the
// live news-search adapter is unavailable. Keyed by interest; rows older than
// the recency window are ignored by readers.
type CachedNewsItem struct {
	ID          uint      `gorm:"primarykey"`
	Interest    string    `gorm:"not null;index"`
	Title       string    `gorm:"not null;type:text"`
	Summary     string    `gorm:"not null;default:'';type:text"`
	URL         string    `gorm:"not null;uniqueIndex"`
	ImageURL    string    `gorm:"not null;default:''"`
	PublishedAt time.Time `gorm:"not null;index"`
	CreatedAt   time.Time
}
