package database

import (
	"log"
	"time"

	"github.com/hakivo/brief-engine/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SeedDevData populates the database with development test data.
// Idempotent: skips if data already exists.
func SeedDevData(db *gorm.DB) error {
	var existingUser models.User
	result := db.Where("email = ?", "dev@hakivo.local").First(&existingUser)
	if result.Error == nil {
		log.Println("Seed data already exists, skipping")
		return nil
	}

	user := models.User{
		Email:    "dev@hakivo.local",
		Name:     "Dev User",
		State:    "WI",
		District: 3,
		Timezone: "America/Chicago",
		Role:     "user",
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}

	prefs := models.UserPreferences{
		UserID:            user.ID,
		Interests:         datatypes.NewJSONSlice([]string{"Environment & Energy", "Health & Social Welfare"}),
		DailyBriefEnabled: true,
	}
	if err := db.Create(&prefs).Error; err != nil {
		return err
	}

	members := []models.Member{
		{BioguideID: "B001230", FullName: "Tammy Baldwin", Party: "D", State: "WI", Chamber: models.ChamberSenate},
		{BioguideID: "J000293", FullName: "Ron Johnson", Party: "R", State: "WI", Chamber: models.ChamberSenate},
		{BioguideID: "V000135", FullName: "Derrick Van Orden", Party: "R", State: "WI", District: 3, Chamber: models.ChamberHouse},
	}
	for i := range members {
		if err := db.Create(&members[i]).Error; err != nil {
			return err
		}
	}

	now := time.Now()
	bills := []models.Bill{
		{
			BillID: "s-2044-118", Congress: 118, BillType: "s", Number: 2044,
			Title:             "Rural Clean Energy Investment Act",
			PolicyArea:        "Energy",
			SponsorBioguideID: "B001230", SponsorName: "Tammy Baldwin", SponsorParty: "D", SponsorState: "WI",
			LatestActionDate: now.AddDate(0, 0, -2),
			LatestActionText: "Read twice and referred to the Committee on Energy and Natural Resources.",
			SourceURL:        "https://www.congress.gov/bill/118th-congress/senate-bill/2044",
		},
		{
			BillID: "hr-5120-118", Congress: 118, BillType: "hr", Number: 5120,
			Title:             "Community Health Center Stability Act",
			PolicyArea:        "Health",
			SponsorBioguideID: "V000135", SponsorName: "Derrick Van Orden", SponsorParty: "R", SponsorState: "WI",
			LatestActionDate: now.AddDate(0, 0, -5),
			LatestActionText: "Referred to the Subcommittee on Health.",
			SourceURL:        "https://www.congress.gov/bill/118th-congress/house-bill/5120",
		},
	}
	for i := range bills {
		if err := db.Create(&bills[i]).Error; err != nil {
			return err
		}
	}

	stateBill := models.StateBill{
		State:            "WI",
		BillNumber:       "AB 245",
		Title:            "Relating to grants for community solar projects",
		Subjects:         datatypes.NewJSONSlice([]string{"Energy", "Environment"}),
		LatestActionDate: now.AddDate(0, 0, -4),
		LatestActionText: "Referred to Committee on Energy and Utilities.",
		SourceURL:        "https://docs.legis.wisconsin.gov/2025/proposals/ab245",
	}
	if err := db.Create(&stateBill).Error; err != nil {
		return err
	}

	cached := []models.CachedNewsItem{
		{
			Interest:    "Environment & Energy",
			Title:       "States Expand Community Solar Programs",
			Summary:     "A wave of state legislation is broadening access to shared solar installations.",
			URL:         "https://news.example.com/community-solar-expansion",
			PublishedAt: now.AddDate(0, 0, -1),
		},
		{
			Interest:    "Health & Social Welfare",
			Title:       "Rural Clinics Brace for Funding Cliff",
			Summary:     "Community health centers warn of service cuts without reauthorized funding.",
			URL:         "https://news.example.com/rural-clinic-funding",
			PublishedAt: now.AddDate(0, 0, -3),
		},
	}
	for i := range cached {
		if err := db.Create(&cached[i]).Error; err != nil {
			return err
		}
	}

	log.Println("Seeded dev data: 1 user, preferences, 3 members, 2 bills, 1 state bill, 2 cached news items")
	return nil
}
