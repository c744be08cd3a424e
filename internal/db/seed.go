package db

import (
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoData is what SeedDemoData created, so callers can drive the
// scoring engine against known ids.
type DemoData struct {
	Fresh       Couple // paired couple with an empty ledger
	Legacy      Couple // pre-ledger couple carrying an unimported score
	FreshUsers  [2]User
	LegacyUsers [2]User
}

// SeedDemoData resets the database and populates it with demo users
// and two couples.
//
// Behavior:
//  1. Clears intimacy_events, couples, and users.
//  2. Creates four users with bcrypt-hashed passwords.
//  3. Creates a freshly paired couple (score 0, no events) and a
//     "legacy" couple whose score predates the ledger — reading its
//     summary triggers the backfill.
//
// Compatible with both MySQL and SQLite.
func SeedDemoData(db *gorm.DB) (*DemoData, error) {
	// --- Fresh start ---
	if err := db.Exec("DELETE FROM intimacy_events").Error; err != nil {
		return nil, fmt.Errorf("failed to clear intimacy_events: %w", err)
	}
	if err := db.Exec("DELETE FROM couples").Error; err != nil {
		return nil, fmt.Errorf("failed to clear couples: %w", err)
	}
	if err := db.Exec("DELETE FROM users").Error; err != nil {
		return nil, fmt.Errorf("failed to clear users: %w", err)
	}

	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	makeUser := func(name, email string) User {
		return User{
			ID:           NewEntityID("usr_"),
			Name:         name,
			Email:        email,
			PasswordHash: string(hash),
		}
	}

	data := &DemoData{
		FreshUsers: [2]User{
			makeUser("momo", "momo@example.com"),
			makeUser("kai", "kai@example.com"),
		},
		LegacyUsers: [2]User{
			makeUser("lin", "lin@example.com"),
			makeUser("yuan", "yuan@example.com"),
		},
	}

	users := append(data.FreshUsers[:], data.LegacyUsers[:]...)
	if err := db.Create(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}

	data.Fresh = Couple{
		ID:        NewEntityID("cpl_"),
		PairCode:  NewPairCode(),
		CreatorID: data.FreshUsers[0].ID,
		PartnerID: &data.FreshUsers[1].ID,
	}

	// legacy couple: paired months ago, score accrued before the ledger
	data.Legacy = Couple{
		ID:            NewEntityID("cpl_"),
		PairCode:      NewPairCode(),
		CreatorID:     data.LegacyUsers[0].ID,
		PartnerID:     &data.LegacyUsers[1].ID,
		IntimacyScore: 240,
		CreatedAt:     time.Now().UTC().AddDate(0, -6, 0),
	}

	couples := []Couple{data.Fresh, data.Legacy}
	if err := db.Create(&couples).Error; err != nil {
		return nil, fmt.Errorf("failed to seed couples: %w", err)
	}

	log.Printf("Seeded %d users and %d couples", len(users), len(couples))
	return data, nil
}
