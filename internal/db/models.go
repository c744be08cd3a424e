package db

import (
	"time"

	"gorm.io/datatypes"
)

// EventType is the closed set of actions that can move a couple's
// intimacy score. *_DELETE types only ever appear as compensating
// (negative) entries for their *_CREATE counterpart.
type EventType string

const (
	EventNoteCreate     EventType = "NOTE_CREATE"
	EventNoteDelete     EventType = "NOTE_DELETE"
	EventMomentCreate   EventType = "MOMENT_CREATE"
	EventMomentDelete   EventType = "MOMENT_DELETE"
	EventQuestCreate    EventType = "QUEST_CREATE"
	EventQuestComplete  EventType = "QUEST_COMPLETE"
	EventQuestDelete    EventType = "QUEST_DELETE"
	EventPairSuccess    EventType = "PAIR_SUCCESS"
	EventAnniversarySet EventType = "ANNIVERSARY_SET"
	EventSurpriseClick  EventType = "SURPRISE_CLICK"
	EventRomanticAction EventType = "ROMANTIC_ACTION"
	EventLegacyImport   EventType = "LEGACY_IMPORT"
)

// User table
type User struct {
	ID           string    `gorm:"primaryKey;size:32"`
	Name         string    `gorm:"size:64;not null"`
	AvatarURL    *string   `gorm:"size:255"`
	Email        string    `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Couple is the pairing unit. Created by one user; PartnerID stays
// nil until the second user joins via the pair code.
//
// IntimacyScore is a materialized sum of the couple's event points.
// The intimacy service is its only writer — nothing else may touch
// this column, or the ledger invariant breaks.
type Couple struct {
	ID              string  `gorm:"primaryKey;size:32"`
	PairCode        string  `gorm:"uniqueIndex;size:8;not null"`
	CreatorID       string  `gorm:"size:32;not null;index"`
	PartnerID       *string `gorm:"size:32;index"`
	AnniversaryDate *time.Time
	IntimacyScore   int       `gorm:"not null;default:0"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// IntimacyEvent is an immutable ledger row.
//
// Indexes:
//   - idx_couple_dedupe(couple_id, dedupe_key) UNIQUE
//     The idempotency contract: at most one row per (couple, key).
//     Concurrent duplicate awards race on this constraint and exactly
//     one insert wins.
//   - idx_couple_created(couple_id, created_at DESC)
//     Serves the reverse-chronological event feed and the "today"
//     window queries behind caps and throttles.
//
// Rows are never updated or deleted; reversals are new rows with
// negative points and their own dedupe key.
type IntimacyEvent struct {
	ID        string    `gorm:"primaryKey;size:32"`
	CoupleID  string    `gorm:"size:32;not null;uniqueIndex:idx_couple_dedupe,priority:1;index:idx_couple_created,priority:1"`
	UserID    *string   `gorm:"size:32"` // nil = system-attributed (legacy import)
	Type      EventType `gorm:"size:32;not null"`
	Points    int       `gorm:"not null"`
	DedupeKey string    `gorm:"size:128;not null;uniqueIndex:idx_couple_dedupe,priority:2"`
	Meta      datatypes.JSON
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_couple_created,priority:2,sort:desc"`
}
