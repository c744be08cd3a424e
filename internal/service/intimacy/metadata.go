package intimacy

import (
	"github.com/pairloop/pairloop/internal/db"
)

// Metadata is the event-specific context attached to an award. Each
// event type carries its own payload struct, and the unexported
// method keeps the set closed: point computation type-switches over
// these variants, so adding a type means adding its rule here too.
//
// The payload is persisted verbatim as the ledger row's meta JSON.
type Metadata interface {
	eventType() db.EventType
}

// NoteCreate — the couple wrote a note. Content length drives the
// tiered bonus.
type NoteCreate struct {
	NoteID  string `json:"noteId"`
	Content string `json:"content"`
}

// MomentCreate — a photo moment was logged. Two or more tags earn a
// bonus.
type MomentCreate struct {
	MomentID string   `json:"momentId"`
	Tags     []string `json:"tags,omitempty"`
}

// QuestCreate — a quest was posted.
type QuestCreate struct {
	QuestID string `json:"questId"`
}

// QuestComplete — a quest was finished. QuestPoints is the quest's own
// value; QuestCreatedBy lets the engine pay the cross-completion bonus
// when someone finishes their partner's quest.
type QuestComplete struct {
	QuestID        string `json:"questId"`
	QuestPoints    int    `json:"questPoints"`
	QuestCreatedBy string `json:"questCreatedBy"`
}

// PairSuccess — the second user joined the couple. One-time: callers
// scope the dedupe key to the couple, not the user.
type PairSuccess struct{}

// AnniversarySet — the anniversary date was set for the first time.
// The caller checks prior null-ness before invoking.
type AnniversarySet struct{}

// SurpriseKind is the set of clickable surprises the UI offers.
type SurpriseKind string

const (
	SurpriseGift    SurpriseKind = "gift"
	SurpriseCat     SurpriseKind = "cat"
	SurpriseDog     SurpriseKind = "dog"
	SurpriseBalloon SurpriseKind = "balloon"
)

// SurpriseClick — a tap on a surprise. Gift rolls a higher range than
// the rest. ClientEventID comes from the client and makes the dedupe
// key per-tap.
type SurpriseClick struct {
	Kind          SurpriseKind `json:"type"`
	ClientEventID string       `json:"clientEventId"`
}

// RomanticActionSceneEnter is the only recognized romantic sub-action.
const RomanticActionSceneEnter = "scene_enter"

// RomanticAction — an interaction inside a romantic scene. Anything
// but a scene enter scores zero.
type RomanticAction struct {
	Action        string `json:"action"`
	SceneID       string `json:"sceneId"`
	ClientEventID string `json:"clientEventId"`
}

func (NoteCreate) eventType() db.EventType     { return db.EventNoteCreate }
func (MomentCreate) eventType() db.EventType   { return db.EventMomentCreate }
func (QuestCreate) eventType() db.EventType    { return db.EventQuestCreate }
func (QuestComplete) eventType() db.EventType  { return db.EventQuestComplete }
func (PairSuccess) eventType() db.EventType    { return db.EventPairSuccess }
func (AnniversarySet) eventType() db.EventType { return db.EventAnniversarySet }
func (SurpriseClick) eventType() db.EventType  { return db.EventSurpriseClick }
func (RomanticAction) eventType() db.EventType { return db.EventRomanticAction }
