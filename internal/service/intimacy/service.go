package intimacy

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pairloop/pairloop/internal/app"
	"github.com/pairloop/pairloop/internal/db"
	svcErr "github.com/pairloop/pairloop/internal/errors"
	"github.com/pairloop/pairloop/internal/repository"
	"github.com/pairloop/pairloop/internal/rules"
)

// Service is the intimacy scoring engine. It is the sole writer of a
// couple's score and ledger: collaborating modules (notes, moments,
// quests, pairing) perform their own writes and then call Award or
// RevokeCreateAward with a dedupe key derived from their entity id.
type Service struct {
	appCtx     *app.AppContext
	coupleRepo *repository.CoupleRepository
	eventRepo  *repository.EventRepository

	// now feeds every "today" window and cooldown check so tests can
	// pin wall time. Defaults to time.Now.
	now func() time.Time
	// randInt returns a uniform int in [0, n). Defaults to math/rand.
	randInt func(n int) int
}

// Option customizes a Service, mainly for tests.
type Option func(*Service)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand replaces the surprise-roll randomness.
func WithRand(randInt func(n int) int) Option {
	return func(s *Service) { s.randInt = randInt }
}

// NewService creates the engine with dependencies from AppContext.
func NewService(appCtx *app.AppContext, opts ...Option) *Service {
	s := &Service{
		appCtx:     appCtx,
		coupleRepo: repository.NewCoupleRepository(appCtx.DB),
		eventRepo:  repository.NewEventRepository(appCtx.DB),
		now:        time.Now,
		randInt:    rand.Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AwardInput carries the idempotency key and the event's typed context.
type AwardInput struct {
	DedupeKey string
	Meta      Metadata
}

// AwardResult reports what an award actually did. Awarded is 0 both
// for idempotent replays and for events throttled or capped to zero;
// callers must not treat it as an error either way.
type AwardResult struct {
	Awarded int
	Score   int
}

// startOfToday is the current UTC midnight. All caps and throttles
// share this boundary.
func (s *Service) startOfToday() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// AssertMember rejects callers who are not one of the couple's two
// members. Collaborators run this before invoking the engine.
func (s *Service) AssertMember(ctx context.Context, coupleID, userID string) error {
	couple, err := s.coupleRepo.GetByID(ctx, coupleID)
	if err != nil {
		return err
	}
	if couple.CreatorID == userID {
		return nil
	}
	if couple.PartnerID != nil && *couple.PartnerID == userID {
		return nil
	}
	return svcErr.Forbidden("user is not a member of this couple")
}

// Award computes the point delta for one event, applies all caps, and
// — only when the final delta is positive — persists a ledger row and
// increments the couple's score in the same transaction.
//
// Behavior:
//   - Duplicate (coupleID, dedupeKey) → no-op, returns the current
//     score with Awarded 0. Safe under at-least-once delivery; two
//     concurrent duplicates race on the unique index and exactly one
//     wins.
//   - Delta throttled/capped to ≤ 0 → no row written, score unchanged,
//     same return shape as a replay.
func (s *Service) Award(ctx context.Context, coupleID, userID string, input AwardInput) (AwardResult, error) {
	s.appCtx.Logger.Debug("Award called",
		"couple", coupleID, "user", userID,
		"type", input.Meta.eventType(), "dedupe_key", input.DedupeKey)

	var result AwardResult
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		couples := s.coupleRepo.WithTx(tx)
		events := s.eventRepo.WithTx(tx)

		if err := s.ensureLegacyImport(ctx, couples, events, coupleID); err != nil {
			return err
		}

		raw, err := s.computePoints(ctx, events, coupleID, userID, input.Meta)
		if err != nil {
			return err
		}
		raw, err = s.applyCoupleDailyCap(ctx, events, coupleID, raw)
		if err != nil {
			return err
		}

		if raw <= 0 {
			score, err := couples.GetScore(ctx, coupleID)
			if err != nil {
				return err
			}
			result = AwardResult{Awarded: 0, Score: score}
			return nil
		}

		meta, err := json.Marshal(input.Meta)
		if err != nil {
			return err
		}

		inserted, err := events.InsertUnique(ctx, &db.IntimacyEvent{
			ID:        db.NewEntityID("itv_"),
			CoupleID:  coupleID,
			UserID:    &userID,
			Type:      input.Meta.eventType(),
			Points:    raw,
			DedupeKey: input.DedupeKey,
			Meta:      datatypes.JSON(meta),
			CreatedAt: s.now().UTC(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			// idempotent replay: the key already owns a row
			score, err := couples.GetScore(ctx, coupleID)
			if err != nil {
				return err
			}
			result = AwardResult{Awarded: 0, Score: score}
			return nil
		}

		newScore, err := couples.AddToScore(ctx, coupleID, raw)
		if err != nil {
			return err
		}
		result = AwardResult{Awarded: raw, Score: newScore}
		return nil
	})
	if err != nil {
		s.appCtx.Logger.Error("Award failed", "couple", coupleID, "err", err)
		return AwardResult{}, svcErr.Map(err)
	}

	if result.Awarded > 0 {
		s.invalidateSummary(ctx, coupleID)
	}

	return result, nil
}

// computePoints runs the per-event-type rule: raw value plus bonuses,
// then the type-specific daily throttle. The couple-wide cap is NOT
// applied here; Award layers it on afterwards so both compose.
func (s *Service) computePoints(
	ctx context.Context,
	events *repository.EventRepository,
	coupleID, userID string,
	meta Metadata,
) (int, error) {
	today := s.startOfToday()

	switch m := meta.(type) {
	case NoteCreate:
		length := utf8.RuneCountInString(strings.TrimSpace(m.Content))
		raw := rules.NoteBase + rules.NoteLengthBonus(length)
		count, err := events.CountPositiveSince(ctx, coupleID, db.EventNoteCreate, today)
		if err != nil {
			return 0, err
		}
		return dailyDecay(raw, int(count)+1, rules.NoteFullCount, rules.NoteHalfCount), nil

	case MomentCreate:
		raw := rules.MomentBase
		if len(m.Tags) >= 2 {
			raw += rules.MomentTagsBonus
		}
		count, err := events.CountPositiveSince(ctx, coupleID, db.EventMomentCreate, today)
		if err != nil {
			return 0, err
		}
		return dailyDecay(raw, int(count)+1, rules.MomentFullCount, rules.MomentHalfCount), nil

	case QuestCreate:
		count, err := events.CountPositiveSince(ctx, coupleID, db.EventQuestCreate, today)
		if err != nil {
			return 0, err
		}
		if count >= rules.QuestCreateDailyFullCount {
			return 0, nil
		}
		return rules.QuestCreateBase, nil

	case QuestComplete:
		capped := min(max(0, m.QuestPoints), rules.QuestCompleteMaxPoints)
		raw := capped
		if m.QuestCreatedBy != "" && m.QuestCreatedBy != userID {
			raw += rules.QuestCrossCompleteBonus
		}
		earned, err := events.SumPositiveByTypeSince(ctx, coupleID, db.EventQuestComplete, today)
		if err != nil {
			return 0, err
		}
		return min(raw, max(0, rules.QuestCompleteDailyCap-earned)), nil

	case PairSuccess:
		return rules.PairSuccessPoints, nil

	case AnniversarySet:
		return rules.AnniversarySetPoints, nil

	case SurpriseClick:
		since := s.now().UTC().Add(-rules.SurpriseCooldownSeconds * time.Second)
		cooled, err := events.HasPositiveByUserSince(ctx, coupleID, userID, db.EventSurpriseClick, since)
		if err != nil {
			return 0, err
		}
		if cooled {
			return 0, nil
		}
		raw := s.rollSurprise(m.Kind)
		earned, err := events.SumPositiveByUserSince(ctx, coupleID, userID, db.EventSurpriseClick, today)
		if err != nil {
			return 0, err
		}
		return min(raw, max(0, rules.SurpriseUserDailyCap-earned)), nil

	case RomanticAction:
		raw := 0
		if m.Action == RomanticActionSceneEnter {
			raw = rules.RomanticSceneEnterPoints
		}
		earned, err := events.SumPositiveByUserSince(ctx, coupleID, userID, db.EventRomanticAction, today)
		if err != nil {
			return 0, err
		}
		return min(raw, max(0, rules.RomanticUserDailyCap-earned)), nil
	}

	return 0, nil
}

// dailyDecay applies the Nth-event-today multiplier: full credit up to
// fullCount, floored half credit for the next halfCount, zero after.
func dailyDecay(raw, nth, fullCount, halfCount int) int {
	switch {
	case nth <= fullCount:
		return raw
	case nth <= fullCount+halfCount:
		return raw / 2
	default:
		return 0
	}
}

// rollSurprise picks the random amount for a surprise tap.
// Gift rolls 1–3, everything else 0–2.
func (s *Service) rollSurprise(kind SurpriseKind) int {
	if kind == SurpriseGift {
		return 1 + s.randInt(3)
	}
	return s.randInt(3)
}

// applyCoupleDailyCap clamps a positive raw amount to the headroom
// left under the couple-wide daily cap. Checked last, after all
// type-specific throttling, so the smaller limit always wins.
func (s *Service) applyCoupleDailyCap(
	ctx context.Context,
	events *repository.EventRepository,
	coupleID string,
	raw int,
) (int, error) {
	if raw <= 0 {
		return raw, nil
	}
	earned, err := events.SumPositiveSince(ctx, coupleID, s.startOfToday())
	if err != nil {
		return 0, err
	}
	return min(raw, max(0, rules.CoupleDailyCap-earned)), nil
}

// clampToZeroFloor limits a negative delta so current+delta never
// drops below zero. Positive deltas pass through.
func clampToZeroFloor(current, delta int) int {
	if delta >= 0 {
		return delta
	}
	if current+delta >= 0 {
		return delta
	}
	return -current
}

// RevokeCreateAward reverses a prior create award when its underlying
// entity is deleted.
//
// Behavior:
//   - No row for createDedupeKey, or its points ≤ 0 → nothing to
//     reverse, no-op.
//   - Row already exists for deleteDedupeKey → already reversed, no-op
//     (repeated delete attempts are safe).
//   - Otherwise persist a compensating row and decrement the score in
//     one transaction. The delta is floor-clamped against the couple's
//     current score so the score never goes negative, even when other
//     reversals got there first — in that case only the remainder is
//     zeroed out.
func (s *Service) RevokeCreateAward(
	ctx context.Context,
	coupleID, actorUserID string,
	createDedupeKey, deleteDedupeKey string,
	deleteType db.EventType,
) error {
	s.appCtx.Logger.Debug("RevokeCreateAward called",
		"couple", coupleID, "user", actorUserID,
		"create_key", createDedupeKey, "delete_key", deleteDedupeKey)

	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		couples := s.coupleRepo.WithTx(tx)
		events := s.eventRepo.WithTx(tx)

		if err := s.ensureLegacyImport(ctx, couples, events, coupleID); err != nil {
			return err
		}

		existingDelete, err := events.GetByDedupeKey(ctx, coupleID, deleteDedupeKey)
		if err != nil {
			return err
		}
		if existingDelete != nil {
			return nil
		}

		createEvent, err := events.GetByDedupeKey(ctx, coupleID, createDedupeKey)
		if err != nil {
			return err
		}
		if createEvent == nil || createEvent.Points <= 0 {
			return nil
		}

		couple, err := couples.GetByID(ctx, coupleID)
		if err != nil {
			return err
		}

		delta := clampToZeroFloor(couple.IntimacyScore, -createEvent.Points)
		if delta == 0 {
			return nil
		}

		meta, err := json.Marshal(map[string]string{"revoked": createDedupeKey})
		if err != nil {
			return err
		}

		// Insert before decrementing: a concurrent revoke loses the
		// unique-index race here and leaves the score untouched.
		inserted, err := events.InsertUnique(ctx, &db.IntimacyEvent{
			ID:        db.NewEntityID("itv_"),
			CoupleID:  coupleID,
			UserID:    &actorUserID,
			Type:      deleteType,
			Points:    delta,
			DedupeKey: deleteDedupeKey,
			Meta:      datatypes.JSON(meta),
			CreatedAt: s.now().UTC(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}

		_, err = couples.AddToScore(ctx, coupleID, delta)
		return err
	})
	if err != nil {
		s.appCtx.Logger.Error("RevokeCreateAward failed", "couple", coupleID, "err", err)
		return svcErr.Map(err)
	}

	s.invalidateSummary(ctx, coupleID)
	return nil
}

// ensureLegacyImport reconciles couples whose score predates the
// ledger. Any existing event row means the couple is already on the
// ledger; otherwise a positive score is captured as a single
// LEGACY_IMPORT row dated at the couple's creation, so the
// score-equals-sum-of-points invariant holds without double counting.
func (s *Service) ensureLegacyImport(
	ctx context.Context,
	couples *repository.CoupleRepository,
	events *repository.EventRepository,
	coupleID string,
) error {
	hasAny, err := events.HasAny(ctx, coupleID)
	if err != nil {
		return err
	}
	if hasAny {
		return nil
	}

	couple, err := couples.GetByID(ctx, coupleID)
	if err != nil {
		// a missing couple surfaces on the caller's own lookup
		if errors.Is(err, svcErr.ErrNotFound) {
			return nil
		}
		return err
	}
	if couple.IntimacyScore <= 0 {
		return nil
	}

	meta, err := json.Marshal(map[string]string{
		"importedAt": s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	_, err = events.InsertUnique(ctx, &db.IntimacyEvent{
		ID:        db.NewEntityID("itv_"),
		CoupleID:  coupleID,
		UserID:    nil, // system-attributed
		Type:      db.EventLegacyImport,
		Points:    couple.IntimacyScore,
		DedupeKey: "legacy_import:" + coupleID,
		Meta:      datatypes.JSON(meta),
		CreatedAt: couple.CreatedAt,
	})
	return err
}
