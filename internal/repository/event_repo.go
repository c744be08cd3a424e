package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pairloop/pairloop/internal/db"
	"github.com/pairloop/pairloop/internal/utils/pagination"
)

// EventRepository provides data access for the intimacy ledger.
// Rows are append-only: there is no update or delete method on purpose.
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new repository bound to the given DB connection.
func NewEventRepository(database *gorm.DB) *EventRepository {
	return &EventRepository{db: database}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *EventRepository) WithTx(tx *gorm.DB) *EventRepository {
	return &EventRepository{db: tx}
}

// InsertUnique inserts a ledger row, relying on the unique
// (couple_id, dedupe_key) index for idempotency.
//
// Behavior:
//   - New key → row inserted, returns true.
//   - Existing key → ON CONFLICT DO NOTHING swallows the insert and
//     returns false. Concurrent duplicates race on the constraint, so
//     exactly one caller ever sees true for a given key.
func (r *EventRepository) InsertUnique(ctx context.Context, event *db.IntimacyEvent) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "couple_id"}, {Name: "dedupe_key"}},
			DoNothing: true,
		}).
		Create(event)
	if res.Error != nil {
		// TranslateError dialects report the race as a duplicated key
		// instead of silently resolving the conflict clause.
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetByDedupeKey returns the event for (coupleID, dedupeKey), or nil
// if none exists.
func (r *EventRepository) GetByDedupeKey(ctx context.Context, coupleID, dedupeKey string) (*db.IntimacyEvent, error) {
	var event db.IntimacyEvent
	err := r.db.WithContext(ctx).
		Where("couple_id = ? AND dedupe_key = ?", coupleID, dedupeKey).
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// HasAny reports whether the couple has at least one ledger row.
// Gate for the legacy backfill.
func (r *EventRepository) HasAny(ctx context.Context, coupleID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.IntimacyEvent{}).
		Where("couple_id = ?", coupleID).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// CountPositiveSince counts positive-point events of one type created
// at or after the given instant. Zero-point and reversal rows never
// consume throttle slots.
func (r *EventRepository) CountPositiveSince(ctx context.Context, coupleID string, eventType db.EventType, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.IntimacyEvent{}).
		Where("couple_id = ? AND type = ? AND created_at >= ? AND points > 0", coupleID, eventType, since).
		Count(&count).Error
	return count, err
}

// SumPositiveSince sums all positive points for the couple since the
// given instant. Feeds the couple-wide daily cap and the summary's
// "today earned" figure.
func (r *EventRepository) SumPositiveSince(ctx context.Context, coupleID string, since time.Time) (int, error) {
	var sum int
	err := r.db.WithContext(ctx).
		Model(&db.IntimacyEvent{}).
		Select("COALESCE(SUM(points), 0)").
		Where("couple_id = ? AND created_at >= ? AND points > 0", coupleID, since).
		Scan(&sum).Error
	return sum, err
}

// SumPositiveByTypeSince sums positive points of one event type for
// the couple since the given instant (quest-completion daily cap).
func (r *EventRepository) SumPositiveByTypeSince(ctx context.Context, coupleID string, eventType db.EventType, since time.Time) (int, error) {
	var sum int
	err := r.db.WithContext(ctx).
		Model(&db.IntimacyEvent{}).
		Select("COALESCE(SUM(points), 0)").
		Where("couple_id = ? AND type = ? AND created_at >= ? AND points > 0", coupleID, eventType, since).
		Scan(&sum).Error
	return sum, err
}

// SumPositiveByUserSince sums positive points of one event type earned
// by one user since the given instant (per-user daily caps).
func (r *EventRepository) SumPositiveByUserSince(ctx context.Context, coupleID, userID string, eventType db.EventType, since time.Time) (int, error) {
	var sum int
	err := r.db.WithContext(ctx).
		Model(&db.IntimacyEvent{}).
		Select("COALESCE(SUM(points), 0)").
		Where("couple_id = ? AND user_id = ? AND type = ? AND created_at >= ? AND points > 0", coupleID, userID, eventType, since).
		Scan(&sum).Error
	return sum, err
}

// HasPositiveByUserSince reports whether the user earned points for
// this event type since the given instant (cooldown windows).
func (r *EventRepository) HasPositiveByUserSince(ctx context.Context, coupleID, userID string, eventType db.EventType, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.IntimacyEvent{}).
		Where("couple_id = ? AND user_id = ? AND type = ? AND created_at >= ? AND points > 0", coupleID, userID, eventType, since).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// List returns a page of the couple's event feed.
//
// Behavior:
//   - Keyset-paginated on (created_at, id) so ties on timestamp stay
//     stable and gap-free.
//   - Descending (newest first) by default; ascending when asc is set.
//   - Optional filter by acting user id.
//   - Fetches limit+1 rows to decide whether a next cursor exists.
func (r *EventRepository) List(
	ctx context.Context,
	coupleID string,
	userID *string,
	cursor pagination.Cursor,
	limit int,
	asc bool,
) ([]db.IntimacyEvent, *string, error) {
	var events []db.IntimacyEvent

	query := r.db.WithContext(ctx).
		Model(&db.IntimacyEvent{}).
		Where("couple_id = ?", coupleID).
		Limit(limit + 1)

	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	if asc {
		query = query.Order("created_at ASC, id ASC")
	} else {
		query = query.Order("created_at DESC, id DESC")
	}

	// apply cursor
	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.CreatedUnix)
		if asc {
			query = query.Where(
				"(created_at > ? OR (created_at = ? AND id > ?))",
				ts, ts, cursor.ID,
			)
		} else {
			query = query.Where(
				"(created_at < ? OR (created_at = ? AND id < ?))",
				ts, ts, cursor.ID,
			)
		}
	}

	if err := query.Find(&events).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(events) > limit {
		last := events[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			CreatedUnix: last.CreatedAt.UnixMilli(),
			ID:          last.ID,
		})
		nextToken = &token
		events = events[:limit]
	}

	return events, nextToken, nil
}
