package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pairloop/pairloop/internal/db"
	"github.com/pairloop/pairloop/internal/repository"
	"github.com/pairloop/pairloop/internal/utils/pagination"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(&db.Couple{}, &db.IntimacyEvent{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func makeEvent(coupleID, userID, key string, points int, at time.Time) *db.IntimacyEvent {
	var uid *string
	if userID != "" {
		uid = &userID
	}
	return &db.IntimacyEvent{
		ID:        db.NewEntityID("itv_"),
		CoupleID:  coupleID,
		UserID:    uid,
		Type:      db.EventNoteCreate,
		Points:    points,
		DedupeKey: key,
		CreatedAt: at,
	}
}

func TestInsertUniqueConflict(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewEventRepository(setupTestDB(t))
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	inserted, err := repo.InsertUnique(ctx, makeEvent("cpl_1", "usr_1", "note:n1:create", 8, now))
	require.NoError(t, err)
	assert.True(t, inserted)

	// same (couple, key) → swallowed by the unique index
	inserted, err = repo.InsertUnique(ctx, makeEvent("cpl_1", "usr_1", "note:n1:create", 8, now))
	require.NoError(t, err)
	assert.False(t, inserted)

	// same key for another couple is a different row
	inserted, err = repo.InsertUnique(ctx, makeEvent("cpl_2", "usr_9", "note:n1:create", 8, now))
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestTodayWindowAggregates(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewEventRepository(setupTestDB(t))

	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	startOfToday := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	// two positive today, one yesterday, one zero-credit equivalent
	// (reversal) today — only today's positives count
	_, err := repo.InsertUnique(ctx, makeEvent("cpl_1", "usr_1", "note:a:create", 8, now))
	require.NoError(t, err)
	_, err = repo.InsertUnique(ctx, makeEvent("cpl_1", "usr_2", "note:b:create", 10, now.Add(-time.Hour)))
	require.NoError(t, err)
	_, err = repo.InsertUnique(ctx, makeEvent("cpl_1", "usr_1", "note:old:create", 8, now.Add(-24*time.Hour)))
	require.NoError(t, err)
	_, err = repo.InsertUnique(ctx, makeEvent("cpl_1", "usr_1", "note:a:delete", -8, now))
	require.NoError(t, err)

	count, err := repo.CountPositiveSince(ctx, "cpl_1", db.EventNoteCreate, startOfToday)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	sum, err := repo.SumPositiveSince(ctx, "cpl_1", startOfToday)
	require.NoError(t, err)
	assert.Equal(t, 18, sum)

	sum, err = repo.SumPositiveByUserSince(ctx, "cpl_1", "usr_1", db.EventNoteCreate, startOfToday)
	require.NoError(t, err)
	assert.Equal(t, 8, sum)

	recent, err := repo.HasPositiveByUserSince(ctx, "cpl_1", "usr_1", db.EventNoteCreate, now.Add(-30*time.Second))
	require.NoError(t, err)
	assert.True(t, recent)

	recent, err = repo.HasPositiveByUserSince(ctx, "cpl_1", "usr_2", db.EventNoteCreate, now.Add(-30*time.Second))
	require.NoError(t, err)
	assert.False(t, recent)
}

func TestListStableOrderOnTimestampTies(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewEventRepository(setupTestDB(t))

	// three events sharing one timestamp: id breaks the tie
	ts := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	for _, key := range []string{"k1", "k2", "k3", "k4", "k5"} {
		_, err := repo.InsertUnique(ctx, makeEvent("cpl_1", "usr_1", key, 5, ts))
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	var cursor pagination.Cursor
	pages := 0
	for {
		events, next, err := repo.List(ctx, "cpl_1", nil, cursor, 2, false)
		require.NoError(t, err)
		for _, e := range events {
			assert.False(t, seen[e.ID], "event %s appeared twice across pages", e.ID)
			seen[e.ID] = true
		}
		pages++
		if next == nil {
			break
		}
		cursor, err = pagination.Decode(*next)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, pages)
	assert.Len(t, seen, 5, "pagination must be gap-free despite tied timestamps")
}

func TestCoupleAddToScore(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewCoupleRepository(gdb)

	couple := db.Couple{
		ID:        db.NewEntityID("cpl_"),
		PairCode:  db.NewPairCode(),
		CreatorID: "usr_1",
	}
	require.NoError(t, gdb.Create(&couple).Error)

	score, err := repo.AddToScore(ctx, couple.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, score)

	score, err = repo.AddToScore(ctx, couple.ID, -10)
	require.NoError(t, err)
	assert.Equal(t, 32, score)

	_, err = repo.AddToScore(ctx, "cpl_missing", 1)
	assert.Error(t, err)
}
