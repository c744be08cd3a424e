package intimacy

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pairloop/pairloop/internal/cache"
	"github.com/pairloop/pairloop/internal/db"
	svcErr "github.com/pairloop/pairloop/internal/errors"
	"github.com/pairloop/pairloop/internal/rules"
	"github.com/pairloop/pairloop/internal/utils/pagination"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// SortCreatedAtAsc flips the event feed to oldest-first.
const SortCreatedAtAsc = "createdAt"

// Summary is the read projection behind the couple's intimacy panel.
type Summary struct {
	Score         int    `json:"score"`
	Level         int    `json:"level"`
	Title         string `json:"title"`
	Hint          string `json:"hint"`
	LevelStart    int    `json:"levelStart"`
	NextThreshold int    `json:"nextThreshold"`
	TodayEarned   int    `json:"todayEarned"`
	TodayCap      int    `json:"todayCap"`
}

// EventItem is one row of the event feed.
type EventItem struct {
	ID        string          `json:"id"`
	UserID    *string         `json:"userId"`
	Type      db.EventType    `json:"type"`
	Points    int             `json:"points"`
	Meta      json.RawMessage `json:"meta"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ListQuery filters and paginates the event feed.
type ListQuery struct {
	UserID *string // only events acted by this user
	Cursor *string // opaque token from a previous page
	Limit  int     // defaults to 20, capped at 100
	Sort   string  // SortCreatedAtAsc for oldest-first, else newest-first
}

// GetSummary returns current score, level/title and today's progress.
// Cache-first strategy:
//  1. Attempts to read the cached summary from Redis.
//  2. On miss, runs the legacy backfill, reads the couple, computes the
//     level curve position and today's earned points.
//  3. Stores the result back with a short TTL; awards and reversals
//     delete the key.
func (s *Service) GetSummary(ctx context.Context, coupleID string) (Summary, error) {
	s.appCtx.Logger.Debug("GetSummary called", "couple", coupleID)

	key := s.appCtx.RedisCache.KeyForSummary(coupleID)

	// try cache first
	if cached, _ := s.appCtx.RedisCache.Get(ctx, key); cached != "" {
		var summary Summary
		if err := json.Unmarshal([]byte(cached), &summary); err == nil {
			return summary, nil
		}
	}

	if err := s.ensureLegacyImport(ctx, s.coupleRepo, s.eventRepo, coupleID); err != nil {
		return Summary{}, svcErr.Map(err)
	}

	couple, err := s.coupleRepo.GetByID(ctx, coupleID)
	if err != nil {
		return Summary{}, svcErr.Map(err)
	}

	progress := rules.ComputeLevelProgress(couple.IntimacyScore)
	title, hint := rules.TitleForLevel(progress.Level)

	todayEarned, err := s.eventRepo.SumPositiveSince(ctx, coupleID, s.startOfToday())
	if err != nil {
		return Summary{}, svcErr.Map(err)
	}

	summary := Summary{
		Score:         couple.IntimacyScore,
		Level:         progress.Level,
		Title:         title,
		Hint:          hint,
		LevelStart:    progress.LevelStart,
		NextThreshold: progress.NextThreshold,
		TodayEarned:   todayEarned,
		TodayCap:      rules.CoupleDailyCap,
	}

	if blob, err := json.Marshal(summary); err == nil {
		_ = s.appCtx.RedisCache.Set(ctx, key, blob, cache.SummaryTTL)
	}

	return summary, nil
}

// invalidateSummary drops the cached summary after a score mutation.
// Best effort: a failed delete only means a slightly stale panel until
// the TTL expires.
func (s *Service) invalidateSummary(ctx context.Context, coupleID string) {
	_ = s.appCtx.RedisCache.Del(ctx, s.appCtx.RedisCache.KeyForSummary(coupleID))
}

// ListEvents returns one page of the couple's ledger, newest first by
// default. The cursor encodes (created_at, id), so pages stay stable
// and gap-free even when events share a timestamp.
func (s *Service) ListEvents(ctx context.Context, coupleID string, query ListQuery) ([]EventItem, *string, error) {
	s.appCtx.Logger.Debug("ListEvents called", "couple", coupleID)

	if err := s.ensureLegacyImport(ctx, s.coupleRepo, s.eventRepo, coupleID); err != nil {
		return nil, nil, svcErr.Map(err)
	}

	var token string
	if query.Cursor != nil {
		token = *query.Cursor
	}
	cursor, err := pagination.Decode(token)
	if err != nil {
		return nil, nil, svcErr.InvalidArgument("cursor is invalid")
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	asc := query.Sort == SortCreatedAtAsc

	events, nextToken, err := s.eventRepo.List(ctx, coupleID, query.UserID, cursor, limit, asc)
	if err != nil {
		s.appCtx.Logger.Error("ListEvents failed", "couple", coupleID, "err", err)
		return nil, nil, svcErr.Map(err)
	}

	items := make([]EventItem, 0, len(events))
	for _, event := range events {
		items = append(items, EventItem{
			ID:        event.ID,
			UserID:    event.UserID,
			Type:      event.Type,
			Points:    event.Points,
			Meta:      json.RawMessage(event.Meta),
			CreatedAt: event.CreatedAt,
		})
	}

	return items, nextToken, nil
}
