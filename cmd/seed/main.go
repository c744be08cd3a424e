package main

import (
	"context"
	"fmt"
	"log"

	"github.com/pairloop/pairloop/internal/app"
	"github.com/pairloop/pairloop/internal/cache"
	"github.com/pairloop/pairloop/internal/config"
	"github.com/pairloop/pairloop/internal/db"
	"github.com/pairloop/pairloop/internal/logger"
	"github.com/pairloop/pairloop/internal/service/intimacy"
)

// Seeds demo users/couples, then drives a handful of awards through
// the scoring engine so the ledger and summary have something to show.
func main() {
	cfg := config.New()
	logger.InitFromConfig(cfg)

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	redisCache := cache.NewRedisCache(cfg)
	ctx := context.Background()
	if err := redisCache.Ping(ctx); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	data, err := db.SeedDemoData(database)
	if err != nil {
		log.Fatalf("failed to seed: %v", err)
	}

	appCtx := app.New(database, redisCache, logger.L())
	engine := intimacy.NewService(appCtx)

	creator := data.Fresh.CreatorID
	partner := *data.Fresh.PartnerID
	coupleID := data.Fresh.ID

	awards := []struct {
		userID string
		input  intimacy.AwardInput
	}{
		{creator, intimacy.AwardInput{
			DedupeKey: fmt.Sprintf("pair:%s:success", coupleID),
			Meta:      intimacy.PairSuccess{},
		}},
		{creator, intimacy.AwardInput{
			DedupeKey: "note:note_demo1:create",
			Meta:      intimacy.NoteCreate{NoteID: "note_demo1", Content: "今天一起做了晚饭，比外卖好吃多了"},
		}},
		{partner, intimacy.AwardInput{
			DedupeKey: "moment:mnt_demo1:create",
			Meta:      intimacy.MomentCreate{MomentID: "mnt_demo1", Tags: []string{"dinner", "home"}},
		}},
		{creator, intimacy.AwardInput{
			DedupeKey: "quest:qst_demo1:create",
			Meta:      intimacy.QuestCreate{QuestID: "qst_demo1"},
		}},
		{partner, intimacy.AwardInput{
			DedupeKey: "quest:qst_demo1:complete",
			Meta:      intimacy.QuestComplete{QuestID: "qst_demo1", QuestPoints: 30, QuestCreatedBy: creator},
		}},
	}

	for _, a := range awards {
		result, err := engine.Award(ctx, coupleID, a.userID, a.input)
		if err != nil {
			log.Fatalf("award %s failed: %v", a.input.DedupeKey, err)
		}
		log.Printf("awarded %d (%s), score now %d", result.Awarded, a.input.DedupeKey, result.Score)
	}

	// first summary read of the legacy couple synthesizes its
	// LEGACY_IMPORT event
	summary, err := engine.GetSummary(ctx, data.Legacy.ID)
	if err != nil {
		log.Fatalf("legacy summary failed: %v", err)
	}
	log.Printf("legacy couple: score=%d level=%d title=%s", summary.Score, summary.Level, summary.Title)

	log.Println("Seeding completed.")
}
