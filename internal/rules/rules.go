package rules

// Rules is the static game-balance table for the intimacy engine.
// Changing point values, throttles, caps, or the level curve means
// changing this table only — nothing here is mutated at runtime.

// LengthBonus maps a minimum (inclusive) trimmed content length to a
// bonus added on top of the note base points. Entries are checked in
// order, first match wins, so keep them sorted by MinInclusive desc.
type LengthBonus struct {
	MinInclusive int
	Bonus        int
}

// Title is one row of the level → title/hint table.
type Title struct {
	Level int
	Title string
	Hint  string
}

const (
	// CoupleDailyCap is the couple-wide ceiling on positive points per
	// UTC day, applied after all type-specific throttling.
	CoupleDailyCap = 300

	NoteBase      = 8
	NoteFullCount = 3 // notes per day at full credit
	NoteHalfCount = 3 // further notes per day at half credit (floored)

	MomentBase      = 15
	MomentTagsBonus = 2 // awarded when a moment carries >= 2 tags
	MomentFullCount = 2
	MomentHalfCount = 1

	QuestCreateBase           = 5
	QuestCreateDailyFullCount = 5   // quest creations per couple per day that earn points
	QuestCompleteDailyCap     = 120 // couple-wide daily sum of QUEST_COMPLETE points
	QuestCompleteMaxPoints    = 50  // per-quest ceiling on the quest's own point value
	QuestCrossCompleteBonus   = 5   // completer differs from the quest's creator

	PairSuccessPoints    = 100
	AnniversarySetPoints = 20

	SurpriseCooldownSeconds = 30
	SurpriseUserDailyCap    = 15

	RomanticSceneEnterPoints = 3
	RomanticUserDailyCap     = 12

	// Level curve: advancing from level L to L+1 costs
	// LevelDeltaBase + LevelDeltaStep*(L-1) points.
	LevelDeltaBase = 80
	LevelDeltaStep = 20

	// MaxLevel bounds the curve walk so pathologically large scores
	// terminate instead of spinning.
	MaxLevel = 10_000
)

// NoteLengthBonuses are the tiered bonuses for longer note content.
var NoteLengthBonuses = []LengthBonus{
	{MinInclusive: 121, Bonus: 4},
	{MinInclusive: 31, Bonus: 2},
	{MinInclusive: 0, Bonus: 0},
}

// Titles is the level title table. Levels beyond the last entry fall
// back to BeyondMaxTitle.
var Titles = []Title{
	{Level: 1, Title: "初遇", Hint: "认识彼此，一切刚刚开始"},
	{Level: 2, Title: "心动", Hint: "开始在意对方的小情绪"},
	{Level: 3, Title: "热恋", Hint: "甜度超标，想每天见面"},
	{Level: 4, Title: "默契", Hint: "不说也懂，你的习惯我都记得"},
	{Level: 5, Title: "依恋", Hint: "在一起时安心，不在也想念"},
	{Level: 6, Title: "同频", Hint: "价值观更靠近，沟通更顺畅"},
	{Level: 7, Title: "坚定", Hint: "遇到问题也愿意一起解决"},
	{Level: 8, Title: "相守", Hint: "把对方当作长期的“我们”"},
	{Level: 9, Title: "灵魂伴侣", Hint: "被理解、被接住，也更懂得爱"},
	{Level: 10, Title: "命中注定", Hint: "坚定选择彼此，彼此成就"},
}

// BeyondMaxTitle is returned for any level past the end of Titles.
var BeyondMaxTitle = Title{Title: "永恒恋人", Hint: "更懂得经营与陪伴，让爱长久发光"}

// LevelProgress is the position of a cumulative score on the level curve.
type LevelProgress struct {
	Level         int
	LevelStart    int // cumulative score at which the current level began
	NextThreshold int // cumulative score required for the next level
}

// ComputeLevelProgress maps a cumulative score onto the level curve.
// Level 1 starts at 0. The walk is capped at MaxLevel so the function
// is total even for absurd inputs.
func ComputeLevelProgress(score int) LevelProgress {
	delta := func(level int) int {
		return LevelDeltaBase + LevelDeltaStep*(level-1)
	}

	level := 1
	levelStart := 0
	nextThreshold := delta(level)

	for score >= nextThreshold {
		levelStart = nextThreshold
		level++
		nextThreshold += delta(level)
		if level > MaxLevel {
			break
		}
	}

	return LevelProgress{Level: level, LevelStart: levelStart, NextThreshold: nextThreshold}
}

// TitleForLevel returns the title/hint for a level, falling back to
// BeyondMaxTitle past the table's range.
func TitleForLevel(level int) (title, hint string) {
	for _, row := range Titles {
		if row.Level == level {
			return row.Title, row.Hint
		}
	}
	return BeyondMaxTitle.Title, BeyondMaxTitle.Hint
}

// NoteLengthBonus returns the bonus for a trimmed note length.
func NoteLengthBonus(length int) int {
	for _, row := range NoteLengthBonuses {
		if length >= row.MinInclusive {
			return row.Bonus
		}
	}
	return 0
}
