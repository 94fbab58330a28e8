package services

import (
	"database/sql"
	"testing"
	"time"

	"studyquiz/internal/models"

	"github.com/stretchr/testify/assert"
)

func statsWithLastQuiz(t time.Time, streak int) models.LearnerStats {
	return models.LearnerStats{
		ID:            1,
		CurrentLevel:  1,
		CurrentStreak: streak,
		LastQuizDate:  sql.NullTime{Time: t, Valid: true},
	}
}

func TestAdvanceStats_FirstCompletionStartsStreak(t *testing.T) {
	now := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

	next := AdvanceStats(models.LearnerStats{ID: 1, CurrentLevel: 1}, 3, now)

	assert.Equal(t, 1, next.CurrentStreak)
	assert.Equal(t, 1, next.QuizzesCompleted)
	assert.True(t, next.LastQuizDate.Valid)
	assert.Equal(t, now, next.LastQuizDate.Time)
}

func TestAdvanceStats_SameDayLeavesStreakUnchanged(t *testing.T) {
	morning := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 10, 21, 30, 0, 0, time.UTC)

	next := AdvanceStats(statsWithLastQuiz(morning, 4), 2, evening)

	assert.Equal(t, 4, next.CurrentStreak)
	assert.Equal(t, evening, next.LastQuizDate.Time, "last quiz date always advances")
}

func TestAdvanceStats_ConsecutiveDayExtendsStreak(t *testing.T) {
	yesterday := time.Date(2024, 3, 9, 23, 50, 0, 0, time.UTC)
	today := time.Date(2024, 3, 10, 0, 10, 0, 0, time.UTC)

	next := AdvanceStats(statsWithLastQuiz(yesterday, 6), 0, today)

	assert.Equal(t, 7, next.CurrentStreak)
}

func TestAdvanceStats_YesterdayWithZeroStreak(t *testing.T) {
	yesterday := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	today := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	next := AdvanceStats(statsWithLastQuiz(yesterday, 0), 1, today)

	assert.Equal(t, 1, next.CurrentStreak)
}

func TestAdvanceStats_GapResetsStreak(t *testing.T) {
	threeDaysAgo := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)
	today := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	next := AdvanceStats(statsWithLastQuiz(threeDaysAgo, 9), 5, today)

	assert.Equal(t, 1, next.CurrentStreak)
}

func TestAdvanceStats_FutureLastDateLeavesStreakUnchanged(t *testing.T) {
	tomorrow := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
	today := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	next := AdvanceStats(statsWithLastQuiz(tomorrow, 7), 2, today)

	assert.Equal(t, 7, next.CurrentStreak)
	assert.Equal(t, today, next.LastQuizDate.Time)
}

func TestAdvanceStats_StarAward(t *testing.T) {
	now := time.Now().UTC()
	stats := models.LearnerStats{ID: 1, CurrentLevel: 1, TotalStars: 10}

	next := AdvanceStats(stats, 4, now)

	assert.Equal(t, 10+StarBaseAward+4, next.TotalStars)
}

func TestAdvanceStats_LevelPromotionAtThreshold(t *testing.T) {
	now := time.Now().UTC()

	// Level 2 requires 5 completed quizzes; this completion is the fifth.
	stats := models.LearnerStats{ID: 1, CurrentLevel: 2, QuizzesCompleted: 4}

	next := AdvanceStats(stats, 0, now)

	assert.Equal(t, 5, next.QuizzesCompleted)
	assert.Equal(t, 3, next.CurrentLevel)
}

func TestAdvanceStats_PromotionIsSingleStep(t *testing.T) {
	now := time.Now().UTC()

	// Far past multiple thresholds; still only one promotion per completion.
	stats := models.LearnerStats{ID: 1, CurrentLevel: 1, QuizzesCompleted: 200}

	next := AdvanceStats(stats, 0, now)

	assert.Equal(t, 2, next.CurrentLevel)
}

func TestAdvanceStats_TerminalLevelNeverPromotes(t *testing.T) {
	now := time.Now().UTC()

	stats := models.LearnerStats{ID: 1, CurrentLevel: models.MaxLevel, QuizzesCompleted: 1000}

	next := AdvanceStats(stats, 10, now)

	assert.Equal(t, models.MaxLevel, next.CurrentLevel)
}

func TestAdvanceStats_LevelNeverDecreases(t *testing.T) {
	now := time.Now().UTC()

	stats := models.LearnerStats{ID: 1, CurrentLevel: 7, QuizzesCompleted: 0}

	next := AdvanceStats(stats, 0, now)

	assert.GreaterOrEqual(t, next.CurrentLevel, 7)
}

func TestAdvanceStats_DoesNotMutateInput(t *testing.T) {
	now := time.Now().UTC()
	stats := models.LearnerStats{ID: 1, CurrentLevel: 1, QuizzesCompleted: 3, TotalStars: 12}

	_ = AdvanceStats(stats, 2, now)

	assert.Equal(t, 3, stats.QuizzesCompleted)
	assert.Equal(t, 12, stats.TotalStars)
	assert.False(t, stats.LastQuizDate.Valid)
}
