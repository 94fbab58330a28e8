// Package services contains the business logic for course, quiz, and learner
// progress management.
package services

import (
	"database/sql"
	"time"

	"studyquiz/internal/models"
	contextutils "studyquiz/internal/utils"
)

// StarBaseAward is the flat star grant for finishing any quiz; correct answers
// add one star each on top.
const StarBaseAward = 5

// AdvanceStats is the pure state transition applied to the learner's
// gamification state when a quiz is completed. It returns a new snapshot and
// never mutates its input.
//
// Streak rules based on the calendar-day gap since the last completion:
// no prior completion starts the streak at 1, a same-day repeat leaves it
// unchanged, a one-day gap extends it, anything longer resets it to 1. A last
// date in the future (clock skew) also leaves the streak unchanged.
// The last quiz date is always moved to now.
//
// Level promotion is single-step: at most one level per completion, even when
// the completed-quiz count leaps past several thresholds. Level 10 is terminal.
func AdvanceStats(stats models.LearnerStats, correctAnswers int, now time.Time) models.LearnerStats {
	next := stats

	if !stats.LastQuizDate.Valid {
		next.CurrentStreak = 1
	} else {
		switch gap := contextutils.CalendarDaysBetween(stats.LastQuizDate.Time, now); {
		case gap == 1:
			next.CurrentStreak = stats.CurrentStreak + 1
		case gap > 1:
			next.CurrentStreak = 1
		default:
			// same-day repeat, or a clock that moved backwards; streak untouched
		}
	}
	next.LastQuizDate = sql.NullTime{Time: now, Valid: true}

	next.QuizzesCompleted = stats.QuizzesCompleted + 1
	next.TotalStars = stats.TotalStars + StarBaseAward + correctAnswers

	if next.CurrentLevel < 1 {
		next.CurrentLevel = 1
	}
	if next.CurrentLevel < models.MaxLevel && next.QuizzesCompleted >= next.NextLevelRequirement() {
		next.CurrentLevel++
	}

	return next
}
