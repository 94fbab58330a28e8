package services

import (
	"context"
	"database/sql"
	"errors"

	"studyquiz/internal/models"
	"studyquiz/internal/observability"
	contextutils "studyquiz/internal/utils"
)

// learnerStatsID is the fixed key of the singleton stats row.
const learnerStatsID = 1

// StatsServiceInterface defines the interface for learner stats operations.
// This allows for easier mocking in tests.
type StatsServiceInterface interface {
	GetLearnerStats(ctx context.Context) (*models.LearnerStats, error)
}

// StatsService reads the singleton gamification state, creating the default
// row on first use.
type StatsService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(db *sql.DB, logger *observability.Logger) *StatsService {
	return &StatsService{db: db, logger: logger}
}

const learnerStatsSelectFields = `id, quizzes_completed, total_stars, current_level, current_streak, last_quiz_date`

func scanLearnerStats(row interface{ Scan(...interface{}) error }) (result0 *models.LearnerStats, err error) {
	stats := &models.LearnerStats{}
	err = row.Scan(
		&stats.ID,
		&stats.QuizzesCompleted,
		&stats.TotalStars,
		&stats.CurrentLevel,
		&stats.CurrentStreak,
		&stats.LastQuizDate,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// GetLearnerStats returns the singleton stats row, inserting the default row
// if this is the first call ever.
func (s *StatsService) GetLearnerStats(ctx context.Context) (result0 *models.LearnerStats, err error) {
	ctx, span := observability.TraceStatsFunction(ctx, "GetLearnerStats")
	defer observability.FinishSpan(span, &err)

	row := s.db.QueryRowContext(ctx, `SELECT `+learnerStatsSelectFields+` FROM learner_stats WHERE id = $1`, learnerStatsID)
	stats, err := scanLearnerStats(row)
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, contextutils.WrapError(err, "failed to query learner stats")
	}

	// First use: seed the default row. A concurrent first call may beat us to
	// it, in which case the existing row is read back.
	row = s.db.QueryRowContext(ctx, `
		INSERT INTO learner_stats (id, quizzes_completed, total_stars, current_level, current_streak)
		VALUES ($1, 0, 0, 1, 0)
		ON CONFLICT (id) DO NOTHING
		RETURNING `+learnerStatsSelectFields, learnerStatsID)
	stats, err = scanLearnerStats(row)
	if errors.Is(err, sql.ErrNoRows) {
		row = s.db.QueryRowContext(ctx, `SELECT `+learnerStatsSelectFields+` FROM learner_stats WHERE id = $1`, learnerStatsID)
		stats, err = scanLearnerStats(row)
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to initialize learner stats")
	}

	s.logger.Info(ctx, "Learner stats initialized")
	return stats, nil
}
