package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"studyquiz/internal/models"
	"studyquiz/internal/observability"
	contextutils "studyquiz/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// QuizServiceInterface defines the interface for quiz generation and
// completion. This allows for easier mocking in tests.
type QuizServiceInterface interface {
	GenerateQuiz(ctx context.Context, spec *models.CourseSpec) (*models.Quiz, error)
	CompleteQuiz(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResult, error)
	GetQuiz(ctx context.Context, id int) (*models.Quiz, error)
}

// QuizService owns the quiz lifecycle: generation behind the daily limit
// guard, and completion as one atomic transaction covering the quiz row, the
// course aggregate, and the learner stats singleton.
type QuizService struct {
	db            *sql.DB
	courseService CourseServiceInterface
	generator     AIServiceInterface
	logger        *observability.Logger

	// now is an injectable clock for deterministic tests
	now func() time.Time
}

// NewQuizService creates a new quiz service
func NewQuizService(db *sql.DB, courseService CourseServiceInterface, generator AIServiceInterface, logger *observability.Logger) *QuizService {
	return &QuizService{
		db:            db,
		courseService: courseService,
		generator:     generator,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

const quizSelectFields = `id, course_name, questions, completed, score, total_questions, completed_date, user_answers, created_at`

func scanQuiz(row interface{ Scan(...interface{}) error }) (result0 *models.Quiz, err error) {
	quiz := &models.Quiz{}
	var questionsJSON string
	var userAnswersJSON sql.NullString

	err = row.Scan(
		&quiz.ID,
		&quiz.CourseName,
		&questionsJSON,
		&quiz.Completed,
		&quiz.Score,
		&quiz.TotalQuestions,
		&quiz.CompletedDate,
		&userAnswersJSON,
		&quiz.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := quiz.UnmarshalQuestionsFromJSON(questionsJSON); err != nil {
		return nil, contextutils.WrapError(err, "failed to decode stored questions")
	}
	if userAnswersJSON.Valid && userAnswersJSON.String != "" {
		if err := json.Unmarshal([]byte(userAnswersJSON.String), &quiz.UserAnswers); err != nil {
			return nil, contextutils.WrapError(err, "failed to decode stored user answers")
		}
	}
	return quiz, nil
}

// GetQuiz returns the quiz with the given id
func (s *QuizService) GetQuiz(ctx context.Context, id int) (result0 *models.Quiz, err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "GetQuiz",
		observability.AttributeQuizID(id),
	)
	defer observability.FinishSpan(span, &err)

	row := s.db.QueryRowContext(ctx, `SELECT `+quizSelectFields+` FROM quizzes WHERE id = $1`, id)
	quiz, err := scanQuiz(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contextutils.ErrQuizNotFound
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query quiz")
	}
	return quiz, nil
}

// GenerateQuiz creates a new quiz for the spec's course. The daily limit is
// checked before the slow generator call and re-validated afterwards inside
// the insert transaction, with the course row locked so concurrent generation
// requests for the same course serialize on the cap.
func (s *QuizService) GenerateQuiz(ctx context.Context, spec *models.CourseSpec) (result0 *models.Quiz, err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "GenerateQuiz",
		observability.AttributeCourseName(spec.Topic),
	)
	defer observability.FinishSpan(span, &err)

	course, err := s.courseService.GetOrCreateCourse(ctx, spec)
	if err != nil {
		return nil, err
	}

	// Cheap pre-check so an exhausted cap fails before the generator is paid for
	completedToday, err := s.countCompletedToday(ctx, s.db, course.Name)
	if err != nil {
		return nil, err
	}
	if completedToday >= course.QuizzesPerDay {
		return nil, contextutils.ErrDailyLimitReached
	}

	questions, err := s.generator.GenerateQuestions(ctx, course)
	if err != nil {
		return nil, err
	}

	// Time has passed during generation; the cap decision is only final once
	// the course row is locked.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				s.logger.Warn(ctx, "Failed to rollback transaction", map[string]interface{}{"error": rollbackErr.Error()})
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT id FROM courses WHERE name = $1 FOR UPDATE`, course.Name); err != nil {
		return nil, contextutils.WrapError(err, "failed to lock course row")
	}

	completedToday, err = s.countCompletedToday(ctx, tx, course.Name)
	if err != nil {
		return nil, err
	}
	if completedToday >= course.QuizzesPerDay {
		err = contextutils.ErrDailyLimitReached
		return nil, err
	}

	quiz := &models.Quiz{CourseName: course.Name, Questions: questions}
	questionsJSON, err := quiz.MarshalQuestionsToJSON()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to encode questions")
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO quizzes (course_name, questions, completed)
		VALUES ($1, $2, FALSE)
		RETURNING id, created_at`,
		course.Name, questionsJSON,
	).Scan(&quiz.ID, &quiz.CreatedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to insert quiz")
	}

	if err = tx.Commit(); err != nil {
		return nil, contextutils.WrapError(err, "failed to commit transaction")
	}

	s.logger.Info(ctx, "Quiz generated", map[string]interface{}{
		"quiz_id":     quiz.ID,
		"course_name": course.Name,
		"questions":   len(questions),
	})
	span.SetAttributes(observability.AttributeQuizID(quiz.ID))
	return quiz, nil
}

// querier lets the daily count run on either the pool or an open transaction
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// countCompletedToday counts quizzes for the course completed during the
// current UTC calendar day.
func (s *QuizService) countCompletedToday(ctx context.Context, q querier, courseName string) (result0 int, err error) {
	dayStart := contextutils.DateOnly(s.now())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int
	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM quizzes
		WHERE course_name = $1 AND completed = TRUE
		  AND completed_date >= $2 AND completed_date < $3`,
		courseName, dayStart, dayEnd,
	).Scan(&count)
	if err != nil {
		return 0, contextutils.WrapError(err, "failed to count today's completed quizzes")
	}
	return count, nil
}

// CompleteQuiz marks a quiz as completed and folds the result into the course
// aggregate and the learner stats, all in one serializable transaction.
// Completion is one-way: a second submission for the same quiz is rejected.
func (s *QuizService) CompleteQuiz(ctx context.Context, req *models.CompletionRequest) (result0 *models.CompletionResult, err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "CompleteQuiz",
		observability.AttributeQuizID(req.QuizID),
		observability.AttributeCourseName(req.CourseName),
	)
	defer observability.FinishSpan(span, &err)

	if err := contextutils.ValidateStruct(req); err != nil {
		return nil, err
	}

	now := s.now()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				s.logger.Warn(ctx, "Failed to rollback transaction", map[string]interface{}{"error": rollbackErr.Error()})
			}
		}
	}()

	// Step 1: load and lock the quiz
	row := tx.QueryRowContext(ctx, `SELECT `+quizSelectFields+` FROM quizzes WHERE id = $1 FOR UPDATE`, req.QuizID)
	quiz, err := scanQuiz(row)
	if errors.Is(err, sql.ErrNoRows) {
		err = contextutils.ErrQuizNotFound
		return nil, err
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load quiz")
	}
	if quiz.CourseName != req.CourseName {
		err = contextutils.WrapErrorf(contextutils.ErrInvalidInput, "quiz %d belongs to course %q", quiz.ID, quiz.CourseName)
		return nil, err
	}
	if quiz.Completed {
		err = contextutils.ErrQuizAlreadyCompleted
		return nil, err
	}
	if len(req.UserAnswers) != len(quiz.Questions) {
		err = contextutils.WrapErrorf(contextutils.ErrValidationFailed, "expected %d answers, got %d", len(quiz.Questions), len(req.UserAnswers))
		return nil, err
	}
	for i, answer := range req.UserAnswers {
		if answer < 0 || answer >= len(quiz.Questions[i].Options) {
			err = contextutils.WrapErrorf(contextutils.ErrInvalidAnswerIndex, "answer %d is %d, question has %d options", i, answer, len(quiz.Questions[i].Options))
			return nil, err
		}
	}

	// Step 2: score server-side from the stored correct answers
	score := 0
	for i, q := range quiz.Questions {
		if req.UserAnswers[i] == q.CorrectAnswer {
			score++
		}
	}
	totalQuestions := len(quiz.Questions)

	answersJSON, err := json.Marshal(req.UserAnswers)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to encode user answers")
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE quizzes
		SET completed = TRUE, score = $2, total_questions = $3, user_answers = $4, completed_date = $5
		WHERE id = $1`,
		quiz.ID, score, totalQuestions, string(answersJSON), now,
	); err != nil {
		return nil, contextutils.WrapError(err, "failed to mark quiz completed")
	}

	// Step 3: thresholds come from the stored course record, never the caller
	courseRow := tx.QueryRowContext(ctx, `SELECT `+courseSelectFields+` FROM courses WHERE name = $1`, quiz.CourseName)
	course, err := scanCourse(courseRow)
	if errors.Is(err, sql.ErrNoRows) {
		err = contextutils.ErrCourseNotFound
		return nil, err
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load course")
	}

	// Step 4: recompute the course aggregate, including this completion
	var completedCount, totalScore, totalQuestionsSum int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(score), 0), COALESCE(SUM(total_questions), 0)
		FROM quizzes
		WHERE course_name = $1 AND completed = TRUE`,
		quiz.CourseName,
	).Scan(&completedCount, &totalScore, &totalQuestionsSum)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to aggregate course progress")
	}

	required := course.RequiredQuizzes()

	// Step 5: record first-time course completion. The unique constraint plus
	// DO NOTHING makes the losing side of a concurrent race a no-op, and only
	// the transaction that actually inserts the row reports the course as
	// newly completed. Later completions past the threshold insert nothing
	// and report false.
	isCourseCompleted := false
	if completedCount >= required {
		insertResult, execErr := tx.ExecContext(ctx, `
			INSERT INTO completed_courses (course_name, completion_date, total_score, total_questions, days_to_complete, quizzes_completed, quizzes_per_day)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (course_name) DO NOTHING`,
			course.Name, now, totalScore, totalQuestionsSum, course.DaysToComplete, completedCount, course.QuizzesPerDay,
		)
		if execErr != nil {
			err = contextutils.WrapError(execErr, "failed to record course completion")
			return nil, err
		}
		inserted, raErr := insertResult.RowsAffected()
		if raErr != nil {
			err = contextutils.WrapError(raErr, "failed to read course completion result")
			return nil, err
		}
		isCourseCompleted = inserted == 1
	}

	// Step 6: advance the learner stats under a row lock
	stats, err := s.lockLearnerStats(ctx, tx)
	if err != nil {
		return nil, err
	}
	newStats := AdvanceStats(*stats, score, now)
	if _, err = tx.ExecContext(ctx, `
		UPDATE learner_stats
		SET quizzes_completed = $2, total_stars = $3, current_level = $4, current_streak = $5, last_quiz_date = $6
		WHERE id = $1`,
		learnerStatsID, newStats.QuizzesCompleted, newStats.TotalStars, newStats.CurrentLevel, newStats.CurrentStreak, newStats.LastQuizDate,
	); err != nil {
		return nil, contextutils.WrapError(err, "failed to update learner stats")
	}

	if err = tx.Commit(); err != nil {
		return nil, contextutils.WrapError(err, "failed to commit transaction")
	}

	s.logger.Info(ctx, "Quiz completed", map[string]interface{}{
		"quiz_id":          quiz.ID,
		"course_name":      course.Name,
		"score":            score,
		"course_completed": isCourseCompleted,
		"level":            newStats.CurrentLevel,
		"streak":           newStats.CurrentStreak,
	})
	span.SetAttributes(
		observability.AttributeScore(score),
		observability.AttributeLevel(newStats.CurrentLevel),
		attribute.Bool("course.completed", isCourseCompleted),
	)

	return &models.CompletionResult{
		IsCourseCompleted: isCourseCompleted,
		Score:             score,
		TotalQuestions:    totalQuestions,
		CompletedQuizzes:  completedCount,
		RequiredQuizzes:   required,
		Stats:             &newStats,
	}, nil
}

// lockLearnerStats loads the singleton stats row under FOR UPDATE, seeding the
// default row first if it has never been created.
func (s *QuizService) lockLearnerStats(ctx context.Context, tx *sql.Tx) (result0 *models.LearnerStats, err error) {
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO learner_stats (id, quizzes_completed, total_stars, current_level, current_streak)
		VALUES ($1, 0, 0, 1, 0)
		ON CONFLICT (id) DO NOTHING`, learnerStatsID,
	); err != nil {
		return nil, contextutils.WrapError(err, "failed to seed learner stats")
	}

	row := tx.QueryRowContext(ctx, `SELECT `+learnerStatsSelectFields+` FROM learner_stats WHERE id = $1 FOR UPDATE`, learnerStatsID)
	stats, err := scanLearnerStats(row)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to lock learner stats")
	}
	return stats, nil
}
