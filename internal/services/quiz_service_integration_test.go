//go:build integration
// +build integration

package services

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"studyquiz/internal/config"
	"studyquiz/internal/models"
	"studyquiz/internal/observability"
	contextutils "studyquiz/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator returns a deterministic question set without any network call
type stubGenerator struct {
	questions []models.QuizQuestion
	err       error
}

func (g *stubGenerator) GenerateQuestions(_ context.Context, course *models.Course) ([]models.QuizQuestion, error) {
	if g.err != nil {
		return nil, g.err
	}
	if g.questions != nil {
		return g.questions, nil
	}
	questions := make([]models.QuizQuestion, course.QuestionsPerQuiz)
	for i := range questions {
		questions[i] = models.QuizQuestion{
			Question:      fmt.Sprintf("Question %d?", i+1),
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: i % 4,
		}
	}
	return questions, nil
}

func newTestServices(t *testing.T, db *sql.DB) (*CourseService, *QuizService, *StatsService) {
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	courseService := NewCourseService(db, logger)
	quizService := NewQuizService(db, courseService, &stubGenerator{}, logger)
	statsService := NewStatsService(db, logger)
	return courseService, quizService, statsService
}

// answersFor produces the all-correct answer vector for a quiz
func answersFor(quiz *models.Quiz) []int {
	answers := make([]int, len(quiz.Questions))
	for i, q := range quiz.Questions {
		answers[i] = q.CorrectAnswer
	}
	return answers
}

func generateAndComplete(t *testing.T, quizService *QuizService, topic string, spec *models.CourseSpec) *models.CompletionResult {
	quiz, err := quizService.GenerateQuiz(context.Background(), spec)
	require.NoError(t, err)

	result, err := quizService.CompleteQuiz(context.Background(), &models.CompletionRequest{
		QuizID:      quiz.ID,
		CourseName:  topic,
		UserAnswers: answersFor(quiz),
	})
	require.NoError(t, err)
	return result
}

func TestQuizService_GenerateQuiz_CreatesCourseAndQuiz_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	courseService, quizService, _ := newTestServices(t, db)

	spec := &models.CourseSpec{Topic: "Go Basics", DaysToComplete: 2, QuizzesPerDay: 2, QuestionsPerQuiz: 3}
	quiz, err := quizService.GenerateQuiz(context.Background(), spec)
	require.NoError(t, err)
	assert.Greater(t, quiz.ID, 0)
	assert.Equal(t, "Go Basics", quiz.CourseName)
	assert.Len(t, quiz.Questions, 3)
	assert.False(t, quiz.Completed)

	course, err := courseService.GetCourseByName(context.Background(), "Go Basics")
	require.NoError(t, err)
	assert.Equal(t, 4, course.RequiredQuizzes())
}

func TestQuizService_GenerateQuiz_ExistingCourseKeepsStoredCadence_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	courseService, quizService, _ := newTestServices(t, db)

	_, err := quizService.GenerateQuiz(context.Background(), &models.CourseSpec{Topic: "History", DaysToComplete: 3, QuizzesPerDay: 2, QuestionsPerQuiz: 2})
	require.NoError(t, err)

	// A second request with different cadence must not rewrite the course
	_, err = quizService.GenerateQuiz(context.Background(), &models.CourseSpec{Topic: "History", DaysToComplete: 300, QuizzesPerDay: 5, QuestionsPerQuiz: 50})
	require.NoError(t, err)

	course, err := courseService.GetCourseByName(context.Background(), "History")
	require.NoError(t, err)
	assert.Equal(t, 3, course.DaysToComplete)
	assert.Equal(t, 2, course.QuizzesPerDay)
}

func TestQuizService_CompleteQuiz_CourseCompletionAtThreshold_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	_, quizService, _ := newTestServices(t, db)

	// days=2, perDay=2 → required=4. Use a wide-open daily cap via perDay=2
	// but complete across simulated days so the limit never interferes.
	spec := &models.CourseSpec{Topic: "Algebra", DaysToComplete: 2, QuizzesPerDay: 2, QuestionsPerQuiz: 2}

	day := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var result *models.CompletionResult
	for i := 0; i < 4; i++ {
		// two completions per simulated day
		quizService.now = func() time.Time { return day.AddDate(0, 0, i/2) }
		result = generateAndComplete(t, quizService, "Algebra", spec)
	}

	assert.True(t, result.IsCourseCompleted)
	assert.Equal(t, 4, result.CompletedQuizzes)
	assert.Equal(t, 4, result.RequiredQuizzes)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM completed_courses WHERE course_name = 'Algebra'`).Scan(&count))
	assert.Equal(t, 1, count, "exactly one completion record")

	// A fifth completion past the threshold must not report the course as
	// newly completed nor add a second record.
	quizService.now = func() time.Time { return day.AddDate(0, 0, 2) }
	result = generateAndComplete(t, quizService, "Algebra", spec)
	assert.False(t, result.IsCourseCompleted)
	assert.Equal(t, 5, result.CompletedQuizzes)

	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM completed_courses WHERE course_name = 'Algebra'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestQuizService_CompleteQuiz_AnswerIndexOutOfRange_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	_, quizService, _ := newTestServices(t, db)

	quiz, err := quizService.GenerateQuiz(context.Background(), &models.CourseSpec{Topic: "Bounds", QuestionsPerQuiz: 2})
	require.NoError(t, err)

	for _, answers := range [][]int{{0, 4}, {-1, 0}} {
		_, err = quizService.CompleteQuiz(context.Background(), &models.CompletionRequest{
			QuizID:      quiz.ID,
			CourseName:  "Bounds",
			UserAnswers: answers,
		})
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeInvalidAnswerIndex, contextutils.GetErrorCode(err))
	}

	// the rejected submissions must not have consumed the quiz
	loaded, err := quizService.GetQuiz(context.Background(), quiz.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Completed)
}

func TestQuizService_CompleteQuiz_BelowThreshold_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	_, quizService, _ := newTestServices(t, db)

	// days=3, perDay=2 → required=6; only 3 completions
	spec := &models.CourseSpec{Topic: "Chemistry", DaysToComplete: 3, QuizzesPerDay: 2, QuestionsPerQuiz: 2}

	day := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var result *models.CompletionResult
	for i := 0; i < 3; i++ {
		quizService.now = func() time.Time { return day.AddDate(0, 0, i/2) }
		result = generateAndComplete(t, quizService, "Chemistry", spec)
	}

	assert.False(t, result.IsCourseCompleted)
	assert.Equal(t, 3, result.CompletedQuizzes)
	assert.Equal(t, 6, result.RequiredQuizzes)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM completed_courses`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestQuizService_CompleteQuiz_ScoreComputedServerSide_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	courseService := NewCourseService(db, logger)
	gen := &stubGenerator{questions: []models.QuizQuestion{
		{Question: "Q1", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 0},
		{Question: "Q2", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 1},
		{Question: "Q3", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 2},
	}}
	quizService := NewQuizService(db, courseService, gen, logger)

	quiz, err := quizService.GenerateQuiz(context.Background(), &models.CourseSpec{Topic: "Physics", QuestionsPerQuiz: 3})
	require.NoError(t, err)

	// one right, two wrong
	result, err := quizService.CompleteQuiz(context.Background(), &models.CompletionRequest{
		QuizID:      quiz.ID,
		CourseName:  "Physics",
		UserAnswers: []int{0, 0, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 3, result.TotalQuestions)
}

func TestQuizService_CompleteQuiz_SecondSubmissionRejected_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	_, quizService, statsService := newTestServices(t, db)

	quiz, err := quizService.GenerateQuiz(context.Background(), &models.CourseSpec{Topic: "Biology", QuestionsPerQuiz: 2})
	require.NoError(t, err)

	req := &models.CompletionRequest{QuizID: quiz.ID, CourseName: "Biology", UserAnswers: answersFor(quiz)}
	_, err = quizService.CompleteQuiz(context.Background(), req)
	require.NoError(t, err)

	_, err = quizService.CompleteQuiz(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeQuizAlreadyCompleted, contextutils.GetErrorCode(err))

	// counters must not have double-counted
	stats, err := statsService.GetLearnerStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.QuizzesCompleted)
}

func TestQuizService_CompleteQuiz_UnknownQuiz_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	_, quizService, _ := newTestServices(t, db)

	_, err := quizService.CompleteQuiz(context.Background(), &models.CompletionRequest{
		QuizID:      999999,
		CourseName:  "Nowhere",
		UserAnswers: []int{0},
	})
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeQuizNotFound, contextutils.GetErrorCode(err))
}

func TestQuizService_DailyLimit_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	_, quizService, _ := newTestServices(t, db)

	spec := &models.CourseSpec{Topic: "Geometry", DaysToComplete: 5, QuizzesPerDay: 1, QuestionsPerQuiz: 2}

	generateAndComplete(t, quizService, "Geometry", spec)

	// One quiz already completed today with a cap of one
	_, err := quizService.GenerateQuiz(context.Background(), spec)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeDailyLimitReached, contextutils.GetErrorCode(err))

	// The next day the cap resets
	quizService.now = func() time.Time { return time.Now().UTC().AddDate(0, 0, 1) }
	_, err = quizService.GenerateQuiz(context.Background(), spec)
	require.NoError(t, err)
}

func TestQuizService_StreakAndStars_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	_, quizService, statsService := newTestServices(t, db)

	spec := &models.CourseSpec{Topic: "Streaks", DaysToComplete: 30, QuizzesPerDay: 2, QuestionsPerQuiz: 2}
	day := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	quizService.now = func() time.Time { return day }
	result := generateAndComplete(t, quizService, "Streaks", spec)
	assert.Equal(t, 1, result.Stats.CurrentStreak)
	assert.Equal(t, StarBaseAward+2, result.Stats.TotalStars)

	// next calendar day extends the streak
	quizService.now = func() time.Time { return day.AddDate(0, 0, 1) }
	result = generateAndComplete(t, quizService, "Streaks", spec)
	assert.Equal(t, 2, result.Stats.CurrentStreak)

	// same day again leaves it unchanged
	result = generateAndComplete(t, quizService, "Streaks", spec)
	assert.Equal(t, 2, result.Stats.CurrentStreak)

	// a three-day gap resets it
	quizService.now = func() time.Time { return day.AddDate(0, 0, 4) }
	result = generateAndComplete(t, quizService, "Streaks", spec)
	assert.Equal(t, 1, result.Stats.CurrentStreak)

	stats, err := statsService.GetLearnerStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.QuizzesCompleted)
	assert.True(t, stats.LastQuizDate.Valid)
}

func TestQuizService_GetQuiz_Integration(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer db.Close()
	_, quizService, _ := newTestServices(t, db)

	quiz, err := quizService.GenerateQuiz(context.Background(), &models.CourseSpec{Topic: "Lookup", QuestionsPerQuiz: 2})
	require.NoError(t, err)

	loaded, err := quizService.GetQuiz(context.Background(), quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.ID, loaded.ID)
	assert.Equal(t, quiz.Questions, loaded.Questions)

	_, err = quizService.GetQuiz(context.Background(), 424242)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeQuizNotFound, contextutils.GetErrorCode(err))
}
