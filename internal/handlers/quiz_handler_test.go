package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"studyquiz/internal/config"
	"studyquiz/internal/models"
	"studyquiz/internal/observability"
	contextutils "studyquiz/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *observability.Logger {
	t.Helper()
	_, _, logger, err := observability.SetupObservability(&config.OpenTelemetryConfig{EnableTracing: false, EnableLogging: true}, "test-service")
	require.NoError(t, err)
	return logger
}

func setupQuizRouter(t *testing.T, mq *MockQuizService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler := NewQuizHandler(mq, newTestLogger(t))
	r := gin.New()
	r.POST("/v1/quizzes", handler.GenerateQuiz)
	r.GET("/v1/quizzes/:id", handler.GetQuiz)
	r.POST("/v1/quizzes/:id/complete", handler.CompleteQuiz)
	return r
}

func TestGenerateQuiz_ReturnsCreated(t *testing.T) {
	mq := &MockQuizService{}
	quiz := &models.Quiz{
		ID:         42,
		CourseName: "Spanish Basics",
		Questions: []models.QuizQuestion{
			{Question: "Hola means?", Options: []string{"Hello", "Bye", "Yes", "No"}, CorrectAnswer: 0},
		},
	}
	mq.On("GenerateQuiz", mock.Anything, mock.MatchedBy(func(spec *models.CourseSpec) bool {
		return spec.Topic == "Spanish Basics"
	})).Return(quiz, nil)

	router := setupQuizRouter(t, mq)

	body, _ := json.Marshal(map[string]interface{}{"topic": "Spanish Basics"})
	req, _ := http.NewRequest("POST", "/v1/quizzes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(42), resp["id"])
	assert.Equal(t, "Spanish Basics", resp["course_name"])
	mq.AssertExpectations(t)
}

func TestGenerateQuiz_DailyLimitReturns429(t *testing.T) {
	mq := &MockQuizService{}
	mq.On("GenerateQuiz", mock.Anything, mock.Anything).Return(nil, contextutils.ErrDailyLimitReached)

	router := setupQuizRouter(t, mq)

	body, _ := json.Marshal(map[string]interface{}{"topic": "Spanish Basics"})
	req, _ := http.NewRequest("POST", "/v1/quizzes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "DAILY_LIMIT_REACHED")
	mq.AssertExpectations(t)
}

func TestGenerateQuiz_GeneratorDownReturns502(t *testing.T) {
	mq := &MockQuizService{}
	mq.On("GenerateQuiz", mock.Anything, mock.Anything).Return(nil, contextutils.ErrGeneratorUnavailable)

	router := setupQuizRouter(t, mq)

	body, _ := json.Marshal(map[string]interface{}{"topic": "Spanish Basics"})
	req, _ := http.NewRequest("POST", "/v1/quizzes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	mq.AssertExpectations(t)
}

func TestGetQuiz_InvalidIDReturns400(t *testing.T) {
	mq := &MockQuizService{}
	router := setupQuizRouter(t, mq)

	req, _ := http.NewRequest("GET", "/v1/quizzes/abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mq.AssertNotCalled(t, "GetQuiz")
}

func TestGetQuiz_NotFoundReturns404(t *testing.T) {
	mq := &MockQuizService{}
	mq.On("GetQuiz", mock.Anything, 7).Return(nil, contextutils.ErrQuizNotFound)

	router := setupQuizRouter(t, mq)

	req, _ := http.NewRequest("GET", "/v1/quizzes/7", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "QUIZ_NOT_FOUND")
	mq.AssertExpectations(t)
}

func TestCompleteQuiz_ReturnsResult(t *testing.T) {
	mq := &MockQuizService{}
	result := &models.CompletionResult{
		IsCourseCompleted: true,
		Score:             4,
		TotalQuestions:    5,
		CompletedQuizzes:  14,
		RequiredQuizzes:   14,
		Stats: &models.LearnerStats{
			ID:               1,
			QuizzesCompleted: 14,
			TotalStars:       63,
			CurrentLevel:     2,
			CurrentStreak:    3,
		},
	}
	mq.On("CompleteQuiz", mock.Anything, mock.MatchedBy(func(req *models.CompletionRequest) bool {
		return req.QuizID == 9 && req.CourseName == "Spanish Basics" && len(req.UserAnswers) == 5
	})).Return(result, nil)

	router := setupQuizRouter(t, mq)

	body, _ := json.Marshal(map[string]interface{}{
		"course_name": "Spanish Basics",
		"answers":     []int{0, 1, 2, 3, 0},
	})
	req, _ := http.NewRequest("POST", "/v1/quizzes/9/complete", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["is_course_completed"])
	assert.Equal(t, float64(4), resp["score"])
	assert.Equal(t, float64(14), resp["total_required_quizzes"])
	mq.AssertExpectations(t)
}

func TestCompleteQuiz_BodyQuizIDMismatchReturns400(t *testing.T) {
	mq := &MockQuizService{}
	router := setupQuizRouter(t, mq)

	body, _ := json.Marshal(map[string]interface{}{
		"quiz_id":     3,
		"course_name": "Spanish Basics",
		"answers":     []int{0},
	})
	req, _ := http.NewRequest("POST", "/v1/quizzes/9/complete", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mq.AssertNotCalled(t, "CompleteQuiz")
}

func TestCompleteQuiz_AlreadyCompletedReturns409(t *testing.T) {
	mq := &MockQuizService{}
	mq.On("CompleteQuiz", mock.Anything, mock.Anything).Return(nil, contextutils.ErrQuizAlreadyCompleted)

	router := setupQuizRouter(t, mq)

	body, _ := json.Marshal(map[string]interface{}{
		"course_name": "Spanish Basics",
		"answers":     []int{0, 1},
	})
	req, _ := http.NewRequest("POST", "/v1/quizzes/9/complete", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "QUIZ_ALREADY_COMPLETED")
	mq.AssertExpectations(t)
}
