package handlers

import (
	"net/http"
	"strconv"

	"studyquiz/internal/models"
	"studyquiz/internal/observability"
	"studyquiz/internal/services"
	contextutils "studyquiz/internal/utils"

	"github.com/gin-gonic/gin"
)

// QuizHandler serves quiz generation, lookup, and completion endpoints.
type QuizHandler struct {
	quizService services.QuizServiceInterface
	logger      *observability.Logger
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizService services.QuizServiceInterface, logger *observability.Logger) *QuizHandler {
	return &QuizHandler{quizService: quizService, logger: logger}
}

// GenerateQuiz handles POST /v1/quizzes
func (h *QuizHandler) GenerateQuiz(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "GenerateQuiz")
	var err error
	defer observability.FinishSpan(span, &err)

	var spec models.CourseSpec
	if bindErr := c.ShouldBindJSON(&spec); bindErr != nil {
		err = bindErr
		HandleValidationError(c, "request body", nil, bindErr.Error())
		return
	}

	quiz, err := h.quizService.GenerateQuiz(ctx, &spec)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// GetQuiz handles GET /v1/quizzes/:id
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "GetQuiz")
	var err error
	defer observability.FinishSpan(span, &err)

	id, convErr := strconv.Atoi(c.Param("id"))
	if convErr != nil {
		err = convErr
		HandleValidationError(c, "quiz id", c.Param("id"), "must be an integer")
		return
	}

	quiz, err := h.quizService.GetQuiz(ctx, id)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// CompleteQuiz handles POST /v1/quizzes/:id/complete
func (h *QuizHandler) CompleteQuiz(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "CompleteQuiz")
	var err error
	defer observability.FinishSpan(span, &err)

	id, convErr := strconv.Atoi(c.Param("id"))
	if convErr != nil {
		err = convErr
		HandleValidationError(c, "quiz id", c.Param("id"), "must be an integer")
		return
	}

	var req models.CompletionRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		err = bindErr
		HandleValidationError(c, "request body", nil, bindErr.Error())
		return
	}
	if req.QuizID != 0 && req.QuizID != id {
		err = contextutils.ErrInvalidInput
		HandleValidationError(c, "quiz_id", req.QuizID, "does not match URL")
		return
	}
	req.QuizID = id

	result, err := h.quizService.CompleteQuiz(ctx, &req)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
