package handlers

import (
	"net/http"

	"studyquiz/internal/models"
	"studyquiz/internal/observability"
	"studyquiz/internal/services"

	"github.com/gin-gonic/gin"
)

// CourseHandler serves course management and listing endpoints.
type CourseHandler struct {
	courseService services.CourseServiceInterface
	logger        *observability.Logger
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courseService services.CourseServiceInterface, logger *observability.Logger) *CourseHandler {
	return &CourseHandler{courseService: courseService, logger: logger}
}

// CreateCourse handles POST /v1/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "CreateCourse")
	var err error
	defer observability.FinishSpan(span, &err)

	var spec models.CourseSpec
	if bindErr := c.ShouldBindJSON(&spec); bindErr != nil {
		err = bindErr
		HandleValidationError(c, "request body", nil, bindErr.Error())
		return
	}

	course, err := h.courseService.CreateCourse(ctx, &spec)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

// ListCourses handles GET /v1/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "ListCourses")
	var err error
	defer observability.FinishSpan(span, &err)

	courses, err := h.courseService.ListCourses(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	if courses == nil {
		courses = []models.CourseProgress{}
	}

	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// ListCompletedCourses handles GET /v1/courses/completed
func (h *CourseHandler) ListCompletedCourses(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "ListCompletedCourses")
	var err error
	defer observability.FinishSpan(span, &err)

	summaries, err := h.courseService.ListCompletedCourses(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	if summaries == nil {
		summaries = []models.CompletedCourseSummary{}
	}

	c.JSON(http.StatusOK, gin.H{"completed_courses": summaries})
}

// DeleteCourse handles DELETE /v1/courses/:name
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "DeleteCourse")
	var err error
	defer observability.FinishSpan(span, &err)

	name := c.Param("name")
	if name == "" {
		HandleValidationError(c, "course name", name, "must not be empty")
		return
	}

	if err = h.courseService.DeleteCourse(ctx, name); err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "course": name})
}
