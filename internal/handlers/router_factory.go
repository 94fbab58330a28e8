package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"

	"studyquiz/internal/config"
	"studyquiz/internal/middleware"
	"studyquiz/internal/observability"
	"studyquiz/internal/services"
	"studyquiz/internal/version"
)

// NewRouter creates the Gin engine with all middleware and routes wired up
func NewRouter(
	cfg *config.Config,
	quizService services.QuizServiceInterface,
	courseService services.CourseServiceInterface,
	statsService services.StatsServiceInterface,
	logger *observability.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(middleware.ErrorRecoveryMiddleware(logger))

	// HTTP request logging through the observability logger
	router.Use(func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  latency.Milliseconds(),
			"http.client_ip":   c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		switch {
		case statusCode >= 500:
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		case statusCode >= 400:
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		default:
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	})

	// Health check endpoint (before the tracing middleware to keep probes out of traces)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Version})
	})

	router.Use(observability.GinMiddlewareWithErrorHandling("studyquiz-backend"))

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	router.Use(secure.New(secureConfig))

	quizHandler := NewQuizHandler(quizService, logger)
	courseHandler := NewCourseHandler(courseService, logger)
	statsHandler := NewStatsHandler(statsService, logger)

	v1 := router.Group("/v1")
	{
		v1.POST("/quizzes", quizHandler.GenerateQuiz)
		v1.GET("/quizzes/:id", quizHandler.GetQuiz)
		v1.POST("/quizzes/:id/complete", quizHandler.CompleteQuiz)

		v1.GET("/courses", courseHandler.ListCourses)
		v1.POST("/courses", courseHandler.CreateCourse)
		v1.GET("/courses/completed", courseHandler.ListCompletedCourses)
		v1.DELETE("/courses/:name", courseHandler.DeleteCourse)

		v1.GET("/stats", statsHandler.GetStats)
	}

	return router
}
