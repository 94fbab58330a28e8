// Package middleware provides HTTP middleware shared across the API surface.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"studyquiz/internal/observability"
	contextutils "studyquiz/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorRecoveryMiddleware recovers panics, logs them with stack traces, and
// turns them into structured 500 responses.
func ErrorRecoveryMiddleware(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := string(debug.Stack())
				if logger != nil {
					logger.Error(c.Request.Context(), "Panic recovered", fmt.Errorf("panic: %v", r), map[string]interface{}{
						"http.method": c.Request.Method,
						"http.path":   c.Request.URL.Path,
						"stack":       stackTrace,
					})
				}

				appErr := contextutils.NewAppError(
					contextutils.ErrorCodeInternalError,
					contextutils.SeverityFatal,
					"Internal server error",
					"A panic occurred while processing the request",
				)
				// Stack traces only leak in debug mode
				if gin.Mode() == gin.DebugMode {
					appErr.Details = fmt.Sprintf("%s\nStack trace: %s", appErr.Details, stackTrace)
				}

				errorJSON := appErr.ToJSON()
				errorJSON["retryable"] = false
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorJSON)
			}
		}()

		c.Next()
	}
}
