package handlers

import (
	"net/http"

	"studyquiz/internal/observability"
	"studyquiz/internal/services"

	"github.com/gin-gonic/gin"
)

// StatsHandler serves the learner gamification snapshot.
type StatsHandler struct {
	statsService services.StatsServiceInterface
	logger       *observability.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService services.StatsServiceInterface, logger *observability.Logger) *StatsHandler {
	return &StatsHandler{statsService: statsService, logger: logger}
}

// GetStats handles GET /v1/stats
func (h *StatsHandler) GetStats(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "GetStats")
	var err error
	defer observability.FinishSpan(span, &err)

	stats, err := h.statsService.GetLearnerStats(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":                  stats,
		"level_name":             stats.LevelName(),
		"next_level_requirement": stats.NextLevelRequirement(),
	})
}
