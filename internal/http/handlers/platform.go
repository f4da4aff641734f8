package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clipcasthq/clipcast-backend/internal/http/response"
	"github.com/clipcasthq/clipcast-backend/internal/scheduling"
	"github.com/clipcasthq/clipcast-backend/internal/scoring"
	"github.com/clipcasthq/clipcast-backend/internal/services"
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

type PlatformHandler struct {
	scheduler scheduling.Scheduler
	engine    scoring.Engine
	jobs      services.JobService
}

func NewPlatformHandler(scheduler scheduling.Scheduler, engine scoring.Engine, jobs services.JobService) *PlatformHandler {
	return &PlatformHandler{scheduler: scheduler, engine: engine, jobs: jobs}
}

func platformParam(c *gin.Context) (string, bool) {
	platform := c.Param("platform")
	if !types.KnownPlatform(platform) {
		response.RespondError(c, http.StatusBadRequest, "unknown_platform", fmt.Errorf("platform %q", platform))
		return "", false
	}
	return platform, true
}

// GET /api/platforms/:platform/forecast
func (h *PlatformHandler) GetForecast(c *gin.Context) {
	platform, ok := platformParam(c)
	if !ok {
		return
	}
	forecast, err := h.scheduler.Forecast(c.Request.Context(), nil, platform)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"forecast": forecast})
}

// GET /api/platforms/:platform/weights
func (h *PlatformHandler) GetWeights(c *gin.Context) {
	platform, ok := platformParam(c)
	if !ok {
		return
	}
	row, err := h.engine.Weights(c.Request.Context(), nil, platform)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	var trainedAt any
	if !row.UpdatedAt.IsZero() {
		trainedAt = row.UpdatedAt
	}
	response.RespondOK(c, gin.H{
		"platform":   platform,
		"weights":    row.WeightMap(),
		"trained_at": trainedAt,
	})
}

// POST /api/platforms/:platform/train
func (h *PlatformHandler) TrainWeights(c *gin.Context) {
	platform, ok := platformParam(c)
	if !ok {
		return
	}
	job, err := h.jobs.EnqueueWeightsTrain(c.Request.Context(), nil, platform)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"job": job})
}
