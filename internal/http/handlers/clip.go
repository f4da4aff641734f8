package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clipcasthq/clipcast-backend/internal/http/response"
	"github.com/clipcasthq/clipcast-backend/internal/services"
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

type ClipHandler struct {
	clips services.ClipService
	jobs  services.JobService
}

func NewClipHandler(clips services.ClipService, jobs services.JobService) *ClipHandler {
	return &ClipHandler{clips: clips, jobs: jobs}
}

// POST /api/clips
func (h *ClipHandler) CreateClip(c *gin.Context) {
	var input services.ClipInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	clip, err := h.clips.Create(c.Request.Context(), nil, input)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"clip": clip})
}

// GET /api/clips/:id
func (h *ClipHandler) GetClip(c *gin.Context) {
	clipID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_clip_id", err)
		return
	}
	clip, err := h.clips.GetByID(c.Request.Context(), nil, clipID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	history, err := h.clips.PublishHistory(c.Request.Context(), nil, clipID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"clip": clip, "publish_logs": history})
}

// GET /api/clips?status=ready&limit=50
func (h *ClipHandler) ListClips(c *gin.Context) {
	status := types.ClipStatus(c.DefaultQuery("status", string(types.ClipStatusReady)))
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", fmt.Errorf("limit %q", raw))
			return
		}
		limit = parsed
	}
	clips, err := h.clips.ListByStatus(c.Request.Context(), nil, status, limit)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"clips": clips})
}

type scoreClipRequest struct {
	Platforms []string `json:"platforms,omitempty"`
}

// POST /api/clips/:id/score
func (h *ClipHandler) ScoreClip(c *gin.Context) {
	clipID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_clip_id", err)
		return
	}
	var req scoreClipRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
	}
	for _, platform := range req.Platforms {
		if !types.KnownPlatform(platform) {
			response.RespondError(c, http.StatusBadRequest, "unknown_platform", fmt.Errorf("platform %q", platform))
			return
		}
	}
	if _, err := h.clips.GetByID(c.Request.Context(), nil, clipID); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	job, err := h.jobs.EnqueueClipScore(c.Request.Context(), nil, clipID, req.Platforms)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"job": job})
}

type scheduleClipRequest struct {
	Platform  string `json:"platform"`
	Origin    string `json:"origin,omitempty"`
	ForceSlot string `json:"force_slot,omitempty"`
}

// POST /api/clips/:id/schedule
func (h *ClipHandler) ScheduleClip(c *gin.Context) {
	clipID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_clip_id", err)
		return
	}
	var req scheduleClipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if !types.KnownPlatform(req.Platform) {
		response.RespondError(c, http.StatusBadRequest, "unknown_platform", fmt.Errorf("platform %q", req.Platform))
		return
	}
	switch req.Origin {
	case "", types.ScheduledByManual, types.ScheduledByRuleEngine, types.ScheduledByOrchestrator:
	default:
		response.RespondError(c, http.StatusBadRequest, "unknown_origin", fmt.Errorf("origin %q", req.Origin))
		return
	}
	var forceSlot *time.Time
	if req.ForceSlot != "" {
		slot, err := time.Parse(time.RFC3339, req.ForceSlot)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_force_slot", err)
			return
		}
		forceSlot = &slot
	}
	if _, err := h.clips.GetByID(c.Request.Context(), nil, clipID); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	job, err := h.jobs.EnqueueClipPublish(c.Request.Context(), nil, clipID, req.Platform, req.Origin, forceSlot)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"job": job})
}
