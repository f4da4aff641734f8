package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clipcasthq/clipcast-backend/internal/http/response"
	"github.com/clipcasthq/clipcast-backend/internal/services"
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

type JobHandler struct {
	jobs services.JobService
}

func NewJobHandler(jobs services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

type submitJobRequest struct {
	Type     string         `json:"type"`
	Payload  map[string]any `json:"payload,omitempty"`
	DedupKey string         `json:"dedup_key,omitempty"`
}

// POST /api/jobs
func (h *JobHandler) SubmitJob(c *gin.Context) {
	var req submitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	job, err := h.jobs.Enqueue(c.Request.Context(), nil, req.Type, req.Payload, req.DedupKey)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"job": job})
}

// GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.jobs.GetByID(c.Request.Context(), nil, jobID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// GET /api/jobs?status=failed&limit=50
func (h *JobHandler) ListJobs(c *gin.Context) {
	status := types.JobStatus(c.DefaultQuery("status", string(types.JobStatusPending)))
	switch status {
	case types.JobStatusPending, types.JobStatusProcessing, types.JobStatusCompleted,
		types.JobStatusFailed, types.JobStatusRetry:
	default:
		response.RespondError(c, http.StatusBadRequest, "unknown_status", fmt.Errorf("status %q", status))
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", fmt.Errorf("limit %q", raw))
			return
		}
		limit = parsed
	}
	jobs, err := h.jobs.ListByStatus(c.Request.Context(), nil, status, limit)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"jobs": jobs})
}
