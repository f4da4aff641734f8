package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clipcasthq/clipcast-backend/internal/http/response"
	"github.com/clipcasthq/clipcast-backend/internal/services"
)

type CampaignHandler struct {
	campaigns services.CampaignService
}

func NewCampaignHandler(campaigns services.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

// POST /api/campaigns
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var input services.CampaignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	campaign, err := h.campaigns.Create(c.Request.Context(), nil, input)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"campaign": campaign})
}

// GET /api/campaigns/:id
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_campaign_id", err)
		return
	}
	campaign, err := h.campaigns.GetByID(c.Request.Context(), nil, campaignID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"campaign": campaign})
}
