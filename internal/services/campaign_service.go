package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/repos"
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

type CampaignInput struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

type CampaignService interface {
	Create(ctx context.Context, tx *gorm.DB, input CampaignInput) (*types.Campaign, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Campaign, error)
}

type campaignService struct {
	db        *gorm.DB
	log       *logger.Logger
	campaigns repos.CampaignRepo
}

func NewCampaignService(db *gorm.DB, baseLog *logger.Logger, campaignRepo repos.CampaignRepo) CampaignService {
	return &campaignService{
		db:        db,
		log:       baseLog.With("service", "CampaignService"),
		campaigns: campaignRepo,
	}
}

func (s *campaignService) Create(ctx context.Context, tx *gorm.DB, input CampaignInput) (*types.Campaign, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("missing campaign name")
	}
	if input.Importance < 0 || input.Importance > 1 {
		return nil, fmt.Errorf("importance %v outside [0,1]", input.Importance)
	}
	campaign := &types.Campaign{
		Name:       strings.TrimSpace(input.Name),
		Importance: input.Importance,
	}
	out, err := s.campaigns.Create(ctx, tx, campaign)
	if err != nil {
		s.log.Warn("Create: insert campaign failed", "error", err)
		return nil, err
	}
	s.log.Info("Campaign created", "campaign_id", out.ID, "name", out.Name)
	return out, nil
}

func (s *campaignService) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Campaign, error) {
	return s.campaigns.GetByID(ctx, tx, id)
}
