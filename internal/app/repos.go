package app

import (
	"gorm.io/gorm"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/repos"
)

type Repos struct {
	Clip       repos.ClipRepo
	Campaign   repos.CampaignRepo
	Job        repos.JobRepo
	PublishLog repos.PublishLogRepo
	Weights    repos.WeightsRepo
	Ledger     repos.LedgerRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Clip:       repos.NewClipRepo(db, log),
		Campaign:   repos.NewCampaignRepo(db, log),
		Job:        repos.NewJobRepo(db, log),
		PublishLog: repos.NewPublishLogRepo(db, log),
		Weights:    repos.NewWeightsRepo(db, log),
		Ledger:     repos.NewLedgerRepo(db, log),
	}
}
