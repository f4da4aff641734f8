package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apphttp "github.com/clipcasthq/clipcast-backend/internal/http"
	httpH "github.com/clipcasthq/clipcast-backend/internal/http/handlers"
	"github.com/clipcasthq/clipcast-backend/internal/logger"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Clip     *httpH.ClipHandler
	Campaign *httpH.CampaignHandler
	Platform *httpH.PlatformHandler
	Job      *httpH.JobHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(db),
		Clip:     httpH.NewClipHandler(services.Clip, services.Job),
		Campaign: httpH.NewCampaignHandler(services.Campaign),
		Platform: httpH.NewPlatformHandler(services.Scheduler, services.Scoring, services.Job),
		Job:      httpH.NewJobHandler(services.Job),
	}
}

func wireRouter(log *logger.Logger, handlers Handlers) *gin.Engine {
	return apphttp.NewRouter(apphttp.RouterConfig{
		Log:             log,
		HealthHandler:   handlers.Health,
		ClipHandler:     handlers.Clip,
		CampaignHandler: handlers.Campaign,
		PlatformHandler: handlers.Platform,
		JobHandler:      handlers.Job,
	})
}
