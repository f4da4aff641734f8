package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/clipcasthq/clipcast-backend/internal/http/handlers"
	httpMW "github.com/clipcasthq/clipcast-backend/internal/http/middleware"
	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/observability"
)

type RouterConfig struct {
	Log *logger.Logger

	HealthHandler   *httpH.HealthHandler
	ClipHandler     *httpH.ClipHandler
	CampaignHandler *httpH.CampaignHandler
	PlatformHandler *httpH.PlatformHandler
	JobHandler      *httpH.JobHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("clipcast"))
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(observability.Current()))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Clips
		if cfg.ClipHandler != nil {
			api.POST("/clips", cfg.ClipHandler.CreateClip)
			api.GET("/clips", cfg.ClipHandler.ListClips)
			api.GET("/clips/:id", cfg.ClipHandler.GetClip)
			api.POST("/clips/:id/score", cfg.ClipHandler.ScoreClip)
			api.POST("/clips/:id/schedule", cfg.ClipHandler.ScheduleClip)
		}

		// Campaigns
		if cfg.CampaignHandler != nil {
			api.POST("/campaigns", cfg.CampaignHandler.CreateCampaign)
			api.GET("/campaigns/:id", cfg.CampaignHandler.GetCampaign)
		}

		// Platforms (forecast / weights / training)
		if cfg.PlatformHandler != nil {
			api.GET("/platforms/:platform/forecast", cfg.PlatformHandler.GetForecast)
			api.GET("/platforms/:platform/weights", cfg.PlatformHandler.GetWeights)
			api.POST("/platforms/:platform/train", cfg.PlatformHandler.TrainWeights)
		}

		// Jobs
		if cfg.JobHandler != nil {
			api.POST("/jobs", cfg.JobHandler.SubmitJob)
			api.GET("/jobs", cfg.JobHandler.ListJobs)
			api.GET("/jobs/:id", cfg.JobHandler.GetJob)
		}
	}

	return r
}
