package app

import (
	"gorm.io/gorm"

	"github.com/clipcasthq/clipcast-backend/internal/jobs"
	"github.com/clipcasthq/clipcast-backend/internal/jobs/pipeline/clip_publish"
	"github.com/clipcasthq/clipcast-backend/internal/jobs/pipeline/clip_score"
	"github.com/clipcasthq/clipcast-backend/internal/jobs/pipeline/weights_train"
	jobruntime "github.com/clipcasthq/clipcast-backend/internal/jobs/runtime"
	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/scheduling"
	"github.com/clipcasthq/clipcast-backend/internal/scoring"
	"github.com/clipcasthq/clipcast-backend/internal/services"
)

type Services struct {
	// Domain
	Clip     services.ClipService
	Campaign services.CampaignService
	Job      services.JobService
	Notifier services.EventsNotifier

	// Engines
	Scoring   scoring.Engine
	Scheduler scheduling.Scheduler

	// Job infra
	JobRegistry *jobruntime.Registry
	Dispatcher  *jobs.Dispatcher
	JobWorker   *jobs.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	var notifier services.EventsNotifier
	if clients.EventsBus != nil {
		notifier = services.NewEventsNotifier(log, clients.EventsBus)
	} else {
		notifier = services.NewNopNotifier()
	}

	engine := scoring.NewEngine(log, reposet.Weights, reposet.Ledger, reposet.Clip, cfg.Scoring)
	scheduler := scheduling.NewScheduler(db, log, reposet.PublishLog, reposet.Campaign, reposet.Ledger, notifier, nil)

	// Job registry
	jobRegistry := jobruntime.NewRegistry()

	clipScore := clip_score.New(log, reposet.Clip, engine)
	if err := jobRegistry.Register(clipScore); err != nil {
		return Services{}, err
	}

	clipPublish := clip_publish.New(log, reposet.Clip, scheduler)
	if err := jobRegistry.Register(clipPublish); err != nil {
		return Services{}, err
	}

	weightsTrain := weights_train.New(log, engine)
	if err := jobRegistry.Register(weightsTrain); err != nil {
		return Services{}, err
	}

	jobService := services.NewJobService(log, reposet.Job, jobRegistry)
	clipService := services.NewClipService(db, log, reposet.Clip, reposet.Campaign, reposet.PublishLog)
	campaignService := services.NewCampaignService(db, log, reposet.Campaign)

	dispatcher := jobs.NewDispatcher(log, reposet.Job, reposet.Ledger, jobRegistry, notifier, cfg.MaxJobAttempts)
	worker := jobs.NewWorker(log, dispatcher)

	return Services{
		Clip:        clipService,
		Campaign:    campaignService,
		Job:         jobService,
		Notifier:    notifier,
		Scoring:     engine,
		Scheduler:   scheduler,
		JobRegistry: jobRegistry,
		Dispatcher:  dispatcher,
		JobWorker:   worker,
	}, nil
}
