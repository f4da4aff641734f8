package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clipcasthq/clipcast-backend/internal/db"
	apphttp "github.com/clipcasthq/clipcast-backend/internal/http"
	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/observability"
	"github.com/clipcasthq/clipcast-backend/internal/utils"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients

	server      *apphttp.Server
	otelCleanup func(context.Context) error
	cancel      context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	observability.Init(log)
	otelCleanup := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "clipcast",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	dbService, err := db.NewService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	theDB := dbService.DB()

	clients, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(theDB, log, cfg, reposet, clients)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(theDB, log, serviceset)
	router := wireRouter(log, handlerset)

	return &App{
		Log:         log,
		DB:          theDB,
		Router:      router,
		Cfg:         cfg,
		Repos:       reposet,
		Services:    serviceset,
		Clients:     clients,
		server:      &apphttp.Server{Engine: router},
		otelCleanup: otelCleanup,
	}, nil
}

// Start launches the background worker pool and, when metrics are
// enabled, the exposition server and collectors. Safe to skip for
// API-only processes.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Services.JobWorker != nil {
		a.Services.JobWorker.Start(ctx)
	}
	if m := observability.Current(); m != nil {
		m.StartServer(ctx, a.Log, utils.GetEnv("METRICS_ADDR", ":9100", a.Log))
		m.StartDBStatsCollector(ctx, a.Log, a.DB)
		m.StartQueueDepthCollector(ctx, a.Log, a.DB)
		if addr := utils.GetEnv("REDIS_ADDR", "", a.Log); addr != "" {
			m.StartRedisCollector(ctx, a.Log, addr)
		}
	}
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.server.Run(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelCleanup != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelCleanup(shutdownCtx)
		cancel()
	}
	a.Clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
