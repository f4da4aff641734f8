package app

import (
	"github.com/joho/godotenv"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/scoring"
	"github.com/clipcasthq/clipcast-backend/internal/utils"
)

type Config struct {
	Port           string
	Environment    string
	Version        string
	MaxJobAttempts int
	Scoring        scoring.Params
}

func LoadConfig(log *logger.Logger) Config {
	// Local runs keep settings in .env; deployed environments inject
	// real env vars and the file is simply absent.
	_ = godotenv.Load()

	defaults := scoring.DefaultParams()
	return Config{
		Port:           utils.GetEnv("PORT", "8080", log),
		Environment:    utils.GetEnv("APP_ENV", "development", log),
		Version:        utils.GetEnv("APP_VERSION", "dev", log),
		MaxJobAttempts: utils.GetEnvAsInt("JOB_MAX_ATTEMPTS", 3, log),
		Scoring: scoring.Params{
			LearningRate:  utils.GetEnvAsFloat("SCORING_LEARNING_RATE", defaults.LearningRate, log),
			LookbackDays:  utils.GetEnvAsInt("SCORING_LOOKBACK_DAYS", defaults.LookbackDays, log),
			MaxExamples:   utils.GetEnvAsInt("SCORING_MAX_EXAMPLES", defaults.MaxExamples, log),
			DurationCapMs: utils.GetEnvAsInt("SCORING_DURATION_CAP_MS", defaults.DurationCapMs, log),
		},
	}
}
