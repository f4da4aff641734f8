package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/types"
	"github.com/clipcasthq/clipcast-backend/internal/utils"
)

// Service owns the gorm handle. Postgres is the production store (its row
// locking backs the queue's claim path); sqlite exists for local runs and
// tests, where the queue falls back to best-effort claiming.
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewService(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DatabaseService")

	driver := utils.GetEnv("DB_DRIVER", "postgres", log)

	var (
		gdb *gorm.DB
		err error
	)
	switch driver {
	case "sqlite":
		gdb, err = openSQLite(log)
	case "postgres":
		gdb, err = openPostgres(log)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q (want postgres or sqlite)", driver)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(utils.GetEnvAsInt("DB_MAX_IDLE_CONNS", 5, log))
	sqlDB.SetMaxOpenConns(utils.GetEnvAsInt("DB_MAX_OPEN_CONNS", 25, log))
	sqlDB.SetConnMaxLifetime(utils.GetEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour, log))

	serviceLog.Info("Database connected", "driver", driver)
	return &Service{db: gdb, log: serviceLog}, nil
}

func openPostgres(log *logger.Logger) (*gorm.DB, error) {
	host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	port := utils.GetEnv("POSTGRES_PORT", "5432", log)
	user := utils.GetEnv("POSTGRES_USER", "postgres", log)
	password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	name := utils.GetEnv("POSTGRES_NAME", "clipcast", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return gdb, nil
}

func openSQLite(log *logger.Logger) (*gorm.DB, error) {
	path := utils.GetEnv("SQLITE_PATH", "./data/clipcast.db", log)
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}
	// WAL keeps readers from blocking behind the queue's claim writes.
	gdb.Exec("PRAGMA journal_mode=WAL")
	gdb.Exec("PRAGMA foreign_keys=ON")
	return gdb, nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&types.Clip{},
		&types.Campaign{},
		&types.PlatformWeights{},
		&types.Job{},
		&types.PublishLog{},
		&types.LedgerEvent{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *Service) DB() *gorm.DB {
	return s.db
}
