package repos

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clipcasthq/clipcast-backend/internal/types"
)

// newTestDB opens a throwaway in-memory database. cache=shared with a
// single pooled connection keeps concurrent repo calls on one handle so
// sqlite never reports a locked table mid-test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(
		&types.Clip{},
		&types.Campaign{},
		&types.Job{},
		&types.PublishLog{},
		&types.PlatformWeights{},
		&types.LedgerEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
