package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clipcasthq/clipcast-backend/internal/jobs/runtime"
	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
	"github.com/clipcasthq/clipcast-backend/internal/repos"
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

func newJobServiceDB(t *testing.T) *gorm.DB {
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
	if err := db.AutoMigrate(&types.Job{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type registeredHandler struct{ jobType string }

func (h *registeredHandler) Type() string { return h.jobType }

func (h *registeredHandler) Run(ctx context.Context, tx *gorm.DB, job *types.Job) (map[string]any, error) {
	return nil, nil
}

func newTestJobService(t *testing.T, db *gorm.DB, jobTypes ...string) (JobService, repos.JobRepo) {
	t.Helper()
	nop := logger.NewNop()
	reg := runtime.NewRegistry()
	for _, jt := range jobTypes {
		if err := reg.Register(&registeredHandler{jobType: jt}); err != nil {
			t.Fatalf("register %s: %v", jt, err)
		}
	}
	jobRepo := repos.NewJobRepo(db, nop)
	return NewJobService(nop, jobRepo, reg), jobRepo
}

func TestEnqueueRejectsUnknownJobType(t *testing.T) {
	svc, _ := newTestJobService(t, newJobServiceDB(t), types.JobTypeClipScore)

	if _, err := svc.Enqueue(context.Background(), nil, "mystery_job", nil, ""); !errors.Is(err, apperr.ErrUnsupportedJobType) {
		t.Fatalf("unknown type: want ErrUnsupportedJobType, got %v", err)
	}
	if _, err := svc.Enqueue(context.Background(), nil, "", nil, ""); !errors.Is(err, apperr.ErrUnsupportedJobType) {
		t.Fatalf("empty type: want ErrUnsupportedJobType, got %v", err)
	}
}

func TestEnqueueDeduplicatesLiveJobs(t *testing.T) {
	ctx := context.Background()
	svc, jobRepo := newTestJobService(t, newJobServiceDB(t), types.JobTypeClipScore)
	clipID := uuid.New()

	first, err := svc.EnqueueClipScore(ctx, nil, clipID, nil)
	if err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	second, err := svc.EnqueueClipScore(ctx, nil, clipID, nil)
	if err != nil {
		t.Fatalf("second enqueue: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("live dedup: want same job, got %s and %s", first.ID, second.ID)
	}

	// A terminal row releases the dedup key.
	if err := jobRepo.MarkCompleted(ctx, nil, first.ID, nil, 5); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	third, err := svc.EnqueueClipScore(ctx, nil, clipID, nil)
	if err != nil {
		t.Fatalf("third enqueue: %v", err)
	}
	if third.ID == first.ID {
		t.Fatalf("completed job must not absorb new enqueues")
	}
}

func TestEnqueueClipPublishPayload(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestJobService(t, newJobServiceDB(t), types.JobTypeClipPublish)
	clipID := uuid.New()
	slot := time.Date(2026, 9, 14, 20, 0, 0, 0, time.UTC)

	job, err := svc.EnqueueClipPublish(ctx, nil, clipID, "tiktok", types.ScheduledByManual, &slot)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	payload := runtime.DecodePayload(job)
	if got, ok := runtime.PayloadUUID(payload, "clip_id"); !ok || got != clipID {
		t.Fatalf("clip_id: want=%s got=%s ok=%v", clipID, got, ok)
	}
	if got, _ := runtime.PayloadString(payload, "platform"); got != "tiktok" {
		t.Fatalf("platform: want=tiktok got=%q", got)
	}
	if got, _ := runtime.PayloadString(payload, "origin"); got != types.ScheduledByManual {
		t.Fatalf("origin: want=%s got=%q", types.ScheduledByManual, got)
	}
	if got, ok := runtime.PayloadTime(payload, "force_slot"); !ok || !got.Equal(slot) {
		t.Fatalf("force_slot: want=%v got=%v ok=%v", slot, got, ok)
	}
}
