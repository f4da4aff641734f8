package scheduling

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
	"github.com/clipcasthq/clipcast-backend/internal/repos"
	"github.com/clipcasthq/clipcast-backend/internal/services"
	"github.com/clipcasthq/clipcast-backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

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

func newDBScheduler(t *testing.T, db *gorm.DB) *scheduler {
	t.Helper()
	nop := logger.NewNop()
	return &scheduler{
		db:          db,
		log:         nop,
		publishLogs: repos.NewPublishLogRepo(db, nop),
		campaigns:   repos.NewCampaignRepo(db, nop),
		ledger:      repos.NewLedgerRepo(db, nop),
		notify:      services.NewNopNotifier(),
		windows: WindowSet{
			"tiktok": {Platform: "tiktok", StartHour: 18, EndHour: 23, MinGap: 60 * time.Minute},
		},
	}
}

// readyClip builds a clip whose delay bonus is zero at now, so the test
// controls priority through quality and engagement alone.
func readyClip(quality float64, views, likes int64, now time.Time) *types.Clip {
	ready := now
	return &types.Clip{
		ID:           uuid.New(),
		VideoID:      uuid.New(),
		QualityScore: quality,
		Views:        views,
		Likes:        likes,
		Status:       types.ClipStatusReady,
		ReadyAt:      &ready,
	}
}

func seedEntry(t *testing.T, s *scheduler, platform string, at time.Time, priority float64) *types.PublishLog {
	t.Helper()
	slot := at
	end := s.windows[platform].endOn(at)
	entry, err := s.publishLogs.Create(context.Background(), nil, &types.PublishLog{
		ClipID:             uuid.New(),
		Platform:           platform,
		Status:             types.PublishStatusScheduled,
		ScheduledFor:       &slot,
		ScheduledWindowEnd: &end,
		ScheduledBy:        types.ScheduledByRuleEngine,
		Priority:           priority,
	})
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	return entry
}

func TestAutoScheduleEmptyDay(t *testing.T) {
	now := time.Date(2026, 9, 14, 17, 0, 0, 0, time.UTC)
	s := newDBScheduler(t, newTestDB(t))
	clip := readyClip(0.8, 0, 0, now)

	res, err := s.autoScheduleAt(context.Background(), nil, clip, "tiktok", ScheduleOptions{}, now)
	if err != nil {
		t.Fatalf("autoScheduleAt: %v", err)
	}
	wantSlot := time.Date(2026, 9, 14, 18, 0, 0, 0, time.UTC)
	if res.Entry.ScheduledFor == nil || !res.Entry.ScheduledFor.Equal(wantSlot) {
		t.Fatalf("slot: want=%v got=%v", wantSlot, res.Entry.ScheduledFor)
	}
	wantEnd := time.Date(2026, 9, 14, 23, 0, 0, 0, time.UTC)
	if res.Entry.ScheduledWindowEnd == nil || !res.Entry.ScheduledWindowEnd.Equal(wantEnd) {
		t.Fatalf("window end: want=%v got=%v", wantEnd, res.Entry.ScheduledWindowEnd)
	}
	if res.Entry.ScheduledBy != types.ScheduledByRuleEngine {
		t.Fatalf("scheduled_by: want=%s got=%s", types.ScheduledByRuleEngine, res.Entry.ScheduledBy)
	}
	if res.Entry.Status != types.PublishStatusScheduled {
		t.Fatalf("status: want=%s got=%s", types.PublishStatusScheduled, res.Entry.Status)
	}
	if res.Conflict.Detected {
		t.Fatalf("unexpected conflict on empty day: %+v", res.Conflict)
	}
	if res.Priority == nil || res.Priority.Total <= 0 {
		t.Fatalf("priority missing from result: %+v", res.Priority)
	}

	// The decision lands in the ledger too.
	events, err := s.ledger.RecentByTypeAndPlatform(context.Background(), nil, types.LedgerEventPublishScheduled, "tiktok", time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("list ledger events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("publish_scheduled events: want=1 got=%d", len(events))
	}
	if events[0].EntityID == nil || *events[0].EntityID != res.Entry.ID {
		t.Fatalf("event entity: want=%s got=%v", res.Entry.ID, events[0].EntityID)
	}
}

func TestAutoScheduleDisplacesLowerPriority(t *testing.T) {
	now := time.Date(2026, 9, 14, 17, 0, 0, 0, time.UTC)
	s := newDBScheduler(t, newTestDB(t))
	slot18 := time.Date(2026, 9, 14, 18, 0, 0, 0, time.UTC)
	standing := seedEntry(t, s, "tiktok", slot18, 0.2)

	// Quality 1.0 plus saturated engagement prices this clip at 0.7,
	// well above the standing 0.2.
	hot := readyClip(1.0, 10000, 500, now)
	res, err := s.autoScheduleAt(context.Background(), nil, hot, "tiktok", ScheduleOptions{}, now)
	if err != nil {
		t.Fatalf("autoScheduleAt: %v", err)
	}
	if res.Entry.ScheduledFor == nil || !res.Entry.ScheduledFor.Equal(slot18) {
		t.Fatalf("hot clip should take the contested slot: want=%v got=%v", slot18, res.Entry.ScheduledFor)
	}
	if !res.Conflict.Detected {
		t.Fatal("conflict not reported")
	}
	if res.Conflict.DisplacedID == nil || *res.Conflict.DisplacedID != standing.ID {
		t.Fatalf("displaced id: want=%s got=%v", standing.ID, res.Conflict.DisplacedID)
	}
	if res.Conflict.OriginalSlot == nil || !res.Conflict.OriginalSlot.Equal(slot18) {
		t.Fatalf("original slot: want=%v got=%v", slot18, res.Conflict.OriginalSlot)
	}
	slot19 := time.Date(2026, 9, 14, 19, 0, 0, 0, time.UTC)
	if res.Conflict.ShiftedSlot == nil || !res.Conflict.ShiftedSlot.Equal(slot19) {
		t.Fatalf("shifted slot: want=%v got=%v", slot19, res.Conflict.ShiftedSlot)
	}

	// The standing entry moved, same identity.
	moved, err := s.publishLogs.GetByID(context.Background(), nil, standing.ID)
	if err != nil {
		t.Fatalf("reload standing entry: %v", err)
	}
	if moved.ScheduledFor == nil || !moved.ScheduledFor.Equal(slot19) {
		t.Fatalf("standing entry slot: want=%v got=%v", slot19, moved.ScheduledFor)
	}
	if moved.Status != types.PublishStatusScheduled {
		t.Fatalf("standing entry status changed: %s", moved.Status)
	}
	// Higher priority published earlier, and the pair keeps the gap.
	if !res.Entry.ScheduledFor.Before(*moved.ScheduledFor) {
		t.Fatalf("priority order reversed: hot=%v standing=%v", res.Entry.ScheduledFor, moved.ScheduledFor)
	}
	if moved.ScheduledFor.Sub(*res.Entry.ScheduledFor) < time.Hour {
		t.Fatalf("min gap violated after displacement: %v", moved.ScheduledFor.Sub(*res.Entry.ScheduledFor))
	}
}

func TestAutoScheduleDefersWhenOutranked(t *testing.T) {
	now := time.Date(2026, 9, 14, 17, 0, 0, 0, time.UTC)
	s := newDBScheduler(t, newTestDB(t))
	slot18 := time.Date(2026, 9, 14, 18, 0, 0, 0, time.UTC)
	standing := seedEntry(t, s, "tiktok", slot18, 0.9)

	cold := readyClip(0.3, 0, 0, now)
	res, err := s.autoScheduleAt(context.Background(), nil, cold, "tiktok", ScheduleOptions{}, now)
	if err != nil {
		t.Fatalf("autoScheduleAt: %v", err)
	}
	slot19 := time.Date(2026, 9, 14, 19, 0, 0, 0, time.UTC)
	if res.Entry.ScheduledFor == nil || !res.Entry.ScheduledFor.Equal(slot19) {
		t.Fatalf("cold clip should defer past the standing entry: want=%v got=%v", slot19, res.Entry.ScheduledFor)
	}
	if !res.Conflict.Detected {
		t.Fatal("conflict not reported")
	}
	if res.Conflict.DisplacedID != nil {
		t.Fatalf("nothing should be displaced: %v", res.Conflict.DisplacedID)
	}

	kept, err := s.publishLogs.GetByID(context.Background(), nil, standing.ID)
	if err != nil {
		t.Fatalf("reload standing entry: %v", err)
	}
	if kept.ScheduledFor == nil || !kept.ScheduledFor.Equal(slot18) {
		t.Fatalf("standing entry should not move: want=%v got=%v", slot18, kept.ScheduledFor)
	}
}

func TestAutoScheduleEqualPriorityNeverDisplaces(t *testing.T) {
	now := time.Date(2026, 9, 14, 17, 0, 0, 0, time.UTC)
	s := newDBScheduler(t, newTestDB(t))

	var slots []time.Time
	for i := 0; i < 3; i++ {
		clip := readyClip(0.5, 0, 0, now)
		res, err := s.autoScheduleAt(context.Background(), nil, clip, "tiktok", ScheduleOptions{}, now)
		if err != nil {
			t.Fatalf("autoScheduleAt #%d: %v", i+1, err)
		}
		slots = append(slots, *res.Entry.ScheduledFor)
	}
	window := s.windows["tiktok"]
	for i, slot := range slots {
		if !window.contains(slot) {
			t.Fatalf("slot %d outside window: %v", i, slot)
		}
		for j := 0; j < i; j++ {
			gap := slot.Sub(slots[j])
			if gap < 0 {
				gap = -gap
			}
			if gap < window.MinGap {
				t.Fatalf("slots %d and %d closer than min gap: %v and %v", j, i, slots[j], slot)
			}
		}
	}
	// First-come keeps the earlier slot on ties.
	for i := 1; i < len(slots); i++ {
		if !slots[i-1].Before(slots[i]) {
			t.Fatalf("tie broke arrival order: %v then %v", slots[i-1], slots[i])
		}
	}
}

func TestAutoScheduleForceSlot(t *testing.T) {
	now := time.Date(2026, 9, 14, 17, 0, 0, 0, time.UTC)
	s := newDBScheduler(t, newTestDB(t))
	forced := time.Date(2026, 9, 14, 20, 0, 0, 0, time.UTC)

	res, err := s.autoScheduleAt(context.Background(), nil, readyClip(0.5, 0, 0, now), "tiktok", ScheduleOptions{
		Origin:    types.ScheduledByManual,
		ForceSlot: &forced,
	}, now)
	if err != nil {
		t.Fatalf("autoScheduleAt: %v", err)
	}
	if res.Entry.ScheduledFor == nil || !res.Entry.ScheduledFor.Equal(forced) {
		t.Fatalf("forced slot: want=%v got=%v", forced, res.Entry.ScheduledFor)
	}
	if res.Entry.ScheduledBy != types.ScheduledByManual {
		t.Fatalf("scheduled_by: want=%s got=%s", types.ScheduledByManual, res.Entry.ScheduledBy)
	}
}

func TestAutoScheduleForceSlotOutsideWindow(t *testing.T) {
	now := time.Date(2026, 9, 14, 17, 0, 0, 0, time.UTC)
	s := newDBScheduler(t, newTestDB(t))

	outside := time.Date(2026, 9, 15, 8, 0, 0, 0, time.UTC)
	_, err := s.autoScheduleAt(context.Background(), nil, readyClip(0.5, 0, 0, now), "tiktok", ScheduleOptions{ForceSlot: &outside}, now)
	if !errors.Is(err, apperr.ErrNoSlotAvailable) {
		t.Fatalf("out-of-window force: want ErrNoSlotAvailable, got %v", err)
	}

	past := time.Date(2026, 9, 13, 20, 0, 0, 0, time.UTC)
	_, err = s.autoScheduleAt(context.Background(), nil, readyClip(0.5, 0, 0, now), "tiktok", ScheduleOptions{ForceSlot: &past}, now)
	if !errors.Is(err, apperr.ErrNoSlotAvailable) {
		t.Fatalf("past force: want ErrNoSlotAvailable, got %v", err)
	}
}

func TestAutoScheduleUnknownPlatform(t *testing.T) {
	now := time.Date(2026, 9, 14, 17, 0, 0, 0, time.UTC)
	s := newDBScheduler(t, newTestDB(t))
	_, err := s.autoScheduleAt(context.Background(), nil, readyClip(0.5, 0, 0, now), "friendster", ScheduleOptions{}, now)
	if !errors.Is(err, apperr.ErrNoSchedulingWindow) {
		t.Fatalf("want ErrNoSchedulingWindow, got %v", err)
	}
}
