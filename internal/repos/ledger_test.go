package repos

import (
	"context"
	"testing"
	"time"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

func TestLedgerRepoRecentByTypeAndPlatform(t *testing.T) {
	ctx := context.Background()
	repo := NewLedgerRepo(newTestDB(t), logger.NewNop())
	now := time.Now().UTC()

	appendAt := func(eventType, platform string, at time.Time) *types.LedgerEvent {
		ev, err := repo.Append(ctx, nil, &types.LedgerEvent{
			EventType: eventType,
			Platform:  platform,
			Payload:   datatypes.JSON([]byte(`{}`)),
			CreatedAt: at,
		})
		if err != nil {
			t.Fatalf("append %s/%s: %v", eventType, platform, err)
		}
		return ev
	}

	oldest := appendAt(types.LedgerEventClipScored, "tiktok", now.Add(-3*time.Hour))
	middle := appendAt(types.LedgerEventClipScored, "tiktok", now.Add(-2*time.Hour))
	newest := appendAt(types.LedgerEventClipScored, "tiktok", now.Add(-time.Hour))
	appendAt(types.LedgerEventClipScored, "instagram", now.Add(-time.Hour))
	appendAt(types.LedgerEventWeightsTrained, "tiktok", now.Add(-time.Hour))

	rows, err := repo.RecentByTypeAndPlatform(ctx, nil, types.LedgerEventClipScored, "tiktok", now.Add(-24*time.Hour), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("want 3 tiktok clip_scored events, got %d", len(rows))
	}
	if rows[0].ID != newest.ID || rows[2].ID != oldest.ID {
		t.Fatalf("want newest-first ordering, got %v", rows)
	}

	// since bound excludes older rows, limit caps the window.
	rows, err = repo.RecentByTypeAndPlatform(ctx, nil, types.LedgerEventClipScored, "tiktok", now.Add(-150*time.Minute), 10)
	if err != nil {
		t.Fatalf("recent since: %v", err)
	}
	if len(rows) != 2 || rows[1].ID != middle.ID {
		t.Fatalf("since bound: want [newest middle], got %v", rows)
	}
	rows, err = repo.RecentByTypeAndPlatform(ctx, nil, types.LedgerEventClipScored, "tiktok", now.Add(-24*time.Hour), 1)
	if err != nil {
		t.Fatalf("recent limit: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != newest.ID {
		t.Fatalf("limit: want just the newest, got %v", rows)
	}
}

func TestLedgerRepoListByEntity(t *testing.T) {
	ctx := context.Background()
	repo := NewLedgerRepo(newTestDB(t), logger.NewNop())
	now := time.Now().UTC()
	clipID := uuid.New()
	otherID := uuid.New()

	for i, eventType := range []string{types.LedgerEventClipScored, types.LedgerEventPublishScheduled} {
		id := clipID
		if _, err := repo.Append(ctx, nil, &types.LedgerEvent{
			EventType:  eventType,
			Platform:   "tiktok",
			EntityType: "clip",
			EntityID:   &id,
			Payload:    datatypes.JSON([]byte(`{}`)),
			CreatedAt:  now.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("append %s: %v", eventType, err)
		}
	}
	if _, err := repo.Append(ctx, nil, &types.LedgerEvent{
		EventType:  types.LedgerEventClipScored,
		EntityType: "clip",
		EntityID:   &otherID,
		Payload:    datatypes.JSON([]byte(`{}`)),
	}); err != nil {
		t.Fatalf("append other: %v", err)
	}

	rows, err := repo.ListByEntity(ctx, nil, "clip", clipID)
	if err != nil {
		t.Fatalf("list by entity: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 events for clip, got %d", len(rows))
	}
	if rows[0].EventType != types.LedgerEventClipScored || rows[1].EventType != types.LedgerEventPublishScheduled {
		t.Fatalf("want oldest-first ordering, got [%s %s]", rows[0].EventType, rows[1].EventType)
	}
}
