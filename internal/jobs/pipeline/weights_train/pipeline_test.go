package weights_train

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
	"github.com/clipcasthq/clipcast-backend/internal/repos"
	"github.com/clipcasthq/clipcast-backend/internal/scoring"
	"github.com/clipcasthq/clipcast-backend/internal/types"
	"github.com/google/uuid"
)

type testRig struct {
	pipeline *Pipeline
	engine   scoring.Engine
	clips    repos.ClipRepo
	weights  repos.WeightsRepo
	ledger   repos.LedgerRepo
}

func newTestRig(t *testing.T) *testRig {
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
	if err := db.AutoMigrate(&types.Clip{}, &types.PlatformWeights{}, &types.LedgerEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	nop := logger.NewNop()
	clips := repos.NewClipRepo(db, nop)
	weights := repos.NewWeightsRepo(db, nop)
	ledger := repos.NewLedgerRepo(db, nop)
	engine := scoring.NewEngine(nop, weights, ledger, clips, scoring.DefaultParams())
	return &testRig{
		pipeline: New(nop, engine),
		engine:   engine,
		clips:    clips,
		weights:  weights,
		ledger:   ledger,
	}
}

func trainJob(t *testing.T, payload map[string]any) *types.Job {
	t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &types.Job{ID: uuid.New(), JobType: types.JobTypeWeightsTrain, Payload: datatypes.JSON(b)}
}

func TestRunNoFeedbackKeepsDefaults(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	res, err := rig.pipeline.Run(ctx, nil, trainJob(t, map[string]any{"platform": "tiktok"}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	weights, ok := res["weights"].(map[string]float64)
	if !ok {
		t.Fatalf("result weights: want map[string]float64, got %T", res["weights"])
	}
	for name, want := range scoring.DefaultWeights() {
		if got := weights[name]; got != want {
			t.Fatalf("weight %s: want=%v got=%v", name, want, got)
		}
	}

	// Nothing persisted without examples.
	if _, err := rig.weights.Get(ctx, nil, "tiktok"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("weights row should not exist, got %v", err)
	}
}

func TestRunTrainsFromScoredFeedback(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	clip, err := rig.clips.Create(ctx, nil, &types.Clip{
		VideoID:      uuid.New(),
		Title:        "goal of the week",
		QualityScore: 0.9,
		DurationMs:   15000,
		Views:        5000,
		Likes:        300,
		Status:       types.ClipStatusReady,
	})
	if err != nil {
		t.Fatalf("seed clip: %v", err)
	}
	// Scoring leaves the feedback event training consumes.
	if _, err := rig.engine.Evaluate(ctx, nil, clip, "tiktok"); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	res, err := rig.pipeline.Run(ctx, nil, trainJob(t, map[string]any{"platform": "tiktok"}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res["platform"] != "tiktok" {
		t.Fatalf("result platform: want=tiktok got=%v", res["platform"])
	}

	row, err := rig.weights.Get(ctx, nil, "tiktok")
	if err != nil {
		t.Fatalf("trained weights not persisted: %v", err)
	}
	trained := row.WeightMap()
	if len(trained) != len(scoring.DefaultWeights()) {
		t.Fatalf("trained vector shape: want=%d features got=%d", len(scoring.DefaultWeights()), len(trained))
	}
	sum := 0.0
	for _, w := range trained {
		sum += w
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("trained weights not normalized: sum=%v (%v)", sum, trained)
	}

	events, err := rig.ledger.RecentByTypeAndPlatform(ctx, nil, types.LedgerEventWeightsTrained, "tiktok", time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("weights_trained events: want=1 got=%d", len(events))
	}
}

func TestRunMissingPlatform(t *testing.T) {
	rig := newTestRig(t)
	if _, err := rig.pipeline.Run(context.Background(), nil, trainJob(t, map[string]any{})); err == nil {
		t.Fatal("expected error for missing platform")
	}
}

func TestRunUnknownPlatform(t *testing.T) {
	rig := newTestRig(t)
	_, err := rig.pipeline.Run(context.Background(), nil, trainJob(t, map[string]any{"platform": "friendster"}))
	if err == nil {
		t.Fatal("expected error for unknown platform")
	}
	if errors.Is(err, apperr.ErrRetryable) {
		t.Fatalf("unknown platform must be terminal, got %v", err)
	}
}
