package repos

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/types"
	"github.com/google/uuid"
)

func TestJobRepoClaimOrdersByAge(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepo(newTestDB(t), logger.NewNop())
	now := time.Now().UTC()

	older, err := repo.Enqueue(ctx, nil, &types.Job{JobType: types.JobTypeClipScore, CreatedAt: now.Add(-2 * time.Hour)})
	if err != nil {
		t.Fatalf("enqueue older: %v", err)
	}
	newer, err := repo.Enqueue(ctx, nil, &types.Job{JobType: types.JobTypeClipScore, CreatedAt: now.Add(-time.Hour)})
	if err != nil {
		t.Fatalf("enqueue newer: %v", err)
	}

	first, err := repo.TryClaimNext(ctx, nil)
	if err != nil {
		t.Fatalf("claim #1: %v", err)
	}
	if first == nil || first.ID != older.ID {
		t.Fatalf("claim order: want oldest %s, got %v", older.ID, first)
	}
	if first.Status != types.JobStatusProcessing || first.Attempts != 1 || first.LockedAt == nil {
		t.Fatalf("claimed row: status=%s attempts=%d locked_at=%v", first.Status, first.Attempts, first.LockedAt)
	}

	second, err := repo.TryClaimNext(ctx, nil)
	if err != nil {
		t.Fatalf("claim #2: %v", err)
	}
	if second == nil || second.ID != newer.ID {
		t.Fatalf("claim order: want %s next, got %v", newer.ID, second)
	}

	third, err := repo.TryClaimNext(ctx, nil)
	if err != nil {
		t.Fatalf("claim #3: %v", err)
	}
	if third != nil {
		t.Fatalf("empty queue: want nil claim, got %v", third.ID)
	}
}

func TestJobRepoClaimEligibility(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepo(newTestDB(t), logger.NewNop())

	job, err := repo.Enqueue(ctx, nil, &types.Job{JobType: types.JobTypeWeightsTrain})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := repo.TryClaimNext(ctx, nil); err != nil {
		t.Fatalf("claim: %v", err)
	}

	// A processing row is invisible to further claims.
	if got, err := repo.TryClaimNext(ctx, nil); err != nil || got != nil {
		t.Fatalf("processing row must not be claimable: got=%v err=%v", got, err)
	}

	// retry re-enters the queue.
	if err := repo.MarkRetry(ctx, nil, job.ID, "net timeout", 5); err != nil {
		t.Fatalf("mark retry: %v", err)
	}
	reclaimed, err := repo.TryClaimNext(ctx, nil)
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if reclaimed == nil || reclaimed.ID != job.ID || reclaimed.Attempts != 2 {
		t.Fatalf("reclaim: want %s at attempt 2, got %v", job.ID, reclaimed)
	}

	// Terminal rows never come back.
	if err := repo.MarkFailed(ctx, nil, job.ID, "gave up", 10); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if got, err := repo.TryClaimNext(ctx, nil); err != nil || got != nil {
		t.Fatalf("failed row must not be claimable: got=%v err=%v", got, err)
	}
}

func TestJobRepoConcurrentClaimExactlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepo(newTestDB(t), logger.NewNop())
	job, err := repo.Enqueue(ctx, nil, &types.Job{JobType: types.JobTypeClipScore})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	var mu sync.Mutex
	var claimed []uuid.UUID
	var g errgroup.Group
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			got, err := repo.TryClaimNext(ctx, nil)
			if err != nil {
				return err
			}
			if got != nil {
				mu.Lock()
				claimed = append(claimed, got.ID)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("claimants: %v", err)
	}
	if len(claimed) != 1 || claimed[0] != job.ID {
		t.Fatalf("exactly one claimant must win: got %v", claimed)
	}

	reloaded, err := repo.GetByID(ctx, nil, job.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Attempts != 1 {
		t.Fatalf("attempts: want=1 got=%d", reloaded.Attempts)
	}
}

func TestJobRepoMarkRetryExhaustion(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepo(newTestDB(t), logger.NewNop())
	job, err := repo.Enqueue(ctx, nil, &types.Job{JobType: types.JobTypeClipPublish})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if _, err := repo.TryClaimNext(ctx, nil); err != nil {
		t.Fatalf("claim #1: %v", err)
	}
	if err := repo.MarkRetry(ctx, nil, job.ID, "net timeout", 2); err != nil {
		t.Fatalf("mark retry #1: %v", err)
	}
	got, err := repo.GetByID(ctx, nil, job.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != types.JobStatusRetry {
		t.Fatalf("below the cap: want=%s got=%s", types.JobStatusRetry, got.Status)
	}

	if _, err := repo.TryClaimNext(ctx, nil); err != nil {
		t.Fatalf("claim #2: %v", err)
	}
	if err := repo.MarkRetry(ctx, nil, job.ID, "net timeout", 2); err != nil {
		t.Fatalf("mark retry #2: %v", err)
	}
	got, err = repo.GetByID(ctx, nil, job.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != types.JobStatusFailed {
		t.Fatalf("at the cap: want=%s got=%s", types.JobStatusFailed, got.Status)
	}
	if !strings.Contains(got.Error, "retries exhausted after 2 attempts: net timeout") {
		t.Fatalf("exhaustion error: got %q", got.Error)
	}
}

func TestLockedCandidateQuerySQL(t *testing.T) {
	db := newTestDB(t)
	var rows []types.Job
	stmt := lockedCandidateQuery(db.Session(&gorm.Session{DryRun: true})).Find(&rows).Statement

	sql := stmt.SQL.String()
	if !strings.Contains(sql, "FOR UPDATE SKIP LOCKED") {
		t.Fatalf("claim query must skip locked rows, got: %s", sql)
	}
	if !strings.Contains(sql, "ORDER BY created_at") {
		t.Fatalf("claim query must order by age, got: %s", sql)
	}
}
