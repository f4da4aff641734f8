package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
	"github.com/clipcasthq/clipcast-backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var claimableStatuses = []string{
	string(types.JobStatusPending),
	string(types.JobStatusRetry),
}

var liveStatuses = []string{
	string(types.JobStatusPending),
	string(types.JobStatusProcessing),
	string(types.JobStatusRetry),
}

type JobRepo interface {
	Enqueue(ctx context.Context, tx *gorm.DB, job *types.Job) (*types.Job, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Job, error)
	ListByStatus(ctx context.Context, tx *gorm.DB, status types.JobStatus, limit int) ([]types.Job, error)
	TryClaimNext(ctx context.Context, tx *gorm.DB) (*types.Job, error)
	MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, result map[string]any, elapsedMs int64) error
	MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, errMsg string, elapsedMs int64) error
	MarkRetry(ctx context.Context, tx *gorm.DB, id uuid.UUID, errMsg string, maxAttempts int) error
}

// claimStrategy is the row-claim for one storage class. Postgres gets
// the locking path; stores without FOR UPDATE SKIP LOCKED get the
// conditional-write fallback.
type claimStrategy interface {
	claim(ctx context.Context, db *gorm.DB, now time.Time) (*types.Job, error)
}

type jobRepo struct {
	db       *gorm.DB
	log      *logger.Logger
	strategy claimStrategy
}

func NewJobRepo(db *gorm.DB, baseLog *logger.Logger) JobRepo {
	repoLog := baseLog.With("repo", "JobRepo")
	r := &jobRepo{db: db, log: repoLog}
	switch db.Dialector.Name() {
	case "postgres":
		r.strategy = &lockingClaim{}
	default:
		r.strategy = &fallbackClaim{log: repoLog}
	}
	return r
}

func (r *jobRepo) Enqueue(ctx context.Context, tx *gorm.DB, job *types.Job) (*types.Job, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = types.JobStatusPending
	}
	var out *types.Job
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if job.DedupKey != nil && *job.DedupKey != "" {
			var existing types.Job
			qErr := txx.
				Where("dedup_key = ? AND status IN ?", *job.DedupKey, liveStatuses).
				Order("created_at ASC").
				Limit(1).
				Find(&existing).Error
			if qErr != nil {
				return qErr
			}
			if existing.ID != uuid.Nil {
				r.log.Debug("Deduplicated enqueue onto live job", "dedup_key", *job.DedupKey, "job_id", existing.ID)
				out = &existing
				return nil
			}
		}
		if cErr := txx.Create(job).Error; cErr != nil {
			return cErr
		}
		out = job
		return nil
	})
	if err != nil {
		r.log.Error("Failed to enqueue job", "job_type", job.JobType, "error", err)
		return nil, err
	}
	return out, nil
}

func (r *jobRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Job, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var job types.Job
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.E(apperr.ErrNotFound, "job %s", id)
		}
		r.log.Error("Failed to get job", "job_id", id, "error", err)
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) ListByStatus(ctx context.Context, tx *gorm.DB, status types.JobStatus, limit int) ([]types.Job, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []types.Job
	q := transaction.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		r.log.Error("Failed to list jobs", "status", status, "error", err)
		return nil, err
	}
	return rows, nil
}

// TryClaimNext hands out at most one exclusive claim per job per
// attempt. A nil job with a nil error means nothing was claimable this
// round.
func (r *jobRepo) TryClaimNext(ctx context.Context, tx *gorm.DB) (*types.Job, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return r.strategy.claim(ctx, transaction, time.Now().UTC())
}

func (r *jobRepo) MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, result map[string]any, elapsedMs int64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var res datatypes.JSON
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return err
		}
		res = datatypes.JSON(b)
	}
	if err := transaction.WithContext(ctx).
		Model(&types.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(types.JobStatusCompleted),
			"result":     res,
			"error":      "",
			"elapsed_ms": elapsedMs,
			"locked_at":  nil,
			"updated_at": time.Now().UTC(),
		}).Error; err != nil {
		r.log.Error("Failed to mark job completed", "job_id", id, "error", err)
		return err
	}
	return nil
}

func (r *jobRepo) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, errMsg string, elapsedMs int64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).
		Model(&types.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(types.JobStatusFailed),
			"error":      errMsg,
			"elapsed_ms": elapsedMs,
			"locked_at":  nil,
			"updated_at": time.Now().UTC(),
		}).Error; err != nil {
		r.log.Error("Failed to mark job failed", "job_id", id, "error", err)
		return err
	}
	return nil
}

// MarkRetry re-queues the job for another attempt, or finalizes it as
// failed once attempts have reached maxAttempts.
func (r *jobRepo) MarkRetry(ctx context.Context, tx *gorm.DB, id uuid.UUID, errMsg string, maxAttempts int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var job types.Job
		if err := txx.Where("id = ?", id).First(&job).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.E(apperr.ErrNotFound, "job %s", id)
			}
			return err
		}
		updates := map[string]interface{}{
			"status":     string(types.JobStatusRetry),
			"error":      errMsg,
			"locked_at":  nil,
			"updated_at": time.Now().UTC(),
		}
		if maxAttempts > 0 && job.Attempts >= maxAttempts {
			updates["status"] = string(types.JobStatusFailed)
			updates["error"] = fmt.Sprintf("retries exhausted after %d attempts: %s", job.Attempts, errMsg)
		}
		return txx.Model(&types.Job{}).Where("id = ?", id).Updates(updates).Error
	})
}

// lockedCandidateQuery builds the SELECT used by the locking claim
// path: oldest claimable row, skipping rows locked by concurrent
// claimants, never blocking behind another claimant's lock.
func lockedCandidateQuery(db *gorm.DB) *gorm.DB {
	return db.
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status IN ?", claimableStatuses).
		Order("created_at ASC")
}

type lockingClaim struct{}

func (s *lockingClaim) claim(ctx context.Context, db *gorm.DB, now time.Time) (*types.Job, error) {
	var claimed *types.Job
	err := db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var job types.Job
		qErr := lockedCandidateQuery(txx).First(&job).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		uErr := txx.Model(&types.Job{}).
			Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":     string(types.JobStatusProcessing),
				"attempts":   gorm.Expr("attempts + 1"),
				"locked_at":  now,
				"updated_at": now,
			}).Error
		if uErr != nil {
			return uErr
		}
		job.Status = types.JobStatusProcessing
		job.Attempts++
		job.LockedAt = &now
		job.UpdatedAt = now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// fallbackClaim is the best-effort path for stores without
// FOR UPDATE SKIP LOCKED. Two pollers may select the same candidate;
// the conditional write lets exactly one win, and the loser treats the
// round as empty and polls again.
type fallbackClaim struct {
	log *logger.Logger
}

func (s *fallbackClaim) claim(ctx context.Context, db *gorm.DB, now time.Time) (*types.Job, error) {
	var job types.Job
	qErr := db.WithContext(ctx).
		Where("status IN ?", claimableStatuses).
		Order("created_at ASC").
		First(&job).Error
	if errors.Is(qErr, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if qErr != nil {
		return nil, qErr
	}
	res := db.WithContext(ctx).Model(&types.Job{}).
		Where("id = ? AND status IN ?", job.ID, claimableStatuses).
		Updates(map[string]interface{}{
			"status":     string(types.JobStatusProcessing),
			"attempts":   gorm.Expr("attempts + 1"),
			"locked_at":  now,
			"updated_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		s.log.Debug("Lost claim race, job not available this round", "job_id", job.ID, "error", apperr.ErrClaimConflict)
		return nil, nil
	}
	job.Status = types.JobStatusProcessing
	job.Attempts++
	job.LockedAt = &now
	job.UpdatedAt = now
	return &job, nil
}
