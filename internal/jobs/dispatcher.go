package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/clipcasthq/clipcast-backend/internal/jobs/runtime"
	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/observability"
	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
	"github.com/clipcasthq/clipcast-backend/internal/repos"
	"github.com/clipcasthq/clipcast-backend/internal/services"
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

// Outcome summarizes one dispatch round for the worker loop: whether a
// job was processed and how it ended.
type Outcome string

const (
	OutcomeEmpty     Outcome = "empty"
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeRetried   Outcome = "retried"
)

// Dispatcher claims one job at a time and drives it to a committed
// status. Handlers only compute; every transition (completed, failed,
// retry) is written here, so a crash mid-handler leaves the row in
// processing for external reconciliation rather than half-finalized.
type Dispatcher struct {
	log         *logger.Logger
	jobs        repos.JobRepo
	ledger      repos.LedgerRepo
	registry    *runtime.Registry
	notify      services.EventsNotifier
	maxAttempts int
}

func NewDispatcher(
	baseLog *logger.Logger,
	jobRepo repos.JobRepo,
	ledgerRepo repos.LedgerRepo,
	registry *runtime.Registry,
	notify services.EventsNotifier,
	maxAttempts int,
) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if notify == nil {
		notify = services.NewNopNotifier()
	}
	return &Dispatcher{
		log:         baseLog.With("component", "JobDispatcher"),
		jobs:        jobRepo,
		ledger:      ledgerRepo,
		registry:    registry,
		notify:      notify,
		maxAttempts: maxAttempts,
	}
}

// ProcessOne claims and executes at most one job. (OutcomeEmpty, nil)
// means nothing was claimable this round.
func (d *Dispatcher) ProcessOne(ctx context.Context) (Outcome, error) {
	job, err := d.jobs.TryClaimNext(ctx, nil)
	if err != nil {
		return OutcomeEmpty, err
	}
	if job == nil {
		return OutcomeEmpty, nil
	}

	handler, ok := d.registry.Get(job.JobType)
	if !ok {
		failErr := apperr.E(apperr.ErrUnsupportedJobType, "job_type %s", job.JobType)
		d.log.Warn("No handler registered for job type", "job_id", job.ID, "job_type", job.JobType)
		outcome, err := d.finishFailed(ctx, job, failErr.Error(), 0)
		d.observeJob(job, outcome, 0)
		return outcome, err
	}

	start := time.Now()
	result, runErr := d.runHandler(ctx, handler, job)
	elapsed := time.Since(start).Milliseconds()

	var outcome Outcome
	var finishErr error
	switch {
	case runErr == nil:
		outcome, finishErr = d.finishCompleted(ctx, job, result, elapsed)
	case errors.Is(runErr, apperr.ErrRetryable):
		outcome, finishErr = d.finishRetry(ctx, job, runErr, elapsed)
	default:
		outcome, finishErr = d.finishFailed(ctx, job, runErr.Error(), elapsed)
	}
	d.observeJob(job, outcome, elapsed)
	return outcome, finishErr
}

func (d *Dispatcher) observeJob(job *types.Job, outcome Outcome, elapsedMs int64) {
	if m := observability.Current(); m != nil {
		m.ObserveJob(job.JobType, string(outcome), time.Duration(elapsedMs)*time.Millisecond)
	}
}

// runHandler isolates handler execution so a panic becomes an ordinary
// failure instead of killing the worker loop.
func (d *Dispatcher) runHandler(ctx context.Context, h runtime.Handler, job *types.Job) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Job handler panic", "job_id", job.ID, "job_type", job.JobType, "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.Run(ctx, nil, job)
}

func (d *Dispatcher) finishCompleted(ctx context.Context, job *types.Job, result map[string]any, elapsed int64) (Outcome, error) {
	if err := d.jobs.MarkCompleted(ctx, nil, job.ID, result, elapsed); err != nil {
		d.log.Error("Failed to mark job completed", "job_id", job.ID, "error", err)
		return OutcomeCompleted, err
	}
	d.appendJobEvent(ctx, types.LedgerEventJobCompleted, job, map[string]any{"elapsed_ms": elapsed})
	d.notify.JobCompleted(job)
	d.log.Info("Job completed", "job_id", job.ID, "job_type", job.JobType, "elapsed_ms", elapsed)
	return OutcomeCompleted, nil
}

func (d *Dispatcher) finishFailed(ctx context.Context, job *types.Job, errMsg string, elapsed int64) (Outcome, error) {
	if err := d.jobs.MarkFailed(ctx, nil, job.ID, errMsg, elapsed); err != nil {
		d.log.Error("Failed to mark job failed", "job_id", job.ID, "error", err)
		return OutcomeFailed, err
	}
	d.appendJobEvent(ctx, types.LedgerEventJobFailed, job, map[string]any{"error": errMsg, "attempts": job.Attempts})
	d.notify.JobFailed(job, errMsg)
	d.log.Error("Job failed", "job_id", job.ID, "job_type", job.JobType, "error", errMsg, "elapsed_ms", elapsed)
	return OutcomeFailed, nil
}

// finishRetry re-queues a transiently failed job. MarkRetry flips the
// row to terminal failed once attempts are exhausted, so the row is
// reloaded to see which way it went.
func (d *Dispatcher) finishRetry(ctx context.Context, job *types.Job, runErr error, elapsed int64) (Outcome, error) {
	if err := d.jobs.MarkRetry(ctx, nil, job.ID, runErr.Error(), d.maxAttempts); err != nil {
		d.log.Error("Failed to mark job for retry", "job_id", job.ID, "error", err)
		return OutcomeFailed, err
	}
	requeued, err := d.jobs.GetByID(ctx, nil, job.ID)
	if err != nil {
		d.log.Error("Failed to reload job after retry mark", "job_id", job.ID, "error", err)
		return OutcomeRetried, err
	}
	if requeued.Status == types.JobStatusFailed {
		d.appendJobEvent(ctx, types.LedgerEventJobFailed, job, map[string]any{"error": requeued.Error, "attempts": requeued.Attempts})
		d.notify.JobFailed(job, requeued.Error)
		d.log.Error("Job failed, retries exhausted", "job_id", job.ID, "job_type", job.JobType, "attempts", requeued.Attempts, "error", runErr)
		return OutcomeFailed, nil
	}
	d.log.Warn("Job failed transiently, queued for retry",
		"job_id", job.ID,
		"job_type", job.JobType,
		"attempts", job.Attempts,
		"elapsed_ms", elapsed,
		"error", runErr)
	return OutcomeRetried, nil
}

// appendJobEvent records the terminal transition in the ledger,
// best-effort.
func (d *Dispatcher) appendJobEvent(ctx context.Context, eventType string, job *types.Job, extra map[string]any) {
	body := map[string]any{
		"job_id":   job.ID,
		"job_type": job.JobType,
	}
	for k, v := range extra {
		body[k] = v
	}
	payload, err := json.Marshal(body)
	if err != nil {
		d.log.Warn("Failed to encode job event payload", "job_id", job.ID, "error", err)
		return
	}
	jobID := job.ID
	if _, err := d.ledger.Append(ctx, nil, &types.LedgerEvent{
		EventType:  eventType,
		EntityType: "job",
		EntityID:   &jobID,
		Payload:    datatypes.JSON(payload),
	}); err != nil {
		d.log.Warn("Failed to append job event", "job_id", job.ID, "event_type", eventType, "error", err)
	}
}
