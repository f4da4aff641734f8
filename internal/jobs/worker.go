package jobs

import (
	"context"
	"time"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/utils"
)

// Worker runs N independent poll loops over one dispatcher. Loops drain
// the queue back-to-back while jobs are available and fall back to the
// poll interval when a round comes up empty.
type Worker struct {
	log        *logger.Logger
	dispatcher *Dispatcher
}

func NewWorker(baseLog *logger.Logger, dispatcher *Dispatcher) *Worker {
	return &Worker{
		log:        baseLog.With("component", "JobWorker"),
		dispatcher: dispatcher,
	}
}

func (w *Worker) Start(ctx context.Context) {
	concurrency := utils.GetEnvAsInt("WORKER_CONCURRENCY", 4, w.log)
	if concurrency < 1 {
		concurrency = 1
	}
	pollMs := utils.GetEnvAsInt("WORKER_POLL_MS", 1000, w.log)
	if pollMs < 1 {
		pollMs = 1000
	}
	poll := time.Duration(pollMs) * time.Millisecond

	w.log.Info("Starting job worker pool", "concurrency", concurrency, "poll_interval", poll)
	for i := 0; i < concurrency; i++ {
		workerID := i + 1
		go w.runLoop(ctx, workerID, poll)
	}
}

func (w *Worker) runLoop(ctx context.Context, workerID int, poll time.Duration) {
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		default:
		}

		outcome, err := w.processOnce(ctx, workerID)
		if err != nil {
			w.log.Warn("Dispatch round failed", "worker_id", workerID, "error", err)
		}
		if outcome != OutcomeEmpty && err == nil {
			// Queue had work; claim again immediately.
			continue
		}

		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-time.After(poll):
		}
	}
}

// processOnce shields the loop from anything ProcessOne lets escape.
// Handler panics are already converted to failures by the dispatcher;
// this catches the rest (repo bugs, driver faults) so one bad round
// never kills the loop.
func (w *Worker) processOnce(ctx context.Context, workerID int) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Dispatch round panic", "worker_id", workerID, "panic", r)
			outcome = OutcomeEmpty
		}
	}()
	return w.dispatcher.ProcessOne(ctx)
}
