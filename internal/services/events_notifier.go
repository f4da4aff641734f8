package services

import (
	"context"
	"time"

	redisclient "github.com/clipcasthq/clipcast-backend/internal/clients/redis"
	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

// Event type names on the wire (redis channel payload "type" field).
const (
	EventJobCompleted     = "job.completed"
	EventJobFailed        = "job.failed"
	EventPublishScheduled = "publish.scheduled"
)

// EventsNotifier announces lifecycle milestones to external consumers.
// Notifications are fire-and-forget: a delivery failure is logged and
// never fails the operation that triggered it.
type EventsNotifier interface {
	JobCompleted(job *types.Job)
	JobFailed(job *types.Job, errMsg string)
	PublishScheduled(entry *types.PublishLog)
}

type busNotifier struct {
	log *logger.Logger
	bus redisclient.EventsBus
}

func NewEventsNotifier(baseLog *logger.Logger, bus redisclient.EventsBus) EventsNotifier {
	return &busNotifier{
		log: baseLog.With("service", "EventsNotifier"),
		bus: bus,
	}
}

func (n *busNotifier) JobCompleted(job *types.Job) {
	if job == nil {
		return
	}
	n.publish(redisclient.Event{
		Type: EventJobCompleted,
		Data: map[string]any{
			"job_id":   job.ID,
			"job_type": job.JobType,
		},
	})
}

func (n *busNotifier) JobFailed(job *types.Job, errMsg string) {
	if job == nil {
		return
	}
	n.publish(redisclient.Event{
		Type: EventJobFailed,
		Data: map[string]any{
			"job_id":   job.ID,
			"job_type": job.JobType,
			"error":    errMsg,
		},
	})
}

func (n *busNotifier) PublishScheduled(entry *types.PublishLog) {
	if entry == nil {
		return
	}
	n.publish(redisclient.Event{
		Type: EventPublishScheduled,
		Data: map[string]any{
			"publish_log_id": entry.ID,
			"clip_id":        entry.ClipID,
			"platform":       entry.Platform,
			"scheduled_for":  entry.ScheduledFor,
			"priority":       entry.Priority,
		},
	})
}

func (n *busNotifier) publish(event redisclient.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := n.bus.Publish(ctx, event); err != nil {
		n.log.Warn("Failed to publish event", "event_type", event.Type, "error", err)
	}
}

// nopNotifier keeps call sites unconditional when no bus is configured.
type nopNotifier struct{}

func NewNopNotifier() EventsNotifier { return &nopNotifier{} }

func (n *nopNotifier) JobCompleted(job *types.Job)              {}
func (n *nopNotifier) JobFailed(job *types.Job, errMsg string)  {}
func (n *nopNotifier) PublishScheduled(entry *types.PublishLog) {}
