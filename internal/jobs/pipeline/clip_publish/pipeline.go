package clip_publish

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	jobrt "github.com/clipcasthq/clipcast-backend/internal/jobs/runtime"
	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
	"github.com/clipcasthq/clipcast-backend/internal/scheduling"
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

// Run places one clip into a platform's publish calendar. Scheduling
// verdicts (no window, no slot, missing clip) are terminal; anything
// else is assumed transient and requeued.
func (p *Pipeline) Run(ctx context.Context, tx *gorm.DB, job *types.Job) (map[string]any, error) {
	payload := jobrt.DecodePayload(job)
	clipID, ok := jobrt.PayloadUUID(payload, "clip_id")
	if !ok {
		return nil, fmt.Errorf("clip_publish payload missing clip_id")
	}
	platform, ok := jobrt.PayloadString(payload, "platform")
	if !ok {
		return nil, fmt.Errorf("clip_publish payload missing platform")
	}

	opts := scheduling.ScheduleOptions{}
	if origin, ok := jobrt.PayloadString(payload, "origin"); ok {
		opts.Origin = origin
	}
	if forced, ok := jobrt.PayloadTime(payload, "force_slot"); ok {
		opts.ForceSlot = &forced
	}

	clip, err := p.clips.GetByID(ctx, tx, clipID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, apperr.E(apperr.ErrRetryable, "load clip %s: %v", clipID, err)
	}

	res, err := p.scheduler.AutoSchedule(ctx, tx, clip, platform, opts)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrNoSchedulingWindow),
		errors.Is(err, apperr.ErrNoSlotAvailable),
		errors.Is(err, apperr.ErrNotFound):
		return nil, err
	default:
		return nil, apperr.E(apperr.ErrRetryable, "schedule clip %s on %s: %v", clipID, platform, err)
	}

	p.log.Info("Scheduled clip",
		"clip_id", clipID,
		"platform", platform,
		"publish_log_id", res.Entry.ID,
		"scheduled_for", res.Entry.ScheduledFor,
		"conflict", res.Conflict.Detected)
	return map[string]any{
		"publish_log_id": res.Entry.ID,
		"platform":       platform,
		"scheduled_for":  res.Entry.ScheduledFor,
		"priority":       res.Priority.Total,
		"conflict":       res.Conflict,
	}, nil
}
