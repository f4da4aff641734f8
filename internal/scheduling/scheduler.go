package scheduling

import (
	"context"
	"encoding/json"
	"time"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/observability"
	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
	"github.com/clipcasthq/clipcast-backend/internal/repos"
	"github.com/clipcasthq/clipcast-backend/internal/services"
	"github.com/clipcasthq/clipcast-backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Scheduler decides when a clip publishes to a platform: it prices the
// clip's urgency, forecasts per-platform availability, and assigns
// slots under capacity and spacing constraints, displacing a standing
// lower-priority assignment when a hotter clip needs its place.
type Scheduler interface {
	CalculatePriority(ctx context.Context, tx *gorm.DB, clip *types.Clip) (*Priority, error)
	Forecast(ctx context.Context, tx *gorm.DB, platform string) (*Forecast, error)
	AutoSchedule(ctx context.Context, tx *gorm.DB, clip *types.Clip, platform string, opts ScheduleOptions) (*ScheduleResult, error)
}

type ScheduleOptions struct {
	// Origin is recorded as scheduled_by; empty defaults to rule_engine.
	Origin string
	// ForceSlot pins the candidate slot instead of deriving it from the
	// window. Must lie inside the platform window and not in the past.
	ForceSlot *time.Time
}

// ConflictInfo reports how a contested slot was resolved. A displaced
// entry keeps its identity; only its scheduled time moves.
type ConflictInfo struct {
	Detected     bool       `json:"detected"`
	DisplacedID  *uuid.UUID `json:"displaced_id,omitempty"`
	OriginalSlot *time.Time `json:"original_slot,omitempty"`
	ShiftedSlot  *time.Time `json:"shifted_slot,omitempty"`
}

type ScheduleResult struct {
	Entry    *types.PublishLog `json:"entry"`
	Priority *Priority         `json:"priority"`
	Conflict ConflictInfo      `json:"conflict"`
}

type scheduler struct {
	db          *gorm.DB
	log         *logger.Logger
	publishLogs repos.PublishLogRepo
	campaigns   repos.CampaignRepo
	ledger      repos.LedgerRepo
	notify      services.EventsNotifier
	windows     WindowSet
}

// NewScheduler wires the scheduling service. A nil windows set loads
// the configured platform windows.
func NewScheduler(
	db *gorm.DB,
	baseLog *logger.Logger,
	publishLogRepo repos.PublishLogRepo,
	campaignRepo repos.CampaignRepo,
	ledgerRepo repos.LedgerRepo,
	notify services.EventsNotifier,
	windows WindowSet,
) Scheduler {
	schedLog := baseLog.With("service", "Scheduler")
	if notify == nil {
		notify = services.NewNopNotifier()
	}
	if windows == nil {
		windows = LoadWindowSet(schedLog)
	}
	return &scheduler{
		db:          db,
		log:         schedLog,
		publishLogs: publishLogRepo,
		campaigns:   campaignRepo,
		ledger:      ledgerRepo,
		notify:      notify,
		windows:     windows,
	}
}

func (s *scheduler) AutoSchedule(ctx context.Context, tx *gorm.DB, clip *types.Clip, platform string, opts ScheduleOptions) (*ScheduleResult, error) {
	return s.autoScheduleAt(ctx, tx, clip, platform, opts, time.Now().UTC())
}

func (s *scheduler) autoScheduleAt(ctx context.Context, tx *gorm.DB, clip *types.Clip, platform string, opts ScheduleOptions, now time.Time) (*ScheduleResult, error) {
	if clip == nil {
		return nil, apperr.E(apperr.ErrNotFound, "clip")
	}
	window, ok := s.windows[platform]
	if !ok {
		return nil, apperr.E(apperr.ErrNoSchedulingWindow, "platform %s", platform)
	}
	priority, err := s.priorityAt(ctx, tx, clip, now)
	if err != nil {
		return nil, err
	}

	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	var result *ScheduleResult
	err = transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		entries, lErr := s.activeEntries(ctx, txx, platform, window, now)
		if lErr != nil {
			return lErr
		}

		candidate, cErr := s.candidateSlot(window, platform, opts, now)
		if cErr != nil {
			return cErr
		}

		slot := candidate
		conflict := ConflictInfo{}
		hits := conflictsAt(entries, candidate, window.MinGap)
		switch {
		case len(hits) == 0:
			// Clear slot, take it.

		case len(hits) == 1 && priority.Total > hits[0].Priority:
			// The new clip outranks the standing entry: it takes the
			// contested slot and the standing entry shifts to the next
			// open slot after it. One cascade only, same transaction.
			displaced := hits[0]
			shifted, shiftedEnd, nErr := s.shiftedSlot(window, entries, displaced, candidate, priority.Total, now)
			if nErr != nil {
				return nErr
			}
			if uErr := s.publishLogs.UpdateFields(ctx, txx, displaced.ID, map[string]any{
				"scheduled_for":        shifted,
				"scheduled_window_end": shiftedEnd,
			}); uErr != nil {
				return uErr
			}
			displacedID := displaced.ID
			original := *displaced.ScheduledFor
			conflict = ConflictInfo{
				Detected:     true,
				DisplacedID:  &displacedID,
				OriginalSlot: &original,
				ShiftedSlot:  &shifted,
			}
			s.log.Info("Displaced lower-priority entry",
				"platform", platform,
				"displaced_id", displacedID,
				"original_slot", original,
				"shifted_slot", shifted,
				"new_priority", priority.Total,
				"old_priority", displaced.Priority)

		default:
			// Outranked (or flanked by several entries, where a single
			// cascade cannot clear the slot): defer past the conflict.
			conflict.Detected = true
			scanFrom := *hits[len(hits)-1].ScheduledFor
			if now.After(scanFrom) {
				scanFrom = now
			}
			open, _, nErr := nextOpenSlot(window, entries, scanFrom)
			if nErr != nil {
				return nErr
			}
			slot = open
		}

		scheduledBy := opts.Origin
		if scheduledBy == "" {
			scheduledBy = types.ScheduledByRuleEngine
		}
		slotCopy := slot
		windowEnd := window.endOn(slot)
		entry := &types.PublishLog{
			ClipID:             clip.ID,
			Platform:           platform,
			Status:             types.PublishStatusScheduled,
			ScheduledFor:       &slotCopy,
			ScheduledWindowEnd: &windowEnd,
			ScheduledBy:        scheduledBy,
			Priority:           priority.Total,
		}
		if _, cErr := s.publishLogs.Create(ctx, txx, entry); cErr != nil {
			return cErr
		}
		s.appendScheduledEvent(ctx, txx, clip, platform, entry, priority, conflict)
		result = &ScheduleResult{Entry: entry, Priority: priority, Conflict: conflict}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify.PublishScheduled(result.Entry)
	if m := observability.Current(); m != nil {
		m.IncPublishScheduled(platform, result.Conflict.Detected)
	}
	s.log.Info("Scheduled clip",
		"clip_id", clip.ID,
		"platform", platform,
		"slot", result.Entry.ScheduledFor,
		"priority", priority.Total,
		"conflict", result.Conflict.Detected)
	return result, nil
}

// candidateSlot picks the slot the new clip contends for: the forced
// slot when given, else the earliest in-window moment at or after now.
// Occupancy is deliberately ignored here; the conflict step decides who
// actually gets the time.
func (s *scheduler) candidateSlot(window Window, platform string, opts ScheduleOptions, now time.Time) (time.Time, error) {
	if opts.ForceSlot != nil {
		forced := opts.ForceSlot.UTC()
		if forced.Before(now) || !window.contains(forced) {
			return time.Time{}, apperr.E(apperr.ErrNoSlotAvailable, "forced slot %s outside the %s window", forced.Format(time.RFC3339), platform)
		}
		return forced, nil
	}
	for day := 0; day <= scanDaysCap; day++ {
		ref := now.AddDate(0, 0, day)
		start := window.startOn(ref)
		end := window.endOn(ref)
		at := start
		if day == 0 && now.After(at) {
			at = now
		}
		if at.Before(end) {
			return at, nil
		}
	}
	return time.Time{}, apperr.E(apperr.ErrNoSlotAvailable, "no window time within %d days", scanDaysCap)
}

// shiftedSlot finds where a displaced entry lands: the first open slot
// after the contested time, treating the new clip as already placed
// there and ignoring the displaced entry's own old position.
func (s *scheduler) shiftedSlot(window Window, entries []types.PublishLog, displaced *types.PublishLog, candidate time.Time, newPriority float64, now time.Time) (time.Time, time.Time, error) {
	probe := make([]types.PublishLog, 0, len(entries))
	for _, e := range entries {
		if e.ID == displaced.ID {
			continue
		}
		probe = append(probe, e)
	}
	candidateCopy := candidate
	probe = append(probe, types.PublishLog{
		ID:           uuid.New(),
		ScheduledFor: &candidateCopy,
		Priority:     newPriority,
	})
	scanFrom := candidate
	if now.After(scanFrom) {
		scanFrom = now
	}
	return nextOpenSlot(window, probe, scanFrom)
}

func (s *scheduler) appendScheduledEvent(ctx context.Context, tx *gorm.DB, clip *types.Clip, platform string, entry *types.PublishLog, priority *Priority, conflict ConflictInfo) {
	payload, err := json.Marshal(map[string]any{
		"clip_id":        clip.ID,
		"publish_log_id": entry.ID,
		"slot":           entry.ScheduledFor,
		"priority":       priority,
		"conflict":       conflict,
	})
	if err != nil {
		s.log.Warn("Failed to encode publish_scheduled payload", "clip_id", clip.ID, "error", err)
		return
	}
	entryID := entry.ID
	if _, err := s.ledger.Append(ctx, tx, &types.LedgerEvent{
		EventType:  types.LedgerEventPublishScheduled,
		Platform:   platform,
		EntityType: "publish_log",
		EntityID:   &entryID,
		Payload:    datatypes.JSON(payload),
	}); err != nil {
		s.log.Warn("Failed to append publish_scheduled event", "clip_id", clip.ID, "error", err)
	}
}
