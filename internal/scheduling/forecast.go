package scheduling

import (
	"context"
	"time"

	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
	"github.com/clipcasthq/clipcast-backend/internal/types"
	"gorm.io/gorm"
)

// scanDaysCap bounds every forward scan. A misconfigured zero-capacity
// window surfaces as ErrNoSlotAvailable instead of looping forever.
const scanDaysCap = 7

type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Forecast reports availability for one platform: the first open slot,
// how many publications still fit today, and how saturated today's
// window already is.
type Forecast struct {
	Platform            string    `json:"platform"`
	NextSlot            time.Time `json:"next_slot"`
	SlotsRemainingToday int       `json:"slots_remaining_today"`
	ScheduledCount      int       `json:"scheduled_count"`
	Risk                Risk      `json:"risk"`
	WindowStartHour     int       `json:"window_start_hour"`
	WindowEndHour       int       `json:"window_end_hour"`
	MinGapMinutes       int       `json:"min_gap_minutes"`
}

func (s *scheduler) Forecast(ctx context.Context, tx *gorm.DB, platform string) (*Forecast, error) {
	return s.forecastAt(ctx, tx, platform, time.Now().UTC())
}

func (s *scheduler) forecastAt(ctx context.Context, tx *gorm.DB, platform string, now time.Time) (*Forecast, error) {
	window, ok := s.windows[platform]
	if !ok {
		return nil, apperr.E(apperr.ErrNoSchedulingWindow, "platform %s", platform)
	}
	entries, err := s.activeEntries(ctx, tx, platform, window, now)
	if err != nil {
		return nil, err
	}
	next, _, err := nextOpenSlot(window, entries, now)
	if err != nil {
		return nil, err
	}
	occupied := occupiedOn(window, entries, now)
	return &Forecast{
		Platform:            platform,
		NextSlot:            next,
		SlotsRemainingToday: remainingOn(window, entries, now),
		ScheduledCount:      occupied,
		Risk:                riskFor(occupied, window.Capacity()),
		WindowStartHour:     window.StartHour,
		WindowEndHour:       window.EndHour,
		MinGapMinutes:       int(window.MinGap / time.Minute),
	}, nil
}

// activeEntries loads the pending/scheduled entries that can constrain
// a placement: everything from today's window start (or min_gap behind
// now, whichever is earlier) through the scan horizon.
func (s *scheduler) activeEntries(ctx context.Context, tx *gorm.DB, platform string, window Window, now time.Time) ([]types.PublishLog, error) {
	from := window.startOn(now)
	if earlier := now.Add(-window.MinGap); earlier.Before(from) {
		from = earlier
	}
	to := now.AddDate(0, 0, scanDaysCap+1)
	return s.publishLogs.ListActiveForPlatformBetween(ctx, tx, platform, from, to)
}

func riskFor(occupied, capacity int) Risk {
	if capacity <= 0 {
		return RiskHigh
	}
	ratio := float64(occupied) / float64(capacity)
	switch {
	case ratio >= 0.8:
		return RiskHigh
	case ratio >= 0.5:
		return RiskMedium
	default:
		return RiskLow
	}
}

// conflictsAt returns the active entries within minGap of at, in
// ascending scheduled order.
func conflictsAt(entries []types.PublishLog, at time.Time, gap time.Duration) []*types.PublishLog {
	var out []*types.PublishLog
	for i := range entries {
		e := &entries[i]
		if e.ScheduledFor == nil {
			continue
		}
		d := e.ScheduledFor.Sub(at)
		if d < 0 {
			d = -d
		}
		if d < gap {
			out = append(out, e)
		}
	}
	return out
}

// latestConflict returns the latest-scheduled entry within minGap of
// at, or nil when the time is clear.
func latestConflict(entries []types.PublishLog, at time.Time, gap time.Duration) *types.PublishLog {
	hits := conflictsAt(entries, at, gap)
	if len(hits) == 0 {
		return nil
	}
	return hits[len(hits)-1]
}

// openSlotInDay walks forward from from, jumping past conflicting
// entries, until a clear time before dayEnd remains.
func openSlotInDay(window Window, entries []types.PublishLog, from, dayEnd time.Time) (time.Time, bool) {
	pos := from
	for pos.Before(dayEnd) {
		hit := latestConflict(entries, pos, window.MinGap)
		if hit == nil {
			return pos, true
		}
		pos = hit.ScheduledFor.Add(window.MinGap)
	}
	return time.Time{}, false
}

// nextOpenSlot finds the first conflict-free time at or after now inside
// the platform window, scanning at most scanDaysCap days ahead. Also
// returns the window end of the slot's day.
func nextOpenSlot(window Window, entries []types.PublishLog, now time.Time) (time.Time, time.Time, error) {
	for day := 0; day <= scanDaysCap; day++ {
		ref := now.AddDate(0, 0, day)
		dayStart := window.startOn(ref)
		dayEnd := window.endOn(ref)
		from := dayStart
		if day == 0 && now.After(from) {
			from = now
		}
		if !from.Before(dayEnd) {
			continue
		}
		if slot, ok := openSlotInDay(window, entries, from, dayEnd); ok {
			return slot, dayEnd, nil
		}
	}
	return time.Time{}, time.Time{}, apperr.E(apperr.ErrNoSlotAvailable, "no open slot within %d days", scanDaysCap)
}

// remainingOn counts how many more publications still fit today given
// the existing entries and the minimum gap.
func remainingOn(window Window, entries []types.PublishLog, now time.Time) int {
	dayEnd := window.endOn(now)
	pos := window.startOn(now)
	if now.After(pos) {
		pos = now
	}
	count := 0
	for pos.Before(dayEnd) {
		if hit := latestConflict(entries, pos, window.MinGap); hit != nil {
			pos = hit.ScheduledFor.Add(window.MinGap)
			continue
		}
		count++
		pos = pos.Add(window.MinGap)
	}
	return count
}

// occupiedOn counts active entries inside today's window.
func occupiedOn(window Window, entries []types.PublishLog, now time.Time) int {
	dayStart := window.startOn(now)
	dayEnd := window.endOn(now)
	n := 0
	for i := range entries {
		e := entries[i]
		if e.ScheduledFor == nil {
			continue
		}
		if !e.ScheduledFor.Before(dayStart) && e.ScheduledFor.Before(dayEnd) {
			n++
		}
	}
	return n
}
