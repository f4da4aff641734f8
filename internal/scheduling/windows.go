package scheduling

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

const windowsSpecEnv = "CLIPCAST_WINDOWS_YAML"

//go:embed windows.yaml
var windowsSpecFS embed.FS

// Window is one platform's daily publishing window: publications land
// between StartHour and EndHour (UTC, end exclusive), spaced at least
// MinGap apart.
type Window struct {
	Platform  string
	StartHour int
	EndHour   int
	MinGap    time.Duration
}

// Minutes is the daily window length.
func (w Window) Minutes() int {
	return (w.EndHour - w.StartHour) * 60
}

// Capacity is the theoretical number of daily slots: window length over
// minimum gap.
func (w Window) Capacity() int {
	gap := int(w.MinGap / time.Minute)
	if gap <= 0 {
		return 0
	}
	return w.Minutes() / gap
}

// WindowSet resolves platform → publishing window.
type WindowSet map[string]Window

type yamlWindowsSpec struct {
	Version   int              `yaml:"version"`
	Platforms []yamlWindowSpec `yaml:"platforms"`
}

type yamlWindowSpec struct {
	Platform      string `yaml:"platform"`
	StartHour     int    `yaml:"start_hour"`
	EndHour       int    `yaml:"end_hour"`
	MinGapMinutes int    `yaml:"min_gap_minutes"`
}

// fallback windows used when YAML is missing or invalid
var fallbackWindows = WindowSet{
	types.PlatformTikTok:    {Platform: types.PlatformTikTok, StartHour: 9, EndHour: 21, MinGap: 90 * time.Minute},
	types.PlatformInstagram: {Platform: types.PlatformInstagram, StartHour: 10, EndHour: 20, MinGap: 120 * time.Minute},
	types.PlatformYouTube:   {Platform: types.PlatformYouTube, StartHour: 12, EndHour: 22, MinGap: 180 * time.Minute},
}

var windowsOnce sync.Once
var windowsCache WindowSet
var windowsErr error

// LoadWindowSet returns the configured platform windows: the file named
// by CLIPCAST_WINDOWS_YAML when set, else the embedded spec, else the
// built-in fallback on any load error.
func LoadWindowSet(log *logger.Logger) WindowSet {
	windowsOnce.Do(func() {
		windowsCache, windowsErr = loadWindows()
	})
	if windowsErr != nil {
		if log != nil {
			log.Warn("Window spec load failed, using fallback", "error", windowsErr)
		}
		return fallbackWindows
	}
	return windowsCache
}

func loadWindows() (WindowSet, error) {
	data, err := readWindowsSpec()
	if err != nil {
		return nil, err
	}
	var spec yamlWindowsSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	out := make(WindowSet, len(spec.Platforms))
	for _, p := range spec.Platforms {
		if p.Platform == "" {
			return nil, errors.New("window spec entry missing platform")
		}
		if p.StartHour < 0 || p.EndHour > 24 || p.EndHour <= p.StartHour {
			return nil, fmt.Errorf("invalid window hours for %q: %d-%d", p.Platform, p.StartHour, p.EndHour)
		}
		if p.MinGapMinutes <= 0 {
			return nil, fmt.Errorf("invalid min gap for %q: %d", p.Platform, p.MinGapMinutes)
		}
		out[p.Platform] = Window{
			Platform:  p.Platform,
			StartHour: p.StartHour,
			EndHour:   p.EndHour,
			MinGap:    time.Duration(p.MinGapMinutes) * time.Minute,
		}
	}
	if len(out) == 0 {
		return nil, errors.New("window spec has no platforms")
	}
	return out, nil
}

func readWindowsSpec() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(windowsSpecEnv)); path != "" {
		return os.ReadFile(path)
	}
	return windowsSpecFS.ReadFile("windows.yaml")
}

// startOn/endOn anchor the window to the UTC day of t.
func (w Window) startOn(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), w.StartHour, 0, 0, 0, time.UTC)
}

func (w Window) endOn(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), w.EndHour, 0, 0, 0, time.UTC)
}

// contains reports whether t falls inside the window on its own day.
func (w Window) contains(t time.Time) bool {
	return !t.Before(w.startOn(t)) && t.Before(w.endOn(t))
}
