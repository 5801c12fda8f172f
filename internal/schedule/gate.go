// Package schedule decides whether frame sampling is active at a given
// moment, based on a configured set of time-of-day windows evaluated in a
// fixed zone so the decision does not depend on the host clock's zone.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/your-org/facewatch/internal/config"
)

// Interval is a time-of-day window with inclusive bounds, expressed as
// seconds since midnight. Start > End means the window wraps past midnight.
type Interval struct {
	Start int
	End   int
}

// Gate evaluates the configured windows. It has no state beyond config and
// is safe for concurrent use.
type Gate struct {
	intervals []Interval
	loc       *time.Location
}

func NewGate(cfg config.ScheduleConfig) (*Gate, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	intervals := make([]Interval, 0, len(cfg.Slots))
	for _, slot := range cfg.Slots {
		iv, err := parseSlot(slot)
		if err != nil {
			return nil, fmt.Errorf("slot %q: %w", slot, err)
		}
		intervals = append(intervals, iv)
	}

	return &Gate{intervals: intervals, loc: loc}, nil
}

// Location returns the fixed zone the gate evaluates in. The attendance
// logger shares it so dates and times line up with gating decisions.
func (g *Gate) Location() *time.Location {
	return g.loc
}

// Active reports whether now's time-of-day falls inside at least one window.
// Linear scan; overlapping windows are fine and no normalization is done.
func (g *Gate) Active(now time.Time) bool {
	t := now.In(g.loc)
	sec := t.Hour()*3600 + t.Minute()*60 + t.Second()

	for _, iv := range g.intervals {
		if iv.Start <= iv.End {
			if sec >= iv.Start && sec <= iv.End {
				return true
			}
		} else {
			// Wraps midnight.
			if sec >= iv.Start || sec <= iv.End {
				return true
			}
		}
	}
	return false
}

// parseSlot parses "HH:MM-HH:MM" or "HH:MM:SS-HH:MM:SS".
func parseSlot(slot string) (Interval, error) {
	parts := strings.SplitN(slot, "-", 2)
	if len(parts) != 2 {
		return Interval{}, fmt.Errorf("expected start-end")
	}
	start, err := parseTimeOfDay(strings.TrimSpace(parts[0]))
	if err != nil {
		return Interval{}, err
	}
	end, err := parseTimeOfDay(strings.TrimSpace(parts[1]))
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: start, End: end}, nil
}

func parseTimeOfDay(s string) (int, error) {
	var h, m, sec int
	switch strings.Count(s, ":") {
	case 1:
		if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
			return 0, fmt.Errorf("parse %q: %w", s, err)
		}
	case 2:
		if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
			return 0, fmt.Errorf("parse %q: %w", s, err)
		}
	default:
		return 0, fmt.Errorf("parse %q: expected HH:MM or HH:MM:SS", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("parse %q: out of range", s)
	}
	return h*3600 + m*60 + sec, nil
}
