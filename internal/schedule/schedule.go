package schedule

import (
	"fmt"
	"time"
)

// Moment is one named slot of the daily meal schedule, identified by the
// time of day at which it starts.
type Moment struct {
	Name  string
	Start time.Duration // offset from midnight
}

// Schedule is an ordered table of moments. The first moment must start at
// midnight and starts must be strictly increasing, so every time of day
// falls in exactly one moment.
type Schedule []Moment

// Default returns the canteen schedule the service was built for.
func Default() Schedule {
	return Schedule{
		{Name: "colazione", Start: 0},
		{Name: "pranzo", Start: 11 * time.Hour},
		{Name: "cena", Start: 15 * time.Hour},
	}
}

// Validate checks the schedule invariants: non-empty, first moment at
// midnight, strictly increasing starts, every start within the day.
func (s Schedule) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("schedule is empty")
	}
	if s[0].Start != 0 {
		return fmt.Errorf("first moment %q must start at midnight", s[0].Name)
	}
	for i := 1; i < len(s); i++ {
		if s[i].Start <= s[i-1].Start {
			return fmt.Errorf("moment %q does not start after %q", s[i].Name, s[i-1].Name)
		}
		if s[i].Start >= 24*time.Hour {
			return fmt.Errorf("moment %q starts outside the day", s[i].Name)
		}
	}
	return nil
}

// Resolve maps a timestamp to its phase key: the calendar date of t and the
// index of the moment whose interval contains t's time of day. Intervals are
// half-open, a timestamp exactly on a boundary belongs to that boundary's
// moment, and the last moment runs until midnight. Since the first moment
// starts at midnight there is always a match.
func (s Schedule) Resolve(t time.Time) (time.Time, int) {
	tod := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second

	moment := 0
	for i, m := range s {
		if m.Start <= tod {
			moment = i
		}
	}

	year, month, day := t.Date()
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return date, moment
}

// Name returns the display name of a moment index, or an empty string for
// an index outside the table.
func (s Schedule) Name(moment int) string {
	if moment < 0 || moment >= len(s) {
		return ""
	}
	return s[moment].Name
}
