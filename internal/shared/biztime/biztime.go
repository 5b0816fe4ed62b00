// Package biztime provides utilities for business timezone calculations.
// All storage and transport use UTC. The business timezone is only used
// for calculating date boundaries (e.g. merchant-facing daily summaries).
package biztime

import (
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultTimezone is the default business timezone.
	DefaultTimezone = "Asia/Dhaka"
)

var (
	bizLocation     *time.Location
	bizLocationOnce sync.Once
	initErr         error
)

// Init initializes the business timezone. Should be called once at startup.
// If tz is empty, defaults to Asia/Dhaka.
func Init(tz string) error {
	bizLocationOnce.Do(func() {
		if tz == "" {
			tz = DefaultTimezone
		}
		bizLocation, initErr = time.LoadLocation(tz)
	})
	return initErr
}

// Location returns the business timezone location. Falls back to UTC when
// Init has not been called or failed.
func Location() *time.Location {
	if bizLocation == nil {
		return time.UTC
	}
	return bizLocation
}

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// StartOfDayUTC returns the UTC instant at which the business day containing
// t begins.
func StartOfDayUTC(t time.Time) time.Time {
	local := t.In(Location())
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location())
	return start.UTC()
}

// FormatBiz formats t in the business timezone using the given layout.
func FormatBiz(t time.Time, layout string) string {
	return t.In(Location()).Format(layout)
}

// MustInit is like Init but panics on failure. Intended for tests.
func MustInit(tz string) {
	if err := Init(tz); err != nil {
		panic(fmt.Sprintf("biztime: %v", err))
	}
}
