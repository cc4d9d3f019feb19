package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a time of day without a date, e.g. a business-hours boundary.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" into a ClockTime.
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return ClockTime{}, fmt.Errorf("invalid clock time %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("clock time %q out of range", s)
	}
	return ClockTime{Hour: hour, Minute: minute}, nil
}

// MustParseClock panics on a malformed clock time. For defaults and tests.
func MustParseClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// At anchors the clock time on the calendar day of t, in t's location.
func (c ClockTime) At(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour, c.Minute, 0, 0, t.Location())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns the clock time as minutes from midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// WeekdaySet is the set of weekdays a company schedules work on.
type WeekdaySet [7]bool

// Weekdays builds a set from the given days.
func Weekdays(days ...time.Weekday) WeekdaySet {
	var set WeekdaySet
	for _, d := range days {
		set[int(d)] = true
	}
	return set
}

// Contains reports whether d is a working day.
func (w WeekdaySet) Contains(d time.Weekday) bool {
	return w[int(d)]
}

// Days returns the members of the set, Sunday first.
func (w WeekdaySet) Days() []time.Weekday {
	var days []time.Weekday
	for i, on := range w {
		if on {
			days = append(days, time.Weekday(i))
		}
	}
	return days
}

// Settings is the company-wide scheduling configuration. It is loaded once per
// scheduling session and passed explicitly into every core function.
type Settings struct {
	CompanyID string

	BusinessHoursStart ClockTime
	BusinessHoursEnd   ClockTime

	BufferBeforeMinutes int
	BufferAfterMinutes  int
	GranularityMinutes  int

	WorkingDays WeekdaySet

	MinAdvanceBookingHours int
	MaxAdvanceBookingDays  int

	// CapacityHoursPerDay caps how many booked hours a technician may carry
	// on a single day. Zero means the default applies.
	CapacityHoursPerDay float64

	RequireDepositBeforeScheduling bool
}

const (
	// DefaultGranularityMinutes is the slot alignment interval.
	DefaultGranularityMinutes = 15

	// DefaultCapacityHoursPerDay bounds per-technician daily booked time.
	DefaultCapacityHoursPerDay = 8
)

// DefaultSettings returns the configuration used when a company has not
// customized scheduling.
func DefaultSettings() Settings {
	return Settings{
		BusinessHoursStart:     ClockTime{Hour: 7, Minute: 30},
		BusinessHoursEnd:       ClockTime{Hour: 17},
		BufferBeforeMinutes:    30,
		BufferAfterMinutes:     30,
		GranularityMinutes:     DefaultGranularityMinutes,
		WorkingDays:            Weekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
		MinAdvanceBookingHours: 1,
		MaxAdvanceBookingDays:  30,
		CapacityHoursPerDay:    DefaultCapacityHoursPerDay,
	}
}

// Granularity returns the slot interval as a duration, falling back to the
// default when unset.
func (s Settings) Granularity() time.Duration {
	if s.GranularityMinutes <= 0 {
		return DefaultGranularityMinutes * time.Minute
	}
	return time.Duration(s.GranularityMinutes) * time.Minute
}

// BufferBefore returns the pre-job buffer as a duration.
func (s Settings) BufferBefore() time.Duration {
	return time.Duration(s.BufferBeforeMinutes) * time.Minute
}

// BufferAfter returns the post-job buffer as a duration.
func (s Settings) BufferAfter() time.Duration {
	return time.Duration(s.BufferAfterMinutes) * time.Minute
}

// Capacity returns the per-day booked-time cap.
func (s Settings) Capacity() time.Duration {
	hours := s.CapacityHoursPerDay
	if hours <= 0 {
		hours = DefaultCapacityHoursPerDay
	}
	return time.Duration(hours * float64(time.Hour))
}

// ClampRange bounds a requested search range by the minimum and maximum
// advance-booking policy, relative to now. The returned range may be empty
// (start after end), which callers treat as zero candidate days.
func (s Settings) ClampRange(now, rangeStart, rangeEnd time.Time) (time.Time, time.Time) {
	minStart := now.Add(time.Duration(s.MinAdvanceBookingHours) * time.Hour)
	if rangeStart.Before(minStart) {
		rangeStart = minStart
	}
	maxDays := s.MaxAdvanceBookingDays
	if maxDays <= 0 {
		maxDays = 30
	}
	maxEnd := now.AddDate(0, 0, maxDays)
	if rangeEnd.After(maxEnd) {
		rangeEnd = maxEnd
	}
	return rangeStart, rangeEnd
}
