package scheduling

import (
	"errors"
	"time"
)

var (
	// ErrDurationTooShort rejects durations under one granularity unit.
	ErrDurationTooShort = errors.New("duration must be at least one slot interval")
	// ErrInvalidRange rejects ranges whose start falls after their end.
	ErrInvalidRange = errors.New("range start must not be after range end")
)

// ComputeSlots generates every free slot for one technician within
// [rangeStart, rangeEnd], given the technician's existing bookings and the
// company settings. Bookings must cover everything that could overlap the
// range; fetching them is the caller's concern.
//
// Candidates are produced per working day, aligned to the slot granularity
// from the business-hours start, and must end by both the business-hours end
// and the range end. A candidate is kept when its buffer-expanded window
// clears every booking and the day's booked time plus the job fits the daily
// capacity. Output is chronological and the function is pure: identical
// inputs always produce identical output.
func ComputeSlots(technicianID string, durationMinutes int, rangeStart, rangeEnd time.Time, bookings []Booking, settings Settings) ([]Slot, error) {
	granularity := settings.Granularity()
	duration := time.Duration(durationMinutes) * time.Minute

	if duration < granularity {
		return nil, ErrDurationTooShort
	}
	if rangeStart.After(rangeEnd) {
		return nil, ErrInvalidRange
	}

	capacity := settings.Capacity()
	slots := []Slot{}

	day := time.Date(rangeStart.Year(), rangeStart.Month(), rangeStart.Day(), 0, 0, 0, 0, rangeStart.Location())
	for !day.After(rangeEnd) {
		if !settings.WorkingDays.Contains(day.Weekday()) {
			day = day.AddDate(0, 0, 1)
			continue
		}

		businessStart := settings.BusinessHoursStart.At(day)
		businessEnd := settings.BusinessHoursEnd.At(day)

		// A day whose business window cannot hold the job contributes
		// nothing; later days may still qualify.
		if businessStart.Add(duration).After(businessEnd) {
			day = day.AddDate(0, 0, 1)
			continue
		}

		booked := bookedTimeOn(day, bookings)
		if booked+duration > capacity {
			day = day.AddDate(0, 0, 1)
			continue
		}

		candidate := businessStart
		if candidate.Before(rangeStart) {
			// First aligned candidate at or after the range start.
			offset := rangeStart.Sub(candidate)
			steps := offset / granularity
			if offset%granularity != 0 {
				steps++
			}
			candidate = candidate.Add(steps * granularity)
		}

		for !candidate.Add(duration).After(businessEnd) {
			end := candidate.Add(duration)
			if end.After(rangeEnd) {
				break
			}
			if !HasConflict(bookings, candidate, end, settings) {
				slots = append(slots, Slot{
					TechnicianID:    technicianID,
					Start:           candidate,
					End:             end,
					DurationMinutes: durationMinutes,
					BufferBefore:    settings.BufferBeforeMinutes,
					BufferAfter:     settings.BufferAfterMinutes,
				})
			}
			candidate = candidate.Add(granularity)
		}

		day = day.AddDate(0, 0, 1)
	}

	return slots, nil
}

// bookedTimeOn sums how much of the calendar day starting at dayStart is
// already committed.
func bookedTimeOn(dayStart time.Time, bookings []Booking) time.Duration {
	dayEnd := dayStart.AddDate(0, 0, 1)
	var total time.Duration
	for _, b := range bookings {
		start := b.Start
		if start.Before(dayStart) {
			start = dayStart
		}
		end := b.End
		if end.After(dayEnd) {
			end = dayEnd
		}
		if end.After(start) {
			total += end.Sub(start)
		}
	}
	return total
}
