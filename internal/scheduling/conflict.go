package scheduling

import "time"

// FindConflict returns the first booking whose buffer-expanded interval
// overlaps the buffer-expanded candidate window [start, end), or nil when the
// window is free. The same expansion is applied on both sides so that a slot
// reported free by ComputeSlots stays free under the commit-time re-check.
func FindConflict(bookings []Booking, start, end time.Time, settings Settings) *Booking {
	if !start.Before(end) {
		// Degenerate window; treat as occupied rather than silently free.
		if len(bookings) > 0 {
			return &bookings[0]
		}
		return &Booking{Start: start, End: end}
	}

	before := settings.BufferBefore()
	after := settings.BufferAfter()

	candidateStart := start.Add(-before)
	candidateEnd := end.Add(after)

	for i := range bookings {
		b := &bookings[i]
		bookedStart := b.Start.Add(-before)
		bookedEnd := b.End.Add(after)
		if candidateStart.Before(bookedEnd) && candidateEnd.After(bookedStart) {
			return b
		}
	}
	return nil
}

// HasConflict reports whether the proposed window overlaps any booking,
// considering buffers.
func HasConflict(bookings []Booking, start, end time.Time, settings Settings) bool {
	return FindConflict(bookings, start, end, settings) != nil
}

// ExcludeSource filters out bookings originating from the given source record,
// so a work order being rescheduled is not seen as conflicting with itself.
func ExcludeSource(bookings []Booking, sourceID string) []Booking {
	if sourceID == "" {
		return bookings
	}
	kept := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.SourceID == sourceID {
			continue
		}
		kept = append(kept, b)
	}
	return kept
}
