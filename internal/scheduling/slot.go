package scheduling

import (
	"strconv"
	"time"
)

// Booking is an existing commitment occupying a technician's time: a schedule
// event, a scheduled work order, or approved time off.
type Booking struct {
	TechnicianID string
	Start        time.Time
	End          time.Time
	// SourceID identifies the record the booking came from (work order or
	// event id). Used to exclude a work order's own booking when it is being
	// rescheduled.
	SourceID string
	Title    string
}

// Slot is a candidate interval for one technician. Slots are computed on
// demand and never persisted.
type Slot struct {
	TechnicianID    string    `json:"technician_id"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
	BufferBefore    int       `json:"buffer_before_minutes"`
	BufferAfter     int       `json:"buffer_after_minutes"`
}

// Key identifies a slot for crew grouping: slots of different technicians with
// the same start instant and duration share a key.
func (s Slot) Key() string {
	return s.Start.UTC().Format(time.RFC3339) + "|" + strconv.Itoa(s.DurationMinutes)
}

// CrewSlot is a slot simultaneously free for at least the required number of
// technicians.
type CrewSlot struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
	TechnicianIDs   []string  `json:"technician_ids"`
}
