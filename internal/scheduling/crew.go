package scheduling

import (
	"errors"
	"sort"
)

var (
	// ErrNoTechnicians rejects crew intersection over an empty technician list.
	ErrNoTechnicians = errors.New("at least one technician is required")
	// ErrCrewTooSmall rejects crew sizes under one.
	ErrCrewTooSmall = errors.New("crew size must be at least 1")
)

// IntersectForCrew finds the slots simultaneously free for at least
// crewRequired technicians. Slots group by identical (start, duration); a key
// qualifies when offered by that many distinct technicians. Participants are
// the first crewRequired technicians offering the key, in the order the
// technicians were supplied, so the same input always assigns the same crew.
// Results are chronological.
//
// Callers handle crewRequired == 1 as a per-technician pass-through; passing
// it here simply yields one CrewSlot per distinct key with a single
// participant.
func IntersectForCrew(technicianOrder []string, perTechnician map[string][]Slot, crewRequired int) ([]CrewSlot, error) {
	if crewRequired < 1 {
		return nil, ErrCrewTooSmall
	}
	if len(technicianOrder) == 0 {
		return nil, ErrNoTechnicians
	}

	type group struct {
		slot          Slot
		technicianIDs []string
	}

	groups := make(map[string]*group)
	for _, techID := range technicianOrder {
		seen := make(map[string]bool)
		for _, slot := range perTechnician[techID] {
			key := slot.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			g, ok := groups[key]
			if !ok {
				g = &group{slot: slot}
				groups[key] = g
			}
			g.technicianIDs = append(g.technicianIDs, techID)
		}
	}

	crewSlots := []CrewSlot{}
	for _, g := range groups {
		if len(g.technicianIDs) < crewRequired {
			continue
		}
		crewSlots = append(crewSlots, CrewSlot{
			Start:           g.slot.Start,
			End:             g.slot.End,
			DurationMinutes: g.slot.DurationMinutes,
			TechnicianIDs:   append([]string(nil), g.technicianIDs[:crewRequired]...),
		})
	}

	sort.Slice(crewSlots, func(i, j int) bool {
		if !crewSlots[i].Start.Equal(crewSlots[j].Start) {
			return crewSlots[i].Start.Before(crewSlots[j].Start)
		}
		return crewSlots[i].DurationMinutes < crewSlots[j].DurationMinutes
	})

	return crewSlots, nil
}
