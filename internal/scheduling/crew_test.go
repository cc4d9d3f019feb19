package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slotAt(techID string, start time.Time, durationMinutes int) Slot {
	return Slot{
		TechnicianID:    techID,
		Start:           start,
		End:             start.Add(time.Duration(durationMinutes) * time.Minute),
		DurationMinutes: durationMinutes,
	}
}

func TestIntersectForCrewSharedSlot(t *testing.T) {
	shared := monday(13, 0)
	perTech := map[string][]Slot{
		"e1": {slotAt("e1", shared, 60), slotAt("e1", monday(8, 0), 60)},
		"e2": {slotAt("e2", shared, 60)},
		"e3": {slotAt("e3", monday(15, 0), 60)},
	}

	crewSlots, err := IntersectForCrew([]string{"e1", "e2", "e3"}, perTech, 2)
	require.NoError(t, err)

	require.Len(t, crewSlots, 1)
	assert.Equal(t, shared, crewSlots[0].Start)
	assert.Equal(t, 60, crewSlots[0].DurationMinutes)
	assert.Equal(t, []string{"e1", "e2"}, crewSlots[0].TechnicianIDs)
	assert.NotContains(t, crewSlots[0].TechnicianIDs, "e3")
}

func TestIntersectForCrewParticipantCountAndOrder(t *testing.T) {
	shared := monday(9, 0)
	perTech := map[string][]Slot{
		"e1": {slotAt("e1", shared, 120)},
		"e2": {slotAt("e2", shared, 120)},
		"e3": {slotAt("e3", shared, 120)},
		"e4": {slotAt("e4", shared, 120)},
	}

	// Four technicians qualify; only the first two in supplied order are
	// assigned, and the selection is stable across runs.
	for i := 0; i < 3; i++ {
		crewSlots, err := IntersectForCrew([]string{"e3", "e1", "e4", "e2"}, perTech, 2)
		require.NoError(t, err)
		require.Len(t, crewSlots, 1)
		assert.Equal(t, []string{"e3", "e1"}, crewSlots[0].TechnicianIDs)
	}
}

func TestIntersectForCrewDurationSplitsKeys(t *testing.T) {
	start := monday(10, 0)
	perTech := map[string][]Slot{
		"e1": {slotAt("e1", start, 60)},
		"e2": {slotAt("e2", start, 90)},
	}

	// Same start but different durations never satisfy a crew of two.
	crewSlots, err := IntersectForCrew([]string{"e1", "e2"}, perTech, 2)
	require.NoError(t, err)
	assert.Empty(t, crewSlots)
}

func TestIntersectForCrewMonotonicity(t *testing.T) {
	perTech := map[string][]Slot{
		"e1": {slotAt("e1", monday(8, 0), 60), slotAt("e1", monday(13, 0), 60)},
		"e2": {slotAt("e2", monday(8, 0), 60), slotAt("e2", monday(13, 0), 60)},
		"e3": {slotAt("e3", monday(13, 0), 60)},
	}
	order := []string{"e1", "e2", "e3"}

	var previous int
	for crew := 1; crew <= 4; crew++ {
		crewSlots, err := IntersectForCrew(order, perTech, crew)
		require.NoError(t, err)
		if crew > 1 {
			assert.LessOrEqual(t, len(crewSlots), previous,
				"raising the crew requirement must never add slots")
		}
		previous = len(crewSlots)
	}
}

func TestIntersectForCrewChronologicalOutput(t *testing.T) {
	perTech := map[string][]Slot{
		"e1": {slotAt("e1", monday(15, 0), 60), slotAt("e1", monday(8, 0), 60), slotAt("e1", monday(11, 0), 60)},
		"e2": {slotAt("e2", monday(11, 0), 60), slotAt("e2", monday(15, 0), 60), slotAt("e2", monday(8, 0), 60)},
	}

	crewSlots, err := IntersectForCrew([]string{"e1", "e2"}, perTech, 2)
	require.NoError(t, err)
	require.Len(t, crewSlots, 3)
	for i := 1; i < len(crewSlots); i++ {
		assert.True(t, crewSlots[i-1].Start.Before(crewSlots[i].Start))
	}
}

func TestIntersectForCrewValidation(t *testing.T) {
	_, err := IntersectForCrew([]string{"e1"}, nil, 0)
	assert.ErrorIs(t, err, ErrCrewTooSmall)

	_, err = IntersectForCrew(nil, nil, 2)
	assert.ErrorIs(t, err, ErrNoTechnicians)
}

func TestIntersectForCrewNoQualifyingKeys(t *testing.T) {
	perTech := map[string][]Slot{
		"e1": {slotAt("e1", monday(8, 0), 60)},
		"e2": {slotAt("e2", monday(9, 0), 60)},
	}

	crewSlots, err := IntersectForCrew([]string{"e1", "e2"}, perTech, 2)
	require.NoError(t, err)
	assert.Empty(t, crewSlots)
}
