package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSlotsAroundBufferedBooking(t *testing.T) {
	settings := testSettings()
	bookings := []Booking{
		{TechnicianID: "tech-1", Start: monday(10, 0), End: monday(11, 0), SourceID: "wo-1"},
	}

	rangeStart := monday(0, 0)
	rangeEnd := monday(23, 59)

	slots, err := ComputeSlots("tech-1", 60, rangeStart, rangeEnd, bookings, settings)
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	starts := make(map[string]bool)
	for _, s := range slots {
		starts[s.Start.Format("15:04")] = true
	}

	// The 10:00-11:00 booking expands to 09:30-11:30; with the candidate's
	// own buffers a 60-minute job fits again only at 08:00 or from 12:00 on.
	assert.True(t, starts["08:00"])
	assert.True(t, starts["12:00"])
	assert.True(t, starts["16:00"], "last start that still ends by 17:00")

	for _, blocked := range []string{"08:15", "09:00", "09:45", "10:00", "11:00", "11:45"} {
		assert.False(t, starts[blocked], "start %s should be blocked", blocked)
	}
	assert.False(t, starts["16:15"], "would run past business hours")
}

func TestComputeSlotsChronologicalAndAligned(t *testing.T) {
	settings := testSettings()

	slots, err := ComputeSlots("tech-1", 90, monday(0, 0), monday(0, 0).AddDate(0, 0, 3), nil, settings)
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	granularity := settings.Granularity()
	for i, s := range slots {
		assert.Equal(t, s.Start.Add(90*time.Minute), s.End)
		assert.Zero(t, s.Start.Sub(settings.BusinessHoursStart.At(s.Start))%granularity,
			"start %s not aligned", s.Start)

		dayStart := settings.BusinessHoursStart.At(s.Start)
		dayEnd := settings.BusinessHoursEnd.At(s.Start)
		assert.False(t, s.Start.Before(dayStart))
		assert.False(t, s.End.After(dayEnd))

		if i > 0 {
			assert.True(t, slots[i-1].Start.Before(s.Start), "slots out of order at %d", i)
		}
	}
}

func TestComputeSlotsDeterministic(t *testing.T) {
	settings := testSettings()
	bookings := []Booking{
		{TechnicianID: "tech-1", Start: monday(9, 0), End: monday(12, 0)},
		{TechnicianID: "tech-1", Start: monday(14, 0), End: monday(14, 30)},
	}

	first, err := ComputeSlots("tech-1", 60, monday(0, 0), monday(0, 0).AddDate(0, 0, 5), bookings, settings)
	require.NoError(t, err)
	second, err := ComputeSlots("tech-1", 60, monday(0, 0), monday(0, 0).AddDate(0, 0, 5), bookings, settings)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeSlotsSkipsNonWorkingDays(t *testing.T) {
	settings := testSettings()
	settings.WorkingDays = Weekdays(time.Monday, time.Wednesday)

	// Monday through following Sunday.
	slots, err := ComputeSlots("tech-1", 60, monday(0, 0), monday(0, 0).AddDate(0, 0, 7), nil, settings)
	require.NoError(t, err)

	days := make(map[time.Weekday]bool)
	for _, s := range slots {
		days[s.Start.Weekday()] = true
	}
	assert.Equal(t, map[time.Weekday]bool{time.Monday: true, time.Wednesday: true}, days)
}

func TestComputeSlotsZeroBusinessDays(t *testing.T) {
	settings := testSettings()

	// Saturday and Sunday only (June 7-8 2025).
	saturday := time.Date(2025, time.June, 7, 0, 0, 0, 0, time.UTC)
	slots, err := ComputeSlots("tech-1", 60, saturday, saturday.AddDate(0, 0, 1), nil, settings)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestComputeSlotsDurationExceedsDay(t *testing.T) {
	settings := testSettings()
	settings.BusinessHoursStart = ClockTime{Hour: 9}
	settings.BusinessHoursEnd = ClockTime{Hour: 12}
	settings.CapacityHoursPerDay = 24

	// 4 hours cannot fit a 3-hour business window; other days contribute
	// nothing extra either, but the empty result is not an error.
	slots, err := ComputeSlots("tech-1", 240, monday(0, 0), monday(0, 0).AddDate(0, 0, 2), nil, settings)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestComputeSlotsCapacityGuard(t *testing.T) {
	settings := testSettings()
	settings.BufferBeforeMinutes = 0
	settings.BufferAfterMinutes = 0
	settings.CapacityHoursPerDay = 8

	// 7.5 booked hours leave no room for another hour under an 8h cap.
	bookings := []Booking{
		{TechnicianID: "tech-1", Start: monday(8, 0), End: monday(15, 30)},
	}
	slots, err := ComputeSlots("tech-1", 60, monday(0, 0), monday(23, 59), bookings, settings)
	require.NoError(t, err)
	assert.Empty(t, slots)

	// A 30-minute job still fits.
	slots, err = ComputeSlots("tech-1", 30, monday(0, 0), monday(23, 59), bookings, settings)
	require.NoError(t, err)
	assert.NotEmpty(t, slots)
}

func TestComputeSlotsInputValidation(t *testing.T) {
	settings := testSettings()

	_, err := ComputeSlots("tech-1", 10, monday(0, 0), monday(23, 0), nil, settings)
	assert.ErrorIs(t, err, ErrDurationTooShort)

	_, err = ComputeSlots("tech-1", 60, monday(23, 0), monday(0, 0), nil, settings)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestComputeSlotsRespectsRangeBounds(t *testing.T) {
	settings := testSettings()

	// Range starting mid-day: no candidate before 13:00.
	slots, err := ComputeSlots("tech-1", 60, monday(13, 0), monday(23, 59), nil, settings)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	for _, s := range slots {
		assert.False(t, s.Start.Before(monday(13, 0)))
	}

	// Range ending mid-day: no slot may run past the range end.
	slots, err = ComputeSlots("tech-1", 60, monday(0, 0), monday(10, 0), nil, settings)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	for _, s := range slots {
		assert.False(t, s.End.After(monday(10, 0)))
	}
}

func TestClampRange(t *testing.T) {
	settings := testSettings()
	settings.MinAdvanceBookingHours = 2
	settings.MaxAdvanceBookingDays = 7

	now := monday(8, 0)
	start, end := settings.ClampRange(now, monday(8, 30), monday(8, 0).AddDate(0, 0, 30))

	assert.Equal(t, monday(10, 0), start, "start pulled up to the advance-booking minimum")
	assert.Equal(t, now.AddDate(0, 0, 7), end, "end clipped to the advance-booking horizon")

	// A range already inside the bounds is untouched.
	start, end = settings.ClampRange(now, monday(12, 0), monday(12, 0).AddDate(0, 0, 2))
	assert.Equal(t, monday(12, 0), start)
	assert.Equal(t, monday(12, 0).AddDate(0, 0, 2), end)
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("07:30")
	require.NoError(t, err)
	assert.Equal(t, ClockTime{Hour: 7, Minute: 30}, c)
	assert.Equal(t, "07:30", c.String())
	assert.Equal(t, 450, c.Minutes())

	for _, bad := range []string{"", "7", "25:00", "12:75", "ab:cd"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, "expected %q to fail", bad)
	}
}
