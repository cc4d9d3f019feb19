package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldservice/internal/db"
	"fieldservice/internal/entities"
	"fieldservice/internal/repository"
	"fieldservice/internal/scheduling"
)

const testCompanyID = "company-1"

func serviceTestSettings() scheduling.Settings {
	return scheduling.Settings{
		CompanyID:              testCompanyID,
		BusinessHoursStart:     scheduling.MustParseClock("08:00"),
		BusinessHoursEnd:       scheduling.MustParseClock("17:00"),
		BufferBeforeMinutes:    30,
		BufferAfterMinutes:     30,
		GranularityMinutes:     15,
		WorkingDays:            scheduling.Weekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
		MinAdvanceBookingHours: 1,
		MaxAdvanceBookingDays:  30,
		CapacityHoursPerDay:    8,
	}
}

// 2025-06-02 is a Monday.
func mondayAt(hour, minute int) time.Time {
	return time.Date(2025, time.June, 2, hour, minute, 0, 0, time.UTC)
}

type fakeSettings struct {
	settings scheduling.Settings
}

func (f *fakeSettings) SchedulingSettings(ctx context.Context, companyID string) (scheduling.Settings, error) {
	return f.settings, nil
}

func (f *fakeSettings) CapacityHoursPerDay(ctx context.Context, companyID, technicianID string) (float64, error) {
	return f.settings.CapacityHoursPerDay, nil
}

type fakeBookings struct {
	byTechnician map[string][]scheduling.Booking
}

func (f *fakeBookings) add(technicianID string, b scheduling.Booking) {
	b.TechnicianID = technicianID
	f.byTechnician[technicianID] = append(f.byTechnician[technicianID], b)
}

func (f *fakeBookings) removeSource(sourceID string) {
	for technicianID, list := range f.byTechnician {
		f.byTechnician[technicianID] = scheduling.ExcludeSource(list, sourceID)
	}
}

func (f *fakeBookings) BookingsInRange(ctx context.Context, companyID, technicianID string, from, to time.Time, excludeWorkOrderID string) ([]scheduling.Booking, error) {
	return scheduling.ExcludeSource(f.byTechnician[technicianID], excludeWorkOrderID), nil
}

// fakeWorkOrderStore mirrors the repository's transactional commit: every
// technician is re-checked against fresh bookings first, and only a fully
// clean pass mutates anything.
type fakeWorkOrderStore struct {
	orders   map[string]*db.WorkOrder
	bookings *fakeBookings
}

func (f *fakeWorkOrderStore) WorkOrderByID(ctx context.Context, companyID, id string) (*db.WorkOrder, error) {
	wo, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrWorkOrderNotFound
	}
	return wo, nil
}

func (f *fakeWorkOrderStore) DepositInfo(ctx context.Context, companyID, id string) (float64, string, error) {
	wo, ok := f.orders[id]
	if !ok {
		return 0, "", repository.ErrWorkOrderNotFound
	}
	return wo.DepositAmount.Float64, wo.DepositMethod.String, nil
}

func (f *fakeWorkOrderStore) CommitSchedule(ctx context.Context, p repository.CommitParams, recheck repository.RecheckFunc) error {
	for _, technicianID := range p.TechnicianIDs {
		fresh, err := f.bookings.BookingsInRange(ctx, p.CompanyID, technicianID, p.FetchFrom, p.FetchTo, p.WorkOrderID)
		if err != nil {
			return err
		}
		if err := recheck(technicianID, fresh); err != nil {
			return err
		}
	}

	wo, ok := f.orders[p.WorkOrderID]
	if !ok {
		return repository.ErrWorkOrderNotFound
	}
	wo.Status = db.StatusScheduled
	wo.AssignedTo = sqlString(p.TechnicianIDs[0])
	wo.ScheduledStart = sqlTime(p.Start)
	wo.ScheduledEnd = sqlTime(p.End)

	f.bookings.removeSource(p.WorkOrderID)
	for _, technicianID := range p.TechnicianIDs {
		f.bookings.add(technicianID, scheduling.Booking{
			Start:    p.Start,
			End:      p.End,
			SourceID: p.WorkOrderID,
			Title:    wo.Title,
		})
	}
	return nil
}

func (f *fakeWorkOrderStore) TechniciansByIDs(ctx context.Context, companyID string, ids []string) ([]db.Technician, error) {
	techs := make([]db.Technician, 0, len(ids))
	for _, id := range ids {
		techs = append(techs, db.Technician{ID: id, CompanyID: companyID})
	}
	return techs, nil
}

type fakeNotifier struct {
	confirmations int
}

func (f *fakeNotifier) SendScheduleConfirmation(wo *db.WorkOrder, start, end time.Time, crewSize int) {
	f.confirmations++
}

func sqlString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func sqlTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}

type harness struct {
	svc        *SchedulingService
	settings   *fakeSettings
	bookings   *fakeBookings
	workOrders *fakeWorkOrderStore
	notifier   *fakeNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	settings := &fakeSettings{settings: serviceTestSettings()}
	bookings := &fakeBookings{byTechnician: map[string][]scheduling.Booking{}}
	workOrders := &fakeWorkOrderStore{orders: map[string]*db.WorkOrder{}, bookings: bookings}
	notifier := &fakeNotifier{}

	svc := NewSchedulingService(settings, bookings, workOrders, notifier, zap.NewNop())
	// Fixed clock: Sunday noon, the day before the test Monday, so the
	// min-advance clamp never eats into the search range.
	svc.now = func() time.Time { return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC) }

	return &harness{svc: svc, settings: settings, bookings: bookings, workOrders: workOrders, notifier: notifier}
}

func (h *harness) addWorkOrder(id, status string, durationMinutes, crewSize int) *db.WorkOrder {
	wo := &db.WorkOrder{
		ID:              id,
		CompanyID:       testCompanyID,
		Code:            "WO-" + id,
		Title:           "Water heater replacement",
		CustomerName:    "Dana",
		CustomerEmail:   "dana@example.com",
		Status:          status,
		DurationMinutes: durationMinutes,
		CrewSize:        crewSize,
	}
	h.workOrders.orders[id] = wo
	return wo
}

func TestFindAvailabilityBlocksBookedWindow(t *testing.T) {
	h := newHarness(t)
	h.bookings.add("t1", scheduling.Booking{Start: mondayAt(10, 0), End: mondayAt(11, 0), SourceID: "evt-1", Title: "Site visit"})

	resp, err := h.svc.FindAvailability(context.Background(), testCompanyID, entities.AvailabilityRequest{
		TechnicianIDs:   []string{"t1"},
		DurationMinutes: 60,
		RangeStart:      mondayAt(8, 0),
		RangeEnd:        mondayAt(17, 0),
	})
	require.NoError(t, err)
	require.Len(t, resp.Suggestions, 1)

	starts := map[time.Time]bool{}
	for _, slot := range resp.Suggestions[0].AvailableSlots {
		starts[slot.Start] = true
	}
	assert.True(t, starts[mondayAt(8, 0)], "08:00 ends exactly at the buffer edge and stays free")
	assert.True(t, starts[mondayAt(12, 0)], "12:00 starts exactly at the buffer edge and stays free")
	assert.False(t, starts[mondayAt(8, 15)], "ending at 09:15 collides with the buffered booking")
	assert.False(t, starts[mondayAt(10, 0)], "direct overlap")
	assert.False(t, starts[mondayAt(11, 45)], "starting inside the post-booking buffer")
	assert.Empty(t, resp.Message)
}

func TestFindAvailabilityEmptyResultCarriesMessage(t *testing.T) {
	h := newHarness(t)
	h.bookings.add("t1", scheduling.Booking{Start: mondayAt(0, 0), End: mondayAt(23, 59), SourceID: "evt-1"})

	resp, err := h.svc.FindAvailability(context.Background(), testCompanyID, entities.AvailabilityRequest{
		TechnicianIDs:   []string{"t1"},
		DurationMinutes: 60,
		RangeStart:      mondayAt(8, 0),
		RangeEnd:        mondayAt(17, 0),
	})
	require.NoError(t, err)
	assert.Zero(t, resp.TotalSlots)
	assert.NotEmpty(t, resp.Message)
}

func TestFindAvailabilityCrewEmptyResultMentionsCrew(t *testing.T) {
	h := newHarness(t)
	h.bookings.add("t2", scheduling.Booking{Start: mondayAt(0, 0), End: mondayAt(23, 59), SourceID: "evt-1"})

	resp, err := h.svc.FindAvailability(context.Background(), testCompanyID, entities.AvailabilityRequest{
		TechnicianIDs:   []string{"t1", "t2"},
		DurationMinutes: 60,
		CrewRequired:    2,
		RangeStart:      mondayAt(8, 0),
		RangeEnd:        mondayAt(17, 0),
	})
	require.NoError(t, err)
	assert.Empty(t, resp.CrewSlots)
	assert.Contains(t, resp.Message, "crew")
}

func TestFindAvailabilityValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.FindAvailability(ctx, testCompanyID, entities.AvailabilityRequest{
		DurationMinutes: 60,
		RangeStart:      mondayAt(8, 0),
		RangeEnd:        mondayAt(17, 0),
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = h.svc.FindAvailability(ctx, testCompanyID, entities.AvailabilityRequest{
		TechnicianIDs:   []string{"t1"},
		DurationMinutes: 60,
		CrewRequired:    3,
		RangeStart:      mondayAt(8, 0),
		RangeEnd:        mondayAt(17, 0),
	})
	require.ErrorAs(t, err, &validationErr)
}

func TestCommitScheduleSuccess(t *testing.T) {
	h := newHarness(t)
	h.addWorkOrder("wo-1", db.StatusApproved, 60, 1)

	resp, err := h.svc.CommitSchedule(context.Background(), testCompanyID, "wo-1", entities.ScheduleRequest{
		Start:         mondayAt(9, 0),
		End:           mondayAt(10, 0),
		TechnicianIDs: []string{"t1"},
	})
	require.NoError(t, err)

	assert.Equal(t, db.StatusScheduled, resp.Status)
	assert.Equal(t, "t1", resp.AssignedTo)
	assert.Equal(t, mondayAt(9, 0), resp.ScheduledStart)
	assert.Equal(t, db.StatusScheduled, h.workOrders.orders["wo-1"].Status)
	assert.Equal(t, 1, h.notifier.confirmations)
}

func TestCommitScheduleConflictLeavesNoMutation(t *testing.T) {
	h := newHarness(t)
	h.addWorkOrder("wo-1", db.StatusApproved, 60, 1)
	h.bookings.add("t1", scheduling.Booking{Start: mondayAt(9, 30), End: mondayAt(10, 30), SourceID: "evt-1", Title: "Inspection"})

	_, err := h.svc.CommitSchedule(context.Background(), testCompanyID, "wo-1", entities.ScheduleRequest{
		Start:         mondayAt(9, 0),
		End:           mondayAt(10, 0),
		TechnicianIDs: []string{"t1"},
	})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "t1", conflict.TechnicianID)

	assert.Equal(t, db.StatusApproved, h.workOrders.orders["wo-1"].Status)
	assert.Zero(t, h.notifier.confirmations)
}

func TestCommitScheduleSecondCommitSeesFirst(t *testing.T) {
	h := newHarness(t)
	h.addWorkOrder("wo-1", db.StatusApproved, 60, 1)
	h.addWorkOrder("wo-2", db.StatusApproved, 60, 1)
	ctx := context.Background()

	req := entities.ScheduleRequest{
		Start:         mondayAt(9, 0),
		End:           mondayAt(10, 0),
		TechnicianIDs: []string{"t1"},
	}
	_, err := h.svc.CommitSchedule(ctx, testCompanyID, "wo-1", req)
	require.NoError(t, err)

	_, err = h.svc.CommitSchedule(ctx, testCompanyID, "wo-2", req)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, db.StatusApproved, h.workOrders.orders["wo-2"].Status)
}

func TestCommitScheduleRescheduleExcludesSelf(t *testing.T) {
	h := newHarness(t)
	h.addWorkOrder("wo-1", db.StatusApproved, 60, 1)
	ctx := context.Background()

	_, err := h.svc.CommitSchedule(ctx, testCompanyID, "wo-1", entities.ScheduleRequest{
		Start:         mondayAt(9, 0),
		End:           mondayAt(10, 0),
		TechnicianIDs: []string{"t1"},
	})
	require.NoError(t, err)

	// Moving the same work order a quarter hour later would collide with its
	// own previous booking if self-exclusion failed.
	resp, err := h.svc.CommitSchedule(ctx, testCompanyID, "wo-1", entities.ScheduleRequest{
		Start:         mondayAt(9, 15),
		End:           mondayAt(10, 15),
		TechnicianIDs: []string{"t1"},
	})
	require.NoError(t, err)
	assert.Equal(t, mondayAt(9, 15), resp.ScheduledStart)
}

func TestCommitScheduleStatusGuard(t *testing.T) {
	h := newHarness(t)
	h.addWorkOrder("wo-1", db.StatusCompleted, 60, 1)

	_, err := h.svc.CommitSchedule(context.Background(), testCompanyID, "wo-1", entities.ScheduleRequest{
		Start:         mondayAt(9, 0),
		End:           mondayAt(10, 0),
		TechnicianIDs: []string{"t1"},
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Zero(t, h.notifier.confirmations)
}

func TestCommitScheduleDepositGate(t *testing.T) {
	h := newHarness(t)
	h.settings.settings.RequireDepositBeforeScheduling = true
	wo := h.addWorkOrder("wo-1", db.StatusApproved, 60, 1)
	ctx := context.Background()

	req := entities.ScheduleRequest{
		Start:         mondayAt(9, 0),
		End:           mondayAt(10, 0),
		TechnicianIDs: []string{"t1"},
	}
	_, err := h.svc.CommitSchedule(ctx, testCompanyID, "wo-1", req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDepositRequired))

	wo.DepositAmount.Float64 = 150
	wo.DepositAmount.Valid = true
	wo.DepositMethod.String = "stripe"
	wo.DepositMethod.Valid = true

	_, err = h.svc.CommitSchedule(ctx, testCompanyID, "wo-1", req)
	require.NoError(t, err)
}

func TestCommitScheduleCrewAllOrNothing(t *testing.T) {
	h := newHarness(t)
	h.addWorkOrder("wo-1", db.StatusApproved, 60, 2)
	h.bookings.add("t2", scheduling.Booking{Start: mondayAt(9, 0), End: mondayAt(10, 0), SourceID: "evt-1", Title: "PTO"})

	_, err := h.svc.CommitSchedule(context.Background(), testCompanyID, "wo-1", entities.ScheduleRequest{
		Start:         mondayAt(9, 0),
		End:           mondayAt(10, 0),
		TechnicianIDs: []string{"t1", "t2"},
	})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "t2", conflict.TechnicianID)

	// The clean technician gained no booking either.
	assert.Empty(t, h.bookings.byTechnician["t1"])
	assert.Equal(t, db.StatusApproved, h.workOrders.orders["wo-1"].Status)
}

func TestAutoScheduleTakesEarliestSlot(t *testing.T) {
	h := newHarness(t)
	h.addWorkOrder("wo-1", db.StatusApproved, 60, 1)

	resp, err := h.svc.AutoSchedule(context.Background(), testCompanyID, "wo-1", entities.AvailabilityRequest{
		TechnicianIDs: []string{"t1"},
		RangeStart:    mondayAt(8, 0),
		RangeEnd:      mondayAt(17, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, mondayAt(8, 0), resp.ScheduledStart)
	assert.Equal(t, mondayAt(9, 0), resp.ScheduledEnd)
	assert.Equal(t, "t1", resp.AssignedTo)
}

func TestAutoScheduleNoSlotFails(t *testing.T) {
	h := newHarness(t)
	h.addWorkOrder("wo-1", db.StatusApproved, 60, 1)
	h.bookings.add("t1", scheduling.Booking{Start: mondayAt(0, 0), End: mondayAt(23, 59), SourceID: "evt-1"})

	_, err := h.svc.AutoSchedule(context.Background(), testCompanyID, "wo-1", entities.AvailabilityRequest{
		TechnicianIDs: []string{"t1"},
		RangeStart:    mondayAt(8, 0),
		RangeEnd:      mondayAt(17, 0),
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, db.StatusApproved, h.workOrders.orders["wo-1"].Status)
}
