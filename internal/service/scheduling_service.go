package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fieldservice/internal/db"
	"fieldservice/internal/entities"
	"fieldservice/internal/repository"
	"fieldservice/internal/scheduling"
)

// SettingsSource loads company configuration and per-technician capacity.
type SettingsSource interface {
	SchedulingSettings(ctx context.Context, companyID string) (scheduling.Settings, error)
	CapacityHoursPerDay(ctx context.Context, companyID, technicianID string) (float64, error)
}

// BookingSource fetches existing commitments for availability computation.
type BookingSource interface {
	BookingsInRange(ctx context.Context, companyID, technicianID string, from, to time.Time, excludeWorkOrderID string) ([]scheduling.Booking, error)
}

// WorkOrderStore is the slice of work-order persistence the scheduler needs.
type WorkOrderStore interface {
	WorkOrderByID(ctx context.Context, companyID, id string) (*db.WorkOrder, error)
	DepositInfo(ctx context.Context, companyID, id string) (float64, string, error)
	CommitSchedule(ctx context.Context, p repository.CommitParams, recheck repository.RecheckFunc) error
	TechniciansByIDs(ctx context.Context, companyID string, ids []string) ([]db.Technician, error)
}

// ScheduleNotifier sends the customer confirmation after a successful commit.
type ScheduleNotifier interface {
	SendScheduleConfirmation(wo *db.WorkOrder, start, end time.Time, crewSize int)
}

type SchedulingService struct {
	settings   SettingsSource
	bookings   BookingSource
	workOrders WorkOrderStore
	notifier   ScheduleNotifier
	logger     *zap.Logger
	now        func() time.Time
}

func NewSchedulingService(settings SettingsSource, bookings BookingSource, workOrders WorkOrderStore, notifier ScheduleNotifier, logger *zap.Logger) *SchedulingService {
	return &SchedulingService{
		settings:   settings,
		bookings:   bookings,
		workOrders: workOrders,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// fetchMargin widens booking queries beyond the window of interest so
// buffer-expanded neighbours just outside it are still seen.
func fetchMargin(settings scheduling.Settings) time.Duration {
	return settings.BufferBefore() + settings.BufferAfter()
}

// FindAvailability computes free slots for the requested technicians, and for
// crew requests the intersection of slots simultaneously free across the
// required number of them. Zero slots is a valid outcome carried back with
// guidance, not an error.
func (s *SchedulingService) FindAvailability(ctx context.Context, companyID string, req entities.AvailabilityRequest) (*entities.AvailabilityResponse, error) {
	if len(req.TechnicianIDs) == 0 {
		return nil, NewValidationError("at least one technician must be selected")
	}
	crewRequired := req.CrewRequired
	if crewRequired == 0 {
		crewRequired = 1
	}
	if crewRequired < 0 {
		return nil, NewValidationError("crew size must be at least 1")
	}
	if crewRequired > len(req.TechnicianIDs) {
		return nil, NewValidationError("crew of %d exceeds the %d selected technicians", crewRequired, len(req.TechnicianIDs))
	}

	settings, err := s.settings.SchedulingSettings(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("fetch scheduling settings: %w", err)
	}

	rangeStart, rangeEnd := settings.ClampRange(s.now(), req.RangeStart, req.RangeEnd)
	resp := &entities.AvailabilityResponse{
		SearchStart: rangeStart,
		SearchEnd:   rangeEnd,
	}
	if rangeStart.After(rangeEnd) {
		resp.Message = "The selected range is outside the booking window. Choose dates closer to today."
		return resp, nil
	}

	margin := fetchMargin(settings)
	perTechnician := make(map[string][]scheduling.Slot, len(req.TechnicianIDs))

	for _, technicianID := range req.TechnicianIDs {
		capacity, err := s.settings.CapacityHoursPerDay(ctx, companyID, technicianID)
		if err != nil {
			return nil, fmt.Errorf("fetch capacity for technician %s: %w", technicianID, err)
		}
		techSettings := settings
		techSettings.CapacityHoursPerDay = capacity

		bookings, err := s.bookings.BookingsInRange(ctx, companyID, technicianID,
			rangeStart.Add(-margin), rangeEnd.Add(margin), req.WorkOrderID)
		if err != nil {
			return nil, fmt.Errorf("fetch bookings for technician %s: %w", technicianID, err)
		}

		slots, err := scheduling.ComputeSlots(technicianID, req.DurationMinutes, rangeStart, rangeEnd, bookings, techSettings)
		if err != nil {
			if errors.Is(err, scheduling.ErrDurationTooShort) {
				return nil, NewValidationError("job duration must be at least %d minutes", settings.GranularityMinutes)
			}
			return nil, err
		}
		perTechnician[technicianID] = slots
	}

	if crewRequired > 1 {
		crewSlots, err := scheduling.IntersectForCrew(req.TechnicianIDs, perTechnician, crewRequired)
		if err != nil {
			return nil, NewValidationError("%s", err)
		}
		resp.CrewSlots = crewSlots
		resp.TotalSlots = len(crewSlots)
		if resp.TotalSlots == 0 {
			resp.Message = fmt.Sprintf("No overlapping slots found for a crew of %d in the selected range. Try widening the date range, reducing the duration, or adding technicians.", crewRequired)
		}
		return resp, nil
	}

	for _, technicianID := range req.TechnicianIDs {
		slots := perTechnician[technicianID]
		resp.Suggestions = append(resp.Suggestions, entities.TechnicianAvailability{
			TechnicianID:   technicianID,
			AvailableSlots: slots,
			TotalAvailable: len(slots),
		})
		resp.TotalSlots += len(slots)
	}
	if resp.TotalSlots == 0 {
		resp.Message = "No available slots found in the selected range. Try widening the date range or reducing the job duration."
	}
	return resp, nil
}

// CommitSchedule re-validates the chosen slot against fresh bookings and, if
// every technician is still free, moves the work order to scheduled with the
// crew assigned. All-or-nothing: one conflicting technician aborts the whole
// commit with no mutation.
func (s *SchedulingService) CommitSchedule(ctx context.Context, companyID, workOrderID string, req entities.ScheduleRequest) (*entities.ScheduleResponse, error) {
	if len(req.TechnicianIDs) == 0 {
		return nil, NewValidationError("at least one technician must be assigned")
	}
	if !req.Start.Before(req.End) {
		return nil, NewValidationError("scheduled start must precede scheduled end")
	}

	wo, err := s.workOrders.WorkOrderByID(ctx, companyID, workOrderID)
	if err != nil {
		return nil, err
	}
	if wo.Status != db.StatusApproved && wo.Status != db.StatusScheduled {
		return nil, NewValidationError("work order in status %q cannot be scheduled", wo.Status)
	}

	settings, err := s.settings.SchedulingSettings(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("fetch scheduling settings: %w", err)
	}

	if settings.RequireDepositBeforeScheduling {
		amount, method, err := s.workOrders.DepositInfo(ctx, companyID, workOrderID)
		if err != nil {
			return nil, err
		}
		if amount <= 0 || method == "" {
			return nil, ErrDepositRequired
		}
	}

	margin := fetchMargin(settings)
	params := repository.CommitParams{
		CompanyID:     companyID,
		WorkOrderID:   workOrderID,
		TechnicianIDs: req.TechnicianIDs,
		Start:         req.Start,
		End:           req.End,
		FetchFrom:     req.Start.Add(-margin),
		FetchTo:       req.End.Add(margin),
	}

	recheck := func(technicianID string, fresh []scheduling.Booking) error {
		fresh = scheduling.ExcludeSource(fresh, workOrderID)
		if hit := scheduling.FindConflict(fresh, req.Start, req.End, settings); hit != nil {
			return &ConflictError{
				TechnicianID: technicianID,
				BookingTitle: hit.Title,
				Start:        hit.Start,
				End:          hit.End,
			}
		}
		return nil
	}

	if err := s.workOrders.CommitSchedule(ctx, params, recheck); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			s.logger.Warn("schedule commit rejected",
				zap.String("work_order_id", workOrderID),
				zap.String("technician_id", conflict.TechnicianID),
				zap.Time("start", req.Start),
				zap.Time("end", req.End),
			)
		}
		return nil, err
	}

	s.logger.Info("work order scheduled",
		zap.String("work_order_id", workOrderID),
		zap.String("code", wo.Code),
		zap.Strings("technician_ids", req.TechnicianIDs),
		zap.Time("start", req.Start),
		zap.Time("end", req.End),
	)

	if s.notifier != nil {
		s.notifier.SendScheduleConfirmation(wo, req.Start, req.End, len(req.TechnicianIDs))
	}

	return &entities.ScheduleResponse{
		WorkOrderID:    workOrderID,
		Code:           wo.Code,
		Status:         db.StatusScheduled,
		AssignedTo:     req.TechnicianIDs[0],
		TechnicianIDs:  req.TechnicianIDs,
		ScheduledStart: req.Start,
		ScheduledEnd:   req.End,
	}, nil
}

// AutoSchedule books the earliest slot the requested crew can fill within the
// range. Relies on FindAvailability's chronological ordering.
func (s *SchedulingService) AutoSchedule(ctx context.Context, companyID, workOrderID string, req entities.AvailabilityRequest) (*entities.ScheduleResponse, error) {
	wo, err := s.workOrders.WorkOrderByID(ctx, companyID, workOrderID)
	if err != nil {
		return nil, err
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = wo.DurationMinutes
	}
	if req.CrewRequired == 0 {
		req.CrewRequired = wo.CrewSize
	}
	req.WorkOrderID = workOrderID

	availability, err := s.FindAvailability(ctx, companyID, req)
	if err != nil {
		return nil, err
	}

	var start, end time.Time
	var technicianIDs []string
	switch {
	case len(availability.CrewSlots) > 0:
		first := availability.CrewSlots[0]
		start, end, technicianIDs = first.Start, first.End, first.TechnicianIDs
	case len(availability.Suggestions) > 0:
		for _, suggestion := range availability.Suggestions {
			if len(suggestion.AvailableSlots) == 0 {
				continue
			}
			first := suggestion.AvailableSlots[0]
			if technicianIDs == nil || first.Start.Before(start) {
				start, end = first.Start, first.End
				technicianIDs = []string{suggestion.TechnicianID}
			}
		}
	}
	if technicianIDs == nil {
		return nil, NewValidationError("no open slot found for auto-scheduling; widen the range or reduce the duration")
	}

	return s.CommitSchedule(ctx, companyID, workOrderID, entities.ScheduleRequest{
		Start:         start,
		End:           end,
		TechnicianIDs: technicianIDs,
	})
}
