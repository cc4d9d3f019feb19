package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"fieldservice/internal/scheduling"
)

type SettingsRepository struct {
	DB *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{DB: db}
}

// SchedulingSettings loads a company's scheduling configuration, falling back
// to the defaults for an unknown company or malformed stored hours.
func (r *SettingsRepository) SchedulingSettings(ctx context.Context, companyID string) (scheduling.Settings, error) {
	settings := scheduling.DefaultSettings()
	settings.CompanyID = companyID

	var (
		hoursStart  string
		hoursEnd    string
		workingDays []int64
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT business_hours_start, business_hours_end,
		       default_buffer_before_minutes, default_buffer_after_minutes,
		       slot_granularity_minutes, working_days,
		       min_advance_booking_hours, max_advance_booking_days,
		       require_deposit_before_scheduling
		FROM companies WHERE id = $1`, companyID).Scan(
		&hoursStart, &hoursEnd,
		&settings.BufferBeforeMinutes, &settings.BufferAfterMinutes,
		&settings.GranularityMinutes, pq.Array(&workingDays),
		&settings.MinAdvanceBookingHours, &settings.MaxAdvanceBookingDays,
		&settings.RequireDepositBeforeScheduling,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return settings, nil
		}
		return settings, fmt.Errorf("error querying scheduling settings: %w", err)
	}

	if start, err := scheduling.ParseClock(hoursStart); err == nil {
		settings.BusinessHoursStart = start
	}
	if end, err := scheduling.ParseClock(hoursEnd); err == nil {
		settings.BusinessHoursEnd = end
	}
	if len(workingDays) > 0 {
		var days []time.Weekday
		for _, d := range workingDays {
			if d >= 0 && d <= 6 {
				days = append(days, time.Weekday(d))
			}
		}
		settings.WorkingDays = scheduling.Weekdays(days...)
	}
	return settings, nil
}

// UpdateSchedulingSettings persists dispatcher-edited configuration.
func (r *SettingsRepository) UpdateSchedulingSettings(ctx context.Context, settings scheduling.Settings) error {
	days := make([]int64, 0, 7)
	for _, d := range settings.WorkingDays.Days() {
		days = append(days, int64(d))
	}
	result, err := r.DB.ExecContext(ctx, `
		UPDATE companies
		SET business_hours_start = $2,
		    business_hours_end = $3,
		    default_buffer_before_minutes = $4,
		    default_buffer_after_minutes = $5,
		    slot_granularity_minutes = $6,
		    working_days = $7,
		    min_advance_booking_hours = $8,
		    max_advance_booking_days = $9,
		    require_deposit_before_scheduling = $10
		WHERE id = $1`,
		settings.CompanyID,
		settings.BusinessHoursStart.String(), settings.BusinessHoursEnd.String(),
		settings.BufferBeforeMinutes, settings.BufferAfterMinutes,
		settings.GranularityMinutes, pq.Array(days),
		settings.MinAdvanceBookingHours, settings.MaxAdvanceBookingDays,
		settings.RequireDepositBeforeScheduling,
	)
	if err != nil {
		return fmt.Errorf("error updating scheduling settings: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("company %s not found", settings.CompanyID)
	}
	return nil
}

// CapacityHoursPerDay returns a technician's daily booked-hours cap, or the
// default when the technician has none recorded.
func (r *SettingsRepository) CapacityHoursPerDay(ctx context.Context, companyID, technicianID string) (float64, error) {
	var capacity float64
	err := r.DB.QueryRowContext(ctx,
		`SELECT capacity_hours_per_day FROM technicians WHERE company_id = $1 AND id = $2`,
		companyID, technicianID).Scan(&capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return scheduling.DefaultCapacityHoursPerDay, nil
		}
		return 0, fmt.Errorf("error querying technician capacity: %w", err)
	}
	if capacity <= 0 {
		capacity = scheduling.DefaultCapacityHoursPerDay
	}
	return capacity, nil
}
