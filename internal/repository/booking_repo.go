package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fieldservice/internal/db"
	"fieldservice/internal/scheduling"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so booking reads can run
// inside the commit transaction or standalone.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{DB: db}
}

// BookingsInRange returns every commitment for a technician that overlaps
// [from, to): standalone schedule events, scheduled or in-progress work
// orders, and approved time off. excludeWorkOrderID drops the named work
// order's own booking so rescheduling it does not conflict with itself.
func (r *BookingRepository) BookingsInRange(ctx context.Context, companyID, technicianID string, from, to time.Time, excludeWorkOrderID string) ([]scheduling.Booking, error) {
	return bookingsInRange(ctx, r.DB, companyID, technicianID, from, to, excludeWorkOrderID)
}

func bookingsInRange(ctx context.Context, q DBTX, companyID, technicianID string, from, to time.Time, excludeWorkOrderID string) ([]scheduling.Booking, error) {
	query := `
	SELECT se.id::text, se.title, se.start_time, se.end_time
	FROM schedule_events se
	WHERE se.company_id = $1
	  AND se.technician_id = $2
	  AND se.start_time < $4 AND se.end_time > $3
	  AND ($5 = '' OR se.work_order_id IS NULL OR se.work_order_id::text <> $5)
	UNION ALL
	SELECT wo.id::text, wo.title, wo.scheduled_start, wo.scheduled_end
	FROM work_orders wo
	JOIN work_order_assignments wa ON wa.work_order_id = wo.id
	WHERE wo.company_id = $1
	  AND wa.technician_id = $2
	  AND wo.status IN ('scheduled', 'in_progress')
	  AND wo.scheduled_start < $4 AND wo.scheduled_end > $3
	  AND ($5 = '' OR wo.id::text <> $5)
	UNION ALL
	SELECT t.id::text, t.kind, t.starts_at, t.ends_at
	FROM technician_time_off t
	WHERE t.company_id = $1
	  AND t.technician_id = $2
	  AND t.status = 'APPROVED'
	  AND t.starts_at < $4 AND t.ends_at > $3
	ORDER BY 3
	`

	rows, err := q.QueryContext(ctx, query, companyID, technicianID, from, to, excludeWorkOrderID)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings for technician %s: %w", technicianID, err)
	}
	defer rows.Close()

	var bookings []scheduling.Booking
	for rows.Next() {
		b := scheduling.Booking{TechnicianID: technicianID}
		if err := rows.Scan(&b.SourceID, &b.Title, &b.Start, &b.End); err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating bookings: %w", err)
	}
	return bookings, nil
}

// CreateScheduleEvent inserts a standalone calendar event.
func (r *BookingRepository) CreateScheduleEvent(ctx context.Context, ev *db.ScheduleEvent) error {
	query := `
	INSERT INTO schedule_events (company_id, technician_id, title, event_type, start_time, end_time, work_order_id)
	VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid)
	RETURNING id`
	err := r.DB.QueryRowContext(ctx, query,
		ev.CompanyID, ev.TechnicianID, ev.Title, ev.EventType, ev.StartTime, ev.EndTime, ev.WorkOrderID.String,
	).Scan(&ev.ID)
	if err != nil {
		return fmt.Errorf("error creating schedule event: %w", err)
	}
	return nil
}
