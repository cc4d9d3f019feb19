package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"

	"fieldservice/internal/db"
	"fieldservice/internal/scheduling"
)

var ErrWorkOrderNotFound = errors.New("work order not found")

type WorkOrderRepository struct {
	DB *sql.DB
}

func NewWorkOrderRepository(database *sql.DB) *WorkOrderRepository {
	return &WorkOrderRepository{DB: database}
}

const workOrderColumns = `
	id, company_id, code, title, customer_name, customer_email, customer_phone,
	status, duration_minutes, crew_size, assigned_to, scheduled_start, scheduled_end,
	deposit_amount, deposit_method, stripe_session_id, created_at, updated_at`

func scanWorkOrder(row interface{ Scan(...any) error }) (*db.WorkOrder, error) {
	var wo db.WorkOrder
	err := row.Scan(
		&wo.ID, &wo.CompanyID, &wo.Code, &wo.Title, &wo.CustomerName, &wo.CustomerEmail, &wo.CustomerPhone,
		&wo.Status, &wo.DurationMinutes, &wo.CrewSize, &wo.AssignedTo, &wo.ScheduledStart, &wo.ScheduledEnd,
		&wo.DepositAmount, &wo.DepositMethod, &wo.StripeSessionID, &wo.CreatedAt, &wo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWorkOrderNotFound
		}
		return nil, err
	}
	return &wo, nil
}

func (r *WorkOrderRepository) WorkOrderByID(ctx context.Context, companyID, id string) (*db.WorkOrder, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT`+workOrderColumns+` FROM work_orders WHERE company_id = $1 AND id = $2`, companyID, id)
	return scanWorkOrder(row)
}

func (r *WorkOrderRepository) WorkOrderByCode(ctx context.Context, companyID, code string) (*db.WorkOrder, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT`+workOrderColumns+` FROM work_orders WHERE company_id = $1 AND code = $2`, companyID, code)
	return scanWorkOrder(row)
}

func (r *WorkOrderRepository) WorkOrderByStripeSessionID(ctx context.Context, sessionID string) (*db.WorkOrder, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT`+workOrderColumns+` FROM work_orders WHERE stripe_session_id = $1`, sessionID)
	return scanWorkOrder(row)
}

// DepositInfo returns the recorded deposit for the deposit-before-scheduling
// gate. A work order without a recorded deposit yields (0, "").
func (r *WorkOrderRepository) DepositInfo(ctx context.Context, companyID, id string) (float64, string, error) {
	var amount sql.NullFloat64
	var method sql.NullString
	err := r.DB.QueryRowContext(ctx,
		`SELECT deposit_amount, deposit_method FROM work_orders WHERE company_id = $1 AND id = $2`,
		companyID, id).Scan(&amount, &method)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", ErrWorkOrderNotFound
		}
		return 0, "", fmt.Errorf("error querying deposit info: %w", err)
	}
	return amount.Float64, method.String, nil
}

func (r *WorkOrderRepository) Create(ctx context.Context, wo *db.WorkOrder) error {
	query := `
	INSERT INTO work_orders (company_id, code, title, customer_name, customer_email, customer_phone, status, duration_minutes, crew_size)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		wo.CompanyID, wo.Code, wo.Title, wo.CustomerName, wo.CustomerEmail, wo.CustomerPhone,
		wo.Status, wo.DurationMinutes, wo.CrewSize,
	).Scan(&wo.ID, &wo.CreatedAt, &wo.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating work order: %w", err)
	}
	return nil
}

func (r *WorkOrderRepository) List(ctx context.Context, companyID, status string, limit, offset int) ([]db.WorkOrder, int64, error) {
	query := `SELECT` + workOrderColumns + ` FROM work_orders WHERE company_id = $1`
	countQuery := `SELECT COUNT(*) FROM work_orders WHERE company_id = $1`
	args := []interface{}{companyID}
	idx := 2

	if status != "" {
		clause := " AND status = $" + strconv.Itoa(idx)
		query += clause
		countQuery += clause
		args = append(args, status)
		idx++
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting work orders: %w", err)
	}

	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(idx) + " OFFSET $" + strconv.Itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing work orders: %w", err)
	}
	defer rows.Close()

	var orders []db.WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *wo)
	}
	return orders, total, rows.Err()
}

func (r *WorkOrderRepository) UpdateStatus(ctx context.Context, companyID, id, status string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE work_orders SET status = $3, updated_at = NOW() WHERE company_id = $1 AND id = $2`,
		companyID, id, status)
	if err != nil {
		return fmt.Errorf("error updating work order status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return ErrWorkOrderNotFound
	}
	return nil
}

// Unschedule clears the scheduled window and crew and returns the work order
// to approved.
func (r *WorkOrderRepository) Unschedule(ctx context.Context, companyID, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE work_orders
		 SET status = 'approved', assigned_to = NULL, scheduled_start = NULL, scheduled_end = NULL, updated_at = NOW()
		 WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return fmt.Errorf("error unscheduling work order: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM work_order_assignments WHERE work_order_id = $1`, id); err != nil {
		return fmt.Errorf("error clearing assignments: %w", err)
	}
	return tx.Commit()
}

func (r *WorkOrderRepository) SetStripeSession(ctx context.Context, companyID, id, sessionID string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE work_orders SET stripe_session_id = $3, updated_at = NOW() WHERE company_id = $1 AND id = $2`,
		companyID, id, sessionID)
	if err != nil {
		return fmt.Errorf("error storing stripe session: %w", err)
	}
	return nil
}

// RecordDeposit writes the collected deposit onto the work order. Called from
// the Stripe webhook once the checkout session completes.
func (r *WorkOrderRepository) RecordDeposit(ctx context.Context, id string, amount float64, method string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE work_orders SET deposit_amount = $2, deposit_method = $3, updated_at = NOW() WHERE id = $1`,
		id, amount, method)
	if err != nil {
		return fmt.Errorf("error recording deposit: %w", err)
	}
	return nil
}

// AssignedTechnicianIDs returns the crew recorded for a work order, primary
// first.
func (r *WorkOrderRepository) AssignedTechnicianIDs(ctx context.Context, workOrderID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT technician_id::text FROM work_order_assignments WHERE work_order_id = $1 ORDER BY position`,
		workOrderID)
	if err != nil {
		return nil, fmt.Errorf("error querying assignments: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CommitParams carries everything the schedule commit needs. FetchFrom and
// FetchTo over-fetch beyond the slot window so buffer-expanded neighbours are
// seen by the re-check.
type CommitParams struct {
	CompanyID     string
	WorkOrderID   string
	TechnicianIDs []string
	Start         time.Time
	End           time.Time
	FetchFrom     time.Time
	FetchTo       time.Time
}

// RecheckFunc re-validates one technician's freshly fetched bookings. A
// non-nil error aborts the whole commit.
type RecheckFunc func(technicianID string, fresh []scheduling.Booking) error

// CommitSchedule re-reads each technician's bookings, runs the conflict
// re-check, and applies the schedule mutation, all inside one transaction:
// either every technician passes and the work order is scheduled, or nothing
// is written. The fresh reads and the write sharing a transaction closes the
// window between check and commit.
func (r *WorkOrderRepository) CommitSchedule(ctx context.Context, p CommitParams, recheck RecheckFunc) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, technicianID := range p.TechnicianIDs {
		fresh, err := bookingsInRange(ctx, tx, p.CompanyID, technicianID, p.FetchFrom, p.FetchTo, p.WorkOrderID)
		if err != nil {
			return err
		}
		if err := recheck(technicianID, fresh); err != nil {
			return err
		}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE work_orders
		 SET status = 'scheduled', assigned_to = $3, scheduled_start = $4, scheduled_end = $5, updated_at = NOW()
		 WHERE company_id = $1 AND id = $2`,
		p.CompanyID, p.WorkOrderID, p.TechnicianIDs[0], p.Start, p.End)
	if err != nil {
		return fmt.Errorf("error scheduling work order: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return ErrWorkOrderNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM work_order_assignments WHERE work_order_id = $1`, p.WorkOrderID); err != nil {
		return fmt.Errorf("error clearing assignments: %w", err)
	}
	for i, technicianID := range p.TechnicianIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO work_order_assignments (work_order_id, technician_id, position) VALUES ($1, $2, $3)`,
			p.WorkOrderID, technicianID, i); err != nil {
			return fmt.Errorf("error recording assignment for %s: %w", technicianID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// TechniciansByIDs resolves technician rows for messaging, keeping input order.
func (r *WorkOrderRepository) TechniciansByIDs(ctx context.Context, companyID string, ids []string) ([]db.Technician, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id::text, company_id::text, full_name, email, phone, capacity_hours_per_day, active
		 FROM technicians WHERE company_id = $1 AND id = ANY($2::uuid[])`,
		companyID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("error querying technicians: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]db.Technician)
	for rows.Next() {
		var t db.Technician
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.FullName, &t.Email, &t.Phone, &t.CapacityHoursPerDay, &t.Active); err != nil {
			return nil, err
		}
		byID[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]db.Technician, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			ordered = append(ordered, t)
		}
	}
	return ordered, nil
}
