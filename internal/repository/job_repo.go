package repository

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/lib/pq"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{DB: db}
}

// GetScheduledIDsPastStart finds work orders whose scheduled window has begun
// but are still marked scheduled.
func (r *JobRepository) GetScheduledIDsPastStart() ([]string, error) {
	query := `SELECT id::text FROM work_orders WHERE status = 'scheduled' AND scheduled_start < NOW()`
	return r.queryIDs(query)
}

// GetInProgressIDsPastEnd finds in-progress work orders whose scheduled window
// has ended.
func (r *JobRepository) GetInProgressIDsPastEnd() ([]string, error) {
	query := `SELECT id::text FROM work_orders WHERE status = 'in_progress' AND scheduled_end < NOW()`
	return r.queryIDs(query)
}

func (r *JobRepository) queryIDs(query string) ([]string, error) {
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error querying work order ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning work order id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return ids, nil
}

// UpdateWorkOrderStatuses moves a batch of work orders to a new status.
func (r *JobRepository) UpdateWorkOrderStatuses(ids []string, newStatus string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE work_orders SET status = $1, updated_at = NOW() WHERE id = ANY($2::uuid[])`
	result, err := r.DB.Exec(query, newStatus, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error updating work order statuses: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Printf("Could not get rows affected: %v", err)
	} else {
		log.Printf("Updated status for %d work orders to '%s'", rowsAffected, newStatus)
	}
	return nil
}
