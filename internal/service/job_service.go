package service

import (
	"fmt"
	"log"

	"fieldservice/internal/db"
	"fieldservice/internal/repository"
)

type JobService struct {
	Repo *repository.JobRepository
}

func NewJobService(repo *repository.JobRepository) *JobService {
	return &JobService{Repo: repo}
}

// StartDueWorkOrders moves scheduled work orders whose start time has passed
// to "in_progress".
func (s *JobService) StartDueWorkOrders() error {
	log.Println("Cron Job: Checking for scheduled work orders past their start time...")

	ids, err := s.Repo.GetScheduledIDsPastStart()
	if err != nil {
		return fmt.Errorf("cron job: failed to get scheduled work orders past start: %w", err)
	}

	if len(ids) == 0 {
		log.Println("Cron Job: No scheduled work orders found past their start time.")
		return nil
	}

	log.Printf("Cron Job: Found %d work orders to mark as 'in_progress'. IDs: %v", len(ids), ids)

	err = s.Repo.UpdateWorkOrderStatuses(ids, db.StatusInProgress)
	if err != nil {
		return fmt.Errorf("cron job: failed to update work order statuses: %w", err)
	}

	log.Printf("Cron Job: Successfully updated %d work orders to 'in_progress'.", len(ids))
	return nil
}

// CompleteFinishedWorkOrders moves in-progress work orders whose scheduled end
// has passed to "completed".
func (s *JobService) CompleteFinishedWorkOrders() error {
	log.Println("Cron Job: Checking for in-progress work orders past their end time...")

	ids, err := s.Repo.GetInProgressIDsPastEnd()
	if err != nil {
		return fmt.Errorf("cron job: failed to get in-progress work orders past end: %w", err)
	}

	if len(ids) == 0 {
		log.Println("Cron Job: No in-progress work orders found past their end time.")
		return nil
	}

	log.Printf("Cron Job: Found %d work orders to mark as 'completed'. IDs: %v", len(ids), ids)

	err = s.Repo.UpdateWorkOrderStatuses(ids, db.StatusCompleted)
	if err != nil {
		return fmt.Errorf("cron job: failed to update work order statuses: %w", err)
	}

	log.Printf("Cron Job: Successfully updated %d work orders to 'completed'.", len(ids))
	return nil
}
