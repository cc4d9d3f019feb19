package db

import (
	"database/sql"
	"time"
)

// Work order statuses relevant to scheduling. Only approved (and re-entrant
// scheduled) work orders accept a new schedule commit.
const (
	StatusApproved   = "approved"
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

type Company struct {
	ID                             string
	Name                           string
	BusinessHoursStart             string
	BusinessHoursEnd               string
	DefaultBufferBeforeMinutes     int
	DefaultBufferAfterMinutes      int
	SlotGranularityMinutes         int
	WorkingDays                    []int
	MinAdvanceBookingHours         int
	MaxAdvanceBookingDays          int
	RequireDepositBeforeScheduling bool
}

type Technician struct {
	ID                  string
	CompanyID           string
	FullName            string
	Email               string
	Phone               string
	CapacityHoursPerDay float64
	Active              bool
}

type WorkOrder struct {
	ID              string
	CompanyID       string
	Code            string
	Title           string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	Status          string
	DurationMinutes int
	CrewSize        int
	AssignedTo      sql.NullString
	ScheduledStart  sql.NullTime
	ScheduledEnd    sql.NullTime
	DepositAmount   sql.NullFloat64
	DepositMethod   sql.NullString
	StripeSessionID sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ScheduleEvent is a standalone calendar commitment for a technician that is
// not necessarily backed by a work order (meetings, site visits, holds).
type ScheduleEvent struct {
	ID           string
	CompanyID    string
	TechnicianID string
	Title        string
	EventType    string
	StartTime    time.Time
	EndTime      time.Time
	WorkOrderID  sql.NullString
}

// TimeOff is an approved leave interval that blocks scheduling.
type TimeOff struct {
	ID           string
	CompanyID    string
	TechnicianID string
	Kind         string
	Status       string
	StartsAt     time.Time
	EndsAt       time.Time
}

type Dispatcher struct {
	ID           int
	CompanyID    string
	Email        string
	PasswordHash string
}
