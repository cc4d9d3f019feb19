package entities

import "time"

type ScheduleRequest struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
	TechnicianIDs   []string  `json:"technician_ids"`
}

type ScheduleResponse struct {
	WorkOrderID    string    `json:"work_order_id"`
	Code           string    `json:"code"`
	Status         string    `json:"status"`
	AssignedTo     string    `json:"assigned_to"`
	TechnicianIDs  []string  `json:"technician_ids"`
	ScheduledStart time.Time `json:"scheduled_start"`
	ScheduledEnd   time.Time `json:"scheduled_end"`
}

type WorkOrderResponse struct {
	ID              string     `json:"id"`
	Code            string     `json:"code"`
	Title           string     `json:"title"`
	CustomerName    string     `json:"customer_name"`
	CustomerEmail   string     `json:"customer_email"`
	CustomerPhone   string     `json:"customer_phone"`
	Status          string     `json:"status"`
	DurationMinutes int        `json:"duration_minutes"`
	CrewSize        int        `json:"crew_size"`
	AssignedTo      string     `json:"assigned_to,omitempty"`
	TechnicianIDs   []string   `json:"technician_ids,omitempty"`
	ScheduledStart  *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd    *time.Time `json:"scheduled_end,omitempty"`
	DepositAmount   float64    `json:"deposit_amount,omitempty"`
	DepositMethod   string     `json:"deposit_method,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type WorkOrdersList struct {
	Total      int64               `json:"total"`
	Limit      int                 `json:"limit"`
	Offset     int                 `json:"offset"`
	WorkOrders []WorkOrderResponse `json:"work_orders"`
}
