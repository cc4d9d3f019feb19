package entities

import (
	"time"

	"fieldservice/internal/scheduling"
)

type AvailabilityRequest struct {
	TechnicianIDs   []string  `json:"technician_ids"`
	DurationMinutes int       `json:"duration_minutes"`
	CrewRequired    int       `json:"crew_required"`
	RangeStart      time.Time `json:"range_start"`
	RangeEnd        time.Time `json:"range_end"`
	// WorkOrderID, when set, excludes that work order's own booking so a job
	// being rescheduled does not block itself.
	WorkOrderID string `json:"work_order_id,omitempty"`
}

type TechnicianAvailability struct {
	TechnicianID   string            `json:"technician_id"`
	AvailableSlots []scheduling.Slot `json:"available_slots"`
	TotalAvailable int               `json:"total_available"`
}

type AvailabilityResponse struct {
	Suggestions []TechnicianAvailability `json:"suggestions,omitempty"`
	CrewSlots   []scheduling.CrewSlot    `json:"crew_slots,omitempty"`
	TotalSlots  int                      `json:"total_slots"`
	SearchStart time.Time                `json:"search_start"`
	SearchEnd   time.Time                `json:"search_end"`
	// Message carries next-step guidance when no slots were found; an empty
	// result is an expected outcome, not an error.
	Message string `json:"message,omitempty"`
}
