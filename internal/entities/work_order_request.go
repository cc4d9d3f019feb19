package entities

type CreateWorkOrderRequest struct {
	Title           string `json:"title"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	DurationMinutes int    `json:"duration_minutes"`
	CrewSize        int    `json:"crew_size"`
}

type DepositCheckoutRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// UpdateSettingsRequest carries partial scheduling configuration edits.
// Pointer fields distinguish "leave unchanged" from explicit zero values.
type UpdateSettingsRequest struct {
	BusinessHoursStart             string `json:"business_hours_start"`
	BusinessHoursEnd               string `json:"business_hours_end"`
	BufferBeforeMinutes            *int   `json:"buffer_before_minutes"`
	BufferAfterMinutes             *int   `json:"buffer_after_minutes"`
	GranularityMinutes             *int   `json:"granularity_minutes"`
	WorkingDays                    []int  `json:"working_days"`
	MinAdvanceBookingHours         *int   `json:"min_advance_booking_hours"`
	MaxAdvanceBookingDays          *int   `json:"max_advance_booking_days"`
	RequireDepositBeforeScheduling *bool  `json:"require_deposit_before_scheduling"`
}

type SettingsResponse struct {
	CompanyID                      string `json:"company_id"`
	BusinessHoursStart             string `json:"business_hours_start"`
	BusinessHoursEnd               string `json:"business_hours_end"`
	BufferBeforeMinutes            int    `json:"buffer_before_minutes"`
	BufferAfterMinutes             int    `json:"buffer_after_minutes"`
	GranularityMinutes             int    `json:"granularity_minutes"`
	WorkingDays                    []int  `json:"working_days"`
	MinAdvanceBookingHours         int    `json:"min_advance_booking_hours"`
	MaxAdvanceBookingDays          int    `json:"max_advance_booking_days"`
	RequireDepositBeforeScheduling bool   `json:"require_deposit_before_scheduling"`
}
