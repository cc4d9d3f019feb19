package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fieldservice/internal/db"
	"fieldservice/internal/entities"
	"fieldservice/internal/repository"
	"fieldservice/internal/scheduling"
)

// WorkOrderService owns the dispatcher-facing work order lifecycle around the
// scheduling engine: intake, listing, deposits, unscheduling, cancellation.
type WorkOrderService struct {
	workOrders    *repository.WorkOrderRepository
	settings      *repository.SettingsRepository
	stripeService *StripeService
	sender        *SenderService
	logger        *zap.Logger
}

func NewWorkOrderService(
	workOrders *repository.WorkOrderRepository,
	settings *repository.SettingsRepository,
	stripeService *StripeService,
	sender *SenderService,
	logger *zap.Logger,
) *WorkOrderService {
	return &WorkOrderService{
		workOrders:    workOrders,
		settings:      settings,
		stripeService: stripeService,
		sender:        sender,
		logger:        logger,
	}
}

func workOrderResponse(wo *db.WorkOrder) entities.WorkOrderResponse {
	resp := entities.WorkOrderResponse{
		ID:              wo.ID,
		Code:            wo.Code,
		Title:           wo.Title,
		CustomerName:    wo.CustomerName,
		CustomerEmail:   wo.CustomerEmail,
		CustomerPhone:   wo.CustomerPhone,
		Status:          wo.Status,
		DurationMinutes: wo.DurationMinutes,
		CrewSize:        wo.CrewSize,
		AssignedTo:      wo.AssignedTo.String,
		DepositAmount:   wo.DepositAmount.Float64,
		DepositMethod:   wo.DepositMethod.String,
		CreatedAt:       wo.CreatedAt,
		UpdatedAt:       wo.UpdatedAt,
	}
	if wo.ScheduledStart.Valid {
		start := wo.ScheduledStart.Time
		resp.ScheduledStart = &start
	}
	if wo.ScheduledEnd.Valid {
		end := wo.ScheduledEnd.Time
		resp.ScheduledEnd = &end
	}
	return resp
}

func (s *WorkOrderService) CreateWorkOrder(ctx context.Context, companyID string, req entities.CreateWorkOrderRequest) (*entities.WorkOrderResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, NewValidationError("title cannot be empty")
	}
	if req.DurationMinutes <= 0 {
		return nil, NewValidationError("duration_minutes must be positive")
	}
	if req.CrewSize <= 0 {
		req.CrewSize = 1
	}

	wo := &db.WorkOrder{
		CompanyID:       companyID,
		Code:            "WO-" + strings.ToUpper(uuid.New().String()[:8]),
		Title:           req.Title,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		Status:          db.StatusApproved,
		DurationMinutes: req.DurationMinutes,
		CrewSize:        req.CrewSize,
	}
	if err := s.workOrders.Create(ctx, wo); err != nil {
		return nil, err
	}
	resp := workOrderResponse(wo)
	return &resp, nil
}

func (s *WorkOrderService) GetWorkOrder(ctx context.Context, companyID, id string) (*entities.WorkOrderResponse, error) {
	wo, err := s.workOrders.WorkOrderByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	resp := workOrderResponse(wo)
	if wo.Status == db.StatusScheduled || wo.Status == db.StatusInProgress {
		if ids, err := s.workOrders.AssignedTechnicianIDs(ctx, wo.ID); err == nil {
			resp.TechnicianIDs = ids
		}
	}
	return &resp, nil
}

func (s *WorkOrderService) ListWorkOrders(ctx context.Context, companyID, status string, limit, offset int) (*entities.WorkOrdersList, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	orders, total, err := s.workOrders.List(ctx, companyID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	list := &entities.WorkOrdersList{
		Total:      total,
		Limit:      limit,
		Offset:     offset,
		WorkOrders: make([]entities.WorkOrderResponse, 0, len(orders)),
	}
	for i := range orders {
		list.WorkOrders = append(list.WorkOrders, workOrderResponse(&orders[i]))
	}
	return list, nil
}

// UnscheduleWorkOrder clears a committed schedule, returning the work order to
// the approved pool so it can be rebooked.
func (s *WorkOrderService) UnscheduleWorkOrder(ctx context.Context, companyID, id string) error {
	wo, err := s.workOrders.WorkOrderByID(ctx, companyID, id)
	if err != nil {
		return err
	}
	if wo.Status != db.StatusScheduled {
		return NewValidationError("work order %s is %s, only scheduled work orders can be unscheduled", wo.Code, wo.Status)
	}
	if err := s.workOrders.Unschedule(ctx, companyID, id); err != nil {
		return err
	}
	s.logger.Info("work order unscheduled",
		zap.String("company_id", companyID),
		zap.String("work_order", wo.Code),
	)
	return nil
}

// CancelWorkOrder cancels a work order. A deposit collected through Stripe is
// refunded before the customer is notified.
func (s *WorkOrderService) CancelWorkOrder(ctx context.Context, companyID, id string) error {
	wo, err := s.workOrders.WorkOrderByID(ctx, companyID, id)
	if err != nil {
		return err
	}
	if wo.Status == db.StatusCancelled {
		return NewValidationError("work order %s is already cancelled", wo.Code)
	}
	if wo.Status == db.StatusCompleted {
		return NewValidationError("work order %s is completed and cannot be cancelled", wo.Code)
	}

	refunded := false
	if wo.StripeSessionID.Valid && wo.DepositAmount.Valid && wo.DepositAmount.Float64 > 0 {
		if err := s.stripeService.RefundPaymentBySessionID(wo.StripeSessionID.String); err != nil {
			s.logger.Error("deposit refund failed",
				zap.String("work_order", wo.Code),
				zap.String("session_id", wo.StripeSessionID.String),
				zap.Error(err),
			)
			return fmt.Errorf("refunding deposit for %s: %w", wo.Code, err)
		}
		refunded = true
	}

	if err := s.workOrders.UpdateStatus(ctx, companyID, id, db.StatusCancelled); err != nil {
		return err
	}
	s.sender.SendCancellationNotice(wo, refunded)
	s.logger.Info("work order cancelled",
		zap.String("company_id", companyID),
		zap.String("work_order", wo.Code),
		zap.Bool("deposit_refunded", refunded),
	)
	return nil
}

// StartDepositCheckout opens a Stripe Checkout session for the work order's
// scheduling deposit and remembers the session on the row so the webhook can
// find it.
func (s *WorkOrderService) StartDepositCheckout(ctx context.Context, companyID, id string, amountCents int64, currency string) (string, error) {
	if amountCents <= 0 {
		return "", NewValidationError("deposit amount must be positive")
	}
	if currency == "" {
		currency = "usd"
	}

	wo, err := s.workOrders.WorkOrderByID(ctx, companyID, id)
	if err != nil {
		return "", err
	}
	if wo.Status == db.StatusCancelled || wo.Status == db.StatusCompleted {
		return "", NewValidationError("work order %s is %s and cannot take a deposit", wo.Code, wo.Status)
	}
	if wo.DepositAmount.Valid && wo.DepositAmount.Float64 > 0 {
		return "", NewValidationError("work order %s already has a recorded deposit", wo.Code)
	}

	url, sessionID, err := s.stripeService.CreateDepositCheckoutSession(amountCents, currency, wo.Code, wo.CustomerEmail)
	if err != nil {
		return "", fmt.Errorf("creating deposit checkout session: %w", err)
	}
	if err := s.workOrders.SetStripeSession(ctx, companyID, id, sessionID); err != nil {
		return "", err
	}
	return url, nil
}

// RecordStripeDeposit marks the deposit paid once Stripe confirms the
// checkout session completed. amountCents comes from the session's
// amount_total.
func (s *WorkOrderService) RecordStripeDeposit(ctx context.Context, sessionID string, amountCents int64) error {
	wo, err := s.workOrders.WorkOrderByStripeSessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	amount := float64(amountCents) / 100
	if err := s.workOrders.RecordDeposit(ctx, wo.ID, amount, "stripe"); err != nil {
		return err
	}
	s.logger.Info("deposit recorded",
		zap.String("work_order", wo.Code),
		zap.Float64("amount", amount),
	)
	return nil
}

// WorkOrderBySession resolves a work order from its Stripe checkout session,
// used by the deposit confirmation page.
func (s *WorkOrderService) WorkOrderBySession(ctx context.Context, sessionID string) (*entities.WorkOrderResponse, error) {
	wo, err := s.workOrders.WorkOrderByStripeSessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	resp := workOrderResponse(wo)
	return &resp, nil
}

// RecordManualDeposit lets a dispatcher mark a deposit collected outside
// Stripe (cash, check, bank transfer).
func (s *WorkOrderService) RecordManualDeposit(ctx context.Context, companyID, id string, amount float64, method string) error {
	if amount <= 0 {
		return NewValidationError("deposit amount must be positive")
	}
	if method == "" {
		method = "manual"
	}
	wo, err := s.workOrders.WorkOrderByID(ctx, companyID, id)
	if err != nil {
		return err
	}
	return s.workOrders.RecordDeposit(ctx, wo.ID, amount, method)
}

func (s *WorkOrderService) SchedulingSettings(ctx context.Context, companyID string) (scheduling.Settings, error) {
	return s.settings.SchedulingSettings(ctx, companyID)
}

// UpdateSchedulingSettings validates and persists dispatcher-edited scheduling
// configuration.
func (s *WorkOrderService) UpdateSchedulingSettings(ctx context.Context, companyID string, req entities.UpdateSettingsRequest) (scheduling.Settings, error) {
	settings, err := s.settings.SchedulingSettings(ctx, companyID)
	if err != nil {
		return settings, err
	}

	if req.BusinessHoursStart != "" {
		start, err := scheduling.ParseClock(req.BusinessHoursStart)
		if err != nil {
			return settings, NewValidationError("invalid business_hours_start: %v", err)
		}
		settings.BusinessHoursStart = start
	}
	if req.BusinessHoursEnd != "" {
		end, err := scheduling.ParseClock(req.BusinessHoursEnd)
		if err != nil {
			return settings, NewValidationError("invalid business_hours_end: %v", err)
		}
		settings.BusinessHoursEnd = end
	}
	if settings.BusinessHoursEnd.Minutes() <= settings.BusinessHoursStart.Minutes() {
		return settings, NewValidationError("business hours end must be after start")
	}
	if req.BufferBeforeMinutes != nil {
		if *req.BufferBeforeMinutes < 0 {
			return settings, NewValidationError("buffer_before_minutes cannot be negative")
		}
		settings.BufferBeforeMinutes = *req.BufferBeforeMinutes
	}
	if req.BufferAfterMinutes != nil {
		if *req.BufferAfterMinutes < 0 {
			return settings, NewValidationError("buffer_after_minutes cannot be negative")
		}
		settings.BufferAfterMinutes = *req.BufferAfterMinutes
	}
	if req.GranularityMinutes != nil {
		if *req.GranularityMinutes <= 0 {
			return settings, NewValidationError("granularity_minutes must be positive")
		}
		settings.GranularityMinutes = *req.GranularityMinutes
	}
	if len(req.WorkingDays) > 0 {
		days := make([]time.Weekday, 0, len(req.WorkingDays))
		for _, d := range req.WorkingDays {
			if d < 0 || d > 6 {
				return settings, NewValidationError("working day %d out of range 0-6", d)
			}
			days = append(days, time.Weekday(d))
		}
		settings.WorkingDays = scheduling.Weekdays(days...)
	}
	if req.MinAdvanceBookingHours != nil {
		if *req.MinAdvanceBookingHours < 0 {
			return settings, NewValidationError("min_advance_booking_hours cannot be negative")
		}
		settings.MinAdvanceBookingHours = *req.MinAdvanceBookingHours
	}
	if req.MaxAdvanceBookingDays != nil {
		if *req.MaxAdvanceBookingDays <= 0 {
			return settings, NewValidationError("max_advance_booking_days must be positive")
		}
		settings.MaxAdvanceBookingDays = *req.MaxAdvanceBookingDays
	}
	if req.RequireDepositBeforeScheduling != nil {
		settings.RequireDepositBeforeScheduling = *req.RequireDepositBeforeScheduling
	}

	settings.CompanyID = companyID
	if err := s.settings.UpdateSchedulingSettings(ctx, settings); err != nil {
		return settings, err
	}
	return settings, nil
}
