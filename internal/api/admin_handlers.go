package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"fieldservice/internal/entities"
	"fieldservice/internal/scheduling"
	"fieldservice/internal/service"
)

type AdminHandler struct {
	Service *service.WorkOrderService
}

func NewAdminHandler(svc *service.WorkOrderService) *AdminHandler {
	return &AdminHandler{Service: svc}
}

func (h *AdminHandler) CreateWorkOrder(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateWorkOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	resp, err := h.Service.CreateWorkOrder(r.Context(), companyID(r), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (h *AdminHandler) GetWorkOrder(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.GetWorkOrder(r.Context(), companyID(r), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) ListWorkOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	list, err := h.Service.ListWorkOrders(r.Context(), companyID(r), status, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// AmendWorkOrder applies a dispatcher amendment. Supported actions:
// "unschedule" frees the committed window; "record_deposit" marks a deposit
// collected outside Stripe.
func (h *AdminHandler) AmendWorkOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		Action string  `json:"action"`
		Amount float64 `json:"amount"`
		Method string  `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	switch req.Action {
	case "unschedule":
		if err := h.Service.UnscheduleWorkOrder(r.Context(), companyID(r), id); err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, messageResponse{Message: "Work order unscheduled"})
	case "record_deposit":
		if err := h.Service.RecordManualDeposit(r.Context(), companyID(r), id, req.Amount, req.Method); err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, messageResponse{Message: "Deposit recorded"})
	default:
		http.Error(w, "Unknown action", http.StatusBadRequest)
	}
}

func (h *AdminHandler) CancelWorkOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.CancelWorkOrder(r.Context(), companyID(r), mux.Vars(r)["id"]); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Work order cancelled"})
}

func settingsResponse(settings scheduling.Settings) entities.SettingsResponse {
	days := make([]int, 0, 7)
	for _, d := range settings.WorkingDays.Days() {
		days = append(days, int(d))
	}
	return entities.SettingsResponse{
		CompanyID:                      settings.CompanyID,
		BusinessHoursStart:             settings.BusinessHoursStart.String(),
		BusinessHoursEnd:               settings.BusinessHoursEnd.String(),
		BufferBeforeMinutes:            settings.BufferBeforeMinutes,
		BufferAfterMinutes:             settings.BufferAfterMinutes,
		GranularityMinutes:             settings.GranularityMinutes,
		WorkingDays:                    days,
		MinAdvanceBookingHours:         settings.MinAdvanceBookingHours,
		MaxAdvanceBookingDays:          settings.MaxAdvanceBookingDays,
		RequireDepositBeforeScheduling: settings.RequireDepositBeforeScheduling,
	}
}

func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.SchedulingSettings(r.Context(), companyID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settingsResponse(settings))
}

func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req entities.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	settings, err := h.Service.UpdateSchedulingSettings(r.Context(), companyID(r), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settingsResponse(settings))
}
