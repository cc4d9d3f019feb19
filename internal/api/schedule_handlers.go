package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"fieldservice/internal/entities"
	"fieldservice/internal/service"
)

type SchedulingHandler struct {
	Service *service.SchedulingService
}

func NewSchedulingHandler(svc *service.SchedulingService) *SchedulingHandler {
	return &SchedulingHandler{Service: svc}
}

func (h *SchedulingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req entities.AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	resp, err := h.Service.FindAvailability(r.Context(), companyID(r), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *SchedulingHandler) ScheduleWorkOrder(w http.ResponseWriter, r *http.Request) {
	workOrderID := mux.Vars(r)["id"]
	var req entities.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	resp, err := h.Service.CommitSchedule(r.Context(), companyID(r), workOrderID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// AutoScheduleWorkOrder books the earliest slot the requested technicians (or
// crew) can take inside the range.
func (h *SchedulingHandler) AutoScheduleWorkOrder(w http.ResponseWriter, r *http.Request) {
	workOrderID := mux.Vars(r)["id"]
	var req entities.AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	resp, err := h.Service.AutoSchedule(r.Context(), companyID(r), workOrderID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
