package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"fieldservice/internal/auth"
	httperr "fieldservice/internal/errors"
	"fieldservice/internal/repository"
	"fieldservice/internal/service"
)

type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondServiceError translates service errors into HTTP status codes:
// validation failures 400, unknown work orders 404, commit-time booking
// conflicts 409, everything else 500.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	var conflictErr *service.ConflictError
	switch {
	case errors.As(err, &validationErr):
		httperr.NewHTTPError(http.StatusBadRequest, validationErr.Reason).Write(w)
	case errors.As(err, &conflictErr):
		httperr.NewHTTPError(http.StatusConflict, conflictErr.Error()).
			WithDetail("technician_id", conflictErr.TechnicianID).
			Write(w)
	case errors.Is(err, repository.ErrWorkOrderNotFound):
		httperr.NewHTTPError(http.StatusNotFound, "Work order not found").Write(w)
	default:
		httperr.NewHTTPError(http.StatusInternalServerError, "Internal server error").Write(w)
	}
}

// companyID resolves the tenant for a request: the JWT claim when the route is
// authenticated, otherwise the X-Company-ID header the public frontend sends.
func companyID(r *http.Request) string {
	if id := auth.CompanyID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Company-ID")
}
