package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"fieldservice/internal/entities"
	"fieldservice/internal/service"
)

type StripeWebhookHandler struct {
	StripeSecret     string
	workOrderService *service.WorkOrderService
}

func NewStripeWebhookHandler(stripeSecret string, workOrderService *service.WorkOrderService) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		StripeSecret:     stripeSecret,
		workOrderService: workOrderService,
	}
}

// StartDepositCheckout opens a Stripe Checkout session for a work order's
// scheduling deposit and returns the redirect URL.
func (h *StripeWebhookHandler) StartDepositCheckout(w http.ResponseWriter, r *http.Request) {
	workOrderID := mux.Vars(r)["id"]
	var req entities.DepositCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	url, err := h.workOrderService.StartDepositCheckout(r.Context(), companyID(r), workOrderID, req.AmountCents, req.Currency)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"checkout_url": url})
}

func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading body: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.StripeSecret)
	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			log.Printf("Error parsing checkout.session: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if sess.ID == "" {
			log.Printf("No session ID in checkout.session.completed")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.workOrderService.RecordStripeDeposit(r.Context(), sess.ID, sess.AmountTotal); err != nil {
			log.Printf("Error recording deposit for session %s: %v", sess.ID, err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	default:
		log.Printf("Unhandled event type: %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}

// GetWorkOrderBySessionID backs the deposit confirmation page: the frontend
// only knows the checkout session it came back from.
func (h *StripeWebhookHandler) GetWorkOrderBySessionID(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}
	wo, err := h.workOrderService.WorkOrderBySession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Work order not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, wo)
}
