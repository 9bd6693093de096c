package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/courtsite/attribution/internal/api/response"
	"github.com/courtsite/attribution/internal/booking"
	apperrors "github.com/courtsite/attribution/internal/errors"
)

// PaymentWebhookHandler receives payment-provider webhook deliveries and runs
// the idempotent confirmation flow. The provider retries on non-2xx, so every
// settled delivery (including duplicates and vanished reservations) answers 200.
type PaymentWebhookHandler struct {
	service *booking.ConfirmationService
}

// NewPaymentWebhookHandler creates a new payment webhook handler
func NewPaymentWebhookHandler(service *booking.ConfirmationService) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{service: service}
}

type paymentWebhookResponse struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
}

// Handle processes one delivery
// Route: POST /v1/webhooks/payment
func (h *PaymentWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var event booking.PaymentEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		response.RespondBadRequest(w, "invalid JSON body")
		return
	}

	outcome, err := h.service.HandlePaymentWebhook(r.Context(), event)
	if err != nil {
		var validationErr *apperrors.ValidationError
		if errors.As(err, &validationErr) {
			response.RespondBadRequest(w, validationErr.Error())
			return
		}

		slog.Error("failed to process payment webhook",
			"delivery_id", event.DeliveryID,
			"reservation_id", event.ReservationID,
			"error", err,
		)
		response.RespondInternalServerError(w, "failed to process payment webhook")
		return
	}

	response.RespondJSON(w, http.StatusOK, paymentWebhookResponse{OK: true, Status: string(outcome)})
}
