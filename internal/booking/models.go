// Package booking holds the reservation domain consumed by the attribution
// pipeline: the reservation record carrying the webhook dedup columns and the
// payment-confirmation flow that reports purchases.
package booking

import (
	"time"

	"github.com/google/uuid"
)

// Reservation statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Reservation is a court/coach slot booking. WebhookEventID and
// WebhookProcessedAt are the dedup ledger columns: at most one reservation may
// hold a given delivery id, and the processed timestamp is set exactly once.
type Reservation struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	CourtID   string    `json:"court_id"`
	CoachID   string    `json:"coach_id,omitempty"`
	SlotStart time.Time `json:"slot_start"`
	SlotEnd   time.Time `json:"slot_end"`
	Status    string    `json:"status"`
	Value     float64   `json:"value"`
	Currency  string    `json:"currency"`

	WebhookEventID     *string    `json:"webhook_event_id,omitempty"`
	WebhookProcessedAt *time.Time `json:"webhook_processed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaymentEvent is the payment provider's webhook delivery as seen by the
// confirmation flow. DeliveryID is the provider's delivery identifier (the
// dedup key), distinct from the tracking event id. CheckoutEventID, when the
// checkout flow stored it in the payment metadata, lets the purchase emission
// reuse the identity minted at checkout initiation.
type PaymentEvent struct {
	DeliveryID      string    `json:"delivery_id"`
	ReservationID   uuid.UUID `json:"reservation_id"`
	CheckoutEventID string    `json:"checkout_event_id,omitempty"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
}
