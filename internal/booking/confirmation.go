package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/courtsite/attribution/internal/dispatch"
	apperrors "github.com/courtsite/attribution/internal/errors"
	"github.com/courtsite/attribution/internal/ledger"
)

// Outcome of one payment-webhook delivery.
type Outcome string

const (
	OutcomeProcessed          Outcome = "processed"
	OutcomeDuplicate          Outcome = "duplicate"
	OutcomeReservationMissing Outcome = "reservation_missing"
)

// reservationConfirmer is the minimal repository surface the flow needs.
type reservationConfirmer interface {
	Confirm(ctx context.Context, id uuid.UUID) (*Reservation, error)
}

// purchaseEmitter is the dispatcher surface the flow needs.
type purchaseEmitter interface {
	Emit(ctx context.Context, action dispatch.Action, params dispatch.Params, existingEventID string) dispatch.Emission
}

// ConfirmationService turns a payment-provider webhook delivery into at most
// one reservation confirmation and at most one Purchase emission, regardless
// of how often the provider replays the delivery.
type ConfirmationService struct {
	ledger     ledger.Ledger
	repo       reservationConfirmer
	dispatcher purchaseEmitter
}

// NewConfirmationService wires the flow. dispatcher may be nil when tracking is
// disabled entirely; confirmations still process.
func NewConfirmationService(l ledger.Ledger, repo reservationConfirmer, dispatcher purchaseEmitter) *ConfirmationService {
	return &ConfirmationService{ledger: l, repo: repo, dispatcher: dispatcher}
}

// HandlePaymentWebhook processes one delivery: check the ledger, confirm the
// reservation, mark the delivery processed, then emit the Purchase event. Only
// the ledger claim gates the emission, so replays racing past the initial check
// still produce a single Purchase. A failed relay emission is logged and not
// returned: the provider must not re-deliver over an attribution loss.
func (s *ConfirmationService) HandlePaymentWebhook(ctx context.Context, event PaymentEvent) (Outcome, error) {
	if event.DeliveryID == "" {
		return "", apperrors.NewValidationError("delivery_id", "delivery_id is required")
	}
	if event.ReservationID == uuid.Nil {
		return "", apperrors.NewValidationError("reservation_id", "reservation_id is required")
	}

	processed, err := s.ledger.CheckProcessed(ctx, event.DeliveryID)
	if err != nil {
		return "", fmt.Errorf("check webhook processed: %w", err)
	}
	if processed {
		slog.Info("payment webhook delivery already processed, skipping",
			"delivery_id", event.DeliveryID,
			"reservation_id", event.ReservationID,
		)
		return OutcomeDuplicate, nil
	}

	reservation, err := s.repo.Confirm(ctx, event.ReservationID)
	if err != nil {
		if errors.Is(err, &apperrors.NotFoundError{}) {
			slog.Warn("payment webhook for vanished reservation",
				"delivery_id", event.DeliveryID,
				"reservation_id", event.ReservationID,
			)
			return OutcomeReservationMissing, nil
		}
		return "", fmt.Errorf("confirm reservation: %w", err)
	}

	outcome, err := s.ledger.MarkProcessed(ctx, event.ReservationID, event.DeliveryID)
	if err != nil {
		return "", fmt.Errorf("mark webhook processed: %w", err)
	}

	switch outcome {
	case ledger.MarkAlreadyProcessed:
		return OutcomeDuplicate, nil
	case ledger.MarkReservationMissing:
		return OutcomeReservationMissing, nil
	}

	if s.dispatcher != nil {
		emission := s.dispatcher.Emit(ctx, dispatch.ActionPurchase, dispatch.Params{
			Currency:   reservation.Currency,
			Value:      reservation.Value,
			ContentIDs: []string{reservation.CourtID},
			CourtID:    reservation.CourtID,
			CoachID:    reservation.CoachID,
			SlotStart:  reservation.SlotStart,
			SlotEnd:    reservation.SlotEnd,
			BookingID:  reservation.ID.String(),
			Email:      event.Email,
			Phone:      event.Phone,
			ExternalID: reservation.UserID,
		}, event.CheckoutEventID)

		slog.Info("purchase emission dispatched",
			"delivery_id", event.DeliveryID,
			"reservation_id", event.ReservationID,
			"event_id", emission.EventID,
		)
	}

	return OutcomeProcessed, nil
}
