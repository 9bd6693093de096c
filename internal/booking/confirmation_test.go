package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/courtsite/attribution/internal/dispatch"
	apperrors "github.com/courtsite/attribution/internal/errors"
	"github.com/courtsite/attribution/internal/ledger"
)

type fakeLedger struct {
	processed   map[string]bool
	markOutcome ledger.MarkOutcome
	markErr     error
	marks       []string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{processed: map[string]bool{}, markOutcome: ledger.MarkClaimed}
}

func (f *fakeLedger) CheckProcessed(_ context.Context, webhookEventID string) (bool, error) {
	return f.processed[webhookEventID], nil
}

func (f *fakeLedger) MarkProcessed(_ context.Context, _ uuid.UUID, webhookEventID string) (ledger.MarkOutcome, error) {
	if f.markErr != nil {
		return "", f.markErr
	}
	f.marks = append(f.marks, webhookEventID)
	if f.markOutcome == ledger.MarkClaimed {
		f.processed[webhookEventID] = true
	}
	return f.markOutcome, nil
}

type fakeConfirmer struct {
	reservation *Reservation
	notFound    bool
	confirmed   []uuid.UUID
}

func (f *fakeConfirmer) Confirm(_ context.Context, id uuid.UUID) (*Reservation, error) {
	if f.notFound {
		return nil, apperrors.NewNotFoundError("reservation", "reservation not found")
	}
	f.confirmed = append(f.confirmed, id)
	return f.reservation, nil
}

type fakeEmitter struct {
	actions  []dispatch.Action
	params   []dispatch.Params
	eventIDs []string
}

func (f *fakeEmitter) Emit(_ context.Context, action dispatch.Action, params dispatch.Params, existingEventID string) dispatch.Emission {
	f.actions = append(f.actions, action)
	f.params = append(f.params, params)

	eventID := existingEventID
	if eventID == "" {
		eventID = "minted"
	}
	f.eventIDs = append(f.eventIDs, eventID)

	ch := make(chan dispatch.RelayOutcome, 1)
	ch <- dispatch.RelayOutcome{}
	return dispatch.Emission{EventID: eventID, Relay: ch}
}

func testReservation(id uuid.UUID) *Reservation {
	return &Reservation{
		ID:        id,
		UserID:    "u-314",
		CourtID:   "court-7",
		SlotStart: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
		SlotEnd:   time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC),
		Status:    StatusConfirmed,
		Value:     150,
		Currency:  "MAD",
	}
}

func TestConfirmationService_HandlePaymentWebhook(t *testing.T) {
	ctx := context.Background()
	reservationID := uuid.Must(uuid.NewV7())

	t.Run("processes a fresh delivery and emits Purchase with checkout identity", func(t *testing.T) {
		l := newFakeLedger()
		repo := &fakeConfirmer{reservation: testReservation(reservationID)}
		emitter := &fakeEmitter{}
		svc := NewConfirmationService(l, repo, emitter)

		outcome, err := svc.HandlePaymentWebhook(ctx, PaymentEvent{
			DeliveryID:      "W1",
			ReservationID:   reservationID,
			CheckoutEventID: "E1",
			Email:           "user@example.com",
		})
		if err != nil {
			t.Fatalf("HandlePaymentWebhook() error = %v", err)
		}
		if outcome != OutcomeProcessed {
			t.Errorf("outcome = %q, want processed", outcome)
		}

		if len(repo.confirmed) != 1 || repo.confirmed[0] != reservationID {
			t.Errorf("confirmed = %v", repo.confirmed)
		}
		if len(l.marks) != 1 || l.marks[0] != "W1" {
			t.Errorf("marks = %v", l.marks)
		}
		if len(emitter.actions) != 1 || emitter.actions[0] != dispatch.ActionPurchase {
			t.Fatalf("actions = %v", emitter.actions)
		}
		if emitter.eventIDs[0] != "E1" {
			t.Errorf("emission event id = %q, want checkout identity E1", emitter.eventIDs[0])
		}
		if emitter.params[0].BookingID != reservationID.String() {
			t.Errorf("booking id = %q", emitter.params[0].BookingID)
		}
		if emitter.params[0].Email != "user@example.com" {
			t.Errorf("email not forwarded to relay channel")
		}
	})

	t.Run("replayed delivery is a duplicate no-op", func(t *testing.T) {
		l := newFakeLedger()
		repo := &fakeConfirmer{reservation: testReservation(reservationID)}
		emitter := &fakeEmitter{}
		svc := NewConfirmationService(l, repo, emitter)

		event := PaymentEvent{DeliveryID: "W1", ReservationID: reservationID}

		first, err := svc.HandlePaymentWebhook(ctx, event)
		if err != nil || first != OutcomeProcessed {
			t.Fatalf("first delivery: outcome = %q, err = %v", first, err)
		}

		second, err := svc.HandlePaymentWebhook(ctx, event)
		if err != nil {
			t.Fatalf("replay must not fail: %v", err)
		}
		if second != OutcomeDuplicate {
			t.Errorf("replay outcome = %q, want duplicate", second)
		}

		if len(emitter.actions) != 1 {
			t.Errorf("purchase emitted %d times, want exactly once", len(emitter.actions))
		}
		if len(l.marks) != 1 {
			t.Errorf("marks = %v, want single claim", l.marks)
		}
	})

	t.Run("losing a mark race suppresses the emission", func(t *testing.T) {
		l := newFakeLedger()
		l.markOutcome = ledger.MarkAlreadyProcessed
		repo := &fakeConfirmer{reservation: testReservation(reservationID)}
		emitter := &fakeEmitter{}
		svc := NewConfirmationService(l, repo, emitter)

		outcome, err := svc.HandlePaymentWebhook(ctx, PaymentEvent{DeliveryID: "W1", ReservationID: reservationID})
		if err != nil {
			t.Fatalf("HandlePaymentWebhook() error = %v", err)
		}
		if outcome != OutcomeDuplicate {
			t.Errorf("outcome = %q, want duplicate", outcome)
		}
		if len(emitter.actions) != 0 {
			t.Error("purchase emitted despite losing the claim")
		}
	})

	t.Run("vanished reservation is a warning outcome, not a failure", func(t *testing.T) {
		l := newFakeLedger()
		repo := &fakeConfirmer{notFound: true}
		emitter := &fakeEmitter{}
		svc := NewConfirmationService(l, repo, emitter)

		outcome, err := svc.HandlePaymentWebhook(ctx, PaymentEvent{DeliveryID: "W1", ReservationID: reservationID})
		if err != nil {
			t.Fatalf("HandlePaymentWebhook() error = %v", err)
		}
		if outcome != OutcomeReservationMissing {
			t.Errorf("outcome = %q, want reservation_missing", outcome)
		}
		if len(emitter.actions) != 0 {
			t.Error("purchase emitted for vanished reservation")
		}
	})

	t.Run("missing delivery id is a validation error", func(t *testing.T) {
		svc := NewConfirmationService(newFakeLedger(), &fakeConfirmer{}, &fakeEmitter{})

		_, err := svc.HandlePaymentWebhook(ctx, PaymentEvent{ReservationID: reservationID})

		var validationErr *apperrors.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("error = %v, want ValidationError", err)
		}
	})

	t.Run("nil dispatcher still confirms", func(t *testing.T) {
		l := newFakeLedger()
		repo := &fakeConfirmer{reservation: testReservation(reservationID)}
		svc := NewConfirmationService(l, repo, nil)

		outcome, err := svc.HandlePaymentWebhook(ctx, PaymentEvent{DeliveryID: "W2", ReservationID: reservationID})
		if err != nil {
			t.Fatalf("HandlePaymentWebhook() error = %v", err)
		}
		if outcome != OutcomeProcessed {
			t.Errorf("outcome = %q", outcome)
		}
	})
}
