// Package ledger makes payment-webhook processing idempotent. The dedup key is
// a storage-enforced uniqueness constraint on the webhook delivery id, not an
// application lock, so the guarantee holds across process restarts and
// concurrent replays from any number of server processes.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MarkOutcome reports what MarkProcessed did.
type MarkOutcome string

const (
	// MarkClaimed: this call set the processed marker; the caller owns the side effects.
	MarkClaimed MarkOutcome = "claimed"
	// MarkAlreadyProcessed: another record already holds the delivery id; no-op.
	MarkAlreadyProcessed MarkOutcome = "already_processed"
	// MarkReservationMissing: the targeted reservation no longer exists. A data
	// lifecycle race, not a ledger defect.
	MarkReservationMissing MarkOutcome = "reservation_missing"
)

// Ledger is the dedup ledger over a reservation's webhook columns.
type Ledger interface {
	// CheckProcessed reports whether some record already carries this delivery id
	// with a processed timestamp. Reads committed state only.
	CheckProcessed(ctx context.Context, webhookEventID string) (bool, error)
	// MarkProcessed claims the delivery id for exactly the targeted reservation
	// and stamps it processed. A concurrent second claim loses on the uniqueness
	// constraint and observes MarkAlreadyProcessed.
	MarkProcessed(ctx context.Context, reservationID uuid.UUID, webhookEventID string) (MarkOutcome, error)
}

// uniqueViolation is the Postgres error code raised when a second reservation
// tries to claim an already-claimed delivery id.
const uniqueViolation = "23505"

// PostgresLedger implements Ledger via the two stored operations.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger creates a ledger over the given pool.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// CheckProcessed calls the stored read operation.
func (l *PostgresLedger) CheckProcessed(ctx context.Context, webhookEventID string) (bool, error) {
	var processed bool
	err := l.db.QueryRow(ctx,
		"SELECT reservation_webhook_processed($1)", webhookEventID,
	).Scan(&processed)
	if err != nil {
		return false, fmt.Errorf("failed to check webhook processed: %w", err)
	}
	return processed, nil
}

// MarkProcessed calls the stored write operation. The unique-violation path is
// the intended "already processed" signal, not a failure.
func (l *PostgresLedger) MarkProcessed(ctx context.Context, reservationID uuid.UUID, webhookEventID string) (MarkOutcome, error) {
	var status string
	err := l.db.QueryRow(ctx,
		"SELECT mark_reservation_webhook_processed($1, $2)", reservationID, webhookEventID,
	).Scan(&status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			slog.Info("webhook delivery already claimed by another reservation",
				"reservation_id", reservationID,
				"webhook_event_id", webhookEventID,
			)
			return MarkAlreadyProcessed, nil
		}
		return "", fmt.Errorf("failed to mark webhook processed: %w", err)
	}

	switch MarkOutcome(status) {
	case MarkClaimed:
		return MarkClaimed, nil
	case MarkAlreadyProcessed:
		slog.Info("webhook delivery already processed",
			"reservation_id", reservationID,
			"webhook_event_id", webhookEventID,
		)
		return MarkAlreadyProcessed, nil
	case MarkReservationMissing:
		slog.Warn("reservation vanished before webhook processing mark",
			"reservation_id", reservationID,
			"webhook_event_id", webhookEventID,
		)
		return MarkReservationMissing, nil
	default:
		return "", fmt.Errorf("unexpected mark status %q", status)
	}
}
