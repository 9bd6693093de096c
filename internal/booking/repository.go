package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/courtsite/attribution/internal/errors"
)

// ReservationsRepository handles data access for reservations
type ReservationsRepository struct {
	db *pgxpool.Pool
}

// NewReservationsRepository creates a new reservations repository
func NewReservationsRepository(db *pgxpool.Pool) *ReservationsRepository {
	return &ReservationsRepository{db: db}
}

const reservationColumns = `
	id, user_id, court_id, coach_id, slot_start, slot_end, status,
	value, currency, webhook_event_id, webhook_processed_at, created_at, updated_at
`

func scanReservation(row pgx.Row) (*Reservation, error) {
	var r Reservation
	err := row.Scan(
		&r.ID, &r.UserID, &r.CourtID, &r.CoachID, &r.SlotStart, &r.SlotEnd, &r.Status,
		&r.Value, &r.Currency, &r.WebhookEventID, &r.WebhookProcessedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetByID retrieves a single reservation by ID
func (r *ReservationsRepository) GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	reservation, err := scanReservation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("reservation", "reservation not found")
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}

	return reservation, nil
}

// Confirm moves a pending reservation to confirmed. Confirming an already
// confirmed reservation is a no-op; the returned record reflects current state.
func (r *ReservationsRepository) Confirm(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	query := `
		UPDATE reservations
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
	`

	if _, err := r.db.Exec(ctx, query, id, StatusConfirmed, StatusPending); err != nil {
		return nil, fmt.Errorf("failed to confirm reservation: %w", err)
	}

	return r.GetByID(ctx, id)
}
