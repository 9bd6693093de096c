package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/courtsite/attribution/internal/api/response"
	"github.com/courtsite/attribution/internal/booking"
	apperrors "github.com/courtsite/attribution/internal/errors"
)

// ReservationsHandler exposes read access to reservations, mainly so operators
// can inspect a reservation's webhook dedup columns.
type ReservationsHandler struct {
	repo *booking.ReservationsRepository
}

// NewReservationsHandler creates a new reservations handler
func NewReservationsHandler(repo *booking.ReservationsRepository) *ReservationsHandler {
	return &ReservationsHandler{repo: repo}
}

// Get retrieves a reservation by id
// Route: GET /v1/reservations/{id}
func (h *ReservationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		response.RespondBadRequest(w, "invalid reservation id")
		return
	}

	reservation, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, &apperrors.NotFoundError{}) {
			response.RespondNotFound(w, "reservation not found")
			return
		}

		slog.Error("failed to get reservation", "reservation_id", id, "error", err)
		response.RespondInternalServerError(w, "failed to get reservation")
		return
	}

	response.RespondJSON(w, http.StatusOK, reservation)
}
