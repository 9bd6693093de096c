package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/courtsite/attribution/internal/api/response"
	"github.com/courtsite/attribution/internal/attribution"
	"github.com/courtsite/attribution/internal/capi"
	apperrors "github.com/courtsite/attribution/internal/errors"
)

// TrackHandler is the Conversions API relay surface. Contract:
// OPTIONS -> 200 "ok" (CORS preflight), POST -> process, anything else -> 404.
type TrackHandler struct {
	relay *capi.Relay
}

// NewTrackHandler creates a new track handler
func NewTrackHandler(relay *capi.Relay) *TrackHandler {
	return &TrackHandler{relay: relay}
}

// trackResponse is the success body: the platform's ack under "fb".
type trackResponse struct {
	OK bool            `json:"ok"`
	FB json.RawMessage `json:"fb"`
}

// ServeHTTP implements the method contract of the relay surface.
func (h *TrackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			slog.Warn("failed to write preflight response", "error", err)
		}
	case http.MethodPost:
		h.handlePost(w, r)
	default:
		response.RespondNotFound(w, "not found")
	}
}

func (h *TrackHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	var req capi.TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "invalid JSON body")
		return
	}

	// Cookies read at this boundary only fill gaps: the browser-side reader's
	// values in the body win when both are present.
	cookies := attribution.ReadCookies(r)
	if req.FBP == "" {
		req.FBP = cookies.FBP
	}
	if req.FBC == "" {
		req.FBC = cookies.FBC
	}

	result, err := h.relay.Relay(r.Context(), &req, capi.MetaFromRequest(r))
	if err != nil {
		var validationErr *apperrors.ValidationError
		if errors.As(err, &validationErr) {
			response.RespondBadRequest(w, validationErr.Error())
			return
		}

		var upstreamErr *capi.UpstreamError
		if errors.As(err, &upstreamErr) {
			slog.Error("platform rejected relayed event",
				"event_name", req.EventName,
				"event_id", req.EventID,
				"status", upstreamErr.StatusCode,
			)
			response.RespondUpstreamError(w, "Facebook API error", upstreamErr.Body)
			return
		}

		slog.Error("failed to relay tracking event",
			"event_name", req.EventName,
			"event_id", req.EventID,
			"error", err,
		)
		response.RespondInternalServerError(w, err.Error())
		return
	}

	fb := result.PlatformResponse
	if len(fb) == 0 || !json.Valid(fb) {
		fb = json.RawMessage("null")
	}
	response.RespondJSON(w, http.StatusOK, trackResponse{OK: true, FB: fb})
}
