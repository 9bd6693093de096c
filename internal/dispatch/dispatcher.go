// Package dispatch emits one business event through the two tracking channels
// (pixel signal and server relay) under a single correlation token. The two
// channels never communicate; correctness relies solely on the shared event id
// and the platform's own deduplication of it.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/courtsite/attribution/internal/attribution"
	"github.com/courtsite/attribution/internal/capi"
	"github.com/courtsite/attribution/internal/eventid"
	"github.com/courtsite/attribution/internal/pixel"
)

// Action is a semantic funnel step.
type Action string

const (
	ActionViewContent      Action = "view_content"
	ActionInitiateCheckout Action = "initiate_checkout"
	ActionPurchase         Action = "purchase"
)

// EventName maps the action to the platform's standard event name.
func (a Action) EventName() string {
	switch a {
	case ActionViewContent:
		return "ViewContent"
	case ActionInitiateCheckout:
		return "InitiateCheckout"
	case ActionPurchase:
		return "Purchase"
	default:
		return string(a)
	}
}

// Params are the domain parameters of one emission. Contact identifiers and
// cookies travel the relay channel only, never the pixel query.
type Params struct {
	Currency        string
	Value           float64
	ContentIDs      []string
	ContentName     string
	ContentCategory string
	ContentType     string
	Quantity        int

	CourtID   string
	CoachID   string
	SlotStart time.Time
	SlotEnd   time.Time
	BookingID string

	SourceURL string

	Email      string
	Phone      string
	ExternalID string
	Cookies    attribution.Cookies
	Meta       capi.RequestMeta
}

// RelayOutcome is the terminal result of the relay channel for one emission.
type RelayOutcome struct {
	Result *capi.RelayResult
	Err    error
}

// Emission is the handle returned to the caller: the correlation token plus a
// buffered channel the caller may await for the relay outcome, but never must.
type Emission struct {
	EventID string
	Relay   <-chan RelayOutcome
}

// Relayer is the server channel.
type Relayer interface {
	Relay(ctx context.Context, req *capi.TrackRequest, meta capi.RequestMeta) (*capi.RelayResult, error)
}

// PixelFirer is the best-effort channel.
type PixelFirer interface {
	Fire(ctx context.Context, ev pixel.Event) error
}

// Dispatcher fires the two channel emissions for a business event.
type Dispatcher struct {
	relay Relayer
	pixel PixelFirer
}

// NewDispatcher creates a dispatcher. pixel may be nil (pixel id unconfigured);
// the pixel channel is then silently skipped and the relay channel still proceeds.
func NewDispatcher(relay Relayer, pixel PixelFirer) *Dispatcher {
	return &Dispatcher{relay: relay, pixel: pixel}
}

// Emit fires both channels for one logical event and returns without awaiting
// either. When existingEventID is non-empty it is reused so the platform
// attributes the companion funnel stages to one journey; otherwise a fresh
// token is minted. Pixel failures are logged and swallowed; relay failures are
// delivered on the returned channel.
func (d *Dispatcher) Emit(ctx context.Context, action Action, params Params, existingEventID string) Emission {
	eventID := existingEventID
	if eventID == "" {
		eventID = eventid.Mint()
	}

	// Emissions outlive the caller's request; keep context values (request id
	// in logs) but drop its cancellation.
	ctx = context.WithoutCancel(ctx)

	if d.pixel != nil {
		ev := pixel.Event{
			Name:       action.EventName(),
			EventID:    eventID,
			SourceURL:  params.SourceURL,
			Currency:   params.Currency,
			Value:      params.Value,
			ContentIDs: params.ContentIDs,
			Quantity:   params.Quantity,
			Category:   params.ContentCategory,
		}
		go func() {
			if err := d.pixel.Fire(ctx, ev); err != nil {
				slog.Warn("pixel channel emission failed",
					"event_name", ev.Name,
					"event_id", eventID,
					"error", err,
				)
			}
		}()
	}

	req := d.buildTrackRequest(action, params, eventID)

	outcome := make(chan RelayOutcome, 1)
	go func() {
		result, err := d.relay.Relay(ctx, req, params.Meta)
		if err != nil {
			slog.Error("relay channel emission failed",
				"event_name", req.EventName,
				"event_id", eventID,
				"error", err,
			)
		}
		outcome <- RelayOutcome{Result: result, Err: err}
	}()

	return Emission{EventID: eventID, Relay: outcome}
}

func (d *Dispatcher) buildTrackRequest(action Action, params Params, eventID string) *capi.TrackRequest {
	customData := map[string]any{}
	if params.Currency != "" {
		customData["currency"] = params.Currency
	}
	if params.Value > 0 {
		customData["value"] = params.Value
	}
	if len(params.ContentIDs) > 0 {
		customData["content_ids"] = params.ContentIDs
	}
	if params.ContentName != "" {
		customData["content_name"] = params.ContentName
	}
	if params.ContentCategory != "" {
		customData["content_category"] = params.ContentCategory
	}
	if params.ContentType != "" {
		customData["content_type"] = params.ContentType
	}
	if params.Quantity > 0 {
		customData["num_items"] = params.Quantity
	}
	if params.CourtID != "" {
		customData["court_id"] = params.CourtID
	}
	if params.CoachID != "" {
		customData["coach_id"] = params.CoachID
	}
	if !params.SlotStart.IsZero() {
		customData["slot_start"] = params.SlotStart.UTC().Format(time.RFC3339)
	}
	if !params.SlotEnd.IsZero() {
		customData["slot_end"] = params.SlotEnd.UTC().Format(time.RFC3339)
	}
	if params.BookingID != "" {
		customData["booking_id"] = params.BookingID
	}
	if len(customData) == 0 {
		customData = nil
	}

	return &capi.TrackRequest{
		EventName:      action.EventName(),
		EventID:        eventID,
		EventSourceURL: params.SourceURL,
		CustomData:     customData,
		Email:          params.Email,
		Phone:          params.Phone,
		ExternalID:     params.ExternalID,
		FBP:            params.Cookies.FBP,
		FBC:            params.Cookies.FBC,
	}
}
