package capi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/courtsite/attribution/internal/errors"
	"github.com/courtsite/attribution/internal/pii"
)

// PlatformClient is the outbound side of the relay.
type PlatformClient interface {
	SendEvents(ctx context.Context, envelope *Envelope) (json.RawMessage, error)
}

// RequestMeta carries network-level attribution observed at the server boundary.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
}

// MetaFromRequest derives client IP (first hop of X-Forwarded-For, else
// X-Real-IP, else absent) and user agent from request headers.
func MetaFromRequest(r *http.Request) RequestMeta {
	meta := RequestMeta{UserAgent: r.Header.Get("User-Agent")}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		meta.ClientIP = strings.TrimSpace(first)
	} else if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		meta.ClientIP = strings.TrimSpace(realIP)
	}

	return meta
}

// Relay validates a tracking request, enriches it with server-observed
// attribution and hashed contact identifiers, and forwards one event to the
// platform. Each call is independent; the relay holds no mutable state beyond
// its read-only configuration.
type Relay struct {
	client               PlatformClient
	defaultTestEventCode string
	defaultSourceURL     string
	now                  func() time.Time
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithDefaultTestEventCode sets the deployment-wide test event code used when
// the request carries none.
func WithDefaultTestEventCode(code string) RelayOption {
	return func(r *Relay) { r.defaultTestEventCode = code }
}

// WithDefaultSourceURL sets the event_source_url used when the request carries none.
func WithDefaultSourceURL(sourceURL string) RelayOption {
	return func(r *Relay) { r.defaultSourceURL = sourceURL }
}

// WithClock overrides the wall clock (tests).
func WithClock(now func() time.Time) RelayOption {
	return func(r *Relay) { r.now = now }
}

// NewRelay creates a relay over the given platform client.
func NewRelay(client PlatformClient, opts ...RelayOption) *Relay {
	r := &Relay{client: client, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Relay processes one tracking request. A missing event_name or event_id is a
// validation error and no outbound call is attempted; event_id is mandatory
// because it is the platform's deduplication key against the paired pixel signal.
func (r *Relay) Relay(ctx context.Context, req *TrackRequest, meta RequestMeta) (*RelayResult, error) {
	if req.EventName == "" {
		return nil, apperrors.NewValidationError("event_name", "event_name is required")
	}
	if req.EventID == "" {
		return nil, apperrors.NewValidationError("event_id", "event_id is required")
	}

	event := Event{
		EventName:      req.EventName,
		EventID:        req.EventID,
		EventTime:      req.EventTime,
		ActionSource:   ActionSourceWebsite,
		EventSourceURL: req.EventSourceURL,
		CustomData:     req.CustomData,
		UserData: UserData{
			ClientIPAddress: meta.ClientIP,
			ClientUserAgent: meta.UserAgent,
			FBP:             req.FBP,
			FBC:             req.FBC,
		},

		DataProcessingOptions:        req.DataProcessingOptions,
		DataProcessingOptionsCountry: req.DataProcessingOptionsCountry,
		DataProcessingOptionsState:   req.DataProcessingOptionsState,
	}

	if event.EventTime <= 0 {
		event.EventTime = r.now().Unix()
	}
	if event.EventSourceURL == "" {
		event.EventSourceURL = r.defaultSourceURL
	}

	// Contact identifiers are hashed here and only here, so the normalization
	// policy lives in one trusted place. Invalid values are omitted, not hashed.
	if hashed, ok := pii.HashEmail(req.Email); ok {
		event.UserData.Email = hashed
	}
	if hashed, ok := pii.HashPhone(req.Phone); ok {
		event.UserData.Phone = hashed
	}
	if hashed, ok := pii.HashExternalID(req.ExternalID); ok {
		event.UserData.ExternalID = hashed
	}

	envelope := &Envelope{
		Data:          []Event{event},
		TestEventCode: req.TestEventCode,
	}
	if envelope.TestEventCode == "" {
		envelope.TestEventCode = r.defaultTestEventCode
	}

	platformResp, err := r.client.SendEvents(ctx, envelope)
	if err != nil {
		return nil, fmt.Errorf("relay %s event %s: %w", req.EventName, req.EventID, err)
	}

	return &RelayResult{PlatformResponse: platformResp}, nil
}
