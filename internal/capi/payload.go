package capi

import "encoding/json"

// ActionSourceWebsite is the only action source this service reports; both
// channels describe conversions that happen on the storefront.
const ActionSourceWebsite = "website"

// TrackRequest is the inbound body of the tracking surface. Contact fields
// arrive raw and are hashed inside the relay; the client never sends a hash it
// computed itself for them.
type TrackRequest struct {
	EventName      string         `json:"event_name"`
	EventID        string         `json:"event_id"`
	EventTime      int64          `json:"event_time,omitempty"`
	EventSourceURL string         `json:"event_source_url,omitempty"`
	CustomData     map[string]any `json:"custom_data,omitempty"`

	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	ExternalID string `json:"external_id,omitempty"`

	// Attribution cookies as read in the browser context.
	FBP string `json:"fbp,omitempty"`
	FBC string `json:"fbc,omitempty"`

	// Overrides the deployment-wide default test event code when set.
	TestEventCode string `json:"test_event_code,omitempty"`

	DataProcessingOptions        []string `json:"data_processing_options,omitempty"`
	DataProcessingOptionsCountry *int     `json:"data_processing_options_country,omitempty"`
	DataProcessingOptionsState   *int     `json:"data_processing_options_state,omitempty"`
}

// UserData is the platform's user_data object. All fields optional; only
// non-empty fields appear in the outbound JSON (sparse, no null placeholders).
// Email, Phone, and ExternalID hold lowercase-hex SHA-256 digests, never raw values.
type UserData struct {
	ClientIPAddress string `json:"client_ip_address,omitempty"`
	ClientUserAgent string `json:"client_user_agent,omitempty"`
	FBP             string `json:"fbp,omitempty"`
	FBC             string `json:"fbc,omitempty"`
	ExternalID      string `json:"external_id,omitempty"`
	Email           string `json:"em,omitempty"`
	Phone           string `json:"ph,omitempty"`
}

// Event is one entry of the platform's event envelope.
type Event struct {
	EventName      string         `json:"event_name"`
	EventTime      int64          `json:"event_time"`
	EventID        string         `json:"event_id"`
	ActionSource   string         `json:"action_source"`
	EventSourceURL string         `json:"event_source_url,omitempty"`
	UserData       UserData       `json:"user_data"`
	CustomData     map[string]any `json:"custom_data,omitempty"`

	DataProcessingOptions        []string `json:"data_processing_options,omitempty"`
	DataProcessingOptionsCountry *int     `json:"data_processing_options_country,omitempty"`
	DataProcessingOptionsState   *int     `json:"data_processing_options_state,omitempty"`
}

// Envelope is the body POSTed to the platform's events endpoint.
type Envelope struct {
	Data          []Event `json:"data"`
	TestEventCode string  `json:"test_event_code,omitempty"`
}

// RelayResult carries the platform's acknowledgement on success.
type RelayResult struct {
	PlatformResponse json.RawMessage
}
