package capi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_SendEvents(t *testing.T) {
	ctx := context.Background()
	envelope := &Envelope{Data: []Event{{
		EventName: "Purchase", EventID: "e-1", EventTime: 1700000000, ActionSource: ActionSourceWebsite,
	}}}

	t.Run("posts envelope to the versioned pixel endpoint", func(t *testing.T) {
		var gotPath, gotToken string
		var gotBody Envelope

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotToken = r.URL.Query().Get("access_token")

			body, err := io.ReadAll(r.Body)
			if err != nil {
				t.Errorf("read body: %v", err)
			}
			if err := json.Unmarshal(body, &gotBody); err != nil {
				t.Errorf("unmarshal body: %v", err)
			}

			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"events_received":1}`))
		}))
		defer server.Close()

		client := NewClient("v19.0", "1234567890", "secret-token", WithBaseURL(server.URL))

		resp, err := client.SendEvents(ctx, envelope)
		if err != nil {
			t.Fatalf("SendEvents() error = %v", err)
		}

		if gotPath != "/v19.0/1234567890/events" {
			t.Errorf("path = %q", gotPath)
		}
		if gotToken != "secret-token" {
			t.Errorf("access_token = %q", gotToken)
		}
		if len(gotBody.Data) != 1 || gotBody.Data[0].EventID != "e-1" {
			t.Errorf("envelope = %+v", gotBody)
		}
		if string(resp) != `{"events_received":1}` {
			t.Errorf("response = %s", resp)
		}
	})

	t.Run("non-2xx yields UpstreamError with platform body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter"}}`))
		}))
		defer server.Close()

		client := NewClient("v19.0", "1234567890", "secret-token", WithBaseURL(server.URL))

		_, err := client.SendEvents(ctx, envelope)

		var upstreamErr *UpstreamError
		if !errors.As(err, &upstreamErr) {
			t.Fatalf("error = %v, want UpstreamError", err)
		}
		if upstreamErr.StatusCode != http.StatusBadRequest {
			t.Errorf("StatusCode = %d", upstreamErr.StatusCode)
		}
		if string(upstreamErr.Body) != `{"error":{"message":"Invalid parameter"}}` {
			t.Errorf("Body = %s", upstreamErr.Body)
		}
	})

	t.Run("transport failure is a generic error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		server.Close() // connection refused

		client := NewClient("v19.0", "1234567890", "secret-token", WithBaseURL(server.URL))

		_, err := client.SendEvents(ctx, envelope)
		if err == nil {
			t.Fatal("expected error on refused connection")
		}

		var upstreamErr *UpstreamError
		if errors.As(err, &upstreamErr) {
			t.Errorf("transport failure must not be an UpstreamError: %v", err)
		}
	})
}
