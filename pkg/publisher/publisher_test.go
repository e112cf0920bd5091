package publisher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tkarvine/draftgate/pkg/api"
)

func TestRegistryDispatchesByPlatform(t *testing.T) {
	ctx := context.Background()

	twitter := &Mock{}
	linkedin := &Mock{}

	reg := NewRegistry()
	reg.Register(api.PlatformTwitter, twitter)
	reg.Register(api.PlatformLinkedIn, linkedin)

	if _, err := reg.Publish(ctx, "hello", api.PlatformTwitter); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if twitter.Calls() != 1 || linkedin.Calls() != 0 {
		t.Fatalf("expected dispatch to twitter only, got %d/%d", twitter.Calls(), linkedin.Calls())
	}

	if _, err := reg.Publish(ctx, "hello", "myspace"); err == nil {
		t.Fatalf("expected error for unregistered platform")
	}
}

func TestValidateContent(t *testing.T) {
	if err := validateContent("   ", api.PlatformTwitter); err == nil {
		t.Fatalf("expected error for empty content")
	}
	if err := validateContent(strings.Repeat("x", 281), api.PlatformTwitter); err == nil {
		t.Fatalf("expected error for oversized tweet")
	}
	if err := validateContent(strings.Repeat("x", 281), api.PlatformLinkedIn); err != nil {
		t.Fatalf("281 characters should be fine on linkedin: %v", err)
	}
}

func TestTwitterPublish(t *testing.T) {
	var gotAuth, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/2/tweets" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotText = body.Text

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": "1234567890"}})
	}))
	defer srv.Close()

	pub, err := NewTwitter("token-123")
	if err != nil {
		t.Fatalf("NewTwitter failed: %v", err)
	}
	pub.BaseURL = srv.URL

	res, err := pub.Publish(context.Background(), "Shipping season is here.", api.PlatformTwitter)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if res.ConfirmationID != "1234567890" {
		t.Fatalf("expected tweet id as confirmation, got %q", res.ConfirmationID)
	}
	if res.URL != "https://twitter.com/user/status/1234567890" {
		t.Fatalf("unexpected tweet url %q", res.URL)
	}
	if gotAuth != "Bearer token-123" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if gotText != "Shipping season is here." {
		t.Fatalf("unexpected tweet text %q", gotText)
	}
}

func TestTwitterPublishAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"title":"Too Many Requests"}`))
	}))
	defer srv.Close()

	pub, _ := NewTwitter("token-123")
	pub.BaseURL = srv.URL

	_, err := pub.Publish(context.Background(), "hello", api.PlatformTwitter)
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestTwitterPublishRejectsOversizedContentWithoutNetwork(t *testing.T) {
	pub, _ := NewTwitter("token-123")
	pub.BaseURL = "http://127.0.0.1:0" // would fail if dialed

	_, err := pub.Publish(context.Background(), strings.Repeat("x", 300), api.PlatformTwitter)
	if err == nil || !strings.Contains(err.Error(), "280") {
		t.Fatalf("expected length error, got %v", err)
	}
}

func TestLinkedInPublish(t *testing.T) {
	userinfoCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/userinfo":
			userinfoCalls++
			json.NewEncoder(w).Encode(map[string]any{"sub": "abc123"})
		case "/ugcPosts":
			if r.Header.Get("X-Restli-Protocol-Version") != "2.0.0" {
				t.Errorf("missing restli header")
			}
			var payload map[string]any
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decode payload: %v", err)
			}
			if payload["author"] != "urn:li:person:abc123" {
				t.Errorf("unexpected author %v", payload["author"])
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"id": "urn:li:share:42"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	pub, err := NewLinkedIn("token-456")
	if err != nil {
		t.Fatalf("NewLinkedIn failed: %v", err)
	}
	pub.BaseURL = srv.URL

	res, err := pub.Publish(context.Background(), "A longer professional update.", api.PlatformLinkedIn)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if res.ConfirmationID != "urn:li:share:42" {
		t.Fatalf("unexpected confirmation %q", res.ConfirmationID)
	}
	if res.URL != "https://www.linkedin.com/feed/update/urn:li:share:42" {
		t.Fatalf("unexpected url %q", res.URL)
	}

	// The member URN is cached across publishes.
	if _, err := pub.Publish(context.Background(), "Second update.", api.PlatformLinkedIn); err != nil {
		t.Fatalf("second Publish failed: %v", err)
	}
	if userinfoCalls != 1 {
		t.Fatalf("expected one userinfo call, got %d", userinfoCalls)
	}
}

func TestLinkedInPublishUserinfoError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	pub, _ := NewLinkedIn("expired")
	pub.BaseURL = srv.URL

	_, err := pub.Publish(context.Background(), "hello", api.PlatformLinkedIn)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected userinfo status error, got %v", err)
	}
}

func TestMockPublisher(t *testing.T) {
	m := &Mock{}

	res, err := m.Publish(context.Background(), "hello", api.PlatformTwitter)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if res.ConfirmationID == "" || res.URL == "" {
		t.Fatalf("expected confirmation, got %+v", res)
	}
	if m.Calls() != 1 || m.LastContent() != "hello" {
		t.Fatalf("expected call recorded")
	}

	if _, err := m.Publish(context.Background(), strings.Repeat("x", 300), api.PlatformTwitter); err == nil {
		t.Fatalf("expected mock to validate length")
	}
}
