package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vaama/inventorypacer/internal/core/config"
)

func TestSlackChannelSend(t *testing.T) {
	var got slackPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ch := NewSlackChannel(config.SlackConfig{
		WebhookURL: server.URL,
		Channel:    "#inventory",
		Username:   "pacer",
	})

	a := Build(testStore(), unbalancedReport(), []string{"Upload 10 more rings"})
	if err := ch.Send(context.Background(), a); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if got.Channel != "#inventory" || got.Username != "pacer" {
		t.Errorf("payload = %+v", got)
	}
	if !strings.Contains(got.Text, "Upload 10 more rings") {
		t.Errorf("text missing recommendation: %q", got.Text)
	}
}

func TestSlackChannelNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer server.Close()

	ch := NewSlackChannel(config.SlackConfig{WebhookURL: server.URL})
	a := Build(testStore(), unbalancedReport(), nil)
	if err := ch.Send(context.Background(), a); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
