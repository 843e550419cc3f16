package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaulthook/internal/constants"
	"vaulthook/internal/models"
)

func TestNotifierDisabledForMockCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  models.TwilioConfig
	}{
		{"empty account sid", models.TwilioConfig{AuthToken: "real-token"}},
		{"mock account sid", models.TwilioConfig{AccountSID: constants.MockAccountSID, AuthToken: "real-token"}},
		{"empty auth token", models.TwilioConfig{AccountSID: "AC123"}},
		{"mock auth token", models.TwilioConfig{AccountSID: "AC123", AuthToken: "mock-token"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := NewAckNotifier(tt.cfg, testLogger())
			assert.False(t, notifier.enabled)

			// A disabled notifier is a safe no-op.
			notifier.SendReaction(&models.InboundEvent{RawFrom: "whatsapp:+15550001111"})
		})
	}
}

func TestNotifierSendsReaction(t *testing.T) {
	received := make(chan map[string]string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		received <- map[string]string{
			"From": r.PostForm.Get("From"),
			"To":   r.PostForm.Get("To"),
			"Body": r.PostForm.Get("Body"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	}))
	defer server.Close()

	notifier := NewAckNotifier(models.TwilioConfig{
		AccountSID:   "AC123",
		AuthToken:    "real-token",
		APIBaseURL:   server.URL,
		ReactionBody: "\U0001F4DD",
		TimeoutSec:   5,
	}, testLogger())
	require.True(t, notifier.enabled)

	evt := Classify(map[string]string{
		"From": "whatsapp:+15550001111",
		"To":   "whatsapp:+15559990000",
		"Body": "hello",
	}, "@VaultBot")
	notifier.SendReaction(evt)

	select {
	case form := <-received:
		assert.Equal(t, "whatsapp:+15559990000", form["From"])
		assert.Equal(t, "whatsapp:+15550001111", form["To"])
		assert.Equal(t, "\U0001F4DD", form["Body"])
	case <-time.After(5 * time.Second):
		t.Fatal("reaction was never sent")
	}
}

func TestNotifierSwallowsSendFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":20003,"message":"Authenticate"}`))
	}))
	defer server.Close()

	notifier := NewAckNotifier(models.TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "real-token",
		APIBaseURL: server.URL,
		TimeoutSec: 5,
	}, testLogger())

	evt := Classify(map[string]string{
		"From": "whatsapp:+15550001111",
		"To":   "whatsapp:+15559990000",
	}, "@VaultBot")

	// Nothing to assert beyond the absence of a panic; the send is
	// fire-and-forget and failures stay inside the notifier.
	notifier.SendReaction(evt)
	time.Sleep(100 * time.Millisecond)
}
