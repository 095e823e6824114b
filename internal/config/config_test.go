package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Fatalf("poll interval: got %s", cfg.PollInterval)
	}
	if cfg.RestaurantID != 100 || cfg.TenantID != 607 {
		t.Fatalf("unexpected ids: %d/%d", cfg.RestaurantID, cfg.TenantID)
	}
	if !cfg.StartConversation {
		t.Fatalf("start_conversation should default to true")
	}
	if cfg.SubmitOrders {
		t.Fatalf("order submission should be short-circuited by default")
	}
	if cfg.SessionBaseURL == cfg.ConversationBaseURL {
		t.Fatalf("session and conversation services must be separate endpoints")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KIOSK_POLL_INTERVAL", "500ms")
	t.Setenv("KIOSK_ORDER_SUBMIT", "true")
	t.Setenv("KIOSK_RESTAURANT_ID", "7")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PollInterval != 500*time.Millisecond || !cfg.SubmitOrders || cfg.RestaurantID != 7 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("KIOSK_ASSISTANT_BACKEND", "direct")
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatalf("direct backend without api key must fail")
	}

	t.Setenv("KIOSK_ASSISTANT_BACKEND", "carrier-pigeon")
	if _, err := Load(); err == nil {
		t.Fatalf("unknown backend must fail")
	}

	t.Setenv("KIOSK_ASSISTANT_BACKEND", "remote")
	t.Setenv("KIOSK_POLL_INTERVAL", "0s")
	if _, err := Load(); err == nil {
		t.Fatalf("zero poll interval must fail")
	}
}

func TestValidateBaseURLs(t *testing.T) {
	cases := []struct {
		session, conversation string
		ok                    bool
	}{
		{"http://192.168.0.3:8080", "https://kiosk.example.com/", true},
		{"192.168.0.3:8080", "localhost:8082", true},
		{"", "http://192.168.0.3:8082", false},
		{"http://192.168.0.3:8080", "ftp://192.168.0.3", false},
		{"http://", "http://192.168.0.3:8082", false},
		{"http://192.168.0.3:8080", "http://bad host", false},
	}
	for _, tc := range cases {
		c := &Config{
			SessionBaseURL:      tc.session,
			ConversationBaseURL: tc.conversation,
			PollInterval:        time.Second,
			AssistantBackend:    BackendRemote,
		}
		if err := c.Validate(); (err == nil) != tc.ok {
			t.Errorf("%q / %q: ok=%v, err=%v", tc.session, tc.conversation, tc.ok, err)
		}
	}
}

func TestNotificationsEnabled(t *testing.T) {
	c := &Config{TelegramBotToken: "tok"}
	if c.NotificationsEnabled() {
		t.Fatalf("chat id missing, should be disabled")
	}
	c.TelegramKitchenChat = 42
	if !c.NotificationsEnabled() {
		t.Fatalf("should be enabled")
	}
}
