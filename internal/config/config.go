package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type AssistantBackend string

const (
	// BackendRemote sends recorded audio to the kiosk-comm conversation service.
	BackendRemote AssistantBackend = "remote"
	// BackendDirect transcribes and answers locally through an LLM provider.
	BackendDirect AssistantBackend = "direct"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	// Backends
	SessionBaseURL      string        `env:"KIOSK_SESSION_BASE_URL" envDefault:"http://192.168.0.3:8080"`
	ConversationBaseURL string        `env:"KIOSK_CONVERSATION_BASE_URL" envDefault:"http://192.168.0.3:8082"`
	HTTPTimeout         time.Duration `env:"KIOSK_HTTP_TIMEOUT" envDefault:"30s"`

	// Pairing / conversation
	PollInterval      time.Duration `env:"KIOSK_POLL_INTERVAL" envDefault:"2s"`
	StartConversation bool          `env:"KIOSK_START_CONVERSATION" envDefault:"true"`

	// Ordering
	RestaurantID int    `env:"KIOSK_RESTAURANT_ID" envDefault:"100"`
	TenantID     int    `env:"KIOSK_TENANT_ID" envDefault:"607"`
	SubmitOrders bool   `env:"KIOSK_ORDER_SUBMIT" envDefault:"false"`
	MenuFilePath string `env:"KIOSK_MENU_FILE"`
	OrderLogPath string `env:"KIOSK_ORDER_LOG_PATH" envDefault:"data/orders.jsonl"`

	// Ops
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	HealthSchedule string `env:"KIOSK_HEALTH_SCHEDULE" envDefault:"@every 1m"`
	ReportSchedule string `env:"KIOSK_REPORT_SCHEDULE" envDefault:"0 21 * * *"`

	// Assistant (direct backend)
	AssistantBackend   AssistantBackend `env:"KIOSK_ASSISTANT_BACKEND" envDefault:"remote"`
	LLMProvider        LLMProvider      `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey       string           `env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string           `env:"OPENAI_BASE_URL"`
	OpenAIModel        string           `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	TranscriptionModel string           `env:"OPENAI_TRANSCRIPTION_MODEL" envDefault:"whisper-1"`
	YandexOAuthToken   string           `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID     string           `env:"YANDEX_FOLDER_ID"`

	// Kitchen notifications (optional)
	TelegramBotToken    string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramKitchenChat int64  `env:"TELEGRAM_KITCHEN_CHAT_ID"`
}

// Load parses the environment without exiting the process.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func New() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

func (c *Config) Validate() error {
	if err := checkBaseURL("KIOSK_SESSION_BASE_URL", c.SessionBaseURL); err != nil {
		return err
	}
	if err := checkBaseURL("KIOSK_CONVERSATION_BASE_URL", c.ConversationBaseURL); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("KIOSK_POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	switch c.AssistantBackend {
	case BackendRemote, BackendDirect:
	default:
		return fmt.Errorf("unknown assistant backend: %s", c.AssistantBackend)
	}
	if c.AssistantBackend == BackendDirect && c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for the direct assistant backend")
	}
	return nil
}

// checkBaseURL accepts a host[:port] with or without an http(s) scheme.
func checkBaseURL(name, raw string) error {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s is not a valid http(s) URL: %q", name, raw)
	}
	return nil
}

// NotificationsEnabled reports whether placed orders should be pushed to the kitchen chat.
func (c *Config) NotificationsEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramKitchenChat != 0
}
