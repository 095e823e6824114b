package assistant

import (
	"fmt"
	"strings"

	"kiosk-assistant/internal/config"
)

// Factory creates provider clients from configuration.
type Factory struct {
	OpenaiAPIKey       string
	OpenaiBaseURL      string
	OpenaiModel        string
	TranscriptionModel string
	YandexOAuthToken   string
	YandexFolderID     string
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		OpenaiAPIKey:       cfg.OpenAIAPIKey,
		OpenaiBaseURL:      cfg.OpenAIBaseURL,
		OpenaiModel:        cfg.OpenAIModel,
		TranscriptionModel: cfg.TranscriptionModel,
		YandexOAuthToken:   cfg.YandexOAuthToken,
		YandexFolderID:     cfg.YandexFolderID,
	}
}

func (f *Factory) CreateClient(provider config.LLMProvider) (Client, error) {
	switch config.LLMProvider(strings.ToLower(string(provider))) {
	case config.ProviderOpenAI:
		return f.openAI(), nil
	case config.ProviderYandex:
		return NewYandex(f.YandexOAuthToken, f.YandexFolderID)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}

// CreateTranscriber always uses OpenAI; the Yandex client has no speech API.
func (f *Factory) CreateTranscriber() Transcriber {
	return f.openAI()
}

func (f *Factory) openAI() *OpenAIClient {
	return NewOpenAI(f.OpenaiAPIKey, f.OpenaiBaseURL, f.OpenaiModel, f.TranscriptionModel)
}
