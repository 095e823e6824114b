package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Morwran/yagpt"
)

// IAM tokens expire after at most 12 hours.
const iamTokenTTL = time.Hour

// yandexJSONRule stands in for the response_format switch YandexGPT lacks.
const yandexJSONRule = "Answer with the JSON object only, without markdown fences or any text around it."

var errNoYandexCredentials = errors.New("yandex: oauth token and folder id are required")

// YandexClient answers kiosk conversations through YandexGPT. The IAM token
// is exchanged from the OAuth token on first use and refreshed after
// iamTokenTTL.
type YandexClient struct {
	ya    yagpt.YaGPTFace
	oauth string

	exchange func(oauthToken string) (string, error)
	now      func() time.Time

	mu       sync.Mutex
	iamToken string
	issuedAt time.Time
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	if oauthToken == "" || folderID == "" {
		return nil, errNoYandexCredentials
	}
	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}
	return &YandexClient{ya: ya, oauth: oauthToken, exchange: exchangeIAM, now: time.Now}, nil
}

func exchangeIAM(oauthToken string) (string, error) {
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return "", fmt.Errorf("failed to init yandex iam: %w", err)
	}
	resp, err := iam.Create()
	if err != nil {
		return "", fmt.Errorf("failed to create iam token: %w", err)
	}
	return resp.IamToken, nil
}

// token returns a cached IAM token, exchanging a new one when it is missing
// or older than iamTokenTTL.
func (c *YandexClient) token() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.iamToken != "" && c.now().Sub(c.issuedAt) < iamTokenTTL {
		return c.iamToken, nil
	}
	tok, err := c.exchange(c.oauth)
	if err != nil {
		return "", err
	}
	c.iamToken, c.issuedAt = tok, c.now()
	return tok, nil
}

func (c *YandexClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	tok, err := c.token()
	if err != nil {
		return Response{}, err
	}
	resp, err := c.ya.CompletionWithCtx(ctx, tok, yandexMessages(messages))
	if err != nil {
		return Response{}, fmt.Errorf("yagpt completion failed: %w", err)
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return Response{}, errors.New("yagpt returned empty response")
	}
	return Response{
		Content:          resp.Alternatives[0].Message.Content,
		Model:            yagpt.YaModelLite,
		PromptTokens:     int(resp.Usage.InputTextTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}, nil
}

// yandexMessages folds every system message into one leading message
// carrying the JSON-only rule. YandexGPT only honours a system message in
// first position.
func yandexMessages(messages []Message) []yagpt.Message {
	var system []string
	out := make([]yagpt.Message, 1, len(messages)+1)
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		out = append(out, yagpt.Message{Role: m.Role, Content: m.Content})
	}
	system = append(system, yandexJSONRule)
	out[0] = yagpt.Message{Role: "system", Content: strings.Join(system, "\n\n")}
	return out
}
