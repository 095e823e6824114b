package kioskapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

const maxBodySize = 1 << 20

var (
	// ErrMalformedResponse means the service answered 2xx with a body we cannot interpret.
	ErrMalformedResponse = errors.New("malformed response")
)

// HTTPError is a non-2xx answer that the caller did not treat as a protocol outcome.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s failed with HTTP status: %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s failed with HTTP status: %d, body: %s", e.Op, e.StatusCode, e.Body)
}

// Client talks to the two kiosk backends: the session service (pairing) and the
// conversation service (utterances, orders, health).
type Client struct {
	http             *http.Client
	sessionBase      string
	conversationBase string
}

func New(sessionBase, conversationBase string, timeout time.Duration) (*Client, error) {
	return NewWithHTTPClient(&http.Client{Timeout: timeout}, sessionBase, conversationBase)
}

func NewWithHTTPClient(hc *http.Client, sessionBase, conversationBase string) (*Client, error) {
	sb, err := normalizeBaseURL(sessionBase)
	if err != nil {
		return nil, fmt.Errorf("invalid session base URL: %w", err)
	}
	cb, err := normalizeBaseURL(conversationBase)
	if err != nil {
		return nil, fmt.Errorf("invalid conversation base URL: %w", err)
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{http: hc, sessionBase: sb, conversationBase: cb}, nil
}

// normalizeBaseURL adds a missing scheme and strips trailing slashes. A path
// prefix is kept so the services can sit behind a gateway.
func normalizeBaseURL(raw string) (string, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid URL %q", raw)
	}
	return fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, strings.TrimRight(u.Path, "/")), nil
}

// CreateSession registers a client-generated session id. The body of a 2xx answer is ignored.
func (c *Client) CreateSession(ctx context.Context, sessionID string) error {
	body, err := sonic.Marshal(CreateSessionRequest{SessionID: sessionID})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	_, err = c.doJSON(ctx, "create session", http.MethodPost, c.sessionBase+endpointSession, body)
	return err
}

// SessionStatus performs one pairing poll. A 404 is a protocol outcome, not an error.
func (c *Client) SessionStatus(ctx context.Context, sessionID string) (StatusResult, error) {
	u := c.sessionBase + fmt.Sprintf(endpointSessionStatus, url.PathEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return StatusResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return StatusResult{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return StatusResult{}, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return StatusResult{Kind: StatusNotFound}, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return StatusResult{}, &HTTPError{Op: "poll status", StatusCode: resp.StatusCode, Body: string(data)}
	}

	var sr statusResponse
	if err := sonic.Unmarshal(data, &sr); err != nil {
		return StatusResult{}, fmt.Errorf("%w: status body: %v", ErrMalformedResponse, err)
	}
	if sr.Status != StatusConnectedValue {
		return StatusResult{Kind: StatusPending, Raw: sr.Status}, nil
	}
	if sr.User == "" {
		return StatusResult{}, fmt.Errorf("%w: connected status without user", ErrMalformedResponse)
	}
	return StatusResult{Kind: StatusConnected, User: sr.User}, nil
}

// UploadUtterance posts a recorded clip as multipart form data and decodes the envelope.
func (c *Client) UploadUtterance(ctx context.Context, up Upload) (Envelope, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, up.FileName))
	h.Set("Content-Type", up.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return Envelope{}, fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(up.Audio); err != nil {
		return Envelope{}, fmt.Errorf("write file part: %w", err)
	}
	if err := mw.WriteField("session_id", up.SessionID); err != nil {
		return Envelope{}, fmt.Errorf("write session_id: %w", err)
	}
	if err := mw.WriteField("start_conversation", strconv.FormatBool(up.StartConversation)); err != nil {
		return Envelope{}, fmt.Errorf("write start_conversation: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Envelope{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.conversationBase+endpointConversation, &buf)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return Envelope{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Envelope{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Envelope{}, &HTTPError{Op: "upload utterance", StatusCode: resp.StatusCode, Body: string(data)}
	}
	return DecodeEnvelope(data)
}

// DecodeEnvelope parses a conversation reply. Anything other than a JSON object is malformed.
func DecodeEnvelope(data []byte) (Envelope, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Envelope{}, fmt.Errorf("%w: expected JSON object", ErrMalformedResponse)
	}
	var env Envelope
	if err := sonic.Unmarshal(trimmed, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return env, nil
}

// PlaceOrder submits a finalized order. The body of a 2xx answer is ignored.
func (c *Client) PlaceOrder(ctx context.Context, order OrderRequest) error {
	body, err := sonic.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	_, err = c.doJSON(ctx, "place order", http.MethodPost, c.conversationBase+endpointPlaceOrder, body)
	return err
}

// Health probes the conversation service.
func (c *Client) Health(ctx context.Context) (HealthReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.conversationBase+endpointHealth, nil)
	if err != nil {
		return HealthReport{}, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return HealthReport{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return HealthReport{}, fmt.Errorf("read response: %w", err)
	}
	report := HealthReport{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	if !report.Healthy() {
		return report, &HTTPError{Op: "health check", StatusCode: resp.StatusCode, Body: report.Body}
	}
	return report, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, u string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}
