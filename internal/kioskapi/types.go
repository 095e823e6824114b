package kioskapi

import (
	"bytes"
	"strconv"
)

// CreateSessionRequest is the body of POST /kiosk/api/session.
type CreateSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// statusResponse is the wire shape of the status poll.
type statusResponse struct {
	Status string `json:"status"`
	User   string `json:"user,omitempty"`
}

const StatusConnectedValue = "connected"

type StatusKind int

const (
	StatusPending StatusKind = iota
	StatusConnected
	StatusNotFound
)

func (k StatusKind) String() string {
	switch k {
	case StatusConnected:
		return "connected"
	case StatusNotFound:
		return "not_found"
	default:
		return "pending"
	}
}

// StatusResult is the decoded poll outcome. User is set only for StatusConnected,
// Raw only for StatusPending.
type StatusResult struct {
	Kind StatusKind
	User string
	Raw  string
}

func (r StatusResult) Terminal() bool {
	return r.Kind == StatusConnected || r.Kind == StatusNotFound
}

// Upload is one multipart utterance submission.
type Upload struct {
	SessionID         string
	StartConversation bool
	FileName          string
	ContentType       string
	Audio             []byte
}

// Envelope is the conversation service reply. Every field is optional on the wire.
type Envelope struct {
	PromptMessage *string       `json:"promptMessage,omitempty"`
	Data          *EnvelopeData `json:"data,omitempty"`
}

type EnvelopeData struct {
	PromptResponse *string     `json:"prompt_response,omitempty"`
	Action         *WireAction `json:"action,omitempty"`
}

type WireAction struct {
	AddItemID     *string `json:"add_item_id,omitempty"`
	FinalizeOrder *Flag   `json:"finalize_order,omitempty"`
}

// Flag is the finalize marker. Only the JSON number 1 sets it; any other
// value, booleans and strings included, reads as 0 and never fails decoding.
type Flag int

func (f *Flag) UnmarshalJSON(b []byte) error {
	*f = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || (b[0] != '-' && (b[0] < '0' || b[0] > '9')) {
		return nil
	}
	if n, err := strconv.ParseFloat(string(b), 64); err == nil && n == 1 {
		*f = 1
	}
	return nil
}

// OrderItem and OrderRequest form the body of POST /kiosk-comm/api/orders/place.
type OrderItem struct {
	ItemID   string  `json:"itemId"`
	ItemName string  `json:"itemName"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type OrderRequest struct {
	UserName     string      `json:"userName"`
	RestaurantID int         `json:"restaurantId"`
	TenantID     int         `json:"tenantId"`
	Status       string      `json:"status"`
	ItemDetails  []OrderItem `json:"itemDetails"`
}

// HealthReport is what the conversation service answered on /health.
type HealthReport struct {
	StatusCode int
	Body       string
}

func (h HealthReport) Healthy() bool {
	return h.StatusCode >= 200 && h.StatusCode < 300
}
