package storage

import "time"

// OrderEvent is one placed order as written to the local audit trail.
// Amounts are kept in cents so daily reports sum exactly.
type OrderEvent struct {
	Timestamp  time.Time   `json:"timestamp"`
	SessionID  string      `json:"session_id"`
	UserName   string      `json:"user_name"`
	Items      []EventItem `json:"items"`
	TotalCents int64       `json:"total_cents"`
	// Submitted is false when the remote placement call was short-circuited.
	Submitted bool `json:"submitted"`
}

type EventItem struct {
	ItemID     string `json:"item_id"`
	ItemName   string `json:"item_name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

// Recorder abstracts persistence of placed orders.
// LoadOrders should return events in chronological order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendOrder(event OrderEvent) error
	LoadOrders() ([]OrderEvent, error)
}
