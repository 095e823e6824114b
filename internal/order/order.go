package order

import (
	"errors"
	"time"

	"kiosk-assistant/internal/cart"
	"kiosk-assistant/internal/kioskapi"
	"kiosk-assistant/internal/menu"
	"kiosk-assistant/internal/storage"
)

// StatusPending is the only status a kiosk ever submits.
const StatusPending = "PENDING"

var (
	ErrEmptyCart  = errors.New("cart is empty")
	ErrPlaceOrder = errors.New("place order failed")
)

type Line struct {
	ItemID   string
	ItemName string
	Quantity int
	Price    menu.Money
}

// Order is built once at finalization and never mutated afterwards.
type Order struct {
	SessionID    string
	UserName     string
	RestaurantID int
	TenantID     int
	Status       string
	Lines        []Line
	Total        menu.Money
	PlacedAt     time.Time
}

// Build turns a cart snapshot into an order for user.
func Build(sessionID string, snap cart.Snapshot, user string, restaurantID, tenantID int, at time.Time) (Order, error) {
	if snap.Empty() {
		return Order{}, ErrEmptyCart
	}
	lines := make([]Line, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		lines = append(lines, Line{
			ItemID:   l.Item.ID,
			ItemName: l.Item.Name,
			Quantity: l.Quantity,
			Price:    l.Item.Price,
		})
	}
	return Order{
		SessionID:    sessionID,
		UserName:     user,
		RestaurantID: restaurantID,
		TenantID:     tenantID,
		Status:       StatusPending,
		Lines:        lines,
		Total:        snap.Total,
		PlacedAt:     at,
	}, nil
}

// Request is the wire body for the placement endpoint.
func (o Order) Request() kioskapi.OrderRequest {
	items := make([]kioskapi.OrderItem, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, kioskapi.OrderItem{
			ItemID:   l.ItemID,
			ItemName: l.ItemName,
			Quantity: l.Quantity,
			Price:    l.Price.Float(),
		})
	}
	return kioskapi.OrderRequest{
		UserName:     o.UserName,
		RestaurantID: o.RestaurantID,
		TenantID:     o.TenantID,
		Status:       o.Status,
		ItemDetails:  items,
	}
}

// Event is the audit record written after placement.
func (o Order) Event(submitted bool) storage.OrderEvent {
	items := make([]storage.EventItem, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, storage.EventItem{
			ItemID:     l.ItemID,
			ItemName:   l.ItemName,
			Quantity:   l.Quantity,
			PriceCents: int64(l.Price),
		})
	}
	return storage.OrderEvent{
		Timestamp:  o.PlacedAt,
		SessionID:  o.SessionID,
		UserName:   o.UserName,
		Items:      items,
		TotalCents: int64(o.Total),
		Submitted:  submitted,
	}
}
