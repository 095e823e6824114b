package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"kiosk-assistant/internal/menu"
	"kiosk-assistant/internal/storage"
)

// DailyStats summarizes the orders placed on one day.
type DailyStats struct {
	Date           string               `json:"date"`
	Orders         int                  `json:"orders"`
	SubmittedCount int                  `json:"submitted"`
	UniqueUsers    int                  `json:"unique_users"`
	RevenueCents   int64                `json:"revenue_cents"`
	ItemsByID      map[string]ItemStats `json:"items_by_id"`
}

// ItemStats aggregates one menu item across the day's orders.
type ItemStats struct {
	ItemID       string `json:"item_id"`
	ItemName     string `json:"item_name"`
	Quantity     int    `json:"quantity"`
	RevenueCents int64  `json:"revenue_cents"`
}

// AnalyzeDailyOrders aggregates the events falling on targetDate's calendar day.
func AnalyzeDailyOrders(events []storage.OrderEvent, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &DailyStats{
		Date:      startOfDay.Format("2006-01-02"),
		ItemsByID: make(map[string]ItemStats),
	}
	users := make(map[string]bool)

	for _, ev := range events {
		if ev.Timestamp.Before(startOfDay) || !ev.Timestamp.Before(endOfDay) {
			continue
		}
		stats.Orders++
		if ev.Submitted {
			stats.SubmittedCount++
		}
		if ev.UserName != "" {
			users[ev.UserName] = true
		}
		stats.RevenueCents += ev.TotalCents
		for _, it := range ev.Items {
			is := stats.ItemsByID[it.ItemID]
			is.ItemID = it.ItemID
			is.ItemName = it.ItemName
			is.Quantity += it.Quantity
			is.RevenueCents += it.PriceCents * int64(it.Quantity)
			stats.ItemsByID[it.ItemID] = is
		}
	}

	stats.UniqueUsers = len(users)
	return stats
}

// TopItems returns item stats ordered by quantity, then id.
func (ds *DailyStats) TopItems() []ItemStats {
	out := make([]ItemStats, 0, len(ds.ItemsByID))
	for _, is := range ds.ItemsByID {
		out = append(out, is)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

// GenerateReportSummary renders a plain-text report for the kitchen chat.
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Kiosk sales for %s\n\n", ds.Date)
	fmt.Fprintf(&b, "Orders: %d (%d submitted)\n", ds.Orders, ds.SubmittedCount)
	fmt.Fprintf(&b, "Customers: %d\n", ds.UniqueUsers)
	fmt.Fprintf(&b, "Revenue: %s\n", menu.Money(ds.RevenueCents))

	top := ds.TopItems()
	if len(top) > 0 {
		b.WriteString("\nItems:\n")
		for _, is := range top {
			fmt.Fprintf(&b, "- %s (%s): %d, %s\n", is.ItemName, is.ItemID, is.Quantity, menu.Money(is.RevenueCents))
		}
	}
	return b.String()
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := sonic.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
