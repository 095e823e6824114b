package ui

import (
	"fmt"
	"strings"

	"github.com/mdp/qrterminal/v3"

	"kiosk-assistant/internal/cart"
	"kiosk-assistant/internal/conversation"
	"kiosk-assistant/internal/kiosk"
	"kiosk-assistant/internal/menu"
	"kiosk-assistant/internal/order"
)

// SessionBox is the pairing screen: a QR code of the session token for the
// phone to scan, with the token printed underneath.
func SessionBox(sessionID string) string {
	body := fmt.Sprintf("%s\n\n%s%s\n\n%s",
		Styles.Bold.Render("Scan to start ordering"),
		QRCode(sessionID),
		Styles.Muted.Render(sessionID),
		Styles.Muted.Render("Waiting for your phone to connect..."),
	)
	return Styles.SessionBox.Render(body)
}

// QRCode renders text as a half-block terminal QR code.
func QRCode(text string) string {
	if text == "" {
		return ""
	}
	var sb strings.Builder
	qrterminal.GenerateHalfBlock(text, qrterminal.L, &sb)
	return sb.String()
}

// Transcript renders turns in order, one per line.
func Transcript(turns []conversation.Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		switch t.Role {
		case conversation.RoleUser:
			sb.WriteString(Styles.UserTurn.Render("You: " + t.Text))
		default:
			sb.WriteString(Styles.AssistTurn.Render("Assistant: " + t.Text))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Cart renders the lines and the total.
func Cart(snap cart.Snapshot) string {
	if snap.Empty() {
		return Styles.CartBox.Render(Styles.Muted.Render("Your cart is empty"))
	}
	var sb strings.Builder
	sb.WriteString(Styles.Bold.Render("Your order"))
	sb.WriteString("\n\n")
	for _, l := range snap.Lines {
		sb.WriteString(lineText(l.Item.Name, l.Quantity, l.Subtotal()))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(Styles.Total.Render("Total: " + snap.Total.String()))
	if snap.ReadyToFinalize {
		sb.WriteString("\n")
		sb.WriteString(Styles.Muted.Render("Say it's complete or type 'order' to place it"))
	}
	return Styles.CartBox.Render(sb.String())
}

// Confirmation is the screen after the order went through.
func Confirmation(res order.Result) string {
	var sb strings.Builder
	sb.WriteString(successColor.Sprint("Order confirmed"))
	if res.Order.UserName != "" {
		sb.WriteString(" for " + res.Order.UserName)
	}
	sb.WriteString("\n\n")
	for _, l := range res.Order.Lines {
		sb.WriteString(lineText(l.ItemName, l.Quantity, l.Price*menu.Money(l.Quantity)))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(Styles.Total.Render("Total: " + res.Order.Total.String()))
	if !res.Submitted {
		sb.WriteString("\n")
		sb.WriteString(Styles.Muted.Render("(not sent to the kitchen)"))
	}
	return Styles.ConfirmBox.Render(sb.String())
}

// Status is a one-line summary of the session state.
func Status(v kiosk.View) string {
	parts := []string{"state: " + v.State.String()}
	if v.User != "" {
		parts = append(parts, "user: "+v.User)
	}
	if v.Busy {
		parts = append(parts, "assistant is typing...")
	}
	return Styles.Muted.Render(strings.Join(parts, " | "))
}

// Menu lists the catalog grouped by category.
func Menu(c *menu.Catalog) string {
	var sb strings.Builder
	for i, cat := range c.Categories() {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(Styles.Bold.Render(strings.ToUpper(cat.Name)))
		sb.WriteString("\n")
		for _, it := range cat.Items {
			fmt.Fprintf(&sb, "  %-4s %-24s %8s\n", it.ID, it.Name, it.Price)
		}
	}
	return sb.String()
}

func lineText(name string, qty int, amount menu.Money) string {
	return fmt.Sprintf("%dx %-30s %8s", qty, name, amount)
}
