package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"kiosk-assistant/internal/logger"
	"kiosk-assistant/internal/order"
)

var ErrNoChat = errors.New("kitchen chat id is not configured")

// Telegram posts placed orders and daily reports to a kitchen chat.
type Telegram struct {
	s      sender
	chatID int64
	log    logrus.FieldLogger
}

func NewTelegram(botToken string, chatID int64, log logrus.FieldLogger) (*Telegram, error) {
	if chatID == 0 {
		return nil, ErrNoChat
	}
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &Telegram{s: botAPISender{api: api}, chatID: chatID, log: logger.OrDiscard(log)}, nil
}

func (t *Telegram) NotifyOrder(ctx context.Context, o order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.send(FormatOrder(o))
}

// SendReport posts a free-form text such as the daily sales summary.
func (t *Telegram) SendReport(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.send(text)
}

func (t *Telegram) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.s.Send(msg); err != nil {
		t.log.WithError(err).WithField("chat_id", t.chatID).Warn("telegram send failed")
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// FormatOrder renders the kitchen ticket for o.
func FormatOrder(o order.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New kiosk order for %s\n", displayName(o.UserName))
	for _, l := range o.Lines {
		fmt.Fprintf(&b, "- %dx %s (%s) %s\n", l.Quantity, l.ItemName, l.ItemID, l.Price)
	}
	fmt.Fprintf(&b, "Total: %s\n", o.Total)
	fmt.Fprintf(&b, "Status: %s, session %s", o.Status, o.SessionID)
	return b.String()
}

func displayName(user string) string {
	if strings.TrimSpace(user) == "" {
		return "guest"
	}
	return user
}
