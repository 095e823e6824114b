package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"kiosk-assistant/internal/audio"
	"kiosk-assistant/internal/cart"
	"kiosk-assistant/internal/conversation"
	"kiosk-assistant/internal/kiosk"
	"kiosk-assistant/internal/order"
)

const defaultWaitTimeout = 60 * time.Second

type EmptyParams struct{}

type WaitPairedParams struct {
	TimeoutSeconds int `json:"timeout_seconds,omitempty" mcp:"how long to wait for the phone to pair (default 60)"`
}

type SubmitUtteranceParams struct {
	AudioPath string `json:"audio_path" mcp:"path of a recorded utterance (mp4/m4a/wav)"`
}

// kioskTools exposes one kiosk terminal as MCP tools.
type kioskTools struct {
	k   *kiosk.Context
	log logrus.FieldLogger
}

func newKioskTools(k *kiosk.Context, log logrus.FieldLogger) *kioskTools {
	return &kioskTools{k: k, log: log}
}

func registerTools(server *mcp.Server, t *kioskTools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "start_session",
		Description: "Creates a kiosk session (or returns the current one) and starts waiting for a phone to pair",
	}, t.StartSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "wait_paired",
		Description: "Blocks until the current session is paired with a phone",
	}, t.WaitPaired)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "session_status",
		Description: "Shows the session state, the conversation so far and the cart",
	}, t.SessionStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "submit_utterance",
		Description: "Sends a recorded utterance to the ordering assistant and applies its answer",
	}, t.SubmitUtterance)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "show_cart",
		Description: "Shows the cart with its total",
	}, t.ShowCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "place_order",
		Description: "Places the order once the assistant marked the cart ready",
	}, t.PlaceOrder)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset_session",
		Description: "Discards the conversation and the cart and creates a new session",
	}, t.ResetSession)
}

func (t *kioskTools) StartSession(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[EmptyParams]) (*mcp.CallToolResultFor[any], error) {
	sess, err := t.k.Start(ctx)
	if err != nil {
		return errorResult("Failed to create session: %v", err), nil
	}
	return textResult("Session %s (%s). Scan the QR code on the phone to pair.", sess.ID, t.k.State()), nil
}

func (t *kioskTools) WaitPaired(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[WaitPairedParams]) (*mcp.CallToolResultFor[any], error) {
	timeout := defaultWaitTimeout
	if params.Arguments.TimeoutSeconds > 0 {
		timeout = time.Duration(params.Arguments.TimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := t.k.WaitPaired(ctx); err != nil {
		return errorResult("Session %s is not paired: %v", t.k.Snapshot().SessionID, err), nil
	}
	return textResult("%s", t.k.Snapshot().Welcome()), nil
}

func (t *kioskTools) SessionStatus(_ context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[EmptyParams]) (*mcp.CallToolResultFor[any], error) {
	return textResult("%s", formatView(t.k.Snapshot())), nil
}

func (t *kioskTools) SubmitUtterance(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[SubmitUtteranceParams]) (*mcp.CallToolResultFor[any], error) {
	path := strings.TrimSpace(params.Arguments.AudioPath)
	if path == "" {
		return errorResult("audio_path is required"), nil
	}
	clip, err := audio.FileSource{Path: path}.Record(ctx)
	if err != nil {
		return errorResult("Cannot read %s: %v", path, err), nil
	}

	t.log.WithField("file", clip.Name).Debug("mcp utterance")
	up, err := t.k.SubmitUtterance(ctx, clip)
	if err != nil {
		if kiosk.IsStale(err) {
			return textResult("Session was reset, the answer was dropped"), nil
		}
		return errorResult("Failed to upload audio: %v", err), nil
	}

	var sb strings.Builder
	sb.WriteString(formatTurns(up.Turns))
	if up.Added || up.State == kiosk.ReadyToFinalize {
		sb.WriteString("\n")
		sb.WriteString(formatCart(t.k.Snapshot().Cart))
	}
	fmt.Fprintf(&sb, "\nstate: %s", up.State)
	return textResult("%s", sb.String()), nil
}

func (t *kioskTools) ShowCart(_ context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[EmptyParams]) (*mcp.CallToolResultFor[any], error) {
	return textResult("%s", formatCart(t.k.Snapshot().Cart)), nil
}

func (t *kioskTools) PlaceOrder(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[EmptyParams]) (*mcp.CallToolResultFor[any], error) {
	res, err := t.k.PlaceOrder(ctx)
	if err != nil {
		return errorResult("Error placing order: %v", err), nil
	}
	return textResult("%s", formatOrder(res)), nil
}

func (t *kioskTools) ResetSession(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[EmptyParams]) (*mcp.CallToolResultFor[any], error) {
	sess, err := t.k.Reset(ctx)
	if err != nil {
		return errorResult("Failed to create session: %v", err), nil
	}
	return textResult("New session %s. Scan the QR code on the phone to pair.", sess.ID), nil
}

func textResult(format string, args ...any) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
	}
}

func formatView(v kiosk.View) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "session: %s\nstate: %s\n", v.SessionID, v.State)
	if v.User != "" {
		fmt.Fprintf(&sb, "user: %s\n", v.User)
	}
	if v.Busy {
		sb.WriteString("assistant is typing...\n")
	}
	if len(v.Turns) > 0 {
		sb.WriteString("\n")
		sb.WriteString(formatTurns(v.Turns))
	}
	sb.WriteString("\n")
	sb.WriteString(formatCart(v.Cart))
	return sb.String()
}

func formatTurns(turns []conversation.Turn) string {
	var sb strings.Builder
	for _, turn := range turns {
		if turn.Role == conversation.RoleUser {
			sb.WriteString("You: ")
		} else {
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(turn.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatCart(snap cart.Snapshot) string {
	if snap.Empty() {
		return "Cart is empty"
	}
	var sb strings.Builder
	sb.WriteString("Cart:\n")
	for _, l := range snap.Lines {
		fmt.Fprintf(&sb, "- %dx %s %s\n", l.Quantity, l.Item.Name, l.Subtotal())
	}
	fmt.Fprintf(&sb, "Total: %s", snap.Total)
	if snap.ReadyToFinalize {
		sb.WriteString("\nReady to order")
	}
	return sb.String()
}

func formatOrder(res order.Result) string {
	var sb strings.Builder
	sb.WriteString("Order confirmed")
	if res.Order.UserName != "" {
		sb.WriteString(" for " + res.Order.UserName)
	}
	sb.WriteString("\n")
	for _, l := range res.Order.Lines {
		fmt.Fprintf(&sb, "- %dx %s (%s)\n", l.Quantity, l.ItemName, l.ItemID)
	}
	fmt.Fprintf(&sb, "Total: %s", res.Order.Total)
	if !res.Submitted {
		sb.WriteString("\n(not sent to the kitchen)")
	}
	return sb.String()
}
