package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"kiosk-assistant/internal/kioskapi"
	"kiosk-assistant/internal/logger"
	"kiosk-assistant/internal/menu"
)

// maxHistory bounds the per-session messages replayed to the model.
const maxHistory = 20

var ErrEmptyTranscript = errors.New("no speech recognized")

// Backend answers utterances locally: transcription, then a chat completion
// constrained to the menu. It produces the same envelope as the remote
// conversation service, so the conversation engine can use either.
type Backend struct {
	transcriber Transcriber
	chat        Client
	catalog     *menu.Catalog
	log         logrus.FieldLogger

	mu      sync.Mutex
	history map[string][]Message
}

func NewBackend(transcriber Transcriber, chat Client, catalog *menu.Catalog, log logrus.FieldLogger) *Backend {
	return &Backend{
		transcriber: transcriber,
		chat:        chat,
		catalog:     catalog,
		log:         logger.OrDiscard(log),
		history:     make(map[string][]Message),
	}
}

func (b *Backend) UploadUtterance(ctx context.Context, up kioskapi.Upload) (kioskapi.Envelope, error) {
	log := b.log.WithField("session_id", up.SessionID)

	text, err := b.transcriber.Transcribe(ctx, up.FileName, up.Audio)
	if err != nil {
		return kioskapi.Envelope{}, err
	}
	if text == "" {
		return kioskapi.Envelope{}, ErrEmptyTranscript
	}

	prior := b.conversation(up.SessionID, up.StartConversation)
	msgs := make([]Message, 0, len(prior)+2)
	msgs = append(msgs, Message{Role: "system", Content: SystemPrompt(b.catalog)})
	msgs = append(msgs, prior...)
	msgs = append(msgs, Message{Role: "user", Content: text})

	resp, err := b.chat.Generate(ctx, msgs)
	if err != nil {
		return kioskapi.Envelope{}, err
	}
	log.WithFields(logrus.Fields{"model": resp.Model, "tokens": resp.TotalTokens}).Debug("assistant completion")

	reply, err := ParseReply(resp.Content)
	if err != nil {
		// plain text answers are still shown, just without an action
		log.WithError(err).Warn("unstructured model reply")
		reply = Reply{Reply: strings.TrimSpace(resp.Content)}
	}
	if reply.AddItemID != "" {
		if _, ok := b.catalog.Lookup(reply.AddItemID); !ok {
			log.WithField("item_id", reply.AddItemID).Warn("model picked an unknown item")
		}
	}

	b.remember(up.SessionID, Message{Role: "user", Content: text}, Message{Role: "assistant", Content: resp.Content})
	return envelope(text, reply), nil
}

func (b *Backend) conversation(sessionID string, start bool) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	if start && len(b.history) > 0 {
		// a new session id means the previous ones are over
		for id := range b.history {
			if id != sessionID {
				delete(b.history, id)
			}
		}
	}
	h := b.history[sessionID]
	out := make([]Message, len(h))
	copy(out, h)
	return out
}

func (b *Backend) remember(sessionID string, msgs ...Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := append(b.history[sessionID], msgs...)
	if len(h) > maxHistory {
		h = h[len(h)-maxHistory:]
	}
	b.history[sessionID] = h
}

func envelope(userText string, r Reply) kioskapi.Envelope {
	data := &kioskapi.EnvelopeData{}
	if r.Reply != "" {
		reply := r.Reply
		data.PromptResponse = &reply
	}
	if r.AddItemID != "" || r.FinalizeOrder {
		a := &kioskapi.WireAction{}
		if r.AddItemID != "" {
			id := r.AddItemID
			a.AddItemID = &id
		}
		if r.FinalizeOrder {
			f := kioskapi.Flag(1)
			a.FinalizeOrder = &f
		}
		data.Action = a
	}
	return kioskapi.Envelope{PromptMessage: &userText, Data: data}
}

// SystemPrompt instructs the model to act as the ordering assistant for catalog.
func SystemPrompt(catalog *menu.Catalog) string {
	var sb strings.Builder
	sb.WriteString("You are a friendly voice ordering assistant at a restaurant kiosk. ")
	sb.WriteString("Help the customer choose from the menu below and keep answers short.\n\n")
	sb.WriteString("Menu:\n")
	for _, cat := range catalog.Categories() {
		fmt.Fprintf(&sb, "%s:\n", cat.Name)
		for _, it := range cat.Items {
			fmt.Fprintf(&sb, "- id %s: %s, %s\n", it.ID, it.Name, it.Price)
		}
	}
	sb.WriteString("\nAnswer with a single JSON object and nothing else:\n")
	sb.WriteString(`{"reply": "<what you say to the customer>", "add_item_id": "<menu id to add, or empty>", "finalize_order": <true when the customer is done ordering>}`)
	sb.WriteString("\nAdd exactly one item per answer and only ids from the menu. ")
	sb.WriteString("Set finalize_order only when the customer confirms the order is complete.")
	return sb.String()
}
