package conversation

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"kiosk-assistant/internal/audio"
	"kiosk-assistant/internal/cart"
	"kiosk-assistant/internal/kioskapi"
	"kiosk-assistant/internal/logger"
)

// Uploader sends one recorded utterance to an assistant backend.
// kioskapi.Client talks to the remote service; assistant.Backend answers locally.
type Uploader interface {
	UploadUtterance(ctx context.Context, up kioskapi.Upload) (kioskapi.Envelope, error)
}

// Delta is what one utterance contributes: turns to append (user first) and the action.
type Delta struct {
	Turns  []Turn
	Action cart.Action
}

func (d Delta) Empty() bool {
	return len(d.Turns) == 0 && d.Action.Kind() == cart.NoAction
}

type Engine struct {
	uploader          Uploader
	startConversation bool
	log               logrus.FieldLogger
	inflight          atomic.Int32
}

func NewEngine(uploader Uploader, startConversation bool, log logrus.FieldLogger) *Engine {
	return &Engine{
		uploader:          uploader,
		startConversation: startConversation,
		log:               logger.OrDiscard(log),
	}
}

// Busy reports whether an upload is in flight (the assistant "typing" indicator).
func (e *Engine) Busy() bool {
	return e.inflight.Load() > 0
}

// Submit uploads clip for sessionID and decodes the reply. On any failure the
// returned delta is empty and nothing should be appended.
func (e *Engine) Submit(ctx context.Context, sessionID string, clip audio.Clip) (Delta, error) {
	if err := clip.Validate(); err != nil {
		return Delta{}, err
	}
	e.inflight.Add(1)
	defer e.inflight.Add(-1)

	log := e.log.WithField("session_id", sessionID)
	env, err := e.uploader.UploadUtterance(ctx, kioskapi.Upload{
		SessionID:         sessionID,
		StartConversation: e.startConversation,
		FileName:          clip.Name,
		ContentType:       clip.ContentType,
		Audio:             clip.Data,
	})
	if err != nil {
		log.WithError(err).Error("uploadAudio failed")
		return Delta{}, fmt.Errorf("submit utterance: %w", err)
	}

	d := Decode(env)
	log.WithFields(logrus.Fields{
		"turns":  len(d.Turns),
		"action": d.Action.Kind().String(),
	}).Debug("assistant replied")
	return d, nil
}

// Decode maps an envelope to a delta. The user turn always precedes the
// assistant turn; empty strings produce no turn; a missing action is NoAction.
func Decode(env kioskapi.Envelope) Delta {
	var d Delta
	if env.PromptMessage != nil && *env.PromptMessage != "" {
		d.Turns = append(d.Turns, Turn{Role: RoleUser, Text: *env.PromptMessage})
	}
	if env.Data == nil {
		return d
	}
	if env.Data.PromptResponse != nil && *env.Data.PromptResponse != "" {
		d.Turns = append(d.Turns, Turn{Role: RoleAssistant, Text: *env.Data.PromptResponse})
	}
	if a := env.Data.Action; a != nil {
		var itemID string
		if a.AddItemID != nil {
			itemID = *a.AddItemID
		}
		finalize := a.FinalizeOrder != nil && *a.FinalizeOrder == 1
		d.Action = cart.NewAction(itemID, finalize)
	}
	return d
}
