package order

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"kiosk-assistant/internal/cart"
	"kiosk-assistant/internal/kioskapi"
	"kiosk-assistant/internal/logger"
	"kiosk-assistant/internal/storage"
)

// Placer sends an order to the restaurant backend. *kioskapi.Client implements it.
type Placer interface {
	PlaceOrder(ctx context.Context, req kioskapi.OrderRequest) error
}

// Notifier is told about every successfully placed order.
type Notifier interface {
	NotifyOrder(ctx context.Context, o Order) error
}

type Settings struct {
	RestaurantID int
	TenantID     int
	// Submit false short-circuits the remote call and treats placement as successful.
	Submit bool
}

// Result is handed to the confirmation view.
type Result struct {
	Order     Order
	Submitted bool
}

type Submitter struct {
	placer   Placer
	settings Settings
	recorder storage.Recorder
	notifier Notifier
	log      logrus.FieldLogger
	now      func() time.Time
}

type Option func(*Submitter)

// WithRecorder keeps an audit trail of placed orders.
func WithRecorder(r storage.Recorder) Option {
	return func(s *Submitter) { s.recorder = r }
}

func WithNotifier(n Notifier) Option {
	return func(s *Submitter) { s.notifier = n }
}

func WithClock(f func() time.Time) Option {
	return func(s *Submitter) { s.now = f }
}

func NewSubmitter(placer Placer, settings Settings, log logrus.FieldLogger, opts ...Option) *Submitter {
	s := &Submitter{
		placer:   placer,
		settings: settings,
		log:      logger.OrDiscard(log),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Place builds the order from snap and submits it. The snapshot is never
// modified; on error the caller keeps its cart as is and may retry.
// Recording and notification are best effort and never fail the placement.
func (s *Submitter) Place(ctx context.Context, sessionID string, snap cart.Snapshot, user string) (Result, error) {
	o, err := Build(sessionID, snap, user, s.settings.RestaurantID, s.settings.TenantID, s.now().UTC())
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrPlaceOrder, err)
	}
	log := s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"user":       user,
		"lines":      len(o.Lines),
		"total":      o.Total.String(),
	})

	if s.settings.Submit {
		if s.placer == nil {
			return Result{}, fmt.Errorf("%w: no placement client", ErrPlaceOrder)
		}
		if err := s.placer.PlaceOrder(ctx, o.Request()); err != nil {
			log.WithError(err).Error("order placement failed")
			return Result{}, fmt.Errorf("%w: %w", ErrPlaceOrder, err)
		}
		log.Info("order placed")
	} else {
		log.Info("order submission disabled, skipping remote placement")
	}

	if s.recorder != nil {
		if err := s.recorder.AppendOrder(o.Event(s.settings.Submit)); err != nil {
			log.WithError(err).Warn("order audit write failed")
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyOrder(ctx, o); err != nil {
			log.WithError(err).Warn("order notification failed")
		}
	}
	return Result{Order: o, Submitted: s.settings.Submit}, nil
}
