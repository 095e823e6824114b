// Package app assembles a kiosk from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"kiosk-assistant/internal/analytics"
	"kiosk-assistant/internal/assistant"
	"kiosk-assistant/internal/config"
	"kiosk-assistant/internal/conversation"
	"kiosk-assistant/internal/health"
	"kiosk-assistant/internal/kiosk"
	"kiosk-assistant/internal/kioskapi"
	"kiosk-assistant/internal/logger"
	"kiosk-assistant/internal/menu"
	"kiosk-assistant/internal/notify"
	"kiosk-assistant/internal/order"
	"kiosk-assistant/internal/scheduler"
	"kiosk-assistant/internal/storage"
)

var ErrNoOrderLog = errors.New("order log is not configured")

// reporter posts texts to the kitchen chat. *notify.Telegram implements it.
type reporter interface {
	SendReport(ctx context.Context, text string) error
}

type App struct {
	Config  *config.Config
	Log     logrus.FieldLogger
	Catalog *menu.Catalog
	API     *kioskapi.Client
	Engine  *conversation.Engine
	Kiosk   *kiosk.Context
	Health  *health.Checker

	recorder  storage.Recorder
	reporter  reporter
	scheduler *scheduler.Scheduler
}

// New wires every component. Optional parts (order log, kitchen chat) that
// fail to initialize are logged and left out.
func New(cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	log = logger.OrDiscard(log)
	catalog, err := menu.Load(cfg.MenuFilePath)
	if err != nil {
		return nil, fmt.Errorf("load menu: %w", err)
	}
	api, err := kioskapi.New(cfg.SessionBaseURL, cfg.ConversationBaseURL, cfg.HTTPTimeout)
	if err != nil {
		return nil, err
	}

	uploader, err := newUploader(cfg, api, catalog, log)
	if err != nil {
		return nil, err
	}
	engine := conversation.NewEngine(uploader, cfg.StartConversation, log)

	a := &App{
		Config:  cfg,
		Log:     log,
		Catalog: catalog,
		API:     api,
		Engine:  engine,
		Health:  health.NewChecker(api, log),
	}

	var opts []order.Option
	if cfg.OrderLogPath != "" {
		rec, err := storage.NewFileRecorder(cfg.OrderLogPath)
		if err != nil {
			log.WithError(err).Warn("order log disabled")
		} else {
			log.WithField("path", rec.Path()).Info("order log enabled")
			a.recorder = rec
			opts = append(opts, order.WithRecorder(rec))
		}
	}
	if cfg.NotificationsEnabled() {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramKitchenChat, log)
		if err != nil {
			log.WithError(err).Warn("kitchen notifications disabled")
		} else {
			a.reporter = tg
			opts = append(opts, order.WithNotifier(tg))
		}
	}

	submitter := order.NewSubmitter(api, order.Settings{
		RestaurantID: cfg.RestaurantID,
		TenantID:     cfg.TenantID,
		Submit:       cfg.SubmitOrders,
	}, log, opts...)
	a.Kiosk = kiosk.New(api, engine, catalog, submitter, cfg.PollInterval, log)
	return a, nil
}

func newUploader(cfg *config.Config, api *kioskapi.Client, catalog *menu.Catalog, log logrus.FieldLogger) (conversation.Uploader, error) {
	if cfg.AssistantBackend != config.BackendDirect {
		return api, nil
	}
	f := assistant.NewFactory(cfg)
	chat, err := f.CreateClient(cfg.LLMProvider)
	if err != nil {
		return nil, fmt.Errorf("create assistant: %w", err)
	}
	log.WithField("provider", cfg.LLMProvider).Info("using direct assistant backend")
	return assistant.NewBackend(f.CreateTranscriber(), chat, catalog, log), nil
}

// StartBackground schedules the health probe and, when both the order log and
// the kitchen chat are available, the daily sales report.
func (a *App) StartBackground() error {
	s := scheduler.New(a.Log)
	if err := a.Health.Schedule(s, a.Config.HealthSchedule, a.Config.HTTPTimeout); err != nil {
		return err
	}
	if a.recorder != nil && a.reporter != nil {
		if err := s.Add("daily-report", a.Config.ReportSchedule, a.SendDailyReport); err != nil {
			return err
		}
	}
	s.Start()
	a.scheduler = s
	return nil
}

// DailyReport aggregates the order log for day.
func (a *App) DailyReport(day time.Time) (*analytics.DailyStats, error) {
	if a.recorder == nil {
		return nil, ErrNoOrderLog
	}
	events, err := a.recorder.LoadOrders()
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	return analytics.AnalyzeDailyOrders(events, day), nil
}

// SendDailyReport posts today's (UTC) summary to the kitchen chat.
func (a *App) SendDailyReport(ctx context.Context) error {
	return a.SendReport(ctx, time.Now().UTC())
}

// SendReport posts the summary of day to the kitchen chat.
func (a *App) SendReport(ctx context.Context, day time.Time) error {
	if a.reporter == nil {
		return errors.New("kitchen chat is not configured")
	}
	stats, err := a.DailyReport(day)
	if err != nil {
		return err
	}
	return a.reporter.SendReport(ctx, stats.GenerateReportSummary())
}

func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	a.Kiosk.Close()
}
