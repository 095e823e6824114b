package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"kiosk-assistant/internal/kioskapi"
	"kiosk-assistant/internal/logger"
	"kiosk-assistant/internal/scheduler"
)

var ErrUnhealthy = errors.New("conversation service unhealthy")

// Prober is the health endpoint of the conversation service.
type Prober interface {
	Health(ctx context.Context) (kioskapi.HealthReport, error)
}

type Status struct {
	Healthy    bool
	StatusCode int
	Body       string
	Err        string
	CheckedAt  time.Time
	Latency    time.Duration
}

// Checker probes the service and remembers the latest result.
type Checker struct {
	prober Prober
	log    logrus.FieldLogger
	now    func() time.Time

	mu   sync.RWMutex
	last *Status
}

func NewChecker(prober Prober, log logrus.FieldLogger) *Checker {
	return &Checker{prober: prober, log: logger.OrDiscard(log), now: time.Now}
}

func (c *Checker) Check(ctx context.Context) Status {
	start := c.now()
	report, err := c.prober.Health(ctx)
	st := Status{
		Healthy:    err == nil && report.Healthy(),
		StatusCode: report.StatusCode,
		Body:       report.Body,
		CheckedAt:  start,
		Latency:    c.now().Sub(start),
	}
	if err != nil {
		st.Err = err.Error()
	}

	c.mu.Lock()
	prev := c.last
	c.last = &st
	c.mu.Unlock()

	log := c.log.WithFields(logrus.Fields{"status_code": st.StatusCode, "latency": st.Latency})
	switch {
	case prev == nil || prev.Healthy != st.Healthy:
		if st.Healthy {
			log.Info("conversation service healthy")
		} else {
			log.WithField("error", st.Err).Warn("conversation service unhealthy")
		}
	default:
		log.Debug("health probe")
	}
	return st
}

// Last returns the most recent probe result, if any.
func (c *Checker) Last() (Status, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return Status{}, false
	}
	return *c.last, true
}

// Schedule registers a periodic probe. Each run is bounded by timeout.
func (c *Checker) Schedule(s *scheduler.Scheduler, spec string, timeout time.Duration) error {
	return s.Add("health", spec, func(ctx context.Context) error {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		if st := c.Check(ctx); !st.Healthy {
			return ErrUnhealthy
		}
		return nil
	})
}
