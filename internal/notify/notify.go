package notify

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

// Delivery sends one text message to one owner. Implementations must be safe
// for concurrent use; the scheduler calls this from timer callbacks.
type Delivery interface {
	Send(ctx context.Context, ownerID, text string) error
}

type Config struct {
	RetryMax      int           // attempts total; <=0 means 3
	RetryBase     time.Duration // first backoff; <=0 means 1s
	RetryMaxDelay time.Duration // backoff cap; <=0 means 30s
	RatePerSec    int           // outbound budget; <=0 means 5
}

func (c Config) withDefaults() Config {
	if c.RetryMax <= 0 {
		c.RetryMax = 3
	}
	if c.RetryBase <= 0 {
		c.RetryBase = time.Second
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = 30 * time.Second
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 5
	}
	return c
}

// Service wraps a Delivery with bounded exponential backoff and an outbound
// rate limit. A send that exhausts its retries is logged and reported to the
// caller, never escalated: a lost notification must not take the scheduling
// loop with it.
type Service struct {
	d       Delivery
	log     logx.Logger
	cfg     Config
	limiter *rate.Limiter

	// sleep is swappable so tests don't wait out real backoff.
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config, d Delivery, log logx.Logger) *Service {
	cfg = cfg.withDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		d:       d,
		log:     log,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		sleep:   sleepCtx,
	}
}

func (s *Service) Send(ctx context.Context, ownerID, text string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	delay := s.cfg.RetryBase
	for attempt := 1; attempt <= s.cfg.RetryMax; attempt++ {
		lastErr = s.d.Send(ctx, ownerID, text)
		if lastErr == nil {
			return nil
		}
		if attempt == s.cfg.RetryMax {
			break
		}
		s.log.Debug("delivery failed, retrying",
			logx.String("owner", ownerID),
			logx.Int("attempt", attempt),
			logx.Duration("backoff", delay),
			logx.Err(lastErr))
		if err := s.sleep(ctx, delay); err != nil {
			return err
		}
		delay *= 2
		if delay > s.cfg.RetryMaxDelay {
			delay = s.cfg.RetryMaxDelay
		}
	}

	s.log.Warn("delivery failed after retries",
		logx.String("owner", ownerID),
		logx.Int("attempts", s.cfg.RetryMax),
		logx.Err(lastErr))
	return fmt.Errorf("delivery to %s failed after %d attempts: %w", ownerID, s.cfg.RetryMax, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// AdapterDelivery exposes a transport adapter as a Delivery.
func AdapterDelivery(a transport.Adapter) Delivery {
	return adapterDelivery{a: a}
}

type adapterDelivery struct{ a transport.Adapter }

func (d adapterDelivery) Send(ctx context.Context, ownerID, text string) error {
	_, err := d.a.SendText(ctx, ownerID, text, &transport.SendOptions{DisablePreview: true})
	return err
}
