// Package chaos injects deterministic failures and delays into the flush
// path so retry behaviour can be exercised end to end.
package chaos

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ismaiel54/trading-storage-buffer/internal/buffer"
	"github.com/ismaiel54/trading-storage-buffer/internal/flusher"
	"github.com/ismaiel54/trading-storage-buffer/internal/storage"
	"go.uber.org/zap"
)

// ComponentSink is the target name of the flush sink
const ComponentSink = "sink"

var ErrInjected = errors.New("chaos: injected failure")

// Chaos provides deterministic failure injection
type Chaos struct {
	cfg    *Config
	logger *zap.Logger
	rng    *rand.Rand
	mu     sync.Mutex
	start  time.Time
}

// New creates a new Chaos instance
func New(cfg *Config, logger *zap.Logger) *Chaos {
	c := &Chaos{
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		start:  time.Now(),
	}

	if cfg.Profile != "" {
		failPct, delayMin, delayMax, err := ParseProfile(cfg.Profile)
		if err != nil {
			logger.Warn("failed to parse chaos profile", zap.Error(err))
		} else {
			if failPct > 0 {
				cfg.FailPct = failPct
			}
			if delayMin > 0 || delayMax > 0 {
				cfg.DelayMsMin = delayMin
				cfg.DelayMsMax = delayMax
			}
		}
	}

	return c
}

// EnabledFor checks if chaos is enabled for a component
func (c *Chaos) EnabledFor(component string) bool {
	if !c.cfg.Enabled {
		return false
	}

	if c.cfg.WindowMs > 0 && time.Since(c.start).Milliseconds() > int64(c.cfg.WindowMs) {
		return false
	}

	return c.cfg.Target == "" || c.cfg.Target == component
}

// MaybeDelay sleeps for a random delay within the configured range
func (c *Chaos) MaybeDelay(ctx context.Context, component, op string) error {
	if !c.EnabledFor(component) || (c.cfg.DelayMsMin == 0 && c.cfg.DelayMsMax == 0) {
		return nil
	}

	c.mu.Lock()
	delayMs := c.cfg.DelayMsMin
	if c.cfg.DelayMsMax > c.cfg.DelayMsMin {
		delayMs += c.rng.Intn(c.cfg.DelayMsMax - c.cfg.DelayMsMin + 1)
	}
	c.mu.Unlock()

	if delayMs <= 0 {
		return nil
	}

	c.logger.Info("chaos delay injected",
		zap.String("component", component),
		zap.String("op", op),
		zap.Int("delay_ms", delayMs),
	)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(delayMs) * time.Millisecond):
		return nil
	}
}

// MaybeFail returns ErrInjected for FailPct percent of calls
func (c *Chaos) MaybeFail(component, op string) error {
	if !c.EnabledFor(component) || c.cfg.FailPct == 0 {
		return nil
	}

	c.mu.Lock()
	fail := c.rng.Intn(100) < c.cfg.FailPct
	c.mu.Unlock()

	if !fail {
		return nil
	}

	c.logger.Info("chaos failure injected",
		zap.String("component", component),
		zap.String("op", op),
	)
	return fmt.Errorf("%s %s: %w", component, op, ErrInjected)
}

// Sink wraps a flush sink with injected delays and failures
type Sink struct {
	inner flusher.Sink
	chaos *Chaos
}

// WrapSink returns inner unchanged when chaos is disabled
func WrapSink(inner flusher.Sink, c *Chaos) flusher.Sink {
	if c == nil || !c.cfg.Enabled {
		return inner
	}
	return &Sink{inner: inner, chaos: c}
}

func (s *Sink) WriteSnapshot(ctx context.Context, batchID string, snap buffer.Snapshot, withEvent bool) (storage.WriteResult, error) {
	if err := s.chaos.MaybeDelay(ctx, ComponentSink, "write"); err != nil {
		return storage.WriteResult{}, err
	}
	if err := s.chaos.MaybeFail(ComponentSink, "write"); err != nil {
		return storage.WriteResult{}, err
	}
	return s.inner.WriteSnapshot(ctx, batchID, snap, withEvent)
}
