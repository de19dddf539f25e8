package notifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"SwingSentinel/internal/metrics"
	"SwingSentinel/internal/model"
)

// Sink delivers signal alerts to a user-facing channel.
// Notify reports success; callers never roll back a signal on failure.
type Sink interface {
	Notify(ctx context.Context, symbol string, sig model.Signal) bool
	SendTest(ctx context.Context) error
	Name() string
	Configured() bool
}

// MultiSink fans a signal out to every configured sink. Each sink gets its
// own Timeout, so a stalled channel never starves the ones after it.
type MultiSink struct {
	Sinks   []Sink
	Timeout time.Duration
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks, Timeout: 20 * time.Second}
}

func (m *MultiSink) sinkContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.Timeout > 0 {
		return context.WithTimeout(ctx, m.Timeout)
	}
	return context.WithCancel(ctx)
}

func (m *MultiSink) Name() string { return "multi" }

// Configured is true when at least one member sink is configured.
func (m *MultiSink) Configured() bool {
	for _, s := range m.Sinks {
		if s.Configured() {
			return true
		}
	}
	return false
}

// Notify reports true if any configured sink delivered the alert.
func (m *MultiSink) Notify(ctx context.Context, symbol string, sig model.Signal) bool {
	delivered := false
	for _, s := range m.Sinks {
		if !s.Configured() {
			continue
		}
		sctx, cancel := m.sinkContext(ctx)
		ok := s.Notify(sctx, symbol, sig)
		cancel()
		if ok {
			delivered = true
			continue
		}
		log.Printf("[WARN] %s sink failed to deliver %s signal %s", s.Name(), sig.Direction, sig.ID)
		metrics.RecordNotifyFailure(s.Name())
	}
	return delivered
}

// SendTest sends a test message through every configured sink and joins the failures.
func (m *MultiSink) SendTest(ctx context.Context) error {
	var errs []error
	sent := 0
	for _, s := range m.Sinks {
		if !s.Configured() {
			continue
		}
		sctx, cancel := m.sinkContext(ctx)
		err := s.SendTest(sctx)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		sent++
	}
	if sent == 0 && len(errs) == 0 {
		return fmt.Errorf("no notifier configured: %w", model.ErrNotificationFailed)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", model.ErrNotificationFailed, errors.Join(errs...))
	}
	return nil
}
