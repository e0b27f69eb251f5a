package telemetry

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"multitenant-cms/internal/telemetry/domain"
)

// DefaultEmitTimeout bounds a single background delivery.
const DefaultEmitTimeout = 5 * time.Second

// Async delivers events to another emitter in the background so session operations never wait on a
// broker or collector. Delivery failures are logged, not returned.
//
// Drain stops intake and waits for deliveries already started; call it before closing the producer or
// shutting down the OTel providers behind it.
type Async struct {
	next    EventEmitter
	logger  *zap.Logger
	timeout time.Duration

	mu       sync.Mutex
	draining bool
	inflight sync.WaitGroup
}

// NewAsync wraps next. A zero timeout means DefaultEmitTimeout; a nil logger discards failures.
func NewAsync(next EventEmitter, logger *zap.Logger, timeout time.Duration) *Async {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultEmitTimeout
	}
	return &Async{next: next, logger: logger, timeout: timeout}
}

// Emit starts delivery of event and returns nil at once. The caller's ctx is not used, so a cancelled
// request does not abort the delivery. Events arriving after Drain are dropped.
func (a *Async) Emit(_ context.Context, event *domain.Event) error {
	if a == nil || a.next == nil || event == nil {
		return nil
	}
	a.mu.Lock()
	if a.draining {
		a.mu.Unlock()
		a.logger.Debug("telemetry: dropping event after drain", zap.String("event_type", event.Type))
		return nil
	}
	a.inflight.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.next.Emit(ctx, event); err != nil {
			a.logger.Warn("telemetry: emit failed",
				zap.String("event_type", event.Type), zap.String("event_id", event.ID), zap.Error(err))
		}
	}()
	return nil
}

// Drain stops accepting events and blocks until in-flight deliveries finish or ctx is done.
func (a *Async) Drain(ctx context.Context) error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	a.draining = true
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
