// Package producer publishes session events to the event stream (Kafka) and reads them back for the worker.
package producer

import (
	"context"

	"multitenant-cms/internal/telemetry/domain"
)

// Producer emits session events. Callers use it best-effort: log and ignore errors.
type Producer interface {
	// Emit sends a single event. Implementations may block briefly; call from a goroutine if needed.
	Emit(ctx context.Context, event *domain.Event) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}

// Handler processes one event read from the stream. A returned error stops the consumer
// without committing the message, so it is redelivered.
type Handler func(ctx context.Context, event *domain.Event) error
