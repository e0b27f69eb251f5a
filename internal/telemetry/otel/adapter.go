package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"multitenant-cms/internal/telemetry"
	"multitenant-cms/internal/telemetry/domain"
)

// RecordEmitter is the subset of otellog.Logger the adapter needs.
type RecordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("cms.sessions")}
}

// NewEventEmitterWithLogger wraps an arbitrary record emitter; tests use it to capture records.
func NewEventEmitterWithLogger(logger RecordEmitter) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *domain.Event) error { return nil }

type otelEmitter struct {
	logger RecordEmitter
}

// Attribute keys of session event records.
const (
	attrEventID    = "cms.event.id"
	attrEventType  = "cms.event.type"
	attrSource     = "cms.event.source"
	attrSessionID  = "cms.session.id"
	attrUserID     = "cms.user.id"
	attrAccountID  = "cms.account.id"
	attrMetaPrefix = "cms.meta."
)

// Emit records event as an INFO log whose body is the event type. Ids are int64 attributes; metadata
// entries are strings under cms.meta.*.
func (e *otelEmitter) Emit(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return nil
	}
	var rec otellog.Record
	at := event.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	rec.SetTimestamp(at)
	rec.SetObservedTimestamp(time.Now().UTC())
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetSeverityText("INFO")
	rec.SetBody(otellog.StringValue(event.Type))

	attrs := make([]otellog.KeyValue, 0, 6+len(event.Metadata))
	for _, kv := range []struct{ key, val string }{
		{attrEventID, event.ID},
		{attrEventType, event.Type},
		{attrSource, event.Source},
		{attrSessionID, event.SessionID},
	} {
		if kv.val != "" {
			attrs = append(attrs, otellog.String(kv.key, kv.val))
		}
	}
	if event.UserID != 0 {
		attrs = append(attrs, otellog.Int64(attrUserID, event.UserID))
	}
	if event.AccountID != nil {
		attrs = append(attrs, otellog.Int64(attrAccountID, *event.AccountID))
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, otellog.String(attrMetaPrefix+k, v))
	}
	rec.AddAttributes(attrs...)
	e.logger.Emit(ctx, rec)
	return nil
}
