package observer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	courier "github.com/courier-relay/courier"
)

// Span attribute keys.
var (
	attrChatID = attribute.Key("courier.chat_id")
	attrState  = attribute.Key("courier.session_state")
)

// SessionSpan tracks one relay session from start to its terminal state.
type SessionSpan struct {
	inst   *Instruments
	span   trace.Span
	chatID string
	start  time.Time
}

// StartSession opens a session span. Safe on a nil receiver: the returned
// span is inert and End does nothing.
func (in *Instruments) StartSession(ctx context.Context, chatID string) (context.Context, *SessionSpan) {
	if in == nil {
		return ctx, nil
	}
	ctx, span := in.Tracer.Start(ctx, "relay.session", trace.WithAttributes(
		attrChatID.String(chatID),
	))
	return ctx, &SessionSpan{inst: in, span: span, chatID: chatID, start: time.Now()}
}

// RecordCancel counts a cancel-button press.
func (in *Instruments) RecordCancel(ctx context.Context, chatID string) {
	if in == nil {
		return
	}
	in.Cancels.Add(ctx, 1, metric.WithAttributes(attrChatID.String(chatID)))
}

// End closes the span and records the session's metrics and log record.
func (s *SessionSpan) End(ctx context.Context, out courier.Outcome) {
	if s == nil {
		return
	}
	state := out.State.String()
	durationMs := float64(time.Since(s.start).Milliseconds())

	s.span.SetAttributes(
		attrState.String(state),
		attribute.Int("courier.updates", out.Updates),
		attribute.Int("courier.commits", out.Commits),
	)
	switch out.State {
	case courier.StateFailed:
		if out.Err != nil {
			s.span.RecordError(out.Err)
			s.span.SetStatus(codes.Error, out.Err.Error())
		} else {
			s.span.SetStatus(codes.Error, "failed")
		}
	case courier.StateCancelled:
		s.span.AddEvent("relay.cancelled")
	default:
		s.span.AddEvent("relay.completed")
	}
	s.span.End()

	attrs := metric.WithAttributes(attribute.String("state", state))
	s.inst.Sessions.Add(ctx, 1, attrs)
	s.inst.Updates.Add(ctx, int64(out.Updates), attrs)
	s.inst.Commits.Add(ctx, int64(out.Commits), attrs)
	s.inst.SessionDuration.Record(ctx, durationMs)

	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("relay session finished"))
	rec.AddAttributes(
		otellog.String("chat_id", s.chatID),
		otellog.String("state", state),
		otellog.Int("updates", out.Updates),
		otellog.Int("commits", out.Commits),
		otellog.Float64("duration_ms", durationMs),
	)
	s.inst.Logger.Emit(ctx, rec)
}
