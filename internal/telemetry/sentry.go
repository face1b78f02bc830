// Package telemetry wires error reporting and tracing through Sentry.
// When no DSN is configured every call degrades to a no-op so local
// development and tests run without external services.
package telemetry

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
)

// Config carries the Sentry settings read from the environment.
type Config struct {
	DSN              string
	Environment      string
	TracesSampleRate float64
	Debug            bool
}

// Init configures the global Sentry client and returns a shutdown
// function that flushes buffered events. With an empty DSN nothing is
// initialized and the shutdown function does nothing.
func Init(cfg Config) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		TracesSampler: func(tc sentry.SamplingContext) float64 {
			// Health probes fire constantly and carry no signal.
			if tc.Span != nil && tc.Span.Name == "GET /health" {
				return 0
			}
			return cfg.TracesSampleRate
		},
	})
	if err != nil {
		// A broken telemetry setup must not keep the server down.
		log.Printf("sentry init failed, continuing without telemetry: %v", err)
		return func() {}, nil
	}

	return func() { sentry.Flush(5 * time.Second) }, nil
}

// SpanAttributes identifies the entities an operation touched. Empty
// fields are omitted from the span.
type SpanAttributes struct {
	DocumentID    string
	InteractionID string
	MetricID      string
	Operation     string
}

func (a SpanAttributes) apply(s *sentry.Span) {
	if a.DocumentID != "" {
		s.SetData("document_id", a.DocumentID)
	}
	if a.InteractionID != "" {
		s.SetData("interaction_id", a.InteractionID)
	}
	if a.MetricID != "" {
		s.SetData("metric_id", a.MetricID)
	}
	if a.Operation != "" {
		s.SetData("operation", a.Operation)
	}
}

// Span wraps a Sentry span. A nil inner span makes every method a
// no-op, which is what callers get when tracing is disabled.
type Span struct {
	inner *sentry.Span
}

// End finishes the span.
func (s *Span) End() {
	if s.inner != nil {
		s.inner.Finish()
	}
}

// SetError marks the span failed and records the error message.
func (s *Span) SetError(err error) {
	if s.inner == nil || err == nil {
		return
	}
	s.inner.Status = sentry.SpanStatusInternalError
	s.inner.SetData("error", err.Error())
}

// StartSpan opens a child span under the transaction already on ctx,
// or a fresh transaction when there is none. The returned context
// carries the span so nested calls attach to it.
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	if sentry.CurrentHub().Client() == nil {
		return ctx, &Span{}
	}

	var inner *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		inner = parent.StartChild(name)
	} else {
		inner = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}
	attrs.apply(inner)

	return inner.Context(), &Span{inner: inner}
}

// CaptureError reports err to Sentry, tagging it with the span data
// on ctx when present. Safe to call when telemetry is disabled.
func CaptureError(ctx context.Context, err error) {
	if err == nil || sentry.CurrentHub().Client() == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if span := sentry.SpanFromContext(ctx); span != nil {
			scope.SetTag("trace_id", span.TraceID.String())
		}
		hub.CaptureException(err)
	})
}
