// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// GlobalLogger logs work that runs outside a request: workers, realtime
// sockets and best-effort calls. The server replaces it at startup.
var GlobalLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetLogger replaces GlobalLogger. A nil logger is ignored.
func SetLogger(l *slog.Logger) {
	if l != nil {
		GlobalLogger = l
	}
}

// For returns GlobalLogger tagged with a component name. Call it at log
// time rather than caching the result so SetLogger takes effect.
func For(component string) *slog.Logger {
	return GlobalLogger.With(slog.String("component", component))
}

func fieldAttrs(operation, outcome string, fields map[string]interface{}) []any {
	attrs := make([]any, 0, len(fields)+2)
	attrs = append(attrs, slog.String("operation", operation), slog.String("outcome", outcome))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

// RunBestEffort runs fn on its own goroutine with a timeout detached from the
// caller's cancellation. Failures are logged and counted, never returned.
func RunBestEffort(ctx context.Context, operation string, timeout time.Duration, fields map[string]interface{}, fn func(context.Context) error) {
	detached := context.WithoutCancel(ctx)
	go func() {
		log := For("best_effort")
		defer func() {
			if r := recover(); r != nil {
				BestEffortCalls.WithLabelValues(operation, "panic").Inc()
				log.ErrorContext(detached, "best-effort call panicked",
					append(fieldAttrs(operation, "panic", fields), slog.Any("panic", r))...)
			}
		}()

		callCtx, cancel := context.WithTimeout(detached, timeout)
		defer cancel()

		start := time.Now()
		err := fn(callCtx)
		elapsed := slog.Duration("elapsed", time.Since(start))
		if err != nil {
			BestEffortCalls.WithLabelValues(operation, "error").Inc()
			log.WarnContext(callCtx, "best-effort call failed",
				append(fieldAttrs(operation, "error", fields), elapsed, slog.String("error", err.Error()))...)
			return
		}
		BestEffortCalls.WithLabelValues(operation, "ok").Inc()
		log.DebugContext(callCtx, "best-effort call finished", append(fieldAttrs(operation, "ok", fields), elapsed)...)
	}()
}
