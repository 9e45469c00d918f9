package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext returns the request-scoped logger stored by NewContext, or a
// logger over slog.Default when there is none.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := fromContext(ctx); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

func fromContext(ctx context.Context) (*Logger, bool) {
	if ctx == nil {
		return nil, false
	}
	logger, ok := ctx.Value(LoggerContextKey).(*Logger)
	return logger, ok && logger != nil
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// For prefers the request-scoped logger in ctx, so records carry its
// attributes (request_id), and falls back to the logger given at construction.
func (sl *StructuredLogger) For(ctx context.Context, component string) *Logger {
	if logger, ok := fromContext(ctx); ok {
		return logger.WithComponent(component)
	}
	return sl.logger.WithComponent(component)
}

// LogHTTPStart logs the start of an HTTP request
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP, requestID string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP).
		WithRequestID(requestID)

	sl.For(ctx, ComponentHTTP).InfoContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs the completion of an HTTP request
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP, requestID string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithRequestID(requestID)

	sl.For(ctx, ComponentHTTP).LogContext(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogPipelineRun logs a completed load + aggregation.
func (sl *StructuredLogger) LogPipelineRun(ctx context.Context, source, month string, rows, dropped, months, categories, expenseRows int, durationMs int64) {
	fields := NewFields().
		WithSource(source).
		WithPipeline(month, rows, dropped, months, categories, expenseRows).
		WithOperation(OpAggregate).
		WithDuration(durationMs)

	sl.For(ctx, ComponentPipeline).InfoContext(ctx, "Pipeline run completed", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, errorType, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.WithError(err, errorType).WithOperation(operation)
	sl.For(ctx, component).ErrorContext(ctx, msg, fields.ToSlice()...)
}

// LogWarn logs a recoverable problem, such as a user-facing validation failure.
func (sl *StructuredLogger) LogWarn(ctx context.Context, msg string, err error, errorType, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.WithError(err, errorType).WithOperation(operation)
	sl.For(ctx, component).WarnContext(ctx, msg, fields.ToSlice()...)
}
