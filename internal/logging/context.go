package logging

import (
	"context"
	"log/slog"

	"mastergate/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSubmissionID is the standardized structured logging key for queue item identifiers.
	FieldSubmissionID = "submission_id"
	// FieldUserID is the standardized structured logging key for the submitting user.
	FieldUserID = "user_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.SubmissionIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldSubmissionID, id))
	}
	if user, ok := services.UserIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldUserID, user))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// contextFieldHandler decorates a handler so every record logged through a
// *Context call carries the standardized fields stored in the context. This is
// what makes the orchestrator's correlation ids reach the output.
type contextFieldHandler struct {
	inner slog.Handler
}

func withContextFields(inner slog.Handler) slog.Handler {
	return &contextFieldHandler{inner: inner}
}

func (h *contextFieldHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *contextFieldHandler) Handle(ctx context.Context, record slog.Record) error {
	if fields := ContextFields(ctx); len(fields) > 0 {
		record = record.Clone()
		record.AddAttrs(fields...)
	}
	return h.inner.Handle(ctx, record)
}

func (h *contextFieldHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextFieldHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *contextFieldHandler) WithGroup(name string) slog.Handler {
	return &contextFieldHandler{inner: h.inner.WithGroup(name)}
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
