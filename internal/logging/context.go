package logging

import (
	"context"
	"log/slog"

	"streamvault/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. live_detected).
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldStreamer carries the streamer display name.
	FieldStreamer = "streamer"
	// FieldChannelID is the standardized key for YouTube channel identifiers.
	FieldChannelID = "channel_id"
	// FieldBroadcastID is the standardized key for live broadcast (video) identifiers.
	FieldBroadcastID = "broadcast_id"
	// FieldCaptureKind is the standardized key for capture task kinds.
	FieldCaptureKind = "capture_kind"
	// FieldTaskID is the standardized key for capture task identifiers.
	FieldTaskID = "task_id"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.ChannelIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldChannelID, id))
	}
	if id, ok := services.BroadcastIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldBroadcastID, id))
	}
	if kind, ok := services.CaptureKindFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCaptureKind, kind))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
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
	return logger.With(Args(fields...)...)
}
