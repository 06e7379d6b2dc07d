package services

import "context"

type contextKey string

const (
	channelIDKey   contextKey = "channel_id"
	broadcastIDKey contextKey = "broadcast_id"
	captureKindKey contextKey = "capture_kind"
	requestIDKey   contextKey = "request_id"
)

// WithChannelID annotates context with the tracked channel identifier.
func WithChannelID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, channelIDKey, id)
}

// ChannelIDFromContext extracts the channel identifier if present.
func ChannelIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(channelIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithBroadcastID annotates context with the live broadcast identifier.
func WithBroadcastID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, broadcastIDKey, id)
}

// BroadcastIDFromContext returns the broadcast identifier if present.
func BroadcastIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(broadcastIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCaptureKind annotates context with the capture task kind (media/transcript).
func WithCaptureKind(ctx context.Context, kind string) context.Context {
	if kind == "" {
		return ctx
	}
	return context.WithValue(ctx, captureKindKey, kind)
}

// CaptureKindFromContext returns the capture kind if present.
func CaptureKindFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(captureKindKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
