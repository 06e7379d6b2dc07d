package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"streamvault/internal/config"
	"streamvault/internal/services"
)

const userAgent = "StreamVault/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventLiveDetected     Event = "live_detected"
	EventCaptureCompleted Event = "capture_completed"
	EventCaptureFailed    Event = "capture_failed"
	EventError            Event = "error"
	EventTest             Event = "test"
)

// Payload carries event-specific values keyed by name.
type Payload map[string]any

// Service publishes events to the configured transport.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventLiveDetected:     cfg.Notifications.Live,
			EventCaptureCompleted: cfg.Notifications.Captures,
			EventCaptureFailed:    cfg.Notifications.Captures,
			EventError:            cfg.Notifications.Errors,
			EventTest:             true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	streamer := payload.text("streamer")
	title := payload.text("title")
	switch event {
	case EventLiveDetected:
		body := fmt.Sprintf("🔴 %s is live", streamer)
		if title != "" {
			body += ": " + title
		}
		return message{
			title:    "StreamVault - Live",
			body:     body,
			tags:     []string{"streamvault", "live"},
			priority: "high",
		}, true
	case EventCaptureCompleted:
		body := fmt.Sprintf("💾 Captured %s", streamer)
		if title != "" {
			body += ": " + title
		}
		if path := payload.text("mediaPath"); path != "" {
			body += "\nFile: " + path
		}
		return message{
			title: "StreamVault - Capture Complete",
			body:  body,
			tags:  []string{"streamvault", "capture", "completed"},
		}, true
	case EventCaptureFailed:
		body := fmt.Sprintf("⚠️ Capture incomplete for %s", streamer)
		if failed := payload.text("failed"); failed != "" {
			body += " (" + failed + ")"
		}
		if reason := payload.text("error"); reason != "" {
			body += ": " + reason
		}
		return message{
			title:    "StreamVault - Capture Failed",
			body:     body,
			tags:     []string{"streamvault", "capture", "failed"},
			priority: "high",
		}, true
	case EventError:
		var b strings.Builder
		b.WriteString("❌ Error")
		if label := payload.text("context"); label != "" {
			b.WriteString(" with ")
			b.WriteString(label)
		}
		b.WriteString(": ")
		if reason := payload.text("error"); reason != "" {
			b.WriteString(reason)
		} else {
			b.WriteString("unknown")
		}
		return message{
			title:    "StreamVault - Error",
			body:     b.String(),
			tags:     []string{"streamvault", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "StreamVault - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"streamvault", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case []string:
		return strings.Join(v, ", ")
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n.client == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "notifications", "build request", "invalid ntfy topic", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrProviderUnavailable, "notifications", "send", "ntfy request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrProviderUnavailable, "notifications", "send",
			fmt.Sprintf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
