package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"streamvault/internal/capture"
	"streamvault/internal/metrics"
)

func scrape(t *testing.T, m *metrics.Metrics, update func()) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler(update).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected scrape status %d", rec.Code)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestCaptureLifecycleMetrics(t *testing.T) {
	m := metrics.New()
	start := time.Date(2024, 3, 9, 22, 0, 0, 0, time.UTC)
	media := capture.Task{Kind: capture.KindMedia, StartedAt: start}
	chat := capture.Task{Kind: capture.KindTranscript, StartedAt: start}

	m.TaskStarted(media)
	m.TaskStarted(chat)
	media.Status = capture.StatusSucceeded
	media.FinishedAt = start.Add(90 * time.Second)
	m.TaskFinished(media)
	m.IncLiveDetected()
	m.IncTicks()
	m.IncProviderErrors()

	body := scrape(t, m, func() {
		m.SetStreamers(3)
		m.SetCapturing(1)
	})
	for _, want := range []string{
		`streamvault_capture_tasks_started_total{kind="media"} 1`,
		`streamvault_capture_tasks_started_total{kind="transcript"} 1`,
		`streamvault_capture_tasks_finished_total{kind="media",status="succeeded"} 1`,
		`streamvault_active_capture_tasks 1`,
		`streamvault_capture_task_duration_seconds_count{kind="media"} 1`,
		`streamvault_live_detected_total 1`,
		`streamvault_monitor_ticks_total 1`,
		`streamvault_provider_errors_total 1`,
		`streamvault_streamers 3`,
		`streamvault_capturing_streamers 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}

func TestRequestMiddlewareCountsErrors(t *testing.T) {
	m := metrics.New()
	handler := metrics.RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	for _, path := range []string{"/ok", "/missing", "/ok"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	body := scrape(t, m, nil)
	if !strings.Contains(body, "streamvault_http_requests_total 3") {
		t.Errorf("expected 3 requests in scrape:\n%s", body)
	}
	if !strings.Contains(body, "streamvault_http_errors_total 1") {
		t.Errorf("expected 1 error in scrape:\n%s", body)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics
	m.IncTicks()
	m.TaskStarted(capture.Task{Kind: capture.KindMedia})
	m.TaskFinished(capture.Task{Kind: capture.KindMedia})
	m.SetStreamers(1)
}
