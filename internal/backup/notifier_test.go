package backup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fitlog/internal/core"
	"fitlog/internal/sheets/memory"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingTransport struct {
	mu       sync.Mutex
	payloads []Payload
	failFor  int // fail the first failFor attempts; -1 fails forever
}

func (r *recordingTransport) Send(_ context.Context, p Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, p)
	if r.failFor < 0 || len(r.payloads) <= r.failFor {
		return errors.New("connection refused")
	}
	return nil
}

func (r *recordingTransport) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}

func TestAlwaysFailingTransportIsAttemptedThreeTimes(t *testing.T) {
	tr := &recordingTransport{failFor: -1}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	var dropped atomic.Int32
	var lastErr atomic.Value
	n := NewNotifier(tr, Config{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		Metrics:    metrics,
		OnFailure: func(p Payload, err error) {
			dropped.Add(1)
			lastErr.Store(err)
		},
	})

	n.Notify("2024-01-01", core.DailyRecord{Pushups: 50})
	n.Wait()

	if got := tr.count(); got != 3 {
		t.Fatalf("expected 3 submissions, got %d", got)
	}
	if dropped.Load() != 1 {
		t.Fatalf("expected failure reported once, got %d", dropped.Load())
	}
	if lastErr.Load() == nil {
		t.Fatal("failure hook did not receive the error")
	}
	if v := testutil.ToFloat64(metrics.attempts.WithLabelValues("failure")); v != 3 {
		t.Fatalf("expected 3 failed attempts counted, got %v", v)
	}
	if v := testutil.ToFloat64(metrics.drops); v != 1 {
		t.Fatalf("expected 1 drop counted, got %v", v)
	}
	if err := n.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRetrySucceedsBeforeExhaustion(t *testing.T) {
	tr := &recordingTransport{failFor: 1}
	var dropped atomic.Int32
	n := NewNotifier(tr, Config{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		OnFailure:  func(Payload, error) { dropped.Add(1) },
	})

	n.Notify("2024-01-02", core.DailyRecord{Squats: 3, DeadHang: "1:00"})
	n.Wait()

	if got := tr.count(); got != 2 {
		t.Fatalf("expected 2 submissions, got %d", got)
	}
	if dropped.Load() != 0 {
		t.Fatal("success must not report a failure")
	}
	want := Payload{Date: "2024-01-02", Squats: 3, DeadHang: "1:00"}
	if tr.payloads[1] != want {
		t.Fatalf("payload %+v, want %+v", tr.payloads[1], want)
	}
	_ = n.Close(context.Background())
}

func TestZeroRetries(t *testing.T) {
	tr := &recordingTransport{failFor: -1}
	n := NewNotifier(tr, Config{MaxRetries: 0})
	n.Notify("2024-01-03", core.DailyRecord{})
	n.Wait()
	if got := tr.count(); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
	_ = n.Close(context.Background())
}

func TestNotifyDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	n := NewNotifier(TransportFunc(func(ctx context.Context, _ Payload) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}), DefaultConfig())

	start := time.Now()
	n.Notify("2024-01-04", core.DailyRecord{Pushups: 1})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("Notify blocked on the transport")
	}
	close(release)
	if err := n.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestCloseAbandonsPendingRetries(t *testing.T) {
	tr := &recordingTransport{failFor: -1}
	var dropped atomic.Int32
	n := NewNotifier(tr, Config{
		MaxRetries: 5,
		RetryDelay: time.Hour,
		OnFailure:  func(Payload, error) { dropped.Add(1) },
	})
	n.Notify("2024-01-05", core.DailyRecord{})

	deadline := time.Now().Add(2 * time.Second)
	for tr.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := n.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if tr.count() != 1 || dropped.Load() != 1 {
		t.Fatalf("attempts=%d dropped=%d", tr.count(), dropped.Load())
	}

	// Closed notifiers drop new payloads silently.
	n.Notify("2024-01-06", core.DailyRecord{})
	n.Wait()
	if tr.count() != 1 {
		t.Fatal("payload sent after close")
	}
}

func TestNilNotifierIsSafe(t *testing.T) {
	var n *Notifier
	n.Notify("2024-01-01", core.DailyRecord{})
	NewNotifier(nil, DefaultConfig()).Notify("2024-01-01", core.DailyRecord{})
}

func TestWebhookTransport(t *testing.T) {
	var got Payload
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad body %s: %v", body, err)
		}
		w.Write([]byte("Saved"))
	}))
	defer srv.Close()

	w := &WebhookTransport{URL: srv.URL, Client: srv.Client()}
	defer srv.Client().CloseIdleConnections()

	p := NewPayload("2024-01-01", core.DailyRecord{Pushups: 5, Pullups: 1, Squats: 2, DeadHang: "0:30"})
	if err := w.Send(context.Background(), p); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got != p {
		t.Fatalf("received %+v, want %+v", got, p)
	}
	if contentType != "application/json" {
		t.Fatalf("content type %q", contentType)
	}
}

func TestWebhookTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()
	defer srv.Client().CloseIdleConnections()

	w := &WebhookTransport{URL: srv.URL, Client: srv.Client()}
	if err := w.Send(context.Background(), Payload{Date: "2024-01-01"}); err == nil {
		t.Fatal("expected error for 500 response")
	}

	if err := (&WebhookTransport{}).Send(context.Background(), Payload{}); err == nil {
		t.Fatal("expected error for missing URL")
	}
}

func TestPayloadJSONShape(t *testing.T) {
	data, err := json.Marshal(NewPayload("2024-01-01", core.DailyRecord{Pushups: 1, DeadHang: "0:10"}))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"date":"2024-01-01","pushups":1,"pullups":0,"squats":0,"deadHang":"0:10"}`
	if string(data) != want {
		t.Fatalf("got %s", data)
	}
}

func TestSheetTransportUpserts(t *testing.T) {
	mem := memory.New()
	n := NewNotifier(SheetTransport{Writer: mem}, Config{})
	n.Notify("2024-02-01", core.DailyRecord{Pullups: 4, DeadHang: "0:45"})
	n.Notify("2024-02-01", core.DailyRecord{Pullups: 6, DeadHang: "0:45"})
	n.Wait()
	_ = n.Close(context.Background())

	days := mem.Days()
	if len(days) != 1 {
		t.Fatalf("expected a single row, got %v", days)
	}
	if p := days[0].Record.Pullups; p != 4 && p != 6 {
		t.Fatalf("unexpected row %+v", days[0])
	}
}
