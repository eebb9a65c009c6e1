// Package backup pushes individual days to an external sheet service.
//
// The push is advisory: the local ledger is the source of truth, so a
// failed push is retried a bounded number of times, reported, and dropped.
package backup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fitlog/internal/core"
)

// Payload is the wire form of one backed-up day.
type Payload struct {
	Date     string `json:"date"`
	Pushups  int    `json:"pushups"`
	Pullups  int    `json:"pullups"`
	Squats   int    `json:"squats"`
	DeadHang string `json:"deadHang"`
}

func NewPayload(date string, rec core.DailyRecord) Payload {
	return Payload{
		Date:     date,
		Pushups:  rec.Pushups,
		Pullups:  rec.Pullups,
		Squats:   rec.Squats,
		DeadHang: rec.DeadHang,
	}
}

// Record converts the payload back into a ledger record.
func (p Payload) Record() core.DailyRecord {
	return core.DailyRecord{Pushups: p.Pushups, Pullups: p.Pullups, Squats: p.Squats, DeadHang: p.DeadHang}
}

// Transport delivers one payload. Implementations should honour ctx.
type Transport interface {
	Send(ctx context.Context, p Payload) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, p Payload) error

func (f TransportFunc) Send(ctx context.Context, p Payload) error { return f(ctx, p) }

type Config struct {
	// MaxRetries is how many times a failed send is retried (default 2).
	MaxRetries int
	// RetryDelay is the fixed pause between attempts (default 2s).
	RetryDelay time.Duration
	// OnFailure is called once a payload is dropped.
	OnFailure func(p Payload, err error)
	Metrics   *Metrics
}

func DefaultConfig() Config {
	return Config{
		MaxRetries: 2,
		RetryDelay: 2 * time.Second,
	}
}

// Notifier dispatches payloads without blocking the caller.
type Notifier struct {
	transport Transport
	cfg       Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewNotifier(transport Transport, cfg Config) *Notifier {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Notifier{
		transport: transport,
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Notify backs up one day asynchronously and returns immediately.
func (n *Notifier) Notify(date string, rec core.DailyRecord) {
	if n == nil || n.transport == nil {
		return
	}
	p := NewPayload(date, rec)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		slog.Warn("Backup notifier closed, dropping payload", "date", date)
		return
	}
	n.wg.Add(1)
	n.mu.Unlock()

	go n.deliver(p)
}

// deliver makes up to 1+MaxRetries attempts.
func (n *Notifier) deliver(p Payload) {
	defer n.wg.Done()

	var err error
	attempts := 0
	for {
		attempts++
		err = n.transport.Send(n.ctx, p)
		if err == nil {
			n.cfg.Metrics.attempt(true)
			slog.Info("Backup push succeeded", "date", p.Date, "attempt", attempts)
			return
		}
		n.cfg.Metrics.attempt(false)
		slog.Warn("Backup push failed", "date", p.Date, "attempt", attempts, "error", err)

		if attempts > n.cfg.MaxRetries {
			break
		}
		if !n.sleep() {
			break
		}
	}

	n.cfg.Metrics.dropped()
	slog.Error("Backup push dropped",
		"date", p.Date,
		"attempts", attempts,
		"error", err)
	if n.cfg.OnFailure != nil {
		n.cfg.OnFailure(p, err)
	}
}

// sleep waits RetryDelay; it returns false if the notifier is shutting down.
func (n *Notifier) sleep() bool {
	if n.cfg.RetryDelay == 0 {
		return n.ctx.Err() == nil
	}
	t := time.NewTimer(n.cfg.RetryDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-n.ctx.Done():
		return false
	}
}

// Wait blocks until every dispatched payload has been delivered or dropped.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// Close stops accepting payloads and waits for in-flight ones. When ctx
// expires first, pending retries are abandoned and in-flight sends are
// cancelled.
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		n.cancel()
		return nil
	case <-ctx.Done():
		n.cancel()
		<-done
		return ctx.Err()
	}
}
