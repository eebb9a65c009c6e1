package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// WebhookTransport POSTs each payload as JSON to a single URL, such as a
// spreadsheet script endpoint. The response body is logged but not parsed.
type WebhookTransport struct {
	URL    string
	Client *http.Client
}

var _ Transport = (*WebhookTransport)(nil)

func NewWebhookTransport(url string) *WebhookTransport {
	return &WebhookTransport{URL: url, Client: newHTTPClient()}
}

func (w *WebhookTransport) Send(ctx context.Context, p Payload) error {
	if w.URL == "" {
		return errors.New("webhook URL not configured")
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post backup: %w", err)
	}
	defer resp.Body.Close()

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backup endpoint returned %d", resp.StatusCode)
	}

	slog.DebugContext(ctx, "Backup endpoint response", "date", p.Date, "status", resp.StatusCode, "body", string(msg))
	return nil
}

// newHTTPClient returns a client with bounded connect and header timeouts.
func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}
