// Package webpush delivers notification payloads to browser push
// subscription endpoints over HTTP.
package webpush

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/taskflow-app/taskflow-api/internal/domain"
)

// defaultTimeout bounds one push delivery attempt.
const defaultTimeout = 10 * time.Second

// defaultTTL is the push service retention hint in seconds.
const defaultTTL = "86400"

// Sender posts payloads to subscription endpoints. Delivery is best
// effort: the caller treats any error as a soft failure.
type Sender struct {
	client *http.Client
	logger *slog.Logger
}

// NewSender creates a Sender. If client is nil a default client with a
// delivery timeout is used.
func NewSender(client *http.Client, logger *slog.Logger) *Sender {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Sender{
		client: client,
		logger: logger.With(slog.String("component", "webpush_sender")),
	}
}

// Send posts the payload to the subscription's endpoint. Non-2xx responses
// are errors; 404 and 410 indicate the subscription is gone and should be
// treated as permanently stale by the caller.
func (s *Sender) Send(ctx context.Context, sub *domain.PushSubscription, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("TTL", defaultTTL)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned status %d", resp.StatusCode)
	}

	s.logger.Debug("push delivered",
		slog.String("endpoint", sub.Endpoint),
		slog.Int("status", resp.StatusCode))
	return nil
}
