package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/foxseedlab/mensetsu/internal/webhook"
	"github.com/google/uuid"
)

const (
	maxDeliveryAttempts = 3
	defaultRetryDelay   = 500 * time.Millisecond
	errorBodyLimit      = 512
)

// HTTPSender posts transcript payloads as JSON. Every attempt of one
// delivery carries the same X-Request-ID so receivers can deduplicate.
type HTTPSender struct {
	webhookURL string
	client     *http.Client
	retryDelay time.Duration
}

func NewHTTPSender(webhookURL string, timeout time.Duration) *HTTPSender {
	return &HTTPSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
		retryDelay: defaultRetryDelay,
	}
}

var _ webhook.Sender = (*HTTPSender)(nil)

var errBuildRequest = errors.New("build webhook request")

type deliveryError struct {
	status    int
	body      string
	retryable bool
}

func (e *deliveryError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("webhook returned status %d", e.status)
	}
	return fmt.Sprintf("webhook returned status %d: %s", e.status, e.body)
}

func (s *HTTPSender) SendTranscript(ctx context.Context, payload webhook.TranscriptWebhookPayload) error {
	if s.webhookURL == "" {
		return nil
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	requestID := uuid.NewString()

	for attempt := 1; ; attempt++ {
		err = s.post(ctx, b, requestID)
		if err == nil {
			return nil
		}
		var de *deliveryError
		if errors.Is(err, errBuildRequest) || (errors.As(err, &de) && !de.retryable) {
			return err
		}
		if attempt == maxDeliveryAttempts || ctx.Err() != nil {
			return fmt.Errorf("deliver webhook after %d attempts: %w", attempt, err)
		}
		slog.Warn("transcript webhook delivery failed; retrying",
			"interview_id", payload.InterviewID, "request_id", requestID, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("deliver webhook: %w", ctx.Err())
		case <-time.After(s.retryDelay * time.Duration(attempt)):
		}
	}
}

func (s *HTTPSender) post(ctx context.Context, body []byte, requestID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", errBuildRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if isHTTPSuccessStatus(resp.StatusCode) {
		return nil
	}
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	return &deliveryError{
		status:    resp.StatusCode,
		body:      strings.TrimSpace(string(excerpt)),
		retryable: resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
	}
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
