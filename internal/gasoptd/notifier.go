package gasoptd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/logger"
)

// CallbackSecretHeader carries the run's callback secret
const CallbackSecretHeader = "X-Gasopt-Callback-Secret"

// NotificationPayload is the JSON body posted to a run's callback URL
type NotificationPayload struct {
	RunID           string     `json:"run_id"`
	Status          RunStatus  `json:"status"`
	CreatedAtUnixMs int64      `json:"created_at_unix_ms"`
	StartedAtUnixMs int64      `json:"started_at_unix_ms,omitempty"`
	EndedAtUnixMs   int64      `json:"ended_at_unix_ms,omitempty"`
	Error           string     `json:"error,omitempty"`
	Result          *RunResult `json:"result,omitempty"`
	Timestamp       int64      `json:"timestamp"`
}

// Notifier posts run completion notifications with exponential backoff
type Notifier struct {
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	log        *slog.Logger
}

func NewNotifier() *Notifier {
	return &Notifier{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxRetries: 3,
		baseDelay:  1 * time.Second,
		log:        logger.Default,
	}
}

// Notify sends rec to its callback URL in the background. The returned channel
// is closed once delivery succeeded or every attempt failed; it is nil when
// the run has no callback.
func (n *Notifier) Notify(rec RunRecord) <-chan struct{} {
	if rec.Input.CallbackURL == "" {
		return nil
	}

	url := strings.ReplaceAll(rec.Input.CallbackURL, "{run_id}", rec.Run.ID)
	payload := NotificationPayload{
		RunID:           rec.Run.ID,
		Status:          rec.Run.Status,
		CreatedAtUnixMs: rec.Run.CreatedAtUnixMs,
		StartedAtUnixMs: rec.Run.StartedAtUnixMs,
		EndedAtUnixMs:   rec.Run.EndedAtUnixMs,
		Error:           rec.Run.Error,
		Result:          rec.Result,
		Timestamp:       time.Now().UTC().UnixMilli(),
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := n.send(context.Background(), url, rec.Input.CallbackSecret, payload); err != nil {
			n.log.Error("failed to send notification after retries",
				"callback_url", url,
				"run_id", payload.RunID,
				"status", payload.Status,
				"max_retries", n.maxRetries,
				"last_error", err)
		}
	}()
	return done
}

func (n *Notifier) send(ctx context.Context, url, secret string, payload NotificationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			delay := n.baseDelay * time.Duration(1<<uint(attempt-1))
			n.log.Debug("retrying notification", "run_id", payload.RunID, "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "userop-gasopt/1.0")
		if secret != "" {
			req.Header.Set(CallbackSecretHeader, secret)
		}

		resp, err := n.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			n.log.Warn("notification attempt failed", "run_id", payload.RunID, "attempt", attempt+1, "error", err)
			continue
		}
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			n.log.Info("notification sent", "run_id", payload.RunID, "status", payload.Status, "status_code", resp.StatusCode)
			return nil
		}
		lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		n.log.Warn("notification returned non-2xx status",
			"run_id", payload.RunID,
			"status_code", resp.StatusCode,
			"response_body", string(respBody),
			"attempt", attempt+1)
	}
	return lastErr
}
