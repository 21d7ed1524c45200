// Package enroll fires the enrollment webhook for an approved candidate.
package enroll

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

	"github.com/kalambet/studybot/internal/pending"
)

const defaultTimeout = 10 * time.Second

// ErrEnrollFailed wraps any non-200 or transport failure.
var ErrEnrollFailed = errors.New("enroll: webhook failed")

// ErrNotConfigured is returned when no webhook URL is set.
var ErrNotConfigured = errors.New("enroll: webhook url not configured")

type payload struct {
	ToEmail string `json:"to_email"`
	Name    string `json:"name"`
}

// Executor posts {to_email, name} to the enrollment webhook.
type Executor struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewExecutor(url string, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Executor{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
}

// Enroll makes one POST and reports success iff the webhook answers 200.
func (e *Executor) Enroll(ctx context.Context, c pending.Candidate) error {
	if e.url == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(payload{ToEmail: c.Email, Name: c.Name})
	if err != nil {
		return fmt.Errorf("encoding enrollment: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEnrollFailed, err)
	}
	defer resp.Body.Close()

	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	if resp.StatusCode != http.StatusOK {
		e.logger.Warn("enrollment rejected", "email", c.Email, "status", resp.StatusCode, "body", strings.TrimSpace(string(excerpt)))
		return fmt.Errorf("%w: status %d", ErrEnrollFailed, resp.StatusCode)
	}

	e.logger.Info("enrollment sent", "email", c.Email, "name", c.Name)
	return nil
}
