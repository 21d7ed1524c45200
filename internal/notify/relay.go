package notify

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
)

const defaultRelayTimeout = 5 * time.Second

// ErrRelayFailed wraps every non-200 or transport failure from Send.
var ErrRelayFailed = errors.New("notify: relay failed")

// Relay posts events to {baseURL}/notify.
type Relay struct {
	baseURL    string
	signer     *Signer
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRelay creates a relay. A nil signer sends unauthenticated requests.
func NewRelay(baseURL string, timeout time.Duration, signer *Signer) *Relay {
	if timeout <= 0 {
		timeout = defaultRelayTimeout
	}
	return &Relay{
		baseURL:    strings.TrimRight(baseURL, "/"),
		signer:     signer,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
}

// Send makes exactly one POST. Only HTTP 200 counts as delivered.
func (r *Relay) Send(ctx context.Context, ev Event) error {
	err := r.send(ctx, ev)
	if err != nil {
		r.logger.Warn("relay failed", "event_id", ev.ID, "type", ev.Type, "error", err)
		return err
	}
	r.logger.Info("event relayed", "event_id", ev.ID, "type", ev.Type)
	return nil
}

func (r *Relay) send(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%w: encoding event: %v", ErrRelayFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/notify", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", ErrRelayFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.signer != nil {
		tok, err := r.signer.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRelayFailed, err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRelayFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%w: status %d: %s", ErrRelayFailed, resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}
	return nil
}
