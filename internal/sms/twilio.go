// Package sms sends operator text messages through the Twilio REST API.
package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// Sender posts messages to a fixed operator number.
type Sender struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	to         string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewSender(baseURL, accountSID, authToken, from, to string) *Sender {
	return &Sender{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		to:         to,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
}

// Send creates one message and returns its SID.
func (s *Sender) Send(ctx context.Context, text string) (string, error) {
	form := url.Values{
		"To":   {s.to},
		"From": {s.from},
		"Body": {text},
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, url.PathEscape(s.accountSID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.accountSID, s.authToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("sms provider status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	var out struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding sms response: %w", err)
	}
	s.logger.Info("sms sent", "sid", out.SID)
	return out.SID, nil
}

// CandidateMessage renders the operator prompt for a study-related email.
func CandidateMessage(summary, reason string) string {
	return fmt.Sprintf("Study-related email received:\nSummary: %s\nReason: %s\nReply YES to enroll them or NO to ignore.", summary, reason)
}
