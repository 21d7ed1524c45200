// Package classify decides whether an inbound email relates to the study.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kalambet/studybot/internal/llm"
)

// Decision is the triage verdict for one email.
type Decision string

const (
	DecisionYes    Decision = "YES"
	DecisionNo     Decision = "NO"
	DecisionUnsure Decision = "UNSURE"
)

// ErrMalformedResponse is returned when the model output is not a usable verdict.
var ErrMalformedResponse = errors.New("classify: malformed model response")

// Chatter is the chat completion dependency.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []llm.Message) (string, error)
}

// Result holds the verdict with its rationale and a short summary of the body.
type Result struct {
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason"`
	Summary  string   `json:"summary"`
}

type Classifier struct {
	client Chatter
	model  string
	logger *slog.Logger
}

func NewClassifier(client Chatter, model string) *Classifier {
	return &Classifier{client: client, model: model, logger: slog.Default()}
}

// Classify asks the model for a verdict. Errors are returned to the caller
// without retry.
func (c *Classifier) Classify(ctx context.Context, subject, body string) (Result, error) {
	raw, err := c.client.Chat(ctx, c.model, BuildPrompt(subject, PlainText(body)))
	if err != nil {
		return Result{}, fmt.Errorf("classifying email: %w", err)
	}

	res, err := parseResult(raw)
	if err != nil {
		c.logger.Warn("unusable classification", "error", err, "response", raw)
		return Result{}, err
	}
	c.logger.Debug("email classified", "decision", res.Decision, "reason", res.Reason)
	return res, nil
}

func parseResult(raw string) (Result, error) {
	var payload struct {
		Decision string `json:"decision"`
		Reason   string `json:"reason"`
		Summary  string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(stripFence(raw)), &payload); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if payload.Decision == "" || payload.Reason == "" || payload.Summary == "" {
		return Result{}, fmt.Errorf("%w: missing field", ErrMalformedResponse)
	}

	d := Decision(strings.ToUpper(strings.TrimSpace(payload.Decision)))
	switch d {
	case DecisionYes, DecisionNo, DecisionUnsure:
	default:
		return Result{}, fmt.Errorf("%w: unknown decision %q", ErrMalformedResponse, payload.Decision)
	}
	return Result{Decision: d, Reason: payload.Reason, Summary: payload.Summary}, nil
}

// stripFence removes a surrounding Markdown code fence, if any.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
