// Package chat renders candidate events into Discord webhook messages.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/kalambet/studybot/internal/notify"
)

const (
	defaultTimeout = 5 * time.Second

	colorBlue  = 0x3498db
	colorGreen = 0x2ecc71
)

// ErrNoChannel is returned when the event type has no webhook configured.
var ErrNoChannel = errors.New("chat: no channel configured for event type")

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Embed is a Discord rich embed.
type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// Message is the webhook execute payload.
type Message struct {
	Embeds []Embed `json:"embeds"`
}

// Poster sends events to one Discord incoming webhook per event type.
type Poster struct {
	surveyURL  string
	emailURL   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewPoster(surveyWebhookURL, emailWebhookURL string) *Poster {
	return &Poster{
		surveyURL:  surveyWebhookURL,
		emailURL:   emailWebhookURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
}

// Post renders ev and delivers it to the channel for its type.
func (p *Poster) Post(ctx context.Context, ev notify.Event) error {
	dest := p.surveyURL
	if ev.Type == notify.TypeEmail {
		dest = p.emailURL
	}
	if strings.TrimSpace(dest) == "" {
		return fmt.Errorf("%w: %s", ErrNoChannel, ev.Type)
	}

	body, err := json.Marshal(Message{Embeds: []Embed{Render(ev)}})
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dest, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting to chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("chat webhook status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}
	p.logger.Info("notification posted", "event_id", ev.ID, "type", ev.Type)
	return nil
}

// Render builds the embed for ev. The footer carries the notification ID
// used by the approve and reject actions.
func Render(ev notify.Event) Embed {
	footer := &EmbedFooter{Text: fmt.Sprintf("Notification %s: studybot approve %s | studybot reject %s", ev.ID, ev.ID, ev.ID)}

	if ev.Email != nil {
		return Embed{
			Title: "New Study-Related Email",
			Color: colorGreen,
			Fields: []EmbedField{
				{Name: "From", Value: fmt.Sprintf("%s (%s)", ev.Email.Name, ev.Email.Address)},
				{Name: "Summary", Value: ev.Email.Summary},
				{Name: "Reason", Value: ev.Email.Reason},
			},
			Footer: footer,
		}
	}

	lines := []string{"**New Eligible Survey**"}
	var link string
	if ev.Survey != nil {
		keys := make([]string, 0, len(ev.Survey.Fields))
		for k := range ev.Survey.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("**%s**: %s", k, ev.Survey.Fields[k]))
		}
		link = ev.Survey.Link
	}
	if link != "" {
		lines = append(lines, fmt.Sprintf("\n[View Results](%s)", link))
	}

	return Embed{
		Title:       "New Survey Response",
		Description: strings.Join(lines, "\n"),
		Color:       colorBlue,
		Footer:      footer,
	}
}
