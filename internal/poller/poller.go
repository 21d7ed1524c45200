// Package poller runs the survey intake cycle: fetch responses, drop the ones
// already seen or not yet complete, relay the rest and persist the seen set.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kalambet/studybot/internal/dedup"
	"github.com/kalambet/studybot/internal/metrics"
	"github.com/kalambet/studybot/internal/notify"
	"github.com/kalambet/studybot/internal/survey"
)

// ResponseSource fetches the current survey responses.
type ResponseSource interface {
	FetchResponses(ctx context.Context) []survey.Response
}

// Relayer delivers one event to the presentation side.
type Relayer interface {
	Send(ctx context.Context, ev notify.Event) error
}

// Result counts what one cycle did.
type Result struct {
	Fetched     int `json:"fetched"`
	Relayed     int `json:"relayed"`
	RelayFailed int `json:"relay_failed"`
	SkippedSeen int `json:"skipped_seen"`
	Ineligible  int `json:"ineligible"`
}

// Poller drives the intake cycle. Cycles never overlap.
type Poller struct {
	source   ResponseSource
	seen     dedup.Store
	relay    Relayer
	meta     survey.Metadata
	eligible survey.Evaluator
	interval time.Duration
	logger   *slog.Logger

	mu sync.Mutex
}

// NewPoller creates a Poller. meta is fixed for the poller's lifetime.
// If interval is <= 0, it defaults to 6h.
func NewPoller(source ResponseSource, seen dedup.Store, relay Relayer, meta survey.Metadata, threshold int, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Poller{
		source:   source,
		seen:     seen,
		relay:    relay,
		meta:     meta,
		eligible: survey.Evaluator{Threshold: threshold},
		interval: interval,
		logger:   slog.Default(),
	}
}

// Run executes a cycle immediately and then on a fixed-interval ticker until
// ctx is cancelled. Cycle errors are logged and never stop the loop.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.RunOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("poll cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce executes one cycle. A seen-set load failure aborts the cycle before
// anything is fetched or relayed. If ctx is cancelled mid-cycle, the responses
// relayed so far are persisted, the rest stay unseen and ctx.Err() is returned.
func (p *Poller) RunOnce(ctx context.Context) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	res, err := p.cycle(ctx)
	metrics.PollDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PollCycles.WithLabelValues("error").Inc()
		return res, err
	}
	metrics.PollCycles.WithLabelValues("ok").Inc()

	p.logger.Info("poll cycle complete",
		"fetched", res.Fetched,
		"relayed", res.Relayed,
		"relay_failed", res.RelayFailed,
		"skipped_seen", res.SkippedSeen,
		"ineligible", res.Ineligible,
	)
	return res, nil
}

func (p *Poller) cycle(ctx context.Context) (Result, error) {
	var res Result

	seen, err := p.seen.Load(ctx)
	if err != nil {
		return res, fmt.Errorf("loading seen set: %w", err)
	}

	responses := p.source.FetchResponses(ctx)
	res.Fetched = len(responses)
	metrics.ResponsesFetched.Add(float64(len(responses)))

	working := seen.Clone()
	var cancelled error
	for _, r := range responses {
		if cancelled = ctx.Err(); cancelled != nil {
			break
		}
		if working.Has(r.ID) {
			res.SkippedSeen++
			continue
		}
		if !p.eligible.IsEligible(r) {
			res.Ineligible++
			p.logger.Debug("response not yet eligible", "response_id", r.ID, "answered", survey.AnsweredCount(r))
			continue
		}

		ev := p.buildEvent(r)
		if err := p.relay.Send(ctx, ev); err != nil {
			if cancelled = ctx.Err(); cancelled != nil {
				break
			}
			res.RelayFailed++
			metrics.RelayEvents.WithLabelValues(string(ev.Type), "error").Inc()
		} else {
			res.Relayed++
			metrics.RelayEvents.WithLabelValues(string(ev.Type), "ok").Inc()
		}
		// Marked seen even when the relay failed: delivery is at-most-once.
		working.Add(r.ID)
	}

	metrics.SeenSetSize.Set(float64(working.Len()))
	if working.Len() != seen.Len() {
		if err := p.seen.Save(context.WithoutCancel(ctx), working); err != nil {
			return res, fmt.Errorf("saving seen set: %w", err)
		}
	}
	if cancelled != nil {
		return res, fmt.Errorf("poll cycle interrupted: %w", cancelled)
	}
	return res, nil
}

func (p *Poller) buildEvent(r survey.Response) notify.Event {
	fields := map[string]string{
		notify.FieldSummary: survey.Summarize(r, p.meta.Questions, p.meta.Choices),
	}
	name, email := survey.ExtractIdentity(r, p.meta.Questions, p.meta.Choices)
	if name != "" {
		fields[notify.FieldName] = name
	}
	if email != "" {
		fields[notify.FieldEmail] = email
	}
	return notify.NewSurveyEvent(r.ID, fields, r.AnalyzeURL)
}
