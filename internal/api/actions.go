package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kalambet/studybot/internal/metrics"
	"github.com/kalambet/studybot/internal/pending"
)

// ErrNoEmail is returned when an approved candidate has no address to enroll.
var ErrNoEmail = errors.New("candidate has no email address")

// Actions resolves pending notifications. It backs both the HTTP callbacks and
// the MCP tools so the two channels share one set of rules.
type Actions struct {
	store    pending.Store
	enroller Enroller
	logger   *slog.Logger
}

func NewActions(store pending.Store, enroller Enroller) *Actions {
	return &Actions{store: store, enroller: enroller, logger: slog.Default()}
}

// Approve removes the entry and fires the enrollment webhook. The entry is
// gone afterwards whether or not enrollment succeeded.
func (a *Actions) Approve(ctx context.Context, channel, id string) (pending.Candidate, error) {
	c, ok, err := a.store.Take(ctx, id)
	if err != nil {
		return pending.Candidate{}, fmt.Errorf("taking pending %s: %w", id, err)
	}
	if !ok {
		return pending.Candidate{}, pending.ErrNotFound
	}
	metrics.HumanDecisions.WithLabelValues(channel, "approve").Inc()
	if c.Email == "" {
		a.logger.Warn("approved candidate has no email", "notification_id", id)
		return c, ErrNoEmail
	}

	if err := a.enroller.Enroll(ctx, c); err != nil {
		metrics.Enrollments.WithLabelValues("error").Inc()
		a.logger.Warn("enrollment failed", "notification_id", id, "error", err)
		return c, err
	}
	metrics.Enrollments.WithLabelValues("ok").Inc()
	return c, nil
}

// Reject discards the entry. Rejecting an unknown ID is not an error.
func (a *Actions) Reject(ctx context.Context, channel, id string) error {
	_, ok, err := a.store.Take(ctx, id)
	if err != nil {
		return fmt.Errorf("taking pending %s: %w", id, err)
	}
	if ok {
		metrics.HumanDecisions.WithLabelValues(channel, "reject").Inc()
		a.logger.Info("candidate ignored", "notification_id", id)
	}
	return nil
}
