package api

import (
	"context"

	"github.com/kalambet/studybot/internal/classify"
	"github.com/kalambet/studybot/internal/notify"
	"github.com/kalambet/studybot/internal/pending"
	"github.com/kalambet/studybot/internal/poller"
)

// EmailClassifier triages an inbound email.
type EmailClassifier interface {
	Classify(ctx context.Context, subject, body string) (classify.Result, error)
}

// Relayer delivers an event over the relay hop.
type Relayer interface {
	Send(ctx context.Context, ev notify.Event) error
}

// Enroller fires the enrollment webhook.
type Enroller interface {
	Enroll(ctx context.Context, c pending.Candidate) error
}

// SMSSender texts the operator.
type SMSSender interface {
	Send(ctx context.Context, text string) (string, error)
}

// ChatPoster renders an event on the chat surface.
type ChatPoster interface {
	Post(ctx context.Context, ev notify.Event) error
}

// PollRunner runs one survey poll cycle.
type PollRunner interface {
	RunOnce(ctx context.Context) (poller.Result, error)
}

// Deps holds everything the inbound HTTP surface needs. SMS and Signer are
// optional.
type Deps struct {
	Classifier EmailClassifier
	Relay      Relayer
	Pending    pending.Store
	Slot       *pending.Slot
	Enroller   Enroller
	SMS        SMSSender
	Chat       ChatPoster
	Poller     PollRunner
	Signer     *notify.Signer
}
