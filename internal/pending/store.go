// Package pending holds candidates awaiting a human approve/reject decision.
package pending

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a notification ID has no pending entry.
var ErrNotFound = errors.New("pending: notification not found")

// Candidate is the pair needed to fire the enrollment webhook.
type Candidate struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Store maps notification IDs to candidates. Take removes the entry it returns.
type Store interface {
	Put(ctx context.Context, id string, c Candidate) error
	Take(ctx context.Context, id string) (Candidate, bool, error)
}
