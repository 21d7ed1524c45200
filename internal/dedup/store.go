// Package dedup persists the set of survey response IDs that have already
// been relayed, so a poll cycle never notifies about the same response twice.
package dedup

import "context"

// Store loads and saves the seen set. Save replaces the persisted set.
type Store interface {
	Load(ctx context.Context) (Set, error)
	Save(ctx context.Context, s Set) error
}
