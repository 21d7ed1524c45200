package dedup

import (
	"context"
	"fmt"

	"github.com/kalambet/studybot/internal/storage"
)

// SQLiteStore keeps the seen set in the seen_responses table.
type SQLiteStore struct {
	db *storage.Store
}

func NewSQLiteStore(db *storage.Store) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Load(_ context.Context) (Set, error) {
	rows, err := s.db.SeenResponses()
	if err != nil {
		return nil, fmt.Errorf("loading seen responses: %w", err)
	}
	set := make(Set, len(rows))
	for _, r := range rows {
		set.Add(r.ID)
	}
	return set, nil
}

func (s *SQLiteStore) Save(_ context.Context, set Set) error {
	if err := s.db.ReplaceSeen(set.Sorted()); err != nil {
		return fmt.Errorf("saving seen responses: %w", err)
	}
	return nil
}
