package storage

import "time"

// SeenResponse is one survey response ID that has already been relayed.
type SeenResponse struct {
	ID     string
	SeenAt time.Time
}
