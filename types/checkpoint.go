package types

import (
	"context"
	"time"
)

// Position is a resumable stream position.
type Position struct {
	// Token is the last committed position token.
	Token string `json:"token"`

	// Region is the region that served Token.
	Region int `json:"region"`

	// SavedAt is when the position was stored.
	SavedAt time.Time `json:"saved_at"`
}

// Checkpointer persists the stream position between process runs.
//
// Load returns ErrNoCheckpoint when nothing has been stored yet.
type Checkpointer interface {
	Load(ctx context.Context) (Position, error)
	Save(ctx context.Context, pos Position) error
}
