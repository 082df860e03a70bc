// Package sessionstore persists interview sessions between rounds. The round
// controller never touches storage itself; the API layer reads a snapshot,
// runs a step, and writes the result back. At most one round per session is
// in flight at a time, so no compare-and-swap is needed.
package sessionstore

import (
	"context"
	"errors"

	"github.com/mcxraider/agentic-travel-planner-backend/internal/interview"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Store is keyed by opaque session id: create-on-start, read-then-write on
// each round, delete-on-completion-or-expiry.
type Store interface {
	Get(ctx context.Context, id string) (*interview.Session, error)
	Put(ctx context.Context, s *interview.Session) error
	Delete(ctx context.Context, id string) error
}
