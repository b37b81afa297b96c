package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEntryNotFound is returned when the requested entry id does not
	// exist in the store.
	ErrEntryNotFound = errors.New("ledger: entry not found")
	// ErrCorruptEntry is returned when a persisted record cannot be decoded
	// back into an [Entry].
	ErrCorruptEntry = errors.New("ledger: corrupt entry record")
)

// Query filters a ledger search. Zero values match everything; From/To bound
// the timestamp range inclusively.
type Query struct {
	PrincipalID string
	Action      string
	Resource    string
	From        time.Time
	To          time.Time
	Limit       int
}

// Store is the persistence collaborator for the ledger. Insert must be
// atomic per record; Search is read-only and must honor ctx cancellation so
// long range scans can carry caller-supplied timeouts.
type Store interface {
	Insert(ctx context.Context, entry Entry) error
	Get(ctx context.Context, id string) (Entry, error)
	Search(ctx context.Context, q Query) ([]Entry, error)
}

func (q Query) matches(e Entry) bool {
	if q.PrincipalID != "" && e.PrincipalID != q.PrincipalID {
		return false
	}
	if q.Action != "" && e.Action != q.Action {
		return false
	}
	if q.Resource != "" && e.Resource != q.Resource {
		return false
	}
	if !q.From.IsZero() && e.Timestamp.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && e.Timestamp.After(q.To) {
		return false
	}
	return true
}
