// Package store defines the gateway ports to the remote movement and user
// store. Backends live in subpackages and in internal/storage.
package store

import (
	"context"

	"controle/internal/core"
)

// MovementQuery selects movements of one owner. Zero-valued predicates are ignored.
// From and To bound the date as a half-open range [From, To).
type MovementQuery struct {
	OwnerID string
	Kind    core.Kind
	Status  core.PaymentStatus
	From    core.Date
	To      core.Date
}

// Matches reports whether m satisfies every predicate of q.
func (q MovementQuery) Matches(m core.Movement) bool {
	if m.OwnerID != q.OwnerID {
		return false
	}
	if q.Kind != "" && m.Kind != q.Kind {
		return false
	}
	if q.Status != "" && m.Status != q.Status {
		return false
	}
	if !q.From.IsZero() && m.Date.Before(q.From.Time) {
		return false
	}
	if !q.To.IsZero() && !m.Date.Before(q.To.Time) {
		return false
	}
	return true
}

// Ports for outbound adapters.
type (
	MovementWriter interface {
		// Create assigns an id and stores the movement.
		Create(ctx context.Context, m core.Movement) (core.Movement, error)
		// Update applies a partial update to a movement owned by ownerID.
		Update(ctx context.Context, ownerID, id string, p core.MovementPatch) (core.Movement, error)
		// Delete removes a movement owned by ownerID.
		Delete(ctx context.Context, ownerID, id string) error
	}

	MovementReader interface {
		Get(ctx context.Context, id string) (core.Movement, error)
		// List returns matching movements ordered by date, newest first.
		List(ctx context.Context, q MovementQuery) ([]core.Movement, error)
	}

	MovementStore interface {
		MovementWriter
		MovementReader
	}

	UserStore interface {
		// CreateUser stores the profile; a duplicate email yields core.ErrEmailTaken.
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
	}

	// Pinger is implemented by backends that can report readiness.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
