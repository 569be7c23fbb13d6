package entities

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Directory.Get when no entity with the
// given kind and id exists.
var ErrNotFound = errors.New("entity not found")

// Directory resolves and enumerates live entities. Implementations
// read the main application's store; the stats subsystem never writes
// through this interface.
type Directory interface {
	// Get returns the entity, or an error wrapping ErrNotFound.
	Get(ctx context.Context, kind Kind, id int64) (*Entity, error)

	// List returns every live entity of the given kind.
	List(ctx context.Context, kind Kind) ([]Entity, error)

	// Exists reports whether an entity with the given kind and id is
	// still live.
	Exists(ctx context.Context, kind Kind, id int64) (bool, error)
}
