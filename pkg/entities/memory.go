package entities

import (
	"context"
	"fmt"
	"sync"
)

// MemoryDirectory is an in-process Directory backed by a map. It
// exists for tests and local development; production deployments use
// PostgresDirectory.
type MemoryDirectory struct {
	mu       sync.RWMutex
	entities map[string]Entity
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{entities: make(map[string]Entity)}
}

func memKey(kind Kind, id int64) string {
	return fmt.Sprintf("%s/%d", kind, id)
}

// Put adds or replaces an entity.
func (d *MemoryDirectory) Put(e Entity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entities[memKey(e.Kind, e.ID)] = e
}

// Remove deletes an entity, simulating container deletion in the main
// application.
func (d *MemoryDirectory) Remove(kind Kind, id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entities, memKey(kind, id))
}

// Get implements Directory.
func (d *MemoryDirectory) Get(_ context.Context, kind Kind, id int64) (*Entity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entities[memKey(kind, id)]
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return &e, nil
}

// List implements Directory.
func (d *MemoryDirectory) List(_ context.Context, kind Kind) ([]Entity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Entity
	for _, e := range d.entities {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out, nil
}

// Exists implements Directory.
func (d *MemoryDirectory) Exists(_ context.Context, kind Kind, id int64) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.entities[memKey(kind, id)]
	return ok, nil
}
