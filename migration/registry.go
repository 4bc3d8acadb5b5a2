package migration

import (
	"context"
	"sync"

	"github.com/arnie-db/arnie/catalog"
	"github.com/pkg/errors"
)

var ErrDuplicate = errors.New("duplicate migration name")
var ErrNotFound = errors.New("migration not found")

// Registry holds Go-native migration units keyed by name, so registered
// units and SQL files are interchangeable behind the engine's source seam.
// There is no package-level default registry: a registry is an explicit
// value wired into exactly one engine.
type Registry struct {
	mu    sync.RWMutex
	units map[string]*Unit
}

func NewRegistry() *Registry {
	return &Registry{units: make(map[string]*Unit)}
}

// Add registers a unit. The unit name must carry a parseable ordinal and
// must not collide with an already registered unit.
func (r *Registry) Add(u Unit) error {
	if _, err := catalog.ParseName(u.Name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.units[u.Name]; ok {
		return errors.Wrapf(ErrDuplicate, "[%s]", u.Name)
	}

	r.units[u.Name] = &u

	return nil
}

// Entries returns the registered units in canonical catalog order.
func (r *Registry) Entries(_ context.Context) ([]catalog.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.units))
	for name := range r.units {
		names = append(names, name+"."+catalog.Extension)
	}

	return catalog.ListOrdered(names)
}

// Load returns a registered unit by name.
func (r *Registry) Load(_ context.Context, name string) (*Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.units[name]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "[%s]", name)
	}

	return u, nil
}
