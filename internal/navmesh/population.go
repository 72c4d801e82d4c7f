package navmesh

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/udisondev/chunknav/internal/resource"
)

// Population shares loaded WaypointSetData between every chunk that loads the
// same navmesh resource. Entries are published on first load and removed when
// the last reference to any of their sets is released.
type Population struct {
	loader resource.Loader

	mu      sync.Mutex
	records map[string][]*WaypointSetData
}

// NewPopulation creates an empty population reading through loader.
func NewPopulation(loader resource.Loader) *Population {
	return &Population{
		loader:  loader,
		records: make(map[string][]*WaypointSetData),
	}
}

// Acquire returns the sets of the named resource with one reference taken on
// each. A zero-length resource yields no sets and no error.
func (p *Population) Acquire(ctx context.Context, name string) ([]*WaypointSetData, error) {
	key := resource.Resolve(name)

	if sets, ok := p.acquireExisting(key); ok {
		return sets, nil
	}

	// Read outside the lock: another loader may publish the same resource
	// meanwhile, in which case our copy stays private and dies with its sets.
	blob, err := p.loader.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("loading navmesh %s: %w", key, err)
	}
	if len(blob) == 0 {
		return nil, nil
	}
	sets, err := ReadWaypointSets(blob)
	if err != nil {
		return nil, fmt.Errorf("parsing navmesh %s: %w: %w", key, ErrMalformed, err)
	}
	for _, d := range sets {
		d.source = key
		d.refs.Store(1)
		d.release = p.remove
	}

	p.mu.Lock()
	if existing, ok := p.records[key]; !ok || !allAlive(existing) {
		p.records[key] = sets
	}
	p.mu.Unlock()

	return append([]*WaypointSetData(nil), sets...), nil
}

// acquireExisting takes a reference on every set of a published record.
// It fails if any set is already on its way out.
func (p *Population) acquireExisting(key string) ([]*WaypointSetData, bool) {
	p.mu.Lock()
	record, ok := p.records[key]
	if !ok {
		p.mu.Unlock()
		return nil, false
	}

	acquired := make([]*WaypointSetData, 0, len(record))
	for _, d := range record {
		if !d.TryIncRef() {
			break
		}
		acquired = append(acquired, d)
	}
	p.mu.Unlock()

	if len(acquired) == len(record) {
		return acquired, true
	}
	// DecRef may call back into remove, which takes the lock.
	for _, d := range acquired {
		d.DecRef()
	}
	return nil, false
}

func (p *Population) remove(d *WaypointSetData) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if record, ok := p.records[d.source]; ok && slices.Contains(record, d) {
		delete(p.records, d.source)
	}
}

// Len returns the number of published resources.
func (p *Population) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records)
}

// Contains reports whether the resource is currently published.
func (p *Population) Contains(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.records[resource.Resolve(name)]
	return ok
}

func allAlive(sets []*WaypointSetData) bool {
	for _, d := range sets {
		if d.RefCount() <= 0 {
			return false
		}
	}
	return true
}
