package navmesh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/chunknav/internal/resource"
	"github.com/udisondev/chunknav/internal/space"
)

// Options tune a Manager.
type Options struct {
	// GirthGrids enables per-girth grid acceleration in outside chunks.
	GirthGrids bool
	// LoadWorkers bounds concurrent chunk loads in LoadChunks.
	LoadWorkers int
}

// Manager is the chunk-loading side of the navigation system: it streams
// navmesh resources into chunks, binds them, and tears them down on unload.
type Manager struct {
	population *Population
	opts       Options
}

// NewManager creates a manager reading navmesh resources through loader.
// Concurrent reads of the same resource are collapsed.
func NewManager(loader resource.Loader, opts Options) *Manager {
	if opts.LoadWorkers <= 0 {
		opts.LoadWorkers = 1
	}
	return &Manager{
		population: NewPopulation(resource.NewShared(loader)),
		opts:       opts,
	}
}

// Population returns the shared navmesh data cache.
func (m *Manager) Population() *Population {
	return m.population
}

// ChunkLoad names the navmesh resource of one chunk.
type ChunkLoad struct {
	Chunk   *space.Chunk
	Navmesh string
}

// LoadChunk attaches the sets of the named navmesh to chunk and marks the
// chunk loaded. A missing, empty or malformed resource leaves the chunk
// without a mesh.
func (m *Manager) LoadChunk(ctx context.Context, chunk *space.Chunk, navmesh string) error {
	if navmesh != "" {
		datas, err := m.population.Acquire(ctx, navmesh)
		switch {
		case errors.Is(err, resource.ErrNotFound):
			slog.Debug("no navmesh for chunk", "chunk", chunk.ID(), "navmesh", navmesh)
		case errors.Is(err, ErrMalformed):
			slog.Error("rejecting malformed navmesh", "chunk", chunk.ID(), "navmesh", navmesh, "err", err)
		case err != nil:
			return fmt.Errorf("loading chunk %s: %w", chunk.ID(), err)
		}
		for _, d := range datas {
			NewWaypointSet(d, m.opts.GirthGrids).Toss(chunk)
		}
		if len(datas) > 0 {
			slog.Debug("navmesh attached", "chunk", chunk.ID(), "navmesh", navmesh, "sets", len(datas))
		}
	}
	chunk.SetLoaded(true)
	return nil
}

// LoadChunks loads many chunks concurrently, bounded by Options.LoadWorkers.
func (m *Manager) LoadChunks(ctx context.Context, loads []ChunkLoad) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.LoadWorkers)
	for _, l := range loads {
		g.Go(func() error {
			return m.LoadChunk(ctx, l.Chunk, l.Navmesh)
		})
	}
	return g.Wait()
}

// BindSpace binds the sets of every loaded chunk in sp. Returns the number of
// sets that are bound afterwards.
func (m *Manager) BindSpace(sp *space.Space) int {
	bound := 0
	for _, c := range sp.Chunks() {
		if !c.Loaded() {
			continue
		}
		nav := NavigatorOf(c)
		if nav == nil {
			continue
		}
		nav.Bind()
		for _, s := range nav.Sets() {
			if s.Bound() {
				bound++
			}
		}
	}
	return bound
}

// UnloadChunk removes every set from chunk, releases the shared data and
// marks the chunk unloaded.
func (m *Manager) UnloadChunk(chunk *space.Chunk) {
	if nav := NavigatorOf(chunk); nav != nil {
		for _, s := range append([]*WaypointSet(nil), nav.Sets()...) {
			s.Toss(nil)
			s.data.DecRef()
		}
		chunk.DropCache(navigatorKey{})
	}
	chunk.SetLoaded(false)
}
