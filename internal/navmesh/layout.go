package navmesh

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/udisondev/chunknav/internal/config"
	"github.com/udisondev/chunknav/internal/space"
)

// BuildSpace creates the chunks described by layout, links them with portals
// and returns the navmesh load of every chunk. Nothing is loaded yet.
func BuildSpace(layout config.SpaceLayout) (*space.Space, []ChunkLoad, error) {
	if err := layout.Validate(); err != nil {
		return nil, nil, err
	}
	g := layout.Grid
	sp := space.New(layout.GridResolution, g.MinX, g.MinZ, g.MaxX, g.MaxZ)
	if err := space.BuildOutsideGrid(sp); err != nil {
		return nil, nil, err
	}

	var loads []ChunkLoad
	for gx := g.MinX; gx <= g.MaxX; gx++ {
		for gz := g.MinZ; gz <= g.MaxZ; gz++ {
			loads = append(loads, ChunkLoad{
				Chunk:   sp.OutsideChunk(gx, gz),
				Navmesh: layout.CellNavmesh(gx, gz),
			})
		}
	}

	for _, s := range layout.Shells {
		origin := vec3(s.Origin)
		shell := space.NewChunk(s.ID,
			mgl32.Translate3D(origin.X(), origin.Y(), origin.Z()),
			space.BoundingBox{Max: vec3(s.Size)},
			false)
		if err := sp.AddChunk(shell, 0, 0); err != nil {
			return nil, nil, fmt.Errorf("adding shell: %w", err)
		}

		gx, gz := sp.PointToGrid(origin.X(), origin.Z())
		outside := sp.OutsideChunk(gx, gz)
		if outside == nil {
			return nil, nil, fmt.Errorf("shell %q at %v is outside the grid", s.ID, origin)
		}
		outside.AddOverlapper(shell)

		for _, pc := range s.Portals {
			points := make([]mgl32.Vec3, len(pc.Points))
			for i, p := range pc.Points {
				points[i] = vec3(p)
			}
			out, in := space.LinkChunks(shell, outside, points, vec3(pc.Normal))
			for _, p := range []*space.Portal{out, in} {
				p.SetPermissive(pc.IsPermissive())
				p.SetActivated(pc.Activated)
			}
		}

		loads = append(loads, ChunkLoad{Chunk: shell, Navmesh: s.Navmesh})
	}

	return sp, loads, nil
}

// LoadSpace builds the space of layout, streams every navmesh in and binds
// the result.
func (m *Manager) LoadSpace(ctx context.Context, layout config.SpaceLayout) (*space.Space, error) {
	sp, loads, err := BuildSpace(layout)
	if err != nil {
		return nil, fmt.Errorf("building space: %w", err)
	}
	if err := m.LoadChunks(ctx, loads); err != nil {
		return nil, fmt.Errorf("loading space: %w", err)
	}
	m.BindSpace(sp)
	return sp, nil
}

func vec3(v config.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v[0], v[1], v[2]}
}
