package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vec3 is a point written as a three-element YAML sequence.
type Vec3 [3]float32

// GridExtent is the inclusive range of outside grid cells.
type GridExtent struct {
	MinX int `yaml:"min_x"`
	MinZ int `yaml:"min_z"`
	MaxX int `yaml:"max_x"`
	MaxZ int `yaml:"max_z"`
}

// Cell names the navmesh of one outside chunk.
type Cell struct {
	X       int    `yaml:"x"`
	Z       int    `yaml:"z"`
	Navmesh string `yaml:"navmesh"`
}

// ShellPortal is an opening between a shell and the outside chunk it sits in.
// Points are in world space; the normal points out of the shell.
type ShellPortal struct {
	Points     []Vec3 `yaml:"points"`
	Normal     Vec3   `yaml:"normal"`
	Permissive *bool  `yaml:"permissive"` // default true
	Activated  bool   `yaml:"activated"`
}

// IsPermissive reports the portal's permissive flag, defaulting to true.
func (p ShellPortal) IsPermissive() bool {
	return p.Permissive == nil || *p.Permissive
}

// Shell is an indoor chunk placed at Origin with extent Size.
type Shell struct {
	ID      string        `yaml:"id"`
	Origin  Vec3          `yaml:"origin"`
	Size    Vec3          `yaml:"size"`
	Navmesh string        `yaml:"navmesh"`
	Portals []ShellPortal `yaml:"portals"`
}

// SpaceLayout describes the chunks of one space and their navmesh resources.
type SpaceLayout struct {
	GridResolution float32    `yaml:"grid_resolution"`
	Grid           GridExtent `yaml:"grid"`
	// DefaultNavmesh is a printf pattern taking the cell x and z, used for
	// cells not listed in Cells. Empty means unlisted cells have no mesh.
	DefaultNavmesh string  `yaml:"default_navmesh"`
	Cells          []Cell  `yaml:"cells"`
	Shells         []Shell `yaml:"shells"`
}

// Validate checks the layout for inconsistencies.
func (l SpaceLayout) Validate() error {
	if l.GridResolution <= 0 {
		return fmt.Errorf("grid_resolution must be positive, got %g", l.GridResolution)
	}
	g := l.Grid
	if g.MaxX < g.MinX || g.MaxZ < g.MinZ {
		return fmt.Errorf("empty grid extent %+v", g)
	}
	for _, c := range l.Cells {
		if c.X < g.MinX || c.X > g.MaxX || c.Z < g.MinZ || c.Z > g.MaxZ {
			return fmt.Errorf("cell (%d, %d) outside grid extent", c.X, c.Z)
		}
	}
	ids := make(map[string]bool)
	for _, s := range l.Shells {
		if s.ID == "" {
			return errors.New("shell without id")
		}
		if ids[s.ID] {
			return fmt.Errorf("duplicate shell id %q", s.ID)
		}
		ids[s.ID] = true
		if s.Size[0] <= 0 || s.Size[1] <= 0 || s.Size[2] <= 0 {
			return fmt.Errorf("shell %q: size must be positive", s.ID)
		}
		for i, p := range s.Portals {
			if len(p.Points) < 3 {
				return fmt.Errorf("shell %q portal %d: need at least 3 points", s.ID, i)
			}
		}
	}
	return nil
}

// CellNavmesh returns the navmesh resource of outside cell (x, z), or "".
func (l SpaceLayout) CellNavmesh(x, z int) string {
	for _, c := range l.Cells {
		if c.X == x && c.Z == z {
			return c.Navmesh
		}
	}
	if l.DefaultNavmesh == "" {
		return ""
	}
	return fmt.Sprintf(l.DefaultNavmesh, x, z)
}

// LoadSpaceLayout loads and validates a space layout from a YAML file.
// A layout without grid_resolution uses defaultResolution.
func LoadSpaceLayout(path string, defaultResolution float32) (SpaceLayout, error) {
	layout := SpaceLayout{GridResolution: defaultResolution}

	data, err := os.ReadFile(path)
	if err != nil {
		return layout, fmt.Errorf("reading layout %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return layout, fmt.Errorf("parsing layout %s: %w", path, err)
	}
	if err := layout.Validate(); err != nil {
		return layout, fmt.Errorf("validating layout %s: %w", path, err)
	}

	return layout, nil
}
