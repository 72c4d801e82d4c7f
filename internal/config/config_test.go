package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadNavigationMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadNavigation(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultNavigation(), cfg)
}

func TestLoadNavigationOverridesDefaults(t *testing.T) {
	path := writeFile(t, "nav.yaml", `
log_level: debug
resource_backend: postgres
girth_grids: false
max_search_distance: 250
load_workers: 8
database:
  host: db
  port: 6432
`)

	cfg, err := LoadNavigation(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, BackendPostgres, cfg.ResourceBackend)
	assert.False(t, cfg.GirthGrids)
	assert.Equal(t, float32(250), cfg.MaxSearchDistance)
	assert.Equal(t, 8, cfg.LoadWorkers)
	assert.Equal(t, float32(100), cfg.GridResolution, "unset keys keep defaults")
	assert.Equal(t, "postgres://chunknav:chunknav@db:6432/chunknav?sslmode=disable", cfg.Database.DSN())
}

func TestLoadNavigationRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"backend":  "resource_backend: s3\n",
		"grid":     "grid_resolution: 0\n",
		"workers":  "load_workers: -1\n",
		"bad yaml": "log_level: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadNavigation(writeFile(t, "nav.yaml", content))
			assert.Error(t, err)
		})
	}
}

func TestLoadSpaceLayout(t *testing.T) {
	path := writeFile(t, "layout.yaml", `
grid_resolution: 100
grid: {min_x: -1, min_z: 0, max_x: 1, max_z: 1}
default_navmesh: "outside/%d_%d.navmesh"
cells:
  - {x: 0, z: 0, navmesh: "outside/spawn.navmesh"}
shells:
  - id: house
    origin: [10, 0, 10]
    size: [8, 4, 8]
    navmesh: shells/house.navmesh
    portals:
      - points: [[10, 0, 12], [10, 0, 14], [10, 3, 14], [10, 3, 12]]
        normal: [-1, 0, 0]
        activated: true
`)

	layout, err := LoadSpaceLayout(path, 50)
	require.NoError(t, err)
	assert.Equal(t, float32(100), layout.GridResolution)
	assert.Equal(t, GridExtent{MinX: -1, MinZ: 0, MaxX: 1, MaxZ: 1}, layout.Grid)
	assert.Equal(t, "outside/spawn.navmesh", layout.CellNavmesh(0, 0))
	assert.Equal(t, "outside/-1_1.navmesh", layout.CellNavmesh(-1, 1))

	require.Len(t, layout.Shells, 1)
	house := layout.Shells[0]
	assert.Equal(t, Vec3{8, 4, 8}, house.Size)
	require.Len(t, house.Portals, 1)
	assert.Len(t, house.Portals[0].Points, 4)
	assert.True(t, house.Portals[0].IsPermissive())
	assert.True(t, house.Portals[0].Activated)
}

func TestLoadSpaceLayoutDefaultResolution(t *testing.T) {
	path := writeFile(t, "layout.yaml", "grid: {max_x: 2, max_z: 2}\n")

	layout, err := LoadSpaceLayout(path, 64)
	require.NoError(t, err)
	assert.Equal(t, float32(64), layout.GridResolution)

	_, err = LoadSpaceLayout(path, 0)
	assert.ErrorContains(t, err, "grid_resolution")
}

func TestSpaceLayoutValidate(t *testing.T) {
	valid := SpaceLayout{GridResolution: 10, Grid: GridExtent{MaxX: 1, MaxZ: 1}}
	require.NoError(t, valid.Validate())
	assert.Empty(t, valid.CellNavmesh(1, 1))

	tests := map[string]func(l *SpaceLayout){
		"resolution":   func(l *SpaceLayout) { l.GridResolution = 0 },
		"extent":       func(l *SpaceLayout) { l.Grid.MaxX = -1 },
		"cell outside": func(l *SpaceLayout) { l.Cells = []Cell{{X: 5, Z: 0}} },
		"shell id":     func(l *SpaceLayout) { l.Shells = []Shell{{Size: Vec3{1, 1, 1}}} },
		"shell size":   func(l *SpaceLayout) { l.Shells = []Shell{{ID: "a"}} },
		"duplicate": func(l *SpaceLayout) {
			l.Shells = []Shell{{ID: "a", Size: Vec3{1, 1, 1}}, {ID: "a", Size: Vec3{1, 1, 1}}}
		},
		"portal points": func(l *SpaceLayout) {
			l.Shells = []Shell{{ID: "a", Size: Vec3{1, 1, 1}, Portals: []ShellPortal{{Points: []Vec3{{0, 0, 0}}}}}}
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			l := valid
			mutate(&l)
			assert.Error(t, l.Validate())
		})
	}

	_, err := LoadSpaceLayout(filepath.Join(t.TempDir(), "absent.yaml"), 100)
	assert.Error(t, err, "a layout is required")
}
