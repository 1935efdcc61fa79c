package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GunfireGames/Gunfire3DNavigation/generator"
	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/geomsource"
	"github.com/GunfireGames/Gunfire3DNavigation/navconfig"
	"github.com/GunfireGames/Gunfire3DNavigation/scheduler"
	"github.com/GunfireGames/Gunfire3DNavigation/svo"
)

func testConfig() navconfig.SvoConfig {
	return navconfig.SvoConfig{
		VoxelSize:         1,
		TileLayer:         1,
		TilePoolSize:      16,
		FixedTilePoolSize: false,
	}
}

func newTestScheduler(t *testing.T) (*scheduler.Scheduler, *svo.EditableSVO) {
	t.Helper()
	cfg := testConfig()
	e := svo.NewEditable(cfg)
	src := geomsource.NewStatic(nil, nil, nil)
	gen := generator.New(cfg, navconfig.AgentShape{RadiusVoxels: 1, HalfHeightVoxels: 1}, src)
	s := scheduler.New(scheduler.Config{
		BoundsPadding:    1,
		MaxTrisPerTask:   1000,
		MaxPendingTicks:  1,
		MaxTasksToSubmit: 8,
		MaxWorkers:       2,
	}, e, gen, nil)
	return s, e
}

func TestMarkDirtyTilesEnumeratesTouchedCoords(t *testing.T) {
	s, e := newTestScheduler(t)
	d := e.Config.Derive()
	bounds := geometry.AABB{
		Min: geometry.Vector3{X: -1000, Y: -1000, Z: -1000},
		Max: geometry.Vector3{X: 1000, Y: 1000, Z: 1000},
	}
	area := scheduler.DirtyArea{
		Bounds:        geometry.AABB{Min: geometry.Vector3{}, Max: geometry.Vector3{X: d.TileEdge / 2, Y: d.TileEdge / 2, Z: d.TileEdge / 2}},
		GeometryChanged: true,
	}
	s.MarkDirtyTiles([]scheduler.DirtyArea{area}, bounds, nil)

	result := s.Tick(time.Now().Add(time.Second))
	require.GreaterOrEqual(t, result.TasksSubmitted, 1)
}

func TestTickInstallsForcedPendingJobAfterMaxPendingTicks(t *testing.T) {
	s, e := newTestScheduler(t)
	bounds := geometry.AABB{
		Min: geometry.Vector3{X: -1000, Y: -1000, Z: -1000},
		Max: geometry.Vector3{X: 1000, Y: 1000, Z: 1000},
	}
	area := scheduler.DirtyArea{Bounds: geometry.AABB{
		Min: geometry.Vector3{X: 3, Y: 3, Z: 3},
		Max: geometry.Vector3{X: 4, Y: 4, Z: 4},
	}}
	s.MarkDirtyTiles([]scheduler.DirtyArea{area}, bounds, nil)

	// First tick: the single tile is added to the pending job but the
	// triangle cap (empty geometry) never crosses MaxTrisPerTask, so the
	// job only gets force-dispatched once its pending-tick counter reaches
	// MaxPendingTicks (=1 in this config).
	first := s.Tick(time.Now().Add(time.Second))
	require.Equal(t, 1, first.TasksSubmitted)

	deadline := time.Now().Add(500 * time.Millisecond)
	var installed int
	for time.Now().Before(deadline) {
		r := s.Tick(time.Now().Add(time.Second))
		installed += r.TilesInstalled
		if installed > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, 1, installed)
	require.NotNil(t, e.TileAt(geometry.Vector3i{}))
}

func TestGenerationBoostModeIsProcessWide(t *testing.T) {
	scheduler.SetGenerationBoostMode(false)
	require.False(t, scheduler.GetGenerationBoostMode())
	scheduler.SetGenerationBoostMode(true)
	require.True(t, scheduler.GetGenerationBoostMode())
	scheduler.SetGenerationBoostMode(false)
}

func TestTickBuildsTileUnderAsyncGeometryGathering(t *testing.T) {
	cfg := testConfig()
	e := svo.NewEditable(cfg)
	src := geomsource.NewStatic(nil, nil, nil)
	gen := generator.New(cfg, navconfig.AgentShape{RadiusVoxels: 1, HalfHeightVoxels: 1}, src)
	s := scheduler.New(scheduler.Config{
		BoundsPadding:          1,
		MaxTrisPerTask:         1000,
		MaxPendingTicks:        1,
		MaxTasksToSubmit:       8,
		MaxWorkers:             5,
		AsyncGeometryGathering: true,
	}, e, gen, nil)

	bounds := geometry.AABB{
		Min: geometry.Vector3{X: -1000, Y: -1000, Z: -1000},
		Max: geometry.Vector3{X: 1000, Y: 1000, Z: 1000},
	}
	area := scheduler.DirtyArea{Bounds: geometry.AABB{
		Min: geometry.Vector3{X: 3, Y: 3, Z: 3},
		Max: geometry.Vector3{X: 4, Y: 4, Z: 4},
	}}
	s.MarkDirtyTiles([]scheduler.DirtyArea{area}, bounds, nil)
	s.Tick(time.Now().Add(time.Second))

	deadline := time.Now().Add(500 * time.Millisecond)
	var installed int
	for time.Now().Before(deadline) {
		r := s.Tick(time.Now().Add(time.Second))
		installed += r.TilesInstalled
		if installed > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, 1, installed)
	require.NotNil(t, e.TileAt(geometry.Vector3i{}))
}

func TestCancelBuildDiscardsPendingWork(t *testing.T) {
	s, _ := newTestScheduler(t)
	bounds := geometry.AABB{
		Min: geometry.Vector3{X: -1000, Y: -1000, Z: -1000},
		Max: geometry.Vector3{X: 1000, Y: 1000, Z: 1000},
	}
	area := scheduler.DirtyArea{Bounds: geometry.AABB{
		Min: geometry.Vector3{X: 3, Y: 3, Z: 3},
		Max: geometry.Vector3{X: 4, Y: 4, Z: 4},
	}}
	s.MarkDirtyTiles([]scheduler.DirtyArea{area}, bounds, nil)

	s.CancelBuild()

	r := s.Tick(time.Now().Add(time.Second))
	require.Equal(t, 0, r.TilesInstalled)
	require.Equal(t, 0, r.TasksSubmitted)
}
