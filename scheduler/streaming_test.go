package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/navnode"
	"github.com/GunfireGames/Gunfire3DNavigation/scheduler"
	"github.com/GunfireGames/Gunfire3DNavigation/svo"
	"github.com/GunfireGames/Gunfire3DNavigation/tile"
)

func TestStreamingBridgeChunkUnloadedRemovesResidentTile(t *testing.T) {
	s, e := newTestScheduler(t)
	bridge := scheduler.NewStreamingBridge(s)

	coord := geometry.Vector3i{}
	tileBounds := svo.TileBoundsFor(e.Config, coord)

	tl := tile.New(svo.TileID(coord), coord, e.Config.TileLayer)
	tl.NodeInfo = navnode.NewInner(tl.LinkFor(e.Config.TileLayer, 0), true, navnode.Open)

	e.BeginBatchEdit()
	e.AssumeTile(tl, false)
	e.EndBatchEdit()

	require.NotNil(t, e.TileAt(coord))

	bridge.ChunkUnloaded(tileBounds)
	require.Nil(t, e.TileAt(coord))
}

func TestStreamingBridgeChunkLoadedMarksDirty(t *testing.T) {
	s, _ := newTestScheduler(t)
	bridge := scheduler.NewStreamingBridge(s)

	bounds := geometry.AABB{
		Min: geometry.Vector3{X: 3, Y: 3, Z: 3},
		Max: geometry.Vector3{X: 4, Y: 4, Z: 4},
	}
	bridge.ChunkLoaded(bounds, nil)

	result := s.Tick(time.Now().Add(time.Second))
	require.GreaterOrEqual(t, result.TasksSubmitted, 1)
}
