package svo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/internal/bitset"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
	"github.com/GunfireGames/Gunfire3DNavigation/navconfig"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
	"github.com/GunfireGames/Gunfire3DNavigation/navnode"
	"github.com/GunfireGames/Gunfire3DNavigation/svo"
	"github.com/GunfireGames/Gunfire3DNavigation/tile"
)

func testConfig() navconfig.SvoConfig {
	return navconfig.SvoConfig{VoxelSize: 1, TileLayer: 1, TilePoolSize: 8}
}

func TestLinkForLocationOpenRoot(t *testing.T) {
	s := svo.New(testConfig())
	coord := geometry.Vector3i{}
	tl := tile.New(svo.TileID(coord), coord, 1)
	tl.NodeInfo = navnode.NewInner(navlink.NodeLink{TileID: tl.ID, Base: navlink.PackBase(1, 0, navlink.NoVoxel, navlink.Self)}, true, navnode.Open)
	s.Tiles()[tl.ID] = tl

	link := s.LinkForLocation(geometry.Vector3{X: 1, Y: 1, Z: 1}, false)
	require.True(t, link.IsValid())
	require.EqualValues(t, 1, link.Layer())
}

func TestLinkForLocationNoTile(t *testing.T) {
	s := svo.New(testConfig())
	link := s.LinkForLocation(geometry.Vector3{X: 100, Y: 100, Z: 100}, false)
	require.False(t, link.IsValid())
}

func TestLinkForLocationBlockedVoxel(t *testing.T) {
	s := svo.New(testConfig())
	coord := geometry.Vector3i{}
	tl := tile.New(svo.TileID(coord), coord, 1)
	tl.NodeInfo = navnode.NewInner(navlink.NodeLink{TileID: tl.ID, Base: navlink.PackBase(1, 0, navlink.NoVoxel, navlink.Self)}, true, navnode.PartiallyBlocked)

	var voxels bitset.Fixed64
	voxels.Set(0) // voxel (0,0,0) blocked
	leafLink := navlink.NodeLink{TileID: tl.ID, Base: navlink.PackBase(0, 0, navlink.NoVoxel, navlink.Self)}
	tl.ActivateNode(0, 0, navnode.NewLeaf(leafLink, voxels))
	s.Tiles()[tl.ID] = tl

	blocked := s.LinkForLocation(geometry.Vector3{X: 0.5, Y: 0.5, Z: 0.5}, false)
	require.False(t, blocked.IsValid())

	allowed := s.LinkForLocation(geometry.Vector3{X: 0.5, Y: 0.5, Z: 0.5}, true)
	require.True(t, allowed.IsValid())
	require.EqualValues(t, 0, allowed.VoxelIdx())

	open := s.LinkForLocation(geometry.Vector3{X: 3.5, Y: 3.5, Z: 3.5}, false)
	require.True(t, open.IsValid())
}

func TestBoundsForLinkRoot(t *testing.T) {
	s := svo.New(testConfig())
	coord := geometry.Vector3i{X: 1}
	tl := tile.New(svo.TileID(coord), coord, 1)
	s.Tiles()[tl.ID] = tl

	rootLink := navlink.NodeLink{TileID: tl.ID, Base: navlink.PackBase(1, 0, navlink.NoVoxel, navlink.Self)}
	box, ok := s.BoundsForLink(rootLink)
	require.True(t, ok)
	require.InDelta(t, 8, box.Min.X, 1e-6) // tileEdge = 4*1*2^1 = 8
	require.InDelta(t, 16, box.Max.X, 1e-6)
}

func TestEditableCopyTileLinksAdjacentNeighbors(t *testing.T) {
	e := svo.NewEditable(testConfig())
	coordA := geometry.Vector3i{X: 0}
	coordB := geometry.Vector3i{X: 1}
	tlA := tile.New(svo.TileID(coordA), coordA, 1)
	tlB := tile.New(svo.TileID(coordB), coordB, 1)

	e.BeginBatchEdit()
	e.CopyTile(tlA, false)
	e.CopyTile(tlB, false)
	require.NoError(t, e.EndBatchEdit())

	gotA := e.TileAt(coordA)
	gotB := e.TileAt(coordB)
	require.NotNil(t, gotA)
	require.NotNil(t, gotB)

	wantAtoB := navlink.PackBase(1, 0, navlink.NoVoxel, uint8(morton.FacePosX))
	require.Equal(t, wantAtoB, gotA.Root().Neighbor(morton.FacePosX))

	wantBtoA := navlink.PackBase(1, 0, navlink.NoVoxel, uint8(morton.FaceNegX))
	require.Equal(t, wantBtoA, gotB.Root().Neighbor(morton.FaceNegX))
}

func TestEditableRemoveTileDirtiesNeighbors(t *testing.T) {
	e := svo.NewEditable(testConfig())
	coordA := geometry.Vector3i{X: 0}
	coordB := geometry.Vector3i{X: 1}
	tlA := tile.New(svo.TileID(coordA), coordA, 1)
	tlB := tile.New(svo.TileID(coordB), coordB, 1)

	e.BeginBatchEdit()
	e.CopyTile(tlA, false)
	e.CopyTile(tlB, false)
	require.NoError(t, e.EndBatchEdit())

	e.BeginBatchEdit()
	e.RemoveTile(coordB)
	require.NoError(t, e.EndBatchEdit())

	require.Nil(t, e.TileAt(coordB))
	require.False(t, e.TileAt(coordA).Root().Neighbor(morton.FacePosX).IsValid())
}

func TestEditableResetDiscardsTilesAndAdoptsConfig(t *testing.T) {
	e := svo.NewEditable(testConfig())
	coordA := geometry.Vector3i{X: 0}
	tlA := tile.New(svo.TileID(coordA), coordA, 1)

	e.BeginBatchEdit()
	e.CopyTile(tlA, false)
	require.NoError(t, e.EndBatchEdit())
	require.NotNil(t, e.TileAt(coordA))

	newCfg := testConfig()
	newCfg.VoxelSize = 2
	require.False(t, newCfg.Compatible(e.Config))

	e.Reset(newCfg)

	require.Nil(t, e.TileAt(coordA))
	require.Equal(t, newCfg, e.Config)
	require.False(t, e.InBatch())
}

func TestAssumeTileRefusesNewTileWhenFixedPoolFull(t *testing.T) {
	cfg := testConfig()
	cfg.TilePoolSize = 1
	cfg.FixedTilePoolSize = true
	e := svo.NewEditable(cfg)

	coordA := geometry.Vector3i{X: 0}
	coordB := geometry.Vector3i{X: 1}
	tlA := tile.New(svo.TileID(coordA), coordA, 1)
	tlB := tile.New(svo.TileID(coordB), coordB, 1)

	e.BeginBatchEdit()
	require.True(t, e.AssumeTile(tlA, false))
	require.False(t, e.AssumeTile(tlB, false))
	require.NoError(t, e.EndBatchEdit())

	require.NotNil(t, e.TileAt(coordA))
	require.Nil(t, e.TileAt(coordB))
}

func TestAssumeTileAllowsReplacingResidentTileWhenFixedPoolFull(t *testing.T) {
	cfg := testConfig()
	cfg.TilePoolSize = 1
	cfg.FixedTilePoolSize = true
	e := svo.NewEditable(cfg)

	coordA := geometry.Vector3i{X: 0}
	tlA := tile.New(svo.TileID(coordA), coordA, 1)

	e.BeginBatchEdit()
	require.True(t, e.AssumeTile(tlA, false))
	require.NoError(t, e.EndBatchEdit())

	replacement := tile.New(svo.TileID(coordA), coordA, 1)
	e.BeginBatchEdit()
	require.True(t, e.AssumeTile(replacement, false))
	require.NoError(t, e.EndBatchEdit())
}

func TestRaycastHitsBlockedTileRoot(t *testing.T) {
	s := svo.New(testConfig())
	coord := geometry.Vector3i{}
	tl := tile.New(svo.TileID(coord), coord, 1)
	tl.NodeInfo = navnode.NewInner(navlink.NodeLink{TileID: tl.ID, Base: navlink.PackBase(1, 0, navlink.NoVoxel, navlink.Self)}, true, navnode.Blocked)
	s.Tiles()[tl.ID] = tl

	hit, ok := s.Raycast(geometry.Vector3{X: -5, Y: 4, Z: 4}, geometry.Vector3{X: 10, Y: 4, Z: 4})
	require.True(t, ok)
	require.EqualValues(t, 1, hit.HitNode.Layer())
	require.True(t, hit.HitTime >= 0 && hit.HitTime <= 1)
}

func TestRaycastMissesWhenNoTiles(t *testing.T) {
	s := svo.New(testConfig())
	_, ok := s.Raycast(geometry.Vector3{X: -5}, geometry.Vector3{X: 5})
	require.False(t, ok)
}
