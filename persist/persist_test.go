package persist_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/navconfig"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
	"github.com/GunfireGames/Gunfire3DNavigation/navnode"
	"github.com/GunfireGames/Gunfire3DNavigation/persist"
	"github.com/GunfireGames/Gunfire3DNavigation/svo"
	"github.com/GunfireGames/Gunfire3DNavigation/tile"
)

func buildTestSVO() *svo.SVO {
	cfg := navconfig.SvoConfig{VoxelSize: 1, TileLayer: 1, TilePoolSize: 4}
	s := svo.New(cfg)
	t := tile.New(svo.TileID(geometry.Vector3i{X: 1, Y: 2, Z: 3}), geometry.Vector3i{X: 1, Y: 2, Z: 3}, 1)
	root := t.LinkFor(1, 0)
	t.NodeInfo = navnode.NewInner(root, true, navnode.PartiallyBlocked)
	for i := uint32(0); i < 8; i++ {
		t.ActivateNode(0, i, navnode.NewLeaf(t.LinkFor(0, i), 0))
	}
	t.NodeInfo.SetNeighbor(0, navlink.PackBase(1, 0, navlink.NoVoxel, navlink.Self))
	s.Tiles()[t.ID] = t
	return s
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := buildTestSVO()

	buf := &bytes.Buffer{}
	require.NoError(t, persist.Write(buf, s))

	loaded, err := persist.Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	require.Equal(t, s.Config, loaded.Config)
	require.Len(t, loaded.Tiles(), 1)

	var orig, got *tile.Tile
	for _, tl := range s.Tiles() {
		orig = tl
	}
	for _, tl := range loaded.Tiles() {
		got = tl
	}
	require.Equal(t, orig.Coord, got.Coord)
	require.Equal(t, orig.NodeInfo, got.NodeInfo)
	require.Equal(t, orig.Pool, got.Pool)
	require.Equal(t, orig.Layers, got.Layers)
}

func TestReadRejectsBadGUID(t *testing.T) {
	s := buildTestSVO()
	buf := &bytes.Buffer{}
	require.NoError(t, persist.Write(buf, s))
	corrupted := buf.Bytes()
	corrupted[0] ^= 0xFF
	_, err := persist.Read(bytes.NewReader(corrupted))
	require.Error(t, err)
}

func TestSaveLoadFileRoundTrip(t *testing.T) {
	s := buildTestSVO()
	dir := t.TempDir()
	path := dir + "/test.nav"

	require.NoError(t, persist.Save(s, path))
	loaded, err := persist.Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Tiles(), 1)
}
