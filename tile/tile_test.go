package tile_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
	"github.com/GunfireGames/Gunfire3DNavigation/navnode"
	"github.com/GunfireGames/Gunfire3DNavigation/tile"
)

func TestNewLayerSizing(t *testing.T) {
	tl := tile.New(1, geometry.Vector3i{}, 3)
	require.Len(t, tl.Layers, 3)

	// layer 0 = leaf, MaxNodes = 8^3; layer 2 = topmost pooled, MaxNodes = 8^1
	require.EqualValues(t, 512, tl.Layers[0].MaxNodes)
	require.EqualValues(t, 64, tl.Layers[1].MaxNodes)
	require.EqualValues(t, 8, tl.Layers[2].MaxNodes)

	// topmost layer is laid out first in the pool
	require.EqualValues(t, 0, tl.Layers[2].StartNode)
	require.EqualValues(t, 8, tl.Layers[1].StartNode)
	require.EqualValues(t, 72, tl.Layers[0].StartNode)
	require.Len(t, tl.Pool, 8+64+512)
}

func TestActivateAndNodeAt(t *testing.T) {
	tl := tile.New(2, geometry.Vector3i{}, 2)
	self := navlink.NodeLink{TileID: 2, Base: navlink.PackBase(0, 5, navlink.NoVoxel, navlink.Self)}
	n := navnode.NewLeaf(self, 0)
	tl.ActivateNode(0, 5, n)

	got := tl.NodeAt(0, 5)
	require.True(t, got.IsActive())
	require.EqualValues(t, 6, tl.Layers[0].NumNodes)
}

func TestNodeForLinkTileRoot(t *testing.T) {
	tl := tile.New(3, geometry.Vector3i{}, 2)
	tl.NodeInfo = navnode.NewInner(navlink.NodeLink{TileID: 3, Base: navlink.PackBase(2, 0, navlink.NoVoxel, navlink.Self)}, true, navnode.Open)

	rootLink := navlink.NodeLink{TileID: 3, Base: navlink.PackBase(2, 0, navlink.NoVoxel, navlink.Self)}
	got := tl.NodeForLink(rootLink)
	require.Same(t, tl.Root(), got)
	require.True(t, got.IsTileRoot())
}

func TestNodeForLinkPooledLayer(t *testing.T) {
	tl := tile.New(4, geometry.Vector3i{}, 2)
	self := navlink.NodeLink{TileID: 4, Base: navlink.PackBase(1, 3, navlink.NoVoxel, navlink.Self)}
	tl.ActivateNode(1, 3, navnode.NewInner(self, false, navnode.Open))

	got := tl.NodeForLink(self)
	require.Equal(t, tl.NodeAt(1, 3), got)
}

func TestTrimShrinksTrailingInactive(t *testing.T) {
	tl := tile.New(5, geometry.Vector3i{}, 1)
	self0 := navlink.NodeLink{TileID: 5, Base: navlink.PackBase(0, 0, navlink.NoVoxel, navlink.Self)}
	self2 := navlink.NodeLink{TileID: 5, Base: navlink.PackBase(0, 2, navlink.NoVoxel, navlink.Self)}
	tl.ActivateNode(0, 0, navnode.NewLeaf(self0, 0))
	tl.ActivateNode(0, 2, navnode.NewLeaf(self2, 0))
	// NumNodes high-water mark is now 3 (slots 0,1,2), slot 1 left inactive.

	emptyRoot := tl.Trim()
	require.False(t, emptyRoot)
	require.EqualValues(t, 3, tl.Layers[0].NumNodes)
	require.Len(t, tl.Pool, 3)
}

func TestTrimEmptyTileReportsEmptyRoot(t *testing.T) {
	tl := tile.New(6, geometry.Vector3i{}, 1)
	emptyRoot := tl.Trim()
	require.True(t, emptyRoot)
	require.Empty(t, tl.Pool)
}

func TestAllActiveNodesSkipsInactive(t *testing.T) {
	tl := tile.New(7, geometry.Vector3i{}, 1)
	self0 := navlink.NodeLink{TileID: 7, Base: navlink.PackBase(0, 0, navlink.NoVoxel, navlink.Self)}
	tl.ActivateNode(0, 0, navnode.NewLeaf(self0, 0))

	var visited int
	tl.AllActiveNodes(func(layer uint8, nodeIdx uint32, n *navnode.Node) {
		visited++
		require.EqualValues(t, 0, layer)
		require.EqualValues(t, 0, nodeIdx)
	})
	require.Equal(t, 1, visited)
}

func TestChildParentIdxRoundTrip(t *testing.T) {
	parentIdx, sibling := tile.ParentIdx(tile.ChildBase(5) + 3)
	require.EqualValues(t, 5, parentIdx)
	require.EqualValues(t, 3, sibling)
}
