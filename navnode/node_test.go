package navnode_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/GunfireGames/Gunfire3DNavigation/internal/bitset"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
	"github.com/GunfireGames/Gunfire3DNavigation/navnode"
)

func TestNodeSize(t *testing.T) {
	require.EqualValues(t, 64, unsafe.Sizeof(navnode.Node{}))
}

func TestLeafStateDerivation(t *testing.T) {
	self := navlink.NodeLink{TileID: 1, Base: navlink.PackBase(0, 3, navlink.NoVoxel, navlink.Self)}

	open := navnode.NewLeaf(self, 0)
	require.Equal(t, navnode.Open, open.State())

	blocked := navnode.NewLeaf(self, bitset.Fixed64(^uint64(0)))
	require.Equal(t, navnode.Blocked, blocked.State())

	var partial bitset.Fixed64
	partial.Set(3)
	partialNode := navnode.NewLeaf(self, partial)
	require.Equal(t, navnode.PartiallyBlocked, partialNode.State())
	require.True(t, partialNode.IsLeaf())
}

func TestInnerNodeState(t *testing.T) {
	self := navlink.NodeLink{TileID: 1, Base: navlink.PackBase(2, 0, navlink.NoVoxel, navlink.Self)}
	n := navnode.NewInner(self, true, navnode.PartiallyBlocked)
	require.False(t, n.IsLeaf())
	require.True(t, n.IsTileRoot())
	require.Equal(t, navnode.PartiallyBlocked, n.State())

	n.SetState(navnode.Open)
	require.Equal(t, navnode.Open, n.State())
	require.True(t, n.IsTileRoot(), "SetState must not clobber the tile-root flag")
}

func TestNeighborRoundTrip(t *testing.T) {
	self := navlink.NodeLink{TileID: 1, Base: navlink.PackBase(1, 0, navlink.NoVoxel, navlink.Self)}
	n := navnode.NewInner(self, false, navnode.Open)
	require.False(t, n.HasNeighbor(morton.FacePosX))

	nb := navlink.PackBase(1, 1, navlink.NoVoxel, navlink.Self)
	n.SetNeighbor(morton.FacePosX, nb)
	require.True(t, n.HasNeighbor(morton.FacePosX))
	require.True(t, navnode.NeighborSameTile(n.Neighbor(morton.FacePosX)))
}
