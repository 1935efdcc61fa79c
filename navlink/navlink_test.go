package navlink_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	base := navlink.PackBase(3, 12345, 42, navlink.Self)
	require.Equal(t, uint8(3), base.Layer())
	require.Equal(t, uint32(12345), base.NodeIdx())
	require.Equal(t, uint8(42), base.VoxelIdx())
	require.Equal(t, navlink.Self, base.UserData())
	require.True(t, base.HasVoxel())
}

func TestIDIgnoresUserData(t *testing.T) {
	a := navlink.NodeLink{TileID: 7, Base: navlink.PackBase(2, 99, navlink.NoVoxel, navlink.Self)}
	b := navlink.NodeLink{TileID: 7, Base: navlink.PackBase(2, 99, navlink.NoVoxel, 3)}
	require.Equal(t, a.ID(), b.ID())

	c := navlink.NodeLink{TileID: 7, Base: navlink.PackBase(2, 100, navlink.NoVoxel, navlink.Self)}
	require.NotEqual(t, a.ID(), c.ID())
}

func TestInvalidLink(t *testing.T) {
	require.False(t, navlink.InvalidLink.IsValid())
	l := navlink.NodeLink{TileID: 1, Base: navlink.PackBase(0, 0, navlink.NoVoxel, navlink.Self)}
	require.True(t, l.IsValid())
}

func TestNoVoxelSentinel(t *testing.T) {
	base := navlink.PackBase(0, 5, navlink.NoVoxel, navlink.Self)
	require.False(t, base.HasVoxel())
}
