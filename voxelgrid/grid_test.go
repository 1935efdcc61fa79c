package voxelgrid_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
	"github.com/GunfireGames/Gunfire3DNavigation/voxelgrid"
)

func TestSetTestRoundTrip(t *testing.T) {
	g := voxelgrid.New(8, 1, geometry.Vector3{})
	c := morton.Coord{X: 3, Y: 1, Z: 5}
	require.False(t, g.Test(c))
	g.Set(c)
	require.True(t, g.Test(c))
}

func TestLeafWordMatchesSetVoxels(t *testing.T) {
	g := voxelgrid.New(4, 1, geometry.Vector3{})
	g.Set(morton.Coord{X: 1, Y: 0, Z: 0})
	g.Set(morton.Coord{X: 3, Y: 3, Z: 3})

	word := g.LeafWord(0) // the whole 4x4x4 grid is one leaf block
	require.True(t, word.Test(uint(morton.Encode(morton.Coord{X: 1, Y: 0, Z: 0}))))
	require.True(t, word.Test(uint(morton.Encode(morton.Coord{X: 3, Y: 3, Z: 3}))))
	require.False(t, word.Test(uint(morton.Encode(morton.Coord{X: 2, Y: 2, Z: 2}))))
}

func TestRasterizeTriangleMarksOverlappingVoxels(t *testing.T) {
	g := voxelgrid.New(8, 1, geometry.Vector3{})
	tri := geometry.Triangle{
		A: geometry.Vector3{X: 0, Y: 0, Z: 0.5},
		B: geometry.Vector3{X: 4, Y: 0, Z: 0.5},
		C: geometry.Vector3{X: 0, Y: 4, Z: 1.5},
	}
	g.RasterizeTriangle(tri)
	require.True(t, g.Test(morton.Coord{X: 1, Y: 1, Z: 0}))
	require.False(t, g.Test(morton.Coord{X: 7, Y: 7, Z: 7}))
}

func TestRasterizeBlockerMarksInteriorVoxels(t *testing.T) {
	g := voxelgrid.New(8, 1, geometry.Vector3{})
	box := geometry.AABB{Min: geometry.Vector3{X: 2, Y: 2, Z: 2}, Max: geometry.Vector3{X: 4, Y: 4, Z: 4}}
	conv := geometry.NewConvex([]geometry.Plane{
		{Normal: geometry.Vector3{X: 1}, Offset: 4},
		{Normal: geometry.Vector3{X: -1}, Offset: -2},
		{Normal: geometry.Vector3{Y: 1}, Offset: 4},
		{Normal: geometry.Vector3{Y: -1}, Offset: -2},
		{Normal: geometry.Vector3{Z: 1}, Offset: 4},
		{Normal: geometry.Vector3{Z: -1}, Offset: -2},
	}, box)

	g.RasterizeBlocker(conv, box)
	require.True(t, g.Test(morton.Coord{X: 3, Y: 3, Z: 3}))
	require.False(t, g.Test(morton.Coord{X: 0, Y: 0, Z: 0}))
}

func TestBuildStencilIsSymmetric(t *testing.T) {
	stencil := voxelgrid.BuildStencil(2, 1)
	require.NotEmpty(t, stencil)
	seen := make(map[[3]int32]bool, len(stencil))
	for _, off := range stencil {
		require.LessOrEqual(t, off.DX, int32(2))
		require.GreaterOrEqual(t, off.DX, int32(-2))
		seen[[3]int32{off.DX, off.DY, off.DZ}] = true
	}
	for _, off := range stencil {
		require.True(t, seen[[3]int32{-off.DX, -off.DY, -off.DZ}])
	}
}

func TestDilateExpandsBlockedSet(t *testing.T) {
	src := voxelgrid.New(8, 1, geometry.Vector3{})
	src.Set(morton.Coord{X: 4, Y: 4, Z: 4})
	dst := voxelgrid.New(8, 1, geometry.Vector3{})

	stencil := voxelgrid.BuildStencil(1, 1)
	voxelgrid.Dilate(src, dst, stencil)

	require.True(t, dst.Test(morton.Coord{X: 4, Y: 4, Z: 4}))
	require.True(t, dst.Test(morton.Coord{X: 5, Y: 4, Z: 4}))
}
