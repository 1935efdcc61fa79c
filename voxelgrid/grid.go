// Package voxelgrid implements the dense per-tile voxel bit array the tile
// generator rasterizes triangles and blockers into before collapsing it
// into an octree (spec §4.4 steps 3-6).
package voxelgrid

import (
	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/internal/bitset"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
)

// Grid is a dense Dim x Dim x Dim voxel bit array, indexed by the Morton
// code of each voxel's coordinate rather than row-major order: since Dim is
// always a power of two, every 4x4x4 block sharing a common 3*(k) high bit
// prefix occupies exactly one contiguous 64-bit word, so a leaf node's
// voxel bitfield is a single word read (see LeafWord) instead of a 64-bit
// gather loop.
type Grid struct {
	Dim       uint32 // voxels per axis
	VoxelSize float32
	Min       geometry.Vector3 // world position of voxel (0,0,0)'s min corner
	words     []uint64
}

// New allocates an empty grid of dim voxels per axis. dim must be a power
// of two and a multiple of 4 (the leaf block size).
func New(dim uint32, voxelSize float32, min geometry.Vector3) *Grid {
	total := uint64(dim) * uint64(dim) * uint64(dim)
	return &Grid{
		Dim:       dim,
		VoxelSize: voxelSize,
		Min:       min,
		words:     make([]uint64, (total+63)/64),
	}
}

// InRange reports whether c lies within the grid.
func (g *Grid) InRange(c morton.Coord) bool { return morton.InRange(c, g.Dim) }

// Set marks the voxel at c blocked.
func (g *Grid) Set(c morton.Coord) {
	if !g.InRange(c) {
		return
	}
	code := morton.Encode(c)
	g.words[code/64] |= 1 << (code % 64)
}

// Test reports whether the voxel at c is blocked.
func (g *Grid) Test(c morton.Coord) bool {
	if !g.InRange(c) {
		return false
	}
	code := morton.Encode(c)
	return g.words[code/64]&(1<<(code%64)) != 0
}

// LeafWord returns the 64-bit occupancy mask for the 4x4x4 leaf block
// identified by leafCode (a Morton code with the low 6 bits representing
// the in-block voxel position already stripped). Because voxel indices
// are Morton-ordered, this block's 64 voxels are exactly one grid word.
func (g *Grid) LeafWord(leafCode morton.Code) bitset.Fixed64 {
	return bitset.Fixed64(g.words[leafCode])
}

// WorldToVoxel converts a world-space point to the voxel coordinate
// containing it, clamped to the grid bounds.
func (g *Grid) WorldToVoxel(p geometry.Vector3) morton.Coord {
	rel := p.Sub(g.Min)
	return morton.Coord{
		X: clampToGrid(rel.X/g.VoxelSize, g.Dim),
		Y: clampToGrid(rel.Y/g.VoxelSize, g.Dim),
		Z: clampToGrid(rel.Z/g.VoxelSize, g.Dim),
	}
}

func clampToGrid(v float32, dim uint32) uint32 {
	if v < 0 {
		return 0
	}
	u := uint32(v)
	if u >= dim {
		return dim - 1
	}
	return u
}

// VoxelBounds returns the world-space AABB of voxel coordinate c.
func (g *Grid) VoxelBounds(c morton.Coord) geometry.AABB {
	min := g.Min.Add(geometry.Vector3{
		X: float32(c.X) * g.VoxelSize,
		Y: float32(c.Y) * g.VoxelSize,
		Z: float32(c.Z) * g.VoxelSize,
	})
	return geometry.AABB{Min: min, Max: min.Add(geometry.Vector3{X: g.VoxelSize, Y: g.VoxelSize, Z: g.VoxelSize})}
}
