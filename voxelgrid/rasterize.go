package voxelgrid

import (
	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
)

// RasterizeTriangle marks every voxel whose box overlaps triangle, testing
// with the full SAT triangle/box intersection (spec §4.4 step 4). Degenerate
// triangles are skipped silently, per the generator's stateless-per-triangle
// failure semantics.
func (g *Grid) RasterizeTriangle(tri geometry.Triangle) {
	if tri.IsDegenerate() {
		return
	}
	bounds := tri.Bounds()
	min := g.WorldToVoxel(bounds.Min)
	max := g.WorldToVoxel(bounds.Max)

	for z := min.Z; z <= max.Z; z++ {
		for y := min.Y; y <= max.Y; y++ {
			for x := min.X; x <= max.X; x++ {
				c := morton.Coord{X: x, Y: y, Z: z}
				if tri.IntersectsAABB(g.VoxelBounds(c)) {
					g.Set(c)
				}
			}
		}
	}
}

// RasterizeBlocker marks every voxel within box (clipped to the grid)
// contained by every half-space of conv (spec §4.4 step 5).
func (g *Grid) RasterizeBlocker(conv geometry.Convex, box geometry.AABB) {
	clipped := box.Clip(geometry.AABB{Min: g.Min, Max: g.Min.Add(geometry.Vector3{
		X: float32(g.Dim) * g.VoxelSize,
		Y: float32(g.Dim) * g.VoxelSize,
		Z: float32(g.Dim) * g.VoxelSize,
	})})
	if clipped.IsEmpty() {
		return
	}
	min := g.WorldToVoxel(clipped.Min)
	max := g.WorldToVoxel(clipped.Max)

	for z := min.Z; z <= max.Z; z++ {
		for y := min.Y; y <= max.Y; y++ {
			for x := min.X; x <= max.X; x++ {
				c := morton.Coord{X: x, Y: y, Z: z}
				center := g.VoxelBounds(c).Center()
				if conv.ContainsPoint(center) {
					g.Set(c)
				}
			}
		}
	}
}
