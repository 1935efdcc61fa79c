package svo

import (
	"sort"

	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
	"github.com/GunfireGames/Gunfire3DNavigation/navnode"
)

const rayEpsilon = 1e-4

// RaycastHit reports where a ray first struck blocked space.
type RaycastHit struct {
	HitTime     float32
	HitLocation geometry.Vector3
	HitNode     navlink.NodeLink
}

type tileHit struct {
	coord    geometry.Vector3i
	tMin     float32
	tMax     float32
}

// Raycast walks every tile the segment (start, end) might pass through, in
// order of increasing entry time, descending each tile's node hierarchy
// until it finds a blocked node/voxel or exhausts the segment. Returns
// false if nothing was hit.
func (s *SVO) Raycast(start, end geometry.Vector3) (RaycastHit, bool) {
	ray := geometry.Ray{Origin: start, Dir: end.Sub(start)}
	rayBounds := geometry.AABB{Min: start, Max: start}.Union(geometry.AABB{Min: end, Max: end})

	var hits []tileHit
	for _, t := range s.tiles {
		tb := s.TileBounds(t.Coord)
		if !tb.Intersects(rayBounds) {
			continue
		}
		tMin, tMax, ok := ray.SlabAABB(tb)
		if !ok {
			continue
		}
		tMin -= rayEpsilon
		tMax += rayEpsilon
		if tMin < 0 {
			tMin = 0
		}
		if tMax > 1 {
			tMax = 1
		}
		if tMin > tMax {
			continue
		}
		hits = append(hits, tileHit{coord: t.Coord, tMin: tMin, tMax: tMax})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].tMin < hits[j].tMin })

	for _, th := range hits {
		if hit, ok := s.raycastTile(th.coord, start, end, th.tMin, th.tMax); ok {
			return hit, true
		}
	}
	return RaycastHit{}, false
}

// raycastTile walks a single tile's hierarchy from its root, per §4.1 step
// 3. t parametrizes along (start,end); it always either descends, ascends,
// or advances by at least rayEpsilon, guaranteeing termination.
func (s *SVO) raycastTile(coord geometry.Vector3i, start, end geometry.Vector3, tMin, tMax float32) (RaycastHit, bool) {
	t := s.TileAt(coord)
	if t == nil {
		return RaycastHit{}, false
	}
	d := s.Config.Derive()
	tb := s.TileBounds(coord)

	layer := t.TileLayer()
	nodeIdx := uint32(0)
	cur := tMin

	for cur < tMax {
		node := t.NodeForLink(t.LinkFor(layer, nodeIdx))
		if node == nil {
			return RaycastHit{}, false
		}
		nodeMin := tb.Min.Add(nodeMinCorner(layer, nodeIdx, d.LeafEdge))
		nodeEdgeLen := nodeEdge(layer, d.LeafEdge)
		nodeBox := geometry.AABB{Min: nodeMin, Max: nodeMin.Add(geometry.Vector3{X: nodeEdgeLen, Y: nodeEdgeLen, Z: nodeEdgeLen})}

		ray := geometry.Ray{Origin: start, Dir: end.Sub(start)}

		switch node.State() {
		case navnode.Blocked:
			loc := lerpAlong(start, end, cur)
			return RaycastHit{HitTime: cur, HitLocation: loc, HitNode: t.LinkFor(layer, nodeIdx)}, true

		case navnode.Open:
			_, exitT, ok := ray.SlabAABB(nodeBox)
			if !ok || exitT <= cur {
				exitT = cur + rayEpsilon
			}
			cur = exitT + rayEpsilon
			if layer == t.TileLayer() {
				// exited the tile root entirely
				return RaycastHit{}, false
			}
			// ascend back to parent and keep marching
			var sibling uint8
			nodeIdx, sibling = parentOf(nodeIdx)
			_ = sibling
			layer++

		case navnode.PartiallyBlocked:
			if node.IsLeaf() {
				loc := lerpAlong(start, end, cur)
				relToTile := loc.Sub(tb.Min)
				vc := voxelCoordInLeaf(relToTile, layer, nodeIdx, d.LeafEdge)
				voxelIdx := uint8(morton.Encode(morton.Coord{X: vc.X, Y: vc.Y, Z: vc.Z}))
				if node.Voxels().Test(uint(voxelIdx)) {
					return RaycastHit{HitTime: cur, HitLocation: loc, HitNode: t.LinkFor(layer, nodeIdx).WithVoxel(voxelIdx)}, true
				}
				voxelSize := nodeEdgeLen / 4
				vmin := nodeMin.Add(geometry.Vector3{X: float32(vc.X) * voxelSize, Y: float32(vc.Y) * voxelSize, Z: float32(vc.Z) * voxelSize})
				voxBox := geometry.AABB{Min: vmin, Max: vmin.Add(geometry.Vector3{X: voxelSize, Y: voxelSize, Z: voxelSize})}
				_, exitT, ok := ray.SlabAABB(voxBox)
				if !ok || exitT <= cur {
					exitT = cur + rayEpsilon
				}
				cur = exitT + rayEpsilon
				continue
			}
			loc := lerpAlong(start, end, cur)
			rel := loc.Sub(tb.Min)
			childLayer := layer - 1
			childSib := childIndexFromPoint(rel, layer, nodeIdx, d.LeafEdge)
			childIdx := childBase(nodeIdx) + uint32(childSib)
			layer = childLayer
			nodeIdx = childIdx
		}
	}
	return RaycastHit{}, false
}

func parentOf(nodeIdx uint32) (uint32, uint8) {
	return nodeIdx >> 3, uint8(nodeIdx & 7)
}

func childBase(nodeIdx uint32) uint32 { return nodeIdx << 3 }

func lerpAlong(start, end geometry.Vector3, t float32) geometry.Vector3 {
	return start.Add(end.Sub(start).Mul(t))
}
