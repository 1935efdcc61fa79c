package navquery

import (
	"math"
	"sort"

	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
	"github.com/GunfireGames/Gunfire3DNavigation/navnode"
	"github.com/GunfireGames/Gunfire3DNavigation/svo"
)

const closestNodeEpsilon = 1e-3

// FindClosestNode is not an A* query (spec §4.6): it looks up the tile
// containing origin, returns immediately if origin sits in an Open node,
// and otherwise BFS-walks every tile overlapping origin +/- extent looking
// for the nearest Open node or Open voxel.
func FindClosestNode(o *svo.SVO, origin geometry.Vector3, extent geometry.Vector3) (navlink.NodeLink, geometry.Vector3, bool) {
	if link := o.LinkForLocation(origin, false); link.IsValid() {
		if b, ok := o.BoundsForLink(link); ok {
			return link, pullToward(origin, b), true
		}
	}

	queryBox := geometry.AABB{Min: origin.Sub(extent), Max: origin.Add(extent)}

	type tileCand struct {
		coord geometry.Vector3i
		dist  float32
	}
	var cands []tileCand
	for _, t := range o.Tiles() {
		tb := o.TileBounds(t.Coord)
		if !tb.Intersects(queryBox) {
			continue
		}
		cands = append(cands, tileCand{coord: t.Coord, dist: tb.Center().DistanceSquared(origin)})
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })

	var (
		bestLink  navlink.NodeLink
		bestDist  = float32(math.MaxFloat32)
		bestBound geometry.AABB
		found     bool
	)

	for _, c := range cands {
		t := o.TileAt(c.coord)
		if t == nil {
			continue
		}
		rootLink := navlink.NodeLink{TileID: t.ID, Base: navlink.PackBase(t.TileLayer(), 0, navlink.NoVoxel, navlink.Self)}
		type item struct {
			link navlink.NodeLink
		}
		queue := []item{{link: rootLink}}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			node := o.NodeForLink(cur.link)
			if node == nil || !node.IsActive() {
				continue
			}
			bounds, ok := o.BoundsForLink(cur.link)
			if !ok || !bounds.Intersects(queryBox) {
				continue
			}
			switch node.State() {
			case navnode.Blocked:
				continue
			case navnode.Open:
				d := bounds.ClosestPoint(origin).DistanceSquared(origin)
				if d < bestDist {
					bestDist, bestLink, bestBound, found = d, cur.link, bounds, true
				}
			case navnode.PartiallyBlocked:
				if node.IsLeaf() {
					for v := uint8(0); v < 64; v++ {
						if node.Voxels().Test(uint(v)) {
							continue
						}
						vlink := cur.link.WithVoxel(v)
						vb, ok := o.BoundsForLink(vlink)
						if !ok || !vb.Intersects(queryBox) {
							continue
						}
						d := vb.ClosestPoint(origin).DistanceSquared(origin)
						if d < bestDist {
							bestDist, bestLink, bestBound, found = d, vlink, vb, true
						}
					}
					continue
				}
				childLayer := cur.link.Layer() - 1
				base := uint32(morton.ChildBase(morton.Code(cur.link.NodeIdx())))
				for s := uint8(0); s < 8; s++ {
					childLink := t.LinkFor(childLayer, base+uint32(s))
					queue = append(queue, item{link: childLink})
				}
			}
		}
	}

	if !found {
		return navlink.InvalidLink, geometry.Vector3{}, false
	}
	return bestLink, pullToward(origin, bestBound), true
}

// pullToward nudges origin's closest point in bounds slightly toward the
// node's center, per §4.6's "result point pulled slightly inward by
// epsilon toward the node center".
func pullToward(origin geometry.Vector3, bounds geometry.AABB) geometry.Vector3 {
	p := bounds.ClosestPoint(origin)
	toCenter := bounds.Center().Sub(p)
	if toCenter.Length() < 1e-9 {
		return p
	}
	return p.Add(toCenter.Normalize().Mul(closestNodeEpsilon))
}
