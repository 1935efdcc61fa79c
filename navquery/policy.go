package navquery

import (
	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
	"github.com/GunfireGames/Gunfire3DNavigation/navnode"
	"github.com/GunfireGames/Gunfire3DNavigation/search"
	"github.com/GunfireGames/Gunfire3DNavigation/svo"
)

// basePolicy implements the parts of search.Policy common to every
// derivative: default traversal cost (spec §4.5's "larger nodes cheaper to
// cross"), Manhattan-distance heuristic, filter bounds, and a
// pass-through visitation hook.
type basePolicy struct {
	octree    *svo.SVO
	filter    Filter
	tieBreak  search.TieBreaker
	costLimit float32 // 0 = unbounded
}

func (p *basePolicy) TieBreaker() search.TieBreaker    { return p.tieBreak }
func (p *basePolicy) HeuristicScale() float32          { return p.filter.HeuristicScale }
func (p *basePolicy) BaseTraversalCost() float32       { return p.filter.BaseTraversalCost }
func (p *basePolicy) Bounds() []geometry.AABB          { return p.filter.Bounds }

// TraversalCost is the default rule from spec §4.5: base cost scaled down
// the coarser (larger) the destination node is relative to the tile.
func (p *basePolicy) TraversalCost(a, b *search.Node, bNode *navnode.Node, portal geometry.Vector3, base float32) float32 {
	d := p.octree.Config.Derive()
	resolution := d.LeafEdge * float32(uint32(1)<<bNode.SelfLink.Layer())
	scale := 1 - resolution/d.TileEdge
	if scale < 0 {
		scale = 0
	}
	return base * scale
}

// Heuristic is Manhattan distance in voxel units from the closest point in
// the candidate's bounds to the goal's center, scaled by scale.
func (p *basePolicy) Heuristic(nodeBounds geometry.AABB, goal navlink.NodeLink, scale float32) float32 {
	if !goal.IsValid() {
		return 0
	}
	goalBounds, ok := p.octree.BoundsForLink(goal)
	if !ok {
		return 0
	}
	goalCenter := goalBounds.Center()
	closest := nodeBounds.ClosestPoint(goalCenter)
	voxel := p.octree.Config.Derive().LeafEdge / 4
	return scale * closest.Manhattan(goalCenter) / voxel
}

func (p *basePolicy) OnNodeVisited(sn *search.Node, node *navnode.Node) bool {
	if p.filter.OnNodeVisited != nil {
		return p.filter.OnNodeVisited(sn.Link)
	}
	return true
}

// CanOpenNeighbor applies the query's cost limit, if any.
func (p *basePolicy) CanOpenNeighbor(face morton.Face, link navlink.NodeLink, node *navnode.Node, fCost, travelDistSquared float32) bool {
	if p.costLimit > 0 && fCost > p.costLimit {
		return false
	}
	return true
}
