// Package navquery implements the queries spec §4.6 builds on top of the
// search core: FindPath/TestPath, FindClosestNode,
// FindClosestReachableNode, FindRandomReachableNode, and
// SearchReachableNodes. FindClosestNode walks the tiles directly; the
// others each supply a small search.Policy rather than
// re-implementing the A* loop, per the "polymorphism for queries" design
// note in spec §9.
package navquery

import (
	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/navconfig"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
	"github.com/GunfireGames/Gunfire3DNavigation/search"
	"github.com/GunfireGames/Gunfire3DNavigation/svo"
)

// Filter is the opaque struct spec §6 names as the search's external input:
// per-query node budget, heuristic/cost tuning, portal-constraint bounds,
// and an optional visitation callback.
type Filter struct {
	MaxSearchNodes    uint32
	HeuristicScale    float32
	BaseTraversalCost float32
	Bounds            []geometry.AABB
	OnNodeVisited     func(link navlink.NodeLink) bool
}

// WithDefaults fills any zero field from cfg's query defaults.
func (f Filter) WithDefaults(cfg navconfig.QueryDefaults) Filter {
	if f.MaxSearchNodes == 0 {
		f.MaxSearchNodes = cfg.MaxSearchNodes
	}
	if f.HeuristicScale == 0 {
		f.HeuristicScale = cfg.HeuristicScale
	}
	if f.BaseTraversalCost == 0 {
		f.BaseTraversalCost = cfg.BaseTraversalCost
	}
	return f
}

// runner bundles a fresh pool/open-list pair sized by a Filter, so each
// top-level query call allocates once and callers never share mutable
// search state across concurrent queries (search is synchronous per §5).
type runner struct {
	octree *svo.SVO
	pool   *search.Pool
	open   *search.OpenList
}

func newRunner(o *svo.SVO, maxNodes uint32) *runner {
	pool := search.NewPool(maxNodes)
	return &runner{octree: o, pool: pool, open: search.NewOpenList(pool, maxNodes)}
}
