package search

import (
	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
	"github.com/GunfireGames/Gunfire3DNavigation/navnode"
)

// TieBreaker resolves equal-fCost contention when reopening an already-open
// node (spec §4.5's open-neighbor gate).
type TieBreaker uint8

const (
	// Nearest prefers the lower gCost on a tie (shorter path so far).
	Nearest TieBreaker = iota
	// Furthest prefers the higher gCost on a tie.
	Furthest
)

// Policy is the small capability set spec §9's "polymorphism for queries"
// design note calls for: the four query derivatives (FindPath,
// ClosestReachable, RandomReachable, SearchReachable) each supply one of
// these per query. Run calls its methods through the interface, so each
// visited node and considered neighbor costs dynamic method calls.
type Policy interface {
	// Goal returns the link the search is aiming for, or an invalid link
	// for open-ended queries (closest/random/reachable-set) that instead
	// rely on OnNodeVisited/CanOpenNeighbor to bound the search.
	Goal() navlink.NodeLink

	TieBreaker() TieBreaker

	// HeuristicScale and BaseTraversalCost are the query defaults, passed
	// through to Heuristic/TraversalCost below (kept as separate methods
	// so a derivative can special-case them, e.g. random-cost mode).
	HeuristicScale() float32
	BaseTraversalCost() float32

	// TraversalCost computes the incremental gCost of stepping from a to b
	// across portal. base is BaseTraversalCost(); the default rule (spec
	// §4.5) scales it down for coarser destination nodes.
	TraversalCost(a, b *Node, bNode *navnode.Node, portal geometry.Vector3, base float32) float32

	// Heuristic computes an admissible remaining-cost estimate from a
	// node's bounds to the goal. scale is HeuristicScale().
	Heuristic(nodeBounds geometry.AABB, goal navlink.NodeLink, scale float32) float32

	// CanOpenNeighbor may veto opening a candidate neighbor after its cost
	// fields are computed (cost limits, distance limits, portal-in-bounds
	// checks already folded into fCost/travelDistSquared by the caller).
	CanOpenNeighbor(face morton.Face, link navlink.NodeLink, node *navnode.Node, fCost, travelDistSquared float32) bool

	// OnNodeVisited runs once per popped node, before neighbor expansion.
	// Returning false stops the search immediately (used by
	// SearchReachableNodes' visitation callback).
	OnNodeVisited(sn *Node, node *navnode.Node) bool

	// Bounds returns the inclusion AABBs a portal location must fall
	// within, or nil for no constraint.
	Bounds() []geometry.AABB
}
