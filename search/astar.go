package search

import (
	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
	"github.com/GunfireGames/Gunfire3DNavigation/navnode"
	"github.com/GunfireGames/Gunfire3DNavigation/svo"
)

// Status is a bitset describing how a search finished, per §7's
// "queries never throw, they return a status/flags value" policy.
type Status uint16

const (
	StatusSuccess      Status = 1 << iota
	StatusFailure
	StatusInvalidParam
	StatusOutOfNodes
	StatusPartialPath
	StatusCyclicPath
)

// Has reports whether every bit in want is set in s.
func (s Status) Has(want Status) bool { return s&want == want }

// Result carries the counters and outcome of one search-core run, shared
// by every navquery derivative.
type Result struct {
	Status                                  Status
	Queried, Opened, Reopened, Visited      uint32
	MemUsed                                 int
	BestLink                                navlink.NodeLink // bestSearchNode: lowest heuristic ever seen
	BestIndex                               int32
}

// nodeVisitationLimit bounds the popped-node counter per query, per §4.5
// step 3: 4x the pool capacity, guarding against a cycle in malformed
// neighbor data turning a query into an infinite loop.
func nodeVisitationLimit(pool *Pool) uint32 { return 4 * uint32(pool.Cap()) }

// Run executes the shared A* loop (spec §4.5) from start using policy to
// supply goal/heuristic/cost/tie-break/veto/visit behavior. pool and open
// are reset internally so callers may reuse them across queries.
func Run(o *svo.SVO, start navlink.NodeLink, policy Policy, pool *Pool, open *OpenList) Result {
	pool.Reset()
	open.Reset()

	if !start.IsValid() || o == nil {
		return Result{Status: StatusFailure | StatusInvalidParam}
	}
	if pool.Cap() == 0 {
		return Result{Status: StatusFailure | StatusInvalidParam}
	}

	startBounds, ok := o.BoundsForLink(start)
	if !ok {
		return Result{Status: StatusFailure | StatusInvalidParam}
	}

	sn, idx, ok := pool.Alloc(start)
	if !ok {
		return Result{Status: StatusFailure | StatusOutOfNodes}
	}
	sn.ParentIndex = -1
	sn.Flags = FlagOpen
	sn.GCost = 0
	sn.Heuristic = float32(1e30) // +inf, per spec §4.5 step 1
	sn.FCost = sn.Heuristic
	sn.PortalLocation = startBounds.Center()
	sn.TravelDistSquared = 0
	open.Push(idx)

	res := Result{BestLink: start, BestIndex: idx}
	goal := policy.Goal()
	limit := nodeVisitationLimit(pool)

	for open.Len() > 0 {
		curIdx := open.Pop()
		cur := pool.GetByIndex(curIdx)
		cur.Flags = (cur.Flags &^ FlagOpen) | FlagClosed

		node := o.NodeForLink(cur.Link)
		if node == nil {
			continue
		}

		res.Visited++
		if res.Visited >= limit {
			res.Status = StatusFailure | StatusCyclicPath
			return res
		}

		if !policy.OnNodeVisited(cur, node) {
			res.Status = StatusSuccess
			res.BestIndex = curIdx
			res.BestLink = cur.Link
			return res
		}

		if goal.IsValid() && cur.Link.ID() == goal.ID() {
			res.Status = StatusSuccess
			res.BestIndex = curIdx
			res.BestLink = cur.Link
			return res
		}

		expandNeighbors(o, policy, pool, open, curIdx, node, &res)
	}

	if goal.IsValid() {
		res.Status = StatusFailure
	} else {
		res.Status = StatusSuccess
	}
	return res
}

// expandNeighbors opens every eligible neighbor of (curIdx, node) across
// its 6 faces (spec §4.5's "Neighbor expansion").
func expandNeighbors(o *svo.SVO, policy Policy, pool *Pool, open *OpenList, curIdx int32, node *navnode.Node, res *Result) {
	cur := pool.GetByIndex(curIdx)

	if cur.Link.HasVoxel() {
		expandVoxelNeighbors(o, policy, pool, open, curIdx, node, res)
		return
	}

	for f := morton.Face(0); f < morton.FaceCount; f++ {
		base := node.Neighbor(f)
		if !base.IsValid() {
			continue
		}
		neighborLink, ok := o.ResolveNeighbor(cur.Link, base)
		if !ok {
			continue
		}
		expandAcrossFace(o, policy, pool, open, curIdx, f, neighborLink, res)
	}
}

// expandAcrossFace resolves the node found by crossing face f from curIdx
// into zero or more candidate neighbors, descending into a partially
// blocked non-leaf's touching children or a partially blocked leaf's
// touching voxels as spec §4.5 describes.
func expandAcrossFace(o *svo.SVO, policy Policy, pool *Pool, open *OpenList, curIdx int32, f morton.Face, neighborLink navlink.NodeLink, res *Result) {
	neighborNode := o.NodeForLink(neighborLink)
	if neighborNode == nil || !neighborNode.IsActive() {
		return
	}
	switch neighborNode.State() {
	case navnode.Blocked:
		return
	case navnode.Open:
		tryOpen(o, policy, pool, open, curIdx, f, neighborLink, res)
	case navnode.PartiallyBlocked:
		if neighborNode.IsLeaf() {
			for _, voxIdx := range morton.VoxelsTouchingFace(f.Opposite()) {
				if neighborNode.Voxels().Test(uint(voxIdx)) {
					continue
				}
				tryOpen(o, policy, pool, open, curIdx, f, neighborLink.WithVoxel(voxIdx), res)
			}
			return
		}
		childLayer := neighborLink.Layer() - 1
		base := childBaseOf(neighborLink.NodeIdx())
		for _, sib := range morton.ChildrenTouchingFace(f.Opposite()) {
			childIdx := base + uint32(sib)
			childLink := navlink.NodeLink{TileID: neighborLink.TileID, Base: navlink.PackBase(childLayer, childIdx, navlink.NoVoxel, navlink.Self)}
			expandAcrossFace(o, policy, pool, open, curIdx, f, childLink, res)
		}
	}
}

func childBaseOf(nodeIdx uint32) uint32 { return uint32(morton.ChildBase(morton.Code(nodeIdx))) }

// expandVoxelNeighbors handles the case where the current search node names
// a specific voxel inside a leaf: neighbors on the same axis that stay
// within [0,4) are sibling voxels in the same leaf; neighbors that would
// step outside the leaf follow the leaf node's own face link instead.
func expandVoxelNeighbors(o *svo.SVO, policy Policy, pool *Pool, open *OpenList, curIdx int32, leaf *navnode.Node, res *Result) {
	cur := pool.GetByIndex(curIdx)
	vc := morton.Decode(morton.Code(cur.Link.VoxelIdx()))

	for f := morton.Face(0); f < morton.FaceCount; f++ {
		if nc, ok := morton.NextInRange(vc, f, 4); ok {
			voxIdx := uint8(morton.Encode(nc))
			if leaf.Voxels().Test(uint(voxIdx)) {
				continue
			}
			tryOpen(o, policy, pool, open, curIdx, f, cur.Link.WithVoxel(voxIdx), res)
			continue
		}
		base := leaf.Neighbor(f)
		if !base.IsValid() {
			continue
		}
		nodeLevelLink := cur.Link.WithNode(cur.Link.Layer(), cur.Link.NodeIdx())
		neighborLink, ok := o.ResolveNeighbor(nodeLevelLink, base)
		if !ok {
			continue
		}
		expandAcrossFace(o, policy, pool, open, curIdx, f, neighborLink, res)
	}
}

// tryOpen implements spec §4.5's open-neighbor gate: reject self/backtrack/
// closed, compute portal/cost/heuristic, let the policy veto, then insert
// or update the candidate in the pool and heap.
func tryOpen(o *svo.SVO, policy Policy, pool *Pool, open *OpenList, curIdx int32, f morton.Face, candidate navlink.NodeLink, res *Result) {
	cur := pool.GetByIndex(curIdx)
	if candidate.ID() == cur.Link.ID() {
		return
	}
	if cur.ParentIndex >= 0 {
		parent := pool.GetByIndex(cur.ParentIndex)
		if parent.Link.ID() == candidate.ID() {
			return
		}
	}

	candidateBounds, ok := o.BoundsForLink(candidate)
	if !ok {
		return
	}
	portal := smallerFaceCenter(o, cur.Link, candidate, candidateBounds)
	if bounds := policy.Bounds(); len(bounds) > 0 && !anyContains(bounds, portal) {
		return
	}

	dv := portal.Sub(cur.PortalLocation)
	travelDistSquared := cur.TravelDistSquared + dv.Dot(dv)

	candidateNode := o.NodeForLink(candidate)
	if candidateNode == nil {
		return
	}
	gCost := cur.GCost + policy.TraversalCost(cur, nil, candidateNode, portal, policy.BaseTraversalCost())
	heuristic := policy.Heuristic(candidateBounds, policy.Goal(), policy.HeuristicScale())
	fCost := gCost + heuristic

	if !policy.CanOpenNeighbor(f, candidate, candidateNode, fCost, travelDistSquared) {
		return
	}

	existing, has := pool.Get(candidate)
	if has {
		if existing.Flags&FlagClosed != 0 {
			return
		}
		if existing.FCost < fCost {
			return
		}
		if existing.FCost == fCost {
			preferNew := policy.TieBreaker() == Furthest && gCost > existing.GCost
			preferNew = preferNew || (policy.TieBreaker() == Nearest && gCost < existing.GCost)
			if !preferNew {
				return
			}
		}
		existing.ParentIndex = curIdx
		existing.GCost = gCost
		existing.Heuristic = heuristic
		existing.FCost = fCost
		existing.NeighborFace = f
		existing.PortalLocation = portal
		existing.TravelDistSquared = travelDistSquared
		existingIdx := pool.IndexOf(candidate)
		open.Fix(existingIdx)
		res.Reopened++
		trackBest(pool, res, existingIdx)
		return
	}

	next, nextIdx, ok := pool.Alloc(candidate)
	if !ok {
		res.Status |= StatusOutOfNodes
		return
	}
	next.ParentIndex = curIdx
	next.Flags = FlagOpen
	next.GCost = gCost
	next.Heuristic = heuristic
	next.FCost = fCost
	next.NeighborFace = f
	next.PortalLocation = portal
	next.TravelDistSquared = travelDistSquared
	open.Push(nextIdx)
	res.Opened++
	res.Queried++
	trackBest(pool, res, nextIdx)
}

// trackBest updates bestSearchNode (spec §4.5: "the open node with lowest
// heuristic ever seen"), the partial-path answer for queries that never
// reach a fixed goal.
func trackBest(pool *Pool, res *Result, idx int32) {
	if pool.GetByIndex(idx).Heuristic < pool.GetByIndex(res.BestIndex).Heuristic {
		res.BestIndex = idx
		res.BestLink = pool.GetByIndex(idx).Link
	}
}

// smallerFaceCenter picks the smaller of the two nodes' shared-face
// extents and returns its center, per §4.5's portalLocation definition.
func smallerFaceCenter(o *svo.SVO, from, to navlink.NodeLink, toBounds geometry.AABB) geometry.Vector3 {
	fromBounds, ok := o.BoundsForLink(from)
	if !ok {
		return toBounds.Center()
	}
	fromSize := fromBounds.Size()
	toSize := toBounds.Size()
	if fromSize.X*fromSize.Y*fromSize.Z <= toSize.X*toSize.Y*toSize.Z {
		return fromBounds.Clip(toBounds).Center()
	}
	return toBounds.Clip(fromBounds).Center()
}

func anyContains(bounds []geometry.AABB, p geometry.Vector3) bool {
	for _, b := range bounds {
		if b.Contains(p) {
			return true
		}
	}
	return false
}
