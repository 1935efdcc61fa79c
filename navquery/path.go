package navquery

import (
	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
	"github.com/GunfireGames/Gunfire3DNavigation/search"
	"github.com/GunfireGames/Gunfire3DNavigation/svo"
)

// Status mirrors search.Status; re-exported here so callers of this
// package never need to import search directly.
type Status = search.Status

const (
	StatusSuccess      = search.StatusSuccess
	StatusFailure      = search.StatusFailure
	StatusInvalidParam = search.StatusInvalidParam
	StatusOutOfNodes   = search.StatusOutOfNodes
	StatusPartialPath  = search.StatusPartialPath
	StatusCyclicPath   = search.StatusCyclicPath
)

// PathPoint is one point of a returned path, carrying the node it lies in
// (spec §6's Path output contract).
type PathPoint struct {
	Location geometry.Vector3
	NodeRef  navlink.NodeLink
}

// PathResult is the full output of FindPath: the path itself plus the
// generation-info counters spec §6 names.
type PathResult struct {
	Status                              Status
	Points                              []PathPoint
	PathLength                          float32
	PathCost                            float32
	NumVisited, NumQueried, NumOpened   uint32
	NumReopened                         uint32
	MemUsed                             int
}

type pathPolicy struct {
	basePolicy
	goal navlink.NodeLink
}

func (p *pathPolicy) Goal() navlink.NodeLink { return p.goal }

// FindPath runs the shared search core with a fixed goal (spec §4.6).
// costLimit <= 0 means unbounded. If the goal is unreachable,
// allowPartialPaths controls whether the best-heuristic node found is
// returned as a partial path or the query simply fails.
func FindPath(o *svo.SVO, start, goal navlink.NodeLink, filter Filter, costLimit float32, allowPartialPaths bool) PathResult {
	if !start.IsValid() || !goal.IsValid() || filter.MaxSearchNodes == 0 {
		return PathResult{Status: StatusFailure | StatusInvalidParam}
	}

	r := newRunner(o, filter.MaxSearchNodes)
	policy := &pathPolicy{
		basePolicy: basePolicy{octree: o, filter: filter, tieBreak: search.Nearest, costLimit: costLimit},
		goal:       goal,
	}

	res := search.Run(o, start, policy, r.pool, r.open)

	out := PathResult{
		Status:      res.Status,
		NumVisited:  res.Visited,
		NumQueried:  res.Queried,
		NumOpened:   res.Opened,
		NumReopened: res.Reopened,
		MemUsed:     r.pool.Len() * 64,
	}

	switch {
	case res.Status.Has(StatusSuccess) && res.BestLink.ID() == goal.ID():
		out.Points, out.PathCost = reconstructPath(o, r.pool, res.BestIndex)
	case allowPartialPaths && !res.Status.Has(StatusInvalidParam):
		out.Status = StatusSuccess | StatusPartialPath
		if res.Status.Has(StatusOutOfNodes) {
			out.Status |= StatusOutOfNodes
		}
		out.Points, out.PathCost = reconstructPath(o, r.pool, res.BestIndex)
	default:
		out.Status = StatusFailure
		if res.Status.Has(StatusOutOfNodes) {
			out.Status |= StatusOutOfNodes
		}
		return out
	}

	out.PathLength = pathLength(out.Points)
	return out
}

// TestPath is FindPath without path reconstruction: it reports only
// whether goal was reached.
func TestPath(o *svo.SVO, start, goal navlink.NodeLink, filter Filter, costLimit float32) bool {
	if !start.IsValid() || !goal.IsValid() || filter.MaxSearchNodes == 0 {
		return false
	}
	r := newRunner(o, filter.MaxSearchNodes)
	policy := &pathPolicy{
		basePolicy: basePolicy{octree: o, filter: filter, tieBreak: search.Nearest, costLimit: costLimit},
		goal:       goal,
	}
	res := search.Run(o, start, policy, r.pool, r.open)
	return res.Status.Has(StatusSuccess) && res.BestLink.ID() == goal.ID()
}

// reconstructPath walks parent pointers from bestIdx back to the start
// (§4.5's "Path reconstruction" step), copies the collected points into a
// new slice in forward order, and returns them plus the best node's gCost.
func reconstructPath(o *svo.SVO, pool *search.Pool, bestIdx int32) ([]PathPoint, float32) {
	var rev []PathPoint
	cost := float32(0)
	idx := bestIdx
	limit := 4 * pool.Cap()
	for i := 0; idx >= 0; i++ {
		if i > limit {
			break // cyclical-path guard, mirroring the search loop's own limit
		}
		n := pool.GetByIndex(idx)
		rev = append(rev, PathPoint{Location: n.PortalLocation, NodeRef: n.Link})
		if i == 0 {
			cost = n.GCost
		}
		idx = n.ParentIndex
	}
	out := make([]PathPoint, len(rev))
	for i, p := range rev {
		out[len(rev)-1-i] = p
	}
	return out, cost
}

func pathLength(points []PathPoint) float32 {
	var total float32
	for i := 1; i < len(points); i++ {
		total += points[i-1].Location.Distance(points[i].Location)
	}
	return total
}
