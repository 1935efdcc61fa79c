// Package generator builds a single Tile from a geometry source: gather,
// rasterize, dilate, and hierarchically collapse the result into an octree
// (spec §4.4). A Generator is stateless across calls except for its
// precomputed dilation stencil, so one instance can serve every tile a
// scheduler worker pool hands it concurrently (config and stencil are read
// only, never mutated after New).
package generator

import (
	"context"
	"math"

	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/geomsource"
	"github.com/GunfireGames/Gunfire3DNavigation/internal/bitset"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
	"github.com/GunfireGames/Gunfire3DNavigation/navconfig"
	"github.com/GunfireGames/Gunfire3DNavigation/navnode"
	"github.com/GunfireGames/Gunfire3DNavigation/svo"
	"github.com/GunfireGames/Gunfire3DNavigation/tile"
	"github.com/GunfireGames/Gunfire3DNavigation/voxelgrid"
)

// Generator assembles tiles for one config/agent/source triple.
type Generator struct {
	cfg       navconfig.SvoConfig
	agent     navconfig.AgentShape
	source    geomsource.Source
	stencil   []voxelgrid.StencilOffset
	padLeaves uint32
}

// Source returns the geometry source this Generator pulls from, for
// callers (namely the scheduler's soft triangle-cap estimate) that need to
// gather the same triangles the generator will without duplicating a
// second Source reference.
func (g *Generator) Source() geomsource.Source { return g.source }

// New builds a Generator, precomputing the dilation stencil once so it is
// shared by every tile this Generator produces.
func New(cfg navconfig.SvoConfig, agent navconfig.AgentShape, source geomsource.Source) *Generator {
	pad := agent.RadiusVoxels
	if agent.HalfHeightVoxels > pad {
		pad = agent.HalfHeightVoxels
	}
	return &Generator{
		cfg:       cfg,
		agent:     agent,
		source:    source,
		stencil:   voxelgrid.BuildStencil(agent.RadiusVoxels, agent.HalfHeightVoxels),
		padLeaves: uint32(math.Ceil(float64(pad)/4)) + 1,
	}
}

// Gathered holds the geometry pulled from a Source for one tile coord,
// separated from voxelization so the scheduler's control thread can gather
// while a worker only rasterizes (spec §5's default scheduling model, where
// "all geometry access that requires engine-side locks" stays off the
// worker pool). A zero-value-ish Gathered with empty set true carries no
// grid at all, for tiles clipped away entirely by inclusion bounds.
type Gathered struct {
	coord     geometry.Vector3i
	empty     bool
	dim       uint32
	gridMin   geometry.Vector3
	gatherBox geometry.AABB
	triangles []geometry.Triangle
	blockers  []geometry.Convex
}

// Gather runs spec §4.4 steps 1-2 (gather-box expansion and triangle/blocker
// collection) against g.source. It touches only the Source, never any
// per-job worker state, so it is safe to call from the scheduler's control
// thread once per tile before dispatching a job.
func (g *Generator) Gather(coord geometry.Vector3i) Gathered {
	bounds := svo.TileBoundsFor(g.cfg, coord)
	gatherBox := bounds.Expand(geometry.Vector3{
		X: g.cfg.VoxelSize * g.agent.RadiusVoxels,
		Y: g.cfg.VoxelSize * g.agent.RadiusVoxels,
		Z: g.cfg.VoxelSize * g.agent.HalfHeightVoxels,
	})
	if inclusion := g.source.InclusionBounds(); len(inclusion) > 0 {
		gatherBox = gatherBox.Clip(unionBounds(inclusion))
		if gatherBox.IsEmpty() {
			return Gathered{coord: coord, empty: true}
		}
	}

	d := g.cfg.Derive()
	leavesPerAxis := uint32(1) << g.cfg.TileLayer
	dim := nextPow2((leavesPerAxis + 2*g.padLeaves) * 4)
	gridMin := bounds.Min.Sub(geometry.Vector3{
		X: float32(g.padLeaves) * d.LeafEdge,
		Y: float32(g.padLeaves) * d.LeafEdge,
		Z: float32(g.padLeaves) * d.LeafEdge,
	})

	return Gathered{
		coord:     coord,
		dim:       dim,
		gridMin:   gridMin,
		gatherBox: gatherBox,
		triangles: g.source.GatherTriangles(gatherBox),
		blockers:  g.source.GatherBlockers(gatherBox),
	}
}

// GenerateFromGathered runs spec §4.4 steps 3-8 (rasterize, dilate,
// collapse) against geometry a prior Gather call already collected. This is
// the only half of the pipeline a worker goroutine runs when the scheduler
// is configured for synchronous (control-thread) geometry gathering.
func (g *Generator) GenerateFromGathered(ctx context.Context, gd Gathered) (*tile.Tile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if gd.empty {
		t := tile.New(svo.TileID(gd.coord), gd.coord, g.cfg.TileLayer)
		t.Trim()
		return t, nil
	}

	src := voxelgrid.New(gd.dim, g.cfg.VoxelSize, gd.gridMin)
	for _, tri := range gd.triangles {
		src.RasterizeTriangle(tri)
	}
	for _, b := range gd.blockers {
		src.RasterizeBlocker(b, gd.gatherBox)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dst := voxelgrid.New(gd.dim, g.cfg.VoxelSize, gd.gridMin)
	voxelgrid.Dilate(src, dst, g.stencil)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return g.collapse(gd.coord, dst), nil
}

// Generate builds the tile at coord (spec §4.4 steps 1-8) by gathering and
// voxelizing on whatever goroutine calls it, or returns ctx.Err() if the
// scheduler cancels the job mid-pipeline. A tile with no geometry at all is
// still returned, as a fully Open root with an empty pool; the tile is nil
// only when the error is non-nil. This is what a worker calls under asynchronous geometry
// gathering, where the scheduler never splits Gather from
// GenerateFromGathered across threads.
func (g *Generator) Generate(ctx context.Context, coord geometry.Vector3i) (*tile.Tile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.GenerateFromGathered(ctx, g.Gather(coord))
}

// collapse implements the collapseUnneededNodes recursion of spec §4.4 step
// 7: compute every layer's node states bottom-up from the dilated grid, then
// materialize top-down, stopping the recursion at the first uniform (Open
// or Blocked) node along each branch.
func (g *Generator) collapse(coord geometry.Vector3i, dst *voxelgrid.Grid) *tile.Tile {
	tl := g.cfg.TileLayer
	leafCount := pow8(uint32(tl))

	leafVoxels := make([]bitset.Fixed64, leafCount)
	states := make([][]navnode.State, tl)
	states[0] = make([]navnode.State, leafCount)

	for idx := uint32(0); idx < leafCount; idx++ {
		lc := morton.Decode(morton.Code(idx))
		gc := morton.Coord{X: lc.X + g.padLeaves, Y: lc.Y + g.padLeaves, Z: lc.Z + g.padLeaves}
		voxels := dst.LeafWord(morton.Encode(gc))
		leafVoxels[idx] = voxels
		states[0][idx] = stateFromVoxels(voxels)
	}

	for layer := uint8(1); layer < tl; layer++ {
		n := pow8(uint32(tl) - uint32(layer))
		states[layer] = make([]navnode.State, n)
		for i := uint32(0); i < n; i++ {
			states[layer][i] = combineStates(states[layer-1][8*i : 8*i+8])
		}
	}

	rootState := navnode.Open
	if tl > 0 {
		rootState = combineStates(states[tl-1])
	}

	t := tile.New(svo.TileID(coord), coord, tl)
	t.NodeInfo = navnode.NewInner(t.LinkFor(tl, 0), true, rootState)
	if rootState == navnode.PartiallyBlocked {
		for c := uint32(0); c < 8; c++ {
			g.materialize(t, tl-1, c, states, leafVoxels)
		}
	}

	t.Trim()
	return t
}

func (g *Generator) materialize(t *tile.Tile, layer uint8, nodeIdx uint32, states [][]navnode.State, leafVoxels []bitset.Fixed64) {
	link := t.LinkFor(layer, nodeIdx)
	if layer == 0 {
		t.ActivateNode(0, nodeIdx, navnode.NewLeaf(link, leafVoxels[nodeIdx]))
		return
	}
	st := states[layer][nodeIdx]
	t.ActivateNode(layer, nodeIdx, navnode.NewInner(link, false, st))
	if st == navnode.PartiallyBlocked {
		base := tile.ChildBase(nodeIdx)
		for c := uint32(0); c < 8; c++ {
			g.materialize(t, layer-1, base+c, states, leafVoxels)
		}
	}
}

func stateFromVoxels(v bitset.Fixed64) navnode.State {
	switch {
	case v.None():
		return navnode.Open
	case v.All():
		return navnode.Blocked
	default:
		return navnode.PartiallyBlocked
	}
}

func combineStates(children []navnode.State) navnode.State {
	allOpen, allBlocked := true, true
	for _, s := range children {
		if s != navnode.Open {
			allOpen = false
		}
		if s != navnode.Blocked {
			allBlocked = false
		}
	}
	switch {
	case allOpen:
		return navnode.Open
	case allBlocked:
		return navnode.Blocked
	default:
		return navnode.PartiallyBlocked
	}
}

func unionBounds(boxes []geometry.AABB) geometry.AABB {
	u := boxes[0]
	for _, b := range boxes[1:] {
		u = u.Union(b)
	}
	return u
}

func nextPow2(v uint32) uint32 {
	p := uint32(4)
	for p < v {
		p <<= 1
	}
	return p
}

func pow8(n uint32) uint32 {
	v := uint32(1)
	for i := uint32(0); i < n; i++ {
		v *= 8
	}
	return v
}
