// Package scheduler implements the tile-build pipeline of spec §4.8/§4.9:
// a control-thread-owned pending queue sorted by player distance, a soft
// triangle-cap job batcher, and a bounded worker pool that voxelizes tiles
// off the control thread. Grounded in the teacher's builder.go phased build
// log ("Octree built in %v" style timing) and timing instrumentation,
// generalized from a one-shot build into a per-frame tick the host engine
// drives every frame.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GunfireGames/Gunfire3DNavigation/generator"
	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/internal/navlog"
	"github.com/GunfireGames/Gunfire3DNavigation/navconfig"
	"github.com/GunfireGames/Gunfire3DNavigation/svo"
	"github.com/GunfireGames/Gunfire3DNavigation/tile"
)

// Config holds the scheduler tuning knobs of spec §6, plus boost variants
// used during load screens (SetGenerationBoostMode).
type Config struct {
	BoundsPadding    float32
	MaxTrisPerTask   int
	MaxPendingTicks  uint
	MaxTasksToSubmit int
	MaxTimePerTick   time.Duration
	MaxWorkers       int

	// AsyncGeometryGathering moves geometry gathering onto the worker
	// goroutine alongside voxelization, instead of the control thread
	// gathering before dispatch. Spec §5 limits this to one concurrent
	// worker by implementation invariant, since a worker gathering
	// geometry may need engine-side locks the control thread would
	// otherwise be holding alone; New and CancelBuild clamp the worker
	// pool to 1 whenever this is set.
	AsyncGeometryGathering bool

	BoostMaxTrisPerTask   int
	BoostMaxTasksToSubmit int
	BoostMaxTimePerTick   time.Duration
}

// effective returns cfg with boost values substituted in wherever a boost
// value is set and generation boost mode is currently on.
func (c Config) effective() Config {
	if !GetGenerationBoostMode() {
		return c
	}
	if c.BoostMaxTrisPerTask > 0 {
		c.MaxTrisPerTask = c.BoostMaxTrisPerTask
	}
	if c.BoostMaxTasksToSubmit > 0 {
		c.MaxTasksToSubmit = c.BoostMaxTasksToSubmit
	}
	if c.BoostMaxTimePerTick > 0 {
		c.MaxTimePerTick = c.BoostMaxTimePerTick
	}
	return c
}

// workerLimit returns the errgroup.SetLimit value to apply, clamping to 1
// under AsyncGeometryGathering regardless of MaxWorkers.
func (c Config) workerLimit() int {
	if c.AsyncGeometryGathering {
		return 1
	}
	return c.MaxWorkers
}

// generationBoost is process-wide, per spec §5's "Global state" note: a
// single flag, not hidden inside any one Scheduler instance, so every
// Scheduler in the process picks it up on its next tick.
var generationBoost atomic.Bool

// SetGenerationBoostMode toggles the process-wide load-screen throughput
// mode every Scheduler consults on its next tick.
func SetGenerationBoostMode(on bool) { generationBoost.Store(on) }

// GetGenerationBoostMode reports the current process-wide boost setting.
func GetGenerationBoostMode() bool { return generationBoost.Load() }

// DirtyArea is one entry of the dirty-area event stream spec §4.8 consumes.
type DirtyArea struct {
	Bounds          geometry.AABB
	BoundsChanged   bool
	GeometryChanged bool
}

// pendingTile is one entry of pendingTiles, cached with its squared
// distance to the nearest player as of the last MarkDirtyTiles call.
type pendingTile struct {
	coord  geometry.Vector3i
	distSq float32
}

// job is the pendingJob (while accumulating) or a dispatched/completed job.
type job struct {
	id           uuid.UUID
	tiles        []geometry.Vector3i
	triCount     int
	pendingTicks uint
}

// completedJob holds one dispatched job's finished output tiles, ready to
// be drained into the Editable SVO by the next Tick.
type completedJob struct {
	id    uuid.UUID
	tiles []*tile.Tile
}

// Scheduler drives the tile lifecycle of spec §4.9: Absent -> Pending ->
// Accumulating -> Running -> Completed -> Installed. All exported methods
// except worker-internal callbacks are meant to be called from a single
// control thread; workers touch no scheduler state directly.
type Scheduler struct {
	cfg Config
	svo *svo.EditableSVO
	gen *generator.Generator

	log    *zap.Logger
	once   *navlog.OnceRegistry

	pendingTiles []pendingTile
	pendingJob   *job

	mu            sync.Mutex
	runningJobs   map[uuid.UUID]*job
	completedJobs []completedJob

	group *errgroup.Group
	gctx  context.Context
}

// New builds a Scheduler over an EditableSVO, dispatching generation work
// to gen and bounded by cfg.MaxWorkers concurrent jobs.
func New(cfg Config, svoRef *svo.EditableSVO, gen *generator.Generator, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	g, gctx := errgroup.WithContext(context.Background())
	if limit := cfg.workerLimit(); limit > 0 {
		g.SetLimit(limit)
	}
	return &Scheduler{
		cfg:         cfg,
		svo:         svoRef,
		gen:         gen,
		log:         logger,
		once:        navlog.NewOnceRegistry(logger),
		runningJobs: make(map[uuid.UUID]*job),
		group:       g,
		gctx:        gctx,
	}
}

// MarkDirtyTiles implements spec §4.8's MarkDirtyTiles: expand each area by
// BoundsPadding, clip to the octree bounds, enumerate touched tile coords
// into a deduplicated set, merge with the existing pendingTiles, and
// re-sort descending by distance to the nearest player (closest last, since
// the tick pops from the back).
func (s *Scheduler) MarkDirtyTiles(areas []DirtyArea, octreeBounds geometry.AABB, players []geometry.Vector3) {
	pad := geometry.Vector3{X: s.cfg.BoundsPadding, Y: s.cfg.BoundsPadding, Z: s.cfg.BoundsPadding}
	dirty := make(map[geometry.Vector3i]struct{})
	for _, existing := range s.pendingTiles {
		dirty[existing.coord] = struct{}{}
	}

	for _, area := range areas {
		box := area.Bounds.Expand(pad).Clip(octreeBounds)
		if box.IsEmpty() {
			continue
		}
		for _, coord := range tileCoordsTouching(s.svo.Config, box) {
			dirty[coord] = struct{}{}
		}
	}

	s.pendingTiles = s.pendingTiles[:0]
	for coord := range dirty {
		s.pendingTiles = append(s.pendingTiles, pendingTile{coord: coord, distSq: nearestPlayerDistSq(s.svo.Config, coord, players)})
	}
	sort.Slice(s.pendingTiles, func(i, j int) bool { return s.pendingTiles[i].distSq > s.pendingTiles[j].distSq })
}

// tileCoordsTouching enumerates every tile coord whose bounds overlap box.
func tileCoordsTouching(cfg navconfig.SvoConfig, box geometry.AABB) []geometry.Vector3i {
	d := cfg.Derive()
	rel := box.Min.Sub(cfg.Seed)
	minC := geometry.Vector3i{
		X: int32(floorDiv(rel.X, d.TileEdge)),
		Y: int32(floorDiv(rel.Y, d.TileEdge)),
		Z: int32(floorDiv(rel.Z, d.TileEdge)),
	}
	relMax := box.Max.Sub(cfg.Seed)
	maxC := geometry.Vector3i{
		X: int32(floorDiv(relMax.X, d.TileEdge)),
		Y: int32(floorDiv(relMax.Y, d.TileEdge)),
		Z: int32(floorDiv(relMax.Z, d.TileEdge)),
	}
	var out []geometry.Vector3i
	for x := minC.X; x <= maxC.X; x++ {
		for y := minC.Y; y <= maxC.Y; y++ {
			for z := minC.Z; z <= maxC.Z; z++ {
				out = append(out, geometry.Vector3i{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

func floorDiv(v, edge float32) int32 {
	q := v / edge
	i := int32(q)
	if q < float32(i) {
		i--
	}
	return i
}

func nearestPlayerDistSq(cfg navconfig.SvoConfig, coord geometry.Vector3i, players []geometry.Vector3) float32 {
	if len(players) == 0 {
		return 0
	}
	center := svo.TileBoundsFor(cfg, coord).Center()
	best := center.DistanceSquared(players[0])
	for _, p := range players[1:] {
		if d := center.DistanceSquared(p); d < best {
			best = d
		}
	}
	return best
}

// Busy reports whether any tile is still queued, accumulating, or running.
// The offline navd build command polls this to know when to stop ticking.
func (s *Scheduler) Busy() bool {
	if len(s.pendingTiles) > 0 || s.pendingJob != nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runningJobs) > 0 || len(s.completedJobs) > 0
}

// TickResult reports what one Tick call accomplished, for host-side
// diagnostics and Scenario-6-style deadline verification.
type TickResult struct {
	TilesInstalled int
	TasksSubmitted int
}

// Tick implements spec §4.8's per-frame tick: drain completed jobs into the
// Editable SVO, then fill and dispatch pending jobs, both cooperatively
// time-sliced against deadline.
func (s *Scheduler) Tick(deadline time.Time) TickResult {
	cfg := s.cfg.effective()
	var result TickResult

	result.TilesInstalled = s.drainCompleted(deadline)

	for len(s.pendingTiles) > 0 {
		if result.TasksSubmitted >= cfg.MaxTasksToSubmit {
			break
		}
		if cfg.MaxTimePerTick > 0 && time.Now().After(deadline) {
			break
		}

		next := s.pendingTiles[len(s.pendingTiles)-1]
		s.pendingTiles = s.pendingTiles[:len(s.pendingTiles)-1]

		if s.alreadyGenerating(next.coord) {
			continue
		}

		if s.pendingJob == nil {
			s.pendingJob = &job{id: uuid.New()}
		}
		s.pendingJob.tiles = append(s.pendingJob.tiles, next.coord)
		s.pendingJob.triCount += s.estimateTriangles(next.coord)

		if s.pendingJob.triCount >= cfg.MaxTrisPerTask {
			s.dispatch(s.pendingJob)
			s.pendingJob = nil
			result.TasksSubmitted++
		}
	}

	if s.pendingJob != nil {
		s.pendingJob.pendingTicks++
		if s.pendingJob.pendingTicks >= cfg.MaxPendingTicks || s.allRemainingAlreadyGenerating() {
			s.dispatch(s.pendingJob)
			s.pendingJob = nil
			result.TasksSubmitted++
		}
	}

	return result
}

// drainCompleted moves finished tiles into the Editable SVO within
// deadline, always installing at least the first completed job's tiles
// even if that pushes past budget, per spec §4.8 step 1.
func (s *Scheduler) drainCompleted(deadline time.Time) int {
	s.mu.Lock()
	completed := s.completedJobs
	s.completedJobs = nil
	s.mu.Unlock()

	if len(completed) == 0 {
		return 0
	}

	installed := 0
	s.svo.BeginBatchEdit()
	defer func() {
		if err := s.svo.EndBatchEdit(); err != nil {
			s.log.Error("scheduler: end batch edit", zap.Error(err))
		}
	}()

	for i, cj := range completed {
		delete(s.runningJobs, cj.id)
		for _, t := range cj.tiles {
			if !s.svo.AssumeTile(t, false) {
				s.once.WarnOnce("pool-full", "scheduler: tile pool full, dropping generated tile", zap.Uint32("tileID", t.ID))
				continue
			}
			installed++
		}
		if i == 0 {
			continue
		}
		if s.cfg.effective().MaxTimePerTick > 0 && time.Now().After(deadline) {
			s.mu.Lock()
			s.completedJobs = append(s.completedJobs, completed[i+1:]...)
			s.mu.Unlock()
			break
		}
	}
	s.log.Debug("scheduler: drained completed jobs", zap.Int("installed", installed))
	return installed
}

// alreadyGenerating reports whether coord is present in the accumulating
// job, a running job, or a completed-but-not-yet-drained job.
func (s *Scheduler) alreadyGenerating(coord geometry.Vector3i) bool {
	if s.pendingJob != nil && containsCoord(s.pendingJob.tiles, coord) {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.runningJobs {
		if containsCoord(j.tiles, coord) {
			return true
		}
	}
	for _, cj := range s.completedJobs {
		for _, t := range cj.tiles {
			if t.Coord == coord {
				return true
			}
		}
	}
	return false
}

func (s *Scheduler) allRemainingAlreadyGenerating() bool {
	for _, p := range s.pendingTiles {
		if !s.alreadyGenerating(p.coord) {
			return false
		}
	}
	return true
}

func containsCoord(coords []geometry.Vector3i, c geometry.Vector3i) bool {
	for _, v := range coords {
		if v == c {
			return true
		}
	}
	return false
}

// estimateTriangles gives the pending-job triangle-count estimate the soft
// cap is measured against. It uses the tile's own bounds padded by
// BoundsPadding rather than the generator's agent-sized gather box (the
// scheduler has no agent shape to query), which is close enough for a soft
// cap meant to bound job size, not to match the generator's rasterization
// input exactly.
func (s *Scheduler) estimateTriangles(coord geometry.Vector3i) int {
	box := svo.TileBoundsFor(s.svo.Config, coord).Expand(geometry.Vector3{
		X: s.cfg.BoundsPadding, Y: s.cfg.BoundsPadding, Z: s.cfg.BoundsPadding,
	})
	return len(s.gen.Source().GatherTriangles(box))
}

// dispatch hands j to the bounded worker pool. Each worker owns its job's
// private triangle buffer, voxel bit arrays, and output tiles (spec §5);
// it writes only into its own completedJob, never touching scheduler state
// beyond the mutex-guarded completion handoff.
//
// Under the default synchronous geometry gathering, dispatch itself gathers
// every tile's geometry on the control thread before the worker ever runs,
// so the worker's Generator call touches only its own voxel grid. Under
// AsyncGeometryGathering the worker gathers too, which is why New and
// CancelBuild clamp the pool to a single concurrent worker in that mode.
func (s *Scheduler) dispatch(j *job) {
	s.mu.Lock()
	s.runningJobs[j.id] = j
	s.mu.Unlock()

	var gathered []generator.Gathered
	if !s.cfg.effective().AsyncGeometryGathering {
		gathered = make([]generator.Gathered, len(j.tiles))
		for i, coord := range j.tiles {
			gathered[i] = s.gen.Gather(coord)
		}
	}

	s.group.Go(func() error {
		out := make([]*tile.Tile, 0, len(j.tiles))
		for i, coord := range j.tiles {
			var t *tile.Tile
			var err error
			if gathered != nil {
				t, err = s.gen.GenerateFromGathered(s.gctx, gathered[i])
			} else {
				t, err = s.gen.Generate(s.gctx, coord)
			}
			if err != nil {
				if err == context.Canceled {
					return nil
				}
				s.once.WarnOnce("generate:"+err.Error(), "scheduler: tile generation failed", zap.Error(err))
				continue
			}
			if t != nil {
				out = append(out, t)
			}
		}
		s.mu.Lock()
		s.completedJobs = append(s.completedJobs, completedJob{id: j.id, tiles: out})
		s.mu.Unlock()
		return nil
	})
}

// CancelBuild implements spec §4.8's Cancellation: empty pendingTiles,
// discard the pending job, block until every running worker finishes, then
// discard their outputs without installing them.
func (s *Scheduler) CancelBuild() {
	s.pendingTiles = nil
	s.pendingJob = nil

	_ = s.group.Wait()
	g, gctx := errgroup.WithContext(context.Background())
	if limit := s.cfg.workerLimit(); limit > 0 {
		g.SetLimit(limit)
	}
	s.group = g
	s.gctx = gctx

	s.mu.Lock()
	s.runningJobs = make(map[uuid.UUID]*job)
	s.completedJobs = nil
	s.mu.Unlock()
}
