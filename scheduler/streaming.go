package scheduler

import (
	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/svo"
)

// StreamingBridge lets the host notify the scheduler when a level-streaming
// chunk unloads, per the original plugin's NavSvoStreamingData handling
// (supplemented feature, see DESIGN.md). Unloading a chunk drops every
// resident tile inside it from the Editable SVO and drops the pending
// coords there that have not yet joined a job. Tiles already gathered into
// the accumulating job, running on a worker, or completed and awaiting
// install are not cancelled and are installed when they finish.
type StreamingBridge struct {
	sched *Scheduler
}

// NewStreamingBridge wraps sched for chunk load/unload notifications.
func NewStreamingBridge(sched *Scheduler) *StreamingBridge {
	return &StreamingBridge{sched: sched}
}

// ChunkUnloaded removes every tile whose coord falls inside bounds from the
// Editable SVO (marking their former neighbors dirty for the next finalize,
// via RemoveTilesByPredicate) and drops any pending-but-not-yet-dispatched
// coords in the same region so they aren't regenerated for a chunk that no
// longer exists.
func (b *StreamingBridge) ChunkUnloaded(bounds geometry.AABB) {
	b.sched.svo.RemoveTilesByPredicate(func(coord geometry.Vector3i) bool {
		return bounds.Contains(svo.TileBoundsFor(b.sched.svo.Config, coord).Center())
	})

	kept := b.sched.pendingTiles[:0]
	for _, p := range b.sched.pendingTiles {
		if bounds.Contains(svo.TileBoundsFor(b.sched.svo.Config, p.coord).Center()) {
			continue
		}
		kept = append(kept, p)
	}
	b.sched.pendingTiles = kept
}

// ChunkLoaded marks bounds dirty so the scheduler regenerates tiles for the
// newly streamed-in geometry on its next MarkDirtyTiles/Tick cycle.
func (b *StreamingBridge) ChunkLoaded(bounds geometry.AABB, players []geometry.Vector3) {
	b.sched.MarkDirtyTiles([]DirtyArea{{Bounds: bounds, BoundsChanged: true, GeometryChanged: true}}, bounds, players)
}
