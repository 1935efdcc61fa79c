// Package geomsource defines the interface the tile generator pulls level
// geometry and blocker volumes from (spec §6), plus a simple in-memory
// implementation for tests and the navd CLI's offline build path.
package geomsource

import "github.com/GunfireGames/Gunfire3DNavigation/geometry"

// Source supplies the triangles and convex blocker regions overlapping a
// gather box. Implementations may back onto a level's static mesh data, a
// streamed chunk cache, or (as here) a flat in-memory list.
type Source interface {
	// GatherTriangles returns every triangle whose AABB overlaps box.
	GatherTriangles(box geometry.AABB) []geometry.Triangle
	// GatherBlockers returns every convex blocker region overlapping box.
	GatherBlockers(box geometry.AABB) []geometry.Convex
	// InclusionBounds returns the union of nav-area inclusion volumes the
	// generator should clip its gather box against.
	InclusionBounds() []geometry.AABB
}

// Static is a Source backed by a fixed, pre-loaded triangle soup and
// blocker list, with a simple linear overlap scan (no spatial index — the
// scheduler's per-tile gather box is small relative to a level, and this
// is the data source the navd build command hands the generator when
// working from a baked level dump).
type Static struct {
	Triangles []geometry.Triangle
	Blockers  []geometry.Convex
	Inclusion []geometry.AABB
}

// NewStatic builds a Source over a fixed geometry set. An empty inclusion
// is kept as given: InclusionBounds then returns no volumes, and the
// generator applies no inclusion clipping.
func NewStatic(triangles []geometry.Triangle, blockers []geometry.Convex, inclusion []geometry.AABB) *Static {
	return &Static{Triangles: triangles, Blockers: blockers, Inclusion: inclusion}
}

func (s *Static) GatherTriangles(box geometry.AABB) []geometry.Triangle {
	var out []geometry.Triangle
	for _, tri := range s.Triangles {
		if tri.Bounds().Intersects(box) {
			out = append(out, tri)
		}
	}
	return out
}

func (s *Static) GatherBlockers(box geometry.AABB) []geometry.Convex {
	var out []geometry.Convex
	for _, b := range s.Blockers {
		if b.Bounds().Intersects(box) {
			out = append(out, b)
		}
	}
	return out
}

func (s *Static) InclusionBounds() []geometry.AABB { return s.Inclusion }
