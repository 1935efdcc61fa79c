// Package postprocess implements the three path-simplification passes spec
// §4.7 runs over a raw navquery.FindPath result: collinear-point cleanup, a
// greedy raycast-based pull, and Catmull-Rom smoothing. Grounded in the
// teacher's query/smoother.go line-of-sight pull, generalized from a single
// pass over octree.IsAgentOccupied samples to the octree's own Raycast.
package postprocess

import (
	"math"

	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/svo"
)

const collinearEpsilon = 1e-4

// Cleanup removes each middle point B of triples (A,B,C) where the
// direction from A to B matches the direction from B to C within
// collinearEpsilon (spec §4.7). A is always the last point kept, so after a
// removal the next triple is tested against the same A; the whole path is
// handled in one forward pass.
func Cleanup(points []geometry.Vector3) []geometry.Vector3 {
	if len(points) < 3 {
		return points
	}
	out := append([]geometry.Vector3(nil), points[0])
	for i := 1; i < len(points)-1; i++ {
		a := out[len(out)-1]
		b := points[i]
		c := points[i+1]
		if collinear(a, b, c) {
			continue
		}
		out = append(out, b)
	}
	out = append(out, points[len(points)-1])
	return out
}

func collinear(a, b, c geometry.Vector3) bool {
	ab := b.Sub(a).Normalize()
	bc := c.Sub(b).Normalize()
	return ab.Sub(bc).LengthSquared() < collinearEpsilon
}

// GreedyPull scans backward from each accepted point toward the last point
// in the remaining path, erasing everything in between as soon as the
// octree raycast between them is unobstructed. Named for what the teacher's
// own function does, not a funnel algorithm: it always pulls toward the
// path's own vertices, never toward a corridor's actual visibility apex, so
// it does not produce a taut string across a wide corridor.
func GreedyPull(o *svo.SVO, points []geometry.Vector3) []geometry.Vector3 {
	if len(points) < 3 {
		return points
	}
	out := []geometry.Vector3{points[0]}
	current := 0
	for current < len(points)-1 {
		farthest := current + 1
		for next := len(points) - 1; next > current+1; next-- {
			if clearLineOfSight(o, points[current], points[next]) {
				farthest = next
				break
			}
		}
		out = append(out, points[farthest])
		current = farthest
	}
	return out
}

func clearLineOfSight(o *svo.SVO, a, b geometry.Vector3) bool {
	_, hit := o.Raycast(a, b)
	return !hit
}

// Alpha selects the Catmull-Rom parameterization spec §4.7 names.
type Alpha float32

const (
	Uniform     Alpha = 0
	Centripetal Alpha = 0.5
	Chordal     Alpha = 1
)

// Smooth runs centripetal (or uniform/chordal) Catmull-Rom smoothing over
// points, inserting iterations interior samples per original segment.
// Phantom points extending the first and last segments give every real
// segment the four control points Catmull-Rom needs. A candidate sample is
// kept only if it resolves to a valid octree location and both octree
// raycasts back to the segment's endpoints are unobstructed (spec §4.7); a
// rejected sample is simply skipped, keeping the segment's straight-line
// portion in the output instead.
func Smooth(o *svo.SVO, points []geometry.Vector3, alpha Alpha, iterations int) []geometry.Vector3 {
	if len(points) < 2 || iterations < 1 {
		return points
	}

	pre := points[0].Add(points[0].Sub(points[1]))
	post := points[len(points)-1].Add(points[len(points)-1].Sub(points[len(points)-2]))
	ext := make([]geometry.Vector3, 0, len(points)+2)
	ext = append(ext, pre)
	ext = append(ext, points...)
	ext = append(ext, post)

	out := []geometry.Vector3{points[0]}
	for i := 1; i < len(ext)-2; i++ {
		p0, p1, p2, p3 := ext[i-1], ext[i], ext[i+1], ext[i+2]
		for step := 1; step <= iterations; step++ {
			t := float32(step) / float32(iterations+1)
			sample := catmullRom(p0, p1, p2, p3, t, alpha)
			if !accept(o, sample, p1, p2) {
				continue
			}
			out = append(out, sample)
		}
		out = append(out, p2)
	}
	return out
}

func accept(o *svo.SVO, sample, segStart, segEnd geometry.Vector3) bool {
	if !o.LinkForLocation(sample, false).IsValid() {
		return false
	}
	return clearLineOfSight(o, sample, segStart) && clearLineOfSight(o, sample, segEnd)
}

// catmullRom evaluates the centripetal (or uniform/chordal, per alpha)
// Catmull-Rom spline at parameter t in [0,1] of the segment p1..p2.
func catmullRom(p0, p1, p2, p3 geometry.Vector3, t float32, alpha Alpha) geometry.Vector3 {
	t0 := float32(0)
	t1 := t0 + knotDelta(p0, p1, alpha)
	t2 := t1 + knotDelta(p1, p2, alpha)
	t3 := t2 + knotDelta(p2, p3, alpha)
	tt := t1 + t*(t2-t1)

	a1 := lerpParam(p0, p1, t0, t1, tt)
	a2 := lerpParam(p1, p2, t1, t2, tt)
	a3 := lerpParam(p2, p3, t2, t3, tt)
	b1 := lerpParam(a1, a2, t0, t2, tt)
	b2 := lerpParam(a2, a3, t1, t3, tt)
	return lerpParam(b1, b2, t1, t2, tt)
}

func knotDelta(a, b geometry.Vector3, alpha Alpha) float32 {
	d := a.Distance(b)
	if d < 1e-6 {
		return 1e-6
	}
	if alpha == Uniform {
		return 1
	}
	return powf(d, float32(alpha))
}

func lerpParam(a, b geometry.Vector3, ta, tb, t float32) geometry.Vector3 {
	if tb-ta < 1e-9 {
		return a
	}
	f := (t - ta) / (tb - ta)
	return a.Add(b.Sub(a).Mul(f))
}

func powf(v, p float32) float32 {
	if p == 1 {
		return v
	}
	return float32(math.Pow(float64(v), float64(p)))
}
