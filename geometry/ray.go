package geometry

// Ray is a parametric ray/segment origin + t*dir, t in [0,1] for a segment.
type Ray struct {
	Origin, Dir Vector3
}

const maxFloat32 = 3.402823466e+38

// SlabAABB intersects the ray with box using the slab method, returning the
// entry/exit parametric distances t in [0, +inf). Rays starting behind the
// box (tmax < 0) report no hit; tmin is clamped to 0 when the origin is
// already inside the box.
func (r Ray) SlabAABB(box AABB) (tmin, tmax float32, hit bool) {
	const eps = 1e-6
	tmin = -maxFloat32
	tmax = maxFloat32

	axes := [3]struct{ o, d, lo, hi float32 }{
		{r.Origin.X, r.Dir.X, box.Min.X, box.Max.X},
		{r.Origin.Y, r.Dir.Y, box.Min.Y, box.Max.Y},
		{r.Origin.Z, r.Dir.Z, box.Min.Z, box.Max.Z},
	}
	for _, a := range axes {
		if absf(a.d) < eps {
			if a.o < a.lo || a.o > a.hi {
				return 0, 0, false
			}
			continue
		}
		t1 := (a.lo - a.o) / a.d
		t2 := (a.hi - a.o) / a.d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, 0, false
		}
	}
	if tmax < 0 {
		return 0, 0, false
	}
	if tmin < 0 {
		tmin = 0
	}
	return tmin, tmax, true
}

// TriangleIntersect tests ray/triangle intersection via Möller-Trumbore,
// returning the hit distance t along Dir.
func (r Ray) TriangleIntersect(tri Triangle) (hit bool, t float32) {
	const eps = 1e-6
	e1 := tri.B.Sub(tri.A)
	e2 := tri.C.Sub(tri.A)
	pvec := r.Dir.Cross(e2)
	det := e1.Dot(pvec)
	if det > -eps && det < eps {
		return false, 0
	}
	invDet := 1 / det
	tvec := r.Origin.Sub(tri.A)
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return false, 0
	}
	qvec := tvec.Cross(e1)
	v := r.Dir.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return false, 0
	}
	t = e2.Dot(qvec) * invDet
	if t <= eps {
		return false, 0
	}
	return true, t
}
