package geometry

// Triangle is a triangle in SVO space, given counter-clockwise.
type Triangle struct {
	A, B, C Vector3
}

// Bounds returns the triangle's axis-aligned bounding box.
func (t Triangle) Bounds() AABB {
	minX := minf(minf(t.A.X, t.B.X), t.C.X)
	maxX := maxf(maxf(t.A.X, t.B.X), t.C.X)
	minY := minf(minf(t.A.Y, t.B.Y), t.C.Y)
	maxY := maxf(maxf(t.A.Y, t.B.Y), t.C.Y)
	minZ := minf(minf(t.A.Z, t.B.Z), t.C.Z)
	maxZ := maxf(maxf(t.A.Z, t.B.Z), t.C.Z)
	return AABB{Min: Vector3{minX, minY, minZ}, Max: Vector3{maxX, maxY, maxZ}}
}

// Normal returns the triangle's unit normal; zero for a degenerate triangle.
func (t Triangle) Normal() Vector3 {
	return t.B.Sub(t.A).Cross(t.C.Sub(t.A)).Normalize()
}

// IsDegenerate reports whether the triangle has (near) zero area or any
// non-finite vertex coordinate. Degenerate triangles are skipped silently
// by the rasterizer per the generator's failure semantics.
func (t Triangle) IsDegenerate() bool {
	for _, v := range [...]Vector3{t.A, t.B, t.C} {
		if !isFinite(v.X) || !isFinite(v.Y) || !isFinite(v.Z) {
			return true
		}
	}
	return t.B.Sub(t.A).Cross(t.C.Sub(t.A)).LengthSquared() < 1e-12
}

func isFinite(f float32) bool {
	return f == f && f > -3.0e38 && f < 3.0e38
}

// DominantAxis returns the axis (0=X, 1=Y, 2=Z) most aligned with the
// triangle's normal. The voxel rasterizer does not call it; it tests each
// candidate voxel with a SAT triangle/box test instead.
func (t Triangle) DominantAxis() int {
	n := t.Normal()
	ax, ay, az := absf(n.X), absf(n.Y), absf(n.Z)
	if ax >= ay && ax >= az {
		return 0
	}
	if ay >= ax && ay >= az {
		return 1
	}
	return 2
}

// IntersectsAABB tests triangle/box overlap via the separating axis theorem:
// the 3 box face normals, the triangle normal, and the 9 cross products of
// box axes with triangle edges.
func (t Triangle) IntersectsAABB(box AABB) bool {
	bounds := t.Bounds()
	if !bounds.Intersects(box) {
		return false
	}
	if box.Contains(t.A) && box.Contains(t.B) && box.Contains(t.C) {
		return true
	}

	center := box.Center()
	half := box.HalfExtents()

	v0 := t.A.Sub(center)
	v1 := t.B.Sub(center)
	v2 := t.C.Sub(center)

	f0 := v1.Sub(v0)
	f1 := v2.Sub(v1)
	f2 := v0.Sub(v2)

	if n := f0.Cross(f1); n.LengthSquared() > 1e-20 {
		if !triSeparatingAxis(n, v0, v1, v2, half) {
			return false
		}
	}

	axes := [3]Vector3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for _, axis := range axes {
		if !triSeparatingAxis(axis, v0, v1, v2, half) {
			return false
		}
	}

	crossAxes := [9]Vector3{
		{0, -f0.Z, f0.Y}, {0, -f1.Z, f1.Y}, {0, -f2.Z, f2.Y},
		{f0.Z, 0, -f0.X}, {f1.Z, 0, -f1.X}, {f2.Z, 0, -f2.X},
		{-f0.Y, f0.X, 0}, {-f1.Y, f1.X, 0}, {-f2.Y, f2.X, 0},
	}
	for _, axis := range crossAxes {
		if axis.LengthSquared() < 1e-20 {
			continue
		}
		if !triSeparatingAxis(axis, v0, v1, v2, half) {
			return false
		}
	}
	return true
}

func triSeparatingAxis(axis, v0, v1, v2, half Vector3) bool {
	p0 := v0.Dot(axis)
	p1 := v1.Dot(axis)
	p2 := v2.Dot(axis)
	triMin := minf(minf(p0, p1), p2)
	triMax := maxf(maxf(p0, p1), p2)
	r := absf(half.X*axis.X) + absf(half.Y*axis.Y) + absf(half.Z*axis.Z)
	return !(triMax < -r || triMin > r)
}
