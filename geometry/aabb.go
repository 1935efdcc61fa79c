package geometry

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min Vector3 `json:"min"`
	Max Vector3 `json:"max"`
}

func (a AABB) Contains(p Vector3) bool {
	return p.X >= a.Min.X && p.X <= a.Max.X &&
		p.Y >= a.Min.Y && p.Y <= a.Max.Y &&
		p.Z >= a.Min.Z && p.Z <= a.Max.Z
}

func (a AABB) Center() Vector3 {
	return Vector3{(a.Min.X + a.Max.X) / 2, (a.Min.Y + a.Max.Y) / 2, (a.Min.Z + a.Max.Z) / 2}
}

func (a AABB) Size() Vector3 { return a.Max.Sub(a.Min) }

func (a AABB) HalfExtents() Vector3 { return a.Size().Mul(0.5) }

func (a AABB) Intersects(o AABB) bool {
	return a.Min.X <= o.Max.X && a.Max.X >= o.Min.X &&
		a.Min.Y <= o.Max.Y && a.Max.Y >= o.Min.Y &&
		a.Min.Z <= o.Max.Z && a.Max.Z >= o.Min.Z
}

func (a AABB) IsEmpty() bool {
	return a.Min.X >= a.Max.X || a.Min.Y >= a.Max.Y || a.Min.Z >= a.Max.Z
}

// Expand grows the box by a margin on every side.
func (a AABB) Expand(margin Vector3) AABB {
	return AABB{
		Min: Vector3{a.Min.X - margin.X, a.Min.Y - margin.Y, a.Min.Z - margin.Z},
		Max: Vector3{a.Max.X + margin.X, a.Max.Y + margin.Y, a.Max.Z + margin.Z},
	}
}

// Clip returns the intersection of a and o; IsEmpty reports if disjoint.
func (a AABB) Clip(o AABB) AABB {
	return AABB{
		Min: Vector3{maxf(a.Min.X, o.Min.X), maxf(a.Min.Y, o.Min.Y), maxf(a.Min.Z, o.Min.Z)},
		Max: Vector3{minf(a.Max.X, o.Max.X), minf(a.Max.Y, o.Max.Y), minf(a.Max.Z, o.Max.Z)},
	}
}

// Union returns the smallest box enclosing both a and o.
func (a AABB) Union(o AABB) AABB {
	return AABB{
		Min: Vector3{minf(a.Min.X, o.Min.X), minf(a.Min.Y, o.Min.Y), minf(a.Min.Z, o.Min.Z)},
		Max: Vector3{maxf(a.Max.X, o.Max.X), maxf(a.Max.Y, o.Max.Y), maxf(a.Max.Z, o.Max.Z)},
	}
}

// ClosestPoint returns the point within a nearest to p (p itself if already
// inside). Used by the A* heuristic and by FindClosestNode's epsilon pull.
func (a AABB) ClosestPoint(p Vector3) Vector3 {
	return Vector3{
		X: clampf(p.X, a.Min.X, a.Max.X),
		Y: clampf(p.Y, a.Min.Y, a.Max.Y),
		Z: clampf(p.Z, a.Min.Z, a.Max.Z),
	}
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
