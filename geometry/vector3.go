// Package geometry provides the vector, bounding-box, triangle, ray and
// convex-region primitives the rest of the navigation stack builds on.
package geometry

import (
	"fmt"
	"math"
)

// Vector3 is a 3D vector in SVO (metric, right-handed) space.
type Vector3 struct {
	X, Y, Z float32
}

func (v Vector3) Add(o Vector3) Vector3 { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector3) Sub(o Vector3) Vector3 { return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vector3) Mul(s float32) Vector3 { return Vector3{v.X * s, v.Y * s, v.Z * s} }

func (v Vector3) Dot(o Vector3) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vector3) LengthSquared() float32 { return v.Dot(v) }
func (v Vector3) Length() float32        { return float32(math.Sqrt(float64(v.LengthSquared()))) }

func (v Vector3) DistanceSquared(o Vector3) float32 { return v.Sub(o).LengthSquared() }
func (v Vector3) Distance(o Vector3) float32         { return v.Sub(o).Length() }

func (v Vector3) Normalize() Vector3 {
	l := v.Length()
	if l < 1e-9 {
		return Vector3{}
	}
	return v.Mul(1 / l)
}

// Manhattan returns the L1 distance between v and o.
func (v Vector3) Manhattan(o Vector3) float32 {
	return absf(v.X-o.X) + absf(v.Y-o.Y) + absf(v.Z-o.Z)
}

func (v Vector3) Get(axis int) float32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	}
	return 0
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

func absf(a float32) float32 {
	if a < 0 {
		return -a
	}
	return a
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
