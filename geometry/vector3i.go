package geometry

// Vector3i is a signed 3D integer coordinate, used for tile coords and
// other lattice positions that may be negative relative to the SVO seed.
type Vector3i struct {
	X, Y, Z int32
}

func (v Vector3i) Add(o Vector3i) Vector3i { return Vector3i{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector3i) Sub(o Vector3i) Vector3i { return Vector3i{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vector3i) Max(o Vector3i) Vector3i {
	return Vector3i{maxi32(v.X, o.X), maxi32(v.Y, o.Y), maxi32(v.Z, o.Z)}
}

func (v Vector3i) Min(o Vector3i) Vector3i {
	return Vector3i{mini32(v.X, o.X), mini32(v.Y, o.Y), mini32(v.Z, o.Z)}
}

func maxi32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func mini32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
