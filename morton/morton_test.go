package morton_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GunfireGames/Gunfire3DNavigation/morton"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for x := uint32(0); x < 64; x += 7 {
		for y := uint32(0); y < 64; y += 11 {
			for z := uint32(0); z < 64; z += 13 {
				c := morton.Coord{X: x, Y: y, Z: z}
				got := morton.Decode(morton.Encode(c))
				require.Equal(t, c, got)
			}
		}
	}
}

func TestChildParentRoundTrip(t *testing.T) {
	parent := morton.Code(5)
	base := morton.ChildBase(parent)
	for i := morton.Code(0); i < 8; i++ {
		p, sib := morton.ParentOf(base + i)
		require.Equal(t, parent, p)
		require.Equal(t, uint8(i), sib)
	}
}

func TestFaceOpposite(t *testing.T) {
	faces := []morton.Face{morton.FacePosX, morton.FacePosY, morton.FacePosZ, morton.FaceNegX, morton.FaceNegY, morton.FaceNegZ}
	for _, f := range faces {
		require.Equal(t, f, f.Opposite().Opposite())
		require.NotEqual(t, f, f.Opposite())
	}
}

func TestAddOffset(t *testing.T) {
	base := morton.Encode(morton.Coord{X: 10, Y: 10, Z: 10})

	got := morton.AddOffset(base, 3, -2, 0)
	require.Equal(t, morton.Coord{X: 13, Y: 8, Z: 10}, morton.Decode(got))

	zero := morton.AddOffset(base, 0, 0, 0)
	require.Equal(t, base, zero)
}

func TestNextInRange(t *testing.T) {
	c := morton.Coord{X: 0, Y: 0, Z: 0}
	_, ok := morton.NextInRange(c, morton.FaceNegX, 4)
	require.False(t, ok)

	c2, ok := morton.NextInRange(c, morton.FacePosX, 4)
	require.True(t, ok)
	require.Equal(t, morton.Coord{X: 1, Y: 0, Z: 0}, c2)
}
