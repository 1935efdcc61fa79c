package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
)

func TestParseVector3(t *testing.T) {
	v, err := parseVector3("1,2.5,-3")
	require.NoError(t, err)
	require.Equal(t, geometry.Vector3{X: 1, Y: 2.5, Z: -3}, v)

	_, err = parseVector3("1,2")
	require.Error(t, err)

	_, err = parseVector3("1,x,3")
	require.Error(t, err)
}

func TestResolveBuildBoundsExplicit(t *testing.T) {
	b, err := resolveBuildBounds("0,0,0", "10,10,10", nil)
	require.NoError(t, err)
	require.Equal(t, geometry.Vector3{}, b.Min)
	require.Equal(t, geometry.Vector3{X: 10, Y: 10, Z: 10}, b.Max)
}

func TestResolveBuildBoundsFromTriangles(t *testing.T) {
	tris := []geometry.Triangle{
		{A: geometry.Vector3{X: -1}, B: geometry.Vector3{X: 1}, C: geometry.Vector3{Y: 1}},
	}
	b, err := resolveBuildBounds("", "", tris)
	require.NoError(t, err)
	require.Equal(t, float32(-1), b.Min.X)
	require.Equal(t, float32(1), b.Max.X)
}

func TestResolveBuildBoundsErrorsWithNoGeometryOrBounds(t *testing.T) {
	_, err := resolveBuildBounds("", "", nil)
	require.Error(t, err)
}
