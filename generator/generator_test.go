package generator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GunfireGames/Gunfire3DNavigation/generator"
	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/geomsource"
	"github.com/GunfireGames/Gunfire3DNavigation/navconfig"
)

func testConfig() navconfig.SvoConfig {
	return navconfig.SvoConfig{VoxelSize: 1, TileLayer: 1, TilePoolSize: 4}
}

func floorTriangles() []geometry.Triangle {
	return []geometry.Triangle{
		{
			A: geometry.Vector3{X: -8, Y: -8, Z: 0},
			B: geometry.Vector3{X: 8, Y: -8, Z: 0},
			C: geometry.Vector3{X: -8, Y: 8, Z: 0},
		},
		{
			A: geometry.Vector3{X: 8, Y: -8, Z: 0},
			B: geometry.Vector3{X: 8, Y: 8, Z: 0},
			C: geometry.Vector3{X: -8, Y: 8, Z: 0},
		},
	}
}

func TestGenerateFromGatheredMatchesGenerate(t *testing.T) {
	src := geomsource.NewStatic(floorTriangles(), nil, nil)
	gen := generator.New(testConfig(), navconfig.AgentShape{RadiusVoxels: 1, HalfHeightVoxels: 1}, src)
	coord := geometry.Vector3i{}

	fused, err := gen.Generate(context.Background(), coord)
	require.NoError(t, err)
	require.NotNil(t, fused)

	split, err := gen.GenerateFromGathered(context.Background(), gen.Gather(coord))
	require.NoError(t, err)
	require.NotNil(t, split)

	require.Equal(t, fused.NodeInfo.State(), split.NodeInfo.State())
	require.Equal(t, fused.ID, split.ID)
}

func TestGenerateEmptyInclusionSkipsGather(t *testing.T) {
	src := geomsource.NewStatic(floorTriangles(), nil, []geometry.AABB{
		{Min: geometry.Vector3{X: 1000, Y: 1000, Z: 1000}, Max: geometry.Vector3{X: 1001, Y: 1001, Z: 1001}},
	})
	gen := generator.New(testConfig(), navconfig.AgentShape{}, src)
	coord := geometry.Vector3i{}

	gd := gen.Gather(coord)
	tl, err := gen.GenerateFromGathered(context.Background(), gd)
	require.NoError(t, err)
	require.Equal(t, coord, tl.Coord)
	require.Empty(t, tl.Pool)
}

func TestGenerateRespectsCancellation(t *testing.T) {
	src := geomsource.NewStatic(floorTriangles(), nil, nil)
	gen := generator.New(testConfig(), navconfig.AgentShape{}, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.Generate(ctx, geometry.Vector3i{})
	require.ErrorIs(t, err, context.Canceled)
}
