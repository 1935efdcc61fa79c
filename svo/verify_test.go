//go:build navdebug

package svo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/navconfig"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
	"github.com/GunfireGames/Gunfire3DNavigation/navnode"
	"github.com/GunfireGames/Gunfire3DNavigation/svo"
	"github.com/GunfireGames/Gunfire3DNavigation/tile"
)

func buildVerifiableSVO() (*svo.SVO, *tile.Tile) {
	cfg := navconfig.SvoConfig{VoxelSize: 1, TileLayer: 1, TilePoolSize: 4}
	s := svo.New(cfg)
	coord := geometry.Vector3i{X: 0, Y: 0, Z: 0}
	t := tile.New(svo.TileID(coord), coord, cfg.TileLayer)
	t.NodeInfo = navnode.NewInner(t.LinkFor(cfg.TileLayer, 0), true, navnode.PartiallyBlocked)
	for i := uint32(0); i < 8; i++ {
		t.ActivateNode(0, i, navnode.NewLeaf(t.LinkFor(0, i), 0))
	}
	s.Tiles()[t.ID] = t
	return s, t
}

func TestVerifyNodeDataAcceptsAWellFormedTile(t *testing.T) {
	s, _ := buildVerifiableSVO()
	require.Empty(t, s.VerifyNodeData())
}

func TestVerifyNodeDataCatchesBadSelfLink(t *testing.T) {
	s, tl := buildVerifiableSVO()
	corrupt := tl.NodeAt(0, 3)
	corrupt.SelfLink = navlink.NodeLink{TileID: tl.ID, Base: navlink.PackBase(0, 5, navlink.NoVoxel, navlink.Self)}

	errs := s.VerifyNodeData()
	require.NotEmpty(t, errs)
}

func TestVerifyNodeDataCatchesMissingPartiallyBlockedChild(t *testing.T) {
	s, tl := buildVerifiableSVO()
	tl.NodeAt(0, 4).SelfLink = navlink.InvalidLink

	errs := s.VerifyNodeData()
	require.NotEmpty(t, errs)
}
