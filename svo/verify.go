//go:build navdebug

package svo

import (
	"fmt"

	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
	"github.com/GunfireGames/Gunfire3DNavigation/navnode"
	"github.com/GunfireGames/Gunfire3DNavigation/tile"
)

// VerifyNodeData walks every resident tile checking data-model invariants
// 1, 2, 4, and 5 of spec §3/§8: self-link round trip, PartiallyBlocked
// nodes having all 8 children active, neighbor mutual consistency, and the
// no-finer-neighbor rule. Invariant 3 (leaf state is always derived, never
// stored) is enforced by navnode.Node's API rather than checked here — a
// leaf simply has nowhere to store an explicit state.
//
// Compiled only under the navdebug build tag, the way the original plugin
// gates its own verification pass behind a development-only build.
func (s *SVO) VerifyNodeData() []error {
	var errs []error
	for _, t := range s.tiles {
		errs = append(errs, verifyNode(s, t, t.TileLayer(), 0, t.Root())...)
		t.AllActiveNodes(func(layer uint8, nodeIdx uint32, n *navnode.Node) {
			errs = append(errs, verifyNode(s, t, layer, nodeIdx, n)...)
		})
	}
	return errs
}

func verifyNode(s *SVO, t *tile.Tile, layer uint8, nodeIdx uint32, n *navnode.Node) []error {
	var errs []error
	link := t.LinkFor(layer, nodeIdx)

	if n.SelfLink.ID() != link.ID() {
		errs = append(errs, fmt.Errorf("svo: node (layer=%d idx=%d) in tile %d has self link %v, want %v", layer, nodeIdx, t.ID, n.SelfLink, link))
	}

	if !n.IsLeaf() && n.State() == navnode.PartiallyBlocked {
		base := tile.ChildBase(nodeIdx)
		for c := uint32(0); c < 8; c++ {
			child := t.NodeAt(layer-1, base+c)
			if !child.IsActive() {
				errs = append(errs, fmt.Errorf("svo: node (layer=%d idx=%d) in tile %d is PartiallyBlocked but child %d is inactive", layer, nodeIdx, t.ID, c))
			}
		}
	}

	for f := morton.Face(0); f < morton.FaceCount; f++ {
		base := n.Neighbor(f)
		if !base.IsValid() {
			continue
		}
		if base.Layer() < layer {
			errs = append(errs, fmt.Errorf("svo: node (layer=%d idx=%d) in tile %d links to a finer neighbor on face %d (neighbor layer %d < %d)", layer, nodeIdx, t.ID, f, base.Layer(), layer))
			continue
		}
		if base.Layer() != layer {
			continue // coarser neighbor: no mutual back-link is required
		}

		nt, neighbor := resolveNeighborBaseReadOnly(s, t, base)
		if neighbor == nil {
			continue // neighbor tile not resident; nothing to cross-check yet
		}
		back := neighbor.Neighbor(f.Opposite())
		if !back.IsValid() || back.Layer() != layer {
			continue
		}
		backLink := nt.LinkFor(back.Layer(), back.NodeIdx())
		if backLink.ID() == link.ID() {
			continue
		}
		if layer < t.TileLayer() {
			parentIdx, _ := tile.ParentIdx(nodeIdx)
			parentLink := t.LinkFor(layer+1, parentIdx)
			if backLink.ID() == parentLink.ID() {
				continue
			}
		}
		errs = append(errs, fmt.Errorf("svo: neighbor mismatch: node (layer=%d idx=%d) tile %d face %d back-links to %v, want self or parent", layer, nodeIdx, t.ID, f, backLink))
	}
	return errs
}

// resolveNeighborBaseReadOnly mirrors EditableSVO.resolveNeighborBase for a
// plain, non-editable SVO: it follows a raw NodeLinkBase neighbor slot back
// to a concrete tile+node, re-deriving a cross-tile reference's tile ID
// from the owning tile's own coordinate and the encoded face.
func resolveNeighborBaseReadOnly(s *SVO, owner *tile.Tile, base navlink.NodeLinkBase) (*tile.Tile, *navnode.Node) {
	if navnode.NeighborSameTile(base) {
		return owner, owner.NodeForLink(navlink.NodeLink{TileID: owner.ID, Base: base})
	}
	face := morton.Face(base.UserData())
	dx, dy, dz := face.Unit()
	coord := geometry.Vector3i{X: owner.Coord.X + dx, Y: owner.Coord.Y + dy, Z: owner.Coord.Z + dz}
	nt := s.TileAt(coord)
	if nt == nil {
		return nil, nil
	}
	return nt, nt.NodeForLink(navlink.NodeLink{TileID: nt.ID, Base: base})
}
