package svo

import (
	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
	"github.com/GunfireGames/Gunfire3DNavigation/navnode"
)

// ResolveNeighbor turns a raw NodeLinkBase neighbor slot read off the node
// named by ownerLink into a fully qualified NodeLink, following the
// same-tile/cross-tile-by-face encoding of §3's Node.neighborLinks: the
// slot's userData is either navlink.Self or the face crossed to reach the
// tile it names. This is the read-path counterpart of EditableSVO's
// private resolveNeighborBase, used by the search core to walk neighbor
// links without needing write access.
func (s *SVO) ResolveNeighbor(ownerLink navlink.NodeLink, base navlink.NodeLinkBase) (navlink.NodeLink, bool) {
	if !base.IsValid() {
		return navlink.InvalidLink, false
	}
	owner := s.TileByID(ownerLink.TileID)
	if owner == nil {
		return navlink.InvalidLink, false
	}
	if navnode.NeighborSameTile(base) {
		return navlink.NodeLink{TileID: owner.ID, Base: base}, true
	}
	face := morton.Face(base.UserData())
	dx, dy, dz := face.Unit()
	coord := geometry.Vector3i{X: owner.Coord.X + dx, Y: owner.Coord.Y + dy, Z: owner.Coord.Z + dz}
	nt := s.TileAt(coord)
	if nt == nil {
		return navlink.InvalidLink, false
	}
	return navlink.NodeLink{TileID: nt.ID, Base: base}, true
}
