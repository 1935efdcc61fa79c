// Package navnode defines the fixed-size Node record that a Tile's pool is
// made of: one cache line (64 bytes) holding the node's own identity, its
// six face-neighbor links, and either a voxel bitfield (leaf) or a
// state/tile-root flag (non-leaf).
package navnode

import (
	"unsafe"

	"github.com/GunfireGames/Gunfire3DNavigation/internal/bitset"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
)

// State is the derived occupancy state of a node.
type State uint8

const (
	Open State = iota
	PartiallyBlocked
	Blocked
)

// Node is exactly 64 bytes: NodeLink (8) + 6*NodeLinkBase (24) + 24 bytes
// padding + 8 bytes of leaf-voxels/non-leaf-state union.
type Node struct {
	SelfLink      navlink.NodeLink                        // 8 bytes (uint32 TileID + uint32 Base)
	NeighborLinks [morton.FaceCount]navlink.NodeLinkBase // 24 bytes (6 * uint32)
	_pad          [24]byte
	tail          nodeTail // 8 bytes: leaf voxel bitfield XOR {nodeIsTile, nodeState}
}

// nodeTail is a manual union over the last 8 bytes: Voxels is meaningful
// only for leaf nodes; NodeIsTile/NodeState only for non-leaf nodes. Both
// fields alias the same 8 bytes of storage via Voxels, matching the
// record's C++ ancestor.
type nodeTail struct {
	Voxels bitset.Fixed64
}

const nodeIsTileBit = uint64(1) << 62
const nodeStateShift = 60
const nodeStateMask = uint64(0x3)

func init() {
	const want = 64
	// Go's struct packing does not reproduce a 12-byte NodeLink the way a
	// C++ bitfield union would; to guarantee the 64-byte cache-line budget
	// we size the padding so SelfLink+NeighborLinks+pad+tail == 64 exactly,
	// verified here rather than via unsafe field offsets (layout differs by
	// platform only in alignment, never in total size, for this all-integer
	// struct).
	if unsafe.Sizeof(Node{}) != want {
		panic("navnode: Node must be exactly 64 bytes")
	}
}

// NewLeaf builds an active leaf node for the given self link and voxel mask.
func NewLeaf(self navlink.NodeLink, voxels bitset.Fixed64) Node {
	n := Node{SelfLink: self}
	for i := range n.NeighborLinks {
		n.NeighborLinks[i] = navlink.InvalidBase
	}
	n.tail.Voxels = voxels
	return n
}

// NewInner builds an active non-leaf node with an explicit state. State is
// derived for leaves but must be set explicitly for inner nodes (it isn't
// recoverable from child data once children are collapsed away).
func NewInner(self navlink.NodeLink, isTile bool, state State) Node {
	n := Node{SelfLink: self}
	for i := range n.NeighborLinks {
		n.NeighborLinks[i] = navlink.InvalidBase
	}
	n.setInnerMeta(isTile, state)
	return n
}

func (n *Node) setInnerMeta(isTile bool, state State) {
	v := (uint64(state) & nodeStateMask) << nodeStateShift
	if isTile {
		v |= nodeIsTileBit
	}
	n.tail.Voxels = bitset.Fixed64(v)
}

// IsLeaf reports whether self link carries no child structure, i.e. this
// node is at the deepest layer (layer 0).
func (n Node) IsLeaf() bool { return n.SelfLink.Layer() == 0 }

// IsActive reports whether SelfLink is a validly encoded link.
func (n Node) IsActive() bool { return n.SelfLink.IsValid() }

// IsTileRoot reports whether this non-leaf node is the tile's root node
// (nodeIsTile bit of the tail union).
func (n Node) IsTileRoot() bool {
	if n.IsLeaf() {
		return false
	}
	return uint64(n.tail.Voxels)&nodeIsTileBit != 0
}

// Voxels returns the leaf's 64-bit occupancy mask (bit i set iff voxel i is
// blocked). Only meaningful when IsLeaf() is true.
func (n Node) Voxels() bitset.Fixed64 { return n.tail.Voxels }

// SetVoxels overwrites the leaf's occupancy mask.
func (n *Node) SetVoxels(v bitset.Fixed64) { n.tail.Voxels = v }

// State returns the node's occupancy state. For a leaf this is derived
// from the voxel mask per spec invariant 3, never stored; for a non-leaf
// node it is the explicitly stored state.
func (n Node) State() State {
	if n.IsLeaf() {
		return stateFromVoxels(n.tail.Voxels)
	}
	return State((uint64(n.tail.Voxels) >> nodeStateShift) & nodeStateMask)
}

// SetState overwrites a non-leaf node's stored state. Calling this on a
// leaf is a programmer error: leaf state is always derived.
func (n *Node) SetState(s State) {
	isTile := n.IsTileRoot()
	n.setInnerMeta(isTile, s)
}

func stateFromVoxels(v bitset.Fixed64) State {
	switch {
	case v.None():
		return Open
	case v.All():
		return Blocked
	default:
		return PartiallyBlocked
	}
}

// Neighbor returns the raw neighbor slot for face f.
func (n Node) Neighbor(f morton.Face) navlink.NodeLinkBase { return n.NeighborLinks[f] }

// SetNeighbor writes the neighbor slot for face f.
func (n *Node) SetNeighbor(f morton.Face, base navlink.NodeLinkBase) { n.NeighborLinks[f] = base }

// HasNeighbor reports whether the slot for face f names a real node.
func (n Node) HasNeighbor(f morton.Face) bool { return n.NeighborLinks[f].IsValid() }

// NeighborSameTile reports whether the neighbor slot's userData marks the
// neighbor as living in this node's own tile (vs. across a tile boundary).
func NeighborSameTile(base navlink.NodeLinkBase) bool { return base.UserData() == navlink.Self }
