// Package navlink implements the bit-packed node identity used throughout
// the SVO: a 32-bit intra-tile reference (NodeLinkBase) and its 64-bit
// globally-unique counterpart (NodeLink), which prefixes a tile hash.
package navlink

// Self is the sentinel userData value on a neighbor slot meaning "the
// neighbor lives in the same tile as the node that stores this slot".
const Self uint8 = 6

// NoUserData marks a slot with no meaningful face-origin tag (used when
// comparing link identity, per spec: userData is forced to 0xF first).
const NoUserData uint8 = 0xF

// NoVoxel is the sentinel VoxelIdx meaning "this link names a node, not a
// particular voxel within a leaf".
const NoVoxel uint8 = 0x7F

// InvalidBase is the all-ones NodeLinkBase, so that Layer, NodeIdx,
// VoxelIdx are all their max, which can never be produced by PackBase for a
// real node — used as the "no link" sentinel.
var InvalidBase = NodeLinkBase(^uint32(0))

// NodeLinkBase packs a node's position within its own tile, plus an
// opaque 4-bit userData field that is NOT part of node identity:
//
//	layer:3  nodeIdx:18  voxelIdx:7  userData:4
type NodeLinkBase uint32

const (
	layerBits    = 3
	nodeIdxBits  = 18
	voxelIdxBits = 7
	userDataBits = 4

	layerShift    = 0
	nodeIdxShift  = layerShift + layerBits
	voxelIdxShift = nodeIdxShift + nodeIdxBits
	userDataShift = voxelIdxShift + voxelIdxBits

	layerMask    = uint32(1<<layerBits) - 1
	nodeIdxMask  = uint32(1<<nodeIdxBits) - 1
	voxelIdxMask = uint32(1<<voxelIdxBits) - 1
	userDataMask = uint32(1<<userDataBits) - 1
)

// PackBase builds a NodeLinkBase from its fields. voxelIdx should be
// navlink.NoVoxel when the link names a node rather than a voxel.
func PackBase(layer uint8, nodeIdx uint32, voxelIdx uint8, userData uint8) NodeLinkBase {
	v := (uint32(layer) & layerMask) << layerShift
	v |= (nodeIdx & nodeIdxMask) << nodeIdxShift
	v |= (uint32(voxelIdx) & voxelIdxMask) << voxelIdxShift
	v |= (uint32(userData) & userDataMask) << userDataShift
	return NodeLinkBase(v)
}

func (b NodeLinkBase) Layer() uint8    { return uint8((uint32(b) >> layerShift) & layerMask) }
func (b NodeLinkBase) NodeIdx() uint32 { return (uint32(b) >> nodeIdxShift) & nodeIdxMask }
func (b NodeLinkBase) VoxelIdx() uint8 { return uint8((uint32(b) >> voxelIdxShift) & voxelIdxMask) }
func (b NodeLinkBase) UserData() uint8 { return uint8((uint32(b) >> userDataShift) & userDataMask) }

// HasVoxel reports whether this base names a specific voxel inside a leaf.
func (b NodeLinkBase) HasVoxel() bool { return b.VoxelIdx() != NoVoxel }

// WithUserData returns a copy of b with a different userData field; used
// when writing a neighbor slot (userData encodes same-tile vs. which face).
func (b NodeLinkBase) WithUserData(u uint8) NodeLinkBase {
	return PackBase(b.Layer(), b.NodeIdx(), b.VoxelIdx(), u)
}

// IsValid reports whether b differs from the all-ones invalid sentinel.
func (b NodeLinkBase) IsValid() bool { return b != InvalidBase }

// NodeLink is the globally unique 64-bit node reference: a tile-coord hash
// concatenated with a NodeLinkBase.
type NodeLink struct {
	TileID uint32
	Base   NodeLinkBase
}

// InvalidLink is the canonical "no link" value.
var InvalidLink = NodeLink{TileID: 0, Base: InvalidBase}

func (l NodeLink) IsValid() bool { return l.Base.IsValid() }

func (l NodeLink) Layer() uint8    { return l.Base.Layer() }
func (l NodeLink) NodeIdx() uint32 { return l.Base.NodeIdx() }
func (l NodeLink) VoxelIdx() uint8 { return l.Base.VoxelIdx() }
func (l NodeLink) HasVoxel() bool  { return l.Base.HasVoxel() }

// ID returns a 64-bit identity with userData forced to 0xF, per spec: two
// links name the same node iff their ID()s match, regardless of the
// transient userData carried for neighbor-face bookkeeping.
func (l NodeLink) ID() uint64 {
	normalized := l.Base.WithUserData(NoUserData)
	return uint64(l.TileID)<<32 | uint64(uint32(normalized))
}

// WithNode returns a link to a different node in the same tile, clearing
// any voxel selection.
func (l NodeLink) WithNode(layer uint8, nodeIdx uint32) NodeLink {
	return NodeLink{TileID: l.TileID, Base: PackBase(layer, nodeIdx, NoVoxel, l.Base.UserData())}
}

// WithVoxel returns a link to a specific voxel within l's leaf node.
func (l NodeLink) WithVoxel(voxelIdx uint8) NodeLink {
	return NodeLink{TileID: l.TileID, Base: PackBase(l.Layer(), l.NodeIdx(), voxelIdx, l.Base.UserData())}
}
