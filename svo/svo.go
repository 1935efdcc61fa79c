// Package svo implements the sparse voxel octree's read path: the tile map,
// point-to-node and node-to-bounds resolution, and raycasting. EditableSVO
// (in editable.go) layers the batch-edit/finalize protocol on top.
package svo

import (
	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
	"github.com/GunfireGames/Gunfire3DNavigation/navconfig"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
	"github.com/GunfireGames/Gunfire3DNavigation/navnode"
	"github.com/GunfireGames/Gunfire3DNavigation/tile"
)

// SVO owns every tile making up one navigable volume. Tiles are keyed by a
// hash of their integer tile coordinate (see TileID), a plain Go map taking
// the place of the teacher's slice-plus-morton-index scheme since Go maps
// already give O(1) amortized lookup without a parallel index structure.
type SVO struct {
	Config navconfig.SvoConfig
	tiles  map[uint32]*tile.Tile
}

// New builds an empty SVO for the given config.
func New(cfg navconfig.SvoConfig) *SVO {
	return &SVO{Config: cfg, tiles: make(map[uint32]*tile.Tile, cfg.TilePoolSize)}
}

// TileID hashes a tile coordinate into the 32-bit key tiles are stored
// under. Uses an FNV-1a style mix over the three axis values, each taken as
// its two's-complement uint32 so negative coordinates hash like any other.
func TileID(coord geometry.Vector3i) uint32 {
	const prime = 16777619
	h := uint32(2166136261)
	h = (h ^ uint32(coord.X)) * prime
	h = (h ^ uint32(coord.Y)) * prime
	h = (h ^ uint32(coord.Z)) * prime
	return h
}

// TileAt returns the tile at coord, or nil if none exists.
func (s *SVO) TileAt(coord geometry.Vector3i) *tile.Tile {
	return s.tiles[TileID(coord)]
}

// TileByID returns the tile with the given ID, or nil.
func (s *SVO) TileByID(id uint32) *tile.Tile { return s.tiles[id] }

// Tiles returns every resident tile, for iteration by callers such as
// persist's writer or FindClosestNode's tile sweep.
func (s *SVO) Tiles() map[uint32]*tile.Tile { return s.tiles }

// TileCoord converts a world point into the tile coordinate containing it,
// per §4.1: floor((point - seed) / tileEdge), so each tile covers
// [seed + coord*tileEdge, seed + (coord+1)*tileEdge) as TileBoundsFor gives.
func (s *SVO) TileCoord(point geometry.Vector3) geometry.Vector3i {
	d := s.Config.Derive()
	rel := point.Sub(s.Config.Seed)
	return geometry.Vector3i{
		X: int32(floorDiv(rel.X, d.TileEdge)),
		Y: int32(floorDiv(rel.Y, d.TileEdge)),
		Z: int32(floorDiv(rel.Z, d.TileEdge)),
	}
}

func floorDiv(v, edge float32) int32 {
	q := v / edge
	i := int32(q)
	if q < float32(i) {
		i--
	}
	return i
}

// TileBounds returns the world-space AABB of the tile at coord.
func (s *SVO) TileBounds(coord geometry.Vector3i) geometry.AABB {
	return TileBoundsFor(s.Config, coord)
}

// TileBoundsFor is TileBounds without a live SVO, for callers (namely the
// tile generator) that only need the pure coord-to-AABB math a config
// determines and shouldn't have to stand up an SVO instance for it.
func TileBoundsFor(cfg navconfig.SvoConfig, coord geometry.Vector3i) geometry.AABB {
	d := cfg.Derive()
	min := geometry.Vector3{
		X: cfg.Seed.X + float32(coord.X)*d.TileEdge,
		Y: cfg.Seed.Y + float32(coord.Y)*d.TileEdge,
		Z: cfg.Seed.Z + float32(coord.Z)*d.TileEdge,
	}
	return geometry.AABB{Min: min, Max: min.Add(geometry.Vector3{X: d.TileEdge, Y: d.TileEdge, Z: d.TileEdge})}
}

// LinkForLocation resolves a world point into the node (or voxel) link that
// contains it, per §4.1. Returns an invalid link if no tile covers point, or
// if the point lands in a blocked region and allowBlocked is false.
func (s *SVO) LinkForLocation(point geometry.Vector3, allowBlocked bool) navlink.NodeLink {
	coord := s.TileCoord(point)
	t := s.TileAt(coord)
	if t == nil {
		return navlink.InvalidLink
	}
	tb := s.TileBounds(coord)
	rel := point.Sub(tb.Min)

	node := t.Root()
	link := navlink.NodeLink{TileID: t.ID, Base: navlink.PackBase(t.TileLayer(), 0, navlink.NoVoxel, navlink.Self)}
	layer := t.TileLayer()
	nodeIdx := uint32(0)
	leafEdge := s.Config.Derive().LeafEdge

	for {
		switch node.State() {
		case navnode.Blocked:
			if allowBlocked {
				return link
			}
			return navlink.InvalidLink
		case navnode.Open:
			return link
		case navnode.PartiallyBlocked:
			if node.IsLeaf() {
				vc := voxelCoordInLeaf(rel, layer, nodeIdx, leafEdge)
				voxelIdx := uint8(morton.Encode(morton.Coord{X: vc.X, Y: vc.Y, Z: vc.Z}))
				if node.Voxels().Test(uint(voxelIdx)) {
					if allowBlocked {
						return link.WithVoxel(voxelIdx)
					}
					return navlink.InvalidLink
				}
				return link.WithVoxel(voxelIdx)
			}
			// Descend: compute the child index from rel at the child's
			// resolution relative to this node's own min corner.
			childLayer := layer - 1
			childIdx := childIndexFromPoint(rel, layer, nodeIdx, leafEdge)
			node = t.NodeAt(childLayer, tile.ChildBase(nodeIdx)+uint32(childIdx))
			layer = childLayer
			nodeIdx = tile.ChildBase(nodeIdx) + uint32(childIdx)
			link = t.LinkFor(layer, nodeIdx)
		}
	}
}

// nodeEdge returns the world-space edge length of a node at the given
// layer (layer 0 = leaf, edge = leafEdge).
func nodeEdge(layer uint8, leafEdge float32) float32 {
	return leafEdge * float32(uint32(1)<<layer)
}

// nodeMinCorner returns the min corner of (layer, nodeIdx) relative to the
// tile's min corner, using the Morton decode of nodeIdx at that layer.
func nodeMinCorner(layer uint8, nodeIdx uint32, leafEdge float32) geometry.Vector3 {
	c := morton.Decode(morton.Code(nodeIdx))
	edge := nodeEdge(layer, leafEdge)
	return geometry.Vector3{X: float32(c.X) * edge, Y: float32(c.Y) * edge, Z: float32(c.Z) * edge}
}

// childIndexFromPoint computes which of a node's 8 children contains rel,
// based on which half of the node's extent rel falls in on each axis.
func childIndexFromPoint(rel geometry.Vector3, layer uint8, nodeIdx uint32, leafEdge float32) uint8 {
	min := nodeMinCorner(layer, nodeIdx, leafEdge)
	half := nodeEdge(layer, leafEdge) / 2
	var idx uint8
	if rel.X-min.X >= half {
		idx |= 1
	}
	if rel.Y-min.Y >= half {
		idx |= 2
	}
	if rel.Z-min.Z >= half {
		idx |= 4
	}
	return idx
}

// voxelCoordInLeaf computes the [0..3]^3 voxel coordinate of rel within the
// leaf at (layer=0, nodeIdx), clamping a -1 edge case up to 0 per §4.1.
func voxelCoordInLeaf(rel geometry.Vector3, layer uint8, nodeIdx uint32, leafEdge float32) morton.Coord {
	min := nodeMinCorner(layer, nodeIdx, leafEdge)
	voxelSize := leafEdge / 4
	vx := int32((rel.X - min.X) / voxelSize)
	vy := int32((rel.Y - min.Y) / voxelSize)
	vz := int32((rel.Z - min.Z) / voxelSize)
	if vx == -1 {
		vx = 0
	}
	if vy == -1 {
		vy = 0
	}
	if vz == -1 {
		vz = 0
	}
	clamp := func(v int32) uint32 {
		if v < 0 {
			return 0
		}
		if v > 3 {
			return 3
		}
		return uint32(v)
	}
	return morton.Coord{X: clamp(vx), Y: clamp(vy), Z: clamp(vz)}
}

// BoundsForLink returns the world-space AABB of the node or voxel a link
// names, per §4.1.
func (s *SVO) BoundsForLink(link navlink.NodeLink) (geometry.AABB, bool) {
	t := s.TileByID(link.TileID)
	if t == nil {
		return geometry.AABB{}, false
	}
	d := s.Config.Derive()
	tb := s.TileBounds(tileCoordFromID(t))
	layer := link.Layer()
	min := tb.Min.Add(nodeMinCorner(layer, link.NodeIdx(), d.LeafEdge))
	edge := nodeEdge(layer, d.LeafEdge)

	if link.HasVoxel() {
		vc := morton.Decode(morton.Code(link.VoxelIdx()))
		voxelSize := edge / 4
		vmin := min.Add(geometry.Vector3{X: float32(vc.X) * voxelSize, Y: float32(vc.Y) * voxelSize, Z: float32(vc.Z) * voxelSize})
		return geometry.AABB{Min: vmin, Max: vmin.Add(geometry.Vector3{X: voxelSize, Y: voxelSize, Z: voxelSize})}, true
	}
	return geometry.AABB{Min: min, Max: min.Add(geometry.Vector3{X: edge, Y: edge, Z: edge})}, true
}

// tileCoordFromID recovers a tile's coordinate from its stored Coord field;
// kept as a helper so callers needing bounds-by-link never have to hash
// back from the ID.
func tileCoordFromID(t *tile.Tile) geometry.Vector3i { return t.Coord }

// NodeForLink dereferences link into the node (or the leaf owning a voxel
// link) it names, or nil if the tile is absent. This is the "getNodeFromLink"
// primitive spec §4.5's search core walks neighbors through.
func (s *SVO) NodeForLink(link navlink.NodeLink) *navnode.Node {
	t := s.TileByID(link.TileID)
	if t == nil {
		return nil
	}
	return t.NodeForLink(link)
}
