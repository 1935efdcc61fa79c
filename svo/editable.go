package svo

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
	"github.com/GunfireGames/Gunfire3DNavigation/navconfig"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
	"github.com/GunfireGames/Gunfire3DNavigation/navnode"
	"github.com/GunfireGames/Gunfire3DNavigation/tile"
)

// EditableSVO layers the batch-edit/finalize protocol (§4.2) over a plain
// SVO: mutations (copyTile/assumeTile/removeTile) stage dirty neighbor
// bits instead of re-linking immediately, and a finalize pass resolves them
// all at once when the outermost batch ends.
type EditableSVO struct {
	*SVO
	dirty      map[navlink.NodeLink]uint8 // per-link bitset of dirty faces
	batchDepth int
}

// NewEditable builds an empty EditableSVO for the given config.
func NewEditable(cfg navconfig.SvoConfig) *EditableSVO {
	return &EditableSVO{SVO: New(cfg), dirty: make(map[navlink.NodeLink]uint8)}
}

// BeginBatchEdit opens (or nests into) a batch of mutations. Finalize does
// not run until the matching outermost EndBatchEdit.
func (e *EditableSVO) BeginBatchEdit() { e.batchDepth++ }

// EndBatchEdit closes one level of batch nesting, running finalize when
// this was the outermost call.
func (e *EditableSVO) EndBatchEdit() error {
	if e.batchDepth == 0 {
		return errors.New("svo: EndBatchEdit called without a matching BeginBatchEdit")
	}
	e.batchDepth--
	if e.batchDepth == 0 {
		e.finalize()
	}
	return nil
}

// InBatch reports whether a batch edit is currently open.
func (e *EditableSVO) InBatch() bool { return e.batchDepth > 0 }

// Reset discards every tile and pending dirty-neighbor state, adopting cfg
// as the new config. Per spec §3's Lifecycle note, tiles are destroyed "on
// reset, config-incompatibility detection, or explicit removal" — this
// covers both: a host calls Reset unconditionally to start a fresh octree,
// or first checks cfg.Compatible(e.Config) and calls Reset only when a
// seed/voxel-size/tile-layer change makes the old tile layout unusable.
func (e *EditableSVO) Reset(cfg navconfig.SvoConfig) {
	e.SVO = New(cfg)
	e.dirty = make(map[navlink.NodeLink]uint8)
	e.batchDepth = 0
}

func (e *EditableSVO) rootLink(t *tile.Tile) navlink.NodeLink {
	return navlink.NodeLink{TileID: t.ID, Base: navlink.PackBase(t.TileLayer(), 0, navlink.NoVoxel, navlink.Self)}
}

// poolFull reports whether installing a brand-new tile (id not already
// resident) would exceed a fixed tile pool, per spec §7's "tile pool full
// with fixedTilePoolSize -> warn once and refuse new tiles" error kind.
// Replacing an already-resident tile is always allowed.
func (e *EditableSVO) poolFull(id uint32) bool {
	if !e.Config.FixedTilePoolSize {
		return false
	}
	if _, exists := e.tiles[id]; exists {
		return false
	}
	return uint32(len(e.tiles)) >= e.Config.TilePoolSize
}

// CopyTile deep-copies src's node data into the tile at src.Coord (creating
// it if necessary), then re-links the new tile's boundary and marks its
// six neighbor tiles dirty. Reports false without installing anything if a
// fixed tile pool is already full.
func (e *EditableSVO) CopyTile(src *tile.Tile, preserveNeighborLinks bool) bool {
	id := TileID(src.Coord)
	if e.poolFull(id) {
		return false
	}
	dst := &tile.Tile{
		ID:       id,
		Coord:    src.Coord,
		NodeInfo: src.NodeInfo,
		Pool:     append([]navnode.Node(nil), src.Pool...),
		Layers:   append([]tile.Layer(nil), src.Layers...),
	}
	e.tiles[id] = dst
	e.linkNeighborsForTileHierarchically(dst, preserveNeighborLinks)
	e.markTileNeighborsDirty(dst.Coord)
	return true
}

// AssumeTile moves src's node pool and layer table into the destination
// tile (no copy), then performs the same re-link/dirty bookkeeping as
// CopyTile. src must not be used by the caller afterward if this returns
// true; on false (fixed pool full) src is left untouched and not installed.
func (e *EditableSVO) AssumeTile(src *tile.Tile, preserveNeighborLinks bool) bool {
	id := TileID(src.Coord)
	if e.poolFull(id) {
		return false
	}
	src.ID = id
	e.tiles[id] = src
	e.linkNeighborsForTileHierarchically(src, preserveNeighborLinks)
	e.markTileNeighborsDirty(src.Coord)
	return true
}

// RemoveTile releases the tile at coord, if any, marking its former
// neighbors dirty so their back-links get cleared on the next finalize.
func (e *EditableSVO) RemoveTile(coord geometry.Vector3i) {
	id := TileID(coord)
	if _, ok := e.tiles[id]; !ok {
		return
	}
	e.markTileNeighborsDirty(coord)
	delete(e.tiles, id)
}

// RemoveTilesByPredicate removes every resident tile whose coordinate
// matches pred, e.g. for streaming-chunk unload (SPEC_FULL §3).
func (e *EditableSVO) RemoveTilesByPredicate(pred func(coord geometry.Vector3i) bool) {
	var toRemove []geometry.Vector3i
	for _, t := range e.tiles {
		if pred(t.Coord) {
			toRemove = append(toRemove, t.Coord)
		}
	}
	for _, c := range toRemove {
		e.RemoveTile(c)
	}
}

func (e *EditableSVO) markTileNeighborsDirty(coord geometry.Vector3i) {
	for f := morton.Face(0); f < morton.FaceCount; f++ {
		dx, dy, dz := f.Unit()
		nc := geometry.Vector3i{X: coord.X + dx, Y: coord.Y + dy, Z: coord.Z + dz}
		nt := e.TileAt(nc)
		if nt == nil {
			continue
		}
		link := e.rootLink(nt)
		e.dirty[link] |= 1 << f.Opposite()
	}
}

// linkNeighborsForTileHierarchically links all 6 faces of a newly
// installed tile's root node, recursing into touching children, per the
// "linkNeighborsForNodeHierarchically" step of copyTile/assumeTile.
func (e *EditableSVO) linkNeighborsForTileHierarchically(t *tile.Tile, invalidOnly bool) {
	link := e.rootLink(t)
	for f := morton.Face(0); f < morton.FaceCount; f++ {
		e.linkNeighborForNodeHierarchically(t, link, f, invalidOnly)
	}
}

// finalize resolves every dirty (link, face) pair, coarsest layer first so
// a node's parent is always already authoritative when used (§4.2).
func (e *EditableSVO) finalize() {
	links := make([]navlink.NodeLink, 0, len(e.dirty))
	for l := range e.dirty {
		links = append(links, l)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Layer() > links[j].Layer() })

	for _, link := range links {
		flags := e.dirty[link]
		t := e.TileByID(link.TileID)
		if t == nil {
			continue
		}
		for f := morton.Face(0); f < morton.FaceCount; f++ {
			if flags&(1<<f) != 0 {
				e.linkNeighborForNodeHierarchically(t, link, f, false)
			}
		}
	}
	e.dirty = make(map[navlink.NodeLink]uint8)
}

// linkNeighborForNodeHierarchically computes link's neighbor across face f
// using the §4.3 rule table, writes it, then recurses into link's children
// that touch f (only descending into active children). When invalidOnly is
// set, an already-populated neighbor slot is left untouched (but its
// children are still visited) — used when copying a tile whose interior
// links survived the copy.
func (e *EditableSVO) linkNeighborForNodeHierarchically(t *tile.Tile, link navlink.NodeLink, f morton.Face, invalidOnly bool) {
	node := t.NodeForLink(link)
	if node == nil {
		return
	}

	if !(invalidOnly && node.HasNeighbor(f)) {
		if link.Layer() == t.TileLayer() {
			e.linkTileRootNeighbor(t, node, f)
		} else {
			e.linkInnerNeighbor(t, node, link, f)
		}
	}
	e.recurseNeighborChildren(t, link, f)
}

func (e *EditableSVO) linkTileRootNeighbor(t *tile.Tile, node *navnode.Node, f morton.Face) {
	dx, dy, dz := f.Unit()
	nc := geometry.Vector3i{X: t.Coord.X + dx, Y: t.Coord.Y + dy, Z: t.Coord.Z + dz}
	nt := e.TileAt(nc)
	if nt == nil {
		node.SetNeighbor(f, navlink.InvalidBase)
		return
	}
	node.SetNeighbor(f, navlink.PackBase(nt.TileLayer(), 0, navlink.NoVoxel, uint8(f)))
}

func (e *EditableSVO) linkInnerNeighbor(t *tile.Tile, node *navnode.Node, link navlink.NodeLink, f morton.Face) {
	sibling := morton.SiblingIndex(morton.Code(link.NodeIdx()))
	entry := neighborTable[sibling][f]

	if entry.parentFace == selfFace {
		neighborIdx := (link.NodeIdx() &^ 7) | uint32(entry.sibling)
		node.SetNeighbor(f, navlink.PackBase(link.Layer(), neighborIdx, navlink.NoVoxel, navlink.Self))
		return
	}

	parentIdx, _ := tile.ParentIdx(link.NodeIdx())
	parentLayer := link.Layer() + 1
	parentNode := t.NodeForLink(t.LinkFor(parentLayer, parentIdx))
	if parentNode == nil {
		node.SetNeighbor(f, navlink.InvalidBase)
		return
	}
	parentNeighborBase := parentNode.Neighbor(entry.parentFace)
	if !parentNeighborBase.IsValid() {
		node.SetNeighbor(f, navlink.InvalidBase)
		return
	}

	neighborTile, neighborNode := e.resolveNeighborBase(t, parentNeighborBase)
	if neighborTile == nil || neighborNode == nil {
		node.SetNeighbor(f, navlink.InvalidBase)
		return
	}

	userData := navlink.Self
	if neighborTile != t {
		userData = uint8(f)
	}

	if parentNeighborBase.Layer() > 0 && neighborNode.State() == navnode.PartiallyBlocked && !neighborNode.IsLeaf() {
		childLayer := parentNeighborBase.Layer() - 1
		childIdx := tile.ChildBase(parentNeighborBase.NodeIdx()) + uint32(entry.sibling)
		node.SetNeighbor(f, navlink.PackBase(childLayer, childIdx, navlink.NoVoxel, userData))
		return
	}
	node.SetNeighbor(f, navlink.PackBase(parentNeighborBase.Layer(), parentNeighborBase.NodeIdx(), navlink.NoVoxel, userData))
}

// resolveNeighborBase follows a raw NodeLinkBase neighbor slot (which
// never carries a tile ID) back to a concrete tile+node, using the owning
// tile's own coordinate to re-derive a cross-tile reference's tile ID.
func (e *EditableSVO) resolveNeighborBase(owner *tile.Tile, base navlink.NodeLinkBase) (*tile.Tile, *navnode.Node) {
	if !base.IsValid() {
		return nil, nil
	}
	if navnode.NeighborSameTile(base) {
		return owner, owner.NodeForLink(navlink.NodeLink{TileID: owner.ID, Base: base})
	}
	face := morton.Face(base.UserData())
	dx, dy, dz := face.Unit()
	coord := geometry.Vector3i{X: owner.Coord.X + dx, Y: owner.Coord.Y + dy, Z: owner.Coord.Z + dz}
	nt := e.TileAt(coord)
	if nt == nil {
		return nil, nil
	}
	return nt, nt.NodeForLink(navlink.NodeLink{TileID: nt.ID, Base: base})
}

// recurseNeighborChildren visits the (up to 4) children of link that touch
// face f, applying the same neighbor link, but only for active children —
// collapsed (Open/Blocked) nodes and leaves have no node children to visit.
func (e *EditableSVO) recurseNeighborChildren(t *tile.Tile, link navlink.NodeLink, f morton.Face) {
	node := t.NodeForLink(link)
	if node == nil || node.IsLeaf() || node.State() != navnode.PartiallyBlocked {
		return
	}
	childLayer := link.Layer() - 1
	base := tile.ChildBase(link.NodeIdx())
	for _, sib := range morton.ChildrenTouchingFace(f) {
		childIdx := base + uint32(sib)
		child := t.NodeAt(childLayer, childIdx)
		if !child.IsActive() {
			continue
		}
		e.linkNeighborForNodeHierarchically(t, t.LinkFor(childLayer, childIdx), f, false)
	}
}

