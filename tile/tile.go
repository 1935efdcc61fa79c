// Package tile implements the per-tile node pool: a contiguous array of
// navnode.Node values laid out as descending-resolution layers, indexed by
// each node's Morton code within its layer.
package tile

import (
	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
	"github.com/GunfireGames/Gunfire3DNavigation/navnode"
)

// Layer describes one layer's contiguous slice of the pool.
type Layer struct {
	StartNode uint32
	NumNodes  uint32
	MaxNodes  uint32
}

// Tile owns one top-level SVO cell's node storage.
type Tile struct {
	ID       uint32
	Coord    geometry.Vector3i
	NodeInfo navnode.Node // the tile-layer root, stored outside the pool
	Pool     []navnode.Node
	Layers   []Layer // index 0 = leaf layer .. index TileLayer-1 = topmost pooled layer
}

// New allocates an empty tile sized for tileLayer layers (layer 0 = leaf,
// .. layer tileLayer-1 = the layer directly under the tile root), with
// layers[k].MaxNodes = 8^(tileLayer-k), laid out top-to-bottom (smallest
// MaxNodes first) as spec §3 requires.
func New(id uint32, coord geometry.Vector3i, tileLayer uint8) *Tile {
	layers := make([]Layer, tileLayer)
	var start uint32
	// layers are stored top layer (smallest) first, leaf layer (largest)
	// last; iterate from the coarsest pooled layer (tileLayer-1) down to 0.
	for depth := 0; depth < int(tileLayer); depth++ {
		layerIdx := int(tileLayer) - 1 - depth // pooled layer number, descending
		maxNodes := pow8(uint8(depth) + 1)
		layers[layerIdx] = Layer{StartNode: start, NumNodes: 0, MaxNodes: maxNodes}
		start += maxNodes
	}
	t := &Tile{
		ID:     id,
		Coord:  coord,
		Layers: layers,
		Pool:   make([]navnode.Node, start),
	}
	rootLink := navlink.NodeLink{TileID: id, Base: navlink.PackBase(tileLayer, 0, navlink.NoVoxel, navlink.Self)}
	t.NodeInfo = navnode.NewInner(rootLink, true, navnode.Open)
	return t
}

func pow8(n uint8) uint32 {
	v := uint32(1)
	for i := uint8(0); i < n; i++ {
		v *= 8
	}
	return v
}

// TileLayer returns the number of pooled layers (the root, layer
// len(Layers), lives in NodeInfo outside the pool).
func (t *Tile) TileLayer() uint8 { return uint8(len(t.Layers)) }

// NodeAt returns a pointer to the pool slot for (layer, nodeIdx). layer must
// be < TileLayer(); the tile root is accessed via &t.NodeInfo instead.
func (t *Tile) NodeAt(layer uint8, nodeIdx uint32) *navnode.Node {
	l := t.Layers[layer]
	return &t.Pool[l.StartNode+nodeIdx]
}

// Root returns the tile root (layer TileLayer()), which is stored in
// NodeInfo outside the pool.
func (t *Tile) Root() *navnode.Node { return &t.NodeInfo }

// NodeForLink resolves a NodeLink that targets this tile into a node
// pointer. Returns nil if the link's layer is out of range.
func (t *Tile) NodeForLink(link navlink.NodeLink) *navnode.Node {
	layer := link.Layer()
	if uint8(layer) == t.TileLayer() {
		return &t.NodeInfo
	}
	if uint8(layer) > t.TileLayer() {
		return nil
	}
	return t.NodeAt(layer, link.NodeIdx())
}

// LinkFor builds a NodeLink identifying (layer, nodeIdx) within this tile.
func (t *Tile) LinkFor(layer uint8, nodeIdx uint32) navlink.NodeLink {
	return navlink.NodeLink{TileID: t.ID, Base: navlink.PackBase(layer, nodeIdx, navlink.NoVoxel, navlink.Self)}
}

// ActivateNode marks the pool slot at (layer, nodeIdx) active by writing a
// valid self link, and bumps that layer's NumNodes bookkeeping counter if
// this is a newly-activated slot beyond the previous high-water mark. The
// generator activates nodes in ascending Morton order within a layer, so
// NumNodes tracks the contiguous "used" prefix needed by Trim.
func (t *Tile) ActivateNode(layer uint8, nodeIdx uint32, n navnode.Node) {
	*t.NodeAt(layer, nodeIdx) = n
	l := &t.Layers[layer]
	if nodeIdx+1 > l.NumNodes {
		l.NumNodes = nodeIdx + 1
	}
}

// Trim frees trailing inactive slots in every layer and shifts lower
// layers' StartNode so the pool remains contiguous and top layer first, per
// invariant 7. It reports whether no pooled node survived (the tile root has
// no children, fully Open or Blocked); the pool is then already empty.
func (t *Tile) Trim() (emptyRoot bool) {
	newLayers := make([]Layer, len(t.Layers))
	var newPool []navnode.Node
	var cursor uint32
	for i := int(t.TileLayer()) - 1; i >= 0; i-- {
		layer := uint8(i)
		old := t.Layers[layer]
		used := old.NumNodes
		for used > 0 && !t.Pool[old.StartNode+used-1].IsActive() {
			used--
		}
		newLayers[layer] = Layer{StartNode: cursor, NumNodes: used, MaxNodes: old.MaxNodes}
		newPool = append(newPool, t.Pool[old.StartNode:old.StartNode+used]...)
		cursor += used
	}
	t.Layers = newLayers
	t.Pool = newPool

	if len(t.Pool) == 0 {
		return true
	}
	return false
}

// AllActiveNodes iterates every active node in the pool, calling fn with
// its layer and in-layer index.
func (t *Tile) AllActiveNodes(fn func(layer uint8, nodeIdx uint32, n *navnode.Node)) {
	for layer := uint8(0); layer < t.TileLayer(); layer++ {
		l := t.Layers[layer]
		for i := uint32(0); i < l.NumNodes; i++ {
			n := &t.Pool[l.StartNode+i]
			if n.IsActive() {
				fn(layer, i, n)
			}
		}
	}
}

// ChildBase returns the Morton index of child 0 of (layer, nodeIdx); valid
// only when layer > 0 (the node has a finer layer below it).
func ChildBase(nodeIdx uint32) uint32 { return uint32(morton.ChildBase(morton.Code(nodeIdx))) }

// ParentIdx returns the Morton index of (layer, nodeIdx)'s parent one layer
// up, and the child's sibling position in [0,8).
func ParentIdx(nodeIdx uint32) (parentIdx uint32, sibling uint8) {
	p, s := morton.ParentOf(morton.Code(nodeIdx))
	return uint32(p), s
}
