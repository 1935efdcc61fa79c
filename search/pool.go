// Package search implements the A* core shared by every navquery
// derivative (spec §4.5): a fixed-capacity node pool indexed by a Go map
// on the link's identity, and a binary min-heap open
// list over the same records. Ported from the teacher's heap-plus-map
// shape in query/heap.go and octree/astar_nodebased.go, generalized to the
// spec's node-pool/open-list split and its heterogeneous-resolution
// neighbor expansion.
package search

import (
	"github.com/GunfireGames/Gunfire3DNavigation/geometry"
	"github.com/GunfireGames/Gunfire3DNavigation/morton"
	"github.com/GunfireGames/Gunfire3DNavigation/navlink"
)

// Flag bits for a SearchNode's Flags field.
const (
	FlagOpen uint8 = 1 << iota
	FlagClosed
)

// Node is one pooled search record, matching the fields spec §4.5 names.
type Node struct {
	Link               navlink.NodeLink
	ParentIndex        int32 // index into Pool.nodes, or -1 for the start node
	Flags              uint8
	FCost, GCost       float32
	Heuristic          float32
	NeighborFace       morton.Face
	PortalLocation     geometry.Vector3
	TravelDistSquared  float32
	heapIndex          int // -1 when not in the heap
}

// Pool is a fixed-capacity arena of Node records, indexed by a Go map
// keyed on navlink.NodeLink.ID(). Insertion past
// capacity fails, surfaced by callers as the OutOfNodes status bit.
type Pool struct {
	nodes []Node
	index map[uint64]int32
}

// NewPool allocates a pool with room for capacity nodes.
func NewPool(capacity uint32) *Pool {
	return &Pool{
		nodes: make([]Node, 0, capacity),
		index: make(map[uint64]int32, capacity),
	}
}

// Reset empties the pool for reuse across queries without reallocating.
func (p *Pool) Reset() {
	p.nodes = p.nodes[:0]
	for k := range p.index {
		delete(p.index, k)
	}
}

// Cap returns the pool's fixed capacity.
func (p *Pool) Cap() int { return cap(p.nodes) }

// Len returns the number of nodes currently allocated.
func (p *Pool) Len() int { return len(p.nodes) }

// Get returns the node allocated for link, and whether it exists.
func (p *Pool) Get(link navlink.NodeLink) (*Node, bool) {
	idx, ok := p.index[link.ID()]
	if !ok {
		return nil, false
	}
	return &p.nodes[idx], true
}

// GetByIndex returns a pointer to the pool slot at idx.
func (p *Pool) GetByIndex(idx int32) *Node { return &p.nodes[idx] }

// Alloc inserts a new node for link, returning it and its pool index, or
// ok=false if the pool is at capacity.
func (p *Pool) Alloc(link navlink.NodeLink) (*Node, int32, bool) {
	if len(p.nodes) >= cap(p.nodes) {
		return nil, 0, false
	}
	idx := int32(len(p.nodes))
	p.nodes = append(p.nodes, Node{Link: link, ParentIndex: -1, heapIndex: -1})
	p.index[link.ID()] = idx
	return &p.nodes[idx], idx, true
}

// IndexOf returns the pool index of link's node, or -1 if absent.
func (p *Pool) IndexOf(link navlink.NodeLink) int32 {
	idx, ok := p.index[link.ID()]
	if !ok {
		return -1
	}
	return idx
}
