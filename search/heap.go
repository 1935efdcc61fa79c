package search

import "container/heap"

// OpenList is a binary min-heap over pool node indices, ordered by FCost,
// mirroring the teacher's query/heap.go nodeHeap but indexing into a
// caller-owned Pool instead of holding its own sync.Pool-backed records
// (the spec's node pool already owns node storage; the heap here only
// orders references into it).
type OpenList struct {
	pool    *Pool
	indices []int32
}

// NewOpenList builds an open list backed by pool, with room for capacity
// heap entries reserved up front.
func NewOpenList(pool *Pool, capacity uint32) *OpenList {
	return &OpenList{pool: pool, indices: make([]int32, 0, capacity)}
}

// Reset empties the heap for reuse across queries.
func (o *OpenList) Reset() { o.indices = o.indices[:0] }

// Len reports the number of nodes currently on the open list.
func (o *OpenList) Len() int { return len(o.indices) }

// Push adds idx to the open list. The node must not already be open.
func (o *OpenList) Push(idx int32) { heap.Push((*heapAdapter)(o), idx) }

// Fix re-establishes heap order for idx after its FCost changed in place.
func (o *OpenList) Fix(idx int32) {
	heap.Fix((*heapAdapter)(o), o.pool.GetByIndex(idx).heapIndex)
}

// Pop removes and returns the lowest-FCost node index.
func (o *OpenList) Pop() int32 {
	return heap.Pop((*heapAdapter)(o)).(int32)
}

// heapAdapter implements container/heap.Interface directly over an
// OpenList's indices slice, looking up each index's FCost through the
// shared Pool on every comparison rather than duplicating it in the heap
// element (the pool record is the single source of truth, matching the
// spec's "SearchNode stores fCost" model).
type heapAdapter OpenList

func (h *heapAdapter) Len() int { return len(h.indices) }
func (h *heapAdapter) Less(i, j int) bool {
	return h.pool.GetByIndex(h.indices[i]).FCost < h.pool.GetByIndex(h.indices[j]).FCost
}
func (h *heapAdapter) Swap(i, j int) {
	h.indices[i], h.indices[j] = h.indices[j], h.indices[i]
	h.pool.GetByIndex(h.indices[i]).heapIndex = i
	h.pool.GetByIndex(h.indices[j]).heapIndex = j
}
func (h *heapAdapter) Push(x interface{}) {
	idx := x.(int32)
	h.pool.GetByIndex(idx).heapIndex = len(h.indices)
	h.indices = append(h.indices, idx)
}
func (h *heapAdapter) Pop() interface{} {
	old := h.indices
	n := len(old)
	v := old[n-1]
	h.pool.GetByIndex(v).heapIndex = -1
	h.indices = old[:n-1]
	return v
}
