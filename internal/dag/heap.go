package dag

import "container/heap"

// nameHeap is a min-heap of node indices ordered by node name.
type nameHeap struct {
	names []string
	items []int
}

func newNameHeap(names []string) *nameHeap {
	return &nameHeap{names: names}
}

func (h *nameHeap) Len() int           { return len(h.items) }
func (h *nameHeap) Less(i, j int) bool { return h.names[h.items[i]] < h.names[h.items[j]] }
func (h *nameHeap) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *nameHeap) Push(x any)         { h.items = append(h.items, x.(int)) }
func (h *nameHeap) Pop() any {
	old := h.items
	x := old[len(old)-1]
	h.items = old[:len(old)-1]
	return x
}

func (h *nameHeap) push(v int) { heap.Push(h, v) }
func (h *nameHeap) pop() int   { return heap.Pop(h).(int) }
func (h *nameHeap) len() int   { return h.Len() }
