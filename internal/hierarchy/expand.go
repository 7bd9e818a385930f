package hierarchy

import (
	"github.com/RoaringBitmap/roaring"
)

// ExpandToDescendants returns ids together with every descendant of each id.
// Unknown ids are ignored. The result is sorted and free of duplicates.
func (h *Hierarchy) ExpandToDescendants(ids []int) []int {
	return bitmapToInts(h.DescendantBitmap(ids))
}

// ExpandToLeaves returns the leaves covered by ids: a leaf maps to itself,
// an inner node to its leaf descendants. Unknown ids are ignored.
// The result is sorted and free of duplicates.
func (h *Hierarchy) ExpandToLeaves(ids []int) []int {
	return bitmapToInts(h.LeafBitmap(ids))
}

// DescendantBitmap is ExpandToDescendants as a bitmap
func (h *Hierarchy) DescendantBitmap(ids []int) *roaring.Bitmap {
	bm := roaring.New()
	for _, id := range ids {
		node, ok := h.nodes[id]
		if !ok {
			continue
		}
		bm.Add(uint32(id))
		h.walk(node, func(n *Node) {
			bm.Add(uint32(n.ID))
		})
	}
	return bm
}

// LeafBitmap is ExpandToLeaves as a bitmap
func (h *Hierarchy) LeafBitmap(ids []int) *roaring.Bitmap {
	bm := roaring.New()
	for _, id := range ids {
		node, ok := h.nodes[id]
		if !ok {
			continue
		}
		if node.IsLeaf() {
			bm.Add(uint32(id))
			continue
		}
		h.walk(node, func(n *Node) {
			if n.IsLeaf() {
				bm.Add(uint32(n.ID))
			}
		})
	}
	return bm
}

// AllLeavesBitmap returns every leaf of the hierarchy
func (h *Hierarchy) AllLeavesBitmap() *roaring.Bitmap {
	bm := roaring.New()
	for _, id := range h.leaves {
		bm.Add(uint32(id))
	}
	return bm
}

// walk visits every strict descendant of node depth-first
func (h *Hierarchy) walk(node *Node, visit func(*Node)) {
	for _, childID := range node.Children {
		child := h.nodes[childID]
		visit(child)
		h.walk(child, visit)
	}
}

func bitmapToInts(bm *roaring.Bitmap) []int {
	out := make([]int, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}
