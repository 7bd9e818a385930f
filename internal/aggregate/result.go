package aggregate

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/ppiankov/gbdrill/internal/hierarchy"
	"github.com/ppiankov/gbdrill/internal/model"
)

// NodeValue is the outcome of one aggregation run for a single cause
type NodeValue struct {
	Value   float64 `json:"value"`
	Claimed bool    `json:"claimed"` // Set directly from fact data rather than rolled up
}

// Result holds per-node values for one selection.
// A Result is owned by the caller that requested it; it is never shared between runs.
type Result struct {
	Selection model.Selection
	values    map[int]*NodeValue
	raw       map[int]float64 // Leaf raw values for covered leaves
	covered   *roaring.Bitmap
}

func newResult(tree *hierarchy.Hierarchy, sel model.Selection) *Result {
	r := &Result{
		Selection: sel,
		values:    make(map[int]*NodeValue, tree.Len()),
		raw:       make(map[int]float64),
		covered:   roaring.New(),
	}
	for _, id := range tree.Order() {
		r.values[id] = &NodeValue{}
	}
	return r
}

// Reset zeroes every node and forgets claimed flags and raw values
func (r *Result) Reset() {
	for _, v := range r.values {
		v.Value = 0
		v.Claimed = false
	}
	for id := range r.raw {
		delete(r.raw, id)
	}
	r.covered.Clear()
}

// Get returns the value of id; unknown ids report a zero value
func (r *Result) Get(id int) NodeValue {
	if v, ok := r.values[id]; ok {
		return *v
	}
	return NodeValue{}
}

// Value returns the rolled-up value of id
func (r *Result) Value(id int) float64 {
	return r.Get(id).Value
}

// Claimed reports whether id's value was set directly
func (r *Result) Claimed(id int) bool {
	return r.Get(id).Claimed
}

// Present reports whether id has a visual representation under the selection:
// claimed nodes are shown even at zero, unclaimed ones only when non-zero.
func (r *Result) Present(id int) bool {
	v := r.Get(id)
	return v.Claimed || v.Value != 0
}

// Raw returns the fact sum recorded for a covered leaf
func (r *Result) Raw(leafID int) float64 {
	return r.raw[leafID]
}

// Covered returns a copy of the leaves the selection covered
func (r *Result) Covered() *roaring.Bitmap {
	return r.covered.Clone()
}

// Values returns a copy of every node's value
func (r *Result) Values() map[int]NodeValue {
	out := make(map[int]NodeValue, len(r.values))
	for id, v := range r.values {
		out[id] = *v
	}
	return out
}

func (r *Result) claim(id int, value float64) {
	v := r.values[id]
	v.Value = value
	v.Claimed = true
}
