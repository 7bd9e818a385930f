package aggregate

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/ppiankov/gbdrill/internal/facts"
	"github.com/ppiankov/gbdrill/internal/hierarchy"
	"github.com/ppiankov/gbdrill/internal/model"
)

// FactSource supplies the rows an aggregation run sums over
type FactSource interface {
	Each(f facts.Filter, fn func(model.FactRow))
}

// Engine computes per-node values over a cause hierarchy.
// It holds no per-run state, so concurrent calls are safe.
type Engine struct {
	tree  *hierarchy.Hierarchy
	facts FactSource
}

// NewEngine creates an engine over a hierarchy and a fact source
func NewEngine(tree *hierarchy.Hierarchy, source FactSource) *Engine {
	return &Engine{
		tree:  tree,
		facts: source,
	}
}

// Tree returns the hierarchy the engine aggregates over
func (e *Engine) Tree() *hierarchy.Hierarchy {
	return e.tree
}

// Aggregate runs the leaf pass and the roll-up pass for sel.
//
// Covered leaves are claimed with their raw fact sums. Directly selected
// inner nodes (every node when sel.CauseIDs is empty) are claimed with the
// sum of their covered leaves. Each claimed leaf then adds its raw value to
// its ancestors, stopping at the first claimed one.
//
// A selection without a positive location and year matches no facts and
// leaves every node absent.
func (e *Engine) Aggregate(sel model.Selection) *Result {
	res := newResult(e.tree, sel)
	if sel.LocationID <= 0 || sel.Year <= 0 {
		return res
	}

	covered := e.coveredLeaves(sel)
	if covered.IsEmpty() {
		return res
	}
	res.covered = covered

	e.facts.Each(facts.Filter{
		LocationID: sel.LocationID,
		Year:       sel.Year,
		SexIDs:     sel.SexIDs,
		Causes:     covered,
	}, func(row model.FactRow) {
		res.raw[row.CauseID] += row.Value
	})

	// Leaf pass
	leaves := covered.ToArray()
	for _, id := range leaves {
		res.claim(int(id), res.raw[int(id)])
	}

	// Directly selected inner nodes
	if sel.SelectsAll() {
		e.claimAllInner(res)
	} else {
		for _, id := range sel.CauseIDs {
			if !e.tree.Has(id) || e.tree.IsLeaf(id) {
				continue
			}
			var sum float64
			for _, leaf := range e.tree.ExpandToLeaves([]int{id}) {
				sum += res.raw[leaf]
			}
			res.claim(id, sum)
		}
	}

	// Roll-up pass
	for _, id := range leaves {
		value := res.raw[int(id)]
		for _, ancestor := range e.tree.AncestorsOf(int(id)) {
			if res.Claimed(ancestor) {
				break
			}
			res.values[ancestor].Value += value
		}
	}

	return res
}

func (e *Engine) coveredLeaves(sel model.Selection) *roaring.Bitmap {
	if sel.SelectsAll() {
		return e.tree.AllLeavesBitmap()
	}
	return e.tree.LeafBitmap(sel.CauseIDs)
}

// claimAllInner claims every inner node with the sum of its subtree, bottom-up
func (e *Engine) claimAllInner(res *Result) {
	order := e.tree.Order()
	sums := make(map[int]float64, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		node, _ := e.tree.Get(id)
		if node.IsLeaf() {
			sums[id] = res.raw[id]
			continue
		}
		var sum float64
		for _, childID := range node.Children {
			sum += sums[childID]
		}
		sums[id] = sum
		res.claim(id, sum)
	}
}
