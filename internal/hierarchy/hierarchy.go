package hierarchy

import (
	"errors"
	"fmt"

	"github.com/ppiankov/gbdrill/internal/model"
)

var (
	// ErrMalformedHierarchy is returned by Build when ids repeat or parent links are inconsistent
	ErrMalformedHierarchy = errors.New("malformed cause hierarchy")

	// ErrNotFound is returned when a cause id is not part of the hierarchy
	ErrNotFound = errors.New("cause not found")
)

// Node is a single cause in the hierarchy.
// Nodes are immutable once Build returns; parent and children are stored as ids.
type Node struct {
	ID       int
	Name     string
	Code     string
	ParentID int   // 0 for roots
	Children []int // Source order
	Depth    int   // 0 for roots
}

// IsRoot reports whether the node has no parent
func (n *Node) IsRoot() bool {
	return n.ParentID == 0
}

// IsLeaf reports whether the node has no children
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Hierarchy is a read-only forest of causes indexed by id.
// It is safe for concurrent use after Build.
type Hierarchy struct {
	nodes  map[int]*Node
	order  []int // Depth-first pre-order
	roots  []int
	leaves []int
	defs   []model.CauseDef
}

// Option configures Build
type Option func(*buildOptions)

type buildOptions struct {
	denied map[int]bool
}

// WithDenied drops the given ids, and everything beneath them, before the tree is wired
func WithDenied(ids ...int) Option {
	return func(o *buildOptions) {
		for _, id := range ids {
			o.denied[id] = true
		}
	}
}

// Build creates a hierarchy from a nested cause definition
func Build(defs []model.CauseDef, opts ...Option) (*Hierarchy, error) {
	o := &buildOptions{denied: make(map[int]bool)}
	for _, opt := range opts {
		opt(o)
	}

	h := &Hierarchy{
		nodes: make(map[int]*Node),
		defs:  filterDenied(defs, o.denied),
	}

	if err := h.wire(h.defs, 0, 0); err != nil {
		return nil, err
	}

	for _, id := range h.order {
		if h.nodes[id].IsLeaf() {
			h.leaves = append(h.leaves, id)
		}
	}

	return h, nil
}

// wire walks the nesting depth-first, creating one node per record
func (h *Hierarchy) wire(defs []model.CauseDef, parentID int, depth int) error {
	for _, def := range defs {
		if def.ID <= 0 {
			return fmt.Errorf("%w: invalid id %d (%q)", ErrMalformedHierarchy, def.ID, def.Name)
		}
		if _, exists := h.nodes[def.ID]; exists {
			return fmt.Errorf("%w: duplicate id %d", ErrMalformedHierarchy, def.ID)
		}

		node := &Node{
			ID:       def.ID,
			Name:     def.Name,
			Code:     def.Code,
			ParentID: parentID,
			Depth:    depth,
		}

		if parentID == 0 {
			h.roots = append(h.roots, node.ID)
		} else {
			parent, ok := h.nodes[parentID]
			if !ok {
				return fmt.Errorf("%w: node %d references missing parent %d", ErrMalformedHierarchy, def.ID, parentID)
			}
			parent.Children = append(parent.Children, node.ID)
		}

		h.nodes[node.ID] = node
		h.order = append(h.order, node.ID)

		if err := h.wire(def.Subcauses, node.ID, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// filterDenied returns a deep copy of defs without denied records and their subtrees
func filterDenied(defs []model.CauseDef, denied map[int]bool) []model.CauseDef {
	out := make([]model.CauseDef, 0, len(defs))
	for _, def := range defs {
		if denied[def.ID] {
			continue
		}
		def.Subcauses = filterDenied(def.Subcauses, denied)
		out = append(out, def)
	}
	return out
}

// Get returns the node with the given id
func (h *Hierarchy) Get(id int) (*Node, error) {
	node, ok := h.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return node, nil
}

// Has reports whether id is part of the hierarchy
func (h *Hierarchy) Has(id int) bool {
	_, ok := h.nodes[id]
	return ok
}

// Len returns the number of nodes
func (h *Hierarchy) Len() int {
	return len(h.nodes)
}

// Roots returns the top-level ids in source order
func (h *Hierarchy) Roots() []int {
	return h.roots
}

// Leaves returns every leaf id in depth-first order
func (h *Hierarchy) Leaves() []int {
	return h.leaves
}

// Order returns every id in depth-first pre-order
func (h *Hierarchy) Order() []int {
	return h.order
}

// Defs returns the nested definition the hierarchy was built from, after deny-list filtering
func (h *Hierarchy) Defs() []model.CauseDef {
	return h.defs
}

// IsLeaf reports whether id exists and has no children
func (h *Hierarchy) IsLeaf(id int) bool {
	node, ok := h.nodes[id]
	return ok && node.IsLeaf()
}

// AncestorsOf returns the ancestors of id from its immediate parent up to its root.
// Unknown ids and roots yield nil.
func (h *Hierarchy) AncestorsOf(id int) []int {
	node, ok := h.nodes[id]
	if !ok {
		return nil
	}

	var ancestors []int
	for node.ParentID != 0 {
		ancestors = append(ancestors, node.ParentID)
		node = h.nodes[node.ParentID]
	}
	return ancestors
}

// RootOf returns the top-level ancestor of id (id itself for roots)
func (h *Hierarchy) RootOf(id int) (int, error) {
	node, err := h.Get(id)
	if err != nil {
		return 0, err
	}
	for node.ParentID != 0 {
		node = h.nodes[node.ParentID]
	}
	return node.ID, nil
}

// DescendantsOf returns the descendants of id in depth-first pre-order,
// starting with id itself when inclusive is set. Unknown ids yield nil.
func (h *Hierarchy) DescendantsOf(id int, inclusive bool) []int {
	node, ok := h.nodes[id]
	if !ok {
		return nil
	}

	var out []int
	if inclusive {
		out = append(out, id)
	}
	return h.appendDescendants(out, node)
}

func (h *Hierarchy) appendDescendants(out []int, node *Node) []int {
	for _, childID := range node.Children {
		out = append(out, childID)
		out = h.appendDescendants(out, h.nodes[childID])
	}
	return out
}
