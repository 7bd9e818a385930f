package query

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/RoaringBitmap/roaring"

	"github.com/ppiankov/gbdrill/internal/aggregate"
	"github.com/ppiankov/gbdrill/internal/facts"
	"github.com/ppiankov/gbdrill/internal/hierarchy"
	"github.com/ppiankov/gbdrill/internal/model"
	"github.com/ppiankov/gbdrill/internal/worker"
)

// RootName is the display name of the synthetic record heading FlattenForDisplay
const RootName = "All Diseases"

// Observer receives timings for each query operation
type Observer interface {
	ObserveQuery(op string, d time.Duration)
}

// Service answers read-only queries over one hierarchy and fact table.
// All state is immutable after New, so it is safe for concurrent use.
type Service struct {
	tree      *hierarchy.Hierarchy
	engine    *aggregate.Engine
	facts     *facts.Table
	locations map[int]string
	pool      *worker.Pool
	logger    *slog.Logger
	observer  Observer
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithObserver reports query timings to o
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithPool sets the pool used for per-year fan-out
func WithPool(pool *worker.Pool) Option {
	return func(s *Service) { s.pool = pool }
}

// WithLocations sets location display names
func WithLocations(names map[int]string) Option {
	return func(s *Service) { s.locations = names }
}

// New creates a query service
func New(tree *hierarchy.Hierarchy, table *facts.Table, opts ...Option) *Service {
	s := &Service{
		tree:      tree,
		engine:    aggregate.NewEngine(tree, table),
		facts:     table,
		locations: map[int]string{},
		pool:      worker.NewPool(1),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tree returns the cause hierarchy
func (s *Service) Tree() *hierarchy.Hierarchy {
	return s.tree
}

func (s *Service) observe(op string, start time.Time) {
	d := time.Since(start)
	if s.observer != nil {
		s.observer.ObserveQuery(op, d)
	}
	s.logger.Debug("query served", "op", op, "duration", d)
}

// ChildrenOf lists the children of parentID that are present under sel.
// An unknown parent yields an empty list.
func (s *Service) ChildrenOf(parentID int, sel model.Selection) []model.Child {
	defer s.observe("children_of", time.Now())

	out := []model.Child{}
	parent, err := s.tree.Get(parentID)
	if err != nil || parent.IsLeaf() {
		return out
	}

	res := s.engine.Aggregate(sel)
	for _, childID := range parent.Children {
		if !res.Present(childID) {
			continue
		}
		child, _ := s.tree.Get(childID)
		out = append(out, model.Child{
			ID:          child.ID,
			Name:        child.Name,
			Code:        child.Code,
			HasChildren: !child.IsLeaf(),
			Value:       res.Value(childID),
		})
	}
	return out
}

// DetailOf describes a single cause. The total is the rolled-up value; the
// per-sex breakdown is summed from the fact table over the leaves that feed
// that value, so the breakdown always adds up to the total.
func (s *Service) DetailOf(nodeID int, sel model.Selection) (*model.Detail, error) {
	defer s.observe("detail_of", time.Now())

	node, err := s.tree.Get(nodeID)
	if err != nil {
		return nil, fmt.Errorf("detail of %d: %w", nodeID, err)
	}

	res := s.engine.Aggregate(sel)

	bySex := make(map[int]float64, len(sel.SexIDs))
	for _, sexID := range sel.SexIDs {
		bySex[sexID] = 0
	}
	s.facts.Each(facts.Filter{
		LocationID: sel.LocationID,
		Year:       sel.Year,
		SexIDs:     sel.SexIDs,
		Causes:     s.contributingLeaves(res, nodeID),
	}, func(row model.FactRow) {
		bySex[row.SexID] += row.Value
	})

	return &model.Detail{
		ID:          node.ID,
		Name:        node.Name,
		Code:        node.Code,
		HasChildren: !node.IsLeaf(),
		ValueBySex:  bySex,
		Total:       res.Value(nodeID),
		LocationID:  sel.LocationID,
		Location:    s.LocationName(sel.LocationID),
		Year:        sel.Year,
	}, nil
}

// contributingLeaves returns the covered leaves whose value reaches nodeID:
// all of them under a claimed node, otherwise those with no claimed node
// between the leaf and nodeID.
func (s *Service) contributingLeaves(res *aggregate.Result, nodeID int) *roaring.Bitmap {
	leaves := s.tree.LeafBitmap([]int{nodeID})
	leaves.And(res.Covered())
	if res.Claimed(nodeID) {
		return leaves
	}

	out := roaring.New()
	it := leaves.Iterator()
	for it.HasNext() {
		leaf := it.Next()
		for _, ancestor := range s.tree.AncestorsOf(int(leaf)) {
			if ancestor == nodeID {
				out.Add(leaf)
				break
			}
			if res.Claimed(ancestor) {
				break
			}
		}
	}
	return out
}

// FlattenForDisplay walks every root depth-first and emits each present node,
// skipping the subtrees of absent ones. The first record is a synthetic root
// whose value is the sum of the top-level records.
func (s *Service) FlattenForDisplay(sel model.Selection) []model.DisplayRecord {
	defer s.observe("flatten_for_display", time.Now())

	res := s.engine.Aggregate(sel)
	records := []model.DisplayRecord{{ID: model.RootRecordID, Name: RootName}}

	var emit func(id int, parent string)
	emit = func(id int, parent string) {
		if !res.Present(id) {
			return
		}
		node, _ := s.tree.Get(id)
		key := strconv.Itoa(id)
		records = append(records, model.DisplayRecord{
			ID:     key,
			Name:   node.Name,
			Parent: parent,
			Value:  res.Value(id),
		})
		for _, childID := range node.Children {
			emit(childID, key)
		}
	}

	for _, rootID := range s.tree.Roots() {
		emit(rootID, model.RootRecordID)
	}

	var total float64
	for _, r := range records[1:] {
		if r.Parent == model.RootRecordID {
			total += r.Value
		}
	}
	records[0].Value = total

	return records
}

// Diseases returns the nested cause definition after deny-list filtering
func (s *Service) Diseases() []model.CauseDef {
	return s.tree.Defs()
}

// Locations returns location display names
func (s *Service) Locations() map[int]string {
	return s.locations
}

// LocationName returns the display name of a location
func (s *Service) LocationName(id int) string {
	if name, ok := s.locations[id]; ok {
		return name
	}
	return "Unknown Country"
}

// Years returns every year with data, ascending
func (s *Service) Years() []int {
	return s.facts.Years()
}

// scope resolves chosen causes to the leaves they cover; nil means no cause filter
func (s *Service) scope(causes []int) *roaring.Bitmap {
	if len(causes) == 0 {
		return nil
	}
	return s.tree.LeafBitmap(causes)
}
