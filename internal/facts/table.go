package facts

import (
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/ppiankov/gbdrill/internal/model"
)

type locYear struct {
	location int
	year     int
}

// Table is an immutable, indexed set of fact rows.
// It is safe for concurrent reads.
type Table struct {
	rows       []model.FactRow
	byLocYear  map[locYear][]int
	byLocation map[int][]int
	byYear     map[int][]int
	years      []int
	locations  []int
}

// NewTable indexes rows by (location, year), location and year
func NewTable(rows []model.FactRow) *Table {
	t := &Table{
		rows:       rows,
		byLocYear:  make(map[locYear][]int),
		byLocation: make(map[int][]int),
		byYear:     make(map[int][]int),
	}

	for i, row := range rows {
		key := locYear{location: row.LocationID, year: row.Year}
		t.byLocYear[key] = append(t.byLocYear[key], i)

		if _, seen := t.byLocation[row.LocationID]; !seen {
			t.locations = append(t.locations, row.LocationID)
		}
		t.byLocation[row.LocationID] = append(t.byLocation[row.LocationID], i)

		if _, seen := t.byYear[row.Year]; !seen {
			t.years = append(t.years, row.Year)
		}
		t.byYear[row.Year] = append(t.byYear[row.Year], i)
	}

	sort.Ints(t.years)
	sort.Ints(t.locations)
	return t
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Years returns every year present, ascending
func (t *Table) Years() []int {
	return t.years
}

// Locations returns every location present, ascending
func (t *Table) Locations() []int {
	return t.locations
}

// Filter selects rows. A zero LocationID or Year matches every location or
// year; rows must always carry one of SexIDs, so an empty set matches nothing.
type Filter struct {
	LocationID int
	Year       int
	SexIDs     []int
	Causes     *roaring.Bitmap // nil matches every cause
}

func (f Filter) matches(row model.FactRow) bool {
	if f.LocationID != 0 && row.LocationID != f.LocationID {
		return false
	}
	if f.Year != 0 && row.Year != f.Year {
		return false
	}
	if !containsInt(f.SexIDs, row.SexID) {
		return false
	}
	if f.Causes != nil && (row.CauseID < 0 || !f.Causes.Contains(uint32(row.CauseID))) {
		return false
	}
	return true
}

// Each calls fn for every row matching f, using the narrowest index available
func (t *Table) Each(f Filter, fn func(model.FactRow)) {
	if len(f.SexIDs) == 0 {
		return
	}
	for _, i := range t.candidates(f) {
		if row := t.rows[i]; f.matches(row) {
			fn(row)
		}
	}
}

func (t *Table) candidates(f Filter) []int {
	switch {
	case f.LocationID != 0 && f.Year != 0:
		return t.byLocYear[locYear{location: f.LocationID, year: f.Year}]
	case f.LocationID != 0:
		return t.byLocation[f.LocationID]
	case f.Year != 0:
		return t.byYear[f.Year]
	}

	all := make([]int, len(t.rows))
	for i := range all {
		all[i] = i
	}
	return all
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
