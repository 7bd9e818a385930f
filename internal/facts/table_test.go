package facts

import (
	"testing"

	"github.com/RoaringBitmap/roaring"
	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/gbdrill/internal/model"
)

func sampleRows() []model.FactRow {
	return []model.FactRow{
		{LocationID: 10, CauseID: 4, SexID: 1, Year: 2019, Value: 6},
		{LocationID: 10, CauseID: 4, SexID: 2, Year: 2019, Value: 4},
		{LocationID: 10, CauseID: 5, SexID: 1, Year: 2019, Value: 5},
		{LocationID: 10, CauseID: 3, SexID: 2, Year: 2020, Value: 3},
		{LocationID: 20, CauseID: 4, SexID: 1, Year: 2019, Value: 100},
	}
}

func TestNewTable_Indexes(t *testing.T) {
	table := NewTable(sampleRows())

	assert.Equal(t, 5, table.Len())
	assert.Equal(t, []int{2019, 2020}, table.Years())
	assert.Equal(t, []int{10, 20}, table.Locations())
}

func sum(table *Table, f Filter) float64 {
	var total float64
	table.Each(f, func(row model.FactRow) {
		total += row.Value
	})
	return total
}

func TestTable_Each_Filters(t *testing.T) {
	table := NewTable(sampleRows())
	both := []int{1, 2}

	tests := []struct {
		name   string
		filter Filter
		want   float64
	}{
		{"location and year", Filter{LocationID: 10, Year: 2019, SexIDs: both}, 15},
		{"single sex", Filter{LocationID: 10, Year: 2019, SexIDs: []int{2}}, 4},
		{"cause scope", Filter{LocationID: 10, Year: 2019, SexIDs: both, Causes: roaring.BitmapOf(4)}, 10},
		{"location only", Filter{LocationID: 10, SexIDs: both}, 18},
		{"year only", Filter{Year: 2019, SexIDs: both}, 115},
		{"every location and year", Filter{SexIDs: both}, 118},
		{"no rows", Filter{LocationID: 30, Year: 2019, SexIDs: both}, 0},
		{"empty cause scope", Filter{SexIDs: both, Causes: roaring.New()}, 0},
		{"no sexes", Filter{LocationID: 10, Year: 2019}, 0},
		{"unknown sex", Filter{LocationID: 10, Year: 2019, SexIDs: []int{3}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, sum(table, tt.filter), 1e-9)
		})
	}
}

func TestTable_Each(t *testing.T) {
	table := NewTable(sampleRows())

	var causes []int
	table.Each(Filter{LocationID: 10, Year: 2019, SexIDs: []int{1}}, func(row model.FactRow) {
		causes = append(causes, row.CauseID)
	})
	assert.Equal(t, []int{4, 5}, causes)
}
