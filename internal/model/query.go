package model

// Child is one entry of a children listing
type Child struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Code        string  `json:"cause_code"`
	HasChildren bool    `json:"has_children"`
	Value       float64 `json:"value"`
}

// Detail describes a single cause under a selection
type Detail struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Code        string          `json:"cause_code"`
	HasChildren bool            `json:"has_children"`
	ValueBySex  map[int]float64 `json:"value_by_sex"`
	Total       float64         `json:"total"`
	LocationID  int             `json:"location_id"`
	Location    string          `json:"country_name,omitempty"`
	Year        int             `json:"year"`
}

// RootRecordID identifies the synthetic record that heads a display listing
const RootRecordID = "root"

// DisplayRecord is one node of a flattened tree (e.g., for a sunburst)
type DisplayRecord struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Parent string  `json:"parent"` // Empty for the synthetic root
	Value  float64 `json:"value"`
}

// Stats summarizes a set of per-location totals
type Stats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// SexTotals holds per-sex values plus their total
type SexTotals struct {
	BySex map[int]float64 `json:"by_sex"`
	Total float64         `json:"total"`
}

// CountryRates is the per-location breakdown for a single year
type CountryRates struct {
	Year       int                `json:"year"`
	Locations  map[int]*SexTotals `json:"locations"`
	Statistics Stats              `json:"statistics"`
}

// YearsData is the per-year, per-location breakdown across all years
type YearsData struct {
	Years      map[int]map[int]*SexTotals `json:"year_data"`
	Statistics map[int]Stats              `json:"statistics"`
}

// Level1Series is a top-level cause's per-year breakdown for one location
type Level1Series struct {
	ID   int                `json:"id"`
	Name string             `json:"name"`
	Data map[int]*SexTotals `json:"data"`
}
