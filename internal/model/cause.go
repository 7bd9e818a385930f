package model

// CauseDef is one record of the nested cause definition document
type CauseDef struct {
	ID        int        `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Code      string     `json:"cause,omitempty" yaml:"cause,omitempty"` // GBD cause code (e.g., "B.2.1")
	Subcauses []CauseDef `json:"subcauses,omitempty" yaml:"subcauses,omitempty"`
}

// FactRow is a single mortality record at leaf-cause granularity
type FactRow struct {
	LocationID int     `json:"location_id"`
	CauseID    int     `json:"cause_id"`
	SexID      int     `json:"sex_id"`
	Year       int     `json:"year"`
	Value      float64 `json:"val"`
}

// Sex identifiers used by the GBD dataset
const (
	SexMale   = 1
	SexFemale = 2
)

// DefaultSexIDs is used when a request does not name any sex
func DefaultSexIDs() []int {
	return []int{SexMale, SexFemale}
}

// Selection scopes one aggregation run
type Selection struct {
	LocationID int   `json:"location_id"`
	Year       int   `json:"year"`
	SexIDs     []int `json:"sex_ids"`
	CauseIDs   []int `json:"cause_ids,omitempty"` // Empty means everything is selected
}

// SelectsAll reports whether no explicit cause was chosen
func (s Selection) SelectsAll() bool {
	return len(s.CauseIDs) == 0
}
