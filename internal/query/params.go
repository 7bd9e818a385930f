package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/gbdrill/internal/model"
)

// ErrInvalidParameter is returned when a required field is missing or not a positive integer
var ErrInvalidParameter = errors.New("invalid parameter")

// ParseID parses a required positive integer parameter
func ParseID(name, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidParameter, name)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidParameter, name, raw)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidParameter, name, id)
	}
	return id, nil
}

// ParseIDList parses a comma-separated list of integers; empty items are skipped
func ParseIDList(name, raw string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a list of integers, got %q", ErrInvalidParameter, name, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseSexes parses a sex-id list, falling back to both sexes when empty
func ParseSexes(raw string) ([]int, error) {
	sexes, err := ParseIDList("sexes", raw)
	if err != nil {
		return nil, err
	}
	if len(sexes) == 0 {
		return model.DefaultSexIDs(), nil
	}
	return sexes, nil
}

// SelectionParams carries the raw text of a selection
type SelectionParams struct {
	Location string
	Year     string
	Sexes    string
	Causes   string
}

// ParseSelection validates raw selection fields before any aggregation work
func ParseSelection(p SelectionParams) (model.Selection, error) {
	var sel model.Selection
	var err error

	if sel.LocationID, err = ParseID("location", p.Location); err != nil {
		return model.Selection{}, err
	}
	if sel.Year, err = ParseID("year", p.Year); err != nil {
		return model.Selection{}, err
	}
	if sel.SexIDs, err = ParseSexes(p.Sexes); err != nil {
		return model.Selection{}, err
	}
	if sel.CauseIDs, err = ParseIDList("diseases", p.Causes); err != nil {
		return model.Selection{}, err
	}
	return sel, nil
}
