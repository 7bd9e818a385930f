package ingest

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/gbdrill/internal/model"
)

// ErrInvalidDefinition is returned when a cause definition document cannot be decoded
var ErrInvalidDefinition = errors.New("invalid cause definition")

// DefaultCausesSelector locates the causes array in the definition document
const DefaultCausesSelector = "$.causes"

// LoadHierarchy reads a nested cause definition from a JSON or YAML file.
// selector is a JSONPath expression pointing at the top-level causes array.
func LoadHierarchy(path string, selector string) ([]model.CauseDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hierarchy %s: %w", path, err)
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml %s: %w", path, err)
		}
	default:
		if doc, err = oj.Parse(data); err != nil {
			return nil, fmt.Errorf("parse json %s: %w", path, err)
		}
	}

	return SelectCauses(doc, selector)
}

// SelectCauses applies selector to a decoded document and converts the match
// into typed cause definitions
func SelectCauses(doc any, selector string) ([]model.CauseDef, error) {
	if selector == "" {
		selector = DefaultCausesSelector
	}

	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}

	matches := x.Get(doc)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: selector %s matched nothing", ErrInvalidDefinition, selector)
	}

	// A selector may address the array itself or fan out over its elements
	list, ok := matches[0].([]any)
	if !ok || len(matches) > 1 {
		list = matches
	}

	return decodeCauses(list, selector)
}

func decodeCauses(list []any, path string) ([]model.CauseDef, error) {
	defs := make([]model.CauseDef, 0, len(list))
	for i, item := range list {
		at := fmt.Sprintf("%s[%d]", path, i)

		fields, ok := asMap(item)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not an object", ErrInvalidDefinition, at)
		}

		id, err := asInt(fields["id"])
		if err != nil {
			return nil, fmt.Errorf("%w: %s.id: %v", ErrInvalidDefinition, at, err)
		}

		name, _ := fields["name"].(string)
		code, _ := fields["cause"].(string)
		def := model.CauseDef{ID: id, Name: name, Code: code}

		if raw, exists := fields["subcauses"]; exists && raw != nil {
			children, ok := raw.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s.subcauses is not a list", ErrInvalidDefinition, at)
			}
			if def.Subcauses, err = decodeCauses(children, at+".subcauses"); err != nil {
				return nil, err
			}
		}

		defs = append(defs, def)
	}
	return defs, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

// asInt accepts the numeric and string encodings of ids found in GBD exports
func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("non-integer id %v", n)
		}
		return int(n), nil
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("non-integer id %q", n)
		}
		return id, nil
	case nil:
		return 0, errors.New("missing id")
	}
	return 0, fmt.Errorf("unsupported id type %T", v)
}
