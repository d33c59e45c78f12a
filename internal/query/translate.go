// Package query translates untyped list parameters (where, sort, select, skip,
// limit, count) into a typed Spec that a store can execute.
package query

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	apierrors "github.com/yukikurage/task-user-api/internal/errors"
)

// Recognized parameter names.
const (
	ParamWhere  = "where"
	ParamSort   = "sort"
	ParamSelect = "select"
	ParamSkip   = "skip"
	ParamLimit  = "limit"
	ParamCount  = "count"
)

// maxPagination bounds skip and limit so they fit every backend's integer type.
const maxPagination = math.MaxInt32

// Translate builds a Spec for coll from params, ANDing base with any `where`
// filter. A parameter is applied only when its key is present. Limit stays
// nil when absent so callers can apply their own default.
func Translate(coll *Collection, params map[string]string, base Filter) (*Spec, error) {
	spec := &Spec{Filter: base}

	if raw, ok := params[ParamWhere]; ok {
		v, err := decodeOrdered(raw)
		if err != nil {
			return nil, apierrors.InvalidParameter(ParamWhere)
		}
		where, err := parseWhere(coll, v)
		if err != nil {
			return nil, apierrors.InvalidParameter(ParamWhere)
		}
		spec.Filter = Merge(base, where)
	}

	if raw, ok := params[ParamSort]; ok {
		v, err := decodeOrdered(raw)
		if err != nil {
			return nil, apierrors.InvalidParameter(ParamSort)
		}
		keys, err := parseSort(coll, v)
		if err != nil {
			return nil, apierrors.InvalidParameter(ParamSort)
		}
		spec.Sort = keys
	}

	if raw, ok := params[ParamSelect]; ok {
		v, err := decodeOrdered(raw)
		if err != nil {
			return nil, apierrors.InvalidParameter(ParamSelect)
		}
		projection, err := parseSelect(coll, v)
		if err != nil {
			return nil, apierrors.InvalidParameter(ParamSelect)
		}
		spec.Projection = projection
	}

	if raw, ok := params[ParamSkip]; ok {
		n, err := parseNonNegative(raw)
		if err != nil {
			return nil, apierrors.InvalidParameter(ParamSkip)
		}
		spec.Skip = &n
	}

	if raw, ok := params[ParamLimit]; ok {
		n, err := parseNonNegative(raw)
		if err != nil {
			return nil, apierrors.InvalidParameter(ParamLimit)
		}
		spec.Limit = &n
	}

	if raw, ok := params[ParamCount]; ok {
		spec.Count = strings.EqualFold(strings.TrimSpace(raw), "true")
	}

	return spec, nil
}

// TranslateProjection parses only the `select` parameter, for single-record reads.
func TranslateProjection(coll *Collection, params map[string]string) (*Projection, error) {
	raw, ok := params[ParamSelect]
	if !ok {
		return nil, nil
	}
	v, err := decodeOrdered(raw)
	if err != nil {
		return nil, apierrors.InvalidParameter(ParamSelect)
	}
	projection, err := parseSelect(coll, v)
	if err != nil {
		return nil, apierrors.InvalidParameter(ParamSelect)
	}
	return projection, nil
}

func parseNonNegative(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty value")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) || f > maxPagination {
		return 0, fmt.Errorf("%s is not a non-negative integer", raw)
	}
	return int64(f), nil
}

func parseSort(coll *Collection, v any) ([]SortKey, error) {
	var keys []SortKey
	add := func(name string, desc bool) error {
		field, ok := coll.Field(name)
		if !ok || !field.Sortable() {
			return fmt.Errorf("cannot sort by %s", name)
		}
		for i := range keys {
			if keys[i].Field.Name == field.Name {
				keys[i].Desc = desc
				return nil
			}
		}
		keys = append(keys, SortKey{Field: field, Desc: desc})
		return nil
	}

	switch t := v.(type) {
	case nil:
		return nil, nil
	case object:
		for _, m := range t {
			desc, err := parseDirection(m.Value)
			if err != nil {
				return nil, err
			}
			if err := add(m.Key, desc); err != nil {
				return nil, err
			}
		}
	case []any:
		for _, item := range t {
			switch entry := item.(type) {
			case string:
				name, desc := splitSigned(entry)
				if err := add(name, desc); err != nil {
					return nil, err
				}
			case []any:
				if len(entry) != 2 {
					return nil, fmt.Errorf("sort pair needs two elements")
				}
				name, ok := entry[0].(string)
				if !ok {
					return nil, fmt.Errorf("sort pair needs a field name")
				}
				desc, err := parseDirection(entry[1])
				if err != nil {
					return nil, err
				}
				if err := add(name, desc); err != nil {
					return nil, err
				}
			default:
				return nil, fmt.Errorf("unsupported sort entry %v", item)
			}
		}
	case string:
		for _, token := range strings.Fields(t) {
			name, desc := splitSigned(token)
			if err := add(name, desc); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unsupported sort value %v", v)
	}

	return keys, nil
}

func parseDirection(v any) (bool, error) {
	switch t := v.(type) {
	case json.Number:
		switch t.String() {
		case "1":
			return false, nil
		case "-1":
			return true, nil
		}
	case string:
		switch strings.ToLower(t) {
		case "asc", "ascending", "1":
			return false, nil
		case "desc", "descending", "-1":
			return true, nil
		}
	}
	return false, fmt.Errorf("invalid sort direction %v", v)
}

// splitSigned reads "-name" as descending/excluded and "+name" or "name" as
// ascending/included.
func splitSigned(token string) (string, bool) {
	if strings.HasPrefix(token, "-") {
		return token[1:], true
	}
	return strings.TrimPrefix(token, "+"), false
}

func parseSelect(coll *Collection, v any) (*Projection, error) {
	type entry struct {
		name    string
		include bool
	}
	var entries []entry

	switch t := v.(type) {
	case nil:
		return nil, nil
	case object:
		for _, m := range t {
			include, err := parseInclusion(m.Value)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry{name: m.Key, include: include})
		}
	case []any:
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("select entries must be strings")
			}
			name, exclude := splitSigned(s)
			entries = append(entries, entry{name: name, include: !exclude})
		}
	case string:
		for _, token := range strings.Fields(t) {
			name, exclude := splitSigned(token)
			entries = append(entries, entry{name: name, include: !exclude})
		}
	default:
		return nil, fmt.Errorf("unsupported select value %v", v)
	}

	if len(entries) == 0 {
		return nil, nil
	}

	p := &Projection{}
	includes, excludes := 0, 0
	for _, e := range entries {
		field, ok := coll.Field(e.name)
		if !ok {
			return nil, fmt.Errorf("unknown field %s", e.name)
		}
		if field.Kind == KindID {
			p.HideID = !e.include
			continue
		}
		if e.include {
			includes++
		} else {
			excludes++
		}
		p.Fields = append(p.Fields, field)
	}
	if includes > 0 && excludes > 0 {
		return nil, fmt.Errorf("cannot mix inclusion and exclusion")
	}
	// {"_id": 0} alone keeps every other field.
	p.Exclude = excludes > 0 || (includes == 0 && p.HideID)
	return p, nil
}

func parseInclusion(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return false, err
		}
		return f != 0, nil
	}
	return false, fmt.Errorf("invalid projection value %v", v)
}
