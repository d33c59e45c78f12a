package query

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseWhere turns a decoded `where` document into a filter tree.
func parseWhere(coll *Collection, v any) (Filter, error) {
	if v == nil {
		return nil, nil
	}
	obj, ok := v.(object)
	if !ok {
		return nil, fmt.Errorf("where must be an object")
	}
	return parseObject(coll, obj)
}

func parseObject(coll *Collection, obj object) (Filter, error) {
	var parts []Filter

	for _, m := range obj {
		switch m.Key {
		case "$and", "$or", "$nor":
			children, err := parseClauses(coll, m.Key, m.Value)
			if err != nil {
				return nil, err
			}
			switch m.Key {
			case "$and":
				parts = append(parts, And(children))
			case "$or":
				parts = append(parts, Or(children))
			default:
				parts = append(parts, Nor(children))
			}
			continue
		}

		if strings.HasPrefix(m.Key, "$") {
			return nil, fmt.Errorf("unknown top-level operator %s", m.Key)
		}
		field, ok := coll.Field(m.Key)
		if !ok {
			return nil, fmt.Errorf("unknown field %s", m.Key)
		}
		conds, err := parseFieldValue(field, m.Value)
		if err != nil {
			return nil, err
		}
		parts = append(parts, conds...)
	}

	return Merge(parts...), nil
}

func parseClauses(coll *Collection, op string, v any) ([]Filter, error) {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return nil, fmt.Errorf("%s needs a non-empty array", op)
	}
	children := make([]Filter, 0, len(arr))
	for _, item := range arr {
		obj, ok := item.(object)
		if !ok {
			return nil, fmt.Errorf("%s entries must be objects", op)
		}
		child, err := parseObject(coll, obj)
		if err != nil {
			return nil, err
		}
		if child == nil {
			// An empty clause matches everything.
			child = And{}
		}
		children = append(children, child)
	}
	return children, nil
}

func parseFieldValue(field Field, v any) ([]Filter, error) {
	obj, ok := v.(object)
	if !ok {
		value, err := coerce(field, v)
		if err != nil {
			return nil, err
		}
		return []Filter{Condition{Field: field, Op: OpEq, Value: value}}, nil
	}

	operators := 0
	for _, m := range obj {
		if strings.HasPrefix(m.Key, "$") {
			operators++
		}
	}
	if operators == 0 || operators != len(obj) {
		return nil, fmt.Errorf("field %s: expected an operator object", field.Name)
	}

	conds := make([]Filter, 0, len(obj))
	for _, m := range obj {
		cond, err := parseOperator(field, Op(m.Key), m.Value)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	return conds, nil
}

func parseOperator(field Field, op Op, v any) (Condition, error) {
	switch op {
	case OpEq, OpNe:
		value, err := coerce(field, v)
		if err != nil {
			return Condition{}, err
		}
		return Condition{Field: field, Op: op, Value: value}, nil
	case OpGt, OpGte, OpLt, OpLte:
		switch field.Kind {
		case KindBool, KindIDSet, KindRef:
			return Condition{}, fmt.Errorf("field %s does not support %s", field.Name, op)
		}
		if v == nil {
			return Condition{}, fmt.Errorf("%s needs a value", op)
		}
		value, err := coerce(field, v)
		if err != nil {
			return Condition{}, err
		}
		return Condition{Field: field, Op: op, Value: value}, nil
	case OpIn, OpNin:
		arr, ok := v.([]any)
		if !ok {
			return Condition{}, fmt.Errorf("%s needs an array", op)
		}
		values := make([]any, 0, len(arr))
		for _, item := range arr {
			value, err := coerce(field, item)
			if err != nil {
				return Condition{}, err
			}
			values = append(values, value)
		}
		return Condition{Field: field, Op: op, Value: values}, nil
	case OpExists:
		b, err := coerceBool(v)
		if err != nil {
			return Condition{}, err
		}
		return Condition{Field: field, Op: op, Value: b}, nil
	default:
		return Condition{}, fmt.Errorf("unknown operator %s", op)
	}
}

// coerce converts a decoded JSON scalar to the Go type of the field's kind.
func coerce(field Field, v any) (any, error) {
	switch field.Kind {
	case KindRef:
		if v == nil {
			return nil, nil
		}
		fallthrough
	case KindID, KindIDSet:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("field %s expects an identifier", field.Name)
		}
		return s, nil
	case KindString:
		switch t := v.(type) {
		case string:
			return t, nil
		case json.Number:
			return t.String(), nil
		case bool:
			if t {
				return "true", nil
			}
			return "false", nil
		}
		return nil, fmt.Errorf("field %s expects a string", field.Name)
	case KindBool:
		return coerceBool(v)
	case KindTime:
		return coerceTime(v)
	}
	return nil, fmt.Errorf("field %s has an unsupported kind", field.Name)
}

func coerceBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(t) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	case json.Number:
		switch t.String() {
		case "1":
			return true, nil
		case "0":
			return false, nil
		}
	}
	return false, fmt.Errorf("expected a boolean, got %v", v)
}

func coerceTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case string:
		return ParseTime(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return time.Time{}, fmt.Errorf("invalid timestamp %s", t)
		}
		return time.UnixMilli(int64(f)).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("expected a timestamp, got %v", v)
}

// ParseTime accepts RFC 3339 timestamps and their date-only or zone-less
// shortenings, the latter read as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
