package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yukikurage/task-user-api/internal/query"
)

// FieldError reports a body field whose value cannot be decoded.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("Invalid %s", e.Field)
}

var jsonNull = []byte("null")

// Timestamp decodes a deadline given as an ISO-8601 string or as epoch
// milliseconds. Set is false when the field was absent, null or empty.
type Timestamp struct {
	Time time.Time
	Set  bool
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*t = Timestamp{}
		return nil
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return &FieldError{Field: "deadline"}
	}

	switch val := v.(type) {
	case string:
		return t.UnmarshalParam(val)
	case json.Number:
		ms, err := val.Int64()
		if err != nil {
			return &FieldError{Field: "deadline"}
		}
		*t = Timestamp{Time: time.UnixMilli(ms).UTC(), Set: true}
		return nil
	default:
		return &FieldError{Field: "deadline"}
	}
}

// UnmarshalParam implements gin's binding.BindUnmarshaler for form bodies
func (t *Timestamp) UnmarshalParam(param string) error {
	param = strings.TrimSpace(param)
	if param == "" {
		*t = Timestamp{}
		return nil
	}

	parsed, err := query.ParseTime(param)
	if err != nil {
		ms, numErr := strconv.ParseInt(param, 10, 64)
		if numErr != nil {
			return &FieldError{Field: "deadline"}
		}
		parsed = time.UnixMilli(ms).UTC()
	}
	*t = Timestamp{Time: parsed, Set: true}
	return nil
}

// Ptr returns the decoded time, or nil when the field was not set.
func (t Timestamp) Ptr() *time.Time {
	if !t.Set {
		return nil
	}
	v := t.Time
	return &v
}

// Flag decodes a boolean given as a JSON bool, a number or a string such as
// "true", "1" or "on". Anything else is false.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler
func (f *Flag) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return &FieldError{Field: "completed"}
	}

	switch val := v.(type) {
	case bool:
		*f = Flag(val)
	case float64:
		*f = val != 0
	case string:
		return f.UnmarshalParam(val)
	default:
		*f = false
	}
	return nil
}

// UnmarshalParam implements gin's binding.BindUnmarshaler for form bodies
func (f *Flag) UnmarshalParam(param string) error {
	switch strings.ToLower(strings.TrimSpace(param)) {
	case "true", "1", "on", "yes":
		*f = true
	default:
		*f = false
	}
	return nil
}

// IDList decodes a list of identifiers. Values that are not arrays decode as
// an empty list; non-string members are rejected.
type IDList []string

// UnmarshalJSON implements json.Unmarshaler
func (l *IDList) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return &FieldError{Field: "pendingTasks"}
	}

	items, ok := v.([]any)
	if !ok {
		*l = IDList{}
		return nil
	}

	ids := make(IDList, 0, len(items))
	for _, item := range items {
		id, ok := item.(string)
		if !ok {
			return &FieldError{Field: "pendingTasks"}
		}
		ids = append(ids, id)
	}
	*l = ids
	return nil
}
