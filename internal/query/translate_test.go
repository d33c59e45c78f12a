package query

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/task-user-api/internal/errors"
)

func requireInvalidParameter(t *testing.T, err error, param string) {
	t.Helper()
	require.Error(t, err)
	var apiErr *apierrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierrors.KindInvalidParameter, apiErr.Kind)
	assert.Equal(t, param, apiErr.Param)
}

func TestTranslate_NoParams(t *testing.T) {
	spec, err := Translate(Tasks, map[string]string{}, nil)
	require.NoError(t, err)

	assert.Nil(t, spec.Filter)
	assert.Nil(t, spec.Sort)
	assert.Nil(t, spec.Projection)
	assert.Nil(t, spec.Skip)
	assert.Nil(t, spec.Limit)
	assert.False(t, spec.Count)
}

func TestTranslate_OnlySortAppliesNothingElse(t *testing.T) {
	spec, err := Translate(Tasks, map[string]string{"sort": `{"deadline": -1, "name": 1}`}, nil)
	require.NoError(t, err)

	require.Len(t, spec.Sort, 2)
	assert.Equal(t, "deadline", spec.Sort[0].Field.Name)
	assert.True(t, spec.Sort[0].Desc)
	assert.Equal(t, "name", spec.Sort[1].Field.Name)
	assert.False(t, spec.Sort[1].Desc)

	assert.Nil(t, spec.Filter)
	assert.Nil(t, spec.Projection)
	assert.Nil(t, spec.Skip)
	assert.Nil(t, spec.Limit)
}

func TestTranslate_RejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
		param  string
	}{
		{"broken where", map[string]string{"where": "{bad json"}, "where"},
		{"trailing data", map[string]string{"where": `{"name":"a"} x`}, "where"},
		{"where array", map[string]string{"where": `[1,2]`}, "where"},
		{"unknown field", map[string]string{"where": `{"owner":"a"}`}, "where"},
		{"unknown operator", map[string]string{"where": `{"name":{"$regex":"a"}}`}, "where"},
		{"mixed operator object", map[string]string{"where": `{"name":{"$eq":"a","b":1}}`}, "where"},
		{"range on bool", map[string]string{"where": `{"completed":{"$gt":true}}`}, "where"},
		{"bad deadline", map[string]string{"where": `{"deadline":"tomorrow"}`}, "where"},
		{"empty $or", map[string]string{"where": `{"$or":[]}`}, "where"},
		{"broken sort", map[string]string{"sort": "{name"}, "sort"},
		{"bad direction", map[string]string{"sort": `{"name": 2}`}, "sort"},
		{"sort by set", map[string]string{"sort": `{"pendingTasks": 1}`}, "sort"},
		{"broken select", map[string]string{"select": "name"}, "select"},
		{"mixed select", map[string]string{"select": `{"name":1,"description":0}`}, "select"},
		{"negative skip", map[string]string{"skip": "-1"}, "skip"},
		{"fractional skip", map[string]string{"skip": "1.5"}, "skip"},
		{"empty skip", map[string]string{"skip": ""}, "skip"},
		{"word limit", map[string]string{"limit": "abc"}, "limit"},
		{"infinite limit", map[string]string{"limit": "Infinity"}, "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Translate(Tasks, tt.params, nil)
			requireInvalidParameter(t, err, tt.param)
		})
	}
}

func TestTranslate_SkipAndLimit(t *testing.T) {
	spec, err := Translate(Users, map[string]string{"skip": "20", "limit": "0"}, nil)
	require.NoError(t, err)

	require.NotNil(t, spec.Skip)
	require.NotNil(t, spec.Limit)
	assert.Equal(t, int64(20), *spec.Skip)
	assert.Equal(t, int64(0), *spec.Limit)
}

func TestTranslate_Count(t *testing.T) {
	for raw, want := range map[string]bool{"true": true, "TRUE": true, "True": true, "false": false, "1": false, "yes": false} {
		spec, err := Translate(Users, map[string]string{"count": raw}, nil)
		require.NoError(t, err)
		assert.Equal(t, want, spec.Count, raw)
	}
}

func TestTranslate_WhereEquality(t *testing.T) {
	spec, err := Translate(Tasks, map[string]string{"where": `{"completed": false, "assignedUser": null}`}, nil)
	require.NoError(t, err)

	and, ok := spec.Filter.(And)
	require.True(t, ok)
	require.Len(t, and, 2)

	first := and[0].(Condition)
	assert.Equal(t, "completed", first.Field.Name)
	assert.Equal(t, OpEq, first.Op)
	assert.Equal(t, false, first.Value)

	second := and[1].(Condition)
	assert.Equal(t, "assignedUser", second.Field.Name)
	assert.Nil(t, second.Value)
}

func TestTranslate_WhereOperatorsAndCoercion(t *testing.T) {
	spec, err := Translate(Tasks, map[string]string{
		"where": `{"deadline": {"$gte": "2024-01-01", "$lt": 1735689600000}, "_id": {"$in": ["a", "b"]}, "completed": "true"}`,
	}, nil)
	require.NoError(t, err)

	and := spec.Filter.(And)
	require.Len(t, and, 4)

	gte := and[0].(Condition)
	assert.Equal(t, OpGte, gte.Op)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), gte.Value)

	lt := and[1].(Condition)
	assert.Equal(t, OpLt, lt.Op)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), lt.Value)

	in := and[2].(Condition)
	assert.Equal(t, OpIn, in.Op)
	assert.Equal(t, []any{"a", "b"}, in.Value)

	completed := and[3].(Condition)
	assert.Equal(t, true, completed.Value)
}

func TestTranslate_WhereLogicalOperators(t *testing.T) {
	spec, err := Translate(Users, map[string]string{
		"where": `{"$or": [{"name": "Alice"}, {"pendingTasks": "t1"}]}`,
	}, nil)
	require.NoError(t, err)

	or, ok := spec.Filter.(Or)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, "pendingTasks", or[1].(Condition).Field.Name)
}

func TestTranslate_WhereMergesWithBase(t *testing.T) {
	base := Eq(Tasks.MustField("completed"), false)

	spec, err := Translate(Tasks, map[string]string{"where": `{"name": "T1"}`}, base)
	require.NoError(t, err)

	and, ok := spec.Filter.(And)
	require.True(t, ok)
	require.Len(t, and, 2)
	assert.Equal(t, base, and[0])

	spec, err = Translate(Tasks, map[string]string{}, base)
	require.NoError(t, err)
	assert.Equal(t, base, spec.Filter)
}

func TestTranslate_IDAlias(t *testing.T) {
	spec, err := Translate(Tasks, map[string]string{"where": `{"id": "abc"}`}, nil)
	require.NoError(t, err)
	assert.Equal(t, IDField, spec.Filter.(Condition).Field.Name)
}

func TestTranslate_SortForms(t *testing.T) {
	tests := []struct {
		raw  string
		want []SortKey
	}{
		{`{"name": "desc"}`, []SortKey{{Field: Tasks.MustField("name"), Desc: true}}},
		{`["-deadline", "name"]`, []SortKey{{Field: Tasks.MustField("deadline"), Desc: true}, {Field: Tasks.MustField("name")}}},
		{`[["name", -1]]`, []SortKey{{Field: Tasks.MustField("name"), Desc: true}}},
		{`"name -dateCreated"`, []SortKey{{Field: Tasks.MustField("name")}, {Field: Tasks.MustField("dateCreated"), Desc: true}}},
	}

	for _, tt := range tests {
		spec, err := Translate(Tasks, map[string]string{"sort": tt.raw}, nil)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, spec.Sort, tt.raw)
	}
}

func TestTranslate_SelectForms(t *testing.T) {
	spec, err := Translate(Users, map[string]string{"select": `{"name": 1, "email": 1, "_id": 0}`}, nil)
	require.NoError(t, err)
	p := spec.Projection
	require.NotNil(t, p)
	assert.False(t, p.Exclude)
	assert.True(t, p.Includes("name"))
	assert.True(t, p.Includes("email"))
	assert.False(t, p.Includes("pendingTasks"))
	assert.False(t, p.Includes("_id"))

	spec, err = Translate(Users, map[string]string{"select": `["-pendingTasks"]`}, nil)
	require.NoError(t, err)
	p = spec.Projection
	assert.True(t, p.Exclude)
	assert.False(t, p.Includes("pendingTasks"))
	assert.True(t, p.Includes("name"))
	assert.True(t, p.Includes("_id"))

	spec, err = Translate(Users, map[string]string{"select": `{"_id": 0}`}, nil)
	require.NoError(t, err)
	p = spec.Projection
	assert.True(t, p.Includes("email"))
	assert.False(t, p.Includes("_id"))
}

func TestTranslate_NullValuesAreNoOps(t *testing.T) {
	spec, err := Translate(Tasks, map[string]string{"where": "null", "sort": "null", "select": "null"}, nil)
	require.NoError(t, err)
	assert.Nil(t, spec.Filter)
	assert.Nil(t, spec.Sort)
	assert.Nil(t, spec.Projection)
}

func TestSpec_ApplyDefaultLimit(t *testing.T) {
	spec := &Spec{}
	spec.ApplyDefaultLimit(100)
	require.NotNil(t, spec.Limit)
	assert.Equal(t, int64(100), *spec.Limit)

	limit := int64(5)
	spec = &Spec{Limit: &limit}
	spec.ApplyDefaultLimit(100)
	assert.Equal(t, int64(5), *spec.Limit)
}
