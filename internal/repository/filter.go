package repository

import (
	"fmt"
	"strings"

	"github.com/yukikurage/task-user-api/internal/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pendingTasksSubquery = "SELECT user_id FROM user_pending_tasks WHERE task_id"

var (
	matchAll  = clause.Expr{SQL: "1 = 1"}
	matchNone = clause.Expr{SQL: "1 = 0"}
)

// BuildCondition compiles a filter tree into a gorm expression.
func BuildCondition(f query.Filter) (clause.Expression, error) {
	switch t := f.(type) {
	case query.Condition:
		if t.Field.Kind == query.KindIDSet {
			return buildSetCondition(t)
		}
		return buildCondition(t)
	case query.And:
		if len(t) == 0 {
			return matchAll, nil
		}
		return joinConditions([]query.Filter(t), " AND ", "", "?")
	case query.Or:
		if len(t) == 0 {
			return matchNone, nil
		}
		return joinConditions([]query.Filter(t), " OR ", "", "?")
	case query.Nor:
		if len(t) == 0 {
			return matchAll, nil
		}
		// A comparison against a null reference is unknown, and NOT keeps it
		// unknown. Folding each clause to false lets $nor match those rows.
		return joinConditions([]query.Filter(t), " OR ", "NOT ", "COALESCE(?, FALSE)")
	default:
		return nil, fmt.Errorf("unsupported filter node %T", f)
	}
}

func joinConditions(children []query.Filter, sep, prefix, placeholder string) (clause.Expression, error) {
	vars := make([]any, 0, len(children))
	placeholders := make([]string, 0, len(children))
	for _, child := range children {
		expr, err := BuildCondition(child)
		if err != nil {
			return nil, err
		}
		vars = append(vars, expr)
		placeholders = append(placeholders, placeholder)
	}

	return clause.Expr{
		SQL:  prefix + "(" + strings.Join(placeholders, sep) + ")",
		Vars: vars,
	}, nil
}

func buildCondition(c query.Condition) (clause.Expression, error) {
	col := clause.Column{Name: c.Field.Column}
	nullable := c.Field.Kind == query.KindRef

	switch c.Op {
	case query.OpEq:
		if c.Value == nil {
			return clause.Expr{SQL: "? IS NULL", Vars: []any{col}}, nil
		}
		return clause.Expr{SQL: "? = ?", Vars: []any{col, c.Value}}, nil
	case query.OpNe:
		if c.Value == nil {
			return clause.Expr{SQL: "? IS NOT NULL", Vars: []any{col}}, nil
		}
		if nullable {
			return clause.Expr{SQL: "(? <> ? OR ? IS NULL)", Vars: []any{col, c.Value, col}}, nil
		}
		return clause.Expr{SQL: "? <> ?", Vars: []any{col, c.Value}}, nil
	case query.OpGt:
		return clause.Expr{SQL: "? > ?", Vars: []any{col, c.Value}}, nil
	case query.OpGte:
		return clause.Expr{SQL: "? >= ?", Vars: []any{col, c.Value}}, nil
	case query.OpLt:
		return clause.Expr{SQL: "? < ?", Vars: []any{col, c.Value}}, nil
	case query.OpLte:
		return clause.Expr{SQL: "? <= ?", Vars: []any{col, c.Value}}, nil
	case query.OpIn, query.OpNin:
		values, hasNull, err := splitNull(c.Value)
		if err != nil {
			return nil, err
		}
		if c.Op == query.OpIn {
			return buildIn(col, values, hasNull), nil
		}
		return buildNotIn(col, values, hasNull, nullable), nil
	case query.OpExists:
		// Every stored record carries every field, null references included.
		if exists, _ := c.Value.(bool); exists {
			return matchAll, nil
		}
		return matchNone, nil
	default:
		return nil, fmt.Errorf("unsupported operator %s", c.Op)
	}
}

func buildIn(col clause.Column, values []any, hasNull bool) clause.Expression {
	switch {
	case len(values) == 0 && !hasNull:
		return matchNone
	case len(values) == 0:
		return clause.Expr{SQL: "? IS NULL", Vars: []any{col}}
	case hasNull:
		return clause.Expr{SQL: "(? IN ? OR ? IS NULL)", Vars: []any{col, values, col}}
	default:
		return clause.Expr{SQL: "? IN ?", Vars: []any{col, values}}
	}
}

func buildNotIn(col clause.Column, values []any, hasNull, nullable bool) clause.Expression {
	switch {
	case len(values) == 0 && !hasNull:
		return matchAll
	case len(values) == 0:
		return clause.Expr{SQL: "? IS NOT NULL", Vars: []any{col}}
	case hasNull:
		return clause.Expr{SQL: "? NOT IN ?", Vars: []any{col, values}}
	case nullable:
		return clause.Expr{SQL: "(? NOT IN ? OR ? IS NULL)", Vars: []any{col, values, col}}
	default:
		return clause.Expr{SQL: "? NOT IN ?", Vars: []any{col, values}}
	}
}

// buildSetCondition matches users by membership of their pending task set.
func buildSetCondition(c query.Condition) (clause.Expression, error) {
	id := clause.Column{Name: "id"}

	switch c.Op {
	case query.OpEq:
		return clause.Expr{SQL: "? IN (" + pendingTasksSubquery + " = ?)", Vars: []any{id, c.Value}}, nil
	case query.OpNe:
		return clause.Expr{SQL: "? NOT IN (" + pendingTasksSubquery + " = ?)", Vars: []any{id, c.Value}}, nil
	case query.OpIn, query.OpNin:
		values, _, err := splitNull(c.Value)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			if c.Op == query.OpIn {
				return matchNone, nil
			}
			return matchAll, nil
		}
		op := "IN"
		if c.Op == query.OpNin {
			op = "NOT IN"
		}
		return clause.Expr{SQL: "? " + op + " (" + pendingTasksSubquery + " IN ?)", Vars: []any{id, values}}, nil
	case query.OpExists:
		if exists, _ := c.Value.(bool); exists {
			return matchAll, nil
		}
		return matchNone, nil
	default:
		return nil, fmt.Errorf("operator %s is not supported on %s", c.Op, c.Field.Name)
	}
}

func splitNull(v any) ([]any, bool, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, false, fmt.Errorf("expected a list of values, got %T", v)
	}
	values := make([]any, 0, len(items))
	hasNull := false
	for _, item := range items {
		if item == nil {
			hasNull = true
			continue
		}
		values = append(values, item)
	}
	return values, hasNull, nil
}

// applySpec applies filter, sort, projection, skip and limit in that order.
func applySpec(db *gorm.DB, spec *query.Spec, coll *query.Collection) (*gorm.DB, error) {
	if spec == nil {
		return db, nil
	}

	if spec.Filter != nil {
		cond, err := BuildCondition(spec.Filter)
		if err != nil {
			return nil, err
		}
		db = db.Where(cond)
	}

	for _, key := range spec.Sort {
		db = db.Order(orderColumn(db.Dialector.Name(), key))
	}

	if spec.Projection != nil {
		db = db.Select(selectColumns(spec.Projection, coll))
	}

	if spec.Skip != nil && *spec.Skip > 0 {
		db = db.Offset(int(*spec.Skip))
		// OFFSET needs a LIMIT on sqlite and mysql.
		if spec.Limit == nil || *spec.Limit == 0 {
			db = db.Limit(maxRows)
		}
	}

	if spec.Limit != nil && *spec.Limit > 0 {
		db = db.Limit(int(*spec.Limit))
	}

	return db, nil
}

const maxRows = 1<<31 - 1

// orderColumn sorts null references first when ascending and last when
// descending. Postgres orders nulls the other way round by default.
func orderColumn(dialect string, key query.SortKey) clause.OrderByColumn {
	if dialect == "postgres" && key.Field.Kind == query.KindRef {
		order := key.Field.Column + " NULLS FIRST"
		if key.Desc {
			order = key.Field.Column + " DESC NULLS LAST"
		}
		return clause.OrderByColumn{Column: clause.Column{Name: order, Raw: true}}
	}
	return clause.OrderByColumn{Column: clause.Column{Name: key.Field.Column}, Desc: key.Desc}
}

// selectColumns lists the stored columns a projection keeps. The identifier is
// always read; rendering drops it when hidden.
func selectColumns(p *query.Projection, coll *query.Collection) []string {
	columns := []string{"id"}
	for _, f := range coll.Fields {
		if f.Kind == query.KindID || f.Kind == query.KindIDSet {
			continue
		}
		if p.Includes(f.Name) {
			columns = append(columns, f.Column)
		}
	}
	return columns
}
