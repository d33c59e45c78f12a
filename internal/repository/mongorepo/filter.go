// Package mongorepo implements the repository interfaces on MongoDB.
package mongorepo

import (
	"fmt"

	"github.com/yukikurage/task-user-api/internal/query"
	"go.mongodb.org/mongo-driver/bson"
)

// matchNone selects no document; $in with an empty list never matches.
var matchNone = bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: bson.A{}}}}}

// BuildFilter compiles a filter tree into a bson query document.
func BuildFilter(f query.Filter) (bson.D, error) {
	switch t := f.(type) {
	case nil:
		return bson.D{}, nil
	case query.Condition:
		return buildCondition(t)
	case query.And:
		if len(t) == 0 {
			return bson.D{}, nil
		}
		return buildGroup("$and", t)
	case query.Or:
		if len(t) == 0 {
			return matchNone, nil
		}
		return buildGroup("$or", t)
	case query.Nor:
		if len(t) == 0 {
			return bson.D{}, nil
		}
		return buildGroup("$nor", t)
	default:
		return nil, fmt.Errorf("unsupported filter node %T", f)
	}
}

func buildGroup(op string, children []query.Filter) (bson.D, error) {
	clauses := make(bson.A, 0, len(children))
	for _, child := range children {
		doc, err := BuildFilter(child)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, doc)
	}
	return bson.D{{Key: op, Value: clauses}}, nil
}

func buildCondition(c query.Condition) (bson.D, error) {
	value := c.Value

	switch c.Op {
	case query.OpEq, query.OpNe, query.OpExists:
	case query.OpGt, query.OpGte, query.OpLt, query.OpLte:
		if c.Field.Kind == query.KindIDSet {
			return nil, fmt.Errorf("operator %s is not supported on %s", c.Op, c.Field.Name)
		}
	case query.OpIn, query.OpNin:
		items, ok := c.Value.([]any)
		if !ok {
			return nil, fmt.Errorf("expected a list of values, got %T", c.Value)
		}
		value = bson.A(items)
	default:
		return nil, fmt.Errorf("unsupported operator %s", c.Op)
	}

	return bson.D{{Key: documentKey(c.Field), Value: bson.D{{Key: string(c.Op), Value: value}}}}, nil
}

// documentKey is the stored key of a field; documents keep the JSON names.
func documentKey(f query.Field) string {
	if f.Kind == query.KindID {
		return "_id"
	}
	return f.Name
}

// BuildSort compiles sort keys into an ordered bson sort document.
func BuildSort(keys []query.SortKey) bson.D {
	if len(keys) == 0 {
		return nil
	}

	sort := make(bson.D, 0, len(keys))
	for _, key := range keys {
		direction := 1
		if key.Desc {
			direction = -1
		}
		sort = append(sort, bson.E{Key: documentKey(key.Field), Value: direction})
	}
	return sort
}

// BuildProjection compiles a projection into a bson projection document.
func BuildProjection(p *query.Projection) bson.D {
	if p == nil {
		return nil
	}

	projection := bson.D{}
	flag := 1
	if p.Exclude {
		flag = 0
	}
	for _, f := range p.Fields {
		projection = append(projection, bson.E{Key: documentKey(f), Value: flag})
	}

	switch {
	case p.HideID:
		projection = append(projection, bson.E{Key: "_id", Value: 0})
	case !p.Exclude && len(p.Fields) == 0:
		projection = append(projection, bson.E{Key: "_id", Value: 1})
	}
	return projection
}
