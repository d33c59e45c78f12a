package query

// Op is a comparison operator in a filter condition.
type Op string

const (
	OpEq     Op = "$eq"
	OpNe     Op = "$ne"
	OpGt     Op = "$gt"
	OpGte    Op = "$gte"
	OpLt     Op = "$lt"
	OpLte    Op = "$lte"
	OpIn     Op = "$in"
	OpNin    Op = "$nin"
	OpExists Op = "$exists"
)

// Filter is a node of a filter expression tree: Condition, And, Or or Nor.
type Filter interface {
	isFilter()
}

// Condition compares one field against a value already coerced to the field's
// kind: string, bool, time.Time or nil for scalars, []any for $in/$nin, and
// bool for $exists.
type Condition struct {
	Field Field
	Op    Op
	Value any
}

// And matches when every child matches.
type And []Filter

// Or matches when any child matches.
type Or []Filter

// Nor matches when no child matches.
type Nor []Filter

func (Condition) isFilter() {}
func (And) isFilter()       {}
func (Or) isFilter()        {}
func (Nor) isFilter()       {}

// Eq builds an equality condition.
func Eq(field Field, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// InIDs builds a membership condition over identifiers.
func InIDs(field Field, ids []string) Condition {
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return Condition{Field: field, Op: OpIn, Value: values}
}

// Merge combines filters with AND, dropping nil entries.
func Merge(filters ...Filter) Filter {
	var parts And
	for _, f := range filters {
		if f != nil {
			parts = append(parts, f)
		}
	}
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	default:
		return parts
	}
}

// SortKey orders results by one field.
type SortKey struct {
	Field Field
	Desc  bool
}

// Projection restricts which fields are returned. In inclusion mode Fields
// lists the kept fields; in exclusion mode it lists the dropped ones. The
// identifier is governed only by HideID.
type Projection struct {
	Exclude bool
	Fields  []Field
	HideID  bool
}

// Includes reports whether the field named name survives the projection.
func (p *Projection) Includes(name string) bool {
	if p == nil {
		return true
	}
	if name == IDField || name == "id" {
		return !p.HideID
	}
	listed := false
	for _, f := range p.Fields {
		if f.Name == name {
			listed = true
			break
		}
	}
	return listed != p.Exclude
}

// Spec is a translated query. Nil Skip or Limit means the parameter was absent.
type Spec struct {
	Filter     Filter
	Sort       []SortKey
	Projection *Projection
	Skip       *int64
	Limit      *int64
	Count      bool
}

// ApplyDefaultLimit sets Limit when the caller did not supply one.
func (s *Spec) ApplyDefaultLimit(limit int64) {
	if s.Limit == nil && limit > 0 {
		s.Limit = &limit
	}
}
