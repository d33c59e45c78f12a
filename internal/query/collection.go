package query

// FieldKind describes how a field's values are typed and compared.
type FieldKind int

const (
	// KindID is the record's own identifier.
	KindID FieldKind = iota
	// KindRef is a nullable identifier pointing at another record.
	KindRef
	KindString
	KindBool
	KindTime
	// KindIDSet is a set of identifiers; equality means membership.
	KindIDSet
)

// Field is one queryable attribute of a collection.
type Field struct {
	Name   string
	Kind   FieldKind
	Column string
}

// Sortable reports whether the field can be used as a sort key.
func (f Field) Sortable() bool {
	return f.Kind != KindIDSet
}

// Collection is the catalog of fields a query may reference.
type Collection struct {
	Name   string
	Fields []Field
	byName map[string]Field
}

// IDField is the JSON name of every record identifier.
const IDField = "_id"

// NewCollection builds a catalog. The identifier field is also reachable as "id".
func NewCollection(name string, fields ...Field) *Collection {
	c := &Collection{
		Name:   name,
		Fields: fields,
		byName: make(map[string]Field, len(fields)+1),
	}
	for _, f := range fields {
		c.byName[f.Name] = f
		if f.Kind == KindID {
			c.byName["id"] = f
		}
	}
	return c
}

// Field looks up a field by JSON name.
func (c *Collection) Field(name string) (Field, bool) {
	f, ok := c.byName[name]
	return f, ok
}

// MustField looks up a field and panics when the catalog lacks it.
func (c *Collection) MustField(name string) Field {
	f, ok := c.byName[name]
	if !ok {
		panic("query: collection " + c.Name + " has no field " + name)
	}
	return f
}

// Tasks is the catalog of the tasks collection.
var Tasks = NewCollection("tasks",
	Field{Name: IDField, Kind: KindID, Column: "id"},
	Field{Name: "name", Kind: KindString, Column: "name"},
	Field{Name: "description", Kind: KindString, Column: "description"},
	Field{Name: "deadline", Kind: KindTime, Column: "deadline"},
	Field{Name: "completed", Kind: KindBool, Column: "completed"},
	Field{Name: "assignedUser", Kind: KindRef, Column: "assigned_user"},
	Field{Name: "assignedUserName", Kind: KindString, Column: "assigned_user_name"},
	Field{Name: "dateCreated", Kind: KindTime, Column: "date_created"},
)

// Users is the catalog of the users collection.
var Users = NewCollection("users",
	Field{Name: IDField, Kind: KindID, Column: "id"},
	Field{Name: "name", Kind: KindString, Column: "name"},
	Field{Name: "email", Kind: KindString, Column: "email"},
	Field{Name: "pendingTasks", Kind: KindIDSet, Column: "pending_tasks"},
	Field{Name: "dateCreated", Kind: KindTime, Column: "date_created"},
)
