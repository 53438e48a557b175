package entity

import (
	"fmt"
	"time"
)

// Entity is a named, typed node in the inventory graph.
type Entity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Driver    string    `json:"driver"`
	CreatedAt time.Time `json:"created_at"`
}

// Reference returns the canonical "/<driver>/<name>" form.
func (e Entity) Reference() string {
	return "/" + e.Driver + "/" + e.Name
}

// String implements fmt.Stringer.
func (e Entity) String() string {
	return e.Reference()
}

// Datatype tags how an attribute value is encoded.
type Datatype string

// Attribute datatypes.
const (
	DatatypeString Datatype = "string"
	DatatypeInt    Datatype = "int"
	DatatypeBool   Datatype = "bool"
	DatatypeNone   Datatype = "none"
)

// Attribute is a single typed value attached to an entity, addressable by
// (Key, Subkey, Number).
type Attribute struct {
	Key      string
	Subkey   *string
	Number   *int64
	Value    any
	Datatype Datatype
}

// NewAttribute builds an attribute and infers its datatype from value.
// Supported values are string, the integer kinds, bool and nil.
func NewAttribute(key string, value any) (Attribute, error) {
	attr := Attribute{Key: key}

	switch v := value.(type) {
	case nil:
		attr.Datatype = DatatypeNone
	case string:
		attr.Value, attr.Datatype = v, DatatypeString
	case bool:
		attr.Value, attr.Datatype = v, DatatypeBool
	case int:
		attr.Value, attr.Datatype = int64(v), DatatypeInt
	case int32:
		attr.Value, attr.Datatype = int64(v), DatatypeInt
	case int64:
		attr.Value, attr.Datatype = v, DatatypeInt
	default:
		return Attribute{}, fmt.Errorf("%w: unsupported attribute value %T", ErrInvalidRequest, value)
	}
	return attr, nil
}

// WithSubkey returns a copy of a with the subkey set.
func (a Attribute) WithSubkey(subkey string) Attribute {
	a.Subkey = &subkey
	return a
}

// WithNumber returns a copy of a with the number set.
func (a Attribute) WithNumber(n int64) Attribute {
	a.Number = &n
	return a
}

// Action names an entity mutation.
type Action string

// Mutation actions reported to notifiers.
const (
	ActionCreated  Action = "created"
	ActionDeleted  Action = "deleted"
	ActionInserted Action = "inserted"
)

// Event describes one completed mutation.
type Event struct {
	Action Action `json:"action"`
	Driver string `json:"driver"`
	Name   string `json:"name"`

	// Container is the receiving entity's reference for ActionInserted.
	Container string `json:"container,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Reference returns the "/<driver>/<name>" form of the affected entity.
func (ev Event) Reference() string {
	return "/" + ev.Driver + "/" + ev.Name
}
