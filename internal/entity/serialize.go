package entity

import (
	"context"
	"fmt"
	"strings"
)

// Referencer is implemented by anything rendered as an entity reference.
type Referencer interface {
	Reference() string
}

// Kind tags the variant a value serializes as.
type Kind int

// Value kinds.
const (
	KindPrimitive Kind = iota
	KindAttribute
	KindReference
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindAttribute:
		return "attribute"
	case KindReference:
		return "reference"
	default:
		return "opaque"
	}
}

// KindOf classifies v.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return KindPrimitive
	case Attribute, *Attribute:
		return KindAttribute
	case Referencer:
		return KindReference
	default:
		return KindOpaque
	}
}

// Serialize converts v into a JSON-safe value. Primitives pass through,
// attributes become objects, entities become "/<driver>/<name>" strings
// and anything else becomes its fmt.Sprint form. It never fails.
func Serialize(v any) any {
	switch KindOf(v) {
	case KindPrimitive:
		return v
	case KindAttribute:
		if a, ok := v.(*Attribute); ok {
			if a == nil {
				return nil
			}
			return serializeAttribute(*a)
		}
		return serializeAttribute(v.(Attribute))
	case KindReference:
		if e, ok := v.(*Entity); ok && e == nil {
			return nil
		}
		return v.(Referencer).Reference()
	default:
		return fmt.Sprint(v)
	}
}

// SerializedAttribute is the transport form of an Attribute. Fields are
// declared in alphabetical order so the JSON keys are sorted.
type SerializedAttribute struct {
	Datatype string  `json:"datatype"`
	Key      string  `json:"key"`
	Number   *int64  `json:"number"`
	Subkey   *string `json:"subkey"`
	Value    any     `json:"value"`
}

func serializeAttribute(a Attribute) SerializedAttribute {
	return SerializedAttribute{
		Datatype: string(a.Datatype),
		Key:      a.Key,
		Number:   a.Number,
		Subkey:   a.Subkey,
		Value:    Serialize(a.Value),
	}
}

// Reference returns the "/<driver>/<name>" form of e.
func Reference(e *Entity) string {
	return e.Reference()
}

// References serializes a slice of entities.
func References(entities []Entity) []string {
	out := make([]string, 0, len(entities))
	for i := range entities {
		out = append(out, entities[i].Reference())
	}
	return out
}

// ParseReference splits "/<driver>/<name>" into its parts. Driver names
// never contain a slash, so everything after the second one is the name.
func ParseReference(ref string) (driver, name string, err error) {
	rest, ok := strings.CutPrefix(ref, "/")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	driver, name, ok = strings.Cut(rest, "/")
	if !ok || driver == "" || name == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	return driver, name, nil
}

// Description is the full external representation of one entity. Fields
// are declared in alphabetical order so the JSON keys are sorted.
type Description struct {
	Attrs    []SerializedAttribute `json:"attrs"`
	Contents []string              `json:"contents"`
	Driver   string                `json:"driver"`
	Name     string                `json:"name"`
	Parents  []string              `json:"parents"`
}

// Describe loads e's attributes and relations from store and renders them.
func Describe(ctx context.Context, store Store, e *Entity) (*Description, error) {
	attrs, err := store.Attributes(ctx, e)
	if err != nil {
		return nil, err
	}
	contents, err := store.Contents(ctx, e)
	if err != nil {
		return nil, err
	}
	parents, err := store.Parents(ctx, e)
	if err != nil {
		return nil, err
	}

	d := &Description{
		Attrs:    make([]SerializedAttribute, 0, len(attrs)),
		Contents: References(contents),
		Driver:   e.Driver,
		Name:     e.Name,
		Parents:  References(parents),
	}
	for _, a := range attrs {
		d.Attrs = append(d.Attrs, serializeAttribute(a))
	}
	return d, nil
}
