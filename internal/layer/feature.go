package layer

import (
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
)

// FieldType enumerates the scalar attribute types a schema may declare.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInt
	FieldFloat
)

func (t FieldType) String() string {
	switch t {
	case FieldString:
		return "string"
	case FieldInt:
		return "int"
	case FieldFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Field is one named, typed attribute column.
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// Schema is the ordered attribute layout shared by every feature in a
// vector layer. Validation happens once at layer construction, so
// operations never type-check per feature.
type Schema []Field

// FieldIndex returns the position of the named field, or -1.
func (s Schema) FieldIndex(name string) int {
	for i, f := range s {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Validate checks one attribute row against the schema.
func (s Schema) Validate(attrs []any) error {
	if len(attrs) != len(s) {
		return eris.Errorf("layer: attribute row has %d values, schema has %d fields", len(attrs), len(s))
	}
	for i, f := range s {
		if attrs[i] == nil {
			continue
		}
		switch f.Type {
		case FieldString:
			if _, ok := attrs[i].(string); !ok {
				return eris.Errorf("layer: field %q expects string, got %T", f.Name, attrs[i])
			}
		case FieldInt:
			if _, ok := attrs[i].(int64); !ok {
				return eris.Errorf("layer: field %q expects int64, got %T", f.Name, attrs[i])
			}
		case FieldFloat:
			if _, ok := attrs[i].(float64); !ok {
				return eris.Errorf("layer: field %q expects float64, got %T", f.Name, attrs[i])
			}
		}
	}
	return nil
}

// Merge concatenates two schemas for overlay outputs. Colliding names from
// the second schema get a "_2" suffix so both columns survive.
func (s Schema) Merge(other Schema) Schema {
	out := make(Schema, 0, len(s)+len(other))
	out = append(out, s...)
	for _, f := range other {
		name := f.Name
		if s.FieldIndex(name) >= 0 {
			name += "_2"
		}
		out = append(out, Field{Name: name, Type: f.Type})
	}
	return out
}

// Feature pairs a geometry with one attribute row laid out per the owning
// layer's schema. An empty geometry is a legitimate state (for example a
// feature eroded away by a negative buffer).
type Feature struct {
	Geometry geom.T
	Attrs    []any
}
