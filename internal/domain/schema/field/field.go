package field

import (
	"fmt"
	"regexp"
)

// Type is the EDM value type of a field.
type Type string

// Field type constants.
const (
	String       Type = "Edm.String"
	Int32        Type = "Edm.Int32"
	Int64        Type = "Edm.Int64"
	Double       Type = "Edm.Double"
	Boolean      Type = "Edm.Boolean"
	StringList   Type = "Collection(Edm.String)"
	SingleVector Type = "Collection(Edm.Single)"
)

// IsValid checks if the type is one of the supported values.
func (t Type) IsValid() bool {
	switch t {
	case String, Int32, Int64, Double, Boolean, StringList, SingleVector:
		return true
	}
	return false
}

// IsCollection reports whether values of this type are sequences.
func (t Type) IsCollection() bool { return t == StringList || t == SingleVector }

var nameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Capabilities are the search capability flags of a field.
type Capabilities struct {
	Key        bool
	Filterable bool
	Sortable   bool
	Facetable  bool
	Searchable bool
	Hidden     bool
}

// Vector describes a vector field's fixed dimension and search profile.
type Vector struct {
	Dimensions int
	Profile    string
}

// Field is an immutable value object describing an index field.
type Field struct {
	name      string
	fieldType Type
	caps      Capabilities
	vector    *Vector
}

// New validates and creates a scalar field.
func New(name string, ft Type, caps Capabilities) (Field, error) {
	if err := validateName(name); err != nil {
		return Field{}, err
	}
	if !ft.IsValid() {
		return Field{}, fmt.Errorf("invalid field type %q for %q", ft, name)
	}
	if ft == SingleVector {
		return Field{}, fmt.Errorf("field %q: use NewVector for vector fields", name)
	}
	if caps.Key && ft != String {
		return Field{}, fmt.Errorf("key field %q must be %s, got %s", name, String, ft)
	}
	if caps.Searchable && ft != String && ft != StringList {
		return Field{}, fmt.Errorf("searchable field %q must be a string type", name)
	}
	if caps.Sortable && ft.IsCollection() {
		return Field{}, fmt.Errorf("collection field %q cannot be sortable", name)
	}
	return Field{name: name, fieldType: ft, caps: caps}, nil
}

// NewVector validates and creates a vector field bound to a search profile.
func NewVector(name string, dimensions int, profile string) (Field, error) {
	if err := validateName(name); err != nil {
		return Field{}, err
	}
	if dimensions <= 0 {
		return Field{}, fmt.Errorf("vector field %q: dimensions must be positive", name)
	}
	if profile == "" {
		return Field{}, fmt.Errorf("vector field %q: profile is required", name)
	}
	return Field{
		name:      name,
		fieldType: SingleVector,
		caps:      Capabilities{Searchable: true},
		vector:    &Vector{Dimensions: dimensions, Profile: profile},
	}, nil
}

// MustNew is New for static declarations. Panics on invalid input.
func MustNew(name string, ft Type, caps Capabilities) Field {
	f, err := New(name, ft, caps)
	if err != nil {
		panic(err)
	}
	return f
}

// MustNewVector is NewVector for static declarations. Panics on invalid input.
func MustNewVector(name string, dimensions int, profile string) Field {
	f, err := NewVector(name, dimensions, profile)
	if err != nil {
		panic(err)
	}
	return f
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("field name is required")
	}
	if len(name) > 128 {
		return fmt.Errorf("field name %q too long (max 128)", name)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("field name %q must start with a letter and contain only letters, digits and underscores", name)
	}
	return nil
}

// Name returns the field name.
func (f Field) Name() string { return f.name }

// FieldType returns the field's EDM type.
func (f Field) FieldType() Type { return f.fieldType }

// Capabilities returns the capability flags.
func (f Field) Capabilities() Capabilities { return f.caps }

// IsKey reports whether this is the document key.
func (f Field) IsKey() bool { return f.caps.Key }

// IsVector reports whether this is a vector field.
func (f Field) IsVector() bool { return f.vector != nil }

// Vector returns the vector settings, nil for scalar fields.
func (f Field) Vector() *Vector { return f.vector }

// Retrievable reports whether the field is returned in results.
func (f Field) Retrievable() bool { return !f.caps.Hidden }
