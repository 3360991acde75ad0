package schema

import (
	"fmt"
	"sync"

	"github.com/kailas-cloud/searchlab/internal/domain/schema/field"
)

// DocType tags a document variant.
type DocType string

// Schema is the ordered field declaration of one document type (immutable value object).
type Schema struct {
	docType DocType
	fields  []field.Field
	keyIdx  int
}

// New validates and creates a Schema.
// Exactly one key field is required; names must be unique.
func New(docType DocType, fields ...field.Field) (Schema, error) {
	if docType == "" {
		return Schema{}, fmt.Errorf("document type is required")
	}
	if len(fields) == 0 {
		return Schema{}, fmt.Errorf("schema %q: at least one field is required", docType)
	}
	if len(fields) > 1000 {
		return Schema{}, fmt.Errorf("schema %q: too many fields (max 1000)", docType)
	}

	keyIdx := -1
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if seen[f.Name()] {
			return Schema{}, fmt.Errorf("schema %q: duplicate field name: %s", docType, f.Name())
		}
		seen[f.Name()] = true
		if f.IsKey() {
			if keyIdx != -1 {
				return Schema{}, fmt.Errorf("schema %q: multiple key fields: %s, %s",
					docType, fields[keyIdx].Name(), f.Name())
			}
			keyIdx = i
		}
	}
	if keyIdx == -1 {
		return Schema{}, fmt.Errorf("schema %q: no key field", docType)
	}

	own := make([]field.Field, len(fields))
	copy(own, fields)
	return Schema{docType: docType, fields: own, keyIdx: keyIdx}, nil
}

// MustNew is New for static declarations.
func MustNew(docType DocType, fields ...field.Field) Schema {
	s, err := New(docType, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// DocType returns the document type tag.
func (s Schema) DocType() DocType { return s.docType }

// Fields returns the ordered field declarations.
func (s Schema) Fields() []field.Field { return s.fields }

// KeyField returns the single key field.
func (s Schema) KeyField() field.Field { return s.fields[s.keyIdx] }

// Field looks up a field by name.
func (s Schema) Field(name string) (field.Field, bool) {
	for _, f := range s.fields {
		if f.Name() == name {
			return f, true
		}
	}
	return field.Field{}, false
}

// VectorFields returns the vector fields in declaration order.
func (s Schema) VectorFields() []field.Field {
	var out []field.Field
	for _, f := range s.fields {
		if f.IsVector() {
			out = append(out, f)
		}
	}
	return out
}

// Retrievable returns the names of non-vector, non-hidden fields.
// Used as the default select list so that results do not carry raw vectors.
func (s Schema) Retrievable() []string {
	out := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		if f.IsVector() || !f.Retrievable() {
			continue
		}
		out = append(out, f.Name())
	}
	return out
}

// Registry maps document types to their schemas.
type Registry struct {
	mu      sync.RWMutex
	schemas map[DocType]Schema
}

// NewRegistry creates a registry pre-populated with schemas.
func NewRegistry(schemas ...Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[DocType]Schema, len(schemas))}
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a schema. Registering a type twice is an error.
func (r *Registry) Register(s Schema) error {
	if s.docType == "" {
		return fmt.Errorf("cannot register zero schema")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schemas[s.docType]; ok {
		return fmt.Errorf("schema %q already registered", s.docType)
	}
	r.schemas[s.docType] = s
	return nil
}

// Lookup returns the schema registered for docType.
func (r *Registry) Lookup(docType DocType) (Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[docType]
	return s, ok
}

// MustLookup returns the schema for docType or panics.
func (r *Registry) MustLookup(docType DocType) Schema {
	s, ok := r.Lookup(docType)
	if !ok {
		panic(fmt.Sprintf("schema %q not registered", docType))
	}
	return s
}
