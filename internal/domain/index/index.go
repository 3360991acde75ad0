package index

import (
	"fmt"
	"regexp"

	"github.com/kailas-cloud/searchlab/internal/domain/schema"
	"github.com/kailas-cloud/searchlab/internal/domain/schema/field"
)

var nameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// AlgorithmKind is the approximate nearest neighbor algorithm.
type AlgorithmKind string

// Algorithm kinds.
const (
	HNSW AlgorithmKind = "hnsw"
)

// Metric is the vector similarity metric.
type Metric string

// Similarity metrics.
const (
	Cosine     Metric = "cosine"
	DotProduct Metric = "dotProduct"
	Euclidean  Metric = "euclidean"
)

// Algorithm is a named ANN graph configuration. Zero values mean service defaults.
type Algorithm struct {
	Name           string
	Kind           AlgorithmKind
	M              int
	EFConstruction int
	EFSearch       int
	Metric         Metric
}

// Vectorizer lets the service embed query text itself (azureOpenAI only).
type Vectorizer struct {
	Name         string
	ResourceURI  string
	DeploymentID string
	ModelName    string
	APIKey       string
}

// Profile binds vector fields to an algorithm and, optionally, a vectorizer.
type Profile struct {
	Name       string
	Algorithm  string
	Vectorizer string
}

// VectorSearch is the vector configuration of an index.
type VectorSearch struct {
	Algorithms  []Algorithm
	Profiles    []Profile
	Vectorizers []Vectorizer
}

// SemanticConfig prioritizes fields for semantic re-ranking and answer synthesis.
type SemanticConfig struct {
	Name          string
	TitleField    string
	ContentFields []string
	KeywordFields []string
}

// Semantic is the semantic configuration of an index.
type Semantic struct {
	DefaultConfiguration string
	Configurations       []SemanticConfig
}

// Suggester is an autocomplete source definition.
type Suggester struct {
	Name         string
	SourceFields []string
}

// Definition is a validated remote index definition (immutable value object).
type Definition struct {
	name         string
	schema       schema.Schema
	vectorSearch *VectorSearch
	semantic     *Semantic
	suggesters   []Suggester
}

// Option configures optional parts of a Definition.
type Option func(*Definition)

// WithVectorSearch attaches a vector search configuration.
func WithVectorSearch(vs VectorSearch) Option {
	return func(d *Definition) { d.vectorSearch = &vs }
}

// WithSemantic attaches a semantic configuration.
func WithSemantic(s Semantic) Option {
	return func(d *Definition) { d.semantic = &s }
}

// WithSuggester adds an autocomplete suggester.
func WithSuggester(name string, sourceFields ...string) Option {
	return func(d *Definition) {
		d.suggesters = append(d.suggesters, Suggester{Name: name, SourceFields: sourceFields})
	}
}

// New validates and creates a Definition.
func New(name string, s schema.Schema, opts ...Option) (Definition, error) {
	if err := validateName(name); err != nil {
		return Definition{}, err
	}
	if s.DocType() == "" {
		return Definition{}, fmt.Errorf("index %q: schema is required", name)
	}

	d := Definition{name: name, schema: s}
	for _, o := range opts {
		o(&d)
	}

	if err := d.validateVectorSearch(); err != nil {
		return Definition{}, fmt.Errorf("index %q: %w", name, err)
	}
	if err := d.validateSemantic(); err != nil {
		return Definition{}, fmt.Errorf("index %q: %w", name, err)
	}
	if err := d.validateSuggesters(); err != nil {
		return Definition{}, fmt.Errorf("index %q: %w", name, err)
	}
	return d, nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("index name is required")
	}
	if len(name) > 128 {
		return fmt.Errorf("index name too long (max 128)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("index name %q must be lowercase letters, digits and dashes", name)
	}
	return nil
}

func (d *Definition) validateVectorSearch() error {
	vectors := d.schema.VectorFields()
	if d.vectorSearch == nil {
		if len(vectors) > 0 {
			return fmt.Errorf("vector field %q requires a vector search configuration", vectors[0].Name())
		}
		return nil
	}

	algorithms := make(map[string]bool, len(d.vectorSearch.Algorithms))
	for _, a := range d.vectorSearch.Algorithms {
		if a.Name == "" {
			return fmt.Errorf("algorithm name is required")
		}
		if a.Kind != HNSW {
			return fmt.Errorf("algorithm %q: unsupported kind %q", a.Name, a.Kind)
		}
		algorithms[a.Name] = true
	}
	vectorizers := make(map[string]bool, len(d.vectorSearch.Vectorizers))
	for _, v := range d.vectorSearch.Vectorizers {
		if v.Name == "" {
			return fmt.Errorf("vectorizer name is required")
		}
		vectorizers[v.Name] = true
	}
	profiles := make(map[string]bool, len(d.vectorSearch.Profiles))
	for _, p := range d.vectorSearch.Profiles {
		if !algorithms[p.Algorithm] {
			return fmt.Errorf("profile %q references unknown algorithm %q", p.Name, p.Algorithm)
		}
		if p.Vectorizer != "" && !vectorizers[p.Vectorizer] {
			return fmt.Errorf("profile %q references unknown vectorizer %q", p.Name, p.Vectorizer)
		}
		profiles[p.Name] = true
	}
	for _, f := range vectors {
		if !profiles[f.Vector().Profile] {
			return fmt.Errorf("vector field %q references unknown profile %q", f.Name(), f.Vector().Profile)
		}
	}
	return nil
}

func (d *Definition) validateSemantic() error {
	if d.semantic == nil {
		return nil
	}
	names := make(map[string]bool, len(d.semantic.Configurations))
	for _, c := range d.semantic.Configurations {
		if c.Name == "" {
			return fmt.Errorf("semantic configuration name is required")
		}
		names[c.Name] = true
		if c.TitleField != "" {
			if _, ok := d.schema.Field(c.TitleField); !ok {
				return fmt.Errorf("semantic %q: unknown title field %q", c.Name, c.TitleField)
			}
		}
		for _, group := range [][]string{c.ContentFields, c.KeywordFields} {
			for _, fn := range group {
				if _, ok := d.schema.Field(fn); !ok {
					return fmt.Errorf("semantic %q: unknown field %q", c.Name, fn)
				}
			}
		}
	}
	if d.semantic.DefaultConfiguration != "" && !names[d.semantic.DefaultConfiguration] {
		return fmt.Errorf("unknown default semantic configuration %q", d.semantic.DefaultConfiguration)
	}
	return nil
}

func (d *Definition) validateSuggesters() error {
	for _, sg := range d.suggesters {
		if sg.Name == "" {
			return fmt.Errorf("suggester name is required")
		}
		if len(sg.SourceFields) == 0 {
			return fmt.Errorf("suggester %q: at least one source field is required", sg.Name)
		}
		for _, fn := range sg.SourceFields {
			f, ok := d.schema.Field(fn)
			if !ok {
				return fmt.Errorf("suggester %q: unknown field %q", sg.Name, fn)
			}
			if f.FieldType() != field.String && f.FieldType() != field.StringList {
				return fmt.Errorf("suggester %q: field %q is not a string", sg.Name, fn)
			}
			if !f.Capabilities().Searchable {
				return fmt.Errorf("suggester %q: field %q is not searchable", sg.Name, fn)
			}
		}
	}
	return nil
}

// Name returns the index name.
func (d Definition) Name() string { return d.name }

// Schema returns the document schema.
func (d Definition) Schema() schema.Schema { return d.schema }

// VectorSearch returns the vector configuration, nil when absent.
func (d Definition) VectorSearch() *VectorSearch { return d.vectorSearch }

// Semantic returns the semantic configuration, nil when absent.
func (d Definition) Semantic() *Semantic { return d.semantic }

// Suggesters returns the autocomplete suggesters.
func (d Definition) Suggesters() []Suggester { return d.suggesters }
