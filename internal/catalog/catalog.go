// Package catalog declares the sample document types, their index
// definitions and the seed data used by the demo scenarios.
package catalog

import (
	"github.com/google/uuid"

	"github.com/kailas-cloud/searchlab/internal/config"
	"github.com/kailas-cloud/searchlab/internal/domain"
	"github.com/kailas-cloud/searchlab/internal/domain/index"
)

// Shared index configuration names.
const (
	AlgorithmName      = "hnsw"
	ProfileName        = "v1-hnsw"
	SemanticConfigName = "semantic_config"
	SuggesterName      = "sg"
	VectorField        = "DescriptionVector"
	VectorizerName     = "azure_openai_text_3_small"
)

// VectorParams sizes vector fields and tunes the HNSW graph.
// Zero graph parameters leave the service defaults in place.
type VectorParams struct {
	Dimensions     int
	M              int
	EFConstruction int
	EFSearch       int
	Metric         index.Metric
}

// DefaultVectorParams matches text-embedding-3-small.
func DefaultVectorParams() VectorParams {
	return VectorParams{
		Dimensions:     1536,
		M:              4,
		EFConstruction: 400,
		EFSearch:       500,
		Metric:         index.Cosine,
	}
}

// VectorParamsFromConfig combines the configured HNSW tuning with the
// embedding size.
func VectorParamsFromConfig(cfg config.IndexesConfig, dims int) VectorParams {
	return VectorParams{
		Dimensions:     dims,
		M:              cfg.HNSWM,
		EFConstruction: cfg.HNSWEFConstruct,
		EFSearch:       cfg.HNSWEFSearch,
		Metric:         index.Metric(cfg.Metric),
	}
}

func (p VectorParams) vectorSearch() index.VectorSearch {
	return index.VectorSearch{
		Algorithms: []index.Algorithm{{
			Name:           AlgorithmName,
			Kind:           index.HNSW,
			M:              p.M,
			EFConstruction: p.EFConstruction,
			EFSearch:       p.EFSearch,
			Metric:         p.Metric,
		}},
		Profiles: []index.Profile{{Name: ProfileName, Algorithm: AlgorithmName}},
	}
}

// vectorSearchWith binds the profile to vz so the service can embed query
// text itself. An unnamed vectorizer gets VectorizerName.
func (p VectorParams) vectorSearchWith(vz index.Vectorizer) index.VectorSearch {
	if vz.Name == "" {
		vz.Name = VectorizerName
	}
	vs := p.vectorSearch()
	vs.Profiles[0].Vectorizer = vz.Name
	vs.Vectorizers = []index.Vectorizer{vz}
	return vs
}

// newKey returns id, or a fresh random key when id is empty.
// Keys are assigned once at construction and never changed.
func newKey(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// Documents adapts typed documents to the upload contract.
func Documents[T domain.Document](items []T) []domain.Document {
	out := make([]domain.Document, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}
