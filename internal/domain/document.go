package domain

// Document is an uploadable search document.
// Fields returns the wire field map, keyed by index field name.
type Document interface {
	Key() string
	Fields() map[string]any
}

// VectorDocument is a Document with a derived vector field.
// The vector is recomputed from EmbeddingSource on every seed.
type VectorDocument interface {
	Document
	EmbeddingSource() string
	SetEmbedding(vec []float32)
}
