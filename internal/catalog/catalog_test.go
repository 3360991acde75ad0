package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchlab/internal/config"
	"github.com/kailas-cloud/searchlab/internal/domain"
	"github.com/kailas-cloud/searchlab/internal/domain/agent"
	"github.com/kailas-cloud/searchlab/internal/domain/index"
)

func TestBooksIndex(t *testing.T) {
	def, err := BooksIndex("books")
	require.NoError(t, err)

	assert.Equal(t, "books", def.Name())
	assert.Nil(t, def.VectorSearch())
	assert.Equal(t, "Id", def.Schema().KeyField().Name())
	require.Len(t, def.Suggesters(), 1)
	assert.Equal(t, []string{"Name", "Author"}, def.Suggesters()[0].SourceFields)

	genres, ok := def.Schema().Field("Genres")
	require.True(t, ok)
	assert.True(t, genres.Capabilities().Searchable)
	assert.True(t, genres.Capabilities().Facetable)
}

func TestJobsIndex(t *testing.T) {
	def, err := JobsIndex("jobs", DefaultVectorParams())
	require.NoError(t, err)

	vs := def.VectorSearch()
	require.NotNil(t, vs)
	require.Len(t, vs.Algorithms, 1)
	assert.Equal(t, index.Algorithm{
		Name: AlgorithmName, Kind: index.HNSW, M: 4, EFConstruction: 400, EFSearch: 500, Metric: index.Cosine,
	}, vs.Algorithms[0])
	assert.Equal(t, []index.Profile{{Name: ProfileName, Algorithm: AlgorithmName}}, vs.Profiles)

	vectors := def.Schema().VectorFields()
	require.Len(t, vectors, 1)
	assert.Equal(t, VectorField, vectors[0].Name())
	assert.Equal(t, 1536, vectors[0].Vector().Dimensions)
}

func TestJobsIndex_InvalidDimensions(t *testing.T) {
	p := DefaultVectorParams()
	p.Dimensions = 0
	_, err := JobsIndex("jobs", p)
	assert.Error(t, err)
}

func TestCarsIndex(t *testing.T) {
	def, err := CarsIndex("cars-info", DefaultVectorParams())
	require.NoError(t, err)

	sem := def.Semantic()
	require.NotNil(t, sem)
	assert.Equal(t, SemanticConfigName, sem.DefaultConfiguration)
	require.Len(t, sem.Configurations, 1)
	assert.Equal(t, "Model", sem.Configurations[0].TitleField)
	assert.Equal(t, []string{"Description", "Model"}, sem.Configurations[0].ContentFields)
}

func TestVectorParamsFromConfig(t *testing.T) {
	p := VectorParamsFromConfig(config.IndexesConfig{
		HNSWM: 8, HNSWEFConstruct: 200, HNSWEFSearch: 300, Metric: "dotProduct",
	}, 3072)

	assert.Equal(t, VectorParams{
		Dimensions: 3072, M: 8, EFConstruction: 200, EFSearch: 300, Metric: index.DotProduct,
	}, p)
}

func TestCarsKnowledgeSource(t *testing.T) {
	ks := CarsKnowledgeSource("car-info-knowledge-source", "cars-info")
	require.NoError(t, ks.Validate())
	assert.Equal(t, "cars-info", ks.IndexName)
	assert.Equal(t, []string{"Id", "Model", "Price", "Description"}, ks.SourceDataSelect)

	ks.SourceDataSelect[0] = "changed"
	assert.Equal(t, "Id", CarSourceFields[0])
}

func TestCarsAgent(t *testing.T) {
	threshold := 1.8
	a := CarsAgent("car-info-knowledge-agent", "car-info-knowledge-source", agentModel(), &threshold)
	require.NoError(t, a.Validate())

	require.Len(t, a.KnowledgeSources, 1)
	ref := a.KnowledgeSources[0]
	assert.True(t, ref.IncludeReferences)
	assert.True(t, ref.IncludeReferenceSourceData)
	assert.InDelta(t, 1.8, *ref.RerankerThreshold, 1e-9)
	assert.True(t, a.Output.IncludeActivity)
}

func TestJobsAgentIndex(t *testing.T) {
	def, err := JobsAgentIndex("jobs-agent-index", DefaultVectorParams(), index.Vectorizer{
		ResourceURI:  "https://example.openai.azure.com",
		DeploymentID: "text-embedding-3-small",
		ModelName:    "text-embedding-3-small",
	})
	require.NoError(t, err)

	vs := def.VectorSearch()
	require.NotNil(t, vs)
	require.Len(t, vs.Vectorizers, 1)
	assert.Equal(t, VectorizerName, vs.Vectorizers[0].Name)
	assert.Equal(t, "text-embedding-3-small", vs.Vectorizers[0].DeploymentID)
	require.Len(t, vs.Profiles, 1)
	assert.Equal(t, index.Profile{Name: ProfileName, Algorithm: AlgorithmName, Vectorizer: VectorizerName}, vs.Profiles[0])

	sem := def.Semantic()
	require.NotNil(t, sem)
	assert.Equal(t, "Name", sem.Configurations[0].TitleField)
	assert.Equal(t, []string{"Description"}, sem.Configurations[0].ContentFields)

	plain, err := JobsIndex("jobs", DefaultVectorParams())
	require.NoError(t, err)
	assert.Empty(t, plain.VectorSearch().Profiles[0].Vectorizer)
}

func TestJobsKnowledgeSourceAndAgent(t *testing.T) {
	ks := JobsKnowledgeSource("jobs-knowledge-source", "jobs-agent-index")
	require.NoError(t, ks.Validate())
	assert.Equal(t, []string{"Id", "Name", "Description", "Salary"}, ks.SourceDataSelect)

	ks.SourceDataSelect[0] = "changed"
	assert.Equal(t, "Id", JobSourceFields[0])

	threshold := 2.5
	a := JobsAgent("jobs-knowledge-agent", ks.Name, agentModel(), &threshold)
	require.NoError(t, a.Validate())
	require.Len(t, a.KnowledgeSources, 1)
	assert.Equal(t, "jobs-knowledge-source", a.KnowledgeSources[0].Name)
	assert.InDelta(t, 2.5, *a.KnowledgeSources[0].RerankerThreshold, 1e-9)
	assert.Equal(t, agent.AnswerSynthesis, a.Output.Modality)
}

func TestSampleData(t *testing.T) {
	books := SampleBooks()
	jobs := SampleJobs()
	cars := SampleCars()
	assert.Len(t, books, 10)
	assert.Len(t, jobs, 5)
	assert.Len(t, cars, 8)

	assertUniqueKeys(t, Documents(books))
	assertUniqueKeys(t, Documents(jobs))
	assertUniqueKeys(t, Documents(cars))

	for _, c := range cars {
		assert.Contains(t, c.Description, "Priced at $", c.Model)
	}
}

func TestVectorDocument_Embedding(t *testing.T) {
	var doc domain.VectorDocument = NewJob("Platform Engineer", 130_000, "Run Kubernetes clusters.")

	assert.NotContains(t, doc.Fields(), VectorField)
	assert.Equal(t, "Run Kubernetes clusters.", doc.EmbeddingSource())

	doc.SetEmbedding([]float32{0.1, 0.2})
	assert.Equal(t, []float32{0.1, 0.2}, doc.Fields()[VectorField])
}

func TestNewDocuments_GenerateKeys(t *testing.T) {
	a := NewBook("A", "", "X", 1, "Fantasy")
	b := NewBook("B", "", "Y", 2, "Fantasy")
	c := NewCar("Model", 1, "d")

	assert.NotEmpty(t, a.Key())
	assert.NotEmpty(t, c.Key())
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, a.Key(), a.Fields()["Id"])
}

func assertUniqueKeys(t *testing.T, docs []domain.Document) {
	t.Helper()
	seen := make(map[string]bool, len(docs))
	for _, d := range docs {
		require.NotEmpty(t, d.Key())
		assert.False(t, seen[d.Key()], "duplicate key %s", d.Key())
		seen[d.Key()] = true
	}
}

func agentModel() agent.ModelBinding {
	return agent.ModelBinding{
		Kind:         agent.AzureOpenAI,
		ResourceURI:  "https://example.openai.azure.com",
		DeploymentID: "gpt-4.1-mini",
		ModelName:    "gpt-4.1-mini",
	}
}
