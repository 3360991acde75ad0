package catalog

import (
	"github.com/kailas-cloud/searchlab/internal/domain/agent"
	"github.com/kailas-cloud/searchlab/internal/domain/index"
	"github.com/kailas-cloud/searchlab/internal/domain/schema"
	"github.com/kailas-cloud/searchlab/internal/domain/schema/field"
)

// Job is a vector sample document. DescriptionVector embeds Description.
type Job struct {
	ID                string    `json:"Id"`
	Name              string    `json:"Name"`
	Salary            float64   `json:"Salary"`
	Description       string    `json:"Description"`
	DescriptionVector []float32 `json:"DescriptionVector,omitempty"`
}

// JobSourceFields are the fields exposed to the jobs agent as source data.
var JobSourceFields = []string{"Id", "Name", "Description", "Salary"}

// JobSchema declares the job index fields for the given vector size.
func JobSchema(dims int) (schema.Schema, error) {
	vec, err := field.NewVector(VectorField, dims, ProfileName)
	if err != nil {
		return schema.Schema{}, err
	}
	return schema.New("job",
		field.MustNew("Id", field.String, field.Capabilities{Key: true, Filterable: true}),
		field.MustNew("Name", field.String, field.Capabilities{Searchable: true, Filterable: true, Sortable: true}),
		field.MustNew("Salary", field.Double, field.Capabilities{Filterable: true, Sortable: true, Facetable: true}),
		field.MustNew("Description", field.String, field.Capabilities{Searchable: true}),
		vec,
	)
}

// NewJob creates a job with a generated key.
func NewJob(name string, salary float64, description string) *Job {
	return &Job{ID: newKey(""), Name: name, Salary: salary, Description: description}
}

// Key returns the document key.
func (j *Job) Key() string { return j.ID }

// EmbeddingSource returns the text behind DescriptionVector.
func (j *Job) EmbeddingSource() string { return j.Description }

// SetEmbedding assigns the description vector.
func (j *Job) SetEmbedding(vec []float32) { j.DescriptionVector = vec }

// Fields returns the upload field map. The vector is omitted until set.
func (j *Job) Fields() map[string]any {
	m := map[string]any{
		"Id":          j.ID,
		"Name":        j.Name,
		"Salary":      j.Salary,
		"Description": j.Description,
	}
	if j.DescriptionVector != nil {
		m[VectorField] = j.DescriptionVector
	}
	return m
}

// JobsIndex builds the job index definition.
func JobsIndex(name string, p VectorParams) (index.Definition, error) {
	s, err := JobSchema(p.Dimensions)
	if err != nil {
		return index.Definition{}, err
	}
	return index.New(name, s,
		index.WithVectorSearch(p.vectorSearch()),
		index.WithSuggester(SuggesterName, "Name"),
	)
}

// JobsAgentIndex builds the job index served to the jobs knowledge agent.
// Unlike JobsIndex its vector profile carries a vectorizer, so agent query
// plans are embedded by the service, and it has a semantic configuration
// for re-ranking.
func JobsAgentIndex(name string, p VectorParams, vz index.Vectorizer) (index.Definition, error) {
	s, err := JobSchema(p.Dimensions)
	if err != nil {
		return index.Definition{}, err
	}
	return index.New(name, s,
		index.WithVectorSearch(p.vectorSearchWith(vz)),
		index.WithSemantic(index.Semantic{
			DefaultConfiguration: SemanticConfigName,
			Configurations: []index.SemanticConfig{{
				Name:          SemanticConfigName,
				TitleField:    "Name",
				ContentFields: []string{"Description"},
			}},
		}),
		index.WithSuggester(SuggesterName, "Name"),
	)
}

// JobsKnowledgeSource binds the jobs agent index to a knowledge source.
func JobsKnowledgeSource(name, indexName string) agent.KnowledgeSource {
	return agent.KnowledgeSource{
		Name:             name,
		Description:      "Sample job postings with name, salary and description",
		IndexName:        indexName,
		SourceDataSelect: append([]string(nil), JobSourceFields...),
	}
}

// JobsAgent builds the knowledge agent that answers questions about the
// sample job postings.
func JobsAgent(name, sourceName string, model agent.ModelBinding, threshold *float64) agent.KnowledgeAgent {
	return agent.KnowledgeAgent{
		Name:        name,
		Description: "Answers questions about the sample job postings",
		Models:      []agent.ModelBinding{model},
		KnowledgeSources: []agent.SourceRef{{
			Name:                       sourceName,
			IncludeReferences:          true,
			IncludeReferenceSourceData: true,
			RerankerThreshold:          threshold,
		}},
		Output: agent.Output{Modality: agent.AnswerSynthesis, IncludeActivity: true},
	}
}

// SampleJobs returns the five seed jobs.
func SampleJobs() []*Job {
	return []*Job{
		{
			ID:          "1",
			Name:        "Backend .NET Engineer",
			Salary:      120_000,
			Description: "Build and scale APIs with ASP.NET Core, Azure Functions, and SQL. Work on high throughput services.",
		},
		{
			ID:          "2",
			Name:        "Data Engineer",
			Salary:      110_000,
			Description: "Design data pipelines with Spark, Databricks, and Azure Data Factory. Optimize lakehouse architectures.",
		},
		{
			ID:     "3",
			Name:   "AI Engineer",
			Salary: 140_000,
			Description: "Productionize RAG and multi-agent solutions with Azure AI Foundry, vector search, " +
				"and prompt engineering.",
		},
		{
			ID:     "4",
			Name:   "SRE / DevOps",
			Salary: 115_000,
			Description: "Automate infra with Bicep/Terraform, GitHub Actions, Kubernetes, and observability " +
				"for 99.9% availability.",
		},
		{
			ID:          "5",
			Name:        "Full-Stack Developer",
			Salary:      105_000,
			Description: "React + ASP.NET Core building dashboards, identity, and payments with Azure services.",
		},
	}
}
