package catalog

import (
	"github.com/kailas-cloud/searchlab/internal/domain/agent"
	"github.com/kailas-cloud/searchlab/internal/domain/index"
	"github.com/kailas-cloud/searchlab/internal/domain/schema"
	"github.com/kailas-cloud/searchlab/internal/domain/schema/field"
)

// Car is the agentic retrieval sample document.
type Car struct {
	ID                string    `json:"Id"`
	Model             string    `json:"Model"`
	Price             float64   `json:"Price"`
	Description       string    `json:"Description"`
	DescriptionVector []float32 `json:"DescriptionVector,omitempty"`
}

// CarSourceFields are the fields exposed to the knowledge agent as source data.
var CarSourceFields = []string{"Id", "Model", "Price", "Description"}

// CarSchema declares the car index fields for the given vector size.
func CarSchema(dims int) (schema.Schema, error) {
	vec, err := field.NewVector(VectorField, dims, ProfileName)
	if err != nil {
		return schema.Schema{}, err
	}
	return schema.New("car",
		field.MustNew("Id", field.String, field.Capabilities{Key: true, Filterable: true}),
		field.MustNew("Model", field.String, field.Capabilities{Searchable: true, Filterable: true, Sortable: true}),
		field.MustNew("Price", field.Double, field.Capabilities{Filterable: true, Sortable: true, Facetable: true}),
		field.MustNew("Description", field.String, field.Capabilities{Searchable: true}),
		vec,
	)
}

// NewCar creates a car with a generated key.
func NewCar(model string, price float64, description string) *Car {
	return &Car{ID: newKey(""), Model: model, Price: price, Description: description}
}

// Key returns the document key.
func (c *Car) Key() string { return c.ID }

// EmbeddingSource returns the text behind DescriptionVector.
func (c *Car) EmbeddingSource() string { return c.Description }

// SetEmbedding assigns the description vector.
func (c *Car) SetEmbedding(vec []float32) { c.DescriptionVector = vec }

// Fields returns the upload field map. The vector is omitted until set.
func (c *Car) Fields() map[string]any {
	m := map[string]any{
		"Id":          c.ID,
		"Model":       c.Model,
		"Price":       c.Price,
		"Description": c.Description,
	}
	if c.DescriptionVector != nil {
		m[VectorField] = c.DescriptionVector
	}
	return m
}

// CarsIndex builds the car index definition with the semantic configuration
// used for re-ranking and answer synthesis.
func CarsIndex(name string, p VectorParams) (index.Definition, error) {
	s, err := CarSchema(p.Dimensions)
	if err != nil {
		return index.Definition{}, err
	}
	return index.New(name, s,
		index.WithVectorSearch(p.vectorSearch()),
		index.WithSemantic(index.Semantic{
			DefaultConfiguration: SemanticConfigName,
			Configurations: []index.SemanticConfig{{
				Name:          SemanticConfigName,
				TitleField:    "Model",
				ContentFields: []string{"Description", "Model"},
			}},
		}),
		index.WithSuggester(SuggesterName, "Model"),
	)
}

// CarsKnowledgeSource binds the car index to a knowledge source.
func CarsKnowledgeSource(name, indexName string) agent.KnowledgeSource {
	src := make([]string, len(CarSourceFields))
	copy(src, CarSourceFields)
	return agent.KnowledgeSource{
		Name:             name,
		Description:      "Sample cars with model, price and description",
		IndexName:        indexName,
		SourceDataSelect: src,
	}
}

// SampleCars returns the eight seed cars.
func SampleCars() []*Car {
	return []*Car{
		{
			ID:    "1",
			Model: "Tesla Model S Plaid",
			Price: 89_990,
			Description: "Priced at $89,990. High-performance electric sedan with tri-motor AWD, 0-60 mph in 1.99s, " +
				"396-mile range, autopilot features, and premium interior with 17-inch touchscreen.",
		},
		{
			ID:    "2",
			Model: "BMW M3 Competition",
			Price: 75_900,
			Description: "Priced at $75,900. Luxury sport sedan with 503-hp twin-turbo inline-6 engine, rear-wheel drive, " +
				"carbon fiber roof, M Sport brakes, and advanced driver assistance systems.",
		},
		{
			ID:    "3",
			Model: "Porsche Taycan Turbo S",
			Price: 185_000,
			Description: "Priced at $185,000. Premium electric sports car with dual-motor AWD, 750 hp, 0-60 mph in 2.6s, " +
				"201-mile range, adaptive air suspension, and cutting-edge cockpit technology.",
		},
		{
			ID:    "4",
			Model: "Audi RS6 Avant",
			Price: 116_500,
			Description: "Priced at $116,500. High-performance wagon with 591-hp twin-turbo V8, Quattro AWD, 22-inch wheels, " +
				"sport exhaust, panoramic sunroof, and spacious luxury interior.",
		},
		{
			ID:    "5",
			Model: "Mercedes-AMG GT 63 S",
			Price: 159_900,
			Description: "Priced at $159,900. Four-door coupe with 630-hp twin-turbo V8, AMG Performance 4MATIC+ AWD, " +
				"active rear-axle steering, MBUX infotainment, and race-inspired aerodynamics.",
		},
		{
			ID:    "6",
			Model: "Ford Mustang Mach-E GT",
			Price: 63_995,
			Description: "Priced at $63,995. Electric performance SUV with dual-motor AWD, 480 hp, 0-60 mph in 3.5s, " +
				"270-mile range, MagneRide suspension, and hands-free driving technology.",
		},
		{
			ID:    "7",
			Model: "Rivian R1T Adventure",
			Price: 73_000,
			Description: "Priced at $73,000. All-electric pickup truck with quad-motor AWD, 835 hp, 314-mile range, " +
				"gear tunnel storage, 11,000-lb towing capacity, and off-road capability.",
		},
		{
			ID:    "8",
			Model: "Lucid Air Dream Edition",
			Price: 169_000,
			Description: "Priced at $169,000. Luxury electric sedan with 1,111 hp, 0-60 mph in 2.5s, 520-mile range, " +
				"spacious Glass Canopy roof, DreamDrive Pro ADAS, and ultra-fast charging.",
		},
	}
}

// CarsAgent builds the knowledge agent that answers questions over the car
// knowledge source with synthesized, cited answers.
func CarsAgent(name, sourceName string, model agent.ModelBinding, threshold *float64) agent.KnowledgeAgent {
	return agent.KnowledgeAgent{
		Name:        name,
		Description: "Answers questions about the sample cars",
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
