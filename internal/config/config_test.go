package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidAPIType(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.APIType = "bedrock"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid api_type")
	}

	expected := `embedding.api_type must be "openai" or "azure", got "bedrock"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidAPITypes(t *testing.T) {
	for _, apiType := range []string{APITypeOpenAI, APITypeAzure} {
		t.Run("api_type="+apiType, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.APIType = apiType
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid api_type %q: %v", apiType, err)
			}
		})
	}
}

func TestValidate_Invalid(t *testing.T) {
	negative := -1.0
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"encoding", func(c *Config) { c.Embedding.EncodingFormat = "int8" }, "embedding.encoding_format"},
		{"dimensions", func(c *Config) { c.Embedding.Dimensions = 10000 }, "embedding.dimensions"},
		{"threshold", func(c *Config) { c.Agent.RerankerThreshold = &negative }, "agent.reranker_threshold"},
		{"jobs threshold", func(c *Config) { c.JobsAgent.RerankerThreshold = &negative }, "jobs_agent.reranker_threshold"},
		{"metric", func(c *Config) { c.Indexes.Metric = "hamming" }, "indexes.metric"},
		{"index case", func(c *Config) { c.Indexes.Cars = "Cars" }, "indexes.cars"},
		{"max rps", func(c *Config) { c.Search.MaxRPS = -2 }, "search.max_rps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_MissingCredentialsAllowed(t *testing.T) {
	cfg := validConfig()
	if cfg.Search.Endpoint != "" || cfg.Search.APIKey != "" {
		t.Fatal("defaults must not invent credentials")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("missing endpoint must not fail validation: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Search.APIVersion != "2025-08-01-preview" {
		t.Errorf("expected APIVersion=2025-08-01-preview, got %q", cfg.Search.APIVersion)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("expected Model=text-embedding-3-small, got %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Deployment != cfg.Embedding.Model {
		t.Errorf("expected Deployment to default to model, got %q", cfg.Embedding.Deployment)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.APIVersion != "" {
		t.Errorf("openai api_type must not get an api_version, got %q", cfg.Embedding.APIVersion)
	}
	if cfg.Agent.RerankerThreshold == nil || *cfg.Agent.RerankerThreshold != 1.8 {
		t.Errorf("expected RerankerThreshold=1.8, got %v", cfg.Agent.RerankerThreshold)
	}
	if cfg.Agent.Name != "car-info-knowledge-agent" || cfg.Agent.KnowledgeSource != "car-info-knowledge-source" {
		t.Errorf("unexpected agent names: %q %q", cfg.Agent.Name, cfg.Agent.KnowledgeSource)
	}
	if cfg.Indexes.Books != "books" || cfg.Indexes.Jobs != "jobs" || cfg.Indexes.Cars != "cars-info" {
		t.Errorf("unexpected index names: %+v", cfg.Indexes)
	}
	if cfg.Upload.AllowPartial {
		t.Error("AllowPartial must default to false")
	}
	if cfg.Search.MaxRPS != 0 || cfg.Search.MaxBurst != 0 {
		t.Errorf("rate limit must be off by default: %+v", cfg.Search)
	}
}

func TestApplyDefaults_JobsAgent(t *testing.T) {
	cfg := Config{Agent: AgentConfig{ResourceURI: "https://aoai.example", Deployment: "gpt-4o"}}
	cfg.ApplyDefaults()

	j := cfg.JobsAgent
	if j.Name != "jobs-knowledge-agent" || j.KnowledgeSource != "jobs-knowledge-source" {
		t.Errorf("unexpected jobs agent names: %q %q", j.Name, j.KnowledgeSource)
	}
	if j.RerankerThreshold == nil || *j.RerankerThreshold != 2.5 {
		t.Errorf("expected jobs RerankerThreshold=2.5, got %v", j.RerankerThreshold)
	}
	if j.Instructions != DefaultJobsInstructions {
		t.Errorf("unexpected jobs instructions: %q", j.Instructions)
	}
	if j.ResourceURI != "https://aoai.example" || j.Deployment != "gpt-4o" || j.ModelName != "gpt-4o" {
		t.Errorf("jobs agent must inherit the chat binding: %+v", j)
	}
	if cfg.Indexes.JobsAgent != "jobs-agent-index" {
		t.Errorf("expected jobs agent index jobs-agent-index, got %q", cfg.Indexes.JobsAgent)
	}
}

func TestApplyDefaults_BurstFollowsRPS(t *testing.T) {
	cfg := Config{Search: SearchConfig{MaxRPS: 5}}
	cfg.ApplyDefaults()
	if cfg.Search.MaxBurst != 1 {
		t.Errorf("expected MaxBurst=1, got %d", cfg.Search.MaxBurst)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	zero := 0.0
	cfg := Config{
		HTTP:      HTTPConfig{Port: 9090, ReadTimeoutSec: 30},
		Embedding: EmbeddingConfig{APIType: APITypeAzure, Model: "m", Deployment: "d", Dimensions: 256},
		Agent:     AgentConfig{RerankerThreshold: &zero},
		Indexes:   IndexesConfig{HNSWM: 16},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9090 || cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("http overridden: %+v", cfg.HTTP)
	}
	if cfg.Embedding.Deployment != "d" || cfg.Embedding.Dimensions != 256 {
		t.Errorf("embedding overridden: %+v", cfg.Embedding)
	}
	if cfg.Embedding.APIVersion == "" {
		t.Error("azure api_type must get a default api_version")
	}
	if *cfg.Agent.RerankerThreshold != 0 {
		t.Errorf("explicit zero threshold overridden: %v", *cfg.Agent.RerankerThreshold)
	}
	if cfg.Indexes.HNSWM != 16 {
		t.Errorf("expected HNSWM=16, got %d", cfg.Indexes.HNSWM)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("SEARCHLAB_TEST_ENDPOINT", "https://demo.search.windows.net")

	cfg, err := Parse([]byte(`
search:
  endpoint: ${SEARCHLAB_TEST_ENDPOINT}
  api_key: ${SEARCHLAB_TEST_MISSING:-fallback-key}
upload:
  allow_partial: true
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Search.Endpoint != "https://demo.search.windows.net" {
		t.Errorf("Endpoint = %q", cfg.Search.Endpoint)
	}
	if cfg.Search.APIKey != "fallback-key" {
		t.Errorf("APIKey = %q", cfg.Search.APIKey)
	}
	if !cfg.Upload.AllowPartial {
		t.Error("AllowPartial = false")
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("search: [")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Parse([]byte("embedding:\n  api_type: nope\n")); err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("expected validation error, got %v", err)
	}
}
