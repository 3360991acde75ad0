package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the searchlab configuration.
// Endpoints and credentials are not validated here; a missing one surfaces
// as a configuration error when the first remote call is attempted.
type Config struct {
	Search    SearchConfig    `yaml:"search"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Agent     AgentConfig     `yaml:"agent"`
	JobsAgent AgentConfig     `yaml:"jobs_agent"`
	Indexes   IndexesConfig   `yaml:"indexes"`
	Upload    UploadConfig    `yaml:"upload"`
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings for the serve facade.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// SearchConfig holds the search service connection.
type SearchConfig struct {
	Endpoint   string  `yaml:"endpoint"`
	APIKey     string  `yaml:"api_key"`
	APIVersion string  `yaml:"api_version"`
	TimeoutSec int     `yaml:"timeout_sec"`
	MaxRPS     float64 `yaml:"max_rps"` // 0 = unlimited
	MaxBurst   int     `yaml:"max_burst"`
}

// Embedding API flavors.
const (
	APITypeOpenAI = "openai"
	APITypeAzure  = "azure"
)

// Embedding encodings.
const (
	EncodingFloat  = "float"
	EncodingBase64 = "base64"
)

// EmbeddingConfig holds the embedding endpoint settings.
type EmbeddingConfig struct {
	APIType        string `yaml:"api_type"` // openai, azure (default: openai)
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	APIVersion     string `yaml:"api_version"` // azure only
	Model          string `yaml:"model"`
	Deployment     string `yaml:"deployment"` // azure only, defaults to model
	Dimensions     int    `yaml:"dimensions"`
	EncodingFormat string `yaml:"encoding_format"` // float, base64 (default: float)
	TimeoutSec     int    `yaml:"timeout_sec"`
}

// AgentConfig holds the knowledge agent bindings.
type AgentConfig struct {
	Name              string   `yaml:"name"`
	KnowledgeSource   string   `yaml:"knowledge_source"`
	Instructions      string   `yaml:"instructions"`
	RerankerThreshold *float64 `yaml:"reranker_threshold"`
	ResourceURI       string   `yaml:"resource_uri"`
	Deployment        string   `yaml:"deployment"`
	ModelName         string   `yaml:"model_name"`
	APIKey            string   `yaml:"api_key"`
}

// IndexesConfig holds index names and HNSW parameters.
type IndexesConfig struct {
	Books           string `yaml:"books"`
	Jobs            string `yaml:"jobs"`
	Cars            string `yaml:"cars"`
	JobsAgent       string `yaml:"jobs_agent"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
	HNSWEFSearch    int    `yaml:"hnsw_ef_search"`
	Metric          string `yaml:"metric"` // cosine, dotProduct, euclidean (default: cosine)
}

// UploadConfig holds seeding policy.
type UploadConfig struct {
	// AllowPartial downgrades per-document rejections from an error to a warning.
	AllowPartial bool `yaml:"allow_partial"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML configuration.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Search.APIVersion == "" {
		c.Search.APIVersion = "2025-08-01-preview"
	}
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = 60
	}
	if c.Search.MaxRPS > 0 && c.Search.MaxBurst <= 0 {
		c.Search.MaxBurst = 1
	}
	if c.Embedding.APIType == "" {
		c.Embedding.APIType = APITypeOpenAI
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Deployment == "" {
		c.Embedding.Deployment = c.Embedding.Model
	}
	if c.Embedding.APIType == APITypeAzure && c.Embedding.APIVersion == "" {
		c.Embedding.APIVersion = "2024-10-21"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.EncodingFormat == "" {
		c.Embedding.EncodingFormat = EncodingFloat
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Agent.Name == "" {
		c.Agent.Name = "car-info-knowledge-agent"
	}
	if c.Agent.KnowledgeSource == "" {
		c.Agent.KnowledgeSource = "car-info-knowledge-source"
	}
	if c.Agent.RerankerThreshold == nil {
		t := 1.8
		c.Agent.RerankerThreshold = &t
	}
	if c.Agent.Deployment == "" {
		c.Agent.Deployment = "gpt-4.1-mini"
	}
	if c.Agent.ModelName == "" {
		c.Agent.ModelName = c.Agent.Deployment
	}
	c.applyJobsAgentDefaults()
	if c.Indexes.Books == "" {
		c.Indexes.Books = "books"
	}
	if c.Indexes.Jobs == "" {
		c.Indexes.Jobs = "jobs"
	}
	if c.Indexes.Cars == "" {
		c.Indexes.Cars = "cars-info"
	}
	if c.Indexes.JobsAgent == "" {
		c.Indexes.JobsAgent = "jobs-agent-index"
	}
	if c.Indexes.HNSWM <= 0 {
		c.Indexes.HNSWM = 4
	}
	if c.Indexes.HNSWEFConstruct <= 0 {
		c.Indexes.HNSWEFConstruct = 400
	}
	if c.Indexes.HNSWEFSearch <= 0 {
		c.Indexes.HNSWEFSearch = 500
	}
	if c.Indexes.Metric == "" {
		c.Indexes.Metric = "cosine"
	}
}

// DefaultJobsInstructions steer the jobs agent toward admitting gaps.
const DefaultJobsInstructions = "A Q&A agent that can answer questions about the jobs. " +
	"If you don't have the answer, respond with \"I don't know\"."

// applyJobsAgentDefaults names the jobs agent resources and lets it share
// the chat model binding of the cars agent unless configured separately.
func (c *Config) applyJobsAgentDefaults() {
	j := &c.JobsAgent
	if j.Name == "" {
		j.Name = "jobs-knowledge-agent"
	}
	if j.KnowledgeSource == "" {
		j.KnowledgeSource = "jobs-knowledge-source"
	}
	if j.Instructions == "" {
		j.Instructions = DefaultJobsInstructions
	}
	if j.RerankerThreshold == nil {
		t := 2.5
		j.RerankerThreshold = &t
	}
	if j.ResourceURI == "" {
		j.ResourceURI = c.Agent.ResourceURI
	}
	if j.Deployment == "" {
		j.Deployment = c.Agent.Deployment
	}
	if j.ModelName == "" {
		j.ModelName = c.Agent.ModelName
	}
	if j.APIKey == "" {
		j.APIKey = c.Agent.APIKey
	}
}

// Validate checks the configuration for structural correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	if c.Search.MaxRPS < 0 {
		return fmt.Errorf("search.max_rps must not be negative, got %v", c.Search.MaxRPS)
	}
	switch c.Embedding.APIType {
	case APITypeOpenAI, APITypeAzure:
	default:
		return fmt.Errorf("embedding.api_type must be %q or %q, got %q", APITypeOpenAI, APITypeAzure, c.Embedding.APIType)
	}
	switch c.Embedding.EncodingFormat {
	case EncodingFloat, EncodingBase64:
	default:
		return fmt.Errorf("embedding.encoding_format must be %q or %q, got %q",
			EncodingFloat, EncodingBase64, c.Embedding.EncodingFormat)
	}
	if c.Embedding.Dimensions > 4096 {
		return fmt.Errorf("embedding.dimensions must be at most 4096, got %d", c.Embedding.Dimensions)
	}
	if t := c.Agent.RerankerThreshold; t != nil && (*t < 0 || *t > 4) {
		return fmt.Errorf("agent.reranker_threshold must be between 0 and 4, got %v", *t)
	}
	if t := c.JobsAgent.RerankerThreshold; t != nil && (*t < 0 || *t > 4) {
		return fmt.Errorf("jobs_agent.reranker_threshold must be between 0 and 4, got %v", *t)
	}
	switch c.Indexes.Metric {
	case "cosine", "dotProduct", "euclidean":
	default:
		return fmt.Errorf("indexes.metric must be cosine, dotProduct or euclidean, got %q", c.Indexes.Metric)
	}
	for name, v := range map[string]string{
		"indexes.books": c.Indexes.Books, "indexes.jobs": c.Indexes.Jobs, "indexes.cars": c.Indexes.Cars,
		"indexes.jobs_agent": c.Indexes.JobsAgent,
	} {
		if strings.ToLower(v) != v {
			return fmt.Errorf("%s must be lowercase, got %q", name, v)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
