package agent

import (
	"fmt"
	"regexp"
)

var nameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ModelKind is the generative model provider.
type ModelKind string

// Model kinds.
const (
	AzureOpenAI ModelKind = "azureOpenAI"
)

// Modality is the agent output mode.
type Modality string

// Output modalities.
const (
	AnswerSynthesis Modality = "answerSynthesis"
	ExtractiveData  Modality = "extractiveData"
)

const (
	maxSourceRefs    = 10
	maxRerankerScore = 4.0
)

// KnowledgeSource binds an index and a subset of its fields exposed as source data.
type KnowledgeSource struct {
	Name             string
	Description      string
	IndexName        string
	SourceDataSelect []string
}

// Validate checks the knowledge source locally.
func (k KnowledgeSource) Validate() error {
	if err := validateName("knowledge source", k.Name); err != nil {
		return err
	}
	if k.IndexName == "" {
		return fmt.Errorf("knowledge source %q: index name is required", k.Name)
	}
	return nil
}

// ModelBinding is the generative model an agent uses for planning and synthesis.
type ModelBinding struct {
	Kind         ModelKind
	ResourceURI  string
	DeploymentID string
	ModelName    string
	APIKey       string
}

// SourceRef references a knowledge source from an agent.
type SourceRef struct {
	Name                       string
	IncludeReferences          bool
	IncludeReferenceSourceData bool
	// RerankerThreshold drops passages scoring below it before synthesis. Nil means service default.
	RerankerThreshold *float64
}

// Output configures what the agent returns.
type Output struct {
	Modality        Modality
	IncludeActivity bool
}

// KnowledgeAgent is a named binding of models and knowledge sources.
type KnowledgeAgent struct {
	Name             string
	Description      string
	Models           []ModelBinding
	KnowledgeSources []SourceRef
	Output           Output
}

// Validate checks the agent locally and fills the default modality.
func (a *KnowledgeAgent) Validate() error {
	if err := validateName("knowledge agent", a.Name); err != nil {
		return err
	}
	if len(a.Models) == 0 {
		return fmt.Errorf("knowledge agent %q: at least one model is required", a.Name)
	}
	for _, m := range a.Models {
		if m.Kind != AzureOpenAI {
			return fmt.Errorf("knowledge agent %q: unsupported model kind %q", a.Name, m.Kind)
		}
		if m.DeploymentID == "" {
			return fmt.Errorf("knowledge agent %q: model deployment is required", a.Name)
		}
	}
	if len(a.KnowledgeSources) == 0 {
		return fmt.Errorf("knowledge agent %q: at least one knowledge source is required", a.Name)
	}
	if len(a.KnowledgeSources) > maxSourceRefs {
		return fmt.Errorf("knowledge agent %q: too many knowledge sources (max %d)", a.Name, maxSourceRefs)
	}
	for _, ks := range a.KnowledgeSources {
		if ks.Name == "" {
			return fmt.Errorf("knowledge agent %q: knowledge source name is required", a.Name)
		}
		if t := ks.RerankerThreshold; t != nil && (*t < 0 || *t > maxRerankerScore) {
			return fmt.Errorf("knowledge agent %q: reranker threshold %v out of range [0, %v]", a.Name, *t, maxRerankerScore)
		}
	}
	switch a.Output.Modality {
	case "":
		a.Output.Modality = AnswerSynthesis
	case AnswerSynthesis, ExtractiveData:
	default:
		return fmt.Errorf("knowledge agent %q: unknown output modality %q", a.Name, a.Output.Modality)
	}
	return nil
}

func validateName(what, name string) error {
	if name == "" {
		return fmt.Errorf("%s name is required", what)
	}
	if len(name) > 128 {
		return fmt.Errorf("%s name too long (max 128)", what)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%s name %q contains invalid characters", what, name)
	}
	return nil
}
