package azsearch

import (
	"strings"

	"github.com/kailas-cloud/searchlab/internal/domain/agent"
	"github.com/kailas-cloud/searchlab/internal/domain/index"
)

// --- index ---

type indexDTO struct {
	Name         string           `json:"name"`
	Fields       []fieldDTO       `json:"fields"`
	VectorSearch *vectorSearchDTO `json:"vectorSearch,omitempty"`
	Semantic     *semanticDTO     `json:"semantic,omitempty"`
	Suggesters   []suggesterDTO   `json:"suggesters,omitempty"`
}

type fieldDTO struct {
	Name                string `json:"name"`
	Type                string `json:"type"`
	Key                 bool   `json:"key"`
	Searchable          bool   `json:"searchable"`
	Filterable          bool   `json:"filterable"`
	Sortable            bool   `json:"sortable"`
	Facetable           bool   `json:"facetable"`
	Retrievable         bool   `json:"retrievable"`
	Dimensions          int    `json:"dimensions,omitempty"`
	VectorSearchProfile string `json:"vectorSearchProfile,omitempty"`
}

type vectorSearchDTO struct {
	Algorithms  []algorithmDTO  `json:"algorithms"`
	Profiles    []profileDTO    `json:"profiles"`
	Vectorizers []vectorizerDTO `json:"vectorizers,omitempty"`
}

type algorithmDTO struct {
	Name           string             `json:"name"`
	Kind           string             `json:"kind"`
	HNSWParameters *hnswParametersDTO `json:"hnswParameters,omitempty"`
}

type hnswParametersDTO struct {
	M              int    `json:"m,omitempty"`
	EFConstruction int    `json:"efConstruction,omitempty"`
	EFSearch       int    `json:"efSearch,omitempty"`
	Metric         string `json:"metric,omitempty"`
}

type profileDTO struct {
	Name       string `json:"name"`
	Algorithm  string `json:"algorithm"`
	Vectorizer string `json:"vectorizer,omitempty"`
}

type vectorizerDTO struct {
	Name                  string               `json:"name"`
	Kind                  string               `json:"kind"`
	AzureOpenAIParameters azureOpenAIParamsDTO `json:"azureOpenAIParameters"`
}

type azureOpenAIParamsDTO struct {
	ResourceURI  string `json:"resourceUri"`
	DeploymentID string `json:"deploymentId"`
	ModelName    string `json:"modelName,omitempty"`
	APIKey       string `json:"apiKey,omitempty"`
}

type semanticDTO struct {
	DefaultConfiguration string              `json:"defaultConfiguration,omitempty"`
	Configurations       []semanticConfigDTO `json:"configurations"`
}

type semanticConfigDTO struct {
	Name              string               `json:"name"`
	PrioritizedFields prioritizedFieldsDTO `json:"prioritizedFields"`
}

type prioritizedFieldsDTO struct {
	TitleField                *fieldNameDTO  `json:"titleField,omitempty"`
	PrioritizedContentFields  []fieldNameDTO `json:"prioritizedContentFields,omitempty"`
	PrioritizedKeywordsFields []fieldNameDTO `json:"prioritizedKeywordsFields,omitempty"`
}

type fieldNameDTO struct {
	FieldName string `json:"fieldName"`
}

type suggesterDTO struct {
	Name         string   `json:"name"`
	SearchMode   string   `json:"searchMode"`
	SourceFields []string `json:"sourceFields"`
}

func toIndexDTO(d index.Definition) indexDTO {
	dto := indexDTO{Name: d.Name()}

	for _, f := range d.Schema().Fields() {
		caps := f.Capabilities()
		fd := fieldDTO{
			Name:        f.Name(),
			Type:        string(f.FieldType()),
			Key:         caps.Key,
			Searchable:  caps.Searchable,
			Filterable:  caps.Filterable,
			Sortable:    caps.Sortable,
			Facetable:   caps.Facetable,
			Retrievable: f.Retrievable(),
		}
		if v := f.Vector(); v != nil {
			fd.Dimensions = v.Dimensions
			fd.VectorSearchProfile = v.Profile
		}
		dto.Fields = append(dto.Fields, fd)
	}

	if vs := d.VectorSearch(); vs != nil {
		v := &vectorSearchDTO{}
		for _, a := range vs.Algorithms {
			ad := algorithmDTO{Name: a.Name, Kind: string(a.Kind)}
			if a.M > 0 || a.EFConstruction > 0 || a.EFSearch > 0 || a.Metric != "" {
				ad.HNSWParameters = &hnswParametersDTO{
					M: a.M, EFConstruction: a.EFConstruction, EFSearch: a.EFSearch, Metric: string(a.Metric),
				}
			}
			v.Algorithms = append(v.Algorithms, ad)
		}
		for _, p := range vs.Profiles {
			v.Profiles = append(v.Profiles, profileDTO{Name: p.Name, Algorithm: p.Algorithm, Vectorizer: p.Vectorizer})
		}
		for _, z := range vs.Vectorizers {
			v.Vectorizers = append(v.Vectorizers, vectorizerDTO{
				Name: z.Name,
				Kind: string(agent.AzureOpenAI),
				AzureOpenAIParameters: azureOpenAIParamsDTO{
					ResourceURI: z.ResourceURI, DeploymentID: z.DeploymentID, ModelName: z.ModelName, APIKey: z.APIKey,
				},
			})
		}
		dto.VectorSearch = v
	}

	if s := d.Semantic(); s != nil {
		sd := &semanticDTO{DefaultConfiguration: s.DefaultConfiguration}
		for _, c := range s.Configurations {
			cd := semanticConfigDTO{Name: c.Name}
			if c.TitleField != "" {
				cd.PrioritizedFields.TitleField = &fieldNameDTO{FieldName: c.TitleField}
			}
			cd.PrioritizedFields.PrioritizedContentFields = fieldNames(c.ContentFields)
			cd.PrioritizedFields.PrioritizedKeywordsFields = fieldNames(c.KeywordFields)
			sd.Configurations = append(sd.Configurations, cd)
		}
		dto.Semantic = sd
	}

	for _, sg := range d.Suggesters() {
		dto.Suggesters = append(dto.Suggesters, suggesterDTO{
			Name: sg.Name, SearchMode: "analyzingInfixMatching", SourceFields: sg.SourceFields,
		})
	}
	return dto
}

func fieldNames(names []string) []fieldNameDTO {
	if len(names) == 0 {
		return nil
	}
	out := make([]fieldNameDTO, len(names))
	for i, n := range names {
		out[i] = fieldNameDTO{FieldName: n}
	}
	return out
}

// --- knowledge source and agent ---

type knowledgeSourceDTO struct {
	Name                  string                   `json:"name"`
	Kind                  string                   `json:"kind"`
	Description           string                   `json:"description,omitempty"`
	SearchIndexParameters searchIndexParametersDTO `json:"searchIndexParameters"`
}

type searchIndexParametersDTO struct {
	SearchIndexName  string `json:"searchIndexName"`
	SourceDataSelect string `json:"sourceDataSelect,omitempty"`
}

func toKnowledgeSourceDTO(ks agent.KnowledgeSource) knowledgeSourceDTO {
	return knowledgeSourceDTO{
		Name:        ks.Name,
		Kind:        "searchIndex",
		Description: ks.Description,
		SearchIndexParameters: searchIndexParametersDTO{
			SearchIndexName:  ks.IndexName,
			SourceDataSelect: strings.Join(ks.SourceDataSelect, ","),
		},
	}
}

type agentDTO struct {
	Name                string          `json:"name"`
	Description         string          `json:"description,omitempty"`
	Models              []modelDTO      `json:"models"`
	KnowledgeSources    []sourceRefDTO  `json:"knowledgeSources"`
	OutputConfiguration outputConfigDTO `json:"outputConfiguration"`
}

type modelDTO struct {
	Kind                  string               `json:"kind"`
	AzureOpenAIParameters azureOpenAIParamsDTO `json:"azureOpenAIParameters"`
}

type sourceRefDTO struct {
	Name                       string   `json:"name"`
	IncludeReferences          bool     `json:"includeReferences"`
	IncludeReferenceSourceData bool     `json:"includeReferenceSourceData"`
	RerankerThreshold          *float64 `json:"rerankerThreshold,omitempty"`
}

type outputConfigDTO struct {
	Modality        string `json:"modality"`
	IncludeActivity bool   `json:"includeActivity"`
}

func toAgentDTO(a agent.KnowledgeAgent) agentDTO {
	dto := agentDTO{
		Name:        a.Name,
		Description: a.Description,
		OutputConfiguration: outputConfigDTO{
			Modality:        string(a.Output.Modality),
			IncludeActivity: a.Output.IncludeActivity,
		},
	}
	for _, m := range a.Models {
		dto.Models = append(dto.Models, modelDTO{
			Kind: string(m.Kind),
			AzureOpenAIParameters: azureOpenAIParamsDTO{
				ResourceURI: m.ResourceURI, DeploymentID: m.DeploymentID, ModelName: m.ModelName, APIKey: m.APIKey,
			},
		})
	}
	for _, s := range a.KnowledgeSources {
		dto.KnowledgeSources = append(dto.KnowledgeSources, sourceRefDTO{
			Name:                       s.Name,
			IncludeReferences:          s.IncludeReferences,
			IncludeReferenceSourceData: s.IncludeReferenceSourceData,
			RerankerThreshold:          s.RerankerThreshold,
		})
	}
	return dto
}

// --- documents ---

type indexBatchResponseDTO struct {
	Value []indexingResultDTO `json:"value"`
}

type indexingResultDTO struct {
	Key          string `json:"key"`
	Status       bool   `json:"status"`
	ErrorMessage string `json:"errorMessage"`
	StatusCode   int    `json:"statusCode"`
}

type retrieveRequestDTO struct {
	Messages []agent.Message `json:"messages"`
}

type serviceStatsDTO struct {
	Counters struct {
		DocumentCount counterDTO `json:"documentCount"`
		IndexesCount  counterDTO `json:"indexesCount"`
		StorageSize   counterDTO `json:"storageSize"`
	} `json:"counters"`
}

type counterDTO struct {
	Usage int64  `json:"usage"`
	Quota *int64 `json:"quota"`
}
