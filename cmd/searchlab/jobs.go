package main

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/searchlab/internal/catalog"
	"github.com/kailas-cloud/searchlab/internal/domain/search/request"
)

type jobQuery struct {
	title string
	build func() (request.Request, error)
}

func jobQueries() []jobQuery {
	return []jobQuery{
		{
			title: "Vector Search (top 3)",
			build: func() (request.Request, error) {
				return request.NewVector(
					"Build and scale API with ASP.NET Core, Azure Functions, and SQL. Work on high throughput services.",
					catalog.VectorField, request.WithK(3))
			},
		},
		{
			title: "Vector Search with Salary Filter > $125K (top 3)",
			build: func() (request.Request, error) {
				return request.NewVector("RAG and multi-agent solutions", catalog.VectorField,
					request.WithK(3), request.WithRawFilter("Salary gt 125000"))
			},
		},
		{
			title: "Hybrid Search (top 5)",
			build: func() (request.Request, error) {
				return request.NewHybrid("Azure Engineer", "multi-agent AI systems, RAG and vector retrieval",
					catalog.VectorField, request.WithSize(5))
			},
		},
	}
}

func newJobsCmd(withApp appRunner) *cobra.Command {
	var skipSeed bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run vector and hybrid search scenarios over job postings",
		Long: heredoc.Doc(`
			Creates the jobs index with an HNSW vector field, embeds and uploads
			five job postings, then runs a pure vector query, a salary-filtered
			vector query and a hybrid query. Scores are printed as returned by
			the service and are only comparable within one query.
		`),
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			ctx := cmd.Context()
			indexName := a.cfg.Indexes.Jobs

			if !skipSeed {
				def, err := catalog.JobsIndex(indexName, a.vectorParams())
				if err != nil {
					return err
				}
				if err := a.seedIndex(ctx, def, catalog.Documents(catalog.SampleJobs())); err != nil {
					return err
				}
			}

			svc := a.searcher()
			for _, q := range jobQueries() {
				req, err := q.build()
				if err != nil {
					return fmt.Errorf("%s: %w", q.title, err)
				}
				rs, err := svc.Search(ctx, indexName, &req)
				if err != nil {
					return err
				}
				a.out.Heading(q.title)
				if err := a.out.Jobs(rs); err != nil {
					return err
				}
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&skipSeed, "skip-seed", false, "query the existing index without provisioning or uploading")
	cmd.AddCommand(newJobsAskCmd(withApp))
	return cmd
}

const defaultJobQuestion = "Which job pays the most, and what does it involve?"

func newJobsAskCmd(withApp appRunner) *cobra.Command {
	var (
		skipSeed  bool
		followUps []string
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a knowledge agent about the job postings",
		Long: heredoc.Doc(`
			Creates a separate jobs index whose vector profile carries an Azure
			OpenAI vectorizer, so the service embeds the agent's query plans
			itself. Uploads the five job postings with client-side embeddings,
			binds a knowledge source and a knowledge agent to the index and asks
			the agent a question.

			Citations in the answer are replaced by the cited job name.
		`),
		Example: heredoc.Doc(`
			searchlab jobs ask "Which roles involve Kubernetes?" --follow-up "What do they pay?"
		`),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if !skipSeed {
				if err := provisionJobsAgent(cmd, a); err != nil {
					return err
				}
			}

			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				question = defaultJobQuestion
			}
			return converse(cmd.Context(), a, a.jobsAgentic(), a.cfg.JobsAgent.Instructions,
				append([]string{question}, followUps...))
		}),
	}
	cmd.Flags().BoolVar(&skipSeed, "skip-seed", false, "ask the existing agent without provisioning or uploading")
	cmd.Flags().StringArrayVar(&followUps, "follow-up", nil, "follow-up question on the same thread (repeatable)")
	return cmd
}

func provisionJobsAgent(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()
	indexName := a.cfg.Indexes.JobsAgent

	def, err := catalog.JobsAgentIndex(indexName, a.vectorParams(), a.queryVectorizer())
	if err != nil {
		return err
	}
	if err := a.seedIndex(ctx, def, catalog.Documents(catalog.SampleJobs())); err != nil {
		return err
	}

	prov := a.provisioner()
	source := catalog.JobsKnowledgeSource(a.cfg.JobsAgent.KnowledgeSource, indexName)
	if err := prov.EnsureKnowledgeSource(ctx, source); err != nil {
		return err
	}
	a.out.Heading("Knowledge source " + source.Name + " created or updated")

	ka := catalog.JobsAgent(a.cfg.JobsAgent.Name, source.Name, modelBinding(a.cfg.JobsAgent), a.cfg.JobsAgent.RerankerThreshold)
	if err := prov.EnsureKnowledgeAgent(ctx, ka); err != nil {
		return err
	}
	a.out.Heading("Knowledge agent " + ka.Name + " created or updated")
	return nil
}
