package main

import (
	"context"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/searchlab/internal/catalog"
	"github.com/kailas-cloud/searchlab/internal/domain/agent"
	agenticuc "github.com/kailas-cloud/searchlab/internal/usecase/agentic"
)

const defaultCarQuestion = "Which electric car has the longest range, and what does it cost?"

func newCarsCmd(withApp appRunner) *cobra.Command {
	var (
		skipSeed  bool
		followUps []string
	)

	cmd := &cobra.Command{
		Use:   "cars [question]",
		Short: "Ask a knowledge agent about a car catalog",
		Long: heredoc.Doc(`
			Creates the cars index with a semantic configuration, a knowledge
			source over it and a knowledge agent bound to a chat deployment,
			uploads eight sample cars and asks the agent a question.

			Citations in the answer are replaced by the cited car model.
			Follow-up questions reuse the same conversation thread.
		`),
		Example: heredoc.Doc(`
			searchlab cars "Which SUV seats seven?" --follow-up "And the cheapest one?"
		`),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()

			if !skipSeed {
				if err := provisionCars(cmd, a); err != nil {
					return err
				}
			}

			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				question = defaultCarQuestion
			}

			return converse(ctx, a, a.agentic(), a.cfg.Agent.Instructions, append([]string{question}, followUps...))
		}),
	}
	cmd.Flags().BoolVar(&skipSeed, "skip-seed", false, "ask the existing agent without provisioning or uploading")
	cmd.Flags().StringArrayVar(&followUps, "follow-up", nil, "follow-up question on the same thread (repeatable)")
	return cmd
}

// converse asks each question in turn on one conversation thread.
func converse(ctx context.Context, a *app, svc *agenticuc.Service, instructions string, questions []string) error {
	conv := agent.NewConversation(instructions)
	for _, q := range questions {
		answer, err := svc.Ask(ctx, conv, q)
		if err != nil {
			return err
		}
		a.out.Heading(q)
		a.out.Answer(answer)
	}
	return nil
}

func provisionCars(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()
	indexName := a.cfg.Indexes.Cars

	def, err := catalog.CarsIndex(indexName, a.vectorParams())
	if err != nil {
		return err
	}
	if err := a.seedIndex(ctx, def, catalog.Documents(catalog.SampleCars())); err != nil {
		return err
	}

	prov := a.provisioner()
	source := catalog.CarsKnowledgeSource(a.cfg.Agent.KnowledgeSource, indexName)
	if err := prov.EnsureKnowledgeSource(ctx, source); err != nil {
		return err
	}
	a.out.Heading("Knowledge source " + source.Name + " created or updated")

	ka := catalog.CarsAgent(a.cfg.Agent.Name, source.Name, modelBinding(a.cfg.Agent), a.cfg.Agent.RerankerThreshold)
	if err := prov.EnsureKnowledgeAgent(ctx, ka); err != nil {
		return err
	}
	a.out.Heading("Knowledge agent " + ka.Name + " created or updated")
	return nil
}
