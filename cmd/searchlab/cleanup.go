package main

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/searchlab/internal/usecase/provision"
)

func newCleanupCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete the demo agents, knowledge sources and indexes",
		Long: heredoc.Doc(`
			Deletes each knowledge agent first, then its knowledge source, then
			the books, jobs, cars and jobs agent indexes. Resources that do not
			exist are skipped, so cleanup can be run repeatedly.
		`),
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			batches := []provision.Resources{
				{Agent: a.cfg.JobsAgent.Name, KnowledgeSource: a.cfg.JobsAgent.KnowledgeSource},
				{
					Agent:           a.cfg.Agent.Name,
					KnowledgeSource: a.cfg.Agent.KnowledgeSource,
					Indexes: []string{
						a.cfg.Indexes.Books, a.cfg.Indexes.Jobs, a.cfg.Indexes.Cars, a.cfg.Indexes.JobsAgent,
					},
				},
			}
			for _, res := range batches {
				if err := a.provisioner().Cleanup(cmd.Context(), res); err != nil {
					return err
				}
			}
			a.out.Heading("Cleanup complete")
			return nil
		}),
	}
}
