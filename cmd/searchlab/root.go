package main

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

// runFunc is a command body that receives the loaded app.
type runFunc = func(cmd *cobra.Command, a *app, args []string) error

// appRunner adapts a runFunc into a cobra RunE.
type appRunner = func(run runFunc) func(*cobra.Command, []string) error

func newRootCmd(load appLoader) *cobra.Command {
	var opts globalOptions

	cmd := &cobra.Command{
		Use:   "searchlab",
		Short: "Explore keyword, vector, hybrid and agentic search",
		Long: heredoc.Doc(`
			searchlab creates small demo indexes on a hosted search service,
			uploads sample documents and runs retrieval scenarios against them.

			Configuration is read from config/<env>.yaml. Endpoints and keys
			may reference environment variables as ${VAR} or ${VAR:-default}.
		`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.env, "env", "", "config environment (overrides ENV; default local)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	// withApp defers loading until a command actually runs so that
	// help and version work without a config file.
	withApp := func(run runFunc) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := load(opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.sync()
			if err := run(cmd, a, args); err != nil {
				return err
			}
			return a.out.Err()
		}
	}

	cmd.AddCommand(
		newBooksCmd(withApp),
		newJobsCmd(withApp),
		newCarsCmd(withApp),
		newServeCmd(withApp),
		newStatusCmd(withApp),
		newCleanupCmd(withApp),
		newVersionCmd(),
	)
	return cmd
}
