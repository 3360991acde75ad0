package main

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/searchlab/internal/domain"
)

func newStatusCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show service usage and document counts of the demo indexes",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			ctx := cmd.Context()

			stats, err := a.client.ServiceStats(ctx)
			if err != nil {
				return err
			}

			names := []string{a.cfg.Indexes.Books, a.cfg.Indexes.Jobs, a.cfg.Indexes.Cars, a.cfg.Indexes.JobsAgent}
			counts := make(map[string]int64, len(names))
			svc := a.searcher()
			for _, name := range names {
				n, err := svc.Count(ctx, name)
				switch {
				case err == nil:
					counts[name] = n
				case errors.Is(err, domain.ErrNotFound) || domain.RemoteStatus(err) == http.StatusNotFound:
				default:
					return err
				}
			}

			a.out.Stats(stats.DocumentCount, stats.IndexCount, stats.StorageBytes, counts, names)
			return nil
		}),
	}
}
