package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/searchlab/internal/metrics"
	chiTransport "github.com/kailas-cloud/searchlab/internal/transport/chi"
	"github.com/kailas-cloud/searchlab/internal/version"
)

func newServeCmd(withApp appRunner) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the search scenarios over HTTP",
		Long: heredoc.Doc(`
			Starts an HTTP server over already provisioned indexes:

			  GET  /health
			  GET  /metrics
			  GET  /books/search?q=&filter=&orderby=&size=
			  GET  /jobs/search?mode=vector|hybrid&q=&vq=&k=&size=&filter=
			  POST /cars/retrieve   {"question": "..."}

			Requests need an "api-key" header or "Authorization: Bearer <key>"
			when auth.api_keys is set.
		`),
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if port > 0 {
				a.cfg.HTTP.Port = port
			}
			return serve(cmd.Context(), a)
		}),
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides http.port)")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	metrics.RegisterHTTPMetrics()

	server := chiTransport.NewServer(a.searcher(), a.agentic(), a.health(), chiTransport.Options{
		BooksIndex:        a.cfg.Indexes.Books,
		JobsIndex:         a.cfg.Indexes.Jobs,
		AgentInstructions: a.cfg.Agent.Instructions,
		APIKeys:           a.cfg.Auth.APIKeys,
	}, a.logger)

	addr := fmt.Sprintf(":%d", a.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Starting HTTP server",
			zap.String("addr", addr),
			zap.String("version", version.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx),
			time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		a.logger.Info("Server stopped gracefully")
		return nil
	})
	return g.Wait()
}
