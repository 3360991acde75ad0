package main

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/searchlab/internal/catalog"
	"github.com/kailas-cloud/searchlab/internal/domain/search/request"
	"github.com/kailas-cloud/searchlab/internal/domain/search/result"
)

type bookQuery struct {
	title string
	text  string
	opts  []request.Option
}

func bookQueries() []bookQuery {
	return []bookQuery{
		{
			title: "Query 1: Full-text search for ring, desert or dragon",
			text:  "ring OR desert OR dragon",
		},
		{
			title: "Query 2: Fantasy books ordered by PageCount desc (top 10)",
			text:  request.MatchAll,
			opts: []request.Option{
				request.WithRawFilter("search.ismatch('Fantasy','Genres')"),
				request.WithOrderBy("PageCount desc"),
				request.WithSize(10),
			},
		},
		{
			title: "Query 3: Keyword search for Arrakis OR Middle-earth",
			text:  "Arrakis OR Middle-earth",
		},
	}
}

func newBooksCmd(withApp appRunner) *cobra.Command {
	var skipSeed bool

	cmd := &cobra.Command{
		Use:   "books",
		Short: "Run full-text search scenarios over a small book catalog",
		Long: heredoc.Doc(`
			Creates the books index, uploads ten sample books and runs three
			keyword queries: an OR query, a filtered and ordered match-all
			query, and a place-name query.
		`),
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			ctx := cmd.Context()
			indexName := a.cfg.Indexes.Books

			if !skipSeed {
				def, err := catalog.BooksIndex(indexName)
				if err != nil {
					return err
				}
				if err := a.seedIndex(ctx, def, catalog.Documents(catalog.SampleBooks())); err != nil {
					return err
				}
			}

			svc := a.searcher()
			for _, q := range bookQueries() {
				req, err := request.NewKeyword(q.text, q.opts...)
				if err != nil {
					return fmt.Errorf("%s: %w", q.title, err)
				}
				rs, err := svc.Keyword(ctx, indexName, &req)
				if err != nil {
					return err
				}
				books, err := result.DecodeAll[catalog.Book](rs)
				if err != nil {
					return fmt.Errorf("decode books: %w", err)
				}
				a.out.Heading(q.title)
				a.out.Books(books)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&skipSeed, "skip-seed", false, "query the existing index without provisioning or uploading")
	return cmd
}
