// Package console renders scenario results as plain text.
package console

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/kailas-cloud/searchlab/internal/catalog"
	"github.com/kailas-cloud/searchlab/internal/domain/agent"
	"github.com/kailas-cloud/searchlab/internal/domain/batch"
	"github.com/kailas-cloud/searchlab/internal/domain/search/result"
	"github.com/kailas-cloud/searchlab/internal/usecase/agentic"
)

// Printer writes human-readable output. Write errors are sticky: after the
// first failure nothing more is written and Err returns it.
type Printer struct {
	w   io.Writer
	err error
}

// New creates a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Err returns the first write error.
func (p *Printer) Err() error { return p.err }

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// Heading prints a section title.
func (p *Printer) Heading(title string) {
	p.printf("\n-- %s --\n", title)
}

// Books prints one line per book.
func (p *Printer) Books(books []catalog.Book) {
	if len(books) == 0 {
		p.printf("(no results)\n")
		return
	}
	for _, b := range books {
		p.printf("- %s | %s | %d pages | [genres: %s]\n", b.Name, b.Author, b.PageCount, b.Genres)
	}
}

// Jobs prints scored jobs. The score is the opaque service score of the mode
// that produced the results.
func (p *Printer) Jobs(rs []result.Result) error {
	jobs, err := result.DecodeAll[catalog.Job](rs)
	if err != nil {
		return fmt.Errorf("decode jobs: %w", err)
	}
	if len(jobs) == 0 {
		p.printf("(no results)\n")
		return nil
	}
	for i, j := range jobs {
		parts := make([]string, 0, 4)
		if s, ok := rs[i].Score(); ok {
			parts = append(parts, formatScore(s))
		}
		parts = append(parts, j.Name, money(j.Salary))
		if j.Description != "" {
			parts = append(parts, j.Description)
		}
		p.printf("- %s\n", strings.Join(parts, " | "))
	}
	return nil
}

// Answer prints an agent answer, its references and an activity summary.
// Reference lines show the car model or job name with its price or salary.
// Missing pieces are omitted.
func (p *Printer) Answer(a agentic.Answer) {
	p.printf("%s\n", a.Text)

	refs := make([]string, 0, len(a.References))
	for _, ref := range a.References {
		if line := referenceLine(ref); line != "" {
			refs = append(refs, line)
		}
	}
	if len(refs) > 0 {
		p.printf("\nReferences:\n")
		for _, line := range refs {
			p.printf("- %s\n", line)
		}
	}

	if summary := activitySummary(a.Activity); summary != "" {
		p.printf("\nActivity: %s\n", summary)
	}
}

// Upload prints the outcome of a seed batch.
func (p *Printer) Upload(r batch.Report) {
	failed := r.Failed()
	p.printf("Uploaded %d of %d documents to %q\n", r.Succeeded(), len(r.Results), r.Index)
	for _, f := range failed {
		p.printf("  rejected %s (%d): %s\n", f.Key(), f.StatusCode(), f.Message())
	}
}

// Stats prints service-wide counters and per-index document counts.
func (p *Printer) Stats(documents, indexes, storageBytes int64, counts map[string]int64, order []string) {
	p.printf("Service: %s documents in %d indexes, %s stored\n",
		humanize.Comma(documents), indexes, humanize.Bytes(uint64(max(storageBytes, 0))))
	for _, name := range order {
		n, ok := counts[name]
		if !ok {
			p.printf("- %s: missing\n", name)
			continue
		}
		p.printf("- %s: %s documents\n", name, humanize.Comma(n))
	}
}

func referenceLine(ref agent.Reference) string {
	s, ok := ref.(agent.SearchIndexReference)
	if !ok {
		return ""
	}
	var parts []string
	if label := firstString(s.SourceData, "Model", "Name"); label != "" {
		parts = append(parts, label)
	}
	if amount, ok := firstNumber(s.SourceData, "Price", "Salary"); ok {
		parts = append(parts, money(amount))
	}
	if s.RerankerScore != nil {
		parts = append(parts, "score "+formatScore(*s.RerankerScore))
	}
	if len(parts) == 0 {
		return "[" + s.ID + "] " + s.DocKey
	}
	return strings.Join(parts, " | ")
}

func activitySummary(activity []agent.Activity) string {
	var parts []string
	for _, a := range activity {
		switch v := a.(type) {
		case agent.QueryPlanningActivity:
			parts = append(parts, fmt.Sprintf("planning %d/%d tokens", v.InputTokens, v.OutputTokens))
		case agent.SearchIndexActivity:
			parts = append(parts, fmt.Sprintf("search %q -> %d", v.Query, v.Count))
		case agent.RerankerActivity:
			parts = append(parts, fmt.Sprintf("reranker %d tokens", v.InputTokens))
		case agent.AnswerSynthesisActivity:
			parts = append(parts, fmt.Sprintf("synthesis %d/%d tokens", v.InputTokens, v.OutputTokens))
		}
	}
	return strings.Join(parts, ", ")
}

// money renders whole dollars with thousands separators.
func money(v float64) string {
	return "$" + humanize.Comma(int64(math.Round(v)))
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', 4, 64)
}

func firstString(data map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := data[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func firstNumber(data map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := data[k].(float64); ok {
			return v, true
		}
	}
	return 0, false
}
