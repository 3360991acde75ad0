package seed

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchlab/internal/catalog"
	"github.com/kailas-cloud/searchlab/internal/domain"
	"github.com/kailas-cloud/searchlab/internal/transport/azsearch/azsearchtest"
)

func TestSeed_RoundTripByKey(t *testing.T) {
	ctx := context.Background()
	_, client := azsearchtest.New(t)

	p := catalog.DefaultVectorParams()
	p.Dimensions = 16
	def, err := catalog.JobsIndex("jobs", p)
	require.NoError(t, err)
	require.NoError(t, client.PutIndex(ctx, def))

	svc := New(client, &azsearchtest.Embedder{Dims: 16}, nil)
	report, err := svc.Seed(ctx, "jobs", catalog.Documents(catalog.SampleJobs()))
	require.NoError(t, err)
	assert.Equal(t, 5, report.Succeeded())

	raw, err := client.Lookup(ctx, "jobs", "3", []string{"Id", "Name", "Salary"})
	require.NoError(t, err)
	var got catalog.Job
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, catalog.Job{ID: "3", Name: "AI Engineer", Salary: 140_000}, got)

	n, err := client.Count(ctx, "jobs")
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
}

func TestSeed_PartialRejectionFromService(t *testing.T) {
	ctx := context.Background()
	_, client := azsearchtest.New(t)

	p := catalog.DefaultVectorParams()
	p.Dimensions = 16
	def, err := catalog.JobsIndex("jobs", p)
	require.NoError(t, err)
	require.NoError(t, client.PutIndex(ctx, def))

	// Vectors of the wrong size are rejected per document.
	svc := New(client, &azsearchtest.Embedder{Dims: 8}, nil)
	report, err := svc.Seed(ctx, "jobs", catalog.Documents(catalog.SampleJobs()))
	require.True(t, errors.Is(err, domain.ErrPartialUpload), "got %v", err)
	assert.Len(t, report.Failed(), 5)
}
