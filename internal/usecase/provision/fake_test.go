package provision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchlab/internal/catalog"
	"github.com/kailas-cloud/searchlab/internal/transport/azsearch/azsearchtest"
)

func TestProvisionAndCleanup_FakeService(t *testing.T) {
	ctx := context.Background()
	fake, client := azsearchtest.New(t)
	svc := New(client, nil)

	cars, err := catalog.CarsIndex("cars-info", catalog.DefaultVectorParams())
	require.NoError(t, err)

	require.NoError(t, svc.EnsureIndex(ctx, cars))
	require.NoError(t, svc.EnsureIndex(ctx, cars), "re-provisioning must succeed")
	require.NoError(t, svc.EnsureKnowledgeSource(ctx, catalog.CarsKnowledgeSource("car-source", "cars-info")))
	require.NoError(t, svc.EnsureKnowledgeAgent(ctx, carsAgent()))

	assert.True(t, fake.HasIndex("cars-info"))
	assert.True(t, fake.HasKnowledgeSource("car-source"))
	assert.True(t, fake.HasAgent("car-agent"))

	res := Resources{Agent: "car-agent", KnowledgeSource: "car-source", Indexes: []string{"cars-info"}}
	require.NoError(t, svc.Cleanup(ctx, res))
	assert.False(t, fake.HasIndex("cars-info"))
	assert.False(t, fake.HasKnowledgeSource("car-source"))
	assert.False(t, fake.HasAgent("car-agent"))

	require.NoError(t, svc.Cleanup(ctx, res), "cleanup of missing resources must succeed")
}
