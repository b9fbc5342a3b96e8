package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/evalworks/audit-api/internal/models"
)

func progressFixture() *fakeHierarchyRepo {
	hierarchy := newFakeHierarchyRepo()
	hierarchy.addProcess("P1", models.StatusAuditing)
	hierarchy.addStep("S1", "P1", models.StatusAuditing, models.ProgressStarted)
	hierarchy.addStep("S2", "P1", models.StatusPending, models.ProgressNotStarted)
	hierarchy.addItem("I1", "S1", models.StatusAuditing, floatPtr(3))
	hierarchy.addItem("I2", "S1", models.StatusAuditing, floatPtr(4))
	hierarchy.addItem("I3", "S2", models.StatusPending, nil)
	return hierarchy
}

func TestProcessProgressCounts(t *testing.T) {
	svc := NewProgressService(progressFixture(), nil, 0, testLogger())

	response, err := svc.ProcessProgress(context.Background(), "P1")
	require.NoError(t, err)
	require.Equal(t, "P1", response.ProcessCode)
	require.Equal(t, models.StatusAuditing, response.Status)
	require.Equal(t, 3, response.TotalItems)
	require.Equal(t, 2, response.ScoredItems)
	require.Equal(t, 3.5, response.ProvisionalScore)

	require.Len(t, response.Steps, 2)
	require.Equal(t, "S1", response.Steps[0].StepCode)
	require.Equal(t, 2, response.Steps[0].ScoredItems)
	require.Equal(t, "S2", response.Steps[1].StepCode)
	require.Equal(t, 0, response.Steps[1].ScoredItems)
}

func TestProcessProgressUnknownProcess(t *testing.T) {
	svc := NewProgressService(newFakeHierarchyRepo(), nil, 0, testLogger())
	_, err := svc.ProcessProgress(context.Background(), "missing")
	require.ErrorIs(t, err, ErrProcessNotFound)
}

func TestProcessProgressServesFromCache(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hierarchy := progressFixture()
	svc := NewProgressService(hierarchy, client, time.Minute, testLogger())

	first, err := svc.ProcessProgress(context.Background(), "P1")
	require.NoError(t, err)
	require.Equal(t, 2, first.ScoredItems)

	// Mutating the store must not show through until the cache entry expires.
	hierarchy.addItem("I4", "S2", models.StatusAuditing, floatPtr(5))

	cached, err := svc.ProcessProgress(context.Background(), "P1")
	require.NoError(t, err)
	require.Equal(t, 2, cached.ScoredItems)
	require.Equal(t, 3, cached.TotalItems)

	server.FastForward(2 * time.Minute)

	fresh, err := svc.ProcessProgress(context.Background(), "P1")
	require.NoError(t, err)
	require.Equal(t, 3, fresh.ScoredItems)
	require.Equal(t, 4, fresh.TotalItems)
}
