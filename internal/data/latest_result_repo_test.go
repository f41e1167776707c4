package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/uxaudit/internal/core"
	"github.com/target/uxaudit/internal/domain/model"
	"github.com/target/uxaudit/internal/testutil"
)

func sampleLatest(id, text string) model.LatestResult {
	return model.LatestResult{
		Result:    text,
		Timestamp: 1735732800000,
		ID:        id,
		PageURL:   "https://example.com",
		PageTitle: "Example",
	}
}

func exerciseLatestResultRepo(t *testing.T, repo core.LatestResultRepository) {
	t.Helper()
	ctx := context.Background()

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "empty slot")

	require.NoError(t, repo.Save(ctx, sampleLatest("a", "first")))
	require.NoError(t, repo.Save(ctx, sampleLatest("b", "second")))

	got, err = repo.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sampleLatest("b", "second"), *got, "last write wins")

	again, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, got, again, "reads are idempotent")

	require.NoError(t, repo.Clear(ctx))
	require.NoError(t, repo.Clear(ctx), "clearing an empty slot is fine")

	got, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, repo.Health(ctx))
}

func TestMemoryLatestResultRepo(t *testing.T) {
	exerciseLatestResultRepo(t, NewMemoryLatestResultRepo())
}

func TestMemoryLatestResultRepo_ReturnsCopy(t *testing.T) {
	repo := NewMemoryLatestResultRepo()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, sampleLatest("a", "text")))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	got.Result = "mutated"

	again, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "text", again.Result)
}

func TestRedisLatestResultRepo(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := testutil.SetupTestRedis(t)

	exerciseLatestResultRepo(t, NewRedisLatestResultRepo(client, ""))
}

func TestRedisLatestResultRepo_StoredLayout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := testutil.SetupTestRedis(t)

	ctx := context.Background()
	repo := NewRedisLatestResultRepo(client, "")
	require.NoError(t, repo.Save(ctx, sampleLatest("a", "text")))

	raw, err := client.Get(ctx, DefaultLatestResultKey).Result()
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"result":"text","timestamp":1735732800000,"id":"a","pageUrl":"https://example.com","pageTitle":"Example"}`,
		raw,
	)
}
