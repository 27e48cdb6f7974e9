package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/osz-extract-go/internal/domain"
)

func TestOrchestrator_RunAll(t *testing.T) {
	f := newOrchestratorFixture(t, 0)
	f.fetcher.archives[1] = zipArchive(t, map[string][]byte{"audio.mp3": []byte("one")})
	f.fetcher.archives[2] = []byte("not an archive at all")
	f.fetcher.archives[3] = zipArchive(t, map[string][]byte{"audio.ogg": []byte("three")})

	results := f.orchestrator.RunAll(context.Background(), []domain.DownloadRequest{
		{ContentID: 1, Title: "One"},
		{ContentID: 2, Title: "Two"},
		{ContentID: 3, Title: "Three"},
	}, 2)

	require.Len(t, results, 3)
	assert.Equal(t, 1, results[0].ContentID)
	assert.True(t, results[0].Success)
	assert.Equal(t, 2, results[1].ContentID)
	assert.False(t, results[1].Success)
	assert.True(t, results[2].Success)
	assert.Equal(t, 2, Succeeded(results))
	assert.LessOrEqual(t, f.fetcher.maxSeen.Load(), int32(2))
}

func TestOrchestrator_RunAllCancelled(t *testing.T) {
	f := newOrchestratorFixture(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := f.orchestrator.RunAll(ctx, []domain.DownloadRequest{{ContentID: 1, Title: "One"}}, 1)

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.ErrorIs(t, results[0].Err, domain.ErrCancelled)
}
