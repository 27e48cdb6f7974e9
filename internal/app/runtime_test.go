package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/osz-extract-go/internal/domain"
	"github.com/yourusername/osz-extract-go/pkg/logger"
)

func TestRuntime_EndToEnd(t *testing.T) {
	archive := zipArchive(t, map[string][]byte{
		"audio.mp3":  []byte("mp3 payload"),
		"normal.wav": []byte("hitsound"),
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/down/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "mirror down", http.StatusBadGateway)
	})
	mux.HandleFunc("/d/123", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-osu-beatmap-archive")
		w.Write(archive)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	config := domain.DefaultConfig()
	config.Library.Root = "/music"
	config.Library.DatabasePath = filepath.Join(t.TempDir(), "library.db")
	config.OsuAPI.BaseURL = ""
	config.Fetch.Timeout = 5 * time.Second
	config.Fetch.Mirrors = []domain.MirrorSource{
		{Name: "down", URLTemplate: server.URL + "/down/{id}", Priority: 1},
		{Name: "up", URLTemplate: server.URL + "/d/{id}", Priority: 2},
	}

	fs := afero.NewMemMapFs()
	rt, err := NewRuntime(config, fs, zap.NewNop(), logger.NewNopMultiLogger())
	require.NoError(t, err)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, rt.Close(ctx))
	}()

	result := rt.Orchestrator.Run(context.Background(), domain.DownloadRequest{ContentID: 123, Title: "Night of Nights"})
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "up", result.Source)
	require.Len(t, result.Tracks, 1)

	data, err := afero.ReadFile(fs, "/music/123-Night_of_Nights-Unknown_Artist.mp3")
	require.NoError(t, err)
	assert.Equal(t, "mp3 payload", string(data))

	tracks, err := rt.Library.Tracks(context.Background())
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "beatmap-123-Night_of_Nights-Unknown_Artist", tracks[0].ID)
	assert.NoError(t, rt.Repo.Ping(context.Background()))
}
