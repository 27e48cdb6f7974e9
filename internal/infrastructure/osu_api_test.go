package infrastructure

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/osz-extract-go/internal/domain"
)

func TestBeatmapsetClient_Get(t *testing.T) {
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 39804,
			"title": "FREEDOM DiVE",
			"title_unicode": "FREEDOM DiVE↓",
			"artist": "xi",
			"artist_unicode": "",
			"creator": "Nakagawa-Kanon",
			"covers": {"card": "", "cover": "https://assets.ppy.sh/cover.jpg"}
		}`))
	}))
	defer srv.Close()

	client := NewBeatmapsetClient(srv.URL+"/api/v2/", NewHTTPTransport("test", MaxMetadataBytes), time.Second)

	meta, err := client.Get(context.Background(), 39804, "token")
	require.NoError(t, err)

	assert.Equal(t, "Bearer token", auth)
	assert.Equal(t, "/api/v2/beatmapsets/39804", path)
	assert.Equal(t, "FREEDOM DiVE↓", meta.Title)
	assert.Equal(t, "xi", meta.Artist)
	assert.Equal(t, "osu! - Nakagawa-Kanon", meta.Album())
	assert.Equal(t, "https://assets.ppy.sh/cover.jpg", meta.CoverURL)
}

func TestBeatmapsetClient_ArtistFallsBackToCreator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"title": "Song", "creator": "Mapper", "covers": {"card": "https://card"}}`))
	}))
	defer srv.Close()

	meta, err := NewBeatmapsetClient(srv.URL, NewHTTPTransport("test", 0), 0).Get(context.Background(), 1, "token")
	require.NoError(t, err)
	assert.Equal(t, "Mapper", meta.Artist)
	assert.Equal(t, "https://card", meta.CoverURL)
}

func TestBeatmapsetClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewBeatmapsetClient(srv.URL, NewHTTPTransport("test", 0), time.Second)

	_, err := client.Get(context.Background(), 1, "")
	var authErr *domain.AuthMissingError
	assert.True(t, errors.As(err, &authErr))

	_, err = client.Get(context.Background(), 1, "expired")
	var statusErr *domain.HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}
