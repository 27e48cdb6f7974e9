package infrastructure

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/osz-extract-go/internal/domain"
)

func TestExtractToDir(t *testing.T) {
	data := buildArchive(t, map[string][]byte{
		"audio.mp3":        []byte("main"),
		"sub/Intro?.MP3":   []byte("intro"),
		"soft-hitclap.wav": []byte("wav"),
		"bgm.ogg":          []byte("ogg"),
	})
	fs := afero.NewMemMapFs()

	written, err := ExtractToDir(context.Background(), fs, data, "/out", domain.NewAllowList(domain.PreviewAudioExtensions), domain.DefaultMaxAssetSize, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/out/audio.mp3", "/out/Intro_.mp3"}, written)

	content, err := afero.ReadFile(fs, "/out/Intro_.mp3")
	require.NoError(t, err)
	assert.Equal(t, "intro", string(content))

	exists, _ := afero.Exists(fs, "/out/bgm.ogg")
	assert.False(t, exists)
}

func TestExtractToDir_Limit(t *testing.T) {
	data := buildArchive(t, map[string][]byte{
		"a.mp3": []byte("a"),
		"b.mp3": []byte("b"),
	})

	written, err := ExtractToDir(context.Background(), afero.NewMemMapFs(), data, "/out", domain.NewAllowList(domain.PreviewAudioExtensions), domain.DefaultMaxAssetSize, 1)
	require.NoError(t, err)
	assert.Len(t, written, 1)
}

func TestExtractToDir_Errors(t *testing.T) {
	_, err := ExtractToDir(context.Background(), afero.NewMemMapFs(), []byte("<html>"), "/out", domain.NewAllowList(domain.PreviewAudioExtensions), 1024, 0)
	var invalid *domain.InvalidArchiveError
	assert.ErrorAs(t, err, &invalid)

	data := buildArchive(t, map[string][]byte{"song.ogg": []byte("ogg")})
	_, err = ExtractToDir(context.Background(), afero.NewMemMapFs(), data, "/out", domain.NewAllowList(domain.PreviewAudioExtensions), 1024, 0)
	var empty *domain.EmptyArchiveError
	assert.ErrorAs(t, err, &empty)
}
