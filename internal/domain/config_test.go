package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8090, config.Server.Port)
	assert.Equal(t, 60*time.Second, config.Fetch.Timeout)
	assert.Equal(t, int64(100*1024*1024), config.Library.MaxAssetSize)
	assert.Equal(t, []string{".mp3", ".ogg", ".flac"}, config.Library.AllowedExtensions)
	assert.Equal(t, 5*time.Second, config.Progress.CompletedTTL)
	assert.Equal(t, 10*time.Second, config.Progress.ErrorTTL)
	assert.Equal(t, 0, config.Acquire.ConcurrentLimit)
	assert.Len(t, config.Fetch.Mirrors, 4)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestDefaultConfig_AllowedExtensionsIsACopy(t *testing.T) {
	config := DefaultConfig()
	config.Library.AllowedExtensions[0] = ".wav"

	assert.Equal(t, ".mp3", LibraryAudioExtensions[0])
}
