package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirrorRegistry_OrdersByPriority(t *testing.T) {
	registry := NewMirrorRegistry([]MirrorSource{
		{Name: "c", Priority: 30},
		{Name: "a", Priority: 10},
		{Name: "b1", Priority: 20},
		{Name: "b2", Priority: 20},
	})

	var names []string
	for _, s := range registry.Sources() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, names)
}

func TestMirrorRegistry_Attempts(t *testing.T) {
	registry := NewMirrorRegistry(DefaultMirrors())

	attempts := registry.Attempts(1234, "secret")
	require.Len(t, attempts, 4)

	assert.Equal(t, "https://catboy.best/d/1234", attempts[0].URL)
	assert.Empty(t, attempts[0].Headers.Get("Authorization"))
	assert.Equal(t, "https://api.chimu.moe/v1/download/1234?n=1", attempts[1].URL)

	official := attempts[3]
	assert.True(t, official.Source.RequiresAuth)
	assert.Equal(t, "https://osu.ppy.sh/beatmapsets/1234/download", official.URL)
	assert.Equal(t, "Bearer secret", official.Headers.Get("Authorization"))
}

func TestMirrorRegistry_AttemptsWithoutToken(t *testing.T) {
	registry := NewMirrorRegistry(DefaultMirrors())

	attempts := registry.Attempts(1, "")
	for _, a := range attempts {
		assert.Empty(t, a.Headers.Get("Authorization"), a.Source.Name)
	}
}

func TestMirrorRegistry_DoesNotAliasInput(t *testing.T) {
	sources := DefaultMirrors()
	registry := NewMirrorRegistry(sources)
	sources[0].Name = "changed"

	assert.Equal(t, "catboy.best", registry.Sources()[0].Name)
}
