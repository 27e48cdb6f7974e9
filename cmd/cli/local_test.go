package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/osz-extract-go/internal/domain"
)

func TestReportResults_AllSucceeded(t *testing.T) {
	var out bytes.Buffer
	results := []domain.AcquireResult{{
		ContentID: 39804,
		Success:   true,
		Source:    "nerinyan",
		Tracks:    []domain.PersistedTrack{{FilePath: "/music/39804-FREEDOM_DiVE-xi.mp3"}},
	}}

	require.NoError(t, reportResults(&out, results))
	assert.Contains(t, out.String(), "39804: ok via nerinyan, 1 track(s)")
	assert.Contains(t, out.String(), "/music/39804-FREEDOM_DiVE-xi.mp3")
}

func TestReportResults_FailureReturnsError(t *testing.T) {
	var out bytes.Buffer
	results := []domain.AcquireResult{
		{ContentID: 1, Success: true, Source: "catboy"},
		{ContentID: 2, Error: "all sources exhausted", Err: errors.New("all sources exhausted")},
	}

	err := reportResults(&out, results)
	require.Error(t, err)
	assert.Equal(t, "1 of 2 acquisitions failed", err.Error())
	assert.Contains(t, out.String(), "2: failed: all sources exhausted")
}

func TestFetchCommand_RejectsInvalidID(t *testing.T) {
	err := fetchCmd.RunE(fetchCmd, []string{"abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid beatmapset id "abc"`)
}
