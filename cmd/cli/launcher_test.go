package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLauncher(url string) *launcher {
	l := newLauncher(url, "")
	l.timeout = time.Second
	l.interval = 10 * time.Millisecond
	l.out = &bytes.Buffer{}
	l.lookPath = func() (string, error) { return "/opt/osz-extract-server", nil }
	l.spawn = func(string, []string, string) error { return errors.New("spawn not expected") }
	return l
}

func TestLauncher_HealthAcceptsServerPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status":"ok","version":"1.0.0","acquisitions":{"active":2}}`))
	}))
	defer srv.Close()

	status, err := testLauncher(srv.URL).ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", status.Version)
	assert.Equal(t, 2, status.Acquisitions.Active)
}

func TestLauncher_HealthRejectsForeignListener(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>some other app</html>`))
	}))
	defer srv.Close()

	_, err := testLauncher(srv.URL).health(context.Background())
	assert.Error(t, err)
}

func TestLauncher_HealthRejectsNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testLauncher(srv.URL).health(context.Background())
	assert.Error(t, err)
}

func TestLauncher_StartsServerWithConfig(t *testing.T) {
	var started atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !started.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"ok","version":"1.0.0","acquisitions":{"active":0}}`))
	}))
	defer srv.Close()

	l := testLauncher(srv.URL)
	l.configPath = "/etc/osz-extract/config.yaml"

	var gotPath string
	var gotArgs []string
	l.spawn = func(path string, args []string, logPath string) error {
		gotPath = path
		gotArgs = args
		started.Store(true)
		return nil
	}

	status, err := l.ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", status.Version)
	assert.Equal(t, "/opt/osz-extract-server", gotPath)
	assert.Equal(t, []string{"-config", "/etc/osz-extract/config.yaml"}, gotArgs)
}

func TestLauncher_NoConfigNoArgs(t *testing.T) {
	assert.Nil(t, newLauncher("http://localhost:8090", "").serverArgs())
}

func TestLauncher_TimesOutWhenServerNeverHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	l := testLauncher(srv.URL)
	l.timeout = 50 * time.Millisecond
	l.spawn = func(string, []string, string) error { return nil }

	_, err := l.ensure(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not become healthy")
}

func TestLauncher_MissingBinary(t *testing.T) {
	l := testLauncher("http://127.0.0.1:1")
	l.lookPath = func() (string, error) { return "", errors.New("osz-extract-server not found") }

	_, err := l.ensure(context.Background())
	assert.EqualError(t, err, "osz-extract-server not found")
}

func TestFindServerBinary_EnvOverride(t *testing.T) {
	t.Setenv(serverBinaryEnv, "/nonexistent/osz-extract-server")

	_, err := findServerBinary()
	require.Error(t, err)
	assert.Contains(t, err.Error(), serverBinaryEnv)
}
