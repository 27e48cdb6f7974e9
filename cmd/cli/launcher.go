package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/yourusername/osz-extract-go/api/handlers"
	"github.com/yourusername/osz-extract-go/internal/app"
)

const serverBinary = "osz-extract-server"

// serverBinaryEnv overrides the server binary lookup
const serverBinaryEnv = "OSZ_EXTRACT_SERVER"

// launcher finds a running osz-extract server or starts one in the background
type launcher struct {
	baseURL    string
	configPath string
	client     *http.Client
	timeout    time.Duration
	interval   time.Duration
	out        io.Writer

	lookPath func() (string, error)
	spawn    func(path string, args []string, logPath string) error
}

func newLauncher(baseURL, configPath string) *launcher {
	return &launcher{
		baseURL:    baseURL,
		configPath: configPath,
		client:     &http.Client{Timeout: time.Second},
		timeout:    10 * time.Second,
		interval:   200 * time.Millisecond,
		out:        os.Stdout,
		lookPath:   findServerBinary,
		spawn:      spawnDetached,
	}
}

// health asks the server at baseURL for its health payload.
// A listener that answers 200 with some other body is not treated as our server.
func (l *launcher) health(ctx context.Context) (*handlers.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health check returned %d", resp.StatusCode)
	}

	var status handlers.HealthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	if status.Status != "ok" || status.Version == "" {
		return nil, fmt.Errorf("%s is not an osz-extract server", l.baseURL)
	}
	return &status, nil
}

// serverArgs forwards the CLI's config file to the spawned server
func (l *launcher) serverArgs() []string {
	if l.configPath == "" {
		return nil
	}
	return []string{"-config", l.configPath}
}

// startupLogPath is where the spawned server's stderr goes, next to its category logs
func (l *launcher) startupLogPath() string {
	config, err := app.LoadConfig(l.configPath)
	if err != nil || config.Library.LogsDir == "" {
		return ""
	}
	return filepath.Join(config.Library.LogsDir, "server-start.log")
}

// ensure returns the health of a running server, starting one when none answers
func (l *launcher) ensure(ctx context.Context) (*handlers.HealthResponse, error) {
	if status, err := l.health(ctx); err == nil {
		return status, nil
	}

	path, err := l.lookPath()
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(l.out, "Server not running, starting %s...\n", path)
	if err := l.spawn(path, l.serverArgs(), l.startupLogPath()); err != nil {
		return nil, fmt.Errorf("failed to start server: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		if status, err := l.health(ctx); err == nil {
			fmt.Fprintf(l.out, "Server %s started (%d active acquisitions)\n", status.Version, status.Acquisitions.Active)
			return status, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("server did not become healthy within %v", l.timeout)
		case <-ticker.C:
		}
	}
}

// findServerBinary checks $OSZ_EXTRACT_SERVER, the CLI's own directory, then PATH
func findServerBinary() (string, error) {
	if path := os.Getenv(serverBinaryEnv); path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%s=%s: %w", serverBinaryEnv, path, err)
		}
		return path, nil
	}

	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), serverBinary+exeSuffix)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(serverBinary); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("%s not found next to the CLI or in PATH (set %s)", serverBinary, serverBinaryEnv)
}

// spawnDetached starts the server in its own session and does not wait for it
func spawnDetached(path string, args []string, logPath string) error {
	cmd := exec.Command(path, args...)
	detach(cmd)

	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err == nil {
			if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
				cmd.Stdout = f
				cmd.Stderr = f
				defer f.Close()
			}
		}
	}

	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
