package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yourusername/osz-extract-go/internal/domain"
	"github.com/yourusername/osz-extract-go/internal/infrastructure"
	"github.com/yourusername/osz-extract-go/pkg/logger"
)

// Runtime is the fully wired acquisition pipeline shared by the server and the CLI
type Runtime struct {
	Config       *domain.Config
	Repo         *infrastructure.SQLiteTrackRepository
	Persister    *infrastructure.AssetPersister
	Library      *LibraryIngestor
	Tracker      *ProgressTracker
	Orchestrator *Orchestrator
}

// NewRuntime wires every pipeline component from config.
// fs is the filesystem the library root lives on.
func NewRuntime(config *domain.Config, fs afero.Fs, log *zap.Logger, events *logger.MultiLogger) (*Runtime, error) {
	repo, err := infrastructure.NewSQLiteTrackRepository(config.Library.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	persister, err := infrastructure.NewAssetPersister(fs, config.Library.Root, config.Library.MaxAssetSize, config.Library.MaxNameLength)
	if err != nil {
		repo.Close()
		return nil, err
	}

	archiveTransport := infrastructure.NewHTTPTransport(config.Fetch.UserAgent, config.Fetch.MaxArchiveSize)
	fetcher := infrastructure.NewMirrorFetcher(domain.NewMirrorRegistry(config.Fetch.Mirrors), archiveTransport, config.Fetch.Timeout, log)

	var metadata MetadataSource
	if config.OsuAPI.BaseURL != "" {
		metadataTransport := infrastructure.NewHTTPTransport(config.Fetch.UserAgent, infrastructure.MaxMetadataBytes)
		metadata = infrastructure.NewBeatmapsetClient(config.OsuAPI.BaseURL, metadataTransport, config.OsuAPI.Timeout)
	}

	tracker := NewProgressTracker(config.Progress.CompletedTTL, config.Progress.ErrorTTL, RealClock())
	library := NewLibraryIngestor(repo, persister, log)
	notifier := infrastructure.NewNotificationService(&config.Notification, log)

	orchestrator := NewOrchestrator(
		fetcher,
		metadata,
		persister,
		library,
		tracker,
		notifier,
		OrchestratorConfig{
			AllowedExtensions: config.Library.AllowedExtensions,
			MaxAssetSize:      config.Library.MaxAssetSize,
			ConcurrentLimit:   config.Acquire.ConcurrentLimit,
		},
		log,
		events,
	)

	log.Info("Acquisition pipeline ready",
		zap.String("library_root", persister.Root()),
		zap.Int("mirrors", len(config.Fetch.Mirrors)),
		zap.Int("concurrent_limit", config.Acquire.ConcurrentLimit))

	return &Runtime{
		Config:       config,
		Repo:         repo,
		Persister:    persister,
		Library:      library,
		Tracker:      tracker,
		Orchestrator: orchestrator,
	}, nil
}

// Close stops running acquisitions and closes the track store
func (r *Runtime) Close(ctx context.Context) error {
	shutdownErr := r.Orchestrator.Shutdown(ctx)
	closeErr := r.Repo.Close()
	return errors.Join(shutdownErr, closeErr)
}
