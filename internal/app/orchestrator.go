package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/osz-extract-go/internal/domain"
	"github.com/yourusername/osz-extract-go/internal/infrastructure"
	"github.com/yourusername/osz-extract-go/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// UnknownArtist is used when no artist could be determined
const UnknownArtist = "Unknown Artist"

// ErrShuttingDown is returned for requests made after Shutdown
var ErrShuttingDown = errors.New("orchestrator is shutting down")

// ArchiveFetcher downloads the raw archive for a beatmapset
type ArchiveFetcher interface {
	Fetch(ctx context.Context, contentID int, accessToken string) (*infrastructure.FetchedArchive, error)
}

// MetadataSource looks up beatmapset metadata
type MetadataSource interface {
	Get(ctx context.Context, contentID int, accessToken string) (*domain.BeatmapsetMetadata, error)
}

// AssetWriter persists one extracted asset into the library root
type AssetWriter interface {
	FileNameFor(contentID int, title, artist, extension string) (fileName, safeTitle, safeArtist string)
	Persist(ctx context.Context, contentID int, asset domain.ExtractedAsset, meta domain.BeatmapsetMetadata) (*infrastructure.PersistedAsset, error)
}

// Notifier reports finished acquisitions to the user
type Notifier interface {
	NotifyAcquireCompleted(contentID int, title string, tracks int)
	NotifyAcquireFailed(contentID int, title string, err error)
}

// OrchestratorConfig holds the pipeline limits
type OrchestratorConfig struct {
	AllowedExtensions []string
	MaxAssetSize      int64
	ConcurrentLimit   int // 0 = unbounded
}

// Orchestrator runs the acquisition pipeline:
// metadata, fetch, validate, extract, persist, ingest.
type Orchestrator struct {
	fetcher     ArchiveFetcher
	metadata    MetadataSource
	writer      AssetWriter
	ingestor    *LibraryIngestor
	tracker     *ProgressTracker
	notifier    Notifier
	allow       domain.AllowList
	maxAsset    int64
	sem         *semaphore.Weighted
	logger      *zap.Logger
	eventLogger *logger.MultiLogger

	baseCtx    context.Context
	baseCancel context.CancelFunc
	runs       map[int]*run
	closed     bool
	mu         sync.Mutex
	wg         sync.WaitGroup
}

// run is one in-flight pipeline; its pointer identity guards cleanup
type run struct {
	requestID string
	cancel    context.CancelFunc
}

// NewOrchestrator creates a new orchestrator.
// metadata and notifier may be nil.
func NewOrchestrator(
	fetcher ArchiveFetcher,
	metadata MetadataSource,
	writer AssetWriter,
	ingestor *LibraryIngestor,
	tracker *ProgressTracker,
	notifier Notifier,
	config OrchestratorConfig,
	logger *zap.Logger,
	eventLogger *logger.MultiLogger,
) *Orchestrator {
	allowed := config.AllowedExtensions
	if len(allowed) == 0 {
		allowed = domain.LibraryAudioExtensions
	}

	var sem *semaphore.Weighted
	if config.ConcurrentLimit > 0 {
		sem = semaphore.NewWeighted(int64(config.ConcurrentLimit))
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())
	return &Orchestrator{
		fetcher:     fetcher,
		metadata:    metadata,
		writer:      writer,
		ingestor:    ingestor,
		tracker:     tracker,
		notifier:    notifier,
		allow:       domain.NewAllowList(allowed),
		maxAsset:    config.MaxAssetSize,
		sem:         sem,
		logger:      logger,
		eventLogger: eventLogger,
		baseCtx:     baseCtx,
		baseCancel:  baseCancel,
		runs:        make(map[int]*run),
	}
}

// Submit accepts a request and runs it in the background.
// It returns domain.ErrAlreadyInProgress if the id is already being acquired.
func (o *Orchestrator) Submit(ctx context.Context, req domain.DownloadRequest) (domain.Acceptance, error) {
	if err := req.Validate(); err != nil {
		return domain.Acceptance{}, err
	}
	if !o.enter() {
		return domain.Acceptance{}, ErrShuttingDown
	}

	progress, err := o.begin(req)
	if err != nil {
		o.wg.Done()
		return domain.Acceptance{}, err
	}

	runCtx, r := o.register(o.baseCtx, req.ContentID, progress.RequestID)
	go func() {
		defer o.wg.Done()
		o.execute(runCtx, r, req, progress)
	}()

	return domain.Acceptance{RequestID: progress.RequestID, ContentID: req.ContentID}, nil
}

// Run executes a request synchronously and returns its outcome
func (o *Orchestrator) Run(ctx context.Context, req domain.DownloadRequest) domain.AcquireResult {
	if err := req.Validate(); err != nil {
		return domain.AcquireResult{ContentID: req.ContentID, Error: err.Error(), Err: err}
	}

	if !o.enter() {
		return domain.AcquireResult{ContentID: req.ContentID, Error: ErrShuttingDown.Error(), Err: ErrShuttingDown}
	}
	defer o.wg.Done()

	progress, err := o.begin(req)
	if err != nil {
		return domain.AcquireResult{ContentID: req.ContentID, Error: err.Error(), Err: err}
	}

	runCtx, r := o.register(ctx, req.ContentID, progress.RequestID)
	return o.execute(runCtx, r, req, progress)
}

// Progress returns the current progress entry for a content id
func (o *Orchestrator) Progress(contentID int) (domain.DownloadProgress, bool) {
	return o.tracker.Get(contentID)
}

// List returns every visible progress entry
func (o *Orchestrator) List() []domain.DownloadProgress {
	return o.tracker.List()
}

// ActiveCount returns the number of acquisitions that have not finished
func (o *Orchestrator) ActiveCount() int {
	return o.tracker.ActiveCount()
}

// Cancel stops an in-flight acquisition; it returns false if none is running
func (o *Orchestrator) Cancel(contentID int) bool {
	o.mu.Lock()
	r, ok := o.runs[contentID]
	o.mu.Unlock()
	if !ok {
		return false
	}
	r.cancel()
	o.logger.Info("Acquisition cancel requested", zap.Int("content_id", contentID), zap.String("request_id", r.requestID))
	return true
}

// Shutdown cancels all running acquisitions and waits for them to finish
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.baseCancel()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) begin(req domain.DownloadRequest) (domain.DownloadProgress, error) {
	progress, err := o.tracker.Begin(req.ContentID, req.Title)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyInProgress) {
			acquisitionsRejectedTotal.Inc()
			o.logger.Info("Acquisition rejected, already in progress", zap.Int("content_id", req.ContentID))
		}
		return domain.DownloadProgress{}, err
	}

	o.eventLogger.LogAcquireEvent("acquire_accepted",
		zap.String("request_id", progress.RequestID),
		zap.Int("content_id", req.ContentID),
		zap.String("title", req.Title),
		zap.Bool("has_token", req.HasToken()))
	return progress, nil
}

// enter reserves a slot in the wait group unless Shutdown has started
func (o *Orchestrator) enter() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	o.wg.Add(1)
	return true
}

func (o *Orchestrator) register(parent context.Context, contentID int, requestID string) (context.Context, *run) {
	ctx, cancel := context.WithCancel(parent)
	r := &run{requestID: requestID, cancel: cancel}

	o.mu.Lock()
	o.runs[contentID] = r
	o.mu.Unlock()
	return ctx, r
}

func (o *Orchestrator) unregister(contentID int, r *run) {
	o.mu.Lock()
	if current, ok := o.runs[contentID]; ok && current == r {
		delete(o.runs, contentID)
	}
	o.mu.Unlock()
	r.cancel()
}

// execute runs the pipeline and records the terminal state
func (o *Orchestrator) execute(ctx context.Context, r *run, req domain.DownloadRequest, progress domain.DownloadProgress) domain.AcquireResult {
	start := time.Now()
	activeAcquisitions.Inc()
	defer activeAcquisitions.Dec()

	result, err := o.pipeline(ctx, req)
	result.RequestID = progress.RequestID
	result.ContentID = req.ContentID
	acquisitionDuration.Observe(time.Since(start).Seconds())

	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		err = domain.ErrCancelled
	}

	// Unregister before the terminal state so a follow-up request cannot be cancelled by this run
	o.unregister(req.ContentID, r)

	if err != nil {
		result.Success = false
		result.Error = err.Error()
		result.Err = err

		o.tracker.Fail(req.ContentID, err.Error())
		acquisitionsTotal.WithLabelValues(outcomeOf(err)).Inc()
		o.logger.Error("Acquisition failed",
			zap.Int("content_id", req.ContentID),
			zap.String("request_id", progress.RequestID),
			zap.Error(err))
		o.eventLogger.LogAppError("acquire_failed",
			zap.String("request_id", progress.RequestID),
			zap.Int("content_id", req.ContentID),
			zap.String("kind", outcomeOf(err)),
			zap.Error(err))
		if o.notifier != nil && !errors.Is(err, domain.ErrCancelled) {
			o.notifier.NotifyAcquireFailed(req.ContentID, req.Title, err)
		}
		return result
	}

	result.Success = true
	o.tracker.Complete(req.ContentID)
	acquisitionsTotal.WithLabelValues("success").Inc()
	o.logger.Info("Acquisition completed",
		zap.Int("content_id", req.ContentID),
		zap.String("request_id", progress.RequestID),
		zap.String("source", result.Source),
		zap.Int("tracks", len(result.Tracks)),
		zap.Duration("elapsed", time.Since(start)))
	o.eventLogger.LogAcquireEvent("acquire_completed",
		zap.String("request_id", progress.RequestID),
		zap.Int("content_id", req.ContentID),
		zap.String("source", result.Source),
		zap.Int("tracks", len(result.Tracks)))
	if o.notifier != nil {
		o.notifier.NotifyAcquireCompleted(req.ContentID, req.Title, len(result.Tracks))
	}
	return result
}

// pipeline runs the phases strictly in order; the first phase error ends the request
func (o *Orchestrator) pipeline(ctx context.Context, req domain.DownloadRequest) (domain.AcquireResult, error) {
	var result domain.AcquireResult

	if o.sem != nil {
		if err := o.sem.Acquire(ctx, 1); err != nil {
			return result, err
		}
		defer o.sem.Release(1)
	}

	meta := o.lookupMetadata(ctx, req)
	o.tracker.Update(req.ContentID, domain.StatusDownloading, domain.PercentMetadata)

	archive, err := o.fetcher.Fetch(ctx, req.ContentID, req.AccessToken)
	if err != nil {
		return result, err
	}
	result.Source = archive.Source

	if err := infrastructure.ValidateArchive(archive.Data); err != nil {
		return result, err
	}
	o.tracker.Update(req.ContentID, domain.StatusExtracting, domain.PercentFetched)

	assets, err := infrastructure.ExtractAudio(ctx, archive.Data, o.allow, o.maxAsset)
	if err != nil {
		return result, err
	}
	o.tracker.Update(req.ContentID, domain.StatusExtracting, domain.PercentExtracted)

	tracks, err := o.persistAll(ctx, req.ContentID, assets, meta)
	if err != nil {
		return result, err
	}

	added, err := o.ingestor.Ingest(ctx, tracks)
	if err != nil {
		return result, err
	}
	tracksIngestedTotal.Add(float64(len(added)))

	result.Tracks = tracks
	return result, nil
}

// lookupMetadata never fails: without a token or on error the request title is used
func (o *Orchestrator) lookupMetadata(ctx context.Context, req domain.DownloadRequest) domain.BeatmapsetMetadata {
	fallback := domain.BeatmapsetMetadata{
		ID:     req.ContentID,
		Title:  req.Title,
		Artist: UnknownArtist,
	}
	if fallback.Title == "" {
		fallback.Title = fmt.Sprintf("Beatmap %d", req.ContentID)
	}

	if o.metadata == nil || !req.HasToken() {
		return fallback
	}

	meta, err := o.metadata.Get(ctx, req.ContentID, req.AccessToken)
	if err != nil {
		o.logger.Warn("Beatmapset metadata unavailable, using request title",
			zap.Int("content_id", req.ContentID),
			zap.Error(err))
		return fallback
	}
	if meta.Title == "" {
		meta.Title = fallback.Title
	}
	if meta.Artist == "" {
		meta.Artist = UnknownArtist
	}
	return *meta
}

// persistAll writes each asset; per-asset failures are logged and the request
// fails only when nothing could be written.
func (o *Orchestrator) persistAll(ctx context.Context, contentID int, assets []domain.ExtractedAsset, meta domain.BeatmapsetMetadata) ([]domain.PersistedTrack, error) {
	var (
		tracks   []domain.PersistedTrack
		failures []error
		seen     = make(map[string]string)
	)

	for _, asset := range assets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Members that map to the same library name: the first one wins
		fileName, _, _ := o.writer.FileNameFor(contentID, meta.Title, meta.Artist, asset.Extension)
		if first, dup := seen[fileName]; dup {
			o.logger.Warn("Skipping asset with duplicate file name",
				zap.Int("content_id", contentID),
				zap.String("member", asset.MemberName),
				zap.String("kept", first),
				zap.String("file_name", fileName))
			continue
		}
		seen[fileName] = asset.MemberName

		persisted, err := o.writer.Persist(ctx, contentID, asset, meta)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			o.logger.Warn("Failed to persist asset",
				zap.Int("content_id", contentID),
				zap.String("member", asset.MemberName),
				zap.Error(err))
			failures = append(failures, err)
			continue
		}

		duration := infrastructure.EstimateDuration(asset.Extension, asset.Data)
		tracks = append(tracks, o.ingestor.BuildTrack(contentID, meta, persisted, duration))
	}

	if len(tracks) == 0 {
		if len(failures) == 0 {
			return nil, &domain.EmptyArchiveError{Allowed: []string(o.allow)}
		}
		return nil, errors.Join(failures...)
	}
	return tracks, nil
}

// outcomeOf classifies an acquisition error for metrics and logs
func outcomeOf(err error) string {
	var (
		exhausted *domain.AllSourcesExhaustedError
		invalid   *domain.InvalidArchiveError
		empty     *domain.EmptyArchiveError
		fsErr     *domain.FileSystemError
		sizeErr   *domain.SizeLimitExceededError
	)
	switch {
	case errors.Is(err, domain.ErrCancelled):
		return "cancelled"
	case errors.As(err, &exhausted):
		return "all_sources_exhausted"
	case errors.As(err, &invalid):
		return "invalid_archive"
	case errors.As(err, &empty):
		return "empty_archive"
	case errors.As(err, &sizeErr):
		return "size_limit"
	case errors.As(err, &fsErr):
		return "filesystem"
	default:
		return "error"
	}
}
