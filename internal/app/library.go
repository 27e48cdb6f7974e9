package app

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/osz-extract-go/internal/domain"
	"github.com/yourusername/osz-extract-go/internal/infrastructure"
	"go.uber.org/zap"
)

// FileRemover deletes persisted audio files
type FileRemover interface {
	Remove(path string) error
}

// LibraryIngestor is the only place pipeline output becomes visible to the library
type LibraryIngestor struct {
	repo    domain.TrackRepository
	files   FileRemover
	logger  *zap.Logger
	nowFunc func() time.Time
}

// NewLibraryIngestor creates a new library ingestor
func NewLibraryIngestor(repo domain.TrackRepository, files FileRemover, logger *zap.Logger) *LibraryIngestor {
	return &LibraryIngestor{
		repo:    repo,
		files:   files,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// BuildTrack creates the library record for one persisted asset
func (l *LibraryIngestor) BuildTrack(contentID int, meta domain.BeatmapsetMetadata, asset *infrastructure.PersistedAsset, duration *int) domain.PersistedTrack {
	track := domain.PersistedTrack{
		ID:        domain.TrackID(contentID, asset.SanitizedTitle, asset.SanitizedArtist),
		ContentID: contentID,
		Title:     meta.Title,
		Artist:    meta.Artist,
		Album:     meta.Album(),
		FilePath:  asset.Path,
		FileName:  asset.FileName,
		Duration:  duration,
		AddedDate: l.nowFunc(),
	}
	if meta.CoverURL != "" {
		cover := meta.CoverURL
		track.CoverURL = &cover
	}
	return track
}

// Ingest stores tracks whose id is not yet in the library and returns the newly added ones.
// Ingesting the same tracks again adds nothing.
func (l *LibraryIngestor) Ingest(ctx context.Context, tracks []domain.PersistedTrack) ([]domain.PersistedTrack, error) {
	if len(tracks) == 0 {
		return nil, nil
	}

	added, err := l.repo.CreateIfAbsent(ctx, tracks)
	if err != nil {
		return nil, fmt.Errorf("failed to ingest tracks: %w", err)
	}

	if skipped := len(tracks) - len(added); skipped > 0 {
		l.logger.Debug("Tracks already in library",
			zap.Int("content_id", tracks[0].ContentID),
			zap.Int("skipped", skipped))
	}
	return added, nil
}

// Tracks returns every library track, most recently added first
func (l *LibraryIngestor) Tracks(ctx context.Context) ([]domain.PersistedTrack, error) {
	return l.repo.FindAll(ctx)
}

// Track returns a single track or nil when absent
func (l *LibraryIngestor) Track(ctx context.Context, id string) (*domain.PersistedTrack, error) {
	return l.repo.FindByID(ctx, id)
}

// Remove deletes a track record and its audio file.
// It returns false when the track does not exist.
func (l *LibraryIngestor) Remove(ctx context.Context, id string) (bool, error) {
	track, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to find track: %w", err)
	}
	if track == nil {
		return false, nil
	}

	if l.files != nil {
		if err := l.files.Remove(track.FilePath); err != nil {
			return false, err
		}
	}
	if err := l.repo.Delete(ctx, id); err != nil {
		return false, fmt.Errorf("failed to delete track: %w", err)
	}

	l.logger.Info("Track removed", zap.String("id", id), zap.String("path", track.FilePath))
	return true, nil
}
