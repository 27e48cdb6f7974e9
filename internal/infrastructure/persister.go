package infrastructure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/yourusername/osz-extract-go/internal/domain"
)

// PersistedAsset describes an audio file written into the library root
type PersistedAsset struct {
	Path            string // absolute path inside the library root
	FileName        string
	SanitizedTitle  string
	SanitizedArtist string
	Extension       string
	Size            int64
}

// AssetPersister writes extracted audio into the library root
type AssetPersister struct {
	fs            afero.Fs
	root          string
	maxSize       int64
	maxNameLength int
}

// NewAssetPersister creates a persister rooted at root
func NewAssetPersister(fs afero.Fs, root string, maxSize int64, maxNameLength int) (*AssetPersister, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve library root: %w", err)
	}
	if maxNameLength <= 0 {
		maxNameLength = domain.DefaultMaxNameLength
	}
	return &AssetPersister{
		fs:            fs,
		root:          absRoot,
		maxSize:       maxSize,
		maxNameLength: maxNameLength,
	}, nil
}

// Root returns the absolute library root
func (p *AssetPersister) Root() string {
	return p.root
}

// FileNameFor returns the library file name for an asset and its sanitized title and artist
func (p *AssetPersister) FileNameFor(contentID int, title, artist, extension string) (string, string, string) {
	safeTitle := SanitizeFileName(title, p.maxNameLength)
	safeArtist := SanitizeFileName(artist, p.maxNameLength)
	return domain.AssetFileName(contentID, safeTitle, safeArtist, extension), safeTitle, safeArtist
}

// Persist writes one asset as {contentID}-{title}-{artist}{ext} under the library root.
// The data is written to a temporary .part file and renamed into place.
func (p *AssetPersister) Persist(ctx context.Context, contentID int, asset domain.ExtractedAsset, meta domain.BeatmapsetMetadata) (*PersistedAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fileName, safeTitle, safeArtist := p.FileNameFor(contentID, meta.Title, meta.Artist, asset.Extension)
	if !IsPathSafe(fileName, p.root) {
		return nil, &domain.FileSystemError{Op: "check", Path: fileName, Err: domain.ErrPathEscape}
	}

	size := asset.Size
	if int64(len(asset.Data)) > size {
		size = int64(len(asset.Data))
	}
	if p.maxSize > 0 && size > p.maxSize {
		return nil, &domain.SizeLimitExceededError{Name: asset.MemberName, Size: size, Limit: p.maxSize}
	}

	if err := p.fs.MkdirAll(p.root, 0755); err != nil {
		return nil, &domain.FileSystemError{Op: "mkdir", Path: p.root, Err: err}
	}

	target := filepath.Join(p.root, fileName)
	partial := target + ".part"
	if err := afero.WriteFile(p.fs, partial, asset.Data, 0644); err != nil {
		_ = p.fs.Remove(partial)
		return nil, &domain.FileSystemError{Op: "write", Path: partial, Err: err}
	}
	if err := p.fs.Rename(partial, target); err != nil {
		_ = p.fs.Remove(partial)
		return nil, &domain.FileSystemError{Op: "rename", Path: target, Err: err}
	}

	persistedAssetsTotal.WithLabelValues(asset.Extension).Inc()

	return &PersistedAsset{
		Path:            target,
		FileName:        fileName,
		SanitizedTitle:  safeTitle,
		SanitizedArtist: safeArtist,
		Extension:       asset.Extension,
		Size:            int64(len(asset.Data)),
	}, nil
}

// Remove deletes a persisted file; a missing file is not an error
func (p *AssetPersister) Remove(path string) error {
	rel, err := filepath.Rel(p.root, path)
	if err != nil || !IsPathSafe(rel, p.root) {
		return &domain.FileSystemError{Op: "remove", Path: path, Err: domain.ErrPathEscape}
	}
	if err := p.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return &domain.FileSystemError{Op: "remove", Path: path, Err: err}
	}
	return nil
}
