package infrastructure

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/yourusername/osz-extract-go/internal/domain"
)

// ExtractToDir validates a local archive and writes its allow-listed audio members into dir,
// named after the sanitized member base name. At most limit files are written (all when limit <= 0).
// Members whose names collide keep the first one. It returns the written paths.
func ExtractToDir(ctx context.Context, fs afero.Fs, data []byte, dir string, allow domain.AllowList, maxSize int64, limit int) ([]string, error) {
	if err := ValidateArchive(data); err != nil {
		return nil, err
	}

	assets, err := ExtractAudio(ctx, data, allow, maxSize)
	if err != nil {
		return nil, err
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if err := fs.MkdirAll(absDir, 0755); err != nil {
		return nil, &domain.FileSystemError{Op: "mkdir", Path: absDir, Err: err}
	}

	var written []string
	seen := make(map[string]bool)
	for _, asset := range assets {
		if limit > 0 && len(written) >= limit {
			break
		}

		base := path.Base(strings.ReplaceAll(asset.MemberName, "\\", "/"))
		stem := base[:len(base)-len(asset.Extension)]
		name := SanitizeFileName(stem, domain.DefaultMaxNameLength) + asset.Extension
		if seen[name] {
			continue
		}
		seen[name] = true

		if !IsPathSafe(name, absDir) {
			return written, &domain.FileSystemError{Op: "check", Path: name, Err: domain.ErrPathEscape}
		}
		target := filepath.Join(absDir, name)
		if err := afero.WriteFile(fs, target, asset.Data, 0644); err != nil {
			return written, &domain.FileSystemError{Op: "write", Path: target, Err: err}
		}
		written = append(written, target)
	}
	return written, nil
}
