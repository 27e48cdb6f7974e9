package domain

import (
	"fmt"
	"path"
	"strings"
	"time"
)

var (
	// LibraryAudioExtensions is the allow-list used when ingesting into the library
	LibraryAudioExtensions = []string{".mp3", ".ogg", ".flac"}

	// PreviewAudioExtensions is the stricter allow-list used for single-file previews
	PreviewAudioExtensions = []string{".mp3"}
)

// AllowList matches archive member names against permitted audio extensions
type AllowList []string

// NewAllowList normalizes extensions to lowercase with a leading dot
func NewAllowList(exts []string) AllowList {
	list := make(AllowList, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		list = append(list, ext)
	}
	return list
}

// Match returns the member extension when its lowercase suffix is allow-listed
func (a AllowList) Match(memberName string) (string, bool) {
	lower := strings.ToLower(memberName)
	for _, ext := range a {
		if strings.HasSuffix(lower, ext) {
			return ext, true
		}
	}
	return "", false
}

// FileExtension returns the extension of the last path element, including the dot
func FileExtension(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	idx := strings.LastIndex(base, ".")
	if idx <= 0 {
		return ""
	}
	return base[idx:]
}

// ExtractedAsset is an audio member held in memory between extraction and persistence
type ExtractedAsset struct {
	MemberName string
	Data       []byte
	Extension  string
	Size       int64 // declared uncompressed size, or bytes read when larger
}

// BeatmapsetMetadata is the remote metadata used to name and describe tracks
type BeatmapsetMetadata struct {
	ID       int
	Title    string
	Artist   string
	Creator  string
	CoverURL string
}

// Album returns the album name shown in the library
func (m BeatmapsetMetadata) Album() string {
	if m.Creator == "" {
		return "osu!"
	}
	return "osu! - " + m.Creator
}

// PersistedTrack is a library record for one persisted audio file
type PersistedTrack struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	ContentID int       `json:"content_id" gorm:"not null;index"`
	Title     string    `json:"title" gorm:"not null"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album"`
	FilePath  string    `json:"file_path" gorm:"not null"`
	FileName  string    `json:"file_name" gorm:"not null"`
	Duration  *int      `json:"duration,omitempty"`
	CoverURL  *string   `json:"cover_url,omitempty"`
	AddedDate time.Time `json:"added_date" gorm:"index"`
}

// TableName specifies the table name for GORM
func (PersistedTrack) TableName() string {
	return "tracks"
}

// TrackID derives the stable track id from already sanitized name components
func TrackID(contentID int, sanitizedTitle, sanitizedArtist string) string {
	return fmt.Sprintf("beatmap-%d-%s-%s", contentID, sanitizedTitle, sanitizedArtist)
}

// AssetFileName builds the library file name from already sanitized name components
func AssetFileName(contentID int, sanitizedTitle, sanitizedArtist, extension string) string {
	return fmt.Sprintf("%d-%s-%s%s", contentID, sanitizedTitle, sanitizedArtist, extension)
}
