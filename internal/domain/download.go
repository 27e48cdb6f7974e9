package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DownloadStatus represents the current status of an acquisition
type DownloadStatus string

const (
	StatusDownloading DownloadStatus = "downloading"
	StatusExtracting  DownloadStatus = "extracting"
	StatusCompleted   DownloadStatus = "completed"
	StatusError       DownloadStatus = "error"
)

// IsTerminal checks if the status is a terminal state
func (s DownloadStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Progress milestones reported while a request moves through the pipeline
const (
	PercentAccepted  = 0
	PercentMetadata  = 10
	PercentFetched   = 50
	PercentExtracted = 80
	PercentCompleted = 100
)

// DownloadRequest is a request to acquire one beatmapset archive.
// An empty AccessToken means no credential was supplied.
type DownloadRequest struct {
	ContentID   int    `json:"content_id"`
	Title       string `json:"title"`
	AccessToken string `json:"-"`
}

// Validate checks that the request can be accepted
func (r DownloadRequest) Validate() error {
	if r.ContentID <= 0 {
		return fmt.Errorf("invalid content id: %d", r.ContentID)
	}
	return nil
}

// HasToken reports whether a bearer token was supplied
func (r DownloadRequest) HasToken() bool {
	return r.AccessToken != ""
}

// DownloadProgress is the observable state of one acquisition
type DownloadProgress struct {
	ContentID int            `json:"content_id"`
	Title     string         `json:"title"`
	Percent   int            `json:"percent"`
	Status    DownloadStatus `json:"status"`
	Error     string         `json:"error,omitempty"`
	RequestID string         `json:"request_id"`
	StartedAt time.Time      `json:"started_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewDownloadProgress creates the initial progress entry for an accepted request
func NewDownloadProgress(contentID int, title string) DownloadProgress {
	now := time.Now()
	return DownloadProgress{
		ContentID: contentID,
		Title:     title,
		Percent:   PercentAccepted,
		Status:    StatusDownloading,
		RequestID: uuid.New().String(),
		StartedAt: now,
		UpdatedAt: now,
	}
}

// IsActive checks if the acquisition is still running
func (p DownloadProgress) IsActive() bool {
	return !p.Status.IsTerminal()
}

// Acceptance is returned when a request has been accepted for processing
type Acceptance struct {
	RequestID string `json:"request_id"`
	ContentID int    `json:"content_id"`
}

// AcquireResult is the structured outcome of one request
type AcquireResult struct {
	RequestID string           `json:"request_id,omitempty"`
	ContentID int              `json:"content_id"`
	Success   bool             `json:"success"`
	Error     string           `json:"error,omitempty"`
	Source    string           `json:"source,omitempty"`
	Tracks    []PersistedTrack `json:"tracks,omitempty"`
	Err       error            `json:"-"`
}

// ClampPercent keeps a percent value inside 0..100
func ClampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
