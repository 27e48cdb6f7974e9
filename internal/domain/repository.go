package domain

import "context"

// TrackRepository defines the interface for library track persistence
type TrackRepository interface {
	// CreateIfAbsent inserts tracks whose ID is not yet stored and returns the inserted ones
	CreateIfAbsent(ctx context.Context, tracks []PersistedTrack) ([]PersistedTrack, error)

	// FindByID finds a track by ID, returning nil when absent
	FindByID(ctx context.Context, id string) (*PersistedTrack, error)

	// FindByContentID finds all tracks ingested from one beatmapset
	FindByContentID(ctx context.Context, contentID int) ([]PersistedTrack, error)

	// FindAll returns every track, most recently added first
	FindAll(ctx context.Context) ([]PersistedTrack, error)

	// Delete deletes a track by ID
	Delete(ctx context.Context, id string) error

	// Count returns the total number of tracks
	Count(ctx context.Context) (int64, error)
}
