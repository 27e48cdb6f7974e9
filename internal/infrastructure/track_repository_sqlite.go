package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yourusername/osz-extract-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLiteTrackRepository implements TrackRepository using SQLite
type SQLiteTrackRepository struct {
	db *gorm.DB
}

// NewSQLiteTrackRepository creates a new SQLite repository
func NewSQLiteTrackRepository(dbPath string) (*SQLiteTrackRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.PersistedTrack{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteTrackRepository{db: db}, nil
}

// CreateIfAbsent inserts each track unless its ID already exists.
// Only the rows actually inserted are returned.
func (r *SQLiteTrackRepository) CreateIfAbsent(ctx context.Context, tracks []domain.PersistedTrack) ([]domain.PersistedTrack, error) {
	var added []domain.PersistedTrack
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range tracks {
			track := tracks[i]
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoNothing: true,
			}).Create(&track)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				added = append(added, track)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store tracks: %w", err)
	}
	return added, nil
}

// FindByID finds a track by ID
// Returns nil if not found
func (r *SQLiteTrackRepository) FindByID(ctx context.Context, id string) (*domain.PersistedTrack, error) {
	var track domain.PersistedTrack
	err := r.db.WithContext(ctx).First(&track, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &track, nil
}

// FindByContentID finds all tracks ingested from one beatmapset
func (r *SQLiteTrackRepository) FindByContentID(ctx context.Context, contentID int) ([]domain.PersistedTrack, error) {
	var tracks []domain.PersistedTrack
	err := r.db.WithContext(ctx).
		Where("content_id = ?", contentID).
		Order("added_date DESC").
		Find(&tracks).Error
	return tracks, err
}

// FindAll returns every track, most recently added first
func (r *SQLiteTrackRepository) FindAll(ctx context.Context) ([]domain.PersistedTrack, error) {
	var tracks []domain.PersistedTrack
	err := r.db.WithContext(ctx).Order("added_date DESC").Find(&tracks).Error
	return tracks, err
}

// Delete deletes a track by ID
func (r *SQLiteTrackRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.PersistedTrack{}, "id = ?", id).Error
}

// Count returns the total number of tracks
func (r *SQLiteTrackRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.PersistedTrack{}).Count(&count).Error
	return count, err
}

// Ping checks that the database connection is usable
func (r *SQLiteTrackRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (r *SQLiteTrackRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
