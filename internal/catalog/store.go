package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLite-backed catalog
type Store struct {
	db *gorm.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	if err := db.AutoMigrate(&Track{}, &Album{}); err != nil {
		return nil, fmt.Errorf("failed to migrate catalog database: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Import upserts tracks and albums in one transaction.
func (s *Store) Import(ctx context.Context, tracks []Track, albums []Album) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := clause.OnConflict{UpdateAll: true}
		if len(albums) > 0 {
			if err := tx.Clauses(upsert).CreateInBatches(albums, 100).Error; err != nil {
				return fmt.Errorf("failed to import albums: %w", err)
			}
		}
		if len(tracks) > 0 {
			if err := tx.Clauses(upsert).CreateInBatches(tracks, 100).Error; err != nil {
				return fmt.Errorf("failed to import tracks: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) CountTracks(ctx context.Context) (int64, error) {
	var count int64
	return count, s.db.WithContext(ctx).Model(&Track{}).Count(&count).Error
}

func (s *Store) Tracks(ctx context.Context) ([]Track, error) {
	var tracks []Track
	return tracks, s.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Find(&tracks).Error
}

func (s *Store) Track(ctx context.Context, id string) (Track, error) {
	var track Track
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&track).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Track{}, fmt.Errorf("track %s: %w", id, ErrNotFound)
	}
	return track, err
}

func (s *Store) Album(ctx context.Context, id string) (Album, error) {
	var album Album
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&album).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Album{}, fmt.Errorf("album %s: %w", id, ErrNotFound)
	}
	return album, err
}
