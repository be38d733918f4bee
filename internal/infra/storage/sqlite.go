package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"fastlob/internal/book"
	"fastlob/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage persists book snapshots to SQLite.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the snapshot database at path.
// An empty path resolves to the OS config directory.
func NewStorage(path string) (*Storage, error) {
	if path == "" {
		var err error
		if path, err = getDBPath(); err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.BookSnapshot{}, &domain.LevelSnapshot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "fastlob", "data", "fastlob.db"), nil
}

// Close releases the underlying connection.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewBookSnapshot converts an in-memory snapshot into its persisted form.
func NewBookSnapshot(snap book.Snapshot, symbol string, tick decimal.Decimal, seq uint64) *domain.BookSnapshot {
	rec := &domain.BookSnapshot{
		BookID:   uint16(snap.Book),
		Symbol:   symbol,
		Seq:      seq,
		Orders:   snap.Orders,
		PoolSize: snap.Pool.Size,
		PoolLive: snap.Pool.Live,
		PoolFree: snap.Pool.Free,
		Levels:   make([]domain.LevelSnapshot, 0, len(snap.Bids)+len(snap.Asks)),
	}

	add := func(side book.Side, views []book.LevelView) {
		for _, v := range views {
			rec.Levels = append(rec.Levels, domain.LevelSnapshot{
				Side:      side.String(),
				Price:     int64(v.Price),
				PriceText: v.Price.Decimal(tick).String(),
				Orders:    v.Orders,
				Volume:    uint64(v.Volume),
			})
		}
	}
	add(book.Bid, snap.Bids)
	add(book.Ask, snap.Asks)
	return rec
}

// ======================================================================================
// Snapshot Operations
// ======================================================================================

// SaveSnapshot stores a snapshot together with its levels.
func (s *Storage) SaveSnapshot(ctx context.Context, snap *domain.BookSnapshot) error {
	return s.db.WithContext(ctx).Create(snap).Error
}

// LatestSnapshot returns the most recent snapshot of a book, or nil if none exists.
func (s *Storage) LatestSnapshot(ctx context.Context, bookID uint16) (*domain.BookSnapshot, error) {
	var snap domain.BookSnapshot
	err := s.db.WithContext(ctx).
		Preload("Levels", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("book_id = ?", bookID).
		Order("id DESC").
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListSnapshots returns up to limit snapshot headers of a book, newest first.
func (s *Storage) ListSnapshots(ctx context.Context, bookID uint16, limit int) ([]domain.BookSnapshot, error) {
	var snaps []domain.BookSnapshot
	err := s.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("id DESC").
		Limit(limit).
		Find(&snaps).Error
	return snaps, err
}

// PruneSnapshots keeps the newest keep snapshots of a book and deletes the rest.
func (s *Storage) PruneSnapshots(ctx context.Context, bookID uint16, keep int) (int64, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&domain.BookSnapshot{}).
		Where("book_id = ?", bookID).
		Order("id DESC").
		Pluck("id", &ids).Error
	if err != nil || len(ids) <= keep {
		return 0, err
	}
	ids = ids[max(keep, 0):]

	var deleted int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("snapshot_id IN ?", ids).Delete(&domain.LevelSnapshot{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&domain.BookSnapshot{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}
