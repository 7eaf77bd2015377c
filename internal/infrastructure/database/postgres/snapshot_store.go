package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/your-org/storefront/internal/domain/cart"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotStore keeps cart snapshots in the cart_snapshots table
type SnapshotStore struct {
	db *gorm.DB
}

// NewSnapshotStore creates a gorm-backed snapshot store
func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Get returns the snapshot stored under key
func (s *SnapshotStore) Get(ctx context.Context, key string) ([]byte, error) {
	var snapshot CartSnapshot
	err := s.db.WithContext(ctx).Where("snapshot_key = ?", key).First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, cart.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart snapshot: %w", err)
	}
	return snapshot.Data, nil
}

// Put upserts the snapshot stored under key
func (s *SnapshotStore) Put(ctx context.Context, key string, data []byte) error {
	snapshot := CartSnapshot{
		SnapshotKey: key,
		Data:        data,
		UpdatedAt:   time.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "snapshot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&snapshot).Error
	if err != nil {
		return fmt.Errorf("failed to write cart snapshot: %w", err)
	}
	return nil
}

// Delete removes the row for key; a missing row is not an error
func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("snapshot_key = ?", key).Delete(&CartSnapshot{}).Error; err != nil {
		return fmt.Errorf("failed to delete cart snapshot: %w", err)
	}
	return nil
}

// PurgeStale deletes snapshots not written for longer than ttl
func (s *SnapshotStore) PurgeStale(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Where("updated_at < ?", time.Now().Add(-ttl)).Delete(&CartSnapshot{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge stale cart snapshots: %w", result.Error)
	}
	return result.RowsAffected, nil
}
