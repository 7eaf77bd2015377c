// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for the cart tables
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	models := []interface{}{
		&CartSnapshot{},
		&ReconciledSession{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes used by the cleanup queries
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_reconciled_sessions_reconciled_at ON reconciled_sessions(reconciled_at)",
	}

	successCount := 0
	for _, index := range indexes {
		if err := m.db.Exec(index).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			continue
		}
		successCount++
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, len(indexes)-successCount)
	return nil
}
