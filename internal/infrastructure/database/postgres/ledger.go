package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger records reconciled checkout sessions. The primary key on
// session_id makes the first insert win.
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a gorm reconciliation ledger
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Reconciled reports whether id was already marked
func (l *Ledger) Reconciled(ctx context.Context, id string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&ReconciledSession{}).Where("session_id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to read reconciliation ledger: %w", err)
	}
	return count > 0, nil
}

// MarkReconciled reports whether id was reconciled for the first time
func (l *Ledger) MarkReconciled(ctx context.Context, id string) (bool, error) {
	result := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&ReconciledSession{SessionID: id, ReconciledAt: time.Now()})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark checkout session reconciled: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
