package postgres

import "time"

// CartSnapshot is one persisted cart, stored as the raw JSON array
type CartSnapshot struct {
	SnapshotKey string    `gorm:"primaryKey;size:255" json:"snapshot_key"`
	Data        []byte    `gorm:"type:jsonb;not null" json:"data"`
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"`
}

// ReconciledSession marks a checkout session whose cart was already cleared
type ReconciledSession struct {
	SessionID    string    `gorm:"primaryKey;size:255" json:"session_id"`
	ReconciledAt time.Time `gorm:"not null" json:"reconciled_at"`
}
