package models

import "time"

// CategoryScore is one ledger bucket, keyed by (record, category). Rows are
// created on first write and only ever grow.
type CategoryScore struct {
	RecordID  uint64    `gorm:"primaryKey;autoIncrement:false" json:"record_id"`
	Category  string    `gorm:"primaryKey;size:16" json:"category"`
	Score     uint64    `gorm:"not null;default:0" json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}
