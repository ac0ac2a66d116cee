package models

import "time"

// Activity logs one tracked activity and the points it awarded.
type Activity struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	RecordID  uint64    `gorm:"index:idx_activity_record_ts,priority:1;not null" json:"record_id"`
	User      string    `gorm:"size:42;not null" json:"user"`
	Source    string    `gorm:"size:42;index;not null" json:"contract_address"`
	Category  string    `gorm:"size:16;not null" json:"category"`
	Points    uint64    `gorm:"not null" json:"points"`
	Action    string    `gorm:"size:255" json:"action"`
	Timestamp int64     `gorm:"index:idx_activity_record_ts,priority:2;not null" json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}
