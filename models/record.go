package models

import (
	"time"

	"gorm.io/gorm"
)

// Record is the soulbound achievement bound to one identity. Owner is set at
// mint and never changes.
type Record struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement:false" json:"record_id"`
	Owner          string    `gorm:"size:42;uniqueIndex;not null" json:"owner"`
	TotalScore     uint64    `gorm:"index;not null;default:0" json:"total_score"`
	StreakDays     uint64    `gorm:"not null;default:1" json:"streak_days"`
	LastActivityAt int64     `gorm:"not null" json:"last_activity_timestamp"`
	CurrentTier    int       `gorm:"not null;default:0" json:"current_tier"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (r *Record) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (r *Record) BeforeUpdate(tx *gorm.DB) error {
	r.UpdatedAt = time.Now()
	return nil
}
