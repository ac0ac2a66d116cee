package models

import "time"

// VerifiedSource is an external reporter allowed to attribute points. A
// revoked source keeps its row with Verified=false.
type VerifiedSource struct {
	Address   string    `gorm:"primaryKey;size:42" json:"address"`
	Category  string    `gorm:"size:16;not null" json:"category"`
	Points    uint64    `gorm:"not null" json:"points"`
	Verified  bool      `gorm:"index;not null;default:true" json:"verified"`
	KeyHash   string    `gorm:"size:255" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
