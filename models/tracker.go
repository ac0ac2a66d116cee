package models

import "time"

// Tracker is an identity's entry in the authorization gate. A missing row
// means not authorized.
type Tracker struct {
	Address   string    `gorm:"primaryKey;size:42" json:"address"`
	Allowed   bool      `gorm:"index;not null;default:false" json:"allowed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
