package models

import "time"

// PackSetting is a small key/value row for manifest state that must survive
// restarts (currently the logo URL).
type PackSetting struct {
	Name      string    `json:"name" gorm:"primaryKey"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
