package models

import (
	"time"

	"gorm.io/gorm"
)

// PackUser is a local snapshot of the host platform user data this pack needs
// for display names. Owned and managed solely by the pack — the pack never
// joins across schemas; usernames come from here or nowhere.
// Populated via sync worker from the host profile service.
type PackUser struct {
	ID             string  `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string  `gorm:"uniqueIndex;not null" json:"external_user_id"` // the host platform's user UUID
	Username       string  `gorm:"index;not null" json:"username"`
	DisplayName    string  `json:"display_name,omitempty"`
	AvatarURL      *string `json:"avatar_url,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Soft delete (if needed for history)
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
