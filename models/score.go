// models/score.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// ScoreRecord is one user's outcome for one day's challenge.
// Exactly one row per (user, day) — the composite unique index enforces it,
// so the first submission wins and later ones are rejected.
type ScoreRecord struct {
	ID             string `json:"id" gorm:"primaryKey"`
	ExternalUserID string `json:"external_user_id" gorm:"uniqueIndex:idx_score_user_date;not null"`
	Username       string `json:"username"` // denormalized from pack_users at submit time
	DateKey        string `json:"date" gorm:"uniqueIndex:idx_score_user_date;index;not null"`
	Attempts       int    `json:"attempts" gorm:"not null"`
	Won            bool   `json:"won" gorm:"not null"`

	Timestamps
}

// LeaderboardRow is the ranked view returned by /leaderboard. Derived, never
// stored — rank is assigned at query time with no gaps.
type LeaderboardRow struct {
	Rank           int    `json:"rank"`
	ExternalUserID string `json:"external_user_id"`
	Username       string `json:"username"`
	Attempts       int    `json:"attempts"`
}

// LeaderboardSnapshot freezes one leaderboard row for a finished day.
// Written by the daily snapshot job so past-day leaderboards are served
// without re-ranking live rows.
type LeaderboardSnapshot struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	DateKey        string    `json:"date" gorm:"index;not null"`
	Rank           int       `json:"rank" gorm:"not null"`
	ExternalUserID string    `json:"external_user_id" gorm:"index"`
	Username       string    `json:"username"`
	Attempts       int       `json:"attempts"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
