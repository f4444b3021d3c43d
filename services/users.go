// services/users.go
package services

import (
	"context"

	"daily-challenge-pack/models"

	"gorm.io/gorm"
)

// UserLookup resolves external user IDs to display names. This is the pack's
// only view of host platform users: read-only, backed by the local snapshot
// table the sync worker maintains — never a cross-schema join.
type UserLookup interface {
	GetUsernames(ctx context.Context, ids []string) (map[string]string, error)
}

type PackUserStore struct {
	DB *gorm.DB
}

func NewPackUserStore(db *gorm.DB) *PackUserStore {
	return &PackUserStore{DB: db}
}

// GetUsernames returns external_user_id → best display name for the given
// ids. IDs without a snapshot row are simply absent from the map.
func (s *PackUserStore) GetUsernames(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []models.PackUser
	if err := s.DB.WithContext(ctx).
		Where("external_user_id IN ?", ids).
		Find(&users).Error; err != nil {
		return nil, err
	}

	for _, u := range users {
		name := u.DisplayName
		if name == "" {
			name = u.Username
		}
		out[u.ExternalUserID] = name
	}
	return out, nil
}
