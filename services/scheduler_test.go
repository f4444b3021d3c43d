package services

import (
	"context"
	"fmt"
	"testing"

	"daily-challenge-pack/models"

	"github.com/stretchr/testify/require"
)

func TestSnapshotDate(t *testing.T) {
	db := newTestDB(t)
	svc := NewChallengeService(db, NewPackUserStore(db))
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		seedScore(t, db, fmt.Sprintf("u-%02d", i), fmt.Sprintf("player%02d", i), "2024-06-15", 12-i, true)
	}
	seedScore(t, db, "loser", "loser", "2024-06-15", 1, false)

	require.NoError(t, svc.SnapshotDate(ctx, "2024-06-15"))

	var snaps []models.LeaderboardSnapshot
	require.NoError(t, db.Where("date_key = ?", "2024-06-15").Order("rank ASC").Find(&snaps).Error)
	require.Len(t, snaps, 10)

	for i, sn := range snaps {
		require.Equal(t, i+1, sn.Rank)
		if i > 0 {
			require.GreaterOrEqual(t, sn.Attempts, snaps[i-1].Attempts)
		}
	}
	require.Equal(t, 1, snaps[0].Attempts)
}

func TestSnapshotDate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewChallengeService(db, NewPackUserStore(db))
	ctx := context.Background()

	seedScore(t, db, "u-1", "one", "2024-06-15", 3, true)

	require.NoError(t, svc.SnapshotDate(ctx, "2024-06-15"))
	require.NoError(t, svc.SnapshotDate(ctx, "2024-06-15"))

	var count int64
	require.NoError(t, db.Model(&models.LeaderboardSnapshot{}).
		Where("date_key = ?", "2024-06-15").Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestSnapshotDate_NoWinners(t *testing.T) {
	db := newTestDB(t)
	svc := NewChallengeService(db, NewPackUserStore(db))

	seedScore(t, db, "u-1", "one", "2024-06-15", 3, false)

	require.NoError(t, svc.SnapshotDate(context.Background(), "2024-06-15"))

	var count int64
	require.NoError(t, db.Model(&models.LeaderboardSnapshot{}).Count(&count).Error)
	require.Zero(t, count)
}
