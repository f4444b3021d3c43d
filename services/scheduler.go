// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"daily-challenge-pack/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// StartSnapshotScheduler freezes each finished day's leaderboard shortly
// after UTC midnight, and runs a catch-up pass immediately in case the
// previous day finished while the pack was down.
func (s *ChallengeService) StartSnapshotScheduler() {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		log.Printf("[Scheduler] init failed: %v", err)
		return
	}
	sched.Start()

	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
		gocron.NewTask(func() {
			yesterday := time.Now().UTC().AddDate(0, 0, -1).Format(DateKeyLayout)
			if err := s.SnapshotDate(context.Background(), yesterday); err != nil {
				log.Printf("[Scheduler] Snapshot for %s failed: %v", yesterday, err)
			}
		}),
	)
	if err != nil {
		log.Printf("[Scheduler] job registration failed: %v", err)
	}

	go func() {
		yesterday := time.Now().UTC().AddDate(0, 0, -1).Format(DateKeyLayout)
		if err := s.SnapshotDate(context.Background(), yesterday); err != nil {
			log.Printf("[Scheduler] Startup snapshot for %s failed: %v", yesterday, err)
		}
	}()
}

// SnapshotDate freezes the top winners of the given day into
// leaderboard_snapshots. Idempotent: a day that already has snapshot rows is
// left untouched.
func (s *ChallengeService) SnapshotDate(ctx context.Context, dateKey string) error {
	var existing int64
	if err := s.DB.WithContext(ctx).Model(&models.LeaderboardSnapshot{}).
		Where("date_key = ?", dateKey).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	rows, err := s.rankWinners(ctx, dateKey, leaderboardSize)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	snaps := make([]models.LeaderboardSnapshot, len(rows))
	for i, r := range rows {
		snaps[i] = models.LeaderboardSnapshot{
			ID:             uuid.NewString(),
			DateKey:        dateKey,
			Rank:           r.Rank,
			ExternalUserID: r.ExternalUserID,
			Username:       r.Username,
			Attempts:       r.Attempts,
		}
	}
	if err := s.DB.WithContext(ctx).Create(&snaps).Error; err != nil {
		return err
	}

	log.Printf("✅ Leaderboard snapshot written for %s (%d entries)", dateKey, len(snaps))
	return nil
}
