package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"daily-challenge-pack/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const leaderboardSize = 10

// DailyHint is the public hint text. It is fixed and carries no information
// about the day's value.
const DailyHint = "Guess the number between 1 and 100!"

var errDuplicateScore = errors.New("duplicate score submission")

type ChallengeService struct {
	DB    *gorm.DB
	Users UserLookup
}

func NewChallengeService(db *gorm.DB, users UserLookup) *ChallengeService {
	return &ChallengeService{DB: db, Users: users}
}

// resolveDateKey validates an optional client-supplied date, defaulting to
// the current UTC day.
func resolveDateKey(raw string) (string, error) {
	if raw == "" {
		return TodayKey(), nil
	}
	return ParseDateKey(raw)
}

// GetDailyChallenge returns the public view of the day's challenge.
// The secret value is recomputed per request elsewhere and never serialized.
func (s *ChallengeService) GetDailyChallenge(c *fiber.Ctx) error {
	dateKey, err := resolveDateKey(c.Query("date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"date": dateKey,
		"hint": DailyHint,
		"range": fiber.Map{
			"min": DailyRangeMin,
			"max": DailyRangeMax,
		},
	})
}

// SubmitGuess compares a guess against the day's value. The secret is
// recomputed on demand — nothing is stored, nothing is returned but the
// direction.
func (s *ChallengeService) SubmitGuess(c *fiber.Ctx) error {
	var input struct {
		Guess *int   `json:"guess"`
		Date  string `json:"date"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if input.Guess == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "guess is required and must be an integer"})
	}
	if *input.Guess < DailyRangeMin || *input.Guess > DailyRangeMax {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("guess must be between %d and %d", DailyRangeMin, DailyRangeMax),
		})
	}

	dateKey, err := resolveDateKey(input.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	secret, err := ComputeDailyValue(dateKey, DailyRangeMin, DailyRangeMax)
	if err != nil {
		log.Printf("❌ [GUESS] Daily value computation failed for %q: %v", dateKey, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to compute daily value"})
	}

	result := "correct"
	switch {
	case *input.Guess < secret:
		result = "higher"
	case *input.Guess > secret:
		result = "lower"
	}

	return c.JSON(fiber.Map{
		"guess":  *input.Guess,
		"result": result,
		"date":   dateKey,
	})
}

// SubmitScore persists one ScoreRecord for the authenticated user and day.
// First writer wins: a second submission for the same (user, date) is
// rejected with 409.
func (s *ChallengeService) SubmitScore(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	var input struct {
		Attempts *int   `json:"attempts"`
		Won      *bool  `json:"won"`
		Date     string `json:"date"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if input.Attempts == nil || *input.Attempts < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "attempts is required and must be >= 1"})
	}
	if input.Won == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "won is required"})
	}

	dateKey, err := resolveDateKey(input.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	headerName, _ := c.Locals("user_name").(string)
	record := &models.ScoreRecord{
		ID:             uuid.NewString(),
		ExternalUserID: userID,
		Username:       s.displayName(c.UserContext(), userID, headerName),
		DateKey:        dateKey,
		Attempts:       *input.Attempts,
		Won:            *input.Won,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.ScoreRecord
		err := tx.Where("external_user_id = ? AND date_key = ?", userID, dateKey).First(&existing).Error
		if err == nil {
			return errDuplicateScore
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(record).Error
	})
	if err != nil {
		// The unique index is the backstop for races the check-then-insert misses.
		if errors.Is(err, errDuplicateScore) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "score already submitted for this date",
				"date":  dateKey,
			})
		}
		log.Printf("❌ [SCORE] Failed to persist score for %s/%s: %v", userID, dateKey, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save score"})
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

// GetLeaderboard returns the top winning records for a day, ascending
// attempts. Past days are served from frozen snapshots when the snapshot job
// has run; otherwise (and always for today) the ranking is computed live.
func (s *ChallengeService) GetLeaderboard(c *fiber.Ctx) error {
	dateKey, err := resolveDateKey(c.Query("date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if dateKey != TodayKey() {
		var snaps []models.LeaderboardSnapshot
		if err := s.DB.Where("date_key = ?", dateKey).Order("rank ASC").Find(&snaps).Error; err == nil && len(snaps) > 0 {
			rows := make([]models.LeaderboardRow, len(snaps))
			for i, sn := range snaps {
				rows[i] = models.LeaderboardRow{
					Rank:           sn.Rank,
					ExternalUserID: sn.ExternalUserID,
					Username:       sn.Username,
					Attempts:       sn.Attempts,
				}
			}
			return c.JSON(fiber.Map{"date": dateKey, "entries": rows})
		}
	}

	rows, err := s.rankWinners(c.UserContext(), dateKey, leaderboardSize)
	if err != nil {
		log.Printf("❌ [LEADERBOARD] Query failed for %s: %v", dateKey, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch leaderboard"})
	}

	return c.JSON(fiber.Map{"date": dateKey, "entries": rows})
}

// rankWinners ranks the winning records for a day: ascending attempts,
// earlier submission breaks ties, ranks 1..N with no gaps.
func (s *ChallengeService) rankWinners(ctx context.Context, dateKey string, limit int) ([]models.LeaderboardRow, error) {
	var records []models.ScoreRecord
	if err := s.DB.WithContext(ctx).
		Where("date_key = ? AND won = ?", dateKey, true).
		Order("attempts ASC, created_at ASC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ExternalUserID
	}
	names, err := s.Users.GetUsernames(ctx, ids)
	if err != nil {
		log.Printf("⚠️ [LEADERBOARD] Username lookup failed, falling back to submitted names: %v", err)
		names = map[string]string{}
	}

	rows := make([]models.LeaderboardRow, len(records))
	for i, r := range records {
		name := names[r.ExternalUserID]
		if name == "" {
			name = r.Username
		}
		rows[i] = models.LeaderboardRow{
			Rank:           i + 1,
			ExternalUserID: r.ExternalUserID,
			Username:       name,
			Attempts:       r.Attempts,
		}
	}
	return rows, nil
}

// GetMyStats returns aggregate play stats for the requesting user.
func (s *ChallengeService) GetMyStats(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	var totalGames, wins int64
	if err := s.DB.Model(&models.ScoreRecord{}).
		Where("external_user_id = ?", userID).
		Count(&totalGames).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch stats"})
	}
	if err := s.DB.Model(&models.ScoreRecord{}).
		Where("external_user_id = ? AND won = ?", userID, true).
		Count(&wins).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch stats"})
	}

	var avgAttempts float64
	var bestWin *int
	if wins > 0 {
		if err := s.DB.Model(&models.ScoreRecord{}).
			Where("external_user_id = ? AND won = ?", userID, true).
			Select("COALESCE(AVG(attempts), 0)").
			Scan(&avgAttempts).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch stats"})
		}

		var best int
		if err := s.DB.Model(&models.ScoreRecord{}).
			Where("external_user_id = ? AND won = ?", userID, true).
			Select("COALESCE(MIN(attempts), 0)").
			Scan(&best).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch stats"})
		}
		bestWin = &best
	}

	streak, err := s.currentStreak(userID)
	if err != nil {
		log.Printf("⚠️ [STATS] Streak computation failed for %s: %v", userID, err)
	}

	return c.JSON(fiber.Map{
		"total_games":             totalGames,
		"wins":                    wins,
		"average_attempts_on_win": avgAttempts,
		"best_win_attempts":       bestWin,
		"current_streak":          streak,
	})
}

// currentStreak counts consecutive played days ending today — or yesterday,
// if today has no submission yet. The lookback window is 400 days, so a
// streak longer than that reports as 400.
func (s *ChallengeService) currentStreak(userID string) (int, error) {
	var keys []string
	if err := s.DB.Model(&models.ScoreRecord{}).
		Where("external_user_id = ?", userID).
		Order("date_key DESC").
		Limit(400).
		Pluck("date_key", &keys).Error; err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	day, err := time.Parse(DateKeyLayout, TodayKey())
	if err != nil {
		return 0, err
	}
	if keys[0] != day.Format(DateKeyLayout) {
		day = day.AddDate(0, 0, -1)
		if keys[0] != day.Format(DateKeyLayout) {
			return 0, nil
		}
	}

	streak := 0
	for _, k := range keys {
		if k != day.Format(DateKeyLayout) {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak, nil
}

// GetMyHistory returns the requesting user's past records, newest day first,
// paginated.
func (s *ChallengeService) GetMyHistory(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	page := c.QueryInt("page", 1)
	size := c.QueryInt("size", 20)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	var total int64
	if err := s.DB.Model(&models.ScoreRecord{}).
		Where("external_user_id = ?", userID).
		Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch history"})
	}

	var records []models.ScoreRecord
	if err := s.DB.Where("external_user_id = ?", userID).
		Order("date_key DESC").
		Limit(size).Offset(offset).
		Find(&records).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch history"})
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return c.JSON(fiber.Map{
		"records":     records,
		"page":        page,
		"size":        size,
		"total_items": total,
		"total_pages": totalPages,
	})
}

// displayName resolves the name to denormalize onto a new score row: the
// gateway-supplied name, then the local user snapshot, then a stable
// placeholder.
func (s *ChallengeService) displayName(ctx context.Context, userID, headerName string) string {
	if headerName != "" {
		return headerName
	}
	names, err := s.Users.GetUsernames(ctx, []string{userID})
	if err == nil && names[userID] != "" {
		return names[userID]
	}
	short := userID
	if len(short) > 8 {
		short = short[:8]
	}
	return "player-" + short
}
