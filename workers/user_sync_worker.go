// workers/user_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"daily-challenge-pack/models"
	"daily-challenge-pack/utils"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HostProfile matches the JSON the host profile sync endpoint returns per user.
type HostProfile struct {
	ID          string    `json:"id"`
	ExternalID  string    `json:"external_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// hostProfilesResponse is the top-level structure of the sync response.
type hostProfilesResponse struct {
	Users []HostProfile `json:"users"`
}

var titleCaser = cases.Title(language.English)

// PackUserSyncWorker mirrors host platform user profiles into the pack's
// local pack_users table so leaderboards can show display names without
// cross-schema access.
type PackUserSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/profiles"
	serviceToken string
	httpClient   *http.Client
}

func NewPackUserSyncWorker(db *gorm.DB, hostSyncBaseURL, endpointPath, serviceToken string) *PackUserSyncWorker {
	return &PackUserSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      hostSyncBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
	}
}

func (w *PackUserSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Pack User Sync Worker (host profiles → pack_users)…")
	go w.run(ctx)
}

func (w *PackUserSyncWorker) run(ctx context.Context) {
	// Initial sync — backfill from the beginning of time.
	if err := w.SyncOnce(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial user sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.SyncOnce(ctx, w.getLastSyncTime()); err != nil {
				log.Printf("❌ User sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Pack User Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt in the local snapshot table.
func (w *PackUserSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM pack_users WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// SyncOnce fetches profile changes since the given time and upserts them into
// pack_users.
func (w *PackUserSyncWorker) SyncOnce(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid host sync URL %q: %w", w.baseURL, err)
	}

	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to host sync service failed: %w", err)
	}
	defer func() {
		// Always drain & close to prevent connection leaks
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("host sync service non-200 response: %d — %s", resp.StatusCode, string(body))
	}

	var response hostProfilesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode host sync response: %w", err)
	}

	if len(response.Users) == 0 {
		return nil
	}

	log.Printf("[SYNC] 📥 Processing %d profile(s) from host…", len(response.Users))

	var upsertCount, errorCount int
	for _, profile := range response.Users {
		displayName := profile.DisplayName
		if displayName == "" {
			// Fallback display name: title-cased username.
			displayName = titleCaser.String(profile.Username)
		}

		localUser := models.PackUser{
			ID:             uuid.NewString(),
			ExternalUserID: profile.ExternalID,
			Username:       profile.Username,
			DisplayName:    displayName,
			AvatarURL:      profile.AvatarURL,
			CreatedAt:      profile.CreatedAt,
			UpdatedAt:      profile.UpdatedAt,
		}

		if err := w.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "display_name", "avatar_url", "updated_at",
			}),
		}).Create(&localUser).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert pack_user (external_id=%q, username=%q): %v",
				profile.ExternalID, profile.Username, err)
		} else {
			upsertCount++
		}
	}

	log.Printf("[SYNC] ✅ Synced %d profile(s) (%d upserted, %d errors)",
		len(response.Users), upsertCount, errorCount)
	return nil
}
