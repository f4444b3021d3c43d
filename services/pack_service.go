// services/pack_service.go
package services

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"daily-challenge-pack/models"
	"daily-challenge-pack/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	packName    = "Daily Number Challenge"
	packVersion = "1.0.0"

	// FrontendHostDir is where the uploaded frontend bundle is extracted and
	// served from.
	FrontendHostDir = "public/frontend"

	maxBundleSize = 100 * 1024 * 1024 // 100MB

	settingLogoURL = "logo_url"
)

// PackService owns the pack manifest and the hosting of the frontend
// component bundle. Admin uploads mutate the manifest while the host reads
// it, so all access goes through the mutex.
type PackService struct {
	db *gorm.DB

	mu       sync.RWMutex
	manifest models.PackManifest
}

// NewPackService builds the manifest and recovers state a restart would
// otherwise lose: an already-hosted frontend bundle is re-detected on disk,
// and the logo URL is loaded from pack_settings.
func NewPackService(db *gorm.DB) *PackService {
	s := &PackService{
		db: db,
		manifest: models.PackManifest{
			Slug:        slug.Make(packName),
			Name:        packName,
			Version:     packVersion,
			Description: "A community pack with one number-guessing game: every player gets the same secret number each day.",
			Game: models.ManifestGame{
				Kind:     "daily-number-guess",
				RangeMin: DailyRangeMin,
				RangeMax: DailyRangeMax,
			},
			Frontend: models.ManifestFrontend{Component: "DailyGuessGame"},
			Routes: []models.PackRoute{
				{Method: "GET", Path: "/daily-challenge", Auth: "public"},
				{Method: "POST", Path: "/guess", Auth: "public"},
				{Method: "POST", Path: "/submit-score", Auth: "user"},
				{Method: "GET", Path: "/leaderboard", Auth: "public"},
				{Method: "GET", Path: "/my-stats", Auth: "user"},
				{Method: "GET", Path: "/my-history", Auth: "user"},
			},
		},
	}

	if entry, err := utils.FindEntryPoint(FrontendHostDir); err == nil {
		s.manifest.Frontend.Entry = "/frontend/" + entry
		log.Printf("✅ Existing frontend bundle detected (entry: %s)", s.manifest.Frontend.Entry)
	}

	if db != nil {
		var setting models.PackSetting
		if err := db.Where("name = ?", settingLogoURL).First(&setting).Error; err == nil && setting.Value != "" {
			s.manifest.LogoURL = setting.Value
		}
	}

	return s
}

// Manifest returns the current manifest (read-only copy).
func (s *PackService) Manifest() models.PackManifest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manifest
}

func (s *PackService) setFrontendEntry(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifest.Frontend.Entry = entry
}

func (s *PackService) setLogoURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifest.LogoURL = url
}

// persistLogoURL records the logo URL in pack_settings so it survives
// restarts.
func (s *PackService) persistLogoURL(url string) error {
	if s.db == nil {
		return nil
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.PackSetting{Name: settingLogoURL, Value: url}).Error
}

// GetManifest serves the pack manifest to the host platform.
func (s *PackService) GetManifest(c *fiber.Ctx) error {
	return c.JSON(s.Manifest())
}

// UploadFrontendBundle accepts a zip of the built frontend component bundle,
// extracts it into the hosted directory and records the detected entry point
// in the manifest.
func (s *PackService) UploadFrontendBundle(c *fiber.Ctx) error {
	bundle, err := c.FormFile("bundle")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bundle is required"})
	}
	if bundle.Size > maxBundleSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bundle too large (max 100MB)"})
	}
	if !strings.EqualFold(filepath.Ext(bundle.Filename), ".zip") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bundle must be a .zip"})
	}

	tmpDir := filepath.Join(os.TempDir(), "pack-frontend-"+uuid.NewString())
	if err := os.MkdirAll(tmpDir, os.ModePerm); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "temp dir creation failed"})
	}
	defer os.RemoveAll(tmpDir)

	tmpZip := filepath.Join(tmpDir, "bundle.zip")
	if err := utils.SaveFile(bundle, tmpZip); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save bundle"})
	}

	extractDir := filepath.Join(tmpDir, "extracted")
	if err := utils.Unzip(tmpZip, extractDir); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unzip failed: " + err.Error()})
	}

	entry, err := utils.FindEntryPoint(extractDir)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// Replace the hosted bundle wholesale — partial old/new mixes are worse
	// than a brief gap.
	if err := os.RemoveAll(FrontendHostDir); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to clear hosted bundle"})
	}
	if err := utils.CopyDir(extractDir, FrontendHostDir); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to host bundle: " + err.Error()})
	}

	hostedEntry := "/frontend/" + entry
	s.setFrontendEntry(hostedEntry)
	log.Printf("✅ Frontend bundle hosted (entry: %s)", hostedEntry)

	return c.JSON(fiber.Map{
		"success": true,
		"entry":   hostedEntry,
	})
}

// UploadPackLogo stores the pack logo in R2 and records the public URL in
// the manifest.
func (s *PackService) UploadPackLogo(c *fiber.Ctx) error {
	if !utils.R2Enabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "asset storage is not configured"})
	}

	logo, err := c.FormFile("logo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "logo is required"})
	}

	ext := filepath.Ext(logo.Filename)
	if ext == "" {
		ext = ".png"
	}
	key := "pack-logos/" + uuid.NewString() + ext

	url, err := utils.UploadFileToR2(logo, key)
	if err != nil {
		log.Printf("❌ [PACK] Logo upload failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload logo"})
	}

	s.setLogoURL(url)
	if err := s.persistLogoURL(url); err != nil {
		log.Printf("⚠️ [PACK] Failed to persist logo URL: %v", err)
	}
	return c.JSON(fiber.Map{"logo_url": url})
}
