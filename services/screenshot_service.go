package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/playwright-community/playwright-go"
)

// ScreenshotService captures per-step diagnostic screenshots. Shots are
// written to the local log directory keyed by step name and job id, and
// optionally mirrored to S3 when credentials are configured. Capture
// failures are logged and swallowed; diagnostics never fail a run.
type ScreenshotService struct {
	LogDir    string
	S3Service *S3Service
}

// NewScreenshotService creates a screenshot service rooted at logDir.
func NewScreenshotService(logDir string) *ScreenshotService {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Printf("⚠ Could not create log directory %s: %v", logDir, err)
	}

	s3Service, err := NewS3Service()
	if err != nil {
		log.Printf("S3 upload not configured, screenshots stay local: %v", err)
		s3Service = nil
	}
	return &ScreenshotService{
		LogDir:    logDir,
		S3Service: s3Service,
	}
}

// Capture takes a full-page screenshot named for the step. Errors are
// swallowed after logging.
func (s *ScreenshotService) Capture(page playwright.Page, name string) {
	path := filepath.Join(s.LogDir, name+".png")
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		log.Printf("⚠ Could not take screenshot %s: %v", name, err)
		return
	}
	log.Printf("📸 Screenshot saved: %s.png", name)

	if s.S3Service != nil {
		key := fmt.Sprintf("screenshots/%s.png", name)
		if _, err := s.S3Service.UploadFile(path, key); err != nil {
			log.Printf("⚠ Could not upload screenshot %s: %v", name, err)
		}
	}
}

// CaptureStep names the shot by step and job id.
func (s *ScreenshotService) CaptureStep(page playwright.Page, step, jobID string) {
	s.Capture(page, fmt.Sprintf("%s_%s", step, jobID))
}
