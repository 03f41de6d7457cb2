package services

import (
	"log"

	"github.com/playwright-community/playwright-go"

	"autoapply/config"
)

// waitForSettle blocks until pending network activity has quieted, then
// pauses a fixed delay so late renders land. Controls queried before settle
// are transiently absent or stale. The timeout is advisory: on expiry the
// caller proceeds anyway rather than failing the step.
func waitForSettle(page playwright.Page, cfg *config.PortalConfig) {
	err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(cfg.SettleTimeout.Milliseconds())),
	})
	if err != nil {
		log.Printf("⚠ Page settle timeout (continuing): %v", err)
	}
	page.WaitForTimeout(float64(cfg.SettleDelay.Milliseconds()))
}
