package services

import (
	"fmt"
	"log"
	"time"

	"github.com/playwright-community/playwright-go"

	"autoapply/config"
	"autoapply/models"
)

// Orchestrator runs the fixed application workflow for a batch of job ids,
// one job at a time, and classifies every attempt into the ledger. One
// browser session is opened and closed per job; anything unhandled inside a
// job converts it to FAILED and the batch moves on.
type Orchestrator struct {
	cfg       *config.PortalConfig
	questions *config.QuestionSet
	ledger    *OutcomeLedger
	shots     *ScreenshotService

	pw      *playwright.Playwright
	browser playwright.Browser
	steps   []step
}

// NewOrchestrator starts Playwright and launches the browser. Callers must
// Close it.
func NewOrchestrator(cfg *config.PortalConfig, questions *config.QuestionSet, ledger *OutcomeLedger) (*Orchestrator, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %v", err)
	}

	if !cfg.Headless {
		log.Println("Running browser in visible mode (HEADLESS=false)")
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %v", err)
	}

	return &Orchestrator{
		cfg:       cfg,
		questions: questions,
		ledger:    ledger,
		shots:     NewScreenshotService(cfg.LogDir),
		pw:        pw,
		browser:   browser,
		steps:     applicationSteps(),
	}, nil
}

// Close shuts down the browser and playwright.
func (o *Orchestrator) Close() {
	if o.browser != nil {
		if err := o.browser.Close(); err != nil {
			log.Printf("Error closing browser: %v", err)
		}
	}
	if o.pw != nil {
		if err := o.pw.Stop(); err != nil {
			log.Printf("Error stopping playwright: %v", err)
		}
	}
}

// RunBatch processes every job id strictly in sequence, with the mandatory
// inter-job delay between them to stay under anti-automation rate limits.
func (o *Orchestrator) RunBatch(jobIDs []string) {
	for i, jobID := range jobIDs {
		o.ApplyToJob(jobID)

		if i < len(jobIDs)-1 {
			log.Printf("⏳ Waiting %s before next application...", o.cfg.JobDelay)
			time.Sleep(o.cfg.JobDelay)
		}
	}
}

// ApplyToJob runs the full workflow for one job id and records the outcome.
func (o *Orchestrator) ApplyToJob(jobID string) *models.JobAttempt {
	log.Printf("🚀 STARTING APPLICATION FOR JOB: %s", jobID)

	attempt := models.NewJobAttempt(jobID)

	browserCtx, page, err := o.newSession()
	if err != nil {
		attempt.Status = models.StatusFailed
		attempt.Error = err.Error()
		o.record(attempt)
		return attempt
	}
	defer func() {
		// Let in-flight network activity settle before tearing down,
		// even when the job failed.
		log.Printf("⏳ Waiting %s before closing browser...", o.cfg.CloseGrace)
		time.Sleep(o.cfg.CloseGrace)
		if err := browserCtx.Close(); err != nil {
			log.Printf("Error closing browser context: %v", err)
		}
	}()

	jc := &JobContext{
		Page:      page,
		Cfg:       o.cfg,
		Questions: o.questions,
		JobID:     jobID,
		Shots:     o.shots,
		Resolver:  NewFieldResolver(page, o.questions, o.cfg.AncestorLevels),
	}

	status, reached, runErr := o.runSteps(jc)
	attempt.Status = status
	attempt.StepReached = reached
	if runErr != nil {
		attempt.Error = runErr.Error()
		o.shots.CaptureStep(page, "error", jobID)
	}

	o.record(attempt)
	return attempt
}

// runSteps executes the step sequence and classifies the outcome. The job
// boundary is the only place errors and panics are absorbed: a step failure
// is FAILED unless it is the submit step (INCOMPLETE, since the data is in
// but untransmitted), and anything unexpected is FAILED.
func (o *Orchestrator) runSteps(jc *JobContext) (status models.AttemptStatus, reached string, err error) {
	defer func() {
		if r := recover(); r != nil {
			status = models.StatusFailed
			err = fmt.Errorf("unhandled error during job %s: %v", jc.JobID, r)
			log.Printf("❌ %v", err)
		}
	}()

	for _, s := range o.steps {
		result := s.run(jc)
		reached = result.Reached
		if result.OK {
			continue
		}

		if s.incompleteOnFail {
			log.Printf("⚠ APPLICATION COMPLETED BUT SUBMISSION FAILED FOR JOB: %s", jc.JobID)
			return models.StatusIncomplete, reached, result.Err
		}
		log.Printf("❌ Step %s failed for job %s: %v", s.name, jc.JobID, result.Err)
		return models.StatusFailed, reached, result.Err
	}

	log.Printf("🎉 COMPLETED APPLICATION FLOW FOR JOB: %s", jc.JobID)
	return models.StatusSuccess, reached, nil
}

func (o *Orchestrator) newSession() (playwright.BrowserContext, playwright.Page, error) {
	browserCtx, err := o.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1920,
			Height: 1080,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not create browser context: %v", err)
	}
	page, err := browserCtx.NewPage()
	if err != nil {
		browserCtx.Close()
		return nil, nil, fmt.Errorf("could not create page: %v", err)
	}
	return browserCtx, page, nil
}

func (o *Orchestrator) record(attempt *models.JobAttempt) {
	if err := o.ledger.Record(attempt); err != nil {
		log.Printf("⚠ Could not record attempt for %s: %v", attempt.JobID, err)
	}
}
