package services

import (
	"fmt"
	"log"

	"github.com/playwright-community/playwright-go"

	"autoapply/config"
)

// Step names, in workflow order. StepReached on a JobAttempt is always one
// of these.
const (
	StepLogin         = "login"
	StepSearch        = "search"
	StepApply         = "apply"
	StepMyInformation = "my_information"
	StepMyExperience  = "my_experience"
	StepQuestions     = "application_questions"
	StepDisclosures   = "voluntary_disclosures"
	StepSubmit        = "submit"
)

// StepResult is what one workflow step reports back. Steps never roll back
// prior steps; a failed step abandons the job.
type StepResult struct {
	OK      bool
	Reached string
	Err     error
}

func stepOK(name string) StepResult {
	return StepResult{OK: true, Reached: name}
}

func stepFail(name string, err error) StepResult {
	return StepResult{OK: false, Reached: name, Err: err}
}

// step is one page/phase of the application workflow. incompleteOnFail
// marks the submit step: by then the application data is entered, so a
// missing submit control downgrades to INCOMPLETE instead of FAILED.
type step struct {
	name             string
	incompleteOnFail bool
	run              func(j *JobContext) StepResult
}

// JobContext carries the per-job collaborators every step needs. One is
// built per browser session and discarded with it.
type JobContext struct {
	Page      playwright.Page
	Cfg       *config.PortalConfig
	Questions *config.QuestionSet
	JobID     string
	Shots     *ScreenshotService
	Resolver  *FieldResolver
}

// applySelectors are the recognized entry points into an application,
// including the resume-a-draft variant.
var applySelectors = []string{
	`a:has-text("Apply")`,
	`button:has-text("Apply")`,
	`a:has-text("Continue Application")`,
	`button:has-text("Continue Application")`,
	`[data-automation-id*="apply"]`,
	`[data-automation-id*="continue"]`,
}

// submitSelectors are the recognized submit controls on the review page.
var submitSelectors = []string{
	`button:has-text("Submit")`,
	`button:has-text("Submit Application")`,
	`input[type="submit"]`,
	`button[type="submit"]`,
}

// applicationSteps is the fixed workflow for one job.
func applicationSteps() []step {
	return []step{
		{name: StepLogin, run: stepLogin},
		{name: StepSearch, run: stepSearchJob},
		{name: StepApply, run: stepClickApply},
		{name: StepMyInformation, run: stepMyInformation},
		{name: StepMyExperience, run: stepMyExperience},
		{name: StepQuestions, run: stepApplicationQuestions},
		{name: StepDisclosures, run: stepVoluntaryDisclosures},
		{name: StepSubmit, incompleteOnFail: true, run: stepReviewAndSubmit},
	}
}

// stepLogin signs into the portal and lands on the job search page.
func stepLogin(j *JobContext) StepResult {
	log.Println("🔹 STEP: Logging into the portal...")

	if _, err := j.Page.Goto(j.Cfg.PortalURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return stepFail(StepLogin, fmt.Errorf("could not open login page: %v", err))
	}
	j.Page.WaitForTimeout(2000)
	j.Shots.CaptureStep(j.Page, "login_page", j.JobID)

	if err := j.Page.Locator(`input[type="text"], input[type="email"], input[id^="input-"]`).First().Fill(j.Cfg.Username); err != nil {
		return stepFail(StepLogin, fmt.Errorf("could not fill username: %v", err))
	}
	if err := j.Page.Locator(`input[type="password"]`).First().Fill(j.Cfg.Password); err != nil {
		return stepFail(StepLogin, fmt.Errorf("could not fill password: %v", err))
	}
	if err := j.Page.Locator(`[data-automation-id="signInSubmitButton"], button[type="submit"]`).First().Click(playwright.LocatorClickOptions{
		Force: playwright.Bool(true),
	}); err != nil {
		return stepFail(StepLogin, fmt.Errorf("could not click sign in: %v", err))
	}

	waitForSettle(j.Page, j.Cfg)
	j.Shots.CaptureStep(j.Page, "after_login", j.JobID)

	// Land on the search page; some portals drop you elsewhere post-login.
	if j.Cfg.SearchURL != "" && j.Cfg.SearchURL != j.Page.URL() {
		if _, err := j.Page.Goto(j.Cfg.SearchURL, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateNetworkidle,
		}); err != nil {
			return stepFail(StepLogin, fmt.Errorf("could not open job search page: %v", err))
		}
		j.Page.WaitForTimeout(3000)
	}

	log.Println("✅ STEP COMPLETED: Logged in")
	return stepOK(StepLogin)
}

// stepSearchJob searches for the job id and opens the matching job page.
func stepSearchJob(j *JobContext) StepResult {
	log.Printf("🔹 STEP: Searching for job %s...", j.JobID)

	searchBox := j.Page.Locator(`input[type="text"]`).First()
	if err := searchBox.Click(); err != nil {
		return stepFail(StepSearch, fmt.Errorf("could not focus search box: %v", err))
	}
	if err := searchBox.Fill(j.JobID); err != nil {
		return stepFail(StepSearch, fmt.Errorf("could not fill search box: %v", err))
	}
	if err := searchBox.Press("Enter"); err != nil {
		return stepFail(StepSearch, fmt.Errorf("could not submit search: %v", err))
	}

	waitForSettle(j.Page, j.Cfg)
	j.Shots.CaptureStep(j.Page, "search_results", j.JobID)

	jobLink := j.Page.Locator(fmt.Sprintf(`a[href*="%s"]`, j.JobID)).First()
	if count, _ := jobLink.Count(); count == 0 {
		return stepFail(StepSearch, fmt.Errorf("no result link containing %q", j.JobID))
	}
	if err := jobLink.Click(); err != nil {
		return stepFail(StepSearch, fmt.Errorf("could not open job page: %v", err))
	}

	waitForSettle(j.Page, j.Cfg)
	j.Shots.CaptureStep(j.Page, "job_page", j.JobID)
	log.Println("✅ STEP COMPLETED: Opened job page")
	return stepOK(StepSearch)
}

// stepClickApply clicks the Apply (or Continue Application) control. When
// the control is missing it retries the entire search step once - a single
// bounded retry, not a loop - then gives up and the job is abandoned.
func stepClickApply(j *JobContext) StepResult {
	log.Println("🔹 STEP: Clicking Apply button...")

	err := applyWithRetry(
		func() bool { return clickFirstVisible(j.Page, applySelectors) },
		func() error {
			if retry := stepSearchJob(j); !retry.OK {
				return retry.Err
			}
			return nil
		},
	)
	if err != nil {
		j.Shots.CaptureStep(j.Page, "no_apply_button", j.JobID)
		return stepFail(StepApply, err)
	}

	waitForSettle(j.Page, j.Cfg)
	j.Shots.CaptureStep(j.Page, "after_apply", j.JobID)

	// Returning applicants get a shortcut that reuses the last application.
	useLast := j.Page.Locator(`a:has-text("Use")`).First()
	if count, _ := useLast.Count(); count > 0 {
		if visible, _ := useLast.IsVisible(); visible {
			log.Println("Found 'Use last application' - clicking it...")
			if err := useLast.Click(); err == nil {
				waitForSettle(j.Page, j.Cfg)
				j.Shots.CaptureStep(j.Page, "used_last_app", j.JobID)
			}
		}
	}

	log.Println("✅ STEP COMPLETED: Apply process initiated")
	return stepOK(StepApply)
}

// applyWithRetry clicks the apply control, re-running the search exactly
// once when it is missing. A second miss abandons the job; there is no
// retry loop.
func applyWithRetry(clickApply func() bool, searchAgain func() error) error {
	if clickApply() {
		return nil
	}
	log.Println("❌ No Apply or Continue Application button found - retrying search once...")
	if err := searchAgain(); err != nil {
		return fmt.Errorf("search retry failed: %v", err)
	}
	if !clickApply() {
		log.Println("❌ No Apply button found even after retry")
		return fmt.Errorf("apply control never appeared")
	}
	log.Println("✅ Found Apply button after retry")
	return nil
}

// stepMyInformation answers the "How Did You Hear About Us?" prompt and
// saves the first application page.
func stepMyInformation(j *JobContext) StepResult {
	log.Println("🔹 STEP: Handling My Information page...")
	j.Shots.CaptureStep(j.Page, "my_information", j.JobID)

	hearAbout := j.Page.Locator(`text="How Did You Hear About Us?"`)
	if count, _ := hearAbout.Count(); count > 0 {
		log.Println("Found 'How Did You Hear About Us?' question")
		searchBox := j.Page.Locator(`input[placeholder*="Search"]`).First()
		if visible, _ := searchBox.IsVisible(); visible {
			searchBox.Click()
			searchBox.Fill("Career Site")
			searchBox.Press("Enter")
			j.Page.WaitForTimeout(2000)
		}
	} else {
		log.Println("'How Did You Hear About Us?' question not found, skipping...")
	}

	clickSaveAndContinue(j)
	j.Shots.CaptureStep(j.Page, "my_information_saved", j.JobID)
	log.Println("✅ STEP COMPLETED: My Information page")
	return stepOK(StepMyInformation)
}

// stepMyExperience carries the prefilled experience page forward.
func stepMyExperience(j *JobContext) StepResult {
	log.Println("🔹 STEP: Handling My Experience page...")
	j.Shots.CaptureStep(j.Page, "my_experience", j.JobID)

	if !clickSaveAndContinue(j) {
		return stepFail(StepMyExperience, fmt.Errorf("save and continue not found"))
	}
	j.Shots.CaptureStep(j.Page, "my_experience_saved", j.JobID)
	log.Println("✅ STEP COMPLETED: My Experience page")
	return stepOK(StepMyExperience)
}

// stepApplicationQuestions runs the field resolver over the mapped
// questions in declared order, then the military handler, then the sweep.
func stepApplicationQuestions(j *JobContext) StepResult {
	log.Println("🔹 STEP: Handling Application Questions page...")
	j.Shots.CaptureStep(j.Page, "application_questions", j.JobID)

	marker := j.Page.Locator(`text="Application Questions"`)
	if count, _ := marker.Count(); count == 0 {
		return stepFail(StepQuestions, fmt.Errorf("application questions page not found"))
	}

	filled := 0
	for _, mapping := range j.Questions.Mappings {
		result := j.Resolver.FillQuestion(mapping)
		if result.Filled() {
			filled++
			// Each fill scrolls the viewport so the next question's control
			// is on screen for the following lookup.
			j.Page.Evaluate("window.scrollBy(0, 300);")
			j.Page.WaitForTimeout(1000)
		}
		j.Page.WaitForTimeout(1000)
	}
	log.Printf("📊 Filled %d/%d mapped questions", filled, len(j.Questions.Mappings))

	if result := j.Resolver.FillMilitaryQuestion(); result.Filled() {
		filled++
	}

	j.Resolver.SweepUnfilled()
	filled += j.Resolver.AutoFillByKeyword()

	if !clickSaveAndContinue(j) {
		return stepFail(StepQuestions, fmt.Errorf("save and continue not found"))
	}
	j.Shots.CaptureStep(j.Page, "application_questions_saved", j.JobID)
	log.Println("✅ STEP COMPLETED: Application Questions page")
	return stepOK(StepQuestions)
}

// stepVoluntaryDisclosures fills the disclosure dropdowns positionally and
// ticks the consent checkbox.
func stepVoluntaryDisclosures(j *JobContext) StepResult {
	log.Println("🔹 STEP: Handling Voluntary Disclosures page...")
	j.Shots.CaptureStep(j.Page, "voluntary_disclosures", j.JobID)

	dropdowns := j.Resolver.allDropdowns()
	log.Printf("Found %d dropdown elements", len(dropdowns))

	limit := len(j.Questions.Voluntary)
	if len(dropdowns) < limit {
		limit = len(dropdowns)
	}
	for i := 0; i < limit; i++ {
		answer := j.Questions.Voluntary[i]
		log.Printf("Filling voluntary dropdown %d: %q", i+1, answer)
		if j.Resolver.isControlFilled(dropdowns[i].Locator) {
			continue
		}
		j.Resolver.openAndSelect(dropdowns[i].Locator, answer, false)
	}

	checkbox := j.Page.Locator(`input[type="checkbox"]`).First()
	if count, _ := checkbox.Count(); count > 0 {
		if visible, _ := checkbox.IsVisible(); visible {
			log.Println("Clicking consent checkbox...")
			checkbox.Click()
			j.Page.WaitForTimeout(1000)
		}
	}

	if !clickSaveAndContinue(j) {
		return stepFail(StepDisclosures, fmt.Errorf("save and continue not found"))
	}
	j.Shots.CaptureStep(j.Page, "voluntary_disclosures_saved", j.JobID)
	log.Println("✅ STEP COMPLETED: Voluntary Disclosures page")
	return stepOK(StepDisclosures)
}

// stepReviewAndSubmit clicks the submit control on the review page. Not
// finding one is the INCOMPLETE case: the data is entered but the
// application was never transmitted, which needs manual submission rather
// than a full redo.
func stepReviewAndSubmit(j *JobContext) StepResult {
	log.Println("🔹 STEP: Handling Review and Submit page...")
	j.Shots.CaptureStep(j.Page, "review_page", j.JobID)

	log.Println("Waiting 5 seconds before submission...")
	j.Page.WaitForTimeout(5000)

	if !clickFirstVisible(j.Page, submitSelectors) {
		log.Println("⚠ Could not find Submit button")
		j.Shots.CaptureStep(j.Page, "no_submit", j.JobID)
		return stepFail(StepSubmit, fmt.Errorf("submit control not found"))
	}

	log.Println("🎉 APPLICATION SUBMITTED")
	waitForSettle(j.Page, j.Cfg)
	j.Shots.CaptureStep(j.Page, "submitted", j.JobID)
	return stepOK(StepSubmit)
}

// clickFirstVisible clicks the first visible match across the selector
// tiers, in order. Reports whether anything was clicked.
func clickFirstVisible(page playwright.Page, selectors []string) bool {
	for _, selector := range selectors {
		button := page.Locator(selector).First()
		if count, _ := button.Count(); count == 0 {
			continue
		}
		if visible, _ := button.IsVisible(); !visible {
			continue
		}
		if err := button.Click(); err != nil {
			log.Printf("⚠ Could not click %s: %v", selector, err)
			continue
		}
		if text, err := button.InnerText(); err == nil && text != "" {
			log.Printf("Clicked %q", text)
		}
		return true
	}
	return false
}

// clickSaveAndContinue advances to the next application page.
func clickSaveAndContinue(j *JobContext) bool {
	log.Println("Clicking Save and Continue...")
	j.Page.WaitForTimeout(2000)
	if !clickFirstVisible(j.Page, []string{`button:has-text("Save and Continue")`}) {
		log.Println("❌ Save and Continue button not found")
		return false
	}
	waitForSettle(j.Page, j.Cfg)
	return true
}
