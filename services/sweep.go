package services

import (
	"log"
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// militaryPatterns match the service-members hiring-program question, which
// the portal words several different ways.
var militaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)(active duty|guard|reserve|uniformed services)`),
	regexp.MustCompile(`(?is)the following questions are to assist`),
	regexp.MustCompile(`(?is)experience in the uniformed services`),
}

// UnfilledControl is one dropdown the sweep found still empty, paired with
// its nearest question text for the diagnostic report.
type UnfilledControl struct {
	Question string
	Display  string
	Selector string
}

// FillMilitaryQuestion scans the page for the military hiring-program
// question by regex and defaults its dropdown to "No". It shares the
// scope-widening primitive with the mapped-question path.
func (r *FieldResolver) FillMilitaryQuestion() FillResult {
	log.Println("🪖 Looking for military hiring-program question...")

	blocks, err := r.page.Locator("fieldset, legend, label, p, span, div").All()
	if err != nil {
		return FillResult{Outcome: FillFailed, Reason: ReasonQuestionNotFound}
	}

	for _, block := range blocks {
		visible, _ := block.IsVisible()
		if !visible {
			continue
		}
		text, _ := block.InnerText()
		text = strings.TrimSpace(text)
		if len(text) < 20 {
			continue
		}

		matched := false
		for _, pattern := range militaryPatterns {
			if pattern.MatchString(text) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		log.Printf("🎯 Military question matched: %.150s", text)
		control, reason := LocateWithFallback(block, dropdownSelectors, r.ancestorLevels+1)
		if control == nil {
			log.Printf("⚠ Military question found but no dropdown nearby (%s)", reason)
			continue
		}
		if r.isControlFilled(control) {
			log.Println("✅ Military dropdown already filled")
			return FillResult{Outcome: FillAlreadyFilled}
		}
		return r.openAndSelect(control, "No", false)
	}

	log.Println("❌ Military question not found on page")
	return FillResult{Outcome: FillFailed, Reason: ReasonQuestionNotFound}
}

// SweepUnfilled scans every recognized dropdown on the page and reports the
// ones still holding a placeholder, each with its nearest question text.
// Reporting only; filling is a separate, deliberately narrow pass.
func (r *FieldResolver) SweepUnfilled() []UnfilledControl {
	log.Println("🔍 Scanning for any remaining empty dropdowns...")

	var unfilled []UnfilledControl
	for _, control := range r.allDropdowns() {
		if r.isControlFilled(control.Locator) {
			continue
		}
		question := r.nearestQuestionText(control.Locator)
		unfilled = append(unfilled, UnfilledControl{
			Question: question,
			Display:  control.Text,
			Selector: control.Selector,
		})
		log.Printf("🔴 EMPTY DROPDOWN: question=%q display=%q selector=%s",
			question, control.Text, control.Selector)
	}

	if len(unfilled) == 0 {
		log.Println("✅ No empty dropdowns found - all questions appear to be filled")
	} else {
		log.Printf("⚠ Found %d empty dropdown(s) that need attention", len(unfilled))
	}
	return unfilled
}

// AutoFillByKeyword is the narrow fallback net after the sweep report: only
// dropdowns whose surrounding text contains one of the configured keywords
// (service/military wording) get defaulted to "No". Anything outside the
// keyword set stays unfilled on purpose; blind defaulting risks wrong
// answers on unknown questions.
func (r *FieldResolver) AutoFillByKeyword() int {
	log.Println("🔧 Auto-fill pass: checking empty dropdowns for known keywords...")

	filled := 0
	for _, control := range r.allDropdowns() {
		if r.isControlFilled(control.Locator) {
			continue
		}
		keyword, ok := r.surroundingKeyword(control.Locator)
		if !ok {
			log.Printf("⚪ No keyword near empty dropdown %q - leaving unfilled", control.Text)
			continue
		}
		log.Printf("✅ Keyword %q near empty dropdown, filling with 'No'", keyword)
		if result := r.openAndSelect(control.Locator, "No", false); result.Filled() {
			filled++
		}
	}

	if filled > 0 {
		log.Printf("🎉 Auto-fill filled %d additional dropdown(s)", filled)
	}
	return filled
}

// allDropdowns collects every visible dropdown-like control on the page in
// document order, deduplicating across the selector tiers is not needed
// because isControlFilled makes later revisits no-ops.
func (r *FieldResolver) allDropdowns() []Candidate {
	var controls []Candidate
	for _, selector := range dropdownSelectors {
		controls = append(controls, FindVisible(r.page, Query{Kind: QueryCSS, Text: selector})...)
	}
	return controls
}

// nearestQuestionText walks up from a control looking for question-shaped
// text, skipping navigation chrome.
func (r *FieldResolver) nearestQuestionText(control playwright.Locator) string {
	for level := 1; level <= r.ancestorLevels+1; level++ {
		container := control.Locator(xpathAncestor(level))
		if count, _ := container.Count(); count == 0 {
			break
		}
		for _, selector := range []string{"legend", "label", "span", "p"} {
			for i, candidate := range FindVisibleIn(container, Query{Kind: QueryCSS, Text: selector}) {
				if i >= 3 {
					break
				}
				text := candidate.Text
				if len(text) > 20 && strings.Contains(text, "?") &&
					!isNavigationText(text, r.questions.NavDenied) {
					if len(text) > 200 {
						text = text[:200]
					}
					return text
				}
			}
		}
	}
	return "Unknown question"
}

// surroundingKeyword reports the first configured sweep keyword found in
// the control's ancestor text.
func (r *FieldResolver) surroundingKeyword(control playwright.Locator) (string, bool) {
	for level := 1; level <= r.ancestorLevels; level++ {
		container := control.Locator(xpathAncestor(level))
		if count, _ := container.Count(); count == 0 {
			break
		}
		text, err := container.InnerText()
		if err != nil {
			continue
		}
		if keyword, ok := keywordIn(text, r.questions.SweepWords); ok {
			return keyword, true
		}
	}
	return "", false
}

// keywordIn reports the first keyword contained in text, case-insensitive.
func keywordIn(text string, keywords []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, keyword := range keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return keyword, true
		}
	}
	return "", false
}
