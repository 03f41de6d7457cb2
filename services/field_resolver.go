package services

import (
	"fmt"
	"log"
	"strings"

	"github.com/playwright-community/playwright-go"

	"autoapply/config"
	"autoapply/models"
)

// filledTextThreshold is the heuristic cutoff for a dropdown's displayed
// text: placeholder strings are short, selected answers usually are not.
// Approximate on purpose; a legitimately short answer can still read as
// unfilled, so it stays tunable rather than hardened.
const filledTextThreshold = 15

// placeholderTexts are displayed values that mean "nothing selected yet".
var placeholderTexts = []string{
	"select one", "select an", "choose", "please select",
	"-- select", "select...", "click to select",
}

// questionTokens mark text as a real form question when no question mark
// is present.
var questionTokens = []string{
	"select", "certify", "work", "status", "category", "experience",
}

// FillOutcome summarizes what the resolver did for one mapping.
type FillOutcome int

const (
	FillSelected FillOutcome = iota
	FillAlreadyFilled
	FillWeakMatch
	FillFailed
)

// FillResult reports one resolver invocation. Weak is the telemetry flag
// for the lower-confidence sibling-dropdown path.
type FillResult struct {
	Outcome FillOutcome
	Reason  FailReason
	Matched string
	Weak    bool
}

// Filled reports whether the control ended up holding an answer.
func (r FillResult) Filled() bool {
	return r.Outcome != FillFailed
}

// FieldResolver finds a semantically-described question on the current page
// and selects the mapped answer in its associated control. Each invocation
// is terminal: it either fills, confirms already filled, or fails with a
// reason code.
type FieldResolver struct {
	page           playwright.Page
	questions      *config.QuestionSet
	ancestorLevels int
}

func NewFieldResolver(page playwright.Page, questions *config.QuestionSet, ancestorLevels int) *FieldResolver {
	if ancestorLevels <= 0 {
		ancestorLevels = 4
	}
	return &FieldResolver{
		page:           page,
		questions:      questions,
		ancestorLevels: ancestorLevels,
	}
}

// questionContainerSelectors are the structural elements a question's text
// lives in, tried in order.
func questionContainerSelectors(pattern string) []string {
	return []string{
		fmt.Sprintf(`fieldset:has-text("%s")`, pattern),
		fmt.Sprintf(`legend:has-text("%s")`, pattern),
		fmt.Sprintf(`label:has-text("%s")`, pattern),
	}
}

// FillQuestion resolves one (pattern, answer) mapping against the page.
func (r *FieldResolver) FillQuestion(m models.QuestionMapping) FillResult {
	log.Printf("🔍 Looking for question containing: %q", m.Pattern)

	for _, selector := range questionContainerSelectors(m.Pattern) {
		elements, err := r.page.Locator(selector).All()
		if err != nil {
			continue
		}
		for _, element := range elements {
			visible, _ := element.IsVisible()
			if !visible {
				continue
			}
			text, _ := element.InnerText()
			text = strings.TrimSpace(text)
			if isNavigationText(text, r.questions.NavDenied) {
				continue
			}

			if !looksLikeQuestion(text) {
				// Lower-confidence path: plain text with a dropdown right
				// below it. Filled with a default answer and flagged weak.
				log.Printf("⚠ Found text but not a form question: %.50s", text)
				if result := r.fillSiblingDropdown(element); result.Filled() {
					return result
				}
				continue
			}

			log.Printf("✅ Found valid question: %.150s", text)
			return r.fillControlNear(element, m.Answer)
		}
	}

	log.Printf("❌ No valid form question matched pattern %q", m.Pattern)
	return FillResult{Outcome: FillFailed, Reason: ReasonQuestionNotFound}
}

// fillControlNear locates the question's dropdown by widening scope one
// ancestor level at a time, then selects the answer unless the control is
// already holding one.
func (r *FieldResolver) fillControlNear(question playwright.Locator, answer string) FillResult {
	control, reason := LocateWithFallback(question, dropdownSelectors, r.ancestorLevels)
	if control == nil {
		log.Printf("⚠ Found question but no dropdown to fill (%s)", reason)
		return FillResult{Outcome: FillFailed, Reason: ReasonNoControl}
	}

	if r.isControlFilled(control) {
		log.Printf("✅ Dropdown already filled - skipping")
		return FillResult{Outcome: FillAlreadyFilled}
	}
	return r.openAndSelect(control, answer, false)
}

// fillSiblingDropdown is the weak-match tier: the first unfilled dropdown
// in the following-sibling subtree gets the default "No" answer. Filled
// siblings are skipped, not treated as the end of the search.
func (r *FieldResolver) fillSiblingDropdown(ref playwright.Locator) FillResult {
	controls, reason := followingDropdowns(ref)
	if len(controls) == 0 {
		return FillResult{Outcome: FillFailed, Reason: reason}
	}

	filled := make([]bool, len(controls))
	for i, control := range controls {
		filled[i] = r.isControlFilled(control)
	}
	idx := firstUnfilled(filled)
	if idx < 0 {
		return FillResult{Outcome: FillAlreadyFilled, Weak: true}
	}
	log.Printf("📋 Found dropdown below text, filling default answer (weak match)")
	return r.openAndSelect(controls[idx], "No", true)
}

// firstUnfilled returns the index of the first control not already holding
// an answer, or -1 when every control is filled.
func firstUnfilled(filled []bool) int {
	for i, f := range filled {
		if !f {
			return i
		}
	}
	return -1
}

// isControlFilled applies the already-filled heuristic: the displayed value
// is not a known placeholder AND either the value attribute carries a real
// value or the text is longer than placeholder-length. Refilling a filled
// control risks corrupting an entered answer, so filled means success.
func (r *FieldResolver) isControlFilled(control playwright.Locator) bool {
	text, _ := control.InnerText()
	value, _ := control.GetAttribute("value")
	return looksFilled(text, value)
}

// openAndSelect opens the control and picks the answer using the tiered
// match: exact text first, then the first significant word for multi-word
// answers. Every path that opens without selecting presses Escape so no
// overlay is left behind to corrupt later lookups.
func (r *FieldResolver) openAndSelect(control playwright.Locator, answer string, weak bool) FillResult {
	control.ScrollIntoViewIfNeeded()
	if err := control.Click(); err != nil {
		log.Printf("❌ Could not open dropdown: %v", err)
		return FillResult{Outcome: FillFailed, Reason: ReasonNoControl}
	}
	r.page.WaitForTimeout(2000)

	options, texts := r.visibleOptions()
	idx, matched, partial := matchOption(texts, answer)
	if idx < 0 {
		log.Printf("❌ Could not find answer option: %q", answer)
		r.closeOpenControl(control)
		return FillResult{Outcome: FillFailed, Reason: ReasonOptionNotFound}
	}

	if err := options[idx].Click(); err != nil {
		log.Printf("❌ Could not click option %q: %v", matched, err)
		r.closeOpenControl(control)
		return FillResult{Outcome: FillFailed, Reason: ReasonOptionNotFound}
	}
	r.page.WaitForTimeout(1000)

	outcome := FillSelected
	if weak {
		outcome = FillWeakMatch
	}
	if partial {
		log.Printf("✅ Selected partial match: %q", matched)
	} else {
		log.Printf("✅ Successfully selected: %q", matched)
	}
	return FillResult{Outcome: outcome, Matched: matched, Weak: weak}
}

// visibleOptions snapshots the currently opened option list in document
// order.
func (r *FieldResolver) visibleOptions() ([]playwright.Locator, []string) {
	var locators []playwright.Locator
	var texts []string

	for _, selector := range []string{"[role='option']", "li[role='option']", "option"} {
		all, err := r.page.Locator(selector).All()
		if err != nil {
			continue
		}
		for _, opt := range all {
			if visible, _ := opt.IsVisible(); !visible {
				continue
			}
			text, _ := opt.InnerText()
			locators = append(locators, opt)
			texts = append(texts, strings.TrimSpace(text))
		}
		if len(locators) > 0 {
			break
		}
	}
	return locators, texts
}

func (r *FieldResolver) closeOpenControl(control playwright.Locator) {
	if err := control.Press("Escape"); err != nil {
		r.page.Keyboard().Press("Escape")
	}
}

// --- pure matching helpers ---

// looksFilled is the tunable already-filled heuristic over a control's
// displayed text and value attribute.
func looksFilled(displayText, valueAttr string) bool {
	text := strings.ToLower(strings.TrimSpace(displayText))
	if text == "" && valueAttr == "" {
		return false
	}
	for _, placeholder := range placeholderTexts {
		if strings.Contains(text, placeholder) {
			return false
		}
	}
	if v := strings.TrimSpace(valueAttr); v != "" && v != "0" && v != "-1" {
		return true
	}
	return len(text) > filledTextThreshold
}

// looksLikeQuestion separates real form questions from stray page text: it
// must have some length and carry a question mark or a question token.
func looksLikeQuestion(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= 10 {
		return false
	}
	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, "?") {
		return true
	}
	for _, token := range questionTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// isNavigationText filters page chrome (menus, language switchers) using
// the site-specific denylist carried in configuration.
func isNavigationText(text string, denylist []string) bool {
	lower := strings.ToLower(text)
	for _, nav := range denylist {
		if strings.Contains(lower, strings.ToLower(nav)) {
			return true
		}
	}
	return false
}

// matchOption picks an option index for the answer: exact substring match
// first, then a partial match on the first significant word of multi-word
// answers. Returns -1 when neither tier matches.
func matchOption(options []string, answer string) (index int, matched string, partial bool) {
	for i, opt := range options {
		if strings.Contains(strings.ToLower(opt), strings.ToLower(answer)) {
			return i, opt, false
		}
	}
	words := significantWords(answer)
	if len(strings.Fields(answer)) > 1 {
		for _, word := range words {
			for i, opt := range options {
				if strings.Contains(strings.ToLower(opt), strings.ToLower(word)) {
					return i, opt, true
				}
			}
		}
	}
	return -1, "", false
}

// significantWords returns the answer's words longer than three characters,
// the ones worth partial-matching on.
func significantWords(answer string) []string {
	var words []string
	for _, w := range strings.Fields(answer) {
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	return words
}
