package services

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// FailReason explains why a lookup produced nothing. An empty result is
// never an error by itself; callers pick their next fallback tier off the
// reason code instead of unwinding through exception chains.
type FailReason string

const (
	ReasonNone             FailReason = ""
	ReasonNoMatch          FailReason = "no_match"
	ReasonNotVisible       FailReason = "not_visible"
	ReasonScopeExhausted   FailReason = "scope_exhausted"
	ReasonQuestionNotFound FailReason = "question_not_found"
	ReasonOptionNotFound   FailReason = "option_not_found"
	ReasonNoControl        FailReason = "no_control"
)

// QueryKind selects how a Query is translated into a page lookup.
type QueryKind int

const (
	QueryExactText QueryKind = iota
	QueryContainsText
	QueryRole
	QueryCSS
)

// Query is a semantic description of a control: match by text, by
// role/attribute, or by a structural CSS selector.
type Query struct {
	Kind      QueryKind
	Text      string
	Role      string
	Attribute string
}

// Selector renders the query as a Playwright selector string.
func (q Query) Selector() string {
	switch q.Kind {
	case QueryExactText:
		return fmt.Sprintf(`text="%s"`, q.Text)
	case QueryContainsText:
		return fmt.Sprintf(`:has-text("%s")`, q.Text)
	case QueryRole:
		if q.Attribute != "" {
			return fmt.Sprintf(`[%s]`, q.Attribute)
		}
		return fmt.Sprintf(`[role="%s"]`, q.Role)
	default:
		return q.Text
	}
}

// Candidate is one visible, interactive control returned by a lookup.
// Candidates are never cached: answering one question can reveal new
// controls, so every query recomputes against the live page.
type Candidate struct {
	Locator  playwright.Locator
	Selector string
	Text     string
}

// dropdownSelectors is the recognized control-roles set for dropdown-like
// inputs, in preference order.
var dropdownSelectors = []string{
	"[role='combobox']",
	"select",
	"[aria-haspopup='listbox']",
	"button[aria-expanded]",
	"button[aria-haspopup='listbox']",
	"button:has-text('Select One')",
	"button:has-text('Choose')",
	"button:has-text('Please select')",
}

// FindVisible returns the visible matches for a query on the page, in
// document order. Invisible and disabled matches are skipped, never
// reported as errors.
func FindVisible(page playwright.Page, q Query) []Candidate {
	return collectVisible(page.Locator(q.Selector()), q.Selector())
}

// FindVisibleIn is FindVisible scoped to a subtree.
func FindVisibleIn(scope playwright.Locator, q Query) []Candidate {
	return collectVisible(scope.Locator(q.Selector()), q.Selector())
}

func collectVisible(matches playwright.Locator, selector string) []Candidate {
	var candidates []Candidate

	all, err := matches.All()
	if err != nil {
		return candidates
	}
	for _, m := range all {
		visible, _ := m.IsVisible()
		if !visible {
			continue
		}
		enabled, err := m.IsEnabled()
		if err == nil && !enabled {
			continue
		}
		text, _ := m.InnerText()
		candidates = append(candidates, Candidate{
			Locator:  m,
			Selector: selector,
			Text:     strings.TrimSpace(text),
		})
	}
	return candidates
}

// LocateWithFallback searches for the first visible control matching any of
// the selector tiers, widening the scope one ancestor level at a time from
// ref, up to maxLevels. The first satisfying ancestor level wins, and within
// a level the selector tiers are tried in order. Multiple matches at the
// same tier resolve to the first in document order, logged by callers as a
// weak signal.
//
// This is the single lookup primitive shared by question resolution, the
// military-question handler, and the sweep pass.
func LocateWithFallback(ref playwright.Locator, selectors []string, maxLevels int) (playwright.Locator, FailReason) {
	sawHidden := false
	for level := 1; level <= maxLevels; level++ {
		container := ref.Locator(xpathAncestor(level))
		if count, _ := container.Count(); count == 0 {
			break
		}
		for _, selector := range selectors {
			match := container.Locator(selector).First()
			if count, _ := match.Count(); count == 0 {
				continue
			}
			if visible, _ := match.IsVisible(); visible {
				return match, ReasonNone
			}
			sawHidden = true
		}
	}
	if sawHidden {
		return nil, ReasonNotVisible
	}
	return nil, ReasonScopeExhausted
}

func xpathAncestor(level int) string {
	return fmt.Sprintf("xpath=ancestor::*[%d]", level)
}

// followingDropdowns collects every visible dropdown-like control in the
// subtree following ref, in tier order, used by the lower-confidence "text
// immediately followed by a dropdown" path. The reason distinguishes no
// match at all from matches that were all hidden.
func followingDropdowns(ref playwright.Locator) ([]playwright.Locator, FailReason) {
	var controls []playwright.Locator
	sawHidden := false
	for _, selector := range dropdownSelectors {
		all, err := ref.Locator("xpath=following-sibling::*").Locator(selector).All()
		if err != nil {
			continue
		}
		for _, match := range all {
			if visible, _ := match.IsVisible(); !visible {
				sawHidden = true
				continue
			}
			controls = append(controls, match)
		}
	}
	if len(controls) > 0 {
		return controls, ReasonNone
	}
	if sawHidden {
		return nil, ReasonNotVisible
	}
	return nil, ReasonNoMatch
}
