package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuerySelector(t *testing.T) {
	assert.Equal(t, `text="Application Questions"`,
		Query{Kind: QueryExactText, Text: "Application Questions"}.Selector())
	assert.Equal(t, `:has-text("age category")`,
		Query{Kind: QueryContainsText, Text: "age category"}.Selector())
	assert.Equal(t, `[role="combobox"]`,
		Query{Kind: QueryRole, Role: "combobox"}.Selector())
	assert.Equal(t, `[aria-haspopup='listbox']`,
		Query{Kind: QueryRole, Attribute: "aria-haspopup='listbox'"}.Selector())
	assert.Equal(t, `button[aria-expanded]`,
		Query{Kind: QueryCSS, Text: `button[aria-expanded]`}.Selector())
}

func TestXpathAncestor(t *testing.T) {
	assert.Equal(t, "xpath=ancestor::*[1]", xpathAncestor(1))
	assert.Equal(t, "xpath=ancestor::*[3]", xpathAncestor(3))
}

func TestDropdownSelectorsCoverRecognizedRoles(t *testing.T) {
	assert.Contains(t, dropdownSelectors, "[role='combobox']")
	assert.Contains(t, dropdownSelectors, "select")
	assert.Contains(t, dropdownSelectors, "[aria-haspopup='listbox']")
}

func TestMilitaryPatterns(t *testing.T) {
	matching := []string{
		"Do you have Active Duty or Guard/Reserve experience in the Uniformed Services of the United States?",
		"The following questions are to assist us in determining your eligibility",
		"Are you a member of the reserve forces?",
	}
	for _, text := range matching {
		matched := false
		for _, pattern := range militaryPatterns {
			if pattern.MatchString(text) {
				matched = true
				break
			}
		}
		assert.True(t, matched, "expected a military pattern to match %q", text)
	}

	for _, pattern := range militaryPatterns {
		assert.False(t, pattern.MatchString("Please select your age category"))
	}
}
