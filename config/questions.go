package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"autoapply/models"
)

// QuestionSet is the static, read-only form configuration for a run. The
// mapping order is load-bearing: each successful fill scrolls the page, so
// later lookups depend on earlier ones having run first.
type QuestionSet struct {
	Mappings   []models.QuestionMapping `yaml:"questions"`
	Voluntary  []string                 `yaml:"voluntary_answers"`
	NavDenied  []string                 `yaml:"navigation_denylist"`
	SweepWords []string                 `yaml:"sweep_keywords"`
}

// DefaultQuestionSet returns the built-in mapping for the Workday-style
// application questions page, used when no questions file is present.
func DefaultQuestionSet() *QuestionSet {
	return &QuestionSet{
		Mappings: []models.QuestionMapping{
			{Pattern: "Do you certify you meet all minimum qualifications", Answer: "Yes"},
			{Pattern: "mobile text message", Answer: "Opt-Out from receiving text messages"},
			{Pattern: "Are you legally able to work", Answer: "Yes"},
			{Pattern: "Please select your age category", Answer: "18 years of age and Over"},
			{Pattern: "Associate Status", Answer: "Previous associate"},
			{Pattern: "work authorization within 3 days", Answer: "Yes"},
			{Pattern: "sponsorship for an immigration-related employment", Answer: "No"},
			{Pattern: "determining your eligibility", Answer: "No"},
			{Pattern: "Spouse/Partner of someone", Answer: "No"},
			{Pattern: "direct family member", Answer: "No"},
		},
		Voluntary: []string{
			"Asian/No Hispanic Origin (United States of America)",
			"Female",
		},
		NavDenied: []string{
			"skip to main", "search for jobs", "candidate home",
			"settings", "english", "español",
		},
		SweepWords: []string{
			"uniformed services", "active duty", "guard", "reserve",
			"military", "hiring program", "service members",
		},
	}
}

// LoadQuestionSet reads a question set from a YAML file. A missing file is
// not an error: the built-in defaults are returned. Sections left empty in
// the file fall back to the defaults so a partial override stays usable.
func LoadQuestionSet(path string) (*QuestionSet, error) {
	defaults := DefaultQuestionSet()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return nil, fmt.Errorf("error reading questions file: %v", err)
	}

	loaded := &QuestionSet{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("error parsing questions file: %v", err)
	}

	if len(loaded.Mappings) == 0 {
		loaded.Mappings = defaults.Mappings
	}
	if len(loaded.Voluntary) == 0 {
		loaded.Voluntary = defaults.Voluntary
	}
	if len(loaded.NavDenied) == 0 {
		loaded.NavDenied = defaults.NavDenied
	}
	if len(loaded.SweepWords) == 0 {
		loaded.SweepWords = defaults.SweepWords
	}
	return loaded, nil
}
