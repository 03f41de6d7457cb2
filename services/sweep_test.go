package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"autoapply/config"
)

func TestKeywordIn_SweepScope(t *testing.T) {
	keywords := config.DefaultQuestionSet().SweepWords

	// Controls surrounded by service/military wording are in scope for the
	// auto-fill pass.
	keyword, ok := keywordIn("Do you have experience in the Uniformed Services?", keywords)
	assert.True(t, ok)
	assert.Equal(t, "uniformed services", keyword)

	keyword, ok = keywordIn("This hiring program is open to spouses", keywords)
	assert.True(t, ok)
	assert.Equal(t, "hiring program", keyword)

	// Anything else stays out of scope: reported, never guessed.
	_, ok = keywordIn("What is your preferred shift?", keywords)
	assert.False(t, ok)

	_, ok = keywordIn("Please select your age category", keywords)
	assert.False(t, ok)
}

func TestKeywordIn_CaseInsensitive(t *testing.T) {
	keyword, ok := keywordIn("ACTIVE DUTY service members welcome", []string{"active duty"})
	assert.True(t, ok)
	assert.Equal(t, "active duty", keyword)
}
