package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyWithRetry_FirstClickSucceeds(t *testing.T) {
	clicks, searches := 0, 0

	err := applyWithRetry(
		func() bool { clicks++; return true },
		func() error { searches++; return nil },
	)

	assert.NoError(t, err)
	assert.Equal(t, 1, clicks)
	assert.Equal(t, 0, searches, "search must not be re-run when Apply is present")
}

func TestApplyWithRetry_RetrySearchThenApply(t *testing.T) {
	clicks, searches := 0, 0

	err := applyWithRetry(
		func() bool { clicks++; return clicks == 2 },
		func() error { searches++; return nil },
	)

	assert.NoError(t, err)
	assert.Equal(t, 2, clicks)
	assert.Equal(t, 1, searches)
}

func TestApplyWithRetry_SingleRetryThenFailure(t *testing.T) {
	clicks, searches := 0, 0

	err := applyWithRetry(
		func() bool { clicks++; return false },
		func() error { searches++; return nil },
	)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "never appeared")
	assert.Equal(t, 1, searches, "search is re-run exactly once, never looped")
	assert.Equal(t, 2, clicks)
}

func TestApplyWithRetry_SearchRetryFailure(t *testing.T) {
	clicks, searches := 0, 0

	err := applyWithRetry(
		func() bool { clicks++; return false },
		func() error { searches++; return fmt.Errorf("no result link") },
	)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "search retry failed")
	assert.Equal(t, 1, clicks, "no second click attempt after a failed search retry")
	assert.Equal(t, 1, searches)
}
