package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"autoapply/models"
)

func terminalAttempt(jobID string, status models.AttemptStatus) *models.JobAttempt {
	attempt := models.NewJobAttempt(jobID)
	attempt.Status = status
	return attempt
}

func TestLedger_RecordRejectsNonTerminal(t *testing.T) {
	ledger := NewOutcomeLedger()

	err := ledger.Record(models.NewJobAttempt("111111"))
	assert.Error(t, err)
	assert.Empty(t, ledger.Attempts())
}

func TestLedger_RecordRejectsDoubleClassification(t *testing.T) {
	ledger := NewOutcomeLedger()

	assert.NoError(t, ledger.Record(terminalAttempt("123456", models.StatusSuccess)))
	err := ledger.Record(terminalAttempt("123456", models.StatusFailed))
	assert.Error(t, err)

	// The job stays in exactly one bucket.
	summary := ledger.Summary()
	assert.Equal(t, []string{"123456"}, summary.Successful)
	assert.Empty(t, summary.Failed)
	assert.Equal(t, 1, summary.Total)
}

func TestLedger_SummaryBuckets(t *testing.T) {
	ledger := NewOutcomeLedger()
	assert.NoError(t, ledger.Record(terminalAttempt("111111", models.StatusSuccess)))
	assert.NoError(t, ledger.Record(terminalAttempt("222222", models.StatusIncomplete)))
	assert.NoError(t, ledger.Record(terminalAttempt("333333", models.StatusFailed)))
	assert.NoError(t, ledger.Record(terminalAttempt("444444", models.StatusFailed)))

	summary := ledger.Summary()
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, []string{"111111"}, summary.Successful)
	assert.Equal(t, []string{"222222"}, summary.Incomplete)
	assert.Equal(t, []string{"333333", "444444"}, summary.Failed)
	assert.Equal(t, ledger.RunID(), summary.RunID)
}

func TestLedger_RenderIncludesRetryLine(t *testing.T) {
	ledger := NewOutcomeLedger()
	assert.NoError(t, ledger.Record(terminalAttempt("111111", models.StatusSuccess)))
	assert.NoError(t, ledger.Record(terminalAttempt("222222", models.StatusFailed)))
	assert.NoError(t, ledger.Record(terminalAttempt("333333", models.StatusFailed)))
	assert.NoError(t, ledger.Record(terminalAttempt("444444", models.StatusIncomplete)))

	content := ledger.render()

	// Ready-to-copy configuration line for the next run.
	assert.Contains(t, content, "JOB_IDS=222222, 333333")
	assert.Contains(t, content, "INCOMPLETE_IDS=444444")
	assert.Contains(t, content, "# Successful submissions: 1")
	assert.Contains(t, content, "# Incomplete submissions: 1")
	assert.Contains(t, content, "# Failed applications: 2")
	assert.Contains(t, content, "# NEXT STEPS:")
}

func TestLedger_RenderCleanRunHasNoRetrySections(t *testing.T) {
	ledger := NewOutcomeLedger()
	assert.NoError(t, ledger.Record(terminalAttempt("111111", models.StatusSuccess)))

	content := ledger.render()
	assert.NotContains(t, content, "JOB_IDS=")
	assert.NotContains(t, content, "INCOMPLETE_IDS=")
	assert.NotContains(t, content, "# NEXT STEPS:")
	assert.Contains(t, content, "111111")
}

func TestLedger_WriteResultsOverwritesAndBacksUp(t *testing.T) {
	dir := t.TempDir()
	resultPath := filepath.Join(dir, "job_result.txt")
	assert.NoError(t, os.WriteFile(resultPath, []byte("stale previous run"), 0o644))

	ledger := NewOutcomeLedger()
	assert.NoError(t, ledger.Record(terminalAttempt("123456", models.StatusSuccess)))
	assert.NoError(t, ledger.WriteResults(resultPath, dir))

	data, err := os.ReadFile(resultPath)
	assert.NoError(t, err)
	assert.NotContains(t, string(data), "stale previous run")
	assert.Contains(t, string(data), "123456")

	backups, err := filepath.Glob(filepath.Join(dir, "job_result_backup_*.txt"))
	assert.NoError(t, err)
	assert.Len(t, backups, 1)

	jsonData, err := os.ReadFile(filepath.Join(dir, "job_result.json"))
	assert.NoError(t, err)
	assert.Contains(t, string(jsonData), `"123456"`)
}
