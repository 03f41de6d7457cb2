package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"autoapply/models"
)

// OutcomeLedger accumulates the per-job classifications of one batch run.
// Every job id fed into the run lands in exactly one terminal bucket by run
// end; a job can be absent only if the process died before reaching it.
type OutcomeLedger struct {
	runID    string
	started  time.Time
	attempts []*models.JobAttempt
	seen     map[string]bool
}

func NewOutcomeLedger() *OutcomeLedger {
	return &OutcomeLedger{
		runID:   uuid.NewString(),
		started: time.Now(),
		seen:    make(map[string]bool),
	}
}

// RunID identifies this batch run in artifacts and the attempt history.
func (l *OutcomeLedger) RunID() string {
	return l.runID
}

// Attempts returns the recorded attempts in run order.
func (l *OutcomeLedger) Attempts() []*models.JobAttempt {
	return l.attempts
}

// Record adds a finished attempt. An attempt must be terminal, and a job id
// can be classified only once per run.
func (l *OutcomeLedger) Record(attempt *models.JobAttempt) error {
	if !attempt.Status.Terminal() {
		return fmt.Errorf("attempt for job %s is not terminal: %s", attempt.JobID, attempt.Status)
	}
	if l.seen[attempt.JobID] {
		return fmt.Errorf("job %s already classified this run", attempt.JobID)
	}
	l.seen[attempt.JobID] = true
	attempt.Timestamp = time.Now()
	l.attempts = append(l.attempts, attempt)
	return nil
}

// Summary rolls the attempts up into per-bucket job-id lists.
func (l *OutcomeLedger) Summary() models.RunSummary {
	summary := models.RunSummary{
		RunID:       l.runID,
		GeneratedAt: time.Now(),
		Total:       len(l.attempts),
	}
	for _, attempt := range l.attempts {
		switch attempt.Status {
		case models.StatusSuccess:
			summary.Successful = append(summary.Successful, attempt.JobID)
		case models.StatusIncomplete:
			summary.Incomplete = append(summary.Incomplete, attempt.JobID)
		case models.StatusFailed:
			summary.Failed = append(summary.Failed, attempt.JobID)
		}
	}
	return summary
}

// WriteResults writes the results artifact, fully overwriting the previous
// run's file, plus a timestamped backup copy and a machine-readable JSON
// twin in the log directory.
func (l *OutcomeLedger) WriteResults(path, backupDir string) error {
	content := l.render()

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("error writing results file: %v", err)
	}
	log.Printf("📝 Job results saved to: %s", path)

	backup := filepath.Join(backupDir, fmt.Sprintf("job_result_backup_%s.txt", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(backup, []byte(content), 0o644); err != nil {
		log.Printf("⚠ Could not write backup copy: %v", err)
	} else {
		log.Printf("📝 Backup saved to: %s", backup)
	}

	summaryJSON, err := json.MarshalIndent(l.Summary(), "", "  ")
	if err == nil {
		jsonPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
		if err := os.WriteFile(jsonPath, summaryJSON, 0o644); err != nil {
			log.Printf("⚠ Could not write JSON summary: %v", err)
		}
	}
	return nil
}

// render produces the human-readable results artifact: summary counts, the
// SUCCESS list, a ready-to-copy JOB_IDS= retry line for FAILED jobs, and a
// manual-follow-up list for INCOMPLETE jobs.
func (l *OutcomeLedger) render() string {
	summary := l.Summary()
	var b strings.Builder

	b.WriteString("# JOB APPLICATION RESULTS\n")
	fmt.Fprintf(&b, "# Run: %s\n", l.runID)
	fmt.Fprintf(&b, "# Generated on: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	b.WriteString("# SUMMARY:\n")
	fmt.Fprintf(&b, "# Total jobs processed: %d\n", summary.Total)
	fmt.Fprintf(&b, "# Successful submissions: %d\n", len(summary.Successful))
	fmt.Fprintf(&b, "# Incomplete submissions: %d\n", len(summary.Incomplete))
	fmt.Fprintf(&b, "# Failed applications: %d\n\n", len(summary.Failed))

	if len(summary.Successful) > 0 {
		b.WriteString("# SUCCESSFUL SUBMISSIONS (COMPLETED):\n")
		for _, jobID := range summary.Successful {
			b.WriteString(jobID + "\n")
		}
		b.WriteString("\n")
	}

	if len(summary.Failed) > 0 {
		b.WriteString("# FAILED APPLICATIONS (NEED FULL RETRY):\n")
		b.WriteString("# Copy this line into your .env to retry:\n")
		fmt.Fprintf(&b, "JOB_IDS=%s\n\n", strings.Join(summary.Failed, ", "))
		b.WriteString("# Individual failed job IDs:\n")
		for _, jobID := range summary.Failed {
			b.WriteString(jobID + "\n")
		}
		b.WriteString("\n")
	}

	if len(summary.Incomplete) > 0 {
		b.WriteString("# INCOMPLETE SUBMISSIONS (NEED MANUAL REVIEW/SUBMIT):\n")
		b.WriteString("# Applications completed but submission failed - check manually:\n")
		fmt.Fprintf(&b, "INCOMPLETE_IDS=%s\n\n", strings.Join(summary.Incomplete, ", "))
		b.WriteString("# Individual incomplete job IDs:\n")
		for _, jobID := range summary.Incomplete {
			b.WriteString(jobID + "\n")
		}
		b.WriteString("\n")
	}

	if len(summary.Failed) > 0 || len(summary.Incomplete) > 0 {
		b.WriteString("# NEXT STEPS:\n")
		b.WriteString("# 1. For FAILED jobs: copy the JOB_IDS line above into your .env file\n")
		b.WriteString("# 2. For INCOMPLETE jobs: visit and submit these applications manually\n")
		b.WriteString("# 3. Remove successfully completed jobs from your .env file\n")
	}

	return b.String()
}
