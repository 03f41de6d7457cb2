package models

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus is the terminal classification of one application attempt.
type AttemptStatus string

const (
	StatusPending    AttemptStatus = "PENDING"
	StatusSuccess    AttemptStatus = "SUCCESS"
	StatusIncomplete AttemptStatus = "INCOMPLETE"
	StatusFailed     AttemptStatus = "FAILED"
)

// Terminal reports whether the status is one of the three end-of-run buckets.
func (s AttemptStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusIncomplete || s == StatusFailed
}

// JobAttempt tracks one application attempt for one job id within a run.
// It is created when the job is dequeued and becomes immutable once the
// ledger records it.
type JobAttempt struct {
	AttemptID   string        `json:"attempt_id"`
	JobID       string        `json:"job_id"`
	Status      AttemptStatus `json:"status"`
	StepReached string        `json:"step_reached"`
	Error       string        `json:"error,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
}

// NewJobAttempt creates a pending attempt for a job id.
func NewJobAttempt(jobID string) *JobAttempt {
	return &JobAttempt{
		AttemptID: uuid.NewString(),
		JobID:     jobID,
		Status:    StatusPending,
		Timestamp: time.Now(),
	}
}

// QuestionMapping pairs a question-text pattern with the option text to
// select. Mappings are evaluated in declaration order because each
// successful fill scrolls the viewport and changes what later lookups see.
type QuestionMapping struct {
	Pattern string `json:"pattern" yaml:"pattern"`
	Answer  string `json:"answer" yaml:"answer"`
}

// RunSummary is the per-bucket roll-up of a finished batch run.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Total       int       `json:"total"`
	Successful  []string  `json:"successful"`
	Incomplete  []string  `json:"incomplete"`
	Failed      []string  `json:"failed"`
}
