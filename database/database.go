package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"autoapply/config"
	"autoapply/models"
)

// Connect opens the optional attempt-history database. Persistence is a
// convenience on top of the results file, never a requirement: callers
// degrade to file-only when this fails.
func Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", psqlInfo)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %v", err)
	}
	return db, nil
}

// AttemptStore persists job attempts across runs so retries keep their
// history.
type AttemptStore struct {
	DB *sql.DB
}

func NewAttemptStore(db *sql.DB) *AttemptStore {
	return &AttemptStore{DB: db}
}

// EnsureSchema creates the attempt-history table when missing.
func (s *AttemptStore) EnsureSchema() error {
	_, err := s.DB.Exec(`
		CREATE TABLE IF NOT EXISTS job_attempts (
			attempt_id   TEXT PRIMARY KEY,
			run_id       TEXT NOT NULL,
			job_id       TEXT NOT NULL,
			status       TEXT NOT NULL,
			step_reached TEXT,
			error        TEXT,
			recorded_at  TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("error creating job_attempts table: %v", err)
	}
	return nil
}

// SaveAttempts inserts one run's attempts.
func (s *AttemptStore) SaveAttempts(runID string, attempts []*models.JobAttempt) error {
	for _, a := range attempts {
		_, err := s.DB.Exec(`
			INSERT INTO job_attempts (attempt_id, run_id, job_id, status, step_reached, error, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			a.AttemptID, runID, a.JobID, string(a.Status), a.StepReached, a.Error, a.Timestamp)
		if err != nil {
			return fmt.Errorf("error saving attempt for job %s: %v", a.JobID, err)
		}
	}
	return nil
}

// HistoryForJob returns past attempts for a job id, newest first.
func (s *AttemptStore) HistoryForJob(jobID string) ([]*models.JobAttempt, error) {
	rows, err := s.DB.Query(`
		SELECT attempt_id, job_id, status, step_reached, error, recorded_at
		FROM job_attempts WHERE job_id = $1 ORDER BY recorded_at DESC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("error querying attempts for job %s: %v", jobID, err)
	}
	defer rows.Close()

	var attempts []*models.JobAttempt
	for rows.Next() {
		a := &models.JobAttempt{}
		var status string
		if err := rows.Scan(&a.AttemptID, &a.JobID, &status, &a.StepReached, &a.Error, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("error scanning attempt row: %v", err)
		}
		a.Status = models.AttemptStatus(status)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
