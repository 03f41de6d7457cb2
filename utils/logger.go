package utils

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

// LogLevel represents different log levels
type LogLevel string

const (
	INFO  LogLevel = "INFO"
	WARN  LogLevel = "WARN"
	ERROR LogLevel = "ERROR"
)

// LogEntry is one structured run-level event. Step-by-step narration stays
// on the plain logger; these entries are for the machine-readable trail of
// a batch run.
type LogEntry struct {
	Timestamp time.Time   `json:"timestamp"`
	Level     LogLevel    `json:"level"`
	Message   string      `json:"message"`
	RunID     string      `json:"run_id,omitempty"`
	JobID     string      `json:"job_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// Logger provides structured logging for batch-run events.
type Logger struct {
	logger *log.Logger
	runID  string
}

// NewLogger creates a structured logger bound to a run id.
func NewLogger(runID string) *Logger {
	return &Logger{
		logger: log.New(os.Stdout, "", 0),
		runID:  runID,
	}
}

// Info logs an info event.
func (l *Logger) Info(message string, data ...interface{}) {
	l.emit(LogEntry{Level: INFO, Message: message}, data...)
}

// Warn logs a warning event.
func (l *Logger) Warn(message string, data ...interface{}) {
	l.emit(LogEntry{Level: WARN, Message: message}, data...)
}

// Error logs an error event.
func (l *Logger) Error(message string, err error, data ...interface{}) {
	entry := LogEntry{Level: ERROR, Message: message}
	if err != nil {
		entry.Error = err.Error()
	}
	l.emit(entry, data...)
}

// JobEvent logs an event attributed to one job.
func (l *Logger) JobEvent(jobID, message string, data ...interface{}) {
	l.emit(LogEntry{Level: INFO, Message: message, JobID: jobID}, data...)
}

func (l *Logger) emit(entry LogEntry, data ...interface{}) {
	entry.Timestamp = time.Now()
	entry.RunID = l.runID
	if len(data) > 0 {
		entry.Data = data[0]
	}

	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		log.Printf("Error marshaling log entry: %v", err)
		return
	}
	l.logger.Println(string(jsonBytes))
}
