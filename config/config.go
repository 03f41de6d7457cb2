package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// PortalConfig holds everything needed to log into the hiring portal and
// drive a batch of applications.
type PortalConfig struct {
	PortalURL     string
	SearchURL     string
	Username      string
	Password      string
	JobIDs        []string
	Headless      bool
	LogDir        string
	ResultFile    string
	QuestionsFile string

	// Pacing and lookup tuning. All of these have working defaults.
	SettleTimeout  time.Duration // cap on waiting for network idle, advisory
	SettleDelay    time.Duration // fixed pause after network idle
	JobDelay       time.Duration // pause between jobs in a batch
	CloseGrace     time.Duration // pause before closing the browser session
	AncestorLevels int           // how far up locator scope widening may walk
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ErrMissingConfig is returned when a required value is absent. The run
// must abort before any browser session opens.
var ErrMissingConfig = errors.New("missing required configuration")

// GetPortalConfig loads the automation configuration from the environment.
func GetPortalConfig() (*PortalConfig, error) {
	cfg := &PortalConfig{
		PortalURL:      os.Getenv("PORTAL_URL"),
		SearchURL:      getEnv("PORTAL_SEARCH_URL", os.Getenv("PORTAL_URL")),
		Username:       os.Getenv("PORTAL_USER"),
		Password:       os.Getenv("PORTAL_PASS"),
		JobIDs:         SplitJobIDs(os.Getenv("JOB_IDS")),
		Headless:       getEnv("HEADLESS", "true") != "false",
		LogDir:         getEnv("LOG_DIR", "logs"),
		ResultFile:     getEnv("RESULT_FILE", "job_result.txt"),
		QuestionsFile:  getEnv("QUESTIONS_FILE", "questions.yaml"),
		SettleTimeout:  getEnvSeconds("SETTLE_TIMEOUT_SECONDS", 10),
		SettleDelay:    getEnvSeconds("SETTLE_DELAY_SECONDS", 4),
		JobDelay:       getEnvSeconds("JOB_DELAY_SECONDS", 10),
		CloseGrace:     getEnvSeconds("CLOSE_GRACE_SECONDS", 3),
		AncestorLevels: getEnvInt("ANCESTOR_LEVELS", 4),
	}

	if cfg.PortalURL == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, ErrMissingConfig
	}
	return cfg, nil
}

// SplitJobIDs parses the comma-separated JOB_IDS value, dropping blanks.
func SplitJobIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// GetDatabaseConfig loads the optional attempt-history database settings.
// An empty DBName means persistence is disabled.
func GetDatabaseConfig() DatabaseConfig {
	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Second
}
