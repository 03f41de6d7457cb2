package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"autoapply/models"
)

func resultsRouter(t *testing.T, summary *models.RunSummary, raw string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	resultFile := filepath.Join(dir, "job_result.txt")
	if raw != "" {
		assert.NoError(t, os.WriteFile(resultFile, []byte(raw), 0o644))
	}
	if summary != nil {
		data, err := json.Marshal(summary)
		assert.NoError(t, err)
		assert.NoError(t, os.WriteFile(filepath.Join(dir, "job_result.json"), data, 0o644))
	}

	router := gin.New()
	NewResultsHandler(resultFile).Register(router)
	return router
}

func TestGetResults(t *testing.T) {
	router := resultsRouter(t, &models.RunSummary{
		RunID:       "run-1",
		GeneratedAt: time.Now(),
		Total:       3,
		Successful:  []string{"111111"},
		Incomplete:  []string{"222222"},
		Failed:      []string{"333333"},
	}, "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/results", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "111111")
	assert.Contains(t, w.Body.String(), "run-1")
}

func TestGetResults_NoneYet(t *testing.T) {
	router := resultsRouter(t, nil, "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/results", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSummaryCounts(t *testing.T) {
	router := resultsRouter(t, &models.RunSummary{
		RunID:      "run-2",
		Total:      2,
		Successful: []string{"111111", "222222"},
	}, "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/results/summary", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["successful"])
	assert.Equal(t, float64(0), body["failed"])
}

func TestGetRaw(t *testing.T) {
	router := resultsRouter(t, nil, "# JOB APPLICATION RESULTS\nJOB_IDS=333333\n")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/results/raw", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "JOB_IDS=333333")
}

type stubHistory struct {
	attempts []*models.JobAttempt
	err      error
}

func (s *stubHistory) HistoryForJob(jobID string) ([]*models.JobAttempt, error) {
	return s.attempts, s.err
}

type stubLinker struct {
	lastKey string
}

func (s *stubLinker) GeneratePresignedURL(fileName string) (string, error) {
	s.lastKey = fileName
	return "https://bucket.s3.us-east-1.amazonaws.com/" + fileName + "?sig=abc", nil
}

func TestGetJobHistory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	attempt := models.NewJobAttempt("123456")
	attempt.Status = models.StatusIncomplete
	attempt.StepReached = "submit"

	h := NewResultsHandler("unused")
	h.History = &stubHistory{attempts: []*models.JobAttempt{attempt}}
	router := gin.New()
	h.Register(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/jobs/123456/history", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "123456")
	assert.Contains(t, w.Body.String(), "INCOMPLETE")
	assert.Contains(t, w.Body.String(), "submit")
}

func TestGetJobHistory_NotConfigured(t *testing.T) {
	router := resultsRouter(t, nil, "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/jobs/123456/history", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetScreenshotLink(t *testing.T) {
	gin.SetMode(gin.TestMode)
	linker := &stubLinker{}
	h := NewResultsHandler("unused")
	h.Shots = linker
	router := gin.New()
	h.Register(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/screenshots/review_page_123456", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "screenshots/review_page_123456.png", linker.lastKey)
	assert.Contains(t, w.Body.String(), "sig=abc")
}

func TestGetScreenshotLink_NotConfigured(t *testing.T) {
	router := resultsRouter(t, nil, "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/screenshots/review_page_123456", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealth(t *testing.T) {
	router := resultsRouter(t, nil, "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
