package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"autoapply/models"
)

// AttemptHistory looks up past attempts for a job id.
type AttemptHistory interface {
	HistoryForJob(jobID string) ([]*models.JobAttempt, error)
}

// ScreenshotLinker produces a time-limited download URL for a stored
// diagnostic artifact.
type ScreenshotLinker interface {
	GeneratePresignedURL(fileName string) (string, error)
}

// ResultsHandler serves the last batch run's outcome artifacts over HTTP,
// read-only, for the manual-remediation workflow: the INCOMPLETE list needs
// hand submission and the FAILED list feeds the next run. History and Shots
// are optional; their routes answer 503 when the backing store is not
// configured.
type ResultsHandler struct {
	ResultFile string
	History    AttemptHistory
	Shots      ScreenshotLinker
}

func NewResultsHandler(resultFile string) *ResultsHandler {
	return &ResultsHandler{ResultFile: resultFile}
}

// Register wires the results routes onto the router.
func (h *ResultsHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.Health)
	r.GET("/api/results", h.GetResults)
	r.GET("/api/results/summary", h.GetSummary)
	r.GET("/api/results/raw", h.GetRaw)
	r.GET("/api/jobs/:id/history", h.GetJobHistory)
	r.GET("/api/screenshots/:name", h.GetScreenshotLink)
}

func (h *ResultsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetResults returns the full run summary with per-bucket job-id lists.
func (h *ResultsHandler) GetResults(c *gin.Context) {
	summary, err := h.loadSummary()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no results available yet"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetSummary returns bucket counts only.
func (h *ResultsHandler) GetSummary(c *gin.Context) {
	summary, err := h.loadSummary()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no results available yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id":     summary.RunID,
		"total":      summary.Total,
		"successful": len(summary.Successful),
		"incomplete": len(summary.Incomplete),
		"failed":     len(summary.Failed),
	})
}

// GetRaw streams the human-readable results file as written.
func (h *ResultsHandler) GetRaw(c *gin.Context) {
	data, err := os.ReadFile(h.ResultFile)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no results available yet"})
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
}

// GetJobHistory returns every recorded attempt for a job id, newest first.
func (h *ResultsHandler) GetJobHistory(c *gin.Context) {
	if h.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "attempt history not configured"})
		return
	}
	attempts, err := h.History.HistoryForJob(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load attempt history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"job_id":   c.Param("id"),
		"attempts": attempts,
	})
}

// GetScreenshotLink returns a presigned download URL for a diagnostic
// screenshot by step/job name.
func (h *ResultsHandler) GetScreenshotLink(c *gin.Context) {
	if h.Shots == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "screenshot storage not configured"})
		return
	}
	name := c.Param("name")
	url, err := h.Shots.GeneratePresignedURL(fmt.Sprintf("screenshots/%s.png", name))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate screenshot link"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "url": url})
}

func (h *ResultsHandler) loadSummary() (*models.RunSummary, error) {
	jsonPath := strings.TrimSuffix(h.ResultFile, filepath.Ext(h.ResultFile)) + ".json"
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	summary := &models.RunSummary{}
	if err := json.Unmarshal(data, summary); err != nil {
		return nil, err
	}
	return summary, nil
}
