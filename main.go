package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"autoapply/config"
	"autoapply/database"
	"autoapply/handlers"
	"autoapply/services"
	"autoapply/utils"
)

// Exit codes, for scripting around batch runs.
const (
	exitOK            = 0
	exitWithFailures  = 1
	exitMissingConfig = 2
	exitNoJobIDs      = 3
)

func main() {
	serve := flag.Bool("serve", false, "serve the last run's results over HTTP instead of running a batch")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	if *serve {
		runServer()
		return
	}
	os.Exit(runBatch())
}

func runBatch() int {
	cfg, err := config.GetPortalConfig()
	if err != nil {
		if errors.Is(err, config.ErrMissingConfig) {
			log.Println("❌ PORTAL_URL, PORTAL_USER, or PORTAL_PASS not set")
			return exitMissingConfig
		}
		log.Printf("❌ Configuration error: %v", err)
		return exitMissingConfig
	}
	if len(cfg.JobIDs) == 0 {
		log.Println("❌ No JOB_IDS provided")
		return exitNoJobIDs
	}

	questions, err := config.LoadQuestionSet(cfg.QuestionsFile)
	if err != nil {
		log.Printf("❌ Could not load question mappings: %v", err)
		return exitMissingConfig
	}

	ledger := services.NewOutcomeLedger()
	runLog := utils.NewLogger(ledger.RunID())
	runLog.Info("Starting application batch", map[string]interface{}{
		"jobs":      len(cfg.JobIDs),
		"questions": len(questions.Mappings),
	})
	log.Printf("🎯 Job IDs to process: %v", cfg.JobIDs)

	orchestrator, err := services.NewOrchestrator(cfg, questions, ledger)
	if err != nil {
		runLog.Error("Could not start browser automation", err)
		return exitWithFailures
	}
	defer orchestrator.Close()

	orchestrator.RunBatch(cfg.JobIDs)

	log.Println("✅ ALL APPLICATIONS PROCESSED")
	summary := ledger.Summary()
	log.Printf("📊 FINAL SUMMARY: success=%d incomplete=%d failed=%d",
		len(summary.Successful), len(summary.Incomplete), len(summary.Failed))
	for _, attempt := range ledger.Attempts() {
		runLog.JobEvent(attempt.JobID, "attempt classified", map[string]interface{}{
			"status":       attempt.Status,
			"step_reached": attempt.StepReached,
		})
	}
	for _, jobID := range summary.Failed {
		log.Printf("   ❌ FAILED (needs full retry): %s", jobID)
	}
	for _, jobID := range summary.Incomplete {
		log.Printf("   ⚠ INCOMPLETE (needs manual submit): %s", jobID)
	}

	if err := ledger.WriteResults(cfg.ResultFile, cfg.LogDir); err != nil {
		runLog.Error("Could not write results file", err)
	}
	persistAttempts(ledger, runLog)

	if len(summary.Failed) > 0 || len(summary.Incomplete) > 0 {
		return exitWithFailures
	}
	return exitOK
}

// persistAttempts mirrors the run into the attempt-history database when
// one is configured. Failures degrade to file-only results.
func persistAttempts(ledger *services.OutcomeLedger, runLog *utils.Logger) {
	dbCfg := config.GetDatabaseConfig()
	if dbCfg.DBName == "" {
		return
	}

	db, err := database.Connect(dbCfg)
	if err != nil {
		runLog.Warn("Attempt history database unavailable, results kept file-only", err.Error())
		return
	}
	defer db.Close()

	store := database.NewAttemptStore(db)
	if err := store.EnsureSchema(); err != nil {
		runLog.Warn("Could not prepare attempt history schema", err.Error())
		return
	}
	if err := store.SaveAttempts(ledger.RunID(), ledger.Attempts()); err != nil {
		runLog.Warn("Could not save attempt history", err.Error())
		return
	}
	runLog.Info("Attempt history saved", map[string]interface{}{"attempts": len(ledger.Attempts())})
}

func runServer() {
	resultFile := os.Getenv("RESULT_FILE")
	if resultFile == "" {
		resultFile = "job_result.txt"
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	h := handlers.NewResultsHandler(resultFile)
	if dbCfg := config.GetDatabaseConfig(); dbCfg.DBName != "" {
		db, err := database.Connect(dbCfg)
		if err != nil {
			log.Printf("⚠ Attempt history database unavailable: %v", err)
		} else {
			defer db.Close()
			h.History = database.NewAttemptStore(db)
		}
	}
	if s3Service, err := services.NewS3Service(); err == nil {
		h.Shots = s3Service
	}

	r := gin.Default()
	r.Use(cors.Default())
	h.Register(r)

	log.Printf("Serving results from %s on :%s", resultFile, port)
	r.Run(":" + port)
}
