/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the attendance engine server. Handles
  configuration, dependency injection, seeding, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and optional YAML config
  2. Initialize SQLite store
  3. Seed default admin and rules when the tables are empty
  4. Create API handler and router
  5. Start the batch scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config file path (optional)
  -port    HTTP server port (overrides config)
  -db      SQLite database path (overrides config)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler and close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/attendance.db"

  # Run with a config file
  ./server -config=config.yaml

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/engine"
	"github.com/warp/attendance-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config file path")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}

	// Initialize store
	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	if err := seedDefaults(context.Background(), store, cfg); err != nil {
		log.Fatalf("Failed to seed defaults: %v", err)
	}

	// Initialize handler and router
	handler := api.NewHandler(store, cfg.BaseURL, cfg.StaticDir)
	router := api.NewRouter(handler)

	// Start the batch scheduler
	scheduler := api.NewBatchScheduler(handler.Runner)
	scheduler.CheckInterval = cfg.Scheduler.Interval()
	scheduler.Enabled = cfg.Scheduler.Enabled
	scheduler.Start()
	defer scheduler.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", cfg.Port)
		log.Printf("📊 API available at http://localhost:%d/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// seedDefaults creates the initial admin account and the stock rule set on
// first boot. Existing rows are never touched.
func seedDefaults(ctx context.Context, store *sqlite.Store, cfg config.Config) error {
	admins, err := store.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if admins == 0 {
		hash, err := api.HashPassword(cfg.Admin.Password)
		if err != nil {
			return err
		}
		if err := store.SaveAdmin(ctx, sqlite.Admin{
			Username:     cfg.Admin.Username,
			PasswordHash: hash,
			CreatedAt:    time.Now().UTC(),
		}); err != nil {
			return err
		}
		log.Printf("[Seed] Created admin account %q", cfg.Admin.Username)
	}

	rules, err := store.CountRules(ctx)
	if err != nil {
		return err
	}
	if rules == 0 {
		defaults := []engine.Rule{
			{
				ID:       "consecutive-absences",
				Label:    "Consecutive absences",
				Severity: engine.SeverityCritical,
				Active:   true,
				Config:   engine.ConsecutiveAbsenceConfig{Threshold: 3},
			},
			{
				ID:       "absences-in-month",
				Label:    "Too many absences this month",
				Severity: engine.SeverityWarning,
				Active:   true,
				Config:   engine.WindowConfig{Days: 30, Threshold: 5},
			},
			{
				ID:       "perfect-attendance",
				Label:    "Perfect attendance streak",
				Severity: engine.SeverityInfo,
				Active:   true,
				Config:   engine.StreakConfig{Days: 15},
			},
		}
		for _, rule := range defaults {
			if err := store.SaveRule(ctx, rule); err != nil {
				return err
			}
		}
		log.Printf("[Seed] Created %d default alert rules", len(defaults))
	}
	return nil
}
