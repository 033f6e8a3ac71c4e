package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/abridged/discord-bot-template-sub000/internal/api"
	"github.com/abridged/discord-bot-template-sub000/internal/config"
	"github.com/abridged/discord-bot-template-sub000/internal/metrics"
	"github.com/abridged/discord-bot-template-sub000/internal/server"
	"github.com/abridged/discord-bot-template-sub000/internal/services"
)

// Build information (set via ldflags)
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

func main() {
	// Command line flags
	var showVersion = flag.Bool("version", false, "Show version information")
	var showHelp = flag.Bool("help", false, "Show help information")
	var debugLog = flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetLevel(logrus.InfoLevel)
	if *debugLog {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if *showVersion {
		fmt.Printf("Escrow Deployment Service\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", CommitHash)
		fmt.Printf("Built: %s\n", BuildTime)
		return
	}

	if *showHelp {
		fmt.Printf("Escrow Deployment Service\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		fmt.Printf("  --version    Show version information\n")
		fmt.Printf("  --help       Show this help message\n")
		fmt.Printf("  --debug      Enable debug logging\n\n")
		fmt.Printf("Description:\n")
		fmt.Printf("  Deploys per-quiz escrow contracts through an account-abstraction relay\n")
		fmt.Printf("  and resolves each submission to its deployed contract address.\n\n")
		fmt.Printf("Configuration is read from environment variables (see .env support).\n")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database
	db, err := services.NewDBService(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	// Wire the resolution pipeline
	resolutionService, recordService, lockService, err := server.InitializeServices(cfg, db)
	if err != nil {
		log.Fatal("Failed to initialize services:", err)
	}

	// Start the API server for the job source
	apiServer := api.NewAPIServer(resolutionService, recordService, lockService, cfg.APIAuthSecret)
	port, err := apiServer.Start(cfg.APIPort)
	if err != nil {
		log.Fatal("Failed to start API server:", err)
	}
	log.Printf("API server started on port %d\n", port)

	// Serve Prometheus metrics on a dedicated listener
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		addr := fmt.Sprintf(":%d", cfg.MetricsPort)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("Error starting metrics server: %v", err)
		}
	}()
	log.Printf("Metrics available on port %d\n", cfg.MetricsPort)

	// Set up graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("\nShutting down, cancelling in-flight resolutions...")

	// Shutdown cancels background resolutions and waits for each to reach a
	// terminal state and persist its outcome before the process exits.
	if err := apiServer.Shutdown(); err != nil {
		log.Printf("Error shutting down API server: %v", err)
	}

	log.Println("Servers shut down successfully")
}
