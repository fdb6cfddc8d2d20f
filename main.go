package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"qnflow/cliparse"
	"qnflow/db"
	"qnflow/middleware"
	"qnflow/qdata"
	"qnflow/router"
)

func main() {
	var err error

	// Load .env if present (dev convenience)
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment")
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Load the questionnaire definition
	var def qdata.Definition
	if cfg.DefinitionPath != "" {
		def, err = qdata.Load(cfg.DefinitionPath)
		if err != nil {
			slog.Error("failed to load questionnaire definition", "error", err)
			os.Exit(1)
		}
		slog.Info("Questionnaire loaded", "id", def.Meta.ID, "questions", len(def.Questions))
	} else {
		def = qdata.Demo()
		slog.Info("Using built-in demo questionnaire", "id", def.Meta.ID)
	}

	// Connect to the database (sqlite file or postgres)
	driver := "sqlite"
	if cfg.DatabaseType == "postgres" {
		driver = "postgres"
	}
	dbConn, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Verify connection
	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	// Create router; CORS wraps the whole mux for the browser-hosted flow
	mux := router.NewRouter(dbConn, cfg, def)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
