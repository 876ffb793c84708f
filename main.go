// CLAUDE:SUMMARY Entrypoint — serve/seed-admin/mcp subcommands, full wiring of store, classifier, pipeline, chat and mail
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hazyhaar/grievd/internal/api"
	"github.com/hazyhaar/grievd/internal/auditlog"
	"github.com/hazyhaar/grievd/internal/auth"
	"github.com/hazyhaar/grievd/internal/classify"
	"github.com/hazyhaar/grievd/internal/config"
	"github.com/hazyhaar/grievd/internal/db"
	"github.com/hazyhaar/grievd/internal/llm"
	"github.com/hazyhaar/grievd/internal/mail"
	"github.com/hazyhaar/grievd/internal/mcp"
	"github.com/hazyhaar/grievd/internal/pipeline"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "seed-admin":
		cmdSeedAdmin(os.Args[2:])
	case "mcp":
		cmdMCP(os.Args[2:])
	case "version":
		fmt.Printf("grievd %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`grievd - civic complaint intake and triage backend

Usage:
  grievd serve [--config config.toml] [--addr :8080]
  grievd seed-admin [--config config.toml]
  grievd mcp [--config config.toml]
  grievd version
  grievd help

Commands:
  serve       Start the HTTP server
  seed-admin  Create or update the admin account from config
  mcp         Serve complaint tools over MCP on stdio
  version     Print version
  help        Show this help`)
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.toml")
	addr := fs.String("addr", "", "listen address (overrides config)")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer database.Close()

	auditLog, err := auditlog.New(database.DB)
	if err != nil {
		log.Fatalf("initializing audit log: %v", err)
	}
	defer auditLog.Close()

	a := auth.New(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiryMin)
	classifier := classify.NewClient(cfg.ML.BaseURL, cfg.ML.TopK, time.Duration(cfg.ML.TimeoutSec)*time.Second)
	pipe := pipeline.New(database, classifier, cfg.Pipeline.BatchLimit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pipe.StartScheduler(ctx, cfg.Pipeline.ReclassifySchedule)

	apiHandler := api.New(database, a)
	apiHandler.SetClassifier(classifier)
	apiHandler.SetPipeline(pipe)
	apiHandler.SetLLMClient(llm.NewFromConfig(cfg.LLM))
	apiHandler.SetMailer(mail.NewSender(cfg.Mail))
	apiHandler.SetAuditLogger(auditLog)
	apiHandler.SetUploadsDir(cfg.Server.UploadsDir)
	apiHandler.SetGeminiKey(cfg.LLM.GeminiAPIKey)

	mux := http.NewServeMux()
	apiHandler.RegisterRoutes(mux)

	uploadsFS := http.FileServer(http.Dir(cfg.Server.UploadsDir))
	mux.Handle("GET /uploads/", api.NoCacheStatic(http.StripPrefix("/uploads/", uploadsFS)))

	slog.Info("grievd listening", "version", version, "addr", cfg.Server.Addr, "database", cfg.Database.Path)
	if err := http.ListenAndServe(cfg.Server.Addr, api.SecurityHeaders(mux)); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func cmdSeedAdmin(args []string) {
	fs := flag.NewFlagSet("seed-admin", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.toml")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
		log.Fatal("admin email and password must be set in config")
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer database.Close()

	a := auth.New(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiryMin)
	hash, err := a.HashPassword(cfg.Admin.Password)
	if err != nil {
		log.Fatalf("hashing password: %v", err)
	}

	created, err := database.SeedAdmin(cfg.Admin.Name, cfg.Admin.Email, hash)
	if err != nil {
		log.Fatalf("seeding admin: %v", err)
	}
	if created {
		fmt.Printf("admin account created: %s\n", cfg.Admin.Email)
	} else {
		fmt.Printf("admin account updated: %s\n", cfg.Admin.Email)
	}
}

func cmdMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.toml")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer database.Close()

	auditLog, err := auditlog.New(database.DB)
	if err != nil {
		log.Fatalf("initializing audit log: %v", err)
	}
	defer auditLog.Close()

	srv := mcp.NewServer(database, auditLog)
	if err := mcp.ServeStdio(srv); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
