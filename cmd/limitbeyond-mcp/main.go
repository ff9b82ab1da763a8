package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/claude/limitbeyond/internal/client"
	"github.com/claude/limitbeyond/internal/config"
	"github.com/claude/limitbeyond/internal/logging"
	lbmcp "github.com/claude/limitbeyond/internal/mcp"
	"github.com/claude/limitbeyond/internal/storage"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to server config file (local database mode)")
	serverURL := flag.String("server", "", "REST API base URL (remote mode, defaults to LIMITBEYOND_URL)")
	userID := flag.Int("user", 1, "user id to scope local database queries to")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	// stdout carries the MCP protocol, so logs go to stderr.
	log := slog.New(logging.NewHandler(os.Stderr, config.LogConfig{Level: *logLevel, Format: "text"}))

	var ds lbmcp.DataSource
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		db, err := storage.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		ds = db
		log.Info("mcp using local database", "user_id", *userID)
	} else {
		ccfg, err := config.LoadClient()
		if err != nil {
			log.Error("failed to load client config", "error", err)
			os.Exit(1)
		}
		if *serverURL != "" {
			ccfg.BaseURL = *serverURL
		}
		ds = client.New(ccfg.BaseURL, ccfg.APIKey)
		log.Info("mcp using remote server", "url", ccfg.BaseURL)
	}

	s := lbmcp.New(ds, Version, log)
	withUser := func(ctx context.Context) context.Context {
		return lbmcp.WithUserID(ctx, *userID)
	}
	if err := server.ServeStdio(s, server.WithStdioContextFunc(withUser)); err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
