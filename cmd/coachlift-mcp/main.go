package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/coachlift/internal/config"
	"github.com/claude/coachlift/internal/matching"
	"github.com/claude/coachlift/internal/mcp"
	"github.com/claude/coachlift/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (local mode)")
	remote := flag.String("remote", "", "base URL of a running CoachLift server; when set, data is fetched over HTTP instead of a local database")
	apiKey := flag.String("api-key", "", "API key for the remote server")
	coachID := flag.String("coach", "", "coach identity injected into every request")
	flag.Parse()

	// Logs go to stderr; stdout carries the MCP stdio transport.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var (
		ds       mcp.DataSource
		resolver mcp.NameResolver
	)

	if *remote != "" {
		client := mcp.NewHTTPClient(*remote, *apiKey)
		ds = client
		resolver = client
		log.Info("remote mode", "url", *remote)
	} else {
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
		resolver = matching.NewResolver(db, log)
		log.Info("local mode", "database", cfg.Database.Name)
	}

	s := mcp.New(ds, resolver, Version, log)

	err := server.ServeStdio(s, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
		if *coachID != "" {
			return mcp.WithCoachID(ctx, *coachID)
		}
		return ctx
	}))
	if err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
