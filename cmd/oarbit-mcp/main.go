package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/oarbit/oarbit/internal/config"
	"github.com/oarbit/oarbit/internal/mcp"
	"github.com/oarbit/oarbit/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (local mode)")
	remoteURL := flag.String("url", "", "base URL of a running Oarbit server (remote mode)")
	flag.Parse()

	// Logs go to stderr: stdout is the MCP transport.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.DataSource

	if *remoteURL != "" {
		ds = mcp.NewHTTPClient(*remoteURL)
		log.Info("mcp server starting", "mode", "remote", "url", *remoteURL)
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
		log.Info("mcp server starting", "mode", "local")
	}

	s := mcp.New(ds, Version, log)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
