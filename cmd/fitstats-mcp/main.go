package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/fitlink/fitstats/internal/catalog"
	"github.com/fitlink/fitstats/internal/config"
	"github.com/fitlink/fitstats/internal/mcp"
	"github.com/fitlink/fitstats/internal/stats"
	"github.com/fitlink/fitstats/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// fitstats-mcp serves the FitStats MCP tools over stdio. In remote mode
// (-server) tool calls go through the REST API, typically over Tailscale;
// otherwise (-config) it reads the database directly.
func main() {
	serverURL := flag.String("server", "", "FitStats server URL for remote mode (e.g. https://fitstats.tail1234.ts.net)")
	configPath := flag.String("config", "", "path to config file for local database mode")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("fitstats-mcp", Version)
		return
	}

	// Logs go to stderr; stdout belongs to the MCP transport.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.DataSource
	switch {
	case *serverURL != "":
		ds = mcp.NewHTTPClient(*serverURL)
		log.Info("remote mode", "server", *serverURL)
	case *configPath != "":
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

		cat := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.APIKey, cfg.Catalog.APIHost)
		ds = &mcp.Local{Stats: stats.NewService(db, cat, log), DB: db}
		log.Info("local mode", "database", cfg.Database.Name)
	default:
		fmt.Fprintf(os.Stderr, "Usage: fitstats-mcp -server <URL> | -config config.yaml\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	srv := mcp.New(ds, Version, log)
	if err := mcpserver.ServeStdio(srv); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
