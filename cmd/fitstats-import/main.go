package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fitlink/fitstats/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "FitStats server URL (e.g. https://fitstats.tail1234.ts.net)")
	apiKey := flag.String("api-key", "", "ingest API key (or set FITSTATS_AUTH_API_KEY)")
	exportPath := flag.String("path", "", "path to session export directory (or parent containing Export/)")
	dryRun := flag.Bool("dry-run", false, "parse files but don't send to server")
	batchSize := flag.Int("batch-size", 100, "sessions per ingest request")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("fitstats-import", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: fitstats-import -server <URL> -api-key <key> -path <export dir> [-dry-run] [-batch-size N]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *apiKey == "" {
		*apiKey = os.Getenv("FITSTATS_AUTH_API_KEY")
	}

	if !*dryRun {
		if *serverURL == "" {
			fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
			os.Exit(1)
		}
		if *apiKey == "" {
			fmt.Fprintf(os.Stderr, "Error: -api-key is required (or use -dry-run)\n")
			os.Exit(1)
		}
	}

	*serverURL = strings.TrimRight(*serverURL, "/")

	// Resolve export directory
	exportDir := upload.ResolveExportDir(*exportPath)
	info, err := os.Stat(exportDir)
	if err != nil || !info.IsDir() {
		log.Error("export directory not found", "path", exportDir, "original", *exportPath)
		os.Exit(1)
	}
	log.Info("using export directory", "path", exportDir)

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	stateDir := filepath.Join(homeDir, ".fitstats-import")

	state, err := upload.OpenStateDB(stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	// Create client (nil-safe in dry-run mode)
	var client *upload.Client
	if !*dryRun {
		client = upload.NewClient(*serverURL, *apiKey)
	}

	if *dryRun {
		log.Info("DRY RUN mode: files will be parsed but not sent")
	}

	// Run upload
	uploader := upload.New(client, state, exportDir, *dryRun, *batchSize, log)
	stats, err := uploader.Run()
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	log.Info("import complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("  Files total:    %d\n", stats.FilesTotal)
	fmt.Printf("  Files sent:     %d\n", stats.FilesSent)
	fmt.Printf("  Files skipped:  %d (already sent)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:  %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Sessions sent:  %d\n", stats.SessionsSent)
	fmt.Printf("  Performances:   %d\n", stats.PerformancesInserted)
	fmt.Println()
}
