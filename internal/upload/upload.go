package upload

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/fitlink/fitstats/internal/ingest"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal   int
	FilesSent    int
	FilesSkipped int
	FilesErrored int

	SessionsSent         int
	PerformancesInserted int
}

// Uploader walks an export directory, parses session JSON files, and POSTs
// their sessions to the FitStats server.
type Uploader struct {
	client    *Client
	state     *StateDB
	exportDir string
	dryRun    bool
	batchSize int
	log       *slog.Logger
	stats     Stats
}

// New creates a new Uploader.
func New(client *Client, state *StateDB, exportDir string, dryRun bool, batchSize int, log *slog.Logger) *Uploader {
	return &Uploader{
		client:    client,
		state:     state,
		exportDir: exportDir,
		dryRun:    dryRun,
		batchSize: batchSize,
		log:       log,
	}
}

// fileInfo tracks a file's metadata for state DB operations.
type fileInfo struct {
	relPath string
	size    int64
	hash    string
}

// Run executes the upload pipeline. Each export file holds a JSON array of
// sessions; files are processed in name order so reruns are deterministic.
// A file is marked sent only after every one of its sessions was ingested.
func (u *Uploader) Run() (*Stats, error) {
	files, err := filepath.Glob(filepath.Join(u.exportDir, "*.json"))
	if err != nil {
		return &u.stats, fmt.Errorf("listing export files: %w", err)
	}
	sort.Strings(files)

	var pending []ingest.SessionPayload
	var pendingFiles []fileInfo

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := u.sendBatch(pending, pendingFiles); err != nil {
			return err
		}
		pending = nil
		pendingFiles = nil
		return nil
	}

	for _, f := range files {
		u.stats.FilesTotal++

		relPath, _ := filepath.Rel(u.exportDir, f)
		info, err := os.Stat(f)
		if err != nil {
			u.log.Warn("stat failed", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}

		hash, err := HashFile(f)
		if err != nil {
			u.log.Warn("hash failed", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}

		sent, err := u.state.IsSent(relPath, info.Size(), hash)
		if err != nil {
			u.log.Warn("state check failed", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}
		if sent {
			u.stats.FilesSkipped++
			continue
		}

		data, err := os.ReadFile(f)
		if err != nil {
			u.log.Warn("read failed", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}

		var sessions []ingest.SessionPayload
		if err := json.Unmarshal(data, &sessions); err != nil {
			u.log.Warn("parse failed", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}

		if len(sessions) == 0 {
			// Empty files are marked sent so they are not re-checked.
			u.stats.FilesSkipped++
			_ = u.state.MarkSent(relPath, info.Size(), hash)
			continue
		}

		pending = append(pending, sessions...)
		pendingFiles = append(pendingFiles, fileInfo{relPath: relPath, size: info.Size(), hash: hash})

		if len(pending) >= u.batchSize {
			if err := flush(); err != nil {
				return &u.stats, err
			}
		}
	}

	if err := flush(); err != nil {
		return &u.stats, err
	}
	return &u.stats, nil
}

// sendBatch sends a batch of sessions and marks their files as sent. In
// dry-run mode nothing is sent and no state is recorded, so a later real
// run still picks the files up.
func (u *Uploader) sendBatch(sessions []ingest.SessionPayload, files []fileInfo) error {
	if u.dryRun {
		u.log.Info("dry-run: would send sessions", "sessions", len(sessions), "files", len(files))
		u.stats.FilesSent += len(files)
		return nil
	}

	result, err := u.client.SendSessions(sessions)
	if err != nil {
		return fmt.Errorf("sending session batch: %w", err)
	}
	u.stats.SessionsSent += result.SessionsInserted
	u.stats.PerformancesInserted += result.PerformancesInserted

	for _, fi := range files {
		if err := u.state.MarkSent(fi.relPath, fi.size, fi.hash); err != nil {
			u.log.Warn("failed to mark sent", "file", fi.relPath, "error", err)
		}
		u.stats.FilesSent++
	}

	u.log.Info("sent batch", "sessions", len(sessions), "files", len(files))
	return nil
}

// ResolveExportDir resolves the export directory from a user-provided path.
// FitLink app backups keep sessions under an Export/ subdirectory; when the
// given path contains one, that subdirectory is used.
func ResolveExportDir(path string) string {
	if filepath.Base(path) == "Export" {
		return path
	}
	candidate := filepath.Join(path, "Export")
	if fi, err := os.Stat(candidate); err == nil && fi.IsDir() {
		return candidate
	}
	return path
}
