package upload

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fitlink/fitstats/internal/ingest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestStateDBRoundtrip verifies sent-file tracking across reopens.
func TestStateDBRoundtrip(t *testing.T) {
	dir := t.TempDir()

	state, err := OpenStateDB(dir)
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}

	sent, err := state.IsSent("2025/march.json", 123, "abc")
	if err != nil {
		t.Fatalf("IsSent: %v", err)
	}
	if sent {
		t.Error("fresh state db reports file as sent")
	}

	if err := state.MarkSent("2025/march.json", 123, "abc"); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if err := state.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen: the record must persist.
	state, err = OpenStateDB(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer state.Close()

	sent, err = state.IsSent("2025/march.json", 123, "abc")
	if err != nil {
		t.Fatalf("IsSent after reopen: %v", err)
	}
	if !sent {
		t.Error("sent record did not survive reopen")
	}

	// A changed hash means the file must be re-sent.
	sent, err = state.IsSent("2025/march.json", 123, "different")
	if err != nil {
		t.Fatalf("IsSent changed hash: %v", err)
	}
	if sent {
		t.Error("changed file still reported as sent")
	}
}

func exportSessions() []ingest.SessionPayload {
	start := time.Date(2025, time.July, 21, 18, 0, 0, 0, time.UTC)
	return []ingest.SessionPayload{{
		StartedAt: start,
		EndedAt:   start.Add(40 * time.Minute),
		Exercises: []ingest.ExercisePayload{
			{ExerciseID: "0001", Name: "Bench Press", Reps: []int{8}, Weights: []float64{80}},
		},
	}}
}

func writeExportFile(t *testing.T, dir, name string, sessions []ingest.SessionPayload) {
	t.Helper()
	data, err := json.Marshal(sessions)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		t.Fatal(err)
	}
}

// TestClientSendSessions verifies the API key header, payload shape, and
// result decoding.
func TestClientSendSessions(t *testing.T) {
	var gotKey string
	var gotCount int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		var sessions []ingest.SessionPayload
		if err := json.NewDecoder(r.Body).Decode(&sessions); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotCount = len(sessions)
		w.Write([]byte(`{"sessions_received":1,"sessions_inserted":1,"performances_inserted":1}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	result, err := c.SendSessions(exportSessions())
	if err != nil {
		t.Fatalf("SendSessions: %v", err)
	}

	if gotKey != "secret" {
		t.Errorf("X-API-Key = %q, want secret", gotKey)
	}
	if gotCount != 1 {
		t.Errorf("sessions in request = %d, want 1", gotCount)
	}
	if result.SessionsInserted != 1 {
		t.Errorf("sessions_inserted = %d, want 1", result.SessionsInserted)
	}
}

// TestClientRetriesServerErrors verifies transient 500s are retried and the
// eventual success is returned.
func TestClientRetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"sessions_received":1,"sessions_inserted":1,"performances_inserted":1}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	c.backoff = 0

	if _, err := c.SendSessions(exportSessions()); err != nil {
		t.Fatalf("SendSessions: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

// TestClientDoesNotRetryBadRequest verifies a 400 fails immediately, since
// the batch would be rejected again.
func TestClientDoesNotRetryBadRequest(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, `{"error":"invalid session"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	c.backoff = 0

	if _, err := c.SendSessions(exportSessions()); err == nil {
		t.Fatal("expected error for 400 response")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry)", attempts)
	}
}

// TestUploaderRun verifies the full pipeline: new files sent and recorded,
// already-sent files skipped on rerun, malformed files counted as errors.
func TestUploaderRun(t *testing.T) {
	exportDir := t.TempDir()
	writeExportFile(t, exportDir, "a.json", exportSessions())
	writeExportFile(t, exportDir, "b.json", exportSessions())
	if err := os.WriteFile(filepath.Join(exportDir, "broken.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		var sessions []ingest.SessionPayload
		if err := json.NewDecoder(r.Body).Decode(&sessions); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := ingest.Result{
			SessionsReceived:     len(sessions),
			SessionsInserted:     len(sessions),
			PerformancesInserted: len(sessions),
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	defer state.Close()

	client := NewClient(srv.URL, "secret")
	u := New(client, state, exportDir, false, 100, testLogger())

	stats, err := u.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.FilesTotal != 3 {
		t.Errorf("FilesTotal = %d, want 3", stats.FilesTotal)
	}
	if stats.FilesSent != 2 {
		t.Errorf("FilesSent = %d, want 2", stats.FilesSent)
	}
	if stats.FilesErrored != 1 {
		t.Errorf("FilesErrored = %d, want 1", stats.FilesErrored)
	}
	if stats.SessionsSent != 2 {
		t.Errorf("SessionsSent = %d, want 2", stats.SessionsSent)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1 batched request", requests)
	}

	// Rerun: everything already sent, except the broken file which errors again.
	u2 := New(client, state, exportDir, false, 100, testLogger())
	stats2, err := u2.Run()
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if stats2.FilesSkipped != 2 {
		t.Errorf("rerun FilesSkipped = %d, want 2", stats2.FilesSkipped)
	}
	if stats2.FilesSent != 0 {
		t.Errorf("rerun FilesSent = %d, want 0", stats2.FilesSent)
	}
}

// TestUploaderDryRun verifies dry-run mode does not contact the server or
// mark files as sent.
func TestUploaderDryRun(t *testing.T) {
	exportDir := t.TempDir()
	writeExportFile(t, exportDir, "a.json", exportSessions())

	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	defer state.Close()

	u := New(nil, state, exportDir, true, 100, testLogger())
	stats, err := u.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.FilesSent != 1 {
		t.Errorf("FilesSent = %d, want 1", stats.FilesSent)
	}
}

// TestResolveExportDir verifies Export/ subdirectory resolution.
func TestResolveExportDir(t *testing.T) {
	base := t.TempDir()
	exportDir := filepath.Join(base, "Export")
	if err := os.Mkdir(exportDir, 0755); err != nil {
		t.Fatal(err)
	}

	if got := ResolveExportDir(base); got != exportDir {
		t.Errorf("ResolveExportDir(%q) = %q, want %q", base, got, exportDir)
	}
	if got := ResolveExportDir(exportDir); got != exportDir {
		t.Errorf("ResolveExportDir(%q) = %q, want itself", exportDir, got)
	}

	plain := t.TempDir()
	if got := ResolveExportDir(plain); got != plain {
		t.Errorf("ResolveExportDir(%q) = %q, want unchanged", plain, got)
	}
}
