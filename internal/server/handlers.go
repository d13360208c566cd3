package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fitlink/fitstats/internal/catalog"
	"github.com/fitlink/fitstats/internal/ingest"
	"github.com/fitlink/fitstats/internal/models"
	"github.com/fitlink/fitstats/internal/stats"
	"github.com/fitlink/fitstats/internal/storage"
)

const topImprovementLimit = 5

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)

	// A repeated exerciseId parameter is ambiguous and rejected outright.
	filters := r.URL.Query()["exerciseId"]
	if len(filters) > 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exerciseId may be given at most once"})
		return
	}
	var exerciseFilter string
	if len(filters) == 1 {
		exerciseFilter = filters[0]
	}

	result, err := s.stats.Statistics(r.Context(), uid, exerciseFilter)
	if err != nil {
		s.log.Error("statistics failed", "user_id", uid, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleImprovement(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	showAll := r.URL.Query().Get("showAll") == "true"

	results, err := s.stats.Improvement(r.Context(), uid)
	if err != nil {
		s.log.Error("improvement failed", "user_id", uid, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	if showAll {
		writeJSON(w, http.StatusOK, results)
		return
	}
	writeJSON(w, http.StatusOK, stats.TopImprovements(results, topImprovementLimit))
}

func (s *Server) handleWeightHistory(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	points, err := s.stats.WeightHistory(r.Context(), uid)
	if err != nil {
		s.log.Error("weight history failed", "user_id", uid, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleSetWeight(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)

	var req struct {
		WeightKg float64 `json:"weightKg"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.WeightKg <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "weightKg must be positive"})
		return
	}

	changed, err := s.db.SetUserWeight(r.Context(), uid, req.WeightKg)
	if err != nil {
		s.log.Error("weight update failed", "user_id", uid, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"weightKg": req.WeightKg, "changed": changed})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	sessions, err := s.db.FetchSessionsForUser(r.Context(), uid)
	if err != nil {
		s.log.Error("listing sessions failed", "user_id", uid, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if sessions == nil {
		sessions = []models.TrainingSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session id"})
		return
	}

	session, err := s.db.GetSession(r.Context(), id, uid)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if err != nil {
		s.log.Error("fetching session failed", "user_id", uid, "session_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)

	var payload ingest.SessionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	result, err := s.ingest.Ingest(r.Context(), uid, []ingest.SessionPayload{payload}, "api")
	if errors.Is(err, ingest.ErrInvalidSession) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.log.Error("session creation failed", "user_id", uid, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session id"})
		return
	}

	err = s.db.DeleteSession(r.Context(), id, uid)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if err != nil {
		s.log.Error("deleting session failed", "user_id", uid, "session_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)

	var payloads []ingest.SessionPayload
	if err := json.NewDecoder(r.Body).Decode(&payloads); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	result, err := s.ingest.Ingest(r.Context(), uid, payloads, "import")
	if errors.Is(err, ingest.ErrInvalidSession) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.log.Error("ingest failed", "user_id", uid, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleIngestLogs(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.db.QueryIngestLogs(r.Context(), uid, limit)
	if err != nil {
		s.log.Error("querying ingest logs failed", "user_id", uid, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if logs == nil {
		logs = []storage.IngestLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// Exercise browse endpoints read straight from the external catalog; unlike
// the statistics path there is nothing to degrade to, so catalog failures
// surface as 502.

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.catalog.FetchAll(r.Context())
	if err != nil {
		s.log.Error("exercise catalog fetch failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "exercise catalog unavailable"})
		return
	}
	if target := r.URL.Query().Get("target"); target != "" {
		exercises = catalog.FilterByTarget(exercises, target)
	}
	if exercises == nil {
		exercises = []catalog.Exercise{}
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleExerciseTargets(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.catalog.FetchAll(r.Context())
	if err != nil {
		s.log.Error("exercise catalog fetch failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "exercise catalog unavailable"})
		return
	}
	targets := catalog.SortedTargets(exercises)
	if targets == nil {
		targets = []string{}
	}
	writeJSON(w, http.StatusOK, targets)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := s.catalog.FetchByID(r.Context(), id)
	if err != nil {
		s.log.Error("exercise catalog fetch failed", "exercise_id", id, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "exercise catalog unavailable"})
		return
	}
	if e == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "exercise not found"})
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
