package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/claude/coachlift/internal/matching"
	"github.com/claude/coachlift/internal/models"
	"github.com/claude/coachlift/internal/pipeline"
)

func (s *Server) handleSearchExercises(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q parameter required"})
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 || n > 100 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be 1-100"})
			return
		}
		limit = n
	}

	results, err := s.store.SearchExercises(r.Context(), query, limit)
	if err != nil {
		s.log.Error("exercise search error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if results == nil {
		results = []models.ExerciseRecord{}
	}
	writeJSON(w, http.StatusOK, results)
}

type matchRequest struct {
	Names      []string `json:"names"`
	CoachID    string   `json:"coach_id"`
	AutoCreate bool     `json:"auto_create"`
}

func (s *Server) handleMatchExercises(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if len(req.Names) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "names required"})
		return
	}
	if req.AutoCreate && req.CoachID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "auto_create requires coach_id"})
		return
	}

	matches := s.resolver.MatchAll(r.Context(), req.Names, matching.Options{
		AutoCreate: req.AutoCreate,
		CoachID:    req.CoachID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"matches": matches,
		"summary": summarize(matches),
	})
}

type saveProgramRequest struct {
	ImportID string `json:"import_id"`
	Title    string `json:"title"`
}

// handleSaveProgram persists a completed import as a draft program.
func (s *Server) handleSaveProgram(w http.ResponseWriter, r *http.Request) {
	var req saveProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	job := s.imports.get(req.ImportID)
	if job == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "import not found"})
		return
	}
	status := job.snapshot()
	if status.Stage != pipeline.StageDone || status.Program == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "import not complete"})
		return
	}

	title := req.Title
	if title == "" {
		title = status.Program.Title
	}

	row, err := s.store.InsertProgram(r.Context(), job.session.CoachID, title, status.PDFURL, status.Program)
	if err != nil {
		s.log.Error("save program error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	coachID := r.URL.Query().Get("coach_id")
	if coachID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "coach_id parameter required"})
		return
	}

	rows, err := s.store.ListPrograms(r.Context(), coachID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = []models.ProgramRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	coachID := r.URL.Query().Get("coach_id")
	if coachID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "coach_id parameter required"})
		return
	}

	row, err := s.store.GetProgram(r.Context(), chi.URLParam(r, "id"), coachID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if row == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "program not found"})
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handlePublishProgram(w http.ResponseWriter, r *http.Request) {
	coachID := r.URL.Query().Get("coach_id")
	if coachID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "coach_id parameter required"})
		return
	}

	ok, err := s.store.UpdateProgramStatus(r.Context(), chi.URLParam(r, "id"), coachID, models.ProgramPublished)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "program not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(models.ProgramPublished)})
}

func (s *Server) handleDeleteProgram(w http.ResponseWriter, r *http.Request) {
	coachID := r.URL.Query().Get("coach_id")
	if coachID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "coach_id parameter required"})
		return
	}

	ok, err := s.store.DeleteProgram(r.Context(), chi.URLParam(r, "id"), coachID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "program not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
