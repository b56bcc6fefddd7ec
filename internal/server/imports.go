package server

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/coachlift/internal/matching"
	"github.com/claude/coachlift/internal/models"
	"github.com/claude/coachlift/internal/pipeline"
)

// maxUploadBytes caps the multipart request body. PDFs past this point
// would blow the extraction backend's limits anyway.
const maxUploadBytes = 25 << 20

// importTimeout bounds one full pipeline run.
const importTimeout = 10 * time.Minute

// ImportStatus is the client-facing view of an import job. It is a
// snapshot: the run goroutine publishes a fresh one on every stage
// transition.
type ImportStatus struct {
	ID      string                   `json:"id"`
	Stage   pipeline.Stage           `json:"stage"`
	Error   string                   `json:"error,omitempty"`
	PDFURL  string                   `json:"pdf_url,omitempty"`
	Program *models.ProgramStructure `json:"program,omitempty"`
	Matches []models.ExerciseMatch   `json:"matches,omitempty"`
	Summary *MatchSummary            `json:"summary,omitempty"`
}

// MatchSummary buckets match results by confidence so the client can
// show "3 need review" without walking the list.
type MatchSummary struct {
	Total       int `json:"total"`
	Exact       int `json:"exact"`
	Fuzzy       int `json:"fuzzy"`
	Unmatched   int `json:"unmatched"`
	NeedsReview int `json:"needs_review"`
}

func summarize(matches []models.ExerciseMatch) *MatchSummary {
	if matches == nil {
		return nil
	}
	sum := &MatchSummary{Total: len(matches)}
	for _, m := range matches {
		switch {
		case m.MatchedExercise == nil:
			sum.Unmatched++
		case m.Confidence >= 1.0:
			sum.Exact++
		default:
			sum.Fuzzy++
		}
		if m.Confidence < matching.ReviewThreshold {
			sum.NeedsReview++
		}
	}
	return sum
}

// importJob pairs a pipeline session with its published snapshot. The
// run goroutine owns the session; handlers only ever read the snapshot.
type importJob struct {
	id string

	mu      sync.Mutex
	running bool
	session *pipeline.Session
	status  ImportStatus
}

func (j *importJob) publish() {
	s := j.session
	j.status = ImportStatus{
		ID:      j.id,
		Stage:   s.Stage,
		Error:   s.ErrorMsg,
		PDFURL:  s.PDFURL,
		Program: s.Program,
		Matches: s.Matches,
		Summary: summarize(s.Matches),
	}
}

func (j *importJob) snapshot() ImportStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// tryStart flips the job into running state; a second concurrent start
// is refused.
func (j *importJob) tryStart() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return false
	}
	j.running = true
	return true
}

func (j *importJob) finish() {
	j.mu.Lock()
	j.running = false
	j.mu.Unlock()
}

type importRegistry struct {
	mu   sync.Mutex
	jobs map[string]*importJob
}

func newImportRegistry() *importRegistry {
	return &importRegistry{jobs: make(map[string]*importJob)}
}

func (r *importRegistry) add(job *importJob) {
	r.mu.Lock()
	r.jobs[job.id] = job
	r.mu.Unlock()
}

func (r *importRegistry) get(id string) *importJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[id]
}

func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form: " + err.Error()})
		return
	}

	coachID := r.FormValue("coach_id")
	if coachID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "coach_id required"})
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file required"})
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading file: " + err.Error()})
		return
	}

	form := pipeline.FormInfo{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Difficulty:  models.Difficulty(r.FormValue("difficulty")),
		Focus:       splitList(r.FormValue("focus")),
		Equipment:   splitList(r.FormValue("equipment")),
	}
	if weeks := r.FormValue("duration_weeks"); weeks != "" {
		n, err := strconv.Atoi(weeks)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "duration_weeks must be a positive integer"})
			return
		}
		form.DurationWeeks = n
	}

	job := &importJob{
		id:      uuid.NewString(),
		session: pipeline.NewSession(coachID, form),
	}
	job.publish()
	s.imports.add(job)

	file := &pipeline.File{Name: header.Filename, Content: content}
	job.tryStart()
	go s.runImport(job, func(ctx context.Context, r *pipeline.Runner) error {
		return r.Run(ctx, job.session, file)
	})

	writeJSON(w, http.StatusAccepted, job.snapshot())
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	job := s.imports.get(chi.URLParam(r, "id"))
	if job == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "import not found"})
		return
	}
	writeJSON(w, http.StatusOK, job.snapshot())
}

func (s *Server) handleRetryImport(w http.ResponseWriter, r *http.Request) {
	job := s.imports.get(chi.URLParam(r, "id"))
	if job == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "import not found"})
		return
	}
	if !job.tryStart() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "import already in progress"})
		return
	}

	go s.runImport(job, func(ctx context.Context, r *pipeline.Runner) error {
		return r.Retry(ctx, job.session)
	})

	writeJSON(w, http.StatusAccepted, job.snapshot())
}

// runImport executes one pipeline run on its own runner copy whose
// stage hook republishes the job snapshot. Callers must have claimed
// the job via tryStart.
func (s *Server) runImport(job *importJob, run func(ctx context.Context, r *pipeline.Runner) error) {
	defer job.finish()

	ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
	defer cancel()

	runner := *s.runner
	runner.OnStage = func(_ *pipeline.Session) {
		job.mu.Lock()
		job.publish()
		job.mu.Unlock()
	}

	if err := run(ctx, &runner); err != nil {
		s.log.Error("import failed", "import", job.id, "error", err)
	}
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
