package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/coachlift/internal/matching"
	"github.com/claude/coachlift/internal/models"
	"github.com/claude/coachlift/internal/pipeline"
)

const testAPIKey = "test-key"

type fakeStore struct {
	exercises []models.ExerciseRecord
	programs  map[string]*models.ProgramRow
	searchErr error
	inserted  []*models.ProgramRow
}

func (f *fakeStore) SearchExercises(_ context.Context, query string, limit int) ([]models.ExerciseRecord, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []models.ExerciseRecord
	for _, e := range f.exercises {
		if strings.Contains(e.NameNormalized, query) && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertProgram(_ context.Context, coachID, title, pdfURL string, structure *models.ProgramStructure) (*models.ProgramRow, error) {
	row := &models.ProgramRow{
		ID: "prog-1", CoachID: coachID, Title: title, Status: models.ProgramDraft,
		PDFURL: pdfURL, Structure: structure,
	}
	f.inserted = append(f.inserted, row)
	return row, nil
}

func (f *fakeStore) GetProgram(_ context.Context, programID, coachID string) (*models.ProgramRow, error) {
	p := f.programs[programID]
	if p == nil || p.CoachID != coachID {
		return nil, nil
	}
	return p, nil
}

func (f *fakeStore) ListPrograms(_ context.Context, coachID string) ([]models.ProgramRow, error) {
	var out []models.ProgramRow
	for _, p := range f.programs {
		if p.CoachID == coachID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateProgramStatus(_ context.Context, programID, coachID string, status models.ProgramStatus) (bool, error) {
	p := f.programs[programID]
	if p == nil || p.CoachID != coachID {
		return false, nil
	}
	p.Status = status
	return true, nil
}

func (f *fakeStore) DeleteProgram(_ context.Context, programID, coachID string) (bool, error) {
	p := f.programs[programID]
	if p == nil || p.CoachID != coachID {
		return false, nil
	}
	delete(f.programs, programID)
	return true, nil
}

type fakeResolver struct{ got matching.Options }

func (f *fakeResolver) MatchAll(_ context.Context, names []string, opts matching.Options) []models.ExerciseMatch {
	f.got = opts
	out := make([]models.ExerciseMatch, 0, len(names))
	for _, n := range names {
		out = append(out, models.ExerciseMatch{OriginalName: n, SuggestedName: matching.Normalize(n)})
	}
	return out
}

type fakeUploader struct{ url string }

func (f *fakeUploader) Upload(_ context.Context, coachID, filename string, _ io.Reader) (string, error) {
	return f.url, nil
}

type fakeExtractor struct {
	markdown string
	err      error
}

func (f *fakeExtractor) Extract(_ context.Context, _ string) (string, error) {
	return f.markdown, f.err
}

type fakeParser struct{ program *models.ProgramStructure }

func (f *fakeParser) Parse(_ context.Context, _ string) (*models.ProgramStructure, error) {
	return f.program, nil
}

func testProgram() *models.ProgramStructure {
	return &models.ProgramStructure{
		Title:         "Strength Block",
		DurationWeeks: 1,
		Weeks: []models.Week{{
			WeekNumber: 1,
			Days: []models.Day{{
				DayNumber: 1,
				Exercises: []models.Exercise{{Name: "Back Squat"}, {Name: "Bench Press"}},
			}},
		}},
	}
}

func testServer(t *testing.T, store Store, extractErr error) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := pipeline.NewRunner(
		&fakeUploader{url: "https://cdn.example.com/c1/plan.pdf"},
		&fakeExtractor{markdown: "# Plan", err: extractErr},
		&fakeParser{program: testProgram()},
		&fakeResolver{},
		log,
	)
	return New(store, runner, &fakeResolver{}, testAPIKey, log)
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(content)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

// waitForStage polls an import's status endpoint until the run settles.
func waitForStage(t *testing.T, s *Server, id string, want pipeline.Stage) ImportStatus {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/imports/"+id, nil)
		req.Header.Set("X-API-Key", testAPIKey)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		var status ImportStatus
		if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		if status.Stage == want {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("import %s never reached stage %s", id, want)
	return ImportStatus{}
}

func startImport(t *testing.T, s *Server, fields map[string]string) ImportStatus {
	t.Helper()
	body, contentType := multipartBody(t, fields, "plan.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("start import status = %d, body %s", rec.Code, rec.Body.String())
	}
	var status ImportStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.ID == "" {
		t.Fatal("import ID missing")
	}
	return status
}

// TestImportLifecycle runs an import end to end through the HTTP
// surface and then saves the result as a draft program.
func TestImportLifecycle(t *testing.T) {
	store := &fakeStore{programs: map[string]*models.ProgramRow{}}
	s := testServer(t, store, nil)

	started := startImport(t, s, map[string]string{"coach_id": "c1", "title": "My Block"})
	status := waitForStage(t, s, started.ID, pipeline.StageDone)

	if status.Program == nil {
		t.Fatal("program missing from completed import")
	}
	if status.Program.Title != "My Block" {
		t.Errorf("title = %q, want form override %q", status.Program.Title, "My Block")
	}
	if status.Summary == nil || status.Summary.Total != 2 {
		t.Fatalf("summary = %+v, want 2 matches", status.Summary)
	}
	if status.PDFURL != "https://cdn.example.com/c1/plan.pdf" {
		t.Errorf("pdf_url = %q", status.PDFURL)
	}

	// Save as draft
	saveBody, _ := json.Marshal(map[string]string{"import_id": started.ID})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/programs", bytes.NewReader(saveBody))
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(store.inserted) != 1 {
		t.Fatalf("inserted %d programs, want 1", len(store.inserted))
	}
	saved := store.inserted[0]
	if saved.CoachID != "c1" || saved.Status != models.ProgramDraft {
		t.Errorf("saved = coach %q status %q", saved.CoachID, saved.Status)
	}
}

// TestImportFailureAndRetry drives an import into the error state and
// verifies retry is accepted afterwards.
func TestImportFailureAndRetry(t *testing.T) {
	store := &fakeStore{}
	s := testServer(t, store, errors.New("backend unreachable"))

	started := startImport(t, s, map[string]string{"coach_id": "c1"})
	status := waitForStage(t, s, started.ID, pipeline.StageFailed)

	if status.Error != "backend unreachable" {
		t.Errorf("error = %q, want verbatim message", status.Error)
	}
	if status.Program != nil {
		t.Error("failed import should carry no program")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+started.ID+"/retry", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("retry status = %d", rec.Code)
	}
	waitForStage(t, s, started.ID, pipeline.StageFailed)
}

// TestStartImportValidation checks the multipart form preconditions.
func TestStartImportValidation(t *testing.T) {
	s := testServer(t, &fakeStore{}, nil)

	t.Run("missing coach_id", func(t *testing.T) {
		body, contentType := multipartBody(t, nil, "plan.pdf", []byte("%PDF"))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-API-Key", testAPIKey)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{"coach_id": "c1"}, "", nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-API-Key", testAPIKey)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("bad duration_weeks", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{"coach_id": "c1", "duration_weeks": "abc"}, "plan.pdf", []byte("%PDF"))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-API-Key", testAPIKey)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("no API key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

// TestHandleSearchExercises verifies the search endpoint passes the
// query through and requires q.
func TestHandleSearchExercises(t *testing.T) {
	store := &fakeStore{exercises: []models.ExerciseRecord{
		{ID: "e1", Name: "Bench Press", NameNormalized: "bench press"},
		{ID: "e2", Name: "Back Squat", NameNormalized: "back squat"},
	}}
	s := testServer(t, store, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exercises/search?q=bench", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var results []models.ExerciseRecord
	if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "e1" {
		t.Errorf("results = %+v, want bench press only", results)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/exercises/search", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing q: status = %d, want 400", rec.Code)
	}
}

// TestHandleMatchExercises verifies request validation and the
// summary in the response.
func TestHandleMatchExercises(t *testing.T) {
	s := testServer(t, &fakeStore{}, nil)

	body, _ := json.Marshal(matchRequest{Names: []string{"Squat", "Bench"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/exercises/match", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Matches []models.ExerciseMatch `json:"matches"`
		Summary MatchSummary           `json:"summary"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Matches) != 2 || resp.Summary.Unmatched != 2 {
		t.Errorf("matches = %d, unmatched = %d", len(resp.Matches), resp.Summary.Unmatched)
	}

	body, _ = json.Marshal(matchRequest{Names: []string{"Squat"}, AutoCreate: true})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/exercises/match", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("auto_create without coach_id: status = %d, want 400", rec.Code)
	}
}

// TestProgramEndpoints exercises list, get, publish, and delete with
// coach scoping.
func TestProgramEndpoints(t *testing.T) {
	store := &fakeStore{programs: map[string]*models.ProgramRow{
		"p1": {ID: "p1", CoachID: "c1", Title: "Block A", Status: models.ProgramDraft, Structure: testProgram()},
	}}
	s := testServer(t, store, nil)

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("X-API-Key", testAPIKey)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(http.MethodGet, "/api/v1/programs/?coach_id=c1"); rec.Code != http.StatusOK {
		t.Errorf("list status = %d", rec.Code)
	}
	if rec := do(http.MethodGet, "/api/v1/programs/p1?coach_id=c1"); rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}
	if rec := do(http.MethodGet, "/api/v1/programs/p1?coach_id=other"); rec.Code != http.StatusNotFound {
		t.Errorf("cross-coach get status = %d, want 404", rec.Code)
	}

	if rec := do(http.MethodPost, "/api/v1/programs/p1/publish?coach_id=c1"); rec.Code != http.StatusOK {
		t.Errorf("publish status = %d", rec.Code)
	}
	if store.programs["p1"].Status != models.ProgramPublished {
		t.Errorf("status after publish = %q", store.programs["p1"].Status)
	}

	if rec := do(http.MethodDelete, "/api/v1/programs/p1?coach_id=c1"); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if store.programs["p1"] != nil {
		t.Error("program not deleted")
	}
}
