package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/claude/coachlift/internal/matching"
	"github.com/claude/coachlift/internal/models"
)

type fakeUploader struct {
	url     string
	err     error
	calls   int
	names   []string
	payload []byte
}

func (f *fakeUploader) Upload(_ context.Context, _, filename string, content io.Reader) (string, error) {
	f.calls++
	f.names = append(f.names, filename)
	f.payload, _ = io.ReadAll(content)
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type fakeExtractor struct {
	markdown string
	err      error
	urls     []string
}

func (f *fakeExtractor) Extract(_ context.Context, pdfURL string) (string, error) {
	f.urls = append(f.urls, pdfURL)
	return f.markdown, f.err
}

type fakeParser struct {
	program *models.ProgramStructure
	err     error
}

func (f *fakeParser) Parse(context.Context, string) (*models.ProgramStructure, error) {
	return f.program, f.err
}

type fakeMatcher struct {
	names []string
}

func (f *fakeMatcher) MatchAll(_ context.Context, names []string, _ matching.Options) []models.ExerciseMatch {
	f.names = names
	results := make([]models.ExerciseMatch, len(names))
	for i, n := range names {
		results[i] = models.ExerciseMatch{OriginalName: n, Confidence: 1.0}
	}
	return results
}

func testProgram() *models.ProgramStructure {
	return &models.ProgramStructure{
		Title:         "Parsed Title",
		Description:   "parsed description",
		DurationWeeks: 8,
		Weeks: []models.Week{
			{WeekNumber: 1, Days: []models.Day{
				{DayNumber: 1, Name: "Upper", WorkoutType: models.WorkoutStrength, Exercises: []models.Exercise{
					{Name: "Squat"}, {Name: "Bench"},
				}},
				{DayNumber: 2, Name: "Lower", WorkoutType: models.WorkoutStrength, Exercises: []models.Exercise{
					{Name: "Row"}, {Name: "Squat"}, // duplicate across days
				}},
			}},
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestRunHappyPath verifies the full stage sequence with no skipped or
// repeated stage, plus the de-duplicated match count.
func TestRunHappyPath(t *testing.T) {
	up := &fakeUploader{url: "https://bucket/coach-1/plan.pdf"}
	ex := &fakeExtractor{markdown: "# plan"}
	pa := &fakeParser{program: testProgram()}
	ma := &fakeMatcher{}

	r := NewRunner(up, ex, pa, ma, testLogger())
	var stages []Stage
	r.OnStage = func(s *Session) { stages = append(stages, s.Stage) }

	s := NewSession("coach-1", FormInfo{})
	err := r.Run(context.Background(), s, &File{Name: "plan.pdf", Content: []byte("%PDF")})
	if err != nil {
		t.Fatal(err)
	}

	want := []Stage{StageUploading, StageExtracting, StageParsing, StageMatching, StageDone}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("stages = %v, want %v", stages, want)
		}
	}

	if s.Program == nil {
		t.Fatal("program is nil after done")
	}
	// Squat appears twice in the program; matches must be de-duplicated.
	if len(s.Matches) != 3 {
		t.Errorf("matches = %d, want 3", len(s.Matches))
	}
	wantNames := []string{"Squat", "Bench", "Row"}
	for i, n := range wantNames {
		if ma.names[i] != n {
			t.Errorf("matcher input[%d] = %q, want %q", i, ma.names[i], n)
		}
	}
	if ex.urls[0] != "https://bucket/coach-1/plan.pdf" {
		t.Errorf("extractor received %q", ex.urls[0])
	}
	if string(up.payload) != "%PDF" {
		t.Errorf("uploaded payload = %q", up.payload)
	}
}

// TestRunOverlaysFormInfo verifies coach-entered values win over parsed
// ones, and absent form values leave the parsed values alone.
func TestRunOverlaysFormInfo(t *testing.T) {
	pa := &fakeParser{program: testProgram()}
	r := NewRunner(&fakeUploader{url: "u"}, &fakeExtractor{markdown: "m"}, pa, &fakeMatcher{}, testLogger())

	form := FormInfo{
		Title:      "Coach Title",
		Difficulty: models.DifficultyAdvanced,
		Focus:      []string{"conditioning"},
	}
	s := NewSession("coach-1", form)
	if err := r.Run(context.Background(), s, &File{Name: "p.pdf"}); err != nil {
		t.Fatal(err)
	}

	if s.Program.Title != "Coach Title" {
		t.Errorf("title = %q, want overlay", s.Program.Title)
	}
	if s.Program.Difficulty != models.DifficultyAdvanced {
		t.Errorf("difficulty = %q", s.Program.Difficulty)
	}
	if s.Program.Description != "parsed description" {
		t.Errorf("description should keep parsed value, got %q", s.Program.Description)
	}
	if s.Program.DurationWeeks != 8 {
		t.Errorf("durationWeeks should keep parsed value, got %d", s.Program.DurationWeeks)
	}
}

// TestRunExtractionFailure verifies the direct transition to error with
// the underlying message preserved verbatim.
func TestRunExtractionFailure(t *testing.T) {
	ex := &fakeExtractor{err: errors.New("pdf extraction failed (502): upstream OCR unavailable")}
	r := NewRunner(&fakeUploader{url: "u"}, ex, &fakeParser{}, &fakeMatcher{}, testLogger())

	s := NewSession("coach-1", FormInfo{})
	err := r.Run(context.Background(), s, &File{Name: "p.pdf"})

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StageError", err)
	}
	if se.Stage != StageExtracting {
		t.Errorf("failed stage = %q, want extracting", se.Stage)
	}
	if s.Stage != StageFailed {
		t.Errorf("session stage = %q, want error", s.Stage)
	}
	if s.ErrorMsg != "pdf extraction failed (502): upstream OCR unavailable" {
		t.Errorf("error message not preserved verbatim: %q", s.ErrorMsg)
	}
	if s.Program != nil || s.Matches != nil {
		t.Error("failed run must not leave partial results")
	}
}

// TestStageValues pins the client-facing stage strings; status payloads
// and the failed state's "error" value are part of the API contract.
func TestStageValues(t *testing.T) {
	want := map[Stage]string{
		StageIdle:       "idle",
		StageUploading:  "uploading",
		StageExtracting: "extracting",
		StageParsing:    "parsing",
		StageMatching:   "matching",
		StageDone:       "done",
		StageFailed:     "error",
	}
	for stage, str := range want {
		if string(stage) != str {
			t.Errorf("stage %q, want %q", stage, str)
		}
	}
}

// TestRetryReusesFile verifies retry re-enters at uploading with the
// previously selected file.
func TestRetryReusesFile(t *testing.T) {
	up := &fakeUploader{url: "u"}
	ex := &fakeExtractor{err: errors.New("boom")}
	r := NewRunner(up, ex, &fakeParser{program: testProgram()}, &fakeMatcher{}, testLogger())

	s := NewSession("coach-1", FormInfo{})
	if err := r.Run(context.Background(), s, &File{Name: "plan.pdf", Content: []byte("%PDF")}); err == nil {
		t.Fatal("expected first run to fail")
	}

	var stages []Stage
	r.OnStage = func(s *Session) { stages = append(stages, s.Stage) }
	ex.err = nil
	ex.markdown = "# plan"

	if err := r.Retry(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	if stages[0] != StageUploading {
		t.Errorf("retry entered at %q, want uploading", stages[0])
	}
	if up.calls != 2 || up.names[1] != "plan.pdf" {
		t.Errorf("retry did not re-upload the retained file: calls=%d names=%v", up.calls, up.names)
	}
	if s.Stage != StageDone {
		t.Errorf("stage = %q, want done", s.Stage)
	}
	if s.ErrorMsg != "" {
		t.Errorf("error message not cleared: %q", s.ErrorMsg)
	}
}

// TestRetryWithoutFile verifies retry refuses to run with no retained
// file.
func TestRetryWithoutFile(t *testing.T) {
	r := NewRunner(&fakeUploader{}, &fakeExtractor{}, &fakeParser{}, &fakeMatcher{}, testLogger())
	s := NewSession("coach-1", FormInfo{})
	if err := r.Retry(context.Background(), s); err == nil {
		t.Fatal("expected error")
	}
}

// TestRunRefusesOverlap verifies a session mid-run cannot start another
// run.
func TestRunRefusesOverlap(t *testing.T) {
	r := NewRunner(&fakeUploader{}, &fakeExtractor{}, &fakeParser{}, &fakeMatcher{}, testLogger())
	s := NewSession("coach-1", FormInfo{})
	s.Stage = StageParsing

	if err := r.Run(context.Background(), s, &File{Name: "p.pdf"}); err == nil {
		t.Fatal("expected error for overlapping run")
	}
}
