// Package pipeline sequences the program ingestion stages: upload,
// markdown extraction, structure parsing, and exercise matching. A
// Session owns all mutable pipeline state; everything else is a
// stateless collaborator injected into the Runner.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/claude/coachlift/internal/matching"
	"github.com/claude/coachlift/internal/models"
)

// Stage is one discrete step of the ingestion state machine.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageUploading  Stage = "uploading"
	StageExtracting Stage = "extracting"
	StageParsing    Stage = "parsing"
	StageMatching   Stage = "matching"
	StageDone       Stage = "done"
	StageFailed     Stage = "error"
)

// StageError wraps the underlying failure with the stage it happened in.
// The message text is preserved verbatim for operator display.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return e.Err.Error() }
func (e *StageError) Unwrap() error { return e.Err }

// Uploader stores the selected PDF and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, coachID, filename string, content io.Reader) (string, error)
}

// Extractor converts an uploaded PDF URL into markdown text.
type Extractor interface {
	Extract(ctx context.Context, pdfURL string) (string, error)
}

// StructureParser converts markdown into a validated program structure.
type StructureParser interface {
	Parse(ctx context.Context, markdown string) (*models.ProgramStructure, error)
}

// Matcher reconciles exercise names against the canonical database.
type Matcher interface {
	MatchAll(ctx context.Context, names []string, opts matching.Options) []models.ExerciseMatch
}

// FormInfo is the coach-entered metadata overlaid onto the parsed
// program. Non-empty values win over what the model inferred.
type FormInfo struct {
	Title         string
	Description   string
	DurationWeeks int
	Difficulty    models.Difficulty
	Focus         []string
	Equipment     []string
}

// File is the selected PDF. Content must be re-readable for retry, so
// it is held as bytes rather than a stream.
type File struct {
	Name    string
	Content []byte
}

// Session holds one pipeline run's state. Created per upload attempt,
// discarded on reset; never shared across runs.
type Session struct {
	CoachID  string
	Form     FormInfo
	File     *File
	PDFURL   string
	Program  *models.ProgramStructure
	Matches  []models.ExerciseMatch
	Stage    Stage
	ErrorMsg string
}

// NewSession creates an idle session for the given coach.
func NewSession(coachID string, form FormInfo) *Session {
	return &Session{CoachID: coachID, Form: form, Stage: StageIdle}
}

// InProgress reports whether a run is currently underway.
func (s *Session) InProgress() bool {
	switch s.Stage {
	case StageUploading, StageExtracting, StageParsing, StageMatching:
		return true
	}
	return false
}

// Runner drives a Session through the pipeline.
type Runner struct {
	uploader  Uploader
	extractor Extractor
	parser    StructureParser
	matcher   Matcher
	log       *slog.Logger

	// OnStage, when set, is invoked on every stage transition. Used by
	// the serving layer to publish progress.
	OnStage func(s *Session)
}

// NewRunner wires the pipeline's collaborators.
func NewRunner(uploader Uploader, extractor Extractor, parser StructureParser, matcher Matcher, log *slog.Logger) *Runner {
	return &Runner{
		uploader:  uploader,
		extractor: extractor,
		parser:    parser,
		matcher:   matcher,
		log:       log,
	}
}

// Run executes the full pipeline for the given file. A session already
// in progress refuses a new run; a finished or failed session may be
// re-run, which restarts from uploading.
func (r *Runner) Run(ctx context.Context, s *Session, file *File) error {
	if s.InProgress() {
		return fmt.Errorf("pipeline already in progress (stage %s)", s.Stage)
	}
	s.File = file
	return r.run(ctx, s)
}

// Retry re-runs the entire pipeline with the previously selected file.
func (r *Runner) Retry(ctx context.Context, s *Session) error {
	if s.File == nil {
		return fmt.Errorf("no file selected")
	}
	if s.InProgress() {
		return fmt.Errorf("pipeline already in progress (stage %s)", s.Stage)
	}
	return r.run(ctx, s)
}

func (r *Runner) run(ctx context.Context, s *Session) error {
	s.ErrorMsg = ""
	s.Program = nil
	s.Matches = nil

	// Stage 1: upload the PDF to object storage.
	r.transition(s, StageUploading)
	url, err := r.uploader.Upload(ctx, s.CoachID, s.File.Name, bytes.NewReader(s.File.Content))
	if err != nil {
		return r.fail(s, StageUploading, err)
	}
	s.PDFURL = url

	// Stage 2: extract markdown.
	r.transition(s, StageExtracting)
	markdown, err := r.extractor.Extract(ctx, s.PDFURL)
	if err != nil {
		return r.fail(s, StageExtracting, err)
	}

	// Stage 3: parse the structure, then overlay coach-entered metadata.
	r.transition(s, StageParsing)
	program, err := r.parser.Parse(ctx, markdown)
	if err != nil {
		return r.fail(s, StageParsing, err)
	}
	overlayFormInfo(program, s.Form)
	s.Program = program

	// Stage 4: match exercise names. Auto-create stays off in the
	// interactive flow; unmatched names are surfaced for review instead.
	r.transition(s, StageMatching)
	names := program.ExerciseNames()
	s.Matches = r.matcher.MatchAll(ctx, names, matching.Options{CoachID: s.CoachID})

	r.transition(s, StageDone)
	r.log.Info("pipeline complete",
		"coach", s.CoachID,
		"title", program.Title,
		"weeks", len(program.Weeks),
		"exercises", len(names),
	)
	return nil
}

func (r *Runner) transition(s *Session, stage Stage) {
	s.Stage = stage
	if r.OnStage != nil {
		r.OnStage(s)
	}
}

func (r *Runner) fail(s *Session, stage Stage, err error) error {
	s.ErrorMsg = err.Error()
	r.transition(s, StageFailed)
	r.log.Error("pipeline stage failed", "stage", stage, "error", err)
	return &StageError{Stage: stage, Err: err}
}

// overlayFormInfo merges coach-entered metadata onto the parsed program.
// User-entered values take precedence when present and non-empty.
func overlayFormInfo(p *models.ProgramStructure, form FormInfo) {
	if form.Title != "" {
		p.Title = form.Title
	}
	if form.Description != "" {
		p.Description = form.Description
	}
	if form.DurationWeeks > 0 {
		p.DurationWeeks = form.DurationWeeks
	}
	if form.Difficulty != "" {
		p.Difficulty = form.Difficulty
	}
	if len(form.Focus) > 0 {
		p.Focus = form.Focus
	}
	if len(form.Equipment) > 0 {
		p.Equipment = form.Equipment
	}
}

