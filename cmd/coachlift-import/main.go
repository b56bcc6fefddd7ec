package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/claude/coachlift/internal/config"
	"github.com/claude/coachlift/internal/extractor"
	"github.com/claude/coachlift/internal/matching"
	"github.com/claude/coachlift/internal/models"
	"github.com/claude/coachlift/internal/objstore"
	"github.com/claude/coachlift/internal/parser"
	"github.com/claude/coachlift/internal/pipeline"
	"github.com/claude/coachlift/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	pdfPath := flag.String("file", "", "path to program PDF (required)")
	coachID := flag.String("coach", "", "coach ID owning the import (required)")
	title := flag.String("title", "", "program title override")
	autoCreate := flag.Bool("auto-create", false, "create canonical exercises for unmatched names")
	dryRun := flag.Bool("dry-run", false, "run the pipeline and report without saving the program")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *pdfPath == "" || *coachID == "" {
		fmt.Fprintf(os.Stderr, "Usage: coachlift-import -config config.yaml -file program.pdf -coach <id> [-title ...] [-auto-create] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	content, err := os.ReadFile(*pdfPath)
	if err != nil {
		log.Error("failed to read PDF", "path", *pdfPath, "error", err)
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()

	// Run migrations
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Connect database
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Pipeline collaborators
	store, err := objstore.New(ctx, cfg.Storage, log)
	if err != nil {
		log.Error("failed to init object storage", "error", err)
		os.Exit(1)
	}
	extract := extractor.NewClient(cfg.Extractor.BaseURL, cfg.Extractor.Timeout())
	completer := parser.NewOpenRouterClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout())
	parse := parser.New(completer, log)

	// The CLI is a trusted operator flow, so auto-create is allowed here
	// unlike the interactive pipeline.
	resolver := &cliMatcher{
		resolver: matching.NewResolver(db, log),
		opts:     matching.Options{AutoCreate: *autoCreate, CoachID: *coachID},
	}
	runner := pipeline.NewRunner(store, extract, parse, resolver, log)

	session := pipeline.NewSession(*coachID, pipeline.FormInfo{Title: *title})
	runner.OnStage = func(s *pipeline.Session) {
		log.Info("stage", "stage", s.Stage)
	}

	file := &pipeline.File{Name: filepath.Base(*pdfPath), Content: content}
	if err := runner.Run(ctx, session, file); err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}

	printReport(session)

	if *dryRun {
		log.Info("dry run: program not saved")
		return
	}

	row, err := db.InsertProgram(ctx, *coachID, session.Program.Title, session.PDFURL, session.Program)
	if err != nil {
		log.Error("failed to save program", "error", err)
		os.Exit(1)
	}
	log.Info("program saved", "id", row.ID, "status", row.Status)
}

// cliMatcher applies fixed options to every batch so the pipeline's
// Matcher interface stays options-free for the CLI flow.
type cliMatcher struct {
	resolver *matching.Resolver
	opts     matching.Options
}

func (m *cliMatcher) MatchAll(ctx context.Context, names []string, _ matching.Options) []models.ExerciseMatch {
	return m.resolver.MatchAll(ctx, names, m.opts)
}

func printReport(s *pipeline.Session) {
	p := s.Program
	fmt.Printf("\n%s\n", p.Title)
	if p.Description != "" {
		fmt.Printf("%s\n", p.Description)
	}
	fmt.Printf("%d weeks", p.DurationWeeks)
	if p.Difficulty != "" {
		fmt.Printf(", %s", p.Difficulty)
	}
	fmt.Println()

	for _, week := range p.Weeks {
		fmt.Printf("\nWeek %d", week.WeekNumber)
		if week.Phase != "" {
			fmt.Printf(" (%s)", week.Phase)
		}
		fmt.Println()
		for _, day := range week.Days {
			fmt.Printf("  Day %d: %s [%s]\n", day.DayNumber, day.Name, day.WorkoutType)
			for _, ex := range day.Exercises {
				fmt.Printf("    %s (%d sets)\n", ex.Name, len(ex.Sets))
			}
			for _, seg := range day.CardioSegments {
				fmt.Printf("    %s", seg.SegmentType.Label())
				if seg.DurationSeconds > 0 {
					fmt.Printf(" %s", models.FormatSegmentDuration(seg.DurationSeconds))
				}
				if seg.DistanceMeters > 0 {
					fmt.Printf(" %s", models.FormatSegmentDistance(seg.DistanceMeters))
				}
				if seg.IsOpenEnded {
					fmt.Printf(" open-ended")
				}
				if seg.RepeatCount > 1 {
					fmt.Printf(" x%d", seg.RepeatCount)
				}
				if seg.RestSeconds > 0 {
					fmt.Printf(" rest %s", models.FormatSegmentRest(seg.RestSeconds))
				}
				fmt.Println()
			}
		}
	}

	fmt.Printf("\nExercise matches (%d):\n", len(s.Matches))
	for _, m := range s.Matches {
		switch {
		case m.MatchedExercise == nil:
			fmt.Printf("  ✗ %-40s unmatched (suggested: %s)\n", m.OriginalName, m.SuggestedName)
		case m.IsNew:
			fmt.Printf("  + %-40s created\n", m.OriginalName)
		case m.Confidence < matching.ReviewThreshold:
			fmt.Printf("  ? %-40s -> %s (%.2f, needs review)\n", m.OriginalName, m.MatchedExercise.Name, m.Confidence)
		default:
			fmt.Printf("  ✓ %-40s -> %s (%.2f)\n", m.OriginalName, m.MatchedExercise.Name, m.Confidence)
		}
	}
}
