// Package parser turns extracted markdown into a validated
// ProgramStructure via an LLM completion endpoint. The model's output is
// untrusted external input: it is structurally validated before a typed
// program is handed to the caller.
package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/claude/coachlift/internal/models"
)

// MaxInputChars caps markdown sent to the model, roughly 12K tokens.
// Oversized input is truncated with a visible marker rather than
// silently dropped: losing trailing content is a documented limitation.
const MaxInputChars = 50_000

// truncationMarker is appended when input exceeds MaxInputChars.
const truncationMarker = "\n\n[TRUNCATED - Document too large]"

// ValidationError reports which structural invariant the model's output
// violated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid program structure: %s: %s", e.Field, e.Reason)
}

// Parser drives the completion call, response cleanup, validation, and
// the retry policy around all three.
type Parser struct {
	completer ChatCompleter
	policy    RetryPolicy
	log       *slog.Logger
}

// New creates a Parser with the default retry policy.
func New(completer ChatCompleter, log *slog.Logger) *Parser {
	return &Parser{completer: completer, policy: DefaultRetryPolicy(), log: log}
}

// Parse converts markdown into a validated ProgramStructure. Any failure
// of the completion call, JSON decode, or validation counts as one
// failed attempt; only the exhausted-retries error propagates.
func (p *Parser) Parse(ctx context.Context, markdown string) (*models.ProgramStructure, error) {
	input := markdown
	if len(input) > MaxInputChars {
		p.log.Warn("truncating oversized input", "chars", len(input), "limit", MaxInputChars)
		input = truncate(input, MaxInputChars) + truncationMarker
	}

	var program *models.ProgramStructure
	err := p.policy.Do(ctx, func() error {
		content, err := p.completer.Complete(ctx, systemPrompt,
			"Parse this training program into structured JSON:\n\n"+input)
		if err != nil {
			return err
		}
		program, err = decodeProgram(content)
		return err
	})
	if err != nil {
		return nil, err
	}
	return program, nil
}

// truncate cuts s to at most limit bytes, backing up so the cut never
// lands inside a multi-byte rune. A split rune would reach the model as
// U+FFFD.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

var (
	openFenceRe  = regexp.MustCompile(`(?i)^` + "```" + `(?:json)?\s*\n?`)
	closeFenceRe = regexp.MustCompile(`\n?` + "```" + `\s*$`)
)

// stripFences removes optional triple-backtick wrapping from a model
// response.
func stripFences(content string) string {
	cleaned := strings.TrimSpace(content)
	cleaned = openFenceRe.ReplaceAllString(cleaned, "")
	cleaned = closeFenceRe.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// decodeProgram parses the model output as JSON and validates the
// structural invariants.
func decodeProgram(content string) (*models.ProgramStructure, error) {
	cleaned := stripFences(content)

	// Decode durationWeeks as json.Number first so a fractional value is
	// rejected instead of silently floored.
	var raw struct {
		Title         string      `json:"title"`
		DurationWeeks json.Number `json:"durationWeeks"`
		Weeks         []any       `json:"weeks"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("parsing completion output as JSON: %w", err)
	}

	if raw.Title == "" {
		return nil, &ValidationError{Field: "title", Reason: "missing or empty"}
	}
	weeksCount, err := raw.DurationWeeks.Int64()
	if err != nil {
		return nil, &ValidationError{Field: "durationWeeks", Reason: "not an integer"}
	}
	if weeksCount < 1 {
		return nil, &ValidationError{Field: "durationWeeks", Reason: "must be >= 1"}
	}
	if len(raw.Weeks) == 0 {
		return nil, &ValidationError{Field: "weeks", Reason: "missing or empty"}
	}

	var program models.ProgramStructure
	if err := json.Unmarshal([]byte(cleaned), &program); err != nil {
		return nil, fmt.Errorf("decoding program structure: %w", err)
	}
	return &program, nil
}
