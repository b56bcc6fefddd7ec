package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/coachlift/internal/matching"
	"github.com/claude/coachlift/internal/models"
)

// HTTPClient implements DataSource by calling the CoachLift REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time checks: HTTPClient satisfies DataSource and NameResolver.
var (
	_ DataSource   = (*HTTPClient)(nil)
	_ NameResolver = (*HTTPClient)(nil)
)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
// The API key is sent on program endpoints, which require it.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) (int, []byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	return resp.StatusCode, body, nil
}

func (c *HTTPClient) SearchExercises(ctx context.Context, query string, limit int) ([]models.ExerciseRecord, error) {
	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	status, body, err := c.get(ctx, "/api/v1/exercises/search", params)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("httpclient: search returned %d: %s", status, body)
	}

	var results []models.ExerciseRecord
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("httpclient: decode search results: %w", err)
	}
	return results, nil
}

func (c *HTTPClient) ListPrograms(ctx context.Context, coachID string) ([]models.ProgramRow, error) {
	params := url.Values{}
	params.Set("coach_id", coachID)

	status, body, err := c.get(ctx, "/api/v1/programs/", params)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("httpclient: list programs returned %d: %s", status, body)
	}

	var rows []models.ProgramRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("httpclient: decode programs: %w", err)
	}
	return rows, nil
}

// Resolve reconciles one name via the match endpoint. Matching never
// errors by contract, so transport failures degrade to an unmatched
// result carrying the normalized name.
func (c *HTTPClient) Resolve(ctx context.Context, name string, opts matching.Options) models.ExerciseMatch {
	unmatched := models.ExerciseMatch{OriginalName: name, SuggestedName: matching.Normalize(name)}

	payload, err := json.Marshal(map[string]any{
		"names":       []string{name},
		"coach_id":    opts.CoachID,
		"auto_create": opts.AutoCreate,
	})
	if err != nil {
		return unmatched
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/exercises/match", bytes.NewReader(payload))
	if err != nil {
		return unmatched
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return unmatched
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		return unmatched
	}

	var decoded struct {
		Matches []models.ExerciseMatch `json:"matches"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil || len(decoded.Matches) == 0 {
		return unmatched
	}
	return decoded.Matches[0]
}

func (c *HTTPClient) GetProgram(ctx context.Context, programID, coachID string) (*models.ProgramRow, error) {
	params := url.Values{}
	params.Set("coach_id", coachID)

	status, body, err := c.get(ctx, "/api/v1/programs/"+url.PathEscape(programID), params)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("httpclient: get program returned %d: %s", status, body)
	}

	var row models.ProgramRow
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, fmt.Errorf("httpclient: decode program: %w", err)
	}
	return &row, nil
}
