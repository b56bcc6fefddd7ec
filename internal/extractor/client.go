// Package extractor calls the PDF extraction backend, which converts an
// uploaded PDF into markdown text. The backend is a black box; any OCR
// or layout logic lives on its side.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds one extraction call. Large documents take a
// while to OCR, hence the generous deadline.
const DefaultTimeout = 120 * time.Second

// ErrTimeout reports that the extraction backend did not answer within
// the deadline.
var ErrTimeout = errors.New("pdf extraction timed out")

// ExtractionError reports a failed extraction: unreachable backend,
// non-success status, or a response without usable markdown.
type ExtractionError struct {
	Status int
	Reason string
}

func (e *ExtractionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("pdf extraction failed (%d): %s", e.Status, e.Reason)
	}
	return "pdf extraction failed: " + e.Reason
}

// Client talks to the extraction backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an extraction client for the given backend base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type extractRequest struct {
	URL string `json:"url"`
}

type extractResponse struct {
	Markdown string `json:"markdown"`
}

// Extract sends the PDF URL to the backend and returns the extracted
// markdown. It is attempted once per pipeline run; retries, if any,
// belong to the caller.
func (c *Client) Extract(ctx context.Context, pdfURL string) (string, error) {
	body, err := json.Marshal(extractRequest{URL: pdfURL})
	if err != nil {
		return "", fmt.Errorf("encoding extract request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pdf/extract", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building extract request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", ErrTimeout
		}
		return "", &ExtractionError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &ExtractionError{Status: resp.StatusCode, Reason: string(text)}
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &ExtractionError{Status: resp.StatusCode, Reason: "decoding response: " + err.Error()}
	}
	if out.Markdown == "" {
		return "", &ExtractionError{Status: resp.StatusCode, Reason: "response contains no markdown content"}
	}

	return out.Markdown, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
