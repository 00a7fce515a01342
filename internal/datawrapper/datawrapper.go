// Package datawrapper publishes chart tables to the Datawrapper API.
package datawrapper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/huangsam/liftwatch/internal/contract"
	"github.com/huangsam/liftwatch/schema"
)

// Step names one call of the publish sequence.
type Step string

// All publish steps, in the order they run.
const (
	UploadStep  Step = "upload-data"
	TitleStep   Step = "update-title"
	PublishStep Step = "publish"
)

// maxErrorBody caps how much of an error response is kept for diagnostics.
const maxErrorBody = 512

// PublishError reports which step of the publish sequence failed for which chart.
// Steps before the failing one are not rolled back.
type PublishError struct {
	ChartID    string
	Step       Step
	StatusCode int // zero for transport failures
	Err        error
}

func (e *PublishError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("chart %s: %s: HTTP %d: %v", e.ChartID, e.Step, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("chart %s: %s: %v", e.ChartID, e.Step, e.Err)
}

// FailedStep returns the name of the call that failed.
func (e *PublishError) FailedStep() string {
	return string(e.Step)
}

// Unwrap exposes both the ErrPublish sentinel and the underlying cause.
func (e *PublishError) Unwrap() []error {
	return []error{schema.ErrPublish, e.Err}
}

// Config holds the settings of a Client. Token is required.
type Config struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// Client talks to the Datawrapper v3 API.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

var _ contract.ChartPublisher = &Client{} // Compile-time check

// NewClient validates the config and returns a client. An empty token fails before
// any network call is made.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, fmt.Errorf("%w: datawrapper token is empty", schema.ErrMissingCredential)
	}
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = contract.DefaultDatawrapperBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = contract.DefaultTimeout
	}
	return &Client{
		token:   token,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("component", "datawrapper"),
	}, nil
}

// Publish replaces the chart data, sets the title and publishes the chart.
// The first failing step stops the sequence.
func (c *Client) Publish(ctx context.Context, chartID string, table schema.ChartTable, title string) error {
	payload, err := table.CSV()
	if err != nil {
		return &PublishError{ChartID: chartID, Step: UploadStep, Err: err}
	}

	// 1. Replace the chart data
	if err := c.do(ctx, chartID, UploadStep, http.MethodPut, "/data", "text/csv", payload); err != nil {
		return err
	}

	// 2. Update the title
	meta, err := json.Marshal(map[string]string{"title": title})
	if err != nil {
		return &PublishError{ChartID: chartID, Step: TitleStep, Err: err}
	}
	if err := c.do(ctx, chartID, TitleStep, http.MethodPatch, "", "application/json", meta); err != nil {
		return err
	}

	// 3. Publish
	if err := c.do(ctx, chartID, PublishStep, http.MethodPost, "/publish", "", nil); err != nil {
		return err
	}

	c.logger.Info("chart published", "chart", chartID, "title", title, "rows", table.Len())
	return nil
}

// do issues one authenticated call against /v3/charts/{id}{suffix}.
func (c *Client) do(ctx context.Context, chartID string, step Step, method, suffix, contentType string, body []byte) error {
	endpoint := fmt.Sprintf("%s/v3/charts/%s%s", c.baseURL, url.PathEscape(chartID), suffix)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &PublishError{ChartID: chartID, Step: step, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &PublishError{ChartID: chartID, Step: step, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	c.logger.Debug("datawrapper request", "method", method, "url", endpoint, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(respBody))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &PublishError{ChartID: chartID, Step: step, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}
	return nil
}
