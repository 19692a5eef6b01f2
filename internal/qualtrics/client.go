package qualtrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"qxcli/internal/config"
	apperrors "qxcli/internal/errors"
)

const userAgent = "qxcli-export-client/1.0"

// Client issues authenticated requests against the export-responses endpoints
// of one survey. It is safe for sequential reuse; exactly one export job runs
// per invocation of the program.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	baseURL    string
	apiToken   string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the derived endpoint base, for tests against a mock platform
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRateLimit caps outbound requests per second
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewClient creates a client for the survey named in the credentials.
// The data-center identifier forms part of the API base address.
func NewClient(creds config.QualtricsConfig, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(3), 1),
		logger:     slog.Default(),
		baseURL: fmt.Sprintf("https://%s.qualtrics.com/API/v3/surveys/%s/export-responses",
			creds.Datacenter, creds.SurveyID),
		apiToken: creds.APIToken,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartExport issues the job-creation request and returns the opaque progress ID
func (c *Client) StartExport(ctx context.Context, req ExportRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", apperrors.NewNetworkError("failed to encode export request", err)
	}

	respBody, err := c.do(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var resp startExportResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", apperrors.NewParsingError("malformed start-export response", err)
	}
	if resp.Result.ProgressID == "" {
		return "", apperrors.NewParsingError("start-export response carries no progress ID", nil)
	}

	c.logger.InfoContext(ctx, "Export job started",
		slog.String("progress_id", resp.Result.ProgressID),
		slog.String("request_id", resp.Meta.RequestID))

	return resp.Result.ProgressID, nil
}

// ExportProgress queries the status of a running export job
func (c *Client) ExportProgress(ctx context.Context, progressID string) (Progress, error) {
	respBody, err := c.do(ctx, http.MethodGet, c.baseURL+"/"+progressID, nil)
	if err != nil {
		return Progress{}, err
	}

	var resp exportProgressResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return Progress{}, apperrors.NewParsingError("malformed export-progress response", err)
	}

	return Progress{
		PercentComplete: resp.Result.PercentComplete,
		Status:          resp.Result.Status,
		FileID:          resp.Result.FileID,
	}, nil
}

// WaitUntilComplete polls the export job at a fixed interval until it reaches
// a terminal status. It returns the downloadable file ID on success, an
// EXPORT_FAILED error when the platform reports failure, and a TIMEOUT error
// once the deadline passes; after the deadline no further polls are issued.
// Transient poll failures are absorbed by the loop's natural repetition.
func (c *Client) WaitUntilComplete(ctx context.Context, progressID string, interval, timeout time.Duration) (string, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	polls := 0
	for {
		progress, err := c.ExportProgress(ctx, progressID)
		polls++
		switch {
		case err == nil:
			c.logger.InfoContext(ctx, "Export progress",
				slog.Float64("percent_complete", progress.PercentComplete),
				slog.String("status", progress.Status),
				slog.Int("polls", polls))

			if progress.Complete() {
				if progress.FileID == "" {
					return "", apperrors.NewParsingError("completed export carries no file ID", nil)
				}
				return progress.FileID, nil
			}
			if progress.Failed() {
				return "", apperrors.NewExportFailedError(
					fmt.Sprintf("platform reported export job %s as %s", progressID, progress.Status))
			}
		case apperrors.IsType(err, apperrors.ErrTypeNetwork):
			c.logger.WarnContext(ctx, "Transient poll failure",
				slog.String("progress_id", progressID),
				slog.String("error", err.Error()))
		default:
			return "", err
		}

		select {
		case <-deadline.C:
			return "", apperrors.NewTimeoutError(
				fmt.Sprintf("export job %s did not finish within %s", progressID, timeout))
		case <-ctx.Done():
			return "", apperrors.NewTimeoutError("export polling cancelled").WithContext("cause", ctx.Err())
		case <-time.After(interval):
		}
	}
}

// DownloadArchive retrieves the completed export payload
func (c *Client) DownloadArchive(ctx context.Context, fileID string) ([]byte, error) {
	payload, err := c.do(ctx, http.MethodGet, c.baseURL+"/"+fileID+"/file", nil)
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "Export archive downloaded",
		slog.String("file_id", fileID),
		slog.Int("size_bytes", len(payload)))

	return payload, nil
}

// do performs one rate-limited round trip and maps HTTP failures onto the
// application error taxonomy.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewNetworkError("rate limiter interrupted", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to create request", err)
	}
	req.Header.Set("X-API-TOKEN", c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read response body", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return respBody, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperrors.NewAuthError("platform rejected the API token", nil).
			WithContext("status_code", resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.NewNotFoundError("survey or export resource").
			WithContext("status_code", resp.StatusCode).
			WithContext("url", url)
	default:
		// 5xx and the remaining 4xx (e.g. 429) are treated as transient
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil).
			WithContext("status_code", resp.StatusCode)
	}
}
