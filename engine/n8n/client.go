package n8n

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"github.com/storymesh/story-mcp/engine/story"
	"github.com/storymesh/story-mcp/pkg/config"
	"github.com/storymesh/story-mcp/pkg/logger"
)

const (
	uploadWebhookPath   = "/webhook/upload-file"
	analysisWebhookPath = "/webhook/storytelling-analysis"
	executionsAPIPath   = "/api/v1/executions"

	apiKeyHeader = "X-N8N-API-KEY"

	// activeExecutionsFilter selects executions the engine has not finished.
	activeExecutionsFilter = `{"finished":false}`
)

// Client talks to the n8n workflow engine. All operations are synchronous
// request/response; transient upstream failures are retried per the
// configured bounded policy.
type Client struct {
	http              *resty.Client
	uploads           *resty.Client
	retry             retryPolicy
	graph             Graph
	uploadConcurrency int
}

// retryPolicy bounds re-attempts for transient upstream failures.
type retryPolicy struct {
	count   int
	wait    time.Duration
	maxWait time.Duration
}

// backoffFor returns the exponential wait before the given re-attempt
// (attempt 1 is the first retry), capped at maxWait.
func (p retryPolicy) backoffFor(attempt int) time.Duration {
	wait := p.wait
	for i := 1; i < attempt; i++ {
		wait *= 2
		if p.maxWait > 0 && wait >= p.maxWait {
			return p.maxWait
		}
	}
	return wait
}

// NewClient creates a client for the engine described by cfg.
func NewClient(cfg *config.EngineConfig, graph Graph) *Client {
	httpClient := newHTTPClient(cfg).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitTime).
		SetRetryMaxWaitTime(cfg.RetryMaxWaitTime)
	httpClient.AddRetryCondition(retryCondition)

	concurrency := cfg.UploadConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Client{
		http: httpClient,
		// Multipart bodies are streamed from a reader the transport cannot
		// rewind, so uploads never retry at the transport level; Upload loops
		// with a fresh reader per attempt instead.
		uploads: newHTTPClient(cfg),
		retry: retryPolicy{
			count:   cfg.RetryCount,
			wait:    cfg.RetryWaitTime,
			maxWait: cfg.RetryMaxWaitTime,
		},
		graph:             graph,
		uploadConcurrency: concurrency,
	}
}

func newHTTPClient(cfg *config.EngineConfig) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader(apiKeyHeader, cfg.APIKey.Value())
}

// retryCondition retries network errors, timeouts, rate limits, and server
// errors. Canceled requests are not re-attempted: the caller already gave up.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return retryableError(err)
	}
	if r == nil {
		return false
	}
	return retryableStatus(r.StatusCode())
}

func retryableError(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func retryableStatus(code int) bool {
	return code >= 500 || code == 429 || code == 408
}

// Graph returns the workflow graph knowledge this client maps statuses with.
func (c *Client) Graph() *Graph {
	return &c.graph
}

// StartRequest is the payload of the analysis webhook.
type StartRequest struct {
	Files         []story.MediaFile   `json:"files"`
	Themes        []story.Theme       `json:"themes"`
	OutputOptions story.OutputOptions `json:"outputOptions"`
}

type startResponse struct {
	ExecutionID ExecutionID `json:"executionId"`
}

// StartWorkflow starts a storytelling analysis and returns the engine's
// opaque execution id.
func (c *Client) StartWorkflow(ctx context.Context, req *StartRequest) (string, error) {
	log := logger.FromContext(ctx)
	result := &startResponse{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(result).
		Post(analysisWebhookPath)
	if err != nil {
		return "", fmt.Errorf("failed to start storytelling workflow: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return "", fmt.Errorf("failed to start storytelling workflow: %w", err)
	}
	if result.ExecutionID == "" {
		return "", fmt.Errorf("failed to start storytelling workflow: engine returned no execution id")
	}
	log.Info("Started storytelling workflow",
		"execution_id", result.ExecutionID, "files", len(req.Files), "themes", len(req.Themes))
	return result.ExecutionID.String(), nil
}

// UploadFile is one file to push to the engine's upload webhook.
type UploadFile struct {
	Filename    string
	Content     []byte
	ContentType string
}

// UploadResult is the engine's record of one stored file.
type UploadResult struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

type uploadResponse struct {
	FilePath string `json:"filePath"`
}

// Upload pushes a single file to the upload webhook and returns the
// server-assigned path. The bounded retry lives here rather than in the
// transport: each attempt rebuilds the multipart body from a fresh reader, so
// a retried request carries the full content instead of an exhausted stream.
func (c *Client) Upload(ctx context.Context, file UploadFile) (*UploadResult, error) {
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	var lastErr error
	for attempt := 0; attempt <= c.retry.count; attempt++ {
		if attempt > 0 {
			if err := sleepRetry(ctx, c.retry.backoffFor(attempt)); err != nil {
				return nil, fmt.Errorf("failed to upload file %q: %w", file.Filename, err)
			}
		}
		result := &uploadResponse{}
		resp, err := c.uploads.R().
			SetContext(ctx).
			SetMultipartField("file", file.Filename, contentType, bytes.NewReader(file.Content)).
			SetResult(result).
			Post(uploadWebhookPath)
		if err != nil {
			lastErr = err
			if retryableError(err) {
				continue
			}
			break
		}
		if err := checkResponse(resp); err != nil {
			lastErr = err
			if retryableStatus(resp.StatusCode()) {
				continue
			}
			break
		}
		return &UploadResult{
			Filename: file.Filename,
			Path:     result.FilePath,
			Size:     int64(len(file.Content)),
			MimeType: contentType,
		}, nil
	}
	return nil, fmt.Errorf("failed to upload file %q: %w", file.Filename, lastErr)
}

// sleepRetry waits out the backoff, aborting early when the context ends.
func sleepRetry(ctx context.Context, wait time.Duration) error {
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// UploadAll uploads the files with bounded parallelism. Uploads are
// independent, so any single failure aborts the batch with an error naming
// the failed file; there is no partial-success reporting.
func (c *Client) UploadAll(ctx context.Context, files []UploadFile) ([]UploadResult, error) {
	log := logger.FromContext(ctx)
	results := make([]UploadResult, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.uploadConcurrency)
	for i, file := range files {
		g.Go(func() error {
			res, err := c.Upload(gCtx, file)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Debug("Uploaded file batch", "count", len(files))
	return results, nil
}

// GetExecution fetches one execution record, including its run data.
func (c *Client) GetExecution(ctx context.Context, id string) (*Execution, error) {
	exec := &Execution{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("includeData", "true").
		SetResult(exec).
		Get(executionsAPIPath + "/" + id)
	if err != nil {
		return nil, fmt.Errorf("failed to get execution %s: %w", id, err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, fmt.Errorf("failed to get execution %s: %w", id, err)
	}
	return exec, nil
}

type listResponse struct {
	Data       []Execution `json:"data"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

// ListActiveExecutions returns the status of every execution the engine has
// not finished. Only unfinished executions are queried, so each status is
// forced to processing.
func (c *Client) ListActiveExecutions(ctx context.Context) ([]ExecutionStatus, error) {
	result := &listResponse{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("filter", activeExecutionsFilter).
		SetQueryParam("includeData", "true").
		SetResult(result).
		Get(executionsAPIPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list active executions: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, fmt.Errorf("failed to list active executions: %w", err)
	}
	statuses := make([]ExecutionStatus, 0, len(result.Data))
	for i := range result.Data {
		status := MapStatus(&result.Data[i], &c.graph)
		status.Status = StatusProcessing
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// checkResponse converts HTTP-level failures into errors carrying the status
// and response body.
func checkResponse(resp *resty.Response) error {
	if resp == nil {
		return fmt.Errorf("no response from engine")
	}
	if resp.IsError() {
		body := strings.TrimSpace(resp.String())
		if body == "" {
			return fmt.Errorf("engine returned status %d", resp.StatusCode())
		}
		return fmt.Errorf("engine returned status %d: %s", resp.StatusCode(), body)
	}
	return nil
}
