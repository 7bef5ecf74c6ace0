package workerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Mathiasric/snaptosize-app/internal/domain"
	"github.com/Mathiasric/snaptosize-app/internal/infra"
)

var (
	// ErrNoImageKey is returned when an upload succeeds without a key.
	ErrNoImageKey = errors.New("workerapi: upload returned no image key")
	// ErrNoJobID is returned when an enqueue succeeds without a job id.
	ErrNoJobID = errors.New("workerapi: enqueue returned no job id")
)

const maxErrorBody = 64 << 10

// Routes maps worker operations onto URL paths.
type Routes struct {
	Upload   string
	Enqueue  string
	Status   func(jobID string) string
	Download func(jobID string) string
}

// DirectRoutes address the worker service itself.
var DirectRoutes = Routes{
	Upload:   "/upload",
	Enqueue:  "/enqueue",
	Status:   func(id string) string { return "/status/" + url.PathEscape(id) },
	Download: func(id string) string { return "/download/" + url.PathEscape(id) },
}

// GatewayRoutes address the authenticated proxy in front of the worker.
var GatewayRoutes = Routes{
	Upload:   "/api/upload",
	Enqueue:  "/api/enqueue",
	Status:   func(id string) string { return "/api/status?job_id=" + url.QueryEscape(id) },
	Download: func(id string) string { return "/api/download?job_id=" + url.QueryEscape(id) },
}

// Options configures the worker client.
type Options struct {
	BaseURL    string
	Token      string
	UserID     string
	Routes     *Routes
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *infra.Logger
}

// Client talks to the worker HTTP contract and logs one worker_call line per
// request.
type Client struct {
	baseURL    string
	token      string
	userID     string
	routes     Routes
	httpClient *http.Client
	logger     *infra.Logger
}

// HTTPError carries a non-success worker response.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

// Is lets callers test a 402 with errors.Is(err, domain.ErrQuotaExceeded).
func (e *HTTPError) Is(target error) bool {
	return target == domain.ErrQuotaExceeded && e.Status == http.StatusPaymentRequired
}

// NewClient validates options and builds a client. A missing base URL is a
// configuration error.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("workerapi: WORKER_BASE_URL %w", domain.ErrNotConfigured)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	routes := DirectRoutes
	if opts.Routes != nil {
		routes = *opts.Routes
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		l := infra.Logger(zerolog.Nop())
		logger = &l
	}
	return &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(opts.Token),
		userID:     opts.UserID,
		routes:     routes,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Call describes one forwarded request.
type Call struct {
	Method      string
	Path        string
	ContentType string
	Body        io.Reader
	RequestID   string
	Token       string
	UserID      string
	JobID       string
	// Endpoint names the caller-facing operation in logs; defaults to Path.
	Endpoint string
}

// Forward performs call against the worker. The caller owns the response body.
func (c *Client) Forward(ctx context.Context, call Call) (*http.Response, error) {
	requestID := call.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	token := call.Token
	if token == "" {
		token = c.token
	}
	userID := call.UserID
	if userID == "" {
		userID = c.userID
	}
	endpoint := call.Endpoint
	if endpoint == "" {
		endpoint = call.Path
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, c.baseURL+call.Path, call.Body)
	if err != nil {
		return nil, fmt.Errorf("workerapi: build request: %w", err)
	}
	if call.ContentType != "" {
		req.Header.Set("Content-Type", call.ContentType)
	}
	req.Header.Set("x-request-id", requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	ms := time.Since(start).Milliseconds()

	evt := c.logger.Info().
		Str("event", "worker_call").
		Str("endpoint", endpoint).
		Str("worker_path", call.Path).
		Int64("ms", ms)
	if userID != "" {
		evt = evt.Str("user_id", userID)
	}
	if call.JobID != "" {
		evt = evt.Str("job_id", call.JobID)
	}
	if err != nil {
		evt.Str("request_id", requestID).Int("status", http.StatusBadGateway).Str("error", err.Error()).Msg("worker_call")
		return nil, fmt.Errorf("workerapi: %s: %w", endpoint, err)
	}
	if rid := resp.Header.Get("x-request-id"); rid != "" {
		requestID = rid
	}
	evt.Str("request_id", requestID).Int("status", resp.StatusCode).Msg("worker_call")
	return resp, nil
}

// Upload sends the raw image and returns the worker's image key.
func (c *Client) Upload(ctx context.Context, contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	var out struct {
		ImageKey string `json:"image_key"`
	}
	if err := c.doJSON(ctx, Call{
		Method:      http.MethodPost,
		Path:        c.routes.Upload,
		ContentType: contentType,
		Body:        bytes.NewReader(data),
	}, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.ImageKey) == "" {
		return "", ErrNoImageKey
	}
	return out.ImageKey, nil
}

// Enqueue requests job creation for one output.
func (c *Client) Enqueue(ctx context.Context, req EnqueueRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("workerapi: encode enqueue: %w", err)
	}
	var out struct {
		JobID string `json:"job_id"`
	}
	if err := c.doJSON(ctx, Call{
		Method:      http.MethodPost,
		Path:        c.routes.Enqueue,
		ContentType: "application/json",
		Body:        bytes.NewReader(body),
	}, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.JobID) == "" {
		return "", ErrNoJobID
	}
	return out.JobID, nil
}

// Status fetches the raw status payload of a job.
func (c *Client) Status(ctx context.Context, jobID string) (StatusPayload, error) {
	var out StatusPayload
	if err := c.doJSON(ctx, Call{
		Method: http.MethodGet,
		Path:   c.routes.Status(jobID),
		JobID:  jobID,
	}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Download is a streamed job result.
type Download struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
}

// Download opens the job's result. The caller must close Body.
func (c *Client) Download(ctx context.Context, jobID string) (*Download, error) {
	resp, err := c.Forward(ctx, Call{
		Method: http.MethodGet,
		Path:   c.routes.Download(jobID),
		JobID:  jobID,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, readHTTPError(resp)
	}
	return &Download{
		Body:        resp.Body,
		ContentType: DefaultHeader(resp.Header.Get("Content-Type"), "application/zip"),
		Filename:    filenameFromDisposition(resp.Header.Get("Content-Disposition"), jobID+".zip"),
	}, nil
}

// Routes returns the route set the client was built with.
func (c *Client) Routes() Routes {
	return c.routes
}

// DownloadURL is the retrieval reference recorded for a finished job.
func (c *Client) DownloadURL(jobID string) string {
	return c.baseURL + c.routes.Download(jobID)
}

func (c *Client) doJSON(ctx context.Context, call Call, out any) error {
	resp, err := c.Forward(ctx, call)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readHTTPError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("workerapi: decode %s: %w", call.Path, err)
	}
	return nil
}

func readHTTPError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &HTTPError{Status: resp.StatusCode, Body: string(raw)}
}

// DefaultHeader returns value, or fallback when value is empty.
func DefaultHeader(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// AttachmentDisposition is the Content-Disposition used when the worker sends none.
func AttachmentDisposition(jobID string) string {
	return fmt.Sprintf("attachment; filename=%q", jobID+".zip")
}

func filenameFromDisposition(header, fallback string) string {
	if header == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil || strings.TrimSpace(params["filename"]) == "" {
		return fallback
	}
	return params["filename"]
}
