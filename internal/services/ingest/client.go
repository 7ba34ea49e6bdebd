package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"assetlib/internal/config"
	"assetlib/internal/layout"
	"assetlib/internal/logging"
	"assetlib/internal/metadata"
	"assetlib/internal/services"
)

const (
	defaultHTTPTimeout    = 15 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = time.Second
	defaultRetryAttempts  = 5
)

// Config holds the connection settings for the asset index.
type Config struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// Status is the outcome of one ingestion.
type Status string

const (
	StatusCreated       Status = "created"
	StatusAlreadyExists Status = "already_exists"
	StatusRejected      Status = "rejected"
	StatusFailed        Status = "failed"
	StatusSkipped       Status = "skipped"
)

// Outcome describes what the index did with a record.
type Outcome struct {
	Status     Status `json:"status"`
	ExternalID string `json:"external_id,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Attempts   int    `json:"attempts"`
	Message    string `json:"message,omitempty"`
}

// Client posts asset records to the index at {base}/assets, keyed by
// asset ID through the Idempotency-Key header.
type Client struct {
	base   string
	apiKey string
	http   *http.Client
	logger *slog.Logger
	retry  backoff
}

// Option customizes the client.
type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetryMaxAttempts bounds the number of POSTs per ingestion.
// Values below one mean a single attempt.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.retry.attempts = attempts }
}

func WithRetryBackoff(base, ceiling time.Duration) Option {
	return func(c *Client) {
		c.retry.base = base
		c.retry.ceiling = ceiling
	}
}

// WithSleeper replaces the timer used between attempts.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) { c.retry.sleep = sleep }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logging.NewComponentLogger(logger, "ingest") }
}

// NewClient constructs an ingestion client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		base:   strings.TrimSpace(cfg.BaseURL),
		apiKey: strings.TrimSpace(cfg.APIKey),
		http:   &http.Client{Timeout: timeout},
		logger: logging.NewComponentLogger(nil, "ingest"),
		retry: backoff{
			attempts: defaultRetryAttempts,
			base:     defaultRetryBaseDelay,
			ceiling:  defaultRetryMaxDelay,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds a client from the [ingestion] section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) *Client {
	base, ceiling := cfg.IngestionRetryDelays()
	opts = append([]Option{
		WithLogger(logger),
		WithRetryMaxAttempts(cfg.Ingestion.MaxAttempts),
		WithRetryBackoff(base, ceiling),
	}, opts...)
	return NewClient(Config{
		BaseURL:        cfg.Ingestion.BaseURL,
		APIKey:         cfg.Ingestion.APIKey,
		TimeoutSeconds: cfg.Ingestion.TimeoutSeconds,
	}, opts...)
}

// Paths locates the packaged files of an asset.
type Paths struct {
	AssetDir     string `json:"asset_dir"`
	MetadataFile string `json:"metadata_file"`
	PathsFile    string `json:"paths_file"`
}

// Payload is the POST /assets body.
type Payload struct {
	Name      string             `json:"name"`
	Category  string             `json:"category"`
	Paths     Paths              `json:"paths"`
	Metadata  *metadata.Metadata `json:"metadata"`
	FileSizes map[string]int64   `json:"file_sizes"`
}

// BuildPayload wraps a metadata record for the index.
func BuildPayload(m *metadata.Metadata, metadataPath string) Payload {
	return Payload{
		Name:     m.Name,
		Category: m.Category(),
		Paths: Paths{
			AssetDir:     m.AssetDir,
			MetadataFile: metadataPath,
			PathsFile:    layout.DataPath(m.AssetDir, layout.PathsFile),
		},
		Metadata:  m,
		FileSizes: m.FileSizes,
	}
}

// statusError is a non-2xx index response.
type statusError struct {
	code       int
	body       string
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("index returned http %d: %s", e.code, e.body)
}

// Ingest posts m keyed by its asset ID. A conflict is reported as
// StatusAlreadyExists without error. Rejections and exhausted retries
// return an error marked services.ErrIngestion alongside the outcome.
func (c *Client) Ingest(ctx context.Context, m *metadata.Metadata, metadataPath string) (Outcome, error) {
	logger := logging.WithContext(ctx, c.logger).With(logging.String(logging.FieldAssetID, m.ID))
	if c.base == "" {
		err := services.Wrap(services.ErrConfiguration, "ingest", "post asset", "ingestion base_url is empty", nil)
		return Outcome{Status: StatusFailed, Message: err.Error()}, err
	}
	body, err := json.Marshal(BuildPayload(m, metadataPath))
	if err != nil {
		return Outcome{Status: StatusFailed}, services.Wrap(services.ErrIngestion, "ingest", "encode payload", m.ID, err)
	}

	for attempt := 1; ; attempt++ {
		code, reply, err := c.post(ctx, m.ID, body)
		if err == nil {
			id := externalID(reply, m.ID)
			if code == http.StatusConflict {
				logger.Info("asset already in index", logging.Int("attempts", attempt))
				return Outcome{Status: StatusAlreadyExists, ExternalID: m.ID, StatusCode: code, Attempts: attempt, Message: "already exists"}, nil
			}
			logger.Info("asset ingested", logging.String("external_id", id), logging.Int("attempts", attempt))
			return Outcome{Status: StatusCreated, ExternalID: id, StatusCode: code, Attempts: attempt}, nil
		}

		delay, again := c.retry.next(ctx, err, attempt)
		if again {
			logger.Debug("retrying ingest", logging.Int("attempt", attempt), logging.Duration("delay", delay), logging.Error(err))
			err = c.retry.wait(ctx, delay)
		}
		if err != nil {
			return c.fail(logger, m.ID, attempt, code, err)
		}
	}
}

// fail records the terminal outcome of an ingestion.
func (c *Client) fail(logger *slog.Logger, assetID string, attempts, code int, err error) (Outcome, error) {
	outcome := Outcome{Status: StatusFailed, StatusCode: code, Attempts: attempts, Message: err.Error()}
	if code != 0 && !retryableStatus(code) {
		outcome.Status = StatusRejected
	}
	detail := assetID
	if outcome.Status == StatusFailed && attempts > 1 {
		detail = fmt.Sprintf("%s: failed after %d attempts", assetID, attempts)
	}
	logging.WarnWithContext(logger, "ingestion failed", "ingest_failed",
		logging.String("status", string(outcome.Status)),
		logging.Int("status_code", code),
		logging.Int("attempts", attempts),
		logging.String("reason", outcome.Message),
		logging.String(logging.FieldImpact, "asset is packaged locally but not searchable"),
		logging.String(logging.FieldErrorHint, "rerun 'assetlib ingest <metadata.json>' once the index is reachable"),
	)
	return outcome, services.Wrap(services.ErrIngestion, "ingest", "post asset", detail, err)
}

// Replay re-posts an existing metadata.json.
func (c *Client) Replay(ctx context.Context, metadataPath string) (Outcome, error) {
	m, err := metadata.Load(metadataPath)
	if err != nil {
		return Outcome{Status: StatusFailed, Message: err.Error()}, err
	}
	return c.Ingest(services.WithAssetID(ctx, m.ID), m, metadataPath)
}

// HealthCheck issues GET {base}/health.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "health", nil, nil)
	if err != nil {
		return fmt.Errorf("ingest health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("ingest health: http %d", resp.StatusCode)
	}
	return nil
}

// post sends one POST /assets. A 409 is returned as success with its code
// so the caller can tell duplicates apart.
func (c *Client) post(ctx context.Context, assetID string, body []byte) (int, []byte, error) {
	resp, err := c.do(ctx, http.MethodPost, "assets", bytes.NewReader(body), http.Header{
		"Content-Type":    {"application/json"},
		"Idempotency-Key": {assetID},
	})
	if err != nil {
		return 0, nil, fmt.Errorf("ingest request: %w", err)
	}
	defer resp.Body.Close()
	reply, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("ingest request: read body (timeout=%s): %w", c.http.Timeout, err)
	}
	if resp.StatusCode == http.StatusConflict || resp.StatusCode < http.StatusMultipleChoices {
		return resp.StatusCode, reply, nil
	}
	return resp.StatusCode, reply, &statusError{
		code:       resp.StatusCode,
		body:       strings.TrimSpace(string(reply)),
		retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, header http.Header) (*http.Response, error) {
	target, err := url.JoinPath(c.base, endpoint)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	for key, values := range header {
		req.Header[key] = values
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http error (timeout=%s): %w", c.http.Timeout, err)
	}
	return resp, nil
}

// externalID picks the index's identifier from a creation reply, falling
// back to the asset ID for empty or unrecognized bodies.
func externalID(reply []byte, assetID string) string {
	var created struct {
		ID      string `json:"id"`
		AssetID string `json:"asset_id"`
	}
	if len(bytes.TrimSpace(reply)) > 0 {
		_ = json.Unmarshal(reply, &created)
	}
	for _, candidate := range []string{created.ID, created.AssetID} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return assetID
}
