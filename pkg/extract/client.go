// pkg/extract/client.go
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/David-Botos/inspections-elt/pkg/model"
)

// DefaultEndpoint is the NYC DOHMH restaurant inspection results resource
const DefaultEndpoint = "https://data.cityofnewyork.us/resource/43nn-pn8j.json"

const maxErrorBody = 512

// Config configures the source client. Zero values get defaults:
// Endpoint DefaultEndpoint, Timeout 60s.
type Config struct {
	Endpoint string
	Timeout  time.Duration

	// AppToken is sent as X-App-Token when set, raising the source's
	// anonymous rate limit.
	AppToken string

	// Transport is an optional custom RoundTripper, used by tests
	Transport http.RoundTripper
}

// Client fetches one bounded page of inspection records
type Client struct {
	httpClient *http.Client
	endpoint   string
	appToken   string
	logger     *zap.Logger
}

// NewClient constructs a Client from Config, applying defaults for zero values
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.L()
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		endpoint: cfg.Endpoint,
		appToken: cfg.AppToken,
		logger:   logger.Named("extractor"),
	}
}

// Extract issues a single GET for at most limit records. Records keep the
// source order; nothing is deduplicated, validated or sorted.
func (c *Client) Extract(ctx context.Context, limit int) ([]model.InspectionRecord, error) {
	if limit <= 0 {
		return nil, &FetchError{URL: c.endpoint, Err: fmt.Errorf("limit must be positive, got %d", limit)}
	}

	reqURL, err := c.pageURL(limit)
	if err != nil {
		return nil, &FetchError{URL: c.endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &FetchError{URL: reqURL, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}

	c.logger.Debug("Fetching inspection records",
		zap.String("url", reqURL),
		zap.Int("limit", limit))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Body:       readSnippet(resp.Body),
		}
	}

	var records []model.InspectionRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, &FetchError{URL: reqURL, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	c.logger.Info("Extracted rows",
		zap.Int("rows", len(records)),
		zap.Int("limit", limit),
		zap.Duration("duration", time.Since(start)))

	return records, nil
}

func (c *Client) pageURL(limit int) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("$limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	for len(b) > 0 && !utf8.Valid(b) {
		b = b[:len(b)-1]
	}
	return string(b)
}
