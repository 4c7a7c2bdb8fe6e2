package docintel

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
	"strconv"
	"strings"
	"time"
)

// Config for the Document Intelligence REST client.
type Config struct {
	Endpoint     string
	APIKey       string
	APIVersion   string        // default 2024-11-30
	Model        string        // default prebuilt-layout
	PollInterval time.Duration // default 1s; a Retry-After header wins
	Timeout      time.Duration // whole analyze operation, default 2m
}

// Client runs layout analysis against Azure Document Intelligence.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

// ErrAnalyzeFailed is returned when the service reports a failed operation.
var ErrAnalyzeFailed = errors.New("document analysis failed")

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-11-30"
	}
	if cfg.Model == "" {
		cfg.Model = "prebuilt-layout"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 60 * time.Second},
		log:  logger,
	}
}

// Analyze submits a PDF and polls the operation until it finishes.
func (c *Client) Analyze(ctx context.Context, pdf []byte) (*AnalyzeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	start := time.Now()

	u := strings.TrimRight(c.cfg.Endpoint, "/") +
		"/documentintelligence/documentModels/" + url.PathEscape(c.cfg.Model) +
		":analyze?api-version=" + url.QueryEscape(c.cfg.APIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(pdf))
	if err != nil {
		return nil, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)

	c.log.Info("docintel.analyze.start", "model", c.cfg.Model, "bytes", len(pdf))

	resp, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusAccepted && resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("analyze status %d: %s", resp.StatusCode, truncate(body, 300))
	}
	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return nil, errors.New("analyze response missing Operation-Location")
	}

	wait := retryAfter(resp, c.cfg.PollInterval)
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("poll analyze operation: %w", ctx.Err())
		case <-time.After(wait):
		}

		op, next, err := c.poll(ctx, opURL)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(op.Status) {
		case "succeeded":
			if op.AnalyzeResult == nil {
				return nil, fmt.Errorf("%w: succeeded without analyzeResult", ErrAnalyzeFailed)
			}
			c.log.Info("docintel.analyze.ok",
				"pages", len(op.AnalyzeResult.Pages),
				"figures", len(op.AnalyzeResult.Figures),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return op.AnalyzeResult, nil
		case "failed", "canceled":
			msg := op.Status
			if op.Error != nil {
				msg = op.Error.Code + ": " + op.Error.Message
			}
			return nil, fmt.Errorf("%w: %s", ErrAnalyzeFailed, msg)
		}
		wait = next
	}
}

func (c *Client) poll(ctx context.Context, opURL string) (*operation, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build poll request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)

	resp, body, err := c.do(req)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, 0, fmt.Errorf("poll status %d: %s", resp.StatusCode, truncate(body, 300))
	}
	var op operation
	if err := json.Unmarshal(body, &op); err != nil {
		return nil, 0, fmt.Errorf("decode analyze operation: %w", err)
	}
	c.log.Debug("docintel.analyze.poll", "status", op.Status)
	return &op, retryAfter(resp, c.cfg.PollInterval), nil
}

func (c *Client) do(req *http.Request) (*http.Response, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("docintel http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Warn("docintel response body close error", "error", err)
		}
	}(resp.Body)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read docintel response: %w", err)
	}
	return resp, body, nil
}

func retryAfter(resp *http.Response, def time.Duration) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "…"
}
