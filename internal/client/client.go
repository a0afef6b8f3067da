// Package client talks to the analysis service: it submits a job, then polls
// the matching result endpoint until the job completes, fails, or the poll
// window runs out.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"sharpchess/internal/analysis"
	"sharpchess/internal/jobs"
)

const (
	DefaultPollInterval = time.Second
	DefaultPollTimeout  = 30 * time.Second
)

var (
	// ErrTimeout is returned when no result arrived within the poll window.
	ErrTimeout = errors.New("client: timed out waiting for result")
	// ErrSuperseded is returned when another submission replaced ours.
	ErrSuperseded = errors.New("client: job superseded by a newer request")
)

// StatusError reports an unexpected HTTP status from the service.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: unexpected status %d", e.Code)
	}
	return fmt.Sprintf("client: unexpected status %d: %s", e.Code, e.Message)
}

// Client is safe for concurrent use.
type Client struct {
	base     string
	http     *http.Client
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithPollInterval sets the pause between result polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.interval = d }
}

// WithPollTimeout bounds how long a single request polls.
func WithPollTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:     strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
		interval: DefaultPollInterval,
		timeout:  DefaultPollTimeout,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type accepted struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type result struct {
	Status    jobs.Status         `json:"status"`
	ID        string              `json:"id"`
	Error     string              `json:"error"`
	Eval      *int                `json:"evaluation"`
	Sharpness *float64            `json:"sharpness"`
	BestLines []analysis.BestLine `json:"best_lines"`
}

// Evaluate returns the centipawn score of fen for the side to move.
func (c *Client) Evaluate(ctx context.Context, fen string, depth int) (int, error) {
	res, err := c.run(ctx, "/evaluate", "/evaluation-result", map[string]any{"fen": fen, "depth": depth})
	if err != nil {
		return 0, err
	}
	if res.Eval == nil {
		return 0, fmt.Errorf("client: evaluation missing from result")
	}
	return *res.Eval, nil
}

// Sharpness returns the sharpness of fen's best line.
func (c *Client) Sharpness(ctx context.Context, fen string) (float64, error) {
	res, err := c.run(ctx, "/sharpness", "/sharpness-result", map[string]any{"fen": fen})
	if err != nil {
		return 0, err
	}
	if res.Sharpness == nil {
		return 0, fmt.Errorf("client: sharpness missing from result")
	}
	return *res.Sharpness, nil
}

// BestLines returns up to n principal variations of fen.
func (c *Client) BestLines(ctx context.Context, fen string, n, depth int) ([]analysis.BestLine, error) {
	body := map[string]any{"current_fen": fen, "number_of_lines": n, "depth": depth}
	res, err := c.run(ctx, "/best-lines", "/best-lines-result", body)
	if err != nil {
		return nil, err
	}
	return res.BestLines, nil
}

func (c *Client) run(ctx context.Context, submitPath, resultPath string, body any) (*result, error) {
	id, err := c.submit(ctx, submitPath, body)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("path", submitPath).Str("id", id).Msg("job accepted")
	return c.poll(ctx, resultPath, id)
}

func (c *Client) submit(ctx context.Context, path string, body any) (string, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("client: submit %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return "", statusError(resp)
	}
	var acc accepted
	if err := json.NewDecoder(resp.Body).Decode(&acc); err != nil {
		return "", fmt.Errorf("client: decode submit response: %w", err)
	}
	return acc.ID, nil
}

// poll checks the result endpoint once per interval. Any HTTP or network
// error ends polling.
func (c *Client) poll(ctx context.Context, path, id string) (*result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.base + path
	if id != "" {
		u += "?id=" + url.QueryEscape(id)
	}
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}

		res, err := c.fetch(ctx, u)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrTimeout
			}
			return nil, err
		}
		switch res.Status {
		case jobs.StatusCompleted:
			return res, nil
		case jobs.StatusFailed:
			return nil, fmt.Errorf("client: job failed: %s", res.Error)
		case jobs.StatusSuperseded:
			return nil, ErrSuperseded
		}
	}
}

func (c *Client) fetch(ctx context.Context, u string) (*result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: poll: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	var res result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("client: decode result: %w", err)
	}
	return &res, nil
}

func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(b, &body)
	return &StatusError{Code: resp.StatusCode, Message: body.Error}
}
