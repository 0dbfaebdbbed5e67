// Package client speaks the REST API of a drone-flavored CI server.
//
// All methods are plain request/response with context; pacing is enforced
// with a token-bucket limiter so a fast poll loop or a large batch log
// fetch cannot hammer the server. Authentication is a static bearer token
// carried by an oauth2 transport.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/bmuenzenmeyer/buildwatch/internal/build"
)

const (
	requestTimeout = 15 * time.Second

	// Pacing: steady 5 req/s with room for a burst of parallel log
	// fetches right after a merge.
	requestsPerSecond = 5
	requestBurst      = 10

	// Parallelism cap for batch log fetches.
	batchWorkers = 4

	// How much of an error body to keep for messages.
	errBodyLimit = 512
)

// APIError is a non-2xx response from the server. Callers render it
// inline ("error loading steps") rather than treating it as fatal.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Body)
}

// logLine is one entry of the log endpoint's JSON array. Out holds the
// line text as sent, newlines included.
type logLine struct {
	Pos int    `json:"pos"`
	Out string `json:"out"`
}

// Client is an API client for one CI server.
type Client struct {
	base    string
	httpc   *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New returns a client for the server at base, e.g. "https://ci.example.com".
// token may be empty for servers that allow anonymous read access. logger
// may be nil.
func New(base, token string, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", base)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	httpc := &http.Client{Timeout: requestTimeout}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpc = oauth2.NewClient(context.Background(), ts)
		httpc.Timeout = requestTimeout
	}

	return &Client{
		base:    strings.TrimRight(u.String(), "/"),
		httpc:   httpc,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		logger:  logger,
	}, nil
}

// SplitRepo parses an "owner/name" slug.
func SplitRepo(slug string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository %q (want owner/name)", slug)
	}
	return owner, name, nil
}

// BuildList returns the server's recent builds for a repository, newest
// first, without steps.
func (c *Client) BuildList(ctx context.Context, owner, name string) ([]build.Build, error) {
	var builds []build.Build
	path := fmt.Sprintf("/api/repos/%s/%s/builds", url.PathEscape(owner), url.PathEscape(name))
	if err := c.get(ctx, path, &builds); err != nil {
		return nil, fmt.Errorf("list builds for %s/%s: %w", owner, name, err)
	}
	return builds, nil
}

// BuildInfo returns one build including its step snapshot.
func (c *Client) BuildInfo(ctx context.Context, owner, name string, number int) (*build.Build, error) {
	var b build.Build
	path := fmt.Sprintf("/api/repos/%s/%s/builds/%d", url.PathEscape(owner), url.PathEscape(name), number)
	if err := c.get(ctx, path, &b); err != nil {
		return nil, fmt.Errorf("fetch build %s/%s#%d: %w", owner, name, number, err)
	}
	return &b, nil
}

// BuildLogs returns the accumulated log text for one step.
func (c *Client) BuildLogs(ctx context.Context, owner, name string, number, stepNumber int) (string, error) {
	var lines []logLine
	path := fmt.Sprintf("/api/repos/%s/%s/logs/%d/%d", url.PathEscape(owner), url.PathEscape(name), number, stepNumber)
	if err := c.get(ctx, path, &lines); err != nil {
		return "", fmt.Errorf("fetch logs for step %d of %s/%s#%d: %w", stepNumber, owner, name, number, err)
	}
	var b strings.Builder
	for _, ln := range lines {
		b.WriteString(ln.Out)
	}
	return b.String(), nil
}

// BuildLogsBatch fetches the logs of several steps with bounded
// parallelism and returns them keyed by step number. The first failure
// cancels the remaining fetches.
func (c *Client) BuildLogsBatch(ctx context.Context, owner, name string, number int, steps []int) (map[int]string, error) {
	texts := make(map[int]string, len(steps))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchWorkers)
	for _, stepNumber := range steps {
		g.Go(func() error {
			text, err := c.BuildLogs(ctx, owner, name, number, stepNumber)
			if err != nil {
				return err
			}
			mu.Lock()
			texts[stepNumber] = text
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}

// get performs a paced GET and decodes a JSON response into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		"path", path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
