// Package linkcheck validates batches of URLs: internal paths against the
// catalog, external URLs with live requests.
package linkcheck

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/gebo/internal/catalog"
	"github.com/starford/gebo/internal/urls"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultConcurrency = 8
	userAgent          = "gebo-linkcheck/1.0"
)

// Result is the verdict for one URL. Results keep the order of the input
// batch, with duplicates collapsed to a single entry.
type Result struct {
	URL         string `json:"url"`
	Valid       bool   `json:"valid"`
	StatusCode  int    `json:"status_code,omitempty"`
	RedirectsTo string `json:"redirects_to,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Checker validates URLs against the catalog and the live web.
type Checker struct {
	store       catalog.Store
	builder     *urls.Builder
	client      *http.Client
	timeout     time.Duration
	concurrency int
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout sets the per-URL timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithConcurrency bounds the number of URLs checked at once.
func WithConcurrency(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithHTTPClient overrides the HTTP client used for external checks.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) {
		if client != nil {
			c.client = client
		}
	}
}

// New creates a Checker over the given catalog store. Internal URLs are
// resolved to slugs through builder's link pattern.
func New(store catalog.Store, builder *urls.Builder, opts ...Option) *Checker {
	c := &Checker{
		store:       store,
		builder:     builder,
		timeout:     defaultTimeout,
		concurrency: defaultConcurrency,
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check validates every URL in the batch concurrently and returns one
// result per distinct URL, in first-occurrence order. A slow or failing
// URL never fails the batch; its result carries the error instead.
func (c *Checker) Check(ctx context.Context, rawURLs []string) []Result {
	var distinct []string
	seen := make(map[string]struct{})
	for _, u := range rawURLs {
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		distinct = append(distinct, u)
	}

	results := make([]Result, len(distinct))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, u := range distinct {
		g.Go(func() error {
			results[i] = c.checkOne(ctx, u)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors
	return results
}

func (c *Checker) checkOne(ctx context.Context, rawURL string) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if urls.IsInternal(rawURL) {
		return c.checkInternal(ctx, rawURL)
	}
	return c.checkExternal(ctx, rawURL)
}

// checkInternal resolves the URL to a slug via the link pattern and asks
// the catalog whether a published document carries it.
func (c *Checker) checkInternal(ctx context.Context, rawURL string) Result {
	slug := c.builder.SlugFrom(rawURL)
	if slug == "" {
		return Result{URL: rawURL, Error: "no slug in path"}
	}
	exists, err := c.store.PublishedSlugExists(ctx, slug)
	if err != nil {
		return Result{URL: rawURL, Error: err.Error()}
	}
	if !exists {
		return Result{URL: rawURL, Error: "no published document for slug"}
	}
	return Result{URL: rawURL, Valid: true}
}

// checkExternal issues a HEAD request without following redirects.
// Statuses under 400 are valid; a redirect also records its target.
func (c *Checker) checkExternal(ctx context.Context, rawURL string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return Result{URL: rawURL, Error: "malformed url"}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{URL: rawURL, Error: "timeout"}
		}
		return Result{URL: rawURL, Error: err.Error()}
	}
	defer resp.Body.Close()

	res := Result{URL: rawURL, StatusCode: resp.StatusCode, Valid: resp.StatusCode < 400}
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		res.RedirectsTo = resp.Header.Get("Location")
	}
	return res
}
