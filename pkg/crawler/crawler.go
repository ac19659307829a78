package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "locimages/pkg/errors"
	"locimages/pkg/loc"
	"locimages/pkg/logger"
	"locimages/pkg/ratelimit"
	"locimages/pkg/retry"
)

// PageFetcher performs a single page request. *loc.Client implements it.
type PageFetcher interface {
	FetchPage(pageURL string) (*loc.Response, error)
}

// PageHandler consumes one successfully fetched page. pageURL is the request
// URL the page was fetched from, which callers can persist as a resume
// cursor. Returning an error aborts the crawl.
type PageHandler func(page *loc.Response, pageURL string) error

// Config holds the crawl constants. They are injected rather than read from
// package globals so tests can run with synthetic values.
type Config struct {
	// RequestInterval is the minimum spacing between requests and the
	// backoff floor
	RequestInterval time.Duration
	// MaxBackoff is the backoff ceiling
	MaxBackoff time.Duration
	// MaxRetries bounds the retry loop per request (0 means unlimited)
	MaxRetries int
}

// Crawler walks every page of a query until the server stops supplying a
// next cursor.
//
// Each page moves through fetch (with backoff for retryable failures and a
// page size split for connection resets), then is handed to the handler,
// then the crawler paces out the mandated inter-request interval before
// following the server's next URL. The crawl is fully sequential: one
// request in flight, no prefetch. A fatal failure terminates the crawl with
// the pages already handled left intact.
type Crawler struct {
	fetcher PageFetcher
	limiter ratelimit.Limiter
	config  Config
	logger  logger.Logger

	// effectivePageSize tracks the page size after any splits, for
	// checkpointing; it only ever decreases during a crawl
	effectivePageSize int
}

// New creates a Crawler from the injected constants
func New(fetcher PageFetcher, cfg Config, log logger.Logger) *Crawler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Crawler{
		fetcher: fetcher,
		limiter: ratelimit.NewIntervalLimiter(cfg.RequestInterval),
		config:  cfg,
		logger:  log,
	}
}

// EffectivePageSize returns the page size after any splits this crawl, or 0
// if no page has been fetched yet
func (c *Crawler) EffectivePageSize() int {
	return c.effectivePageSize
}

// Crawl fetches every page starting from startURL and hands each one to
// handler in page order. startURL must already carry the page-size and
// format parameters (loc.PreparePageURL for a fresh crawl, or a persisted
// cursor when resuming).
//
// It returns nil once the server supplies no next cursor, or the fatal
// error that terminated the crawl.
func (c *Crawler) Crawl(ctx context.Context, startURL string, handler PageHandler) error {
	pageURL := startURL

	if perPage, _, err := loc.ReadPageGeometry(pageURL); err == nil {
		c.effectivePageSize = perPage
	}

	pagesFetched := 0
	resultsSeen := 0

	for {
		// Steady-state pacing: the crawl limit is a sliding-window
		// request budget, so successful requests consume it too.
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("crawl cancelled: %w", err)
		}

		c.logger.InfoWithFields("fetching page", map[string]interface{}{
			"url": pageURL,
		})

		page, effectiveURL, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			c.logger.ErrorWithFields("crawl failed", map[string]interface{}{
				"url":   effectiveURL,
				"error": err.Error(),
			})
			return fmt.Errorf("fetching %s: %w", effectiveURL, err)
		}

		pagesFetched++
		resultsSeen += len(page.Results)
		c.logProgress(page, pagesFetched, resultsSeen)

		if err := handler(page, effectiveURL); err != nil {
			return fmt.Errorf("handling page %s: %w", effectiveURL, err)
		}

		if !page.Pagination.HasNextPage() {
			c.logger.InfoWithFields("crawl exhausted", map[string]interface{}{
				"pages":   pagesFetched,
				"results": resultsSeen,
			})
			return nil
		}

		// The server's own cursor takes precedence over any locally
		// computed page index once a successful response defines it.
		pageURL = *page.Pagination.Next
	}
}

// fetchPage fetches one page, recovering locally from retryable failures
// via backoff and from connection resets via page size splits. The split is
// applied iteratively: each halved re-request goes back through the same
// retry wrapping, and a repeated reset halves again.
//
// It returns the page along with the URL it was actually fetched from,
// which differs from the requested URL after a split.
func (c *Crawler) fetchPage(ctx context.Context, pageURL string) (*loc.Response, string, error) {
	retryCfg := &retry.Config{
		MaxAttempts: c.config.MaxRetries,
		Backoff:     retry.NewCrawlBackoff(c.config.RequestInterval, c.config.MaxBackoff),
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      c.logger,
	}

	for {
		page, err := retry.DoWithResult(func() (*loc.Response, error) {
			return c.fetcher.FetchPage(pageURL)
		}, retryCfg)
		if err == nil {
			return page, pageURL, nil
		}

		var apiErr *errs.Error
		if !errors.As(err, &apiErr) || !errs.IsSplitTrigger(apiErr.Type) {
			return nil, pageURL, err
		}

		// The server closed the connection mid-response: the page was
		// too large to assemble in time. Halve it and re-request the
		// same absolute offset.
		rewritten, newPerPage, splitErr := SplitPageURL(pageURL)
		if splitErr != nil {
			return nil, pageURL, splitErr
		}

		c.logger.WarnWithFields("page too large, halving page size", map[string]interface{}{
			"old_size": newPerPage * 2,
			"new_size": newPerPage,
			"url":      rewritten,
		})

		c.effectivePageSize = newPerPage
		pageURL = rewritten
	}
}

// logProgress reports a fetched page, using the server's page counters when
// the pagination metadata carries them
func (c *Crawler) logProgress(page *loc.Response, pagesFetched, resultsSeen int) {
	fields := map[string]interface{}{
		"results":       len(page.Results),
		"total_results": resultsSeen,
	}
	if page.Pagination.Total > 0 {
		fields["page"] = page.Pagination.Current
		fields["of"] = page.Pagination.Total
	} else {
		fields["page"] = pagesFetched
	}
	c.logger.InfoWithFields("page ready", fields)
}
