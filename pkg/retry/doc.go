// Package retry provides the exponential backoff used against the crawl API.
//
// The wait before attempt n+1 is min(ceiling, floor*2^(n-1)), where the floor
// is the minimum spacing mandated by the API's published rate limit and the
// ceiling sits just past the service's ban duration. The retry loop has no
// attempt cap by default: the penalty is temporary, so retries settle at the
// ceiling interval until the service recovers.
//
// Basic usage:
//
//	cfg := &retry.Config{
//		Backoff: retry.NewCrawlBackoff(floor, ceiling),
//		RetryIf: retry.DefaultRetryIf,
//		Context: ctx,
//		Logger:  logger.GetLogger(),
//	}
//	resp, err := retry.DoWithResult(func() (*loc.Response, error) {
//		return client.FetchPage(pageURL)
//	}, cfg)
package retry
