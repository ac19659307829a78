// Package crawler drives the paginated crawl of a LOC query.
//
// It owns the cursor state and the recovery logic: retryable failures are
// waited out with exponential backoff, and a connection reset mid-response
// is treated as a page-too-large signal, recovered by halving the page size
// and remapping the page index so the same absolute item offset is
// re-requested with nothing skipped or duplicated. Successful requests are
// paced at the API's mandated minimum spacing. Result filtering and
// manifest formatting are the caller's concern, supplied as a PageHandler.
package crawler
