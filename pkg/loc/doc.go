// Package loc implements the Library of Congress JSON API client.
//
// It covers the single-request layer of the crawl: building page request
// URLs (fo=json, c=<page size>, sp=<page number>, at=results,pagination),
// issuing one GET per call, and classifying every outcome into the typed
// errors the retry and split layers dispatch on. Pacing, backoff, and
// pagination live in pkg/crawler.
package loc
