// Package ratelimit paces crawl requests to stay inside the API's published
// request budget.
//
// The LOC API allows 80 requests per minute and blocks violators for an
// hour, so the crawler spaces requests at least 60/80 seconds apart even
// when every request succeeds.
package ratelimit
