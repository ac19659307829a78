// Package checkpoint persists crawl state so an interrupted run can resume
// without refetching or re-emitting what it already has. One JSON file per
// query, written atomically after every handled page.
package checkpoint
