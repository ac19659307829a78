package loc

import (
	"fmt"
	"net/url"
	"strconv"
)

// Query parameters understood by the LOC JSON API. Page size and page number
// are independently settable, which is what lets the crawler rewrite both
// when it halves the page size.
const (
	// ParamFormat selects the response format
	ParamFormat = "fo"
	// FormatJSON is the JSON response format
	FormatJSON = "json"
	// ParamPerPage is the page size parameter
	ParamPerPage = "c"
	// ParamPage is the 1-based page number parameter
	ParamPage = "sp"
	// ParamAttributes restricts the response to the named sections
	ParamAttributes = "at"
	// AttributesValue requests only the sections the crawler consumes
	AttributesValue = "results,pagination"
)

// PreparePageURL rewrites a seed URL into a crawlable page request: JSON
// format, the given page size, and only the results and pagination sections.
// Query parameters already on the seed (search terms, date filters) are
// preserved.
func PreparePageURL(rawURL string, perPage int) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid seed URL %q: %w", rawURL, err)
	}

	q := u.Query()
	q.Set(ParamFormat, FormatJSON)
	q.Set(ParamPerPage, strconv.Itoa(perPage))
	q.Set(ParamAttributes, AttributesValue)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ReadPageGeometry extracts the page size and zero-based page index from a
// page request URL. A missing page number means the first page.
func ReadPageGeometry(rawURL string) (perPage int, pageIndex int, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid page URL %q: %w", rawURL, err)
	}
	q := u.Query()

	perPage, err = strconv.Atoi(q.Get(ParamPerPage))
	if err != nil || perPage <= 0 {
		return 0, 0, fmt.Errorf("page URL %q has no usable %s parameter", rawURL, ParamPerPage)
	}

	pageIndex = 0
	if sp := q.Get(ParamPage); sp != "" {
		page, err := strconv.Atoi(sp)
		if err != nil || page < 1 {
			return 0, 0, fmt.Errorf("page URL %q has invalid %s parameter %q", rawURL, ParamPage, sp)
		}
		pageIndex = page - 1
	}

	return perPage, pageIndex, nil
}

// WritePageGeometry rewrites the page size and zero-based page index of a
// page request URL in place, leaving all other parameters untouched.
func WritePageGeometry(rawURL string, perPage, pageIndex int) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid page URL %q: %w", rawURL, err)
	}

	q := u.Query()
	q.Set(ParamPerPage, strconv.Itoa(perPage))
	q.Set(ParamPage, strconv.Itoa(pageIndex+1))
	u.RawQuery = q.Encode()

	return u.String(), nil
}
