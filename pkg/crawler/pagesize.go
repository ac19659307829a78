package crawler

import (
	"fmt"

	errs "locimages/pkg/errors"
	"locimages/pkg/loc"
)

// SplitPage halves a page size and doubles the page index, preserving the
// absolute item offset: index*perPage == newIndex*newPerPage.
//
// An odd page size is fatal rather than guessed around. Halving 15 at page
// index 10 would need offset 150 expressed in pages of 7, and 150/7 is not
// integral, so any rounding silently skips or repeats items. The starting
// page size is a power of two precisely so this check never fires, but it is
// checked at every split, not assumed.
func SplitPage(perPage, pageIndex int) (newPerPage, newIndex int, err error) {
	if perPage <= 1 {
		return 0, 0, &errs.Error{
			Type:    errs.ErrorTypeUnsplittablePage,
			Message: fmt.Sprintf("page size %d cannot be halved further", perPage),
		}
	}
	if perPage%2 != 0 {
		return 0, 0, &errs.Error{
			Type: errs.ErrorTypeUnsplittablePage,
			Message: fmt.Sprintf(
				"page size %d is odd; halving cannot preserve item offset %d exactly",
				perPage, pageIndex*perPage),
		}
	}

	return perPage / 2, pageIndex * 2, nil
}

// SplitPageURL applies SplitPage to the page-size and page-number query
// parameters of an in-flight page URL, returning the rewritten URL. The
// reduced size rides along in the URL for the rest of the crawl; a
// server-side limit, once hit, is assumed to still apply.
func SplitPageURL(pageURL string) (string, int, error) {
	perPage, pageIndex, err := loc.ReadPageGeometry(pageURL)
	if err != nil {
		return "", 0, err
	}

	newPerPage, newIndex, err := SplitPage(perPage, pageIndex)
	if err != nil {
		return "", 0, err
	}

	rewritten, err := loc.WritePageGeometry(pageURL, newPerPage, newIndex)
	if err != nil {
		return "", 0, err
	}

	return rewritten, newPerPage, nil
}
