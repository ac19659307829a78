package manifest

import (
	"fmt"
	"io"
	"strings"

	"locimages/pkg/loc"
	"locimages/pkg/logger"
)

// Writer emits manifest entries for accepted results, de-duplicating by
// result ID across the whole run
type Writer struct {
	out    io.Writer
	opts   Options
	filter Predicate
	logger logger.Logger

	seen    map[string]bool
	emitted int
	skipped int
}

// NewWriter creates a manifest writer. filter decides inclusion; results
// without an image URL are always skipped.
func NewWriter(out io.Writer, opts Options, filter Predicate, log logger.Logger) *Writer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Writer{
		out:    out,
		opts:   opts,
		filter: filter,
		logger: log,
		seen:   make(map[string]bool),
	}
}

// MarkEmitted records a result ID as already emitted, so a resumed run
// suppresses it
func (w *Writer) MarkEmitted(id string) {
	w.seen[id] = true
}

// WritePage filters and formats one page of results, returning the IDs
// emitted from it
func (w *Writer) WritePage(page *loc.Response) ([]string, error) {
	var emittedIDs []string

	for i := range page.Results {
		result := &page.Results[i]

		if w.seen[result.ID] {
			w.skipped++
			continue
		}
		if !w.filter(result) {
			w.skipped++
			w.logger.DebugWithFields("result filtered out", map[string]interface{}{
				"id":              result.ID,
				"original_format": result.OriginalFormat,
			})
			continue
		}

		imageURL := result.BestImageURL()
		if imageURL == "" {
			w.skipped++
			continue
		}

		lines := FormatEntry(result, imageURL, w.opts)
		if _, err := fmt.Fprintln(w.out, strings.Join(lines, "\n")); err != nil {
			return emittedIDs, fmt.Errorf("writing manifest entry for %s: %w", result.ID, err)
		}

		w.seen[result.ID] = true
		w.emitted++
		emittedIDs = append(emittedIDs, result.ID)
	}

	return emittedIDs, nil
}

// Counts returns how many results were emitted and skipped so far
func (w *Writer) Counts() (emitted, skipped int) {
	return w.emitted, w.skipped
}
