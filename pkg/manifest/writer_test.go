package manifest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"locimages/pkg/loc"
)

func passAll(*loc.Result) bool { return true }

func pageOf(results ...loc.Result) *loc.Response {
	return &loc.Response{Results: results}
}

func imageResult(id string) loc.Result {
	return loc.Result{
		ID:       id,
		URL:      "https://www.loc.gov/item/" + id + "/",
		Title:    "title " + id,
		ImageURL: []string{"https://tile.loc.gov/" + id + ".jpg"},
	}
}

func TestWritePagePlain(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Options{}, passAll, nil)

	ids, err := w.WritePage(pageOf(imageResult("1"), imageResult("2")))
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, ids)
	assert.Equal(t, "https://tile.loc.gov/1.jpg\nhttps://tile.loc.gov/2.jpg\n", buf.String())

	emitted, skipped := w.Counts()
	assert.Equal(t, 2, emitted)
	assert.Equal(t, 0, skipped)
}

func TestWritePageAria(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Options{AriaFormat: true, RootDir: "."}, passAll, nil)

	_, err := w.WritePage(pageOf(imageResult("1")))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "# 1\n")
	assert.Contains(t, out, "https://tile.loc.gov/1.jpg\n")
	assert.Contains(t, out, "  out=1 - title 1.jpg\n")
	assert.Contains(t, out, "  auto-file-renaming=false\n")
}

func TestWritePageDeduplicates(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Options{}, passAll, nil)

	_, err := w.WritePage(pageOf(imageResult("1"), imageResult("2")))
	require.NoError(t, err)

	// The same item appearing on a later page is suppressed
	ids, err := w.WritePage(pageOf(imageResult("2"), imageResult("3")))
	require.NoError(t, err)

	assert.Equal(t, []string{"3"}, ids)
	assert.Equal(t, 1, strings.Count(buf.String(), "https://tile.loc.gov/2.jpg"))
}

func TestWritePageResumeSuppression(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Options{}, passAll, nil)
	w.MarkEmitted("1")

	ids, err := w.WritePage(pageOf(imageResult("1"), imageResult("2")))
	require.NoError(t, err)

	assert.Equal(t, []string{"2"}, ids)
	assert.NotContains(t, buf.String(), "https://tile.loc.gov/1.jpg")
}

func TestWritePageFilters(t *testing.T) {
	var buf bytes.Buffer
	blocked := imageResult("1")
	blocked.OriginalFormat = []string{"web page"}

	w := NewWriter(&buf, Options{}, NewBlocklist([]string{"web page"}), nil)
	ids, err := w.WritePage(pageOf(blocked, imageResult("2")))
	require.NoError(t, err)

	assert.Equal(t, []string{"2"}, ids)
	_, skipped := w.Counts()
	assert.Equal(t, 1, skipped)
}

func TestWritePageSkipsImagelessResults(t *testing.T) {
	var buf bytes.Buffer
	noImage := loc.Result{ID: "1", URL: "https://www.loc.gov/item/1/", Title: "t"}

	w := NewWriter(&buf, Options{}, passAll, nil)
	ids, err := w.WritePage(pageOf(noImage))
	require.NoError(t, err)

	assert.Empty(t, ids)
	assert.Empty(t, buf.String())
}
