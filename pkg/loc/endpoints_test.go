package loc

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreparePageURL(t *testing.T) {
	prepared, err := PreparePageURL("https://www.loc.gov/photos/?q=bridges&dates=1800%2F1899", 128)
	require.NoError(t, err)

	u, err := url.Parse(prepared)
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "json", q.Get(ParamFormat))
	assert.Equal(t, "128", q.Get(ParamPerPage))
	assert.Equal(t, AttributesValue, q.Get(ParamAttributes))
	// Seed parameters survive
	assert.Equal(t, "bridges", q.Get("q"))
	assert.Equal(t, "1800/1899", q.Get("dates"))
}

func TestPreparePageURLInvalid(t *testing.T) {
	_, err := PreparePageURL("://not-a-url", 128)
	assert.Error(t, err)
}

func TestReadPageGeometry(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		perPage   int
		pageIndex int
		wantErr   bool
	}{
		{
			name:      "explicit page number",
			url:       "https://www.loc.gov/photos/?c=128&sp=3",
			perPage:   128,
			pageIndex: 2,
		},
		{
			name:      "missing page number means first page",
			url:       "https://www.loc.gov/photos/?c=64",
			perPage:   64,
			pageIndex: 0,
		},
		{
			name:    "missing page size",
			url:     "https://www.loc.gov/photos/?sp=3",
			wantErr: true,
		},
		{
			name:    "zero page size",
			url:     "https://www.loc.gov/photos/?c=0",
			wantErr: true,
		},
		{
			name:    "garbage page number",
			url:     "https://www.loc.gov/photos/?c=128&sp=x",
			wantErr: true,
		},
		{
			name:    "page number below one",
			url:     "https://www.loc.gov/photos/?c=128&sp=0",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perPage, pageIndex, err := ReadPageGeometry(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.perPage, perPage)
			assert.Equal(t, tt.pageIndex, pageIndex)
		})
	}
}

func TestWritePageGeometry(t *testing.T) {
	rewritten, err := WritePageGeometry("https://www.loc.gov/photos/?q=bridges&c=128&sp=5", 64, 9)
	require.NoError(t, err)

	perPage, pageIndex, err := ReadPageGeometry(rewritten)
	require.NoError(t, err)
	assert.Equal(t, 64, perPage)
	assert.Equal(t, 9, pageIndex)

	u, err := url.Parse(rewritten)
	require.NoError(t, err)
	assert.Equal(t, "bridges", u.Query().Get("q"), "unrelated parameters survive the rewrite")
}

func TestGeometryRoundTrip(t *testing.T) {
	prepared, err := PreparePageURL("https://www.loc.gov/collections/baseball-cards/", 128)
	require.NoError(t, err)

	perPage, pageIndex, err := ReadPageGeometry(prepared)
	require.NoError(t, err)
	assert.Equal(t, 128, perPage)
	assert.Equal(t, 0, pageIndex)
}
