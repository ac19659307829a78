package loc

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "locimages/pkg/errors"
)

func newTestClient() *Client {
	return NewClient(500*time.Millisecond, nil)
}

func apiErrOf(t *testing.T, err error) *errs.Error {
	t.Helper()
	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	return apiErr
}

func TestFetchPageSuccess(t *testing.T) {
	body := `{
		"results": [
			{"id": "https://www.loc.gov/item/1/", "title": "one", "image_url": ["s.jpg", "l.jpg"]},
			{"id": "https://www.loc.gov/item/2/", "title": "two", "image_url": []}
		],
		"pagination": {"next": "https://api.test/page2", "current": 1, "total": 2, "of": 3}
	}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer server.Close()

	resp, err := newTestClient().FetchPage(server.URL)
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "one", resp.Results[0].Title)
	assert.Equal(t, "l.jpg", resp.Results[0].BestImageURL())
	assert.Equal(t, "", resp.Results[1].BestImageURL())
	assert.True(t, resp.Pagination.HasNextPage())
	assert.Equal(t, "https://api.test/page2", *resp.Pagination.Next)
	assert.Equal(t, []byte(body), resp.Raw)
}

func TestFetchPageNullNextCursor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [], "pagination": {"next": null}}`))
	}))
	defer server.Close()

	resp, err := newTestClient().FetchPage(server.URL)
	require.NoError(t, err)
	assert.False(t, resp.Pagination.HasNextPage())
}

func TestFetchPageRetryableStatuses(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
			}))
			defer server.Close()

			_, err := newTestClient().FetchPage(server.URL)
			apiErr := apiErrOf(t, err)
			assert.Equal(t, errs.ErrorTypeServerOverload, apiErr.Type)
			assert.Equal(t, code, apiErr.Code)
			assert.Contains(t, apiErr.Message, "status code")
		})
	}
}

func TestFetchPageFatalStatuses(t *testing.T) {
	for _, code := range []int{403, 404, 400} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
			}))
			defer server.Close()

			_, err := newTestClient().FetchPage(server.URL)
			apiErr := apiErrOf(t, err)
			assert.Equal(t, errs.ErrorTypeHTTPStatus, apiErr.Type)
			assert.Equal(t, code, apiErr.Code)
			assert.False(t, errs.IsRetryable(apiErr.Type))
		})
	}
}

func TestFetchPageMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>definitely not json</html>`))
	}))
	defer server.Close()

	_, err := newTestClient().FetchPage(server.URL)
	apiErr := apiErrOf(t, err)
	assert.Equal(t, errs.ErrorTypeMalformedResponse, apiErr.Type)
	assert.False(t, errs.IsRetryable(apiErr.Type))
}

func TestFetchPageTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	_, err := newTestClient().FetchPage(server.URL)
	apiErr := apiErrOf(t, err)
	assert.Equal(t, errs.ErrorTypeTimeout, apiErr.Type)
	assert.True(t, errs.IsRetryable(apiErr.Type))
}

func TestFetchPageConnectionResetMidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Promise a large body, write a fragment, then abort the
		// connection so the client sees a truncated stream.
		w.Header().Set("Content-Length", "4096")
		w.Write([]byte(`{"results": [`))
		panic(http.ErrAbortHandler)
	}))
	defer server.Close()

	_, err := newTestClient().FetchPage(server.URL)
	apiErr := apiErrOf(t, err)
	assert.Equal(t, errs.ErrorTypeConnectionReset, apiErr.Type)
	assert.True(t, errs.IsSplitTrigger(apiErr.Type))
}

func TestFetchPageSendsHeaders(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"results": [], "pagination": {"next": null}}`))
	}))
	defer server.Close()

	client := newTestClient()
	client.SetHeader("Accept", "application/json; charset=utf-8")
	_, err := client.FetchPage(server.URL)
	require.NoError(t, err)

	assert.Contains(t, gotUA, "loc-images")
	assert.Equal(t, "application/json; charset=utf-8", gotAccept)
}
