package loc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	errs "locimages/pkg/errors"
	"locimages/pkg/logger"
)

// Client is an HTTP client for the LOC JSON API. It performs exactly one
// request per call and maps every outcome to a typed error; retry and
// pacing live in the layers above.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	logger     logger.Logger
}

// NewClient creates a new LOC API client with the given read timeout
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent": "loc-images/1.0 (+https://www.loc.gov/apis/json-and-yaml/)",
			"Accept":     "application/json",
		},
		logger: log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// FetchPage performs a single GET against a page URL and decodes the JSON
// body. Outcomes map to the crawl error taxonomy:
//
//   - transport read timeout        -> ErrorTypeTimeout (retryable)
//   - connection reset mid-response -> ErrorTypeConnectionReset (split trigger)
//   - HTTP 429 or any 5xx           -> ErrorTypeServerOverload (retryable)
//   - any other non-2xx status      -> ErrorTypeHTTPStatus (fatal)
//   - 200 with an unparsable body   -> ErrorTypeMalformedResponse (fatal)
func (c *Client) FetchPage(pageURL string) (*Response, error) {
	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"url": pageURL,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"url":      pageURL,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// The server accepted the request but closed the connection while
		// streaming the body. For large pages this is the page-too-large
		// signal the crawler splits on.
		c.logger.WarnWithFields("response body truncated", map[string]interface{}{
			"url":   pageURL,
			"error": err.Error(),
		})
		return nil, transportError(err)
	}

	var response Response
	if err := json.Unmarshal(body, &response); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          pageURL,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeMalformedResponse,
			Message: fmt.Sprintf("response body is not valid JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}
	response.Raw = body

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      pageURL,
		"status":   resp.StatusCode,
		"results":  len(response.Results),
		"duration": time.Since(start),
	})

	return &response, nil
}

// transportError classifies a transport-level failure
func transportError(err error) *errs.Error {
	if isConnectionReset(err) {
		return &errs.Error{
			Type:    errs.ErrorTypeConnectionReset,
			Message: fmt.Sprintf("connection reset mid-response: %v", err),
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &errs.Error{
			Type:    errs.ErrorTypeTimeout,
			Message: fmt.Sprintf("read timed out: %v", err),
		}
	}

	return &errs.Error{
		Type:    errs.ErrorTypeUnknown,
		Message: fmt.Sprintf("network error: %v", err),
	}
}

// isConnectionReset reports whether the server closed the connection while
// the response was in flight, as opposed to timing out
func isConnectionReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}

// statusError maps a non-200 status to the crawl error taxonomy
func statusError(statusCode int) *errs.Error {
	if errs.IsRetryableStatusCode(statusCode) {
		return &errs.Error{
			Type:    errs.ErrorTypeServerOverload,
			Message: fmt.Sprintf("status code %d", statusCode),
			Code:    statusCode,
		}
	}
	return &errs.Error{
		Type:    errs.ErrorTypeHTTPStatus,
		Message: fmt.Sprintf("non-retryable status code %d", statusCode),
		Code:    statusCode,
	}
}
