package errors

import "fmt"

// ErrorType classifies a failed crawl request
type ErrorType string

const (
	// ErrorTypeTimeout is a transport-level read timeout
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeServerOverload covers HTTP 429 and all 5xx statuses
	ErrorTypeServerOverload ErrorType = "server_overload"
	// ErrorTypeConnectionReset is the server closing the connection
	// mid-response, taken as evidence the requested page was too large
	ErrorTypeConnectionReset ErrorType = "connection_reset"
	// ErrorTypeMalformedResponse is a 200 whose body is not valid JSON
	ErrorTypeMalformedResponse ErrorType = "malformed_response"
	// ErrorTypeHTTPStatus is any other non-2xx status
	ErrorTypeHTTPStatus ErrorType = "http_status"
	// ErrorTypeUnsplittablePage is an odd page size hit during a split
	ErrorTypeUnsplittablePage ErrorType = "unsplittable_page"
	ErrorTypeUnknown          ErrorType = "unknown"
)

// Error represents an API request error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int // HTTP status code, 0 for transport errors
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// IsRetryable reports whether an error type should be retried with backoff.
// Connection resets are deliberately excluded: they are recovered by a page
// size split, not by waiting.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeTimeout, ErrorTypeServerOverload:
		return true
	default:
		return false
	}
}

// IsSplitTrigger reports whether an error type should trigger a page size split
func IsSplitTrigger(errorType ErrorType) bool {
	return errorType == ErrorTypeConnectionReset
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch {
	case statusCode == 429: // Too Many Requests
		return true
	case statusCode >= 500 && statusCode < 600: // Server errors
		return true
	default:
		return false
	}
}
