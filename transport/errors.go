package transport

import "fmt"

// HTTPError is returned for responses outside the 2xx range. ErrorCode and
// Message come from the server's structured error body when it has one, and
// fall back to the standard status phrase plus the raw body otherwise.
type HTTPError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("upload failed: %s: %s (HTTP %d)", e.ErrorCode, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("upload failed: %s (HTTP %d)", e.Message, e.StatusCode)
}
