// Package transport performs the network upload of encrypted log containers
// and classifies the outcome.
//
// It carries no retry policy; retries and backoff belong entirely to the
// scheduler. Timeouts are whatever the injected *http.Client is configured
// with.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// LogUUIDHeader carries the log's identifier so the endpoint can deduplicate
// repeated uploads of the same artifact.
const LogUUIDHeader = "log-uuid"

// Service uploads files over HTTP.
type Service struct {
	client *http.Client
}

// NewService creates a transport over the given client. Passing nil uses a
// zero-value client; hosts that need timeouts or proxies inject their own.
func NewService(client *http.Client) *Service {
	if client == nil {
		client = &http.Client{}
	}
	return &Service{client: client}
}

// serverError is the endpoint's structured error body.
type serverError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// UploadFile POSTs the body to uploadURL with the log-uuid and Authorization
// headers set. A 2xx response returns the (possibly empty) response body.
// A non-2xx response returns a *HTTPError; transport-level failures return
// the underlying network error.
func (s *Service) UploadFile(ctx context.Context, uploadURL, authToken, uuid string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, body)
	if err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set(LogUUIDHeader, uuid)
	req.Header.Set("Authorization", authToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uploading log %s: %w", uuid, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading upload response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyHTTPError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

func classifyHTTPError(statusCode int, body []byte) *HTTPError {
	var se serverError
	if err := json.Unmarshal(body, &se); err == nil && se.Error != "" {
		return &HTTPError{StatusCode: statusCode, ErrorCode: se.Error, Message: se.Message}
	}
	return &HTTPError{StatusCode: statusCode, Message: http.StatusText(statusCode) + ": " + string(body)}
}
