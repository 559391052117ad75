package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUploadFile_SuccessReturnsResponseBody(t *testing.T) {
	var gotUUID, gotAuth, gotMethod string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotUUID = r.Header.Get(LogUUIDHeader)
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	svc := NewService(nil)
	body, err := svc.UploadFile(context.Background(), srv.URL, "token-123", "uuid-456", strings.NewReader("container bytes"))
	require.NoError(t, err)

	require.Equal(t, []byte("ok"), body)
	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, "uuid-456", gotUUID)
	require.Equal(t, "token-123", gotAuth)
	require.Equal(t, []byte("container bytes"), gotBody)
}

func TestUploadFile_EmptySuccessBodyIsFine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	svc := NewService(nil)
	body, err := svc.UploadFile(context.Background(), srv.URL, "t", "u", strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, body)
}

func TestUploadFile_StructuredServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"invalid_token","message":"the token has expired"}`))
	}))
	defer srv.Close()

	svc := NewService(nil)
	_, err := svc.UploadFile(context.Background(), srv.URL, "t", "u", strings.NewReader("x"))
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusForbidden, httpErr.StatusCode)
	require.Equal(t, "invalid_token", httpErr.ErrorCode)
	require.Equal(t, "the token has expired", httpErr.Message)
}

func TestUploadFile_UnstructuredServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	svc := NewService(nil)
	_, err := svc.UploadFile(context.Background(), srv.URL, "t", "u", strings.NewReader("x"))

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	require.Empty(t, httpErr.ErrorCode)
	require.Contains(t, httpErr.Message, "Internal Server Error")
	require.Contains(t, httpErr.Message, "boom")
}

func TestUploadFile_NetworkErrorIsNotHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	svc := NewService(nil)
	_, err := svc.UploadFile(context.Background(), srv.URL, "t", "u", strings.NewReader("x"))
	require.Error(t, err)

	var httpErr *HTTPError
	require.False(t, errors.As(err, &httpErr), "connection failures must not classify as HTTP errors")
}

func TestUploadFile_InvalidURL(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.UploadFile(context.Background(), "http://\x00invalid", "t", "u", strings.NewReader("x"))
	require.Error(t, err)
}
