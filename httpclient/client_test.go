package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseDelay(time.Millisecond))
	body, err := client.Post(context.Background(), server.URL, "application/json", []byte(`{}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestPostRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(WithMaxAttempts(3), WithBaseDelay(time.Millisecond))
	body, err := client.Post(context.Background(), server.URL, "text/plain", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestPostExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(WithMaxAttempts(2), WithBaseDelay(time.Millisecond))
	_, err := client.Post(context.Background(), server.URL, "text/plain", nil)
	require.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPostDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(WithMaxAttempts(5), WithBaseDelay(time.Millisecond))
	_, err := client.Post(context.Background(), server.URL, "text/plain", nil)
	require.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPostHonorsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(WithBaseDelay(time.Millisecond))
	_, err := client.Post(ctx, server.URL, "text/plain", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInvalidMaxAttempts(t *testing.T) {
	client := NewClient(WithMaxAttempts(0))
	_, err := client.Post(context.Background(), "http://localhost", "text/plain", nil)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}
