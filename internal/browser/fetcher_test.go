package browser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastFetcher(retries int) *Fetcher {
	return NewFetcher(FetcherOptions{
		Timeout:         2 * time.Second,
		MaxRetries:      retries,
		InitialInterval: time.Millisecond,
	})
}

func TestFetchJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept"), "application/ld+json")
		assert.Contains(t, r.Header.Get("User-Agent"), "iiifnav")
		w.Header().Set("Content-Type", "application/ld+json")
		w.Write([]byte(`{"id": "x"}`))
	}))
	defer srv.Close()

	res, err := fastFetcher(0).FetchJSON(context.Background(), srv.URL+"/manifest")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, IsJSON(res.ContentType))
	assert.JSONEq(t, `{"id": "x"}`, string(res.Body))
}

func TestFetchJSON_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := fastFetcher(3).FetchJSON(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchJSON_ClientErrorIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := fastFetcher(3).FetchJSON(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHTTPStatus))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchJSON_GivesUp(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := fastFetcher(2).FetchJSON(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchJSON_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fastFetcher(3).FetchJSON(ctx, "http://127.0.0.1:1/none")
	assert.Error(t, err)
}

func TestIsJSON(t *testing.T) {
	assert.True(t, IsJSON("application/json; charset=utf-8"))
	assert.True(t, IsJSON(`application/ld+json;profile="x"`))
	assert.False(t, IsJSON("text/html"))
}
