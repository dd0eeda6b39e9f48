package discourse

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

func TestRetryBackoffOnServerErrors(t *testing.T) {
	tests := []struct {
		name       string
		failures   int32
		status     int
		wantDelays []time.Duration
		wantErr    bool
		wantCalls  int32
	}{
		{
			name:       "gives up after four retries",
			failures:   100,
			status:     http.StatusServiceUnavailable,
			wantDelays: []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second},
			wantErr:    true,
			wantCalls:  5,
		},
		{
			name:       "recovers after two failures",
			failures:   2,
			status:     http.StatusBadGateway,
			wantDelays: []time.Duration{time.Second, 2 * time.Second},
			wantCalls:  3,
		},
		{
			name:       "gateway timeout is retried",
			failures:   1,
			status:     http.StatusGatewayTimeout,
			wantDelays: []time.Duration{time.Second},
			wantCalls:  2,
		},
		{
			name:      "internal server error is final",
			failures:  100,
			status:    http.StatusInternalServerError,
			wantErr:   true,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) <= tt.failures {
					w.WriteHeader(tt.status)
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			}))
			defer server.Close()

			sleeper := &sleepRecorder{}
			client := newTestClient(t, server.URL, withSleeper(sleeper.sleep))

			doc, err := client.Get(context.Background(), "site", nil)
			if tt.wantErr {
				require.Error(t, err)
				apiErr, ok := AsAPIError(err)
				require.True(t, ok)
				assert.Equal(t, tt.status, apiErr.StatusCode)
			} else {
				require.NoError(t, err)
				assert.Equal(t, true, doc.Fields["ok"])
			}
			assert.Equal(t, tt.wantDelays, sleeper.recorded())
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestRetryRateLimited(t *testing.T) {
	tests := []struct {
		name       string
		retryAfter string
		wantDelay  time.Duration
	}{
		{name: "retry-after above the floor", retryAfter: "10", wantDelay: 10 * time.Second},
		{name: "no retry-after", retryAfter: "", wantDelay: 5 * time.Second},
		{name: "retry-after below the floor", retryAfter: "2", wantDelay: 5 * time.Second},
		{name: "unparseable retry-after", retryAfter: "soon", wantDelay: 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					if tt.retryAfter != "" {
						w.Header().Set("Retry-After", tt.retryAfter)
					}
					w.WriteHeader(http.StatusTooManyRequests)
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{})
			}))
			defer server.Close()

			sleeper := &sleepRecorder{}
			client := newTestClient(t, server.URL, withSleeper(sleeper.sleep))

			_, err := client.Get(context.Background(), "latest", nil)
			require.NoError(t, err)
			assert.Equal(t, []time.Duration{tt.wantDelay}, sleeper.recorded())
			assert.Equal(t, int32(2), calls.Load())
		})
	}
}

func TestRedirectIsFollowed(t *testing.T) {
	var oldCalls, newCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		oldCalls.Add(1)
		w.Header().Set("Location", "/new?x=1")
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		newCalls.Add(1)
		assert.Equal(t, "1", r.URL.Query().Get("x"))
		writeJSON(w, http.StatusOK, map[string]any{"moved": true})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sleeper := &sleepRecorder{}
	client := newTestClient(t, server.URL, withSleeper(sleeper.sleep))

	doc, err := client.Get(context.Background(), "old", nil)
	require.NoError(t, err)
	assert.Equal(t, true, doc.Fields["moved"])
	assert.Equal(t, []time.Duration{time.Millisecond}, sleeper.recorded())
	assert.Equal(t, int32(1), oldCalls.Load())
	assert.Equal(t, int32(1), newCalls.Load())
	assert.Equal(t, server.URL+"/new?x=1", doc.MetaData.URI)
}

func TestRedirectWithoutLocationIsFinal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	}))
	defer server.Close()

	sleeper := &sleepRecorder{}
	client := newTestClient(t, server.URL, withSleeper(sleeper.sleep))

	_, err := client.Get(context.Background(), "somewhere", nil)
	require.Error(t, err)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusFound, apiErr.StatusCode)
	assert.Empty(t, sleeper.recorded())
}

func TestRequestHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Api-Key"))
		assert.Equal(t, "system", r.Header.Get("Api-Username"))
		assert.Equal(t, "discoursectl-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json, text/html, */*", r.Header.Get("Accept"))
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Get(context.Background(), "site", nil)
	require.NoError(t, err)
}

func TestAnonymousRequestOmitsCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Api-Key"))
		assert.Empty(t, r.Header.Get("Api-Username"))
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	defer server.Close()

	settings := testSettings(server.URL)
	settings.APIKey = ""
	settings.APIUsername = ""
	client, err := NewClient(settings, testLogger(), withSleeper((&sleepRecorder{}).sleep))
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "site/basic-info", nil)
	require.NoError(t, err)
}

func TestTransportErrorIsWrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	client := newTestClient(t, serverURL)
	_, err := client.Get(context.Background(), "site", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET "+serverURL+"/site")
	_, ok := AsAPIError(err)
	assert.False(t, ok)
}

func TestRetryStopsWhenContextIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, withSleeper(func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepContext(ctx, d)
	}))

	_, err := client.Get(ctx, "site", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryAfterDelay(t *testing.T) {
	assert.Equal(t, 10*time.Second, retryAfterDelay("10", 5*time.Second))
	assert.Equal(t, 5*time.Second, retryAfterDelay(" 3 ", 5*time.Second))
	assert.Equal(t, 5*time.Second, retryAfterDelay("Wed, 21 Oct 2015 07:28:00 GMT", 5*time.Second))
	assert.Equal(t, 5*time.Second, retryAfterDelay("-20", 5*time.Second))

	capped := time.Duration(maxRetryAfter) * time.Second
	assert.Equal(t, capped, retryAfterDelay("99999999999", 5*time.Second))
	assert.Equal(t, capped, retryAfterDelay("999999999999999999999", 5*time.Second))
}

func TestThrottle(t *testing.T) {
	clock := time.Unix(1700000000, 0)
	sleeper := &sleepRecorder{}
	th := newThrottle(100*time.Millisecond, func() time.Time { return clock }, sleeper.sleep)
	ctx := context.Background()

	require.NoError(t, th.wait(ctx))
	require.NoError(t, th.wait(ctx))
	clock = clock.Add(40 * time.Millisecond)
	require.NoError(t, th.wait(ctx))
	clock = clock.Add(200 * time.Millisecond)
	require.NoError(t, th.wait(ctx))

	assert.Equal(t, []time.Duration{100 * time.Millisecond, 60 * time.Millisecond}, sleeper.recorded())
}

func TestClientThrottlesConsecutiveCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	defer server.Close()

	now := time.Unix(1700000000, 0)
	sleeper := &sleepRecorder{}
	settings := testSettings(server.URL)
	settings.DelayBetweenCalls = 250 * time.Millisecond
	client, err := NewClient(settings, testLogger(),
		withSleeper(sleeper.sleep),
		withClock(func() time.Time { return now }))
	require.NoError(t, err)

	for range 3 {
		_, err := client.Get(context.Background(), "site", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, sleeper.recorded())
}
