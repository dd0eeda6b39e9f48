package discourse

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// sleepRecorder replaces the client's sleeps and records their durations.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func withSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(o *clientOptions) {
		o.sleep = sleep
	}
}

func withClock(now func() time.Time) Option {
	return func(o *clientOptions) {
		o.now = now
	}
}

func testSettings(serverURL string) Settings {
	return Settings{
		ServerURL:       serverURL,
		ApplicationName: "discoursectl-test",
		APIKey:          "test-key",
		APIUsername:     "system",
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestClient(t *testing.T, serverURL string, opts ...Option) *Client {
	t.Helper()
	client, err := NewClient(testSettings(serverURL), testLogger(), opts...)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
