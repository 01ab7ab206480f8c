package ghostfolio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/mbks/GhostfolioSidekick/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	m.Run()
}

// testServer fakes the remote service: the anonymous token exchange plus a
// configurable API endpoint whose transport calls are counted.
type testServer struct {
	*httptest.Server
	authCalls atomic.Int64
	apiCalls  atomic.Int64
	handler   func(w http.ResponseWriter, r *http.Request)
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *testServer {
	t.Helper()
	ts := &testServer{handler: handler}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/anonymous/secret-access-token", func(w http.ResponseWriter, r *http.Request) {
		ts.authCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"authToken": "bearer-token"})
	})
	mux.HandleFunc("/api/v1/test", func(w http.ResponseWriter, r *http.Request) {
		ts.apiCalls.Add(1)
		if got := r.Header.Get("Authorization"); got != "Bearer bearer-token" {
			t.Errorf("missing bearer token, got %q", got)
		}
		ts.handler(w, r)
	})
	ts.Server = httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestRestCall(serverURL string) *RestCall {
	r := NewRestCall(NewMemoryCache(), serverURL, "secret-access-token")
	r.retryPause = time.Millisecond
	r.limiter = rate.NewLimiter(rate.Inf, 0)
	return r
}

func TestDoRestGet_RetriesOnceThenSucceeds(t *testing.T) {
	var attempts atomic.Int64
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	})

	body, err := newTestRestCall(server.URL).DoRestGet(context.Background(), "api/v1/test")

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.EqualValues(t, 2, server.apiCalls.Load())
}

func TestDoRestGet_ExhaustsRetriesAfterFiveAttempts(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := newTestRestCall(server.URL).DoRestGet(context.Background(), "api/v1/test")

	require.Error(t, err)
	var remoteErr *RemoteCallError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusInternalServerError, remoteErr.StatusCode)
	assert.Equal(t, "api/v1/test", remoteErr.Path)
	// Five attempts total, never a sixth.
	assert.EqualValues(t, 5, server.apiCalls.Load())
}

func TestDoRestGet_SecondReadWithinTTLHitsCache(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":1}`))
	})
	restCall := newTestRestCall(server.URL)

	first, err := restCall.DoRestGet(context.Background(), "api/v1/test")
	require.NoError(t, err)
	second, err := restCall.DoRestGet(context.Background(), "api/v1/test")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, server.apiCalls.Load())
}

func TestDoRestGet_FailedCallIsNotCached(t *testing.T) {
	var attempts atomic.Int64
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 5 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"value":2}`))
	})
	restCall := newTestRestCall(server.URL)

	_, err := restCall.DoRestGet(context.Background(), "api/v1/test")
	require.Error(t, err)

	body, err := restCall.DoRestGet(context.Background(), "api/v1/test")
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":2}`, string(body))
}

func TestDoRestPost_IsNeverCached(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	restCall := newTestRestCall(server.URL)

	_, err := restCall.DoRestPost(context.Background(), "api/v1/test", map[string]string{"a": "1"})
	require.NoError(t, err)
	_, err = restCall.DoRestPost(context.Background(), "api/v1/test", map[string]string{"a": "1"})
	require.NoError(t, err)

	assert.EqualValues(t, 2, server.apiCalls.Load())
}

// The bearer token is exchanged fresh for every transport call; a stale
// token can then never outlive a single attempt.
func TestTokenIsExchangedPerCall(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	restCall := newTestRestCall(server.URL)

	_, err := restCall.DoRestPost(context.Background(), "api/v1/test", nil)
	require.NoError(t, err)
	_, err = restCall.DoRestPost(context.Background(), "api/v1/test", nil)
	require.NoError(t, err)

	assert.EqualValues(t, 2, server.authCalls.Load())
}

func TestDoRestDelete(t *testing.T) {
	var method string
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusOK)
	})

	err := newTestRestCall(server.URL).DoRestDelete(context.Background(), "api/v1/test")

	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, method)
}

func TestDoRestGet_ContextCancellationStopsRetrying(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	restCall := newTestRestCall(server.URL)
	restCall.retryPause = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	_, err := restCall.DoRestGet(ctx, "api/v1/test")

	require.Error(t, err)
	assert.Less(t, server.apiCalls.Load(), int64(5))
}
