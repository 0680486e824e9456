package http_test

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpclient "github.com/xpayments/xpayments-cloud-go/client/http"
	"github.com/xpayments/xpayments-cloud-go/testutil"
)

func TestPostSendsJSONBodyAndDefaultHeaders(t *testing.T) {
	var mu sync.Mutex
	var gotBody []byte
	var gotHeader nethttp.Header
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		mu.Lock()
		gotBody = body
		gotHeader = r.Header.Clone()
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := httpclient.NewHTTPClient(
		httpclient.WithBaseURL(srv.URL),
		httpclient.WithDefaultHeader("X-Client", "sdk-test"),
	)

	resp, err := client.Post(context.Background(), "/things", map[string]string{"name": "widget"},
		httpclient.WithHeader("X-Request", "one"))
	require.NoError(t, err)

	var decoded map[string]bool
	require.NoError(t, client.ProcessJSONResponse(resp, &decoded))
	assert.True(t, decoded["ok"])

	mu.Lock()
	defer mu.Unlock()
	assert.JSONEq(t, `{"name":"widget"}`, string(gotBody))
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, "sdk-test", gotHeader.Get("X-Client"))
	assert.Equal(t, "one", gotHeader.Get("X-Request"))
}

func TestRawMessageBodyIsSentUnchanged(t *testing.T) {
	raw := json.RawMessage(`{"b":2,"a":1}`)

	var mu sync.Mutex
	var gotBody []byte
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		mu.Lock()
		gotBody = body
		mu.Unlock()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := httpclient.NewHTTPClient(httpclient.WithBaseURL(srv.URL))
	resp, err := client.Post(context.Background(), "/signed", raw)
	require.NoError(t, err)
	defer resp.Body.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, string(raw), string(gotBody), "pre-encoded bytes must not be re-encoded")
}

func TestErrorStatusReturnsHTTPError(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"no such thing"}`))
	}))
	defer srv.Close()

	client := httpclient.NewHTTPClient(httpclient.WithBaseURL(srv.URL))
	resp, err := client.Get(context.Background(), "/missing")
	require.Error(t, err)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}

	var httpErr *httpclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, nethttp.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, nethttp.MethodGet, httpErr.Method)
	assert.Contains(t, httpErr.Body, "no such thing")
	assert.Contains(t, httpErr.Error(), "404")
}

func TestNoRetriesByDefault(t *testing.T) {
	var mu sync.Mutex
	var calls int
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(nethttp.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := httpclient.NewHTTPClient(httpclient.WithBaseURL(srv.URL))
	resp, err := client.Post(context.Background(), "/flaky", map[string]string{"n": "1"})
	require.Error(t, err)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "exactly one outbound call without a retry config")
}

func TestRetryOnRetryableStatus(t *testing.T) {
	var mu sync.Mutex
	var calls int
	var bodies []string
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		mu.Lock()
		bodies = append(bodies, string(body))
		calls++
		failing := calls < 3
		mu.Unlock()

		if failing {
			w.WriteHeader(nethttp.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := httpclient.NewHTTPClient(
		httpclient.WithBaseURL(srv.URL),
		httpclient.WithRetryConfig(&httpclient.RetryConfig{
			MaxRetries:           3,
			InitialInterval:      time.Millisecond,
			MaxInterval:          5 * time.Millisecond,
			Multiplier:           2.0,
			MaxElapsedTime:       time.Second,
			RetryableStatusCodes: []int{nethttp.StatusServiceUnavailable},
		}),
	)

	resp, err := client.Post(context.Background(), "/flaky", map[string]string{"n": "1"})
	require.NoError(t, err)
	defer resp.Body.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, calls)
	for _, body := range bodies {
		assert.JSONEq(t, `{"n":"1"}`, body, "every attempt must resend the full body")
	}
}

func TestMetricsCollectorReceivesMeasurements(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	metrics := &testutil.MockMetricsCollector{}
	metrics.On("RecordRequestDuration", nethttp.MethodGet, "/ping", nethttp.StatusOK, mock.Anything).Once()
	metrics.On("RecordRequestCount", nethttp.MethodGet, "/ping", nethttp.StatusOK).Once()

	client := httpclient.NewHTTPClient(
		httpclient.WithBaseURL(srv.URL),
		httpclient.WithMetricsCollector(metrics),
	)

	resp, err := client.Get(context.Background(), "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()

	metrics.AssertExpectations(t)
	metrics.AssertNotCalled(t, "RecordRequestError", mock.Anything, mock.Anything)
}

func TestMetricsCollectorRecordsErrors(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusInternalServerError)
	}))
	defer srv.Close()

	metrics := &testutil.MockMetricsCollector{}
	metrics.On("RecordRequestDuration", nethttp.MethodGet, "/boom", nethttp.StatusInternalServerError, mock.Anything).Once()
	metrics.On("RecordRequestCount", nethttp.MethodGet, "/boom", nethttp.StatusInternalServerError).Once()
	metrics.On("RecordRequestError", nethttp.MethodGet, "/boom").Once()

	client := httpclient.NewHTTPClient(
		httpclient.WithBaseURL(srv.URL),
		httpclient.WithMetricsCollector(metrics),
	)

	resp, err := client.Get(context.Background(), "/boom")
	require.Error(t, err)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}

	metrics.AssertExpectations(t)
}

func TestWithBasicAuth(t *testing.T) {
	var mu sync.Mutex
	var user, pass string
	var ok bool
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		mu.Lock()
		user, pass, ok = r.BasicAuth()
		mu.Unlock()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := httpclient.NewHTTPClient(httpclient.WithBaseURL(srv.URL))
	resp, err := client.Get(context.Background(), "/secure", httpclient.WithBasicAuth("acme", "api-key"))
	require.NoError(t, err)
	defer resp.Body.Close()

	mu.Lock()
	defer mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, "acme", user)
	assert.Equal(t, "api-key", pass)
}

func TestLoggingMiddlewareKeepsRequestsWorking(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := httpclient.NewHTTPClient(
		httpclient.WithBaseURL(srv.URL),
		httpclient.WithMiddleware(httpclient.LoggingMiddleware()),
	)

	resp, err := client.Get(context.Background(), "/logged")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
}

func TestFullURLWithoutBaseURL(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := httpclient.NewHTTPClient()
	resp, err := client.Get(context.Background(), srv.URL+"/direct")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
}

func TestInvalidPathWithoutBaseURL(t *testing.T) {
	client := httpclient.NewHTTPClient()
	resp, err := client.Get(context.Background(), "://missing-scheme")
	assert.Error(t, err)
	assert.Nil(t, resp)
}
