package supernote

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient returns a client pointed at a test server with a seeded
// session, so operation tests exercise only the call under test.
func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client := NewClient(baseURL, nil, testLogger())
	client.SetAccessToken("test-token")
	client.xsrfToken = "test-xsrf"

	return client
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient("", nil, nil)

	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.httpClient.Jar)
	assert.Empty(t, client.AccessToken())
}

func TestNewClient_DoesNotMutateCallersClient(t *testing.T) {
	original := &http.Client{}

	client := NewClient("http://example.invalid", original, testLogger())

	assert.NotNil(t, client.httpClient.Jar)
	assert.Nil(t, original.Jar)
}

func TestEnsureSession(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/csrf", r.URL.Path)
		w.Header().Set("X-Xsrf-Token", "xsrf-abc")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, testLogger())

	require.NoError(t, client.ensureSession(context.Background()))
	assert.Equal(t, "xsrf-abc", client.xsrfToken)

	// A second call reuses the session instead of re-fetching.
	require.NoError(t, client.ensureSession(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestEnsureSession_MissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, testLogger())

	err := client.ensureSession(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemote)
}

func TestEnsureSession_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, testLogger())

	err := client.ensureSession(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
}

func TestPost_AttachesSessionHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-xsrf", r.Header.Get("X-XSRF-TOKEN"))
		assert.Equal(t, "test-token", r.Header.Get("x-access-token"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Chrome/134")
		assert.Equal(t, "https://cloud.supernote.com", r.Header.Get("Origin"))
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	err := client.postJSON(context.Background(), "probe", "/probe", map[string]int{"n": 1}, nil)
	require.NoError(t, err)
}

func TestPostJSON_EnvelopeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"errorMsg":"quota exceeded"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	err := client.postJSON(context.Background(), "probe", "/probe", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemote)

	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "probe", ae.Op)
	assert.Equal(t, "quota exceeded", ae.Message)
	assert.Contains(t, err.Error(), "probe failed: quota exceeded")
}

func TestPostJSON_EnvelopeFailureWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	err := client.postJSON(context.Background(), "probe", "/probe", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "probe rejected by service")
}

func TestPostJSON_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	err := client.postJSON(context.Background(), "probe", "/probe", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemote)
}

func TestPostJSON_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	err := client.postJSON(context.Background(), "probe", "/probe", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadGateway, te.StatusCode)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestPostJSON_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	srv.Close() // refuse connections

	client := newTestClient(t, srv.URL)

	err := client.postJSON(context.Background(), "probe", "/probe", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
}
