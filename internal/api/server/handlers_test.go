package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bz888/oblaka/internal/api"
	"github.com/bz888/oblaka/internal/config"
)

type MockForwarder struct {
	mock.Mock
}

func (m *MockForwarder) Forward(ctx context.Context, method, path string, body []byte) (*Reply, error) {
	args := m.Called(method, path, body)
	reply, _ := args.Get(0).(*Reply)
	return reply, args.Error(1)
}

func testConfig(backendURL string) *config.ProxyConfig {
	return &config.ProxyConfig{
		ServiceName:     "oblaka-proxy",
		Environment:     "test",
		Port:            0,
		BackendURL:      backendURL,
		UpstreamTimeout: 2 * time.Second,
		ShutdownTimeout: time.Second,
		EnableMetrics:   true,
	}
}

func newTestServer(t *testing.T, upstream Forwarder) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return New(testConfig("http://127.0.0.1:8000"), upstream, zerolog.Nop())
}

func newUpstreamServer(t *testing.T, backend http.Handler) *Server {
	t.Helper()
	upstream := httptest.NewServer(backend)
	t.Cleanup(upstream.Close)
	gin.SetMode(gin.TestMode)
	cfg := testConfig(upstream.URL)
	return New(cfg, NewUpstream(cfg.BackendURL, cfg.UpstreamTimeout), zerolog.Nop())
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.ErrorBody {
	t.Helper()
	var body api.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func closedAddr(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())
	return "http://" + addr
}

func TestChatPassesBodyThroughUnchanged(t *testing.T) {
	const sent = `{"message":"hi","model":"openai","temperature":0.7,"max_tokens":1000,"extra":[1,2]}`
	const answer = `{"response":"hello","model_used":"OpenAI GPT-3.5","tokens_used":42}`

	s := newUpstreamServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		got, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, sent, string(got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(answer))
	}))

	rec := serve(s, http.MethodPost, "/api/chat", sent)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, answer, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestChatEchoesUpstreamStatusAndDetail(t *testing.T) {
	s := newUpstreamServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"rate limited"}`))
	}))

	rec := serve(s, http.MethodPost, "/api/chat", `{"message":"hi"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, labelChat, body.Error)
	assert.Equal(t, "rate limited", body.Details)
}

func TestChatEchoesClientErrorStatus(t *testing.T) {
	s := newUpstreamServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"unsupported model"}`))
	}))

	rec := serve(s, http.MethodPost, "/api/chat", `{"message":"hi","model":"nope"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unsupported model", decodeError(t, rec).Details)
}

func TestChatUpstreamErrorWithoutDetailUsesFallback(t *testing.T) {
	s := newUpstreamServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))

	rec := serve(s, http.MethodPost, "/api/chat", `{"message":"hi"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream responded with status 502", decodeError(t, rec).Details)
}

func TestChatUnreachableUpstream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(closedAddr(t))
	s := New(cfg, NewUpstream(cfg.BackendURL, cfg.UpstreamTimeout), zerolog.Nop())

	rec := serve(s, http.MethodPost, "/api/chat", `{"message":"hi"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "backend unavailable", body.Error)
	assert.Equal(t, detailsUnavailable, body.Details)
}

func TestChatUpstreamTimeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	gin.SetMode(gin.TestMode)
	cfg := testConfig(upstream.URL)
	s := New(cfg, NewUpstream(cfg.BackendURL, 50*time.Millisecond), zerolog.Nop())

	rec := serve(s, http.MethodPost, "/api/chat", `{"message":"hi"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestChatLocalFailure(t *testing.T) {
	forwarder := new(MockForwarder)
	forwarder.On("Forward", http.MethodPost, "/chat", mock.Anything).Return(nil, errors.New("build request: invalid body"))
	s := newTestServer(t, forwarder)

	rec := serve(s, http.MethodPost, "/api/chat", `{"message":"hi"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, labelRequest, body.Error)
	assert.Equal(t, "build request: invalid body", body.Details)
	forwarder.AssertNumberOfCalls(t, "Forward", 1)
}

func TestHealthAndModelsRelayVerbatim(t *testing.T) {
	forwarder := new(MockForwarder)
	forwarder.On("Forward", http.MethodGet, "/health", []byte(nil)).
		Return(&Reply{StatusCode: http.StatusOK, Body: []byte(`{"status":"ok","openai_available":true}`)}, nil)
	forwarder.On("Forward", http.MethodGet, "/models", []byte(nil)).
		Return(&Reply{StatusCode: http.StatusOK, Body: []byte(`{"models":[]}`)}, nil)
	s := newTestServer(t, forwarder)

	rec := serve(s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"status":"ok","openai_available":true}`, rec.Body.String())

	rec = serve(s, http.MethodGet, "/api/models", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"models":[]}`, rec.Body.String())

	forwarder.AssertExpectations(t)
}

func TestHealthAndModelsFailuresMapTo500(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		label string
		err   error
	}{
		{"health upstream status", "/api/health", labelHealth, &UpstreamError{StatusCode: http.StatusServiceUnavailable}},
		{"health unreachable", "/api/health", labelHealth, &net.OpError{Op: "dial", Err: errors.New("connection refused")}},
		{"models upstream status", "/api/models", labelModels, &UpstreamError{StatusCode: http.StatusNotFound}},
		{"models local failure", "/api/models", labelModels, errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forwarder := new(MockForwarder)
			forwarder.On("Forward", http.MethodGet, mock.Anything, mock.Anything).Return(nil, tt.err)
			s := newTestServer(t, forwarder)

			rec := serve(s, http.MethodGet, tt.path, "")

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.label, body.Error)
			assert.Equal(t, tt.err.Error(), body.Details)
		})
	}
}

func TestUndefinedRoutesReturn404(t *testing.T) {
	s := newTestServer(t, new(MockForwarder))

	cases := []struct{ method, path string }{
		{http.MethodGet, "/api/unknown"},
		{http.MethodPost, "/api/health"},
		{http.MethodGet, "/api/chat"},
		{http.MethodDelete, "/api/models"},
		{http.MethodGet, "/api/health/"},
		{http.MethodPut, "/somewhere/else"},
	}
	for _, tc := range cases {
		rec := serve(s, tc.method, tc.path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
		assert.JSONEq(t, `{"error":"endpoint not found"}`, rec.Body.String(), "%s %s", tc.method, tc.path)
	}
}

func TestPanicIsRecoveredAndServerKeepsServing(t *testing.T) {
	forwarder := new(MockForwarder)
	forwarder.On("Forward", http.MethodGet, "/health", mock.Anything).
		Return(&Reply{StatusCode: http.StatusOK, Body: []byte(`{"status":"ok"}`)}, nil)
	s := newTestServer(t, forwarder)
	s.engine.GET("/api/explode", func(c *gin.Context) { panic("unexpected nil") })

	rec := serve(s, http.MethodGet, "/api/explode", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())

	rec = serve(s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEntryPageAndMetrics(t *testing.T) {
	forwarder := new(MockForwarder)
	forwarder.On("Forward", http.MethodGet, "/health", mock.Anything).
		Return(&Reply{StatusCode: http.StatusOK, Body: []byte(`{"status":"ok"}`)}, nil)
	s := newTestServer(t, forwarder)

	rec := serve(s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Oblaka AI</title>")

	serve(s, http.MethodGet, "/api/health", "")
	rec = serve(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `oblaka_proxy_requests_total{method="GET",route="/api/health",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `oblaka_proxy_upstream_duration_seconds_count{outcome="ok",path="/health"} 1`)
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t, new(MockForwarder))

	rec := serve(s, http.MethodGet, "/nope", "")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestUpstreamErrorDetail(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"detail":"rate limited"}`, "rate limited"},
		{`{"details":"quota"}`, "quota"},
		{`{"error":"boom"}`, "boom"},
		{`{"error":{"message":"invalid key"}}`, "invalid key"},
		{`{"detail":[{"msg":"field required"}]}`, `[{"msg":"field required"}]`},
		{`{"detail":null}`, "upstream responded with status 500"},
		{`not json`, "upstream responded with status 500"},
	}
	for _, tt := range tests {
		err := &UpstreamError{StatusCode: 500, Body: []byte(tt.body)}
		assert.Equal(t, tt.want, err.Detail(), tt.body)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig("http://127.0.0.1:8000")
	s := New(cfg, new(MockForwarder), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}
