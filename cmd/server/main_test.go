package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/danielgtaylor/huma/v2"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/http2"

	"github.com/janisto/huma-hello/internal/config"
	"github.com/janisto/huma-hello/internal/http/health"
	"github.com/janisto/huma-hello/internal/platform/metrics"
)

func testAssets() fstest.MapFS {
	return fstest.MapFS{
		"index.html":      {Data: []byte("<h1>home</h1>")},
		"css/site.css":    {Data: []byte("body{}")},
		"docs/index.html": {Data: []byte("<p>docs</p>")},
		"404.html":        {Data: []byte("<h1>not here</h1>")},
	}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}

func testServer(rec *metrics.Recorder) http.Handler {
	return newRouter(testConfig(), testAssets(), rec)
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(chimiddleware.RequestIDHeader, "test-req")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestHelloRoutes(t *testing.T) {
	srv := testServer(nil)
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"default name", "/hello", "<b>Hello World</b>"},
		{"empty name", "/hello?name=", "<b>Hello World</b>"},
		{"query name", "/hello?name=Alice", "<b>Hello Alice</b>"},
		{"path name", "/hello/Bob", "<b>Hello Bob</b>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, srv, http.MethodGet, tt.target, nil)
			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200 got %d", resp.Code)
			}
			if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Fatalf("expected text/html, got %q", ct)
			}
			if got := resp.Body.String(); got != tt.want {
				t.Fatalf("body = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHelloJSON(t *testing.T) {
	resp := do(t, testServer(nil), http.MethodGet, "/api/hello/json", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	want := `{"Message":"Hello Wyrld JSON","Data":{"number":69}}`
	if got := strings.TrimSpace(resp.Body.String()); got != want {
		t.Fatalf("body mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
}

func TestHelloPost(t *testing.T) {
	srv := testServer(nil)
	bodies := []string{
		`{"word":"hi","number":5}`,
		`{}`,
		`{"word":"only"}`,
		`{"extra":true}`,
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			resp := do(t, srv, http.MethodPost, "/api/hello/post", strings.NewReader(body))
			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
			}
			if got := strings.TrimSpace(resp.Body.String()); got != `{"message":"Success"}` {
				t.Fatalf("unexpected body %q", got)
			}
		})
	}
}

func TestHelloPostMalformed(t *testing.T) {
	resp := do(t, testServer(nil), http.MethodPost, "/api/hello/post", strings.NewReader("{"))
	if resp.Code < 400 || resp.Code >= 500 {
		t.Fatalf("expected 4xx got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("expected problem+json, got %q", ct)
	}
	var problem huma.ErrorModel
	if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to unmarshal problem: %v", err)
	}
	if problem.Status != resp.Code {
		t.Fatalf("problem status %d does not match response %d", problem.Status, resp.Code)
	}
}

func TestStaticFallback(t *testing.T) {
	srv := testServer(nil)
	tests := []struct {
		name   string
		target string
		code   int
		body   string
	}{
		{"root index", "/", http.StatusOK, "<h1>home</h1>"},
		{"file", "/css/site.css", http.StatusOK, "body{}"},
		{"directory index", "/docs/", http.StatusOK, "<p>docs</p>"},
		{"missing", "/nope.txt", http.StatusNotFound, "<h1>not here</h1>"},
		{"escape", "/../../etc/passwd", http.StatusNotFound, "<h1>not here</h1>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, srv, http.MethodGet, tt.target, nil)
			if resp.Code != tt.code {
				t.Fatalf("expected %d got %d", tt.code, resp.Code)
			}
			if got := resp.Body.String(); got != tt.body {
				t.Fatalf("body = %q, want %q", got, tt.body)
			}
		})
	}
}

func TestStaticFallbackWithoutDocument(t *testing.T) {
	srv := newRouter(testConfig(), fstest.MapFS{}, nil)
	resp := do(t, srv, http.MethodGet, "/missing", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("expected problem+json, got %q", ct)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	resp := do(t, testServer(nil), http.MethodDelete, "/hello", nil)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", resp.Code)
	}
	if allow := resp.Header().Get("Allow"); !strings.Contains(allow, http.MethodGet) {
		t.Fatalf("expected Allow to list GET, got %q", allow)
	}
}

func TestHeadOnGetRoutes(t *testing.T) {
	srv := testServer(nil)
	for _, target := range []string{"/hello", "/hello/Bob", "/api/hello/json", "/css/site.css"} {
		t.Run(target, func(t *testing.T) {
			resp := do(t, srv, http.MethodHead, target, nil)
			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200 got %d", resp.Code)
			}
		})
	}
}

func TestProblemInstanceIsRequestID(t *testing.T) {
	resp := do(t, newRouter(testConfig(), fstest.MapFS{}, nil), http.MethodGet, "/missing", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	var problem huma.ErrorModel
	if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to unmarshal problem: %v", err)
	}
	if problem.Instance != "test-req" {
		t.Fatalf("expected instance test-req, got %q", problem.Instance)
	}
}

func TestHealth(t *testing.T) {
	resp := do(t, testServer(nil), http.MethodGet, "/health", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var body health.Response
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal health: %v", err)
	}
	if body.Status != "healthy" {
		t.Fatalf("expected healthy, got %q", body.Status)
	}
}

func TestAmbientHeaders(t *testing.T) {
	resp := do(t, testServer(nil), http.MethodGet, "/hello", nil)
	if got := resp.Header().Get(chimiddleware.RequestIDHeader); got != "test-req" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
	if got := resp.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff, got %q", got)
	}
	if got := resp.Header().Get("Link"); got != "" {
		t.Fatalf("expected no Link header, got %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(metrics.New())
	do(t, srv, http.MethodGet, "/hello/Bob", nil)
	do(t, srv, http.MethodGet, "/nope", nil)

	resp := do(t, srv, http.MethodGet, "/metrics", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	body := resp.Body.String()
	for _, want := range []string{
		`hello_http_requests_total{code="200",method="GET",route="/hello/{name}"} 1`,
		`hello_http_requests_total{code="404",method="GET",route="static"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestMetricsDisabled(t *testing.T) {
	resp := do(t, testServer(nil), http.MethodGet, "/metrics", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected static 404 got %d", resp.Code)
	}
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return ln
}

func startServer(t *testing.T, cfg config.Config) (string, func() error) {
	t.Helper()
	ln := listen(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, cfg, ln, newRouter(cfg, testAssets(), nil))
	}()
	stop := func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			return errors.New("server did not stop")
		}
	}
	return "http://" + ln.Addr().String(), stop
}

func TestServeLifecycle(t *testing.T) {
	base, stop := startServer(t, testConfig())

	resp, err := http.Get(base + "/hello?name=Net")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "<b>Hello Net</b>" {
		t.Fatalf("unexpected body %q", body)
	}

	if err := stop(); err != nil {
		t.Fatalf("serve returned %v", err)
	}
}

func TestServeH2C(t *testing.T) {
	base, stop := startServer(t, testConfig())
	defer func() {
		if err := stop(); err != nil {
			t.Errorf("serve returned %v", err)
		}
	}()

	client := &http.Client{Transport: &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}}
	resp, err := client.Get(base + "/api/hello/json")
	if err != nil {
		t.Fatalf("h2c get: %v", err)
	}
	defer resp.Body.Close()
	if resp.ProtoMajor != 2 {
		t.Fatalf("expected HTTP/2, got %s", resp.Proto)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
}

func TestRunPortInUse(t *testing.T) {
	ln := listen(t)
	defer ln.Close()

	cfg := testConfig()
	addr := ln.Addr().(*net.TCPAddr)
	cfg.Host = addr.IP.String()
	cfg.Port = addr.Port

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := run(ctx, cfg)
	if err == nil {
		t.Fatal("expected listen error")
	}
	if !strings.Contains(err.Error(), "listen") {
		t.Fatalf("expected listen error, got %v", err)
	}
}
