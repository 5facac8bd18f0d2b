package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddr(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "127.0.0.1:8080"},
		{in: "0.0.0.0:9090", want: "127.0.0.1:9090"},
		{in: ":9090", want: "127.0.0.1:9090"},
		{in: "[::]:9090", want: "127.0.0.1:9090"},
		{in: "10.0.0.5:8080", want: "10.0.0.5:8080"},
		{in: "garbage", want: "127.0.0.1:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeAddr(tt.in))
		})
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   int
	}{
		{name: "healthy", status: http.StatusOK, body: `{"status":"ok","time":"2026-01-01T00:00:00Z"}`, want: 0},
		{name: "bad status", status: http.StatusServiceUnavailable, body: `{"status":"ok"}`, want: 1},
		{name: "not ok", status: http.StatusOK, body: `{"status":"degraded"}`, want: 1},
		{name: "not json", status: http.StatusOK, body: `ok`, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/health", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			addr := strings.TrimPrefix(srv.URL, "http://")
			assert.Equal(t, tt.want, check(http.DefaultTransport, addr))
		})
	}

	assert.Equal(t, 1, check(http.DefaultTransport, "127.0.0.1:1"), "connection refused")
}
