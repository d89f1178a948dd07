// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/constants"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/ctxutil"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/middleware"
)

var ok = http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
	writer.WriteHeader(http.StatusOK)
})

func TestRealIP(t *testing.T) {
	tests := []struct {
		name      string
		realIP    string
		forwarded string
		remote    string
		want      string
	}{
		{"real_ip_header", "203.0.113.7", "198.51.100.1", "10.0.0.1:5000", "203.0.113.7"},
		{"first_forwarded_hop", "", "198.51.100.1, 10.0.0.2", "10.0.0.1:5000", "198.51.100.1"},
		{"remote_addr", "", "", "10.0.0.1:5000", "10.0.0.1"},
		{"remote_without_port", "", "", "10.0.0.1", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.RemoteAddr = tt.remote
			if tt.realIP != "" {
				request.Header.Set(constants.HeaderXRealIP, tt.realIP)
			}
			if tt.forwarded != "" {
				request.Header.Set(constants.HeaderXForwardedFor, tt.forwarded)
			}
			assert.Equal(t, tt.want, middleware.RealIP(request))
		})
	}
}

/*
TestRequestID_AndLogger checks that the id reaches the context, the response
and the per-request log record.
*/
func TestRequestID_AndLogger(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buffer, nil))

	var seen string
	handler := middleware.RequestID()(middleware.StructuredLogger(logger)(
		http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			seen = ctxutil.GetRequestID(request.Context())
			writer.WriteHeader(http.StatusTeapot)
		}),
	))

	t.Run("generated", func(t *testing.T) {
		buffer.Reset()
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/comments", nil))

		require.NotEmpty(t, seen)
		assert.Equal(t, seen, recorder.Header().Get(constants.HeaderXRequestID))

		var record map[string]any
		require.NoError(t, json.Unmarshal(buffer.Bytes(), &record))
		assert.Equal(t, "http_request_finished", record["msg"])
		assert.Equal(t, seen, record["request_id"])
		assert.EqualValues(t, http.StatusTeapot, record["status"])
		assert.Equal(t, "WARN", record["level"])
	})

	t.Run("propagated", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set(constants.HeaderXRequestID, "upstream-id")
		handler.ServeHTTP(httptest.NewRecorder(), request)
		assert.Equal(t, "upstream-id", seen)
	})
}

/*
TestRateLimit rejects requests past the burst, per client.
*/
func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := middleware.RateLimit(ctx, 1, 2)(ok)

	hit := func(ip string) *httptest.ResponseRecorder {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set(constants.HeaderXRealIP, ip)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder
	}

	assert.Equal(t, http.StatusOK, hit("203.0.113.1").Code)
	assert.Equal(t, http.StatusOK, hit("203.0.113.1").Code)

	rejected := hit("203.0.113.1")
	assert.Equal(t, http.StatusTooManyRequests, rejected.Code)
	assert.NotEmpty(t, rejected.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rejected.Body.Bytes(), &body))
	assert.Equal(t, middleware.CodeTooManyRequests, body["code"])

	assert.Equal(t, http.StatusOK, hit("203.0.113.2").Code)
}

func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery(slog.Default())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
}

type corsConfig struct {
	development bool
	origins     []string
}

func (c corsConfig) IsDevelopment() bool { return c.development }
func (c corsConfig) Origins() []string   { return c.origins }

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		cfg     corsConfig
		origin  string
		allowed bool
	}{
		{"listed", corsConfig{origins: []string{"https://undangan.example"}}, "https://undangan.example", true},
		{"unlisted", corsConfig{origins: []string{"https://undangan.example"}}, "https://evil.example", false},
		{"wildcard", corsConfig{origins: []string{"*"}}, "https://any.example", true},
		{"development", corsConfig{development: true}, "http://localhost:5173", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodOptions, "/api/comments", nil)
			request.Header.Set(constants.HeaderOrigin, tt.origin)
			recorder := httptest.NewRecorder()

			middleware.CORS(tt.cfg)(ok).ServeHTTP(recorder, request)

			assert.Equal(t, http.StatusNoContent, recorder.Code)
			if tt.allowed {
				assert.Equal(t, tt.origin, recorder.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
			}
			assert.Equal(t, constants.HeaderOrigin, recorder.Header().Get("Vary"))
		})
	}
}
