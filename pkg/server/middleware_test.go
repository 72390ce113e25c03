package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"mercator-hq/ganymede/pkg/telemetry/logging"
)

func TestRequestIDMiddleware(t *testing.T) {
	srv := newTestServer(t, Config{})

	t.Run("generates request ID when not provided", func(t *testing.T) {
		handler := srv.requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		requestID := rec.Header().Get(RequestIDHeader)
		if requestID == "" {
			t.Error("Request ID should not be empty")
		}
	})

	t.Run("preserves provided request ID", func(t *testing.T) {
		customID := "my-custom-request-id"
		handler := srv.requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		req.Header.Set(RequestIDHeader, customID)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		requestID := rec.Header().Get(RequestIDHeader)
		if requestID != customID {
			t.Errorf("Request ID = %v, want %v", requestID, customID)
		}
	})

	t.Run("generates unique request IDs", func(t *testing.T) {
		handler := srv.requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		ids := make(map[string]bool)
		for i := 0; i < 10; i++ {
			req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			id := rec.Header().Get(RequestIDHeader)
			if ids[id] {
				t.Errorf("Duplicate request ID generated: %v", id)
			}
			ids[id] = true
		}
	})

	t.Run("propagates request ID to handler context", func(t *testing.T) {
		var ctxID string
		handler := srv.requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxID = logging.RequestIDFrom(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if ctxID == "" {
			t.Error("Request ID should be available in the handler context")
		}
		if ctxID != rec.Header().Get(RequestIDHeader) {
			t.Errorf("Context request ID = %v, want %v", ctxID, rec.Header().Get(RequestIDHeader))
		}
	})
}

func TestLoggingMiddleware(t *testing.T) {
	t.Run("passes response through", func(t *testing.T) {
		srv := newTestServer(t, Config{})
		srv.logger = slog.New(slog.NewTextHandler(io.Discard, nil))

		handler := srv.loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			w.Write([]byte("short and stout"))
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusTeapot {
			t.Errorf("status = %v, want %v", rec.Code, http.StatusTeapot)
		}
		if rec.Body.String() != "short and stout" {
			t.Errorf("body = %v, want short and stout", rec.Body.String())
		}
	})

	t.Run("logs method path and status", func(t *testing.T) {
		var buf bytes.Buffer
		srv := newTestServer(t, Config{})
		srv.logger = slog.New(slog.NewJSONHandler(&buf, nil))

		handler := srv.loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/limits", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("decoding log line %q: %v", buf.String(), err)
		}

		if entry["msg"] != "request completed" {
			t.Errorf("msg = %v, want request completed", entry["msg"])
		}
		if entry["method"] != http.MethodGet {
			t.Errorf("method = %v, want %v", entry["method"], http.MethodGet)
		}
		if entry["path"] != "/v1/limits" {
			t.Errorf("path = %v, want /v1/limits", entry["path"])
		}
		if status, _ := entry["status"].(float64); status != http.StatusNoContent {
			t.Errorf("status = %v, want %v", entry["status"], http.StatusNoContent)
		}
	})

	t.Run("logs server errors at error level", func(t *testing.T) {
		var buf bytes.Buffer
		srv := newTestServer(t, Config{})
		srv.logger = slog.New(slog.NewJSONHandler(&buf, nil))

		handler := srv.loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("decoding log line %q: %v", buf.String(), err)
		}
		if entry["level"] != "ERROR" {
			t.Errorf("level = %v, want ERROR", entry["level"])
		}
	})

	t.Run("logs client errors at warn level", func(t *testing.T) {
		var buf bytes.Buffer
		srv := newTestServer(t, Config{})
		srv.logger = slog.New(slog.NewJSONHandler(&buf, nil))

		handler := srv.loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("decoding log line %q: %v", buf.String(), err)
		}
		if entry["level"] != "WARN" {
			t.Errorf("level = %v, want WARN", entry["level"])
		}
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Run("returns 500 on panic", func(t *testing.T) {
		srv := newTestServer(t, Config{})
		srv.logger = slog.New(slog.NewTextHandler(io.Discard, nil))

		handler := srv.recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("something went wrong")
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %v, want %v", rec.Code, http.StatusInternalServerError)
		}

		var resp errorResponse
		decodeJSON(t, rec, &resp)
		if resp.Error != "internal server error" {
			t.Errorf("Error = %v, want internal server error", resp.Error)
		}
	})

	t.Run("passes through without panic", func(t *testing.T) {
		srv := newTestServer(t, Config{})

		handler := srv.recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %v, want %v", rec.Code, http.StatusOK)
		}
		if rec.Body.String() != "ok" {
			t.Errorf("body = %v, want ok", rec.Body.String())
		}
	})

	t.Run("panic in one request does not affect the next", func(t *testing.T) {
		srv := newTestServer(t, Config{})
		srv.logger = slog.New(slog.NewTextHandler(io.Discard, nil))

		calls := 0
		handler := srv.recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				panic("first request panics")
			}
			w.WriteHeader(http.StatusOK)
		}))

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/v1/accounts", nil))
		if first.Code != http.StatusInternalServerError {
			t.Errorf("first status = %v, want %v", first.Code, http.StatusInternalServerError)
		}

		second := httptest.NewRecorder()
		handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/v1/accounts", nil))
		if second.Code != http.StatusOK {
			t.Errorf("second status = %v, want %v", second.Code, http.StatusOK)
		}
	})
}

func TestResponseWriter(t *testing.T) {
	t.Run("captures status code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := newResponseWriter(rec)

		rw.WriteHeader(http.StatusCreated)
		if rw.statusCode != http.StatusCreated {
			t.Errorf("statusCode = %v, want %v", rw.statusCode, http.StatusCreated)
		}
	})

	t.Run("defaults to 200 on write", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := newResponseWriter(rec)

		rw.Write([]byte("body"))
		if rw.statusCode != http.StatusOK {
			t.Errorf("statusCode = %v, want %v", rw.statusCode, http.StatusOK)
		}
		if !rw.written {
			t.Error("written should be true after Write")
		}
	})

	t.Run("ignores duplicate WriteHeader", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := newResponseWriter(rec)

		rw.WriteHeader(http.StatusAccepted)
		rw.WriteHeader(http.StatusInternalServerError)

		if rw.statusCode != http.StatusAccepted {
			t.Errorf("statusCode = %v, want %v", rw.statusCode, http.StatusAccepted)
		}
		if rec.Code != http.StatusAccepted {
			t.Errorf("recorded status = %v, want %v", rec.Code, http.StatusAccepted)
		}
	})
}

func BenchmarkRequestIDMiddleware(b *testing.B) {
	srv, err := NewServer(Config{Monitor: newFakeMonitor()})
	if err != nil {
		b.Fatalf("NewServer() error = %v", err)
	}

	handler := srv.requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}
}
