package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
}

func TestCorsMiddleware_SetsHeadersOnSuccess(t *testing.T) {
	handler := corsMiddleware("", okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/view", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "*")
	}
	if got := rec.Body.String(); got != `{"status":"ok"}` {
		t.Errorf("body = %q, want %q", got, `{"status":"ok"}`)
	}
}

func TestCorsMiddleware_SetsHeadersOnError(t *testing.T) {
	handler := corsMiddleware("http://kiosk.local", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no media loaded", http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/media/current", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://kiosk.local" {
		t.Errorf("Access-Control-Allow-Origin = %q on 404 response", got)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCorsMiddleware_HandlesPreflight(t *testing.T) {
	handler := corsMiddleware("", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called for OPTIONS preflight")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/media/current", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, Range" {
		t.Errorf("Access-Control-Allow-Headers = %q", got)
	}
}

func TestCorsMiddleware_LeavesSocketIOAlone(t *testing.T) {
	called := false
	handler := corsMiddleware("", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/socket.io/?EIO=4&transport=polling", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("socket.io preflight should reach the socket.io handler")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("middleware should not set CORS headers on socket.io, got %q", got)
	}
}
