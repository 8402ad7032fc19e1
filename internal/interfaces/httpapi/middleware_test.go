package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestRequireInternalJobToken(t *testing.T) {
	t.Run("valid token passes", func(t *testing.T) {
		next, called := okHandler()
		handler := RequireInternalJobToken("secret", next)

		req := httptest.NewRequest(http.MethodPost, "/v1/sync", nil)
		req.Header.Set("X-Internal-Job-Token", "secret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if !*called {
			t.Fatalf("next handler was not invoked")
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("wrong token rejected", func(t *testing.T) {
		next, called := okHandler()
		handler := RequireInternalJobToken("secret", next)

		req := httptest.NewRequest(http.MethodPost, "/v1/sync", nil)
		req.Header.Set("X-Internal-Job-Token", "nope")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if *called {
			t.Fatalf("next handler must not run on bad token")
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("missing token rejected", func(t *testing.T) {
		next, _ := okHandler()
		handler := RequireInternalJobToken("secret", next)

		req := httptest.NewRequest(http.MethodPost, "/v1/sync", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("unconfigured token is unavailable", func(t *testing.T) {
		next, _ := okHandler()
		handler := RequireInternalJobToken("", next)

		req := httptest.NewRequest(http.MethodPost, "/v1/sync", nil)
		req.Header.Set("X-Internal-Job-Token", "anything")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
	})
}

func TestCORS(t *testing.T) {
	t.Run("allowed origin", func(t *testing.T) {
		next, _ := okHandler()
		handler := CORS([]string{"https://dash.example"}, next)

		req := httptest.NewRequest(http.MethodGet, "/v1/players", nil)
		req.Header.Set("Origin", "https://dash.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example" {
			t.Fatalf("allow origin = %q", got)
		}
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		next, _ := okHandler()
		handler := CORS([]string{"https://dash.example"}, next)

		req := httptest.NewRequest(http.MethodGet, "/v1/players", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Fatalf("allow origin should be empty, got %q", got)
		}
	})

	t.Run("wildcard preflight", func(t *testing.T) {
		next, called := okHandler()
		handler := CORS([]string{"*"}, next)

		req := httptest.NewRequest(http.MethodOptions, "/v1/players", nil)
		req.Header.Set("Origin", "https://anywhere.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("preflight status = %d, want 204", rec.Code)
		}
		if *called {
			t.Fatalf("preflight must short-circuit")
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("allow origin = %q, want *", got)
		}
	})
}

func TestShouldTraceRequest(t *testing.T) {
	for _, path := range []string{"/healthz", "/health", "/livez", "/readyz"} {
		if shouldTraceRequest(path) {
			t.Fatalf("%s must not be traced", path)
		}
	}
	for _, path := range []string{"/v1/players", "/v1/sync", "/v1/matches"} {
		if !shouldTraceRequest(path) {
			t.Fatalf("%s must be traced", path)
		}
	}
}
