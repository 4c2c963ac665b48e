package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type observed struct {
	method, route string
	status        int
}

type recordingObserver struct{ calls []observed }

func (r *recordingObserver) ObserveHTTP(method, route string, status int, _ time.Duration) {
	r.calls = append(r.calls, observed{method: method, route: route, status: status})
}

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	obs := &recordingObserver{}
	m := NewMiddleware(slog.New(slog.NewTextHandler(&buf, nil)), obs)

	var seen string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	m.Middleware(mux).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/items/7", nil))

	if seen == "" || rr.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seen, rr.Header().Get(RequestIDHeader))
	}
	if len(obs.calls) != 1 || obs.calls[0] != (observed{"GET", "GET /items/{id}", http.StatusTeapot}) {
		t.Fatalf("unexpected observations: %+v", obs.calls)
	}
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "HTTP request completed") {
		t.Fatalf("expected a warn log line, got %q", buf.String())
	}
}

func TestMiddlewareReusesValidRequestID(t *testing.T) {
	m := NewMiddleware(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), nil)
	id := GenerateRequestID()

	for _, tc := range []struct {
		incoming string
		reuse    bool
	}{
		{incoming: id, reuse: true},
		{incoming: "not-a-uuid", reuse: false},
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, tc.incoming)
		rr := httptest.NewRecorder()
		m.Middleware(http.NotFoundHandler()).ServeHTTP(rr, req)

		got := rr.Header().Get(RequestIDHeader)
		if (got == tc.incoming) != tc.reuse {
			t.Fatalf("incoming %q: got %q, reuse=%v", tc.incoming, got, tc.reuse)
		}
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	if got := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}
