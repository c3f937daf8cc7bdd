package kit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}
	e := Chain(mw("a"), mw("b"), mw("c"))(func(context.Context, any) (any, error) {
		order = append(order, "endpoint")
		return nil, nil
	})
	e(context.Background(), nil)

	if got := strings.Join(order, ","); got != "a,b,c,endpoint" {
		t.Errorf("order = %s", got)
	}
}

func TestTransportDefaults(t *testing.T) {
	ctx := context.Background()
	if got := GetTransport(ctx); got != TransportHTTP {
		t.Errorf("default transport = %q", got)
	}
	if got := GetRequestID(ctx); got != "" {
		t.Errorf("default request id = %q", got)
	}
	ctx = WithRequestID(WithTransport(ctx, TransportCLI), "r1")
	if GetTransport(ctx) != TransportCLI || GetRequestID(ctx) != "r1" {
		t.Errorf("transport = %q, id = %q", GetTransport(ctx), GetRequestID(ctx))
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(rec, req)
	if seen != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Errorf("caller id: seen %q, header %q", seen, rec.Header().Get(RequestIDHeader))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 36 || rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("generated id: seen %q, header %q", seen, rec.Header().Get(RequestIDHeader))
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ok := Logging(logger, "resolve")(func(context.Context, any) (any, error) { return "x", nil })
	fail := Logging(logger, "lookup_code")(func(context.Context, any) (any, error) { return nil, ErrNotFound })

	ctx := WithRequestID(context.Background(), "r7")
	if resp, _ := ok(ctx, nil); resp != "x" {
		t.Errorf("resp = %v", resp)
	}
	if _, err := fail(ctx, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"endpoint=resolve", "request_id=r7", "level=WARN", "error=\"not found\""} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("headers = %v", rec.Header())
	}
}
