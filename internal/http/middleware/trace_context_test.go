package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/neurobridge-media/internal/platform/ctxutil"
)

func serveTraced(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, *ctxutil.TraceData) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var seen *ctxutil.TraceData
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/api/attachments", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if seen == nil {
		t.Fatalf("trace data missing from request context")
	}
	return rec, seen
}

func TestTraceContextKeepsCallerIDs(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/attachments", nil)
	req.Header.Set(headerRequestID, "req-123")
	req.Header.Set(headerTraceID, "trace-abc")

	rec, td := serveTraced(t, req)
	if td.RequestID != "req-123" || td.TraceID != "trace-abc" {
		t.Fatalf("trace data: got=%+v", td)
	}
	if got := rec.Header().Get(headerRequestID); got != "req-123" {
		t.Fatalf("X-Request-Id: want=%q got=%q", "req-123", got)
	}
}

func TestTraceContextReplacesUnsafeRequestID(t *testing.T) {
	for _, raw := range []string{"has space", strings.Repeat("x", maxRequestIDLen+1), "bad\x7fbyte"} {
		req := httptest.NewRequest(http.MethodGet, "/api/attachments", nil)
		req.Header.Set(headerRequestID, raw)

		rec, td := serveTraced(t, req)
		if td.RequestID == raw || td.RequestID == "" {
			t.Fatalf("request id %q should have been replaced, got=%q", raw, td.RequestID)
		}
		if got := rec.Header().Get(headerRequestID); got != td.RequestID {
			t.Fatalf("X-Request-Id: want=%q got=%q", td.RequestID, got)
		}
	}
}

func TestTraceContextPrefersActiveSpan(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	req := httptest.NewRequest(http.MethodGet, "/api/attachments", nil)
	req = req.WithContext(trace.ContextWithSpanContext(context.Background(), sc))
	req.Header.Set(headerTraceID, "from-header")

	_, td := serveTraced(t, req)
	if td.TraceID != traceID.String() {
		t.Fatalf("trace id: want=%q got=%q", traceID.String(), td.TraceID)
	}
}
