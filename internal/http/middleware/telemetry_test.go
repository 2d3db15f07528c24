package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sharedexperiences-backend/internal/observability"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/ctxutil"
)

func TestAttachTraceContextEchoesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var td *ctxutil.TraceData
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) {
		td = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if td == nil || td.RequestID != "req-1" || td.TraceID == "" {
		t.Fatalf("trace data: got=%+v", td)
	}
	if rec.Header().Get(headerRequestID) != "req-1" || rec.Header().Get(headerTraceID) != td.TraceID {
		t.Fatalf("response headers: %v", rec.Header())
	}
}

func TestMetricsObservesRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.NewMetrics()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/api/experiences/:id/similar", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/experiences/abc/similar", nil))

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	want := `sharedexp_api_requests_total{method="GET",route="/api/experiences/:id/similar",status="200"} 1`
	if !strings.Contains(buf.String(), want) {
		t.Fatalf("missing %q in\n%s", want, buf.String())
	}
}
