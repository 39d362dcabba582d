package tracing

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicely/internal/usercontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTracedEngine(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(t.Context())
	})

	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/invoices/:id", func(c *gin.Context) {
		ctx := usercontext.WithUserID(c.Request.Context(), snowflake.ID(42))
		c.Request = c.Request.WithContext(ctx)
		if c.Param("id") == "broken" {
			_ = c.Error(errors.New("database unavailable"))
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNotFound)
	})
	return r, recorder
}

func serve(r http.Handler, path string) int {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code
}

func TestGinMiddlewareSkipsProbesAndUnroutedPaths(t *testing.T) {
	r, recorder := newTracedEngine(t)

	assert.Equal(t, http.StatusOK, serve(r, "/health"))
	assert.Equal(t, http.StatusNotFound, serve(r, "/assets/app.js"))
	assert.Empty(t, recorder.Ended())
}

func TestGinMiddlewareNamesSpanByRoute(t *testing.T) {
	r, recorder := newTracedEngine(t)

	assert.Equal(t, http.StatusNotFound, serve(r, "/api/invoices/7"))
	assert.Equal(t, http.StatusInternalServerError, serve(r, "/api/invoices/broken"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "GET /api/invoices/:id", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("invoicely.user_id", "42"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("http.status_code", http.StatusNotFound))

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "exception", spans[1].Events()[0].Name)
}
