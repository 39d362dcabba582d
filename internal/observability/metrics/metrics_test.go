package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("operation", "create"),
		attribute.String("invoice_id", "456"),
		attribute.String("document", "pdf"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "operation" && attrs[1].Key != "operation" {
		t.Fatalf("expected operation to be retained")
	}
	if attrs[0].Key != "document" && attrs[1].Key != "document" {
		t.Fatalf("expected document to be retained")
	}
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.RecordInvoiceChange(t.Context(), "create")
	m.RecordDocument(t.Context(), "pdf")
	m.AddLiveSubscribers(t.Context(), 1)

	var nilMetrics *Metrics
	nilMetrics.RecordRateLimitDenied(t.Context(), "login", "exhausted")
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	m, err := newHTTPMetrics(registry, Config{ServiceName: "invoicely", Environment: "test"})
	if err != nil {
		t.Fatalf("new http metrics: %v", err)
	}

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/api/invoices/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/invoices/123", nil))
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues("/api/invoices/:id", http.MethodGet, "404"))
	if got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}

	var gauge dto.Metric
	if err := m.inFlight.Write(&gauge); err != nil {
		t.Fatalf("write gauge: %v", err)
	}
	if gauge.GetGauge().GetValue() != 0 {
		t.Fatalf("expected no requests in flight, got %v", gauge.GetGauge().GetValue())
	}
}

func TestNewHTTPMetricsToleratesDuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	if _, err := newHTTPMetrics(registry, Config{}); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := newHTTPMetrics(registry, Config{}); err != nil {
		t.Fatalf("second registration: %v", err)
	}
}
