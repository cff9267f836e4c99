package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"aadhaarpulse/internal/infrastructure"
)

// Metrics records request counts, durations and in-flight gauges against
// the OpenTelemetry meter
type Metrics struct {
	metrics *infrastructure.BusinessMetrics
}

// NewMetrics creates request metrics middleware from the OTel providers
func NewMetrics(providers *infrastructure.OTelProviders) (*Metrics, error) {
	business, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, err
	}
	return &Metrics{metrics: business}, nil
}

// Business exposes the underlying instruments for components that record
// their own domain metrics
func (m *Metrics) Business() *infrastructure.BusinessMetrics {
	return m.metrics
}

// Handler instruments each request
func (m *Metrics) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		m.metrics.HTTPActiveRequests.Add(ctx, 1)
		defer m.metrics.HTTPActiveRequests.Add(ctx, -1)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		attrs := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("path", r.URL.Path),
			attribute.Int("status_code", ww.Status()),
		)
		m.metrics.HTTPRequestsTotal.Add(ctx, 1, attrs)
		m.metrics.HTTPRequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	})
}
