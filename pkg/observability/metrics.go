package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PrometheusHandler returns a Gin handler for Prometheus metrics
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handler != nil {
			handler.ServeHTTP(c.Writer, c.Request)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "metrics handler not initialized",
			})
		}
	}
}

// Metrics holds the service's business counters. A nil *Metrics records nothing.
type Metrics struct {
	providerRequests metric.Int64Counter
	tokenRefreshes   metric.Int64Counter
	applications     metric.Int64Counter
}

// NewMetrics registers the counters on the given meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	providerRequests, err := meter.Int64Counter("hh_provider_requests_total",
		metric.WithDescription("Requests sent to the job board API by operation and response status"))
	if err != nil {
		return nil, fmt.Errorf("failed to create provider requests counter: %w", err)
	}

	tokenRefreshes, err := meter.Int64Counter("hh_token_refreshes_total",
		metric.WithDescription("Access token refresh attempts by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create token refreshes counter: %w", err)
	}

	applications, err := meter.Int64Counter("hh_applications_total",
		metric.WithDescription("Vacancy applications by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create applications counter: %w", err)
	}

	return &Metrics{
		providerRequests: providerRequests,
		tokenRefreshes:   tokenRefreshes,
		applications:     applications,
	}, nil
}

// RecordProviderRequest counts one provider call. status 0 means no response was received.
func (m *Metrics) RecordProviderRequest(ctx context.Context, operation string, status int) {
	if m == nil {
		return
	}
	m.providerRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", strconv.Itoa(status)),
	))
}

func (m *Metrics) RecordRefresh(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.tokenRefreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) RecordApplication(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.applications.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
