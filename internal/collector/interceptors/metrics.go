package interceptors

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// GRPCMetrics counts and times every RPC the collector serves.
type GRPCMetrics struct {
	startedTotal  *prometheus.CounterVec
	handledTotal  *prometheus.CounterVec
	handlingTime  *prometheus.HistogramVec
}

// NewGRPCMetrics builds an unregistered GRPCMetrics; call Register to
// attach it to a prometheus.Registerer.
func NewGRPCMetrics() *GRPCMetrics {
	return &GRPCMetrics{
		startedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bear_collector_grpc_started_total",
				Help: "Total number of RPCs started on the collector.",
			},
			[]string{"method"},
		),
		handledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bear_collector_grpc_handled_total",
				Help: "Total number of RPCs completed on the collector.",
			},
			[]string{"method", "code"},
		),
		handlingTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bear_collector_grpc_handling_seconds",
				Help:    "Latency of the collector's gRPC handlers.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method"},
		),
	}
}

// Register attaches every metric to reg.
func (m *GRPCMetrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(m.startedTotal, m.handledTotal, m.handlingTime)
}

// Unary returns the unary interceptor recording start/handled/latency.
func (m *GRPCMetrics) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		m.startedTotal.WithLabelValues(info.FullMethod).Inc()
		start := time.Now()

		resp, err := handler(ctx, req)

		m.handledTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		m.handlingTime.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		return resp, err
	}
}

// Stream is Unary's streaming counterpart.
func (m *GRPCMetrics) Stream() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		m.startedTotal.WithLabelValues(info.FullMethod).Inc()
		start := time.Now()

		err := handler(srv, ss)

		m.handledTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		m.handlingTime.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		return err
	}
}
