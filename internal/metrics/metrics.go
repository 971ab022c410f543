package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_ws_connections",
		Help: "Current number of open websocket connections",
	})
	FramesHandled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_frames_handled_total",
		Help: "Inbound frames dispatched by the event router, by type",
	}, []string{"type"})
	FramesDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_frames_delivered_total",
		Help: "Outbound frames written to websocket connections",
	})
	ChatMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_chat_messages_total",
		Help: "Chat messages appended to room logs",
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(Connections, FramesHandled, FramesDelivered, ChatMessages, HTTPRequestsTotal, HTTPRequestDuration)
}

// Middleware records request counts and latency for the REST surface.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		labels := prometheus.Labels{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": strconv.Itoa(ww.Status()),
		}
		HTTPRequestsTotal.With(labels).Inc()
		HTTPRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	})
}
