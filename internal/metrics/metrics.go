// Package metrics — счётчики Prometheus для ключевых бизнес-операций
// и HTTP-трафика.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	registrationsTotal prometheus.Counter
	reservationsTotal  prometheus.Counter
	transitionsTotal   *prometheus.CounterVec
	rejectionsTotal    *prometheus.CounterVec
}

// New регистрирует метрики в реестре по умолчанию.
func New(prefix string) *Metrics {
	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		registrationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_registrations_total",
				Help: "Total number of completed member registrations",
			},
		),
		reservationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_reservations_total",
				Help: "Total number of created reservations",
			},
		),
		transitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_reservation_transitions_total",
				Help: "Total number of reservation status transitions",
			},
			[]string{"to"},
		),
		rejectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_rejections_total",
				Help: "Total number of rejected operations by reason",
			},
			[]string{"reason"},
		),
	}
}

func (m *Metrics) RecordRegistration() {
	m.registrationsTotal.Inc()
}

func (m *Metrics) RecordReservation() {
	m.reservationsTotal.Inc()
}

func (m *Metrics) RecordTransition(to string) {
	m.transitionsTotal.WithLabelValues(to).Inc()
}

func (m *Metrics) RecordRejection(reason string) {
	m.rejectionsTotal.WithLabelValues(reason).Inc()
}

// Middleware считает запросы и длительность. Путь берём из шаблона
// маршрута, а не из URL, чтобы не раздувать кардинальность метрик.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			path := c.Path()
			if path == "" {
				path = "unknown"
			}
			status := strconv.Itoa(c.Response().Status)
			m.httpRequestsTotal.WithLabelValues(c.Request().Method, path, status).Inc()
			m.httpRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// Handler отдаёт /metrics в формате Prometheus.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
