// Package metrics собирает Prometheus-метрики сервиса учётных записей
// и отдаёт их по HTTP.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Результаты операций для метки result.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Collector хранит метрики операций над учётными записями.
type Collector struct {
	operations    *prometheus.CounterVec
	writeErrors   *prometheus.CounterVec
	activeSession prometheus.Gauge
	users         prometheus.Gauge
	gatherer      prometheus.Gatherer
}

// NewCollector создаёт Collector и регистрирует метрики в reg.
// Если reg также реализует prometheus.Gatherer, Handler отдаёт именно его.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "account_operations_total",
			Help: "Количество операций над учётными записями по типу и результату",
		}, []string{"operation", "result"}),
		writeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "account_storage_write_errors_total",
			Help: "Количество неудачных записей в key-value хранилище по ключу",
		}, []string{"key"}),
		activeSession: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "account_session_active",
			Help: "1, если есть активная сессия, иначе 0",
		}),
		users: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "account_registered_users",
			Help: "Количество зарегистрированных пользователей",
		}),
	}

	reg.MustRegister(c.operations, c.writeErrors, c.activeSession, c.users)
	if g, ok := reg.(prometheus.Gatherer); ok {
		c.gatherer = g
	} else {
		c.gatherer = prometheus.DefaultGatherer
	}
	return c
}

// RecordOperation учитывает операцию operation с результатом ResultSuccess или ResultFailure.
func (c *Collector) RecordOperation(operation, result string) {
	c.operations.WithLabelValues(operation, result).Inc()
}

// RecordWriteError учитывает неудачную запись ключа.
func (c *Collector) RecordWriteError(key string) {
	c.writeErrors.WithLabelValues(key).Inc()
}

// SetSessionActive выставляет признак активной сессии.
func (c *Collector) SetSessionActive(active bool) {
	if active {
		c.activeSession.Set(1)
		return
	}
	c.activeSession.Set(0)
}

// SetUsers выставляет количество зарегистрированных пользователей.
func (c *Collector) SetUsers(n int) {
	c.users.Set(float64(n))
}

// Handler возвращает HTTP-обработчик для /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
