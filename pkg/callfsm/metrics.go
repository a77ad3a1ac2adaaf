package callfsm

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Причины отклонения событий для метрик
const (
	RejectReasonUnhandled = "unhandled_event"
	RejectReasonIllegal   = "illegal_transition"
	RejectReasonDecoding  = "event_decoding"
)

// Metrics собирает и экспортирует метрики автомата.
//
// Prometheus метрики — для внешнего мониторинга, атомарные счетчики —
// fast path для внутренней диагностики и тестов. Все операции
// thread-safe; nil-приемник безопасен, вызовы на нем игнорируются.
type Metrics struct {
	// Prometheus метрики
	eventsProcessed *prometheus.CounterVec
	eventsRejected  *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	notifyDropped   prometheus.Counter

	// Атомарные счетчики
	totalProcessed int64
	totalRejected  int64
	totalDropped   int64
}

// MetricsConfig конфигурация системы метрик
type MetricsConfig struct {
	// Namespace префикс для Prometheus метрик
	Namespace string
	// Subsystem подсистема для Prometheus метрик
	Subsystem string
	// Registerer реестр Prometheus; nil — реестр по умолчанию
	Registerer prometheus.Registerer
}

// DefaultMetricsConfig возвращает конфигурацию по умолчанию
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "phone",
		Subsystem: "fsm",
	}
}

// NewMetrics создает и регистрирует метрики автомата.
func NewMetrics(cfg MetricsConfig) *Metrics {
	reg := cfg.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		eventsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "events_processed_total",
			Help:      "Принятые события по типу события",
		}, []string{"event"}),
		eventsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "events_rejected_total",
			Help:      "Отклоненные события по причине",
		}, []string{"reason"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "transitions_total",
			Help:      "Выполненные переходы по исходному и целевому состоянию",
		}, []string{"from", "to"}),
		notifyDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "notifications_dropped_total",
			Help:      "Уведомления продюсера, схлопнутые или отброшенные до потребления",
		}),
	}
}

// ObserveProcessed учитывает принятое событие и выполненный переход
func (m *Metrics) ObserveProcessed(event Event, from, to StateID) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.totalProcessed, 1)
	m.eventsProcessed.WithLabelValues(event.String()).Inc()
	m.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

// ObserveRejected учитывает отклоненное событие
func (m *Metrics) ObserveRejected(reason string) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.totalRejected, 1)
	m.eventsRejected.WithLabelValues(reason).Inc()
}

// ObserveNotifyDropped учитывает потерянное уведомление продюсера
func (m *Metrics) ObserveNotifyDropped() {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.totalDropped, 1)
	m.notifyDropped.Inc()
}

// TotalProcessed возвращает число принятых событий
func (m *Metrics) TotalProcessed() int64 {
	if m == nil {
		return 0
	}
	return atomic.LoadInt64(&m.totalProcessed)
}

// TotalRejected возвращает число отклоненных событий
func (m *Metrics) TotalRejected() int64 {
	if m == nil {
		return 0
	}
	return atomic.LoadInt64(&m.totalRejected)
}

// TotalNotifyDropped возвращает число потерянных уведомлений
func (m *Metrics) TotalNotifyDropped() int64 {
	if m == nil {
		return 0
	}
	return atomic.LoadInt64(&m.totalDropped)
}
