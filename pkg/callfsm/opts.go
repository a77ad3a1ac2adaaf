package callfsm

import "log/slog"

// machineConfig — настройки автомата, заполняемые опциями.
type machineConfig struct {
	log     *slog.Logger
	metrics *Metrics
	actions ActionFunc
	rules   []TransitionRule
}

// Option — функциональная опция конструктора Machine.
type Option func(*machineConfig)

// WithLogger устанавливает логгер автомата
func WithLogger(log *slog.Logger) Option {
	return func(cfg *machineConfig) {
		if log != nil {
			cfg.log = log
		}
	}
}

// WithMetrics подключает сбор метрик
func WithMetrics(m *Metrics) Option {
	return func(cfg *machineConfig) {
		cfg.metrics = m
	}
}

// WithActions заменяет приемник описаний действий.
// По умолчанию действия пишутся в лог.
func WithActions(act ActionFunc) Option {
	return func(cfg *machineConfig) {
		if act != nil {
			cfg.actions = act
		}
	}
}

// WithRules заменяет таблицу переходов. Используется в тестах;
// боевой набор — DefaultRules.
func WithRules(rules []TransitionRule) Option {
	return func(cfg *machineConfig) {
		cfg.rules = rules
	}
}
