package callfsm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Source — граница источника событий.
//
// Контракт пары: продюсер уведомляет о готовности события, потребитель
// после пробуждения сам определяет, какое событие произошло. Wait и
// NextEvent вызываются только из цикла машины, строго последовательно.
type Source interface {
	// Wait блокируется до уведомления продюсера либо отмены контекста
	Wait(ctx context.Context) error
	// NextEvent возвращает следующее событие. Вызывается после Wait
	NextEvent() (Event, error)
}

// Machine — конечный автомат звонка.
//
// Держит ровно одну ссылку на текущее состояние; ссылка заменяется
// целиком при каждом принятом событии. Промежуточных состояний снаружи
// не видно: вся последовательность диспетчеризация -> переход -> смена
// состояния выполняется под одним мьютексом.
type Machine struct {
	mu       sync.Mutex
	current  StateHandler
	handlers map[StateID]StateHandler
	table    *TransitionTable

	log     *slog.Logger
	metrics *Metrics
}

// NewMachine создает автомат в начальном состоянии Idle.
// Ошибка построения таблицы или обработчиков — единственный фатальный
// для старта случай.
func NewMachine(opts ...Option) (*Machine, error) {
	cfg := machineConfig{
		log:   slog.Default(),
		rules: DefaultRules(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.actions == nil {
		cfg.actions = slogActions(cfg.log.With("component", "call"))
	}

	table, err := NewTransitionTable(cfg.rules)
	if err != nil {
		return nil, fmt.Errorf("построение таблицы переходов: %w", err)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("проверка таблицы переходов: %w", err)
	}

	handlers := NewHandlers(cfg.actions)
	current, ok := handlers[StateIdle]
	if !ok {
		return nil, fmt.Errorf("нет обработчика начального состояния %s", StateIdle)
	}

	return &Machine{
		current:  current,
		handlers: handlers,
		table:    table,
		log:      cfg.log.With("component", "fsm"),
		metrics:  cfg.metrics,
	}, nil
}

// State возвращает идентификатор текущего состояния.
func (m *Machine) State() StateID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.ID()
}

// ProcessEvent обрабатывает одно событие как единицу работы.
//
// Шаги: диспетчеризация события текущему обработчику, затем поиск
// перехода для той же пары (состояние, событие), затем смена состояния.
// Любая ошибка на любом шаге оставляет состояние неизменным и
// возвращается вызывающему; ни одна не фатальна для процесса.
func (m *Machine) ProcessEvent(event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !event.IsValid() {
		m.metrics.ObserveRejected(RejectReasonDecoding)
		return &EventDecodingError{Raw: int(event)}
	}

	cur := m.current

	if err := cur.Handle(event); err != nil {
		m.metrics.ObserveRejected(RejectReasonUnhandled)
		return err
	}

	// Защитный инвариант: переход ищется независимо от того, что
	// обработчик событие принял.
	next, err := m.table.NextState(cur.ID(), event)
	if err != nil {
		m.metrics.ObserveRejected(RejectReasonIllegal)
		return err
	}

	handler, ok := m.handlers[next]
	if !ok {
		m.metrics.ObserveRejected(RejectReasonIllegal)
		return fmt.Errorf("нет обработчика для состояния %s", next)
	}

	m.current = handler
	m.metrics.ObserveProcessed(event, cur.ID(), next)
	return nil
}

// Run — цикл потребителя: ожидание уведомления, извлечение события,
// обработка. Работает до отмены контекста; ошибки отдельных событий
// логируются и не прерывают цикл.
func (m *Machine) Run(ctx context.Context, src Source) error {
	m.log.Info("цикл обработки запущен", "state", m.State())

	for {
		if err := src.Wait(ctx); err != nil {
			m.log.Info("цикл обработки остановлен", "reason", err)
			return err
		}

		event, err := src.NextEvent()
		if err != nil {
			m.log.Error("событие не извлечено", "error", err)
			m.metrics.ObserveRejected(RejectReasonDecoding)
			continue
		}

		if err := m.ProcessEvent(event); err != nil {
			m.log.Warn("событие отклонено",
				"event", event,
				"state", m.State(),
				"error", err)
			continue
		}

		m.log.Debug("событие обработано", "event", event, "state", m.State())
	}
}
