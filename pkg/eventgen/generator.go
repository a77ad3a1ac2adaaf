package eventgen

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/arzzra/phone_fsm/pkg/callfsm"
)

// DefaultInterval — период генерации событий по умолчанию.
const DefaultInterval = 3 * time.Second

// DefaultSequence возвращает циклическую последовательность событий:
// входящий звонок -> ответ -> завершение.
func DefaultSequence() []callfsm.Event {
	return []callfsm.Event{
		callfsm.EventIncomingCall,
		callfsm.EventCallAnswered,
		callfsm.EventCallEnded,
	}
}

// Generator — синтетический источник событий, заглушка реальной
// телефонной сигнализации. Продюсер на таймере только уведомляет о
// готовности; курсор по циклической последовательности живет на
// потребительской стороне и двигается в NextEvent. Пропущенное
// уведомление поэтому замедляет последовательность, но не рвет ее.
//
// Реализует callfsm.Source.
type Generator struct {
	signal   *Signal
	interval time.Duration
	log      *slog.Logger
	metrics  *callfsm.Metrics

	mu       sync.Mutex
	sequence []callfsm.Event
	cursor   int
}

// GeneratorOption — функциональная опция генератора.
type GeneratorOption func(*Generator)

// WithLogger устанавливает логгер генератора
func WithLogger(log *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// WithMetrics подключает учет потерянных уведомлений
func WithMetrics(m *callfsm.Metrics) GeneratorOption {
	return func(g *Generator) {
		g.metrics = m
	}
}

// WithSequence заменяет последовательность событий. Значения вне
// перечисления не отбрасываются здесь: их отклонит потребитель с
// EventDecodingError, это тоже тестируемый путь.
func WithSequence(seq []callfsm.Event) GeneratorOption {
	return func(g *Generator) {
		if len(seq) > 0 {
			g.sequence = seq
		}
	}
}

// New создает генератор с заданным интервалом.
// Неположительный интервал заменяется на DefaultInterval.
func New(interval time.Duration, opts ...GeneratorOption) *Generator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	g := &Generator{
		interval: interval,
		sequence: DefaultSequence(),
		log:      slog.Default().With("component", "eventgen"),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.signal = NewSignal(func() {
		g.metrics.ObserveNotifyDropped()
	})
	return g
}

// Start запускает горутину-продюсер и сразу возвращается.
// Продюсер останавливается при отмене контекста.
func (g *Generator) Start(ctx context.Context) {
	go g.produce(ctx)
}

func (g *Generator) produce(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	g.log.Info("продюсер запущен", "interval", g.interval)
	for {
		select {
		case <-ctx.Done():
			g.log.Info("продюсер остановлен", "reason", ctx.Err())
			return
		case <-ticker.C:
			g.signal.Notify()
		}
	}
}

// Wait блокируется до уведомления продюсера либо отмены контекста.
func (g *Generator) Wait(ctx context.Context) error {
	return g.signal.Wait(ctx)
}

// NextEvent возвращает очередное событие последовательности и двигает
// курсор. Значение вне перечисления возвращает EventDecodingError,
// курсор при этом двигается: битое событие пропускается.
func (g *Generator) NextEvent() (callfsm.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	event := g.sequence[g.cursor]
	g.cursor = (g.cursor + 1) % len(g.sequence)

	if !event.IsValid() {
		return 0, &callfsm.EventDecodingError{Raw: int(event)}
	}
	return event, nil
}

// Dropped возвращает число схлопнутых уведомлений.
func (g *Generator) Dropped() int64 {
	return g.signal.Dropped()
}

var _ callfsm.Source = (*Generator)(nil)
