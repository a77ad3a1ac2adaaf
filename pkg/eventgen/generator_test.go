package eventgen

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arzzra/phone_fsm/pkg/callfsm"
)

// TestCursorCycles проверяет циклическую последовательность:
// два полных оборота курсора
func TestCursorCycles(t *testing.T) {
	g := New(time.Hour)

	want := []callfsm.Event{
		callfsm.EventIncomingCall,
		callfsm.EventCallAnswered,
		callfsm.EventCallEnded,
		callfsm.EventIncomingCall,
		callfsm.EventCallAnswered,
		callfsm.EventCallEnded,
	}

	for i, w := range want {
		event, err := g.NextEvent()
		require.NoError(t, err, "шаг %d", i)
		assert.Equal(t, w, event, "шаг %d", i)
	}
}

// TestCustomSequenceDecodingError проверяет, что значение вне
// перечисления дает EventDecodingError и пропускается: следующий
// вызов возвращает следующее событие последовательности
func TestCustomSequenceDecodingError(t *testing.T) {
	g := New(time.Hour, WithSequence([]callfsm.Event{
		callfsm.EventIncomingCall,
		callfsm.Event(42),
		callfsm.EventCallEnded,
	}))

	event, err := g.NextEvent()
	require.NoError(t, err)
	assert.Equal(t, callfsm.EventIncomingCall, event)

	_, err = g.NextEvent()
	var ede *callfsm.EventDecodingError
	require.ErrorAs(t, err, &ede)
	assert.Equal(t, 42, ede.Raw)

	event, err = g.NextEvent()
	require.NoError(t, err)
	assert.Equal(t, callfsm.EventCallEnded, event)
}

// TestGeneratorProduces проверяет продюсера на таймере: уведомления
// приходят, события валидны, остановка по отмене контекста
func TestGeneratorProduces(t *testing.T) {
	g := New(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.Start(ctx)

	for i := 0; i < 3; i++ {
		waitCtx, waitCancel := context.WithTimeout(ctx, time.Second)
		require.NoError(t, g.Wait(waitCtx), "уведомление %d", i)
		waitCancel()

		event, err := g.NextEvent()
		require.NoError(t, err)
		assert.True(t, event.IsValid())
	}

	cancel()
	// после остановки продюсера новых уведомлений нет
	time.Sleep(20 * time.Millisecond)
	drained := g.Dropped()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, drained, g.Dropped())
}

func newRegistryMetrics() *callfsm.Metrics {
	cfg := callfsm.DefaultMetricsConfig()
	cfg.Registerer = prometheus.NewRegistry()
	return callfsm.NewMetrics(cfg)
}

// TestGeneratorDrivesMachine проверяет связку генератор + автомат:
// потерянные пробуждения лишь замедляют последовательность, поэтому
// каждое доставленное событие принимается и автомат остается в
// валидном состоянии
func TestGeneratorDrivesMachine(t *testing.T) {
	metrics := newRegistryMetrics()
	g := New(2*time.Millisecond, WithMetrics(metrics))

	m, err := callfsm.NewMachine(
		callfsm.WithActions(func(string) {}),
		callfsm.WithMetrics(metrics),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	g.Start(ctx)

	err = m.Run(ctx, g)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// последовательность циклична и стартует с INCOMING_CALL, поэтому
	// каждое доставленное событие принимается
	assert.Zero(t, metrics.TotalRejected())
	assert.True(t, m.State().IsValid())
	assert.Positive(t, metrics.TotalProcessed())
}
