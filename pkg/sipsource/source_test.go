package sipsource

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pion/sdp/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arzzra/phone_fsm/pkg/callfsm"
)

// TestConfigValidate проверяет валидацию конфигурации
func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"пустой адрес транспорта", func(c *Config) { c.ListenAddr = "" }},
		{"нулевая очередь", func(c *Config) { c.QueueSize = 0 }},
		{"отрицательная очередь", func(c *Config) { c.QueueSize = -1 }},
		{"нулевой медиа порт", func(c *Config) { c.SDPPort = 0 }},
		{"медиа порт вне диапазона", func(c *Config) { c.SDPPort = 70000 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// TestCallFSMTransitions проверяет автомат сигнализации вызова:
// допустимые действия в каждом состоянии
func TestCallFSMTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("ответ и завершение", func(t *testing.T) {
		f := newCallFSM()
		require.Equal(t, callStateRinging, f.Current())

		require.NoError(t, f.Event(ctx, callActionAnswer))
		require.Equal(t, callStateAnswered, f.Current())

		require.NoError(t, f.Event(ctx, callActionHangup))
		require.Equal(t, callStateEnded, f.Current())
	})

	t.Run("отклонение", func(t *testing.T) {
		f := newCallFSM()
		require.NoError(t, f.Event(ctx, callActionDecline))
		require.Equal(t, callStateEnded, f.Current())
	})

	t.Run("BYE до ответа недопустим", func(t *testing.T) {
		f := newCallFSM()
		require.Error(t, f.Event(ctx, callActionHangup))
		require.Equal(t, callStateRinging, f.Current())
	})

	t.Run("CANCEL после ответа недопустим", func(t *testing.T) {
		f := newCallFSM()
		require.NoError(t, f.Event(ctx, callActionAnswer))
		require.Error(t, f.Event(ctx, callActionDecline))
		require.Equal(t, callStateAnswered, f.Current())
	})
}

// TestBuildAnswerSDP проверяет SDP ответ: парсится обратно и содержит
// один аудио поток PCMU
func TestBuildAnswerSDP(t *testing.T) {
	body, err := buildAnswerSDP("192.0.2.10", 41000)
	require.NoError(t, err)

	var desc sdp.SessionDescription
	require.NoError(t, desc.Unmarshal(body))

	require.Len(t, desc.MediaDescriptions, 1)
	media := desc.MediaDescriptions[0]
	assert.Equal(t, "audio", media.MediaName.Media)
	assert.Equal(t, 41000, media.MediaName.Port.Value)
	assert.Equal(t, []string{"0"}, media.MediaName.Formats)

	assert.True(t, strings.Contains(string(body), "PCMU/8000"))
	assert.True(t, strings.Contains(string(body), "sendrecv"))
	require.NotNil(t, desc.ConnectionInformation)
	assert.Equal(t, "192.0.2.10", desc.ConnectionInformation.Address.Address)
}

// TestQueuedHandoff проверяет очередную передачу: события доставляются
// по одному в порядке постановки, переполнение отбрасывает на стороне
// продюсера и учитывается в метриках
func TestQueuedHandoff(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueSize = 2

	metrics := newRegistryMetrics()
	src, err := New(cfg, WithMetrics(metrics))
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	src.push(callfsm.EventIncomingCall)
	src.push(callfsm.EventCallAnswered)
	src.push(callfsm.EventCallEnded) // очередь полна, отбрасывается

	assert.Equal(t, int64(1), metrics.TotalNotifyDropped())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	want := []callfsm.Event{callfsm.EventIncomingCall, callfsm.EventCallAnswered}
	for _, w := range want {
		require.NoError(t, src.Wait(ctx))
		event, err := src.NextEvent()
		require.NoError(t, err)
		assert.Equal(t, w, event)
	}

	// очередь пуста: Wait блокируется до дедлайна
	shortCtx, shortCancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer shortCancel()
	require.ErrorIs(t, src.Wait(shortCtx), context.DeadlineExceeded)
}

// TestNextEventWithoutWait проверяет нарушение протокола границы
func TestNextEventWithoutWait(t *testing.T) {
	src, err := New(DefaultConfig())
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	_, err = src.NextEvent()
	assert.Error(t, err)
}

func newRegistryMetrics() *callfsm.Metrics {
	cfg := callfsm.DefaultMetricsConfig()
	cfg.Registerer = prometheus.NewRegistry()
	return callfsm.NewMetrics(cfg)
}
