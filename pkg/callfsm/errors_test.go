package callfsm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arzzra/phone_fsm/pkg/callfsm"
)

// TestErrorMessagesCarryContext проверяет, что сообщения ошибок несут
// категорию и пару (состояние, событие)
func TestErrorMessagesCarryContext(t *testing.T) {
	uhe := &callfsm.UnhandledEventError{State: callfsm.StateIdle, Event: callfsm.EventCallAnswered}
	assert.Contains(t, uhe.Error(), "STATE:UNHANDLED_EVENT")
	assert.Contains(t, uhe.Error(), "CALL_ANSWERED")
	assert.Contains(t, uhe.Error(), "Idle")

	ite := &callfsm.IllegalTransitionError{State: callfsm.StateInCall, Event: callfsm.EventIncomingCall}
	assert.Contains(t, ite.Error(), "TABLE:ILLEGAL_TRANSITION")
	assert.Contains(t, ite.Error(), "InCall")
	assert.Contains(t, ite.Error(), "INCOMING_CALL")

	ede := &callfsm.EventDecodingError{Raw: 42}
	assert.Contains(t, ede.Error(), "SOURCE:EVENT_DECODING")
	assert.Contains(t, ede.Error(), "42")
}

// TestEnumStrings проверяет строковые представления перечислений,
// включая значения вне диапазона
func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "Idle", callfsm.StateIdle.String())
	assert.Equal(t, "Ringing", callfsm.StateRinging.String())
	assert.Equal(t, "InCall", callfsm.StateInCall.String())
	assert.Equal(t, "StateID(9)", callfsm.StateID(9).String())

	assert.Equal(t, "INCOMING_CALL", callfsm.EventIncomingCall.String())
	assert.Equal(t, "CALL_ENDED", callfsm.EventCallEnded.String())
	assert.Equal(t, "Event(9)", callfsm.Event(9).String())

	assert.False(t, callfsm.Event(9).IsValid())
	assert.False(t, callfsm.StateID(-1).IsValid())
}
