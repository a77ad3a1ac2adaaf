package sipsource

import (
	"github.com/emiago/sipgo/sip"
	"github.com/looplab/fsm"
)

// Состояния сигнализации одного вызова
const (
	callStateRinging  = "ringing"
	callStateAnswered = "answered"
	callStateEnded    = "ended"
)

// Действия над вызовом
const (
	callActionAnswer  = "answer"
	callActionDecline = "decline"
	callActionHangup  = "hangup"
)

// call — активный входящий вызов. Собственное состояние сигнализации
// вызова ведется отдельным автоматом: он решает, какие SIP сообщения
// сейчас допустимы, и не подменяет машину звонка из callfsm.
type call struct {
	callID   string
	fsm      *fsm.FSM
	invite   *sip.Request
	inviteTx sip.ServerTransaction
}

func newCall(callID string, invite *sip.Request, tx sip.ServerTransaction) *call {
	return &call{
		callID:   callID,
		invite:   invite,
		inviteTx: tx,
		fsm:      newCallFSM(),
	}
}

// newCallFSM создает автомат сигнализации вызова.
// Вызов создается уже звонящим: INVITE и есть причина его появления.
func newCallFSM() *fsm.FSM {
	return fsm.NewFSM(
		callStateRinging,
		fsm.Events{
			{Name: callActionAnswer, Src: []string{callStateRinging}, Dst: callStateAnswered},
			{Name: callActionDecline, Src: []string{callStateRinging}, Dst: callStateEnded},
			{Name: callActionHangup, Src: []string{callStateAnswered}, Dst: callStateEnded},
		},
		fsm.Callbacks{},
	)
}
