package callfsm

import (
	"errors"
	"fmt"
)

// TransitionRule — одна строка таблицы переходов.
type TransitionRule struct {
	From StateID
	On   Event
	To   StateID
}

type transitionKey struct {
	state StateID
	event Event
}

// TransitionTable — неизменяемое после построения отображение
// (StateID, Event) -> StateID. Ячейки без правила — легальный исход
// первого класса: NextState возвращает IllegalTransitionError, а не
// нулевое значение.
//
// Таблица не синхронизируется: после построения она только читается.
type TransitionTable struct {
	next map[transitionKey]StateID
}

// DefaultRules возвращает авторитетную таблицу переходов звонка:
//
//	Idle    + INCOMING_CALL -> Ringing
//	Ringing + CALL_ANSWERED -> InCall
//	Ringing + CALL_DECLINED -> Idle
//	InCall  + CALL_ENDED    -> Idle
func DefaultRules() []TransitionRule {
	return []TransitionRule{
		{From: StateIdle, On: EventIncomingCall, To: StateRinging},
		{From: StateRinging, On: EventCallAnswered, To: StateInCall},
		{From: StateRinging, On: EventCallDeclined, To: StateIdle},
		{From: StateInCall, On: EventCallEnded, To: StateIdle},
	}
}

// NewTransitionTable строит таблицу из списка правил.
// Отклоняет правила с тегами вне перечислений и дубликаты по паре
// (From, On) — ошибка построения фатальна для старта процесса.
func NewTransitionTable(rules []TransitionRule) (*TransitionTable, error) {
	t := &TransitionTable{
		next: make(map[transitionKey]StateID, len(rules)),
	}

	for i, r := range rules {
		if !r.From.IsValid() {
			return nil, fmt.Errorf("правило %d: неизвестное исходное состояние %s", i, r.From)
		}
		if !r.On.IsValid() {
			return nil, fmt.Errorf("правило %d: неизвестное событие %s", i, r.On)
		}
		if !r.To.IsValid() {
			return nil, fmt.Errorf("правило %d: неизвестное целевое состояние %s", i, r.To)
		}

		key := transitionKey{state: r.From, event: r.On}
		if prev, dup := t.next[key]; dup {
			return nil, fmt.Errorf("правило %d: дубликат для пары (%s, %s), уже ведет в %s",
				i, r.From, r.On, prev)
		}
		t.next[key] = r.To
	}

	return t, nil
}

// NextState возвращает следующее состояние для пары (from, on).
// Для ячейки без правила возвращает текущее состояние и
// IllegalTransitionError.
func (t *TransitionTable) NextState(from StateID, on Event) (StateID, error) {
	to, ok := t.next[transitionKey{state: from, event: on}]
	if !ok {
		return from, &IllegalTransitionError{State: from, Event: on}
	}
	return to, nil
}

// Validate проверяет полноту пространства состояний и событий:
// каждая ячейка (StateID, Event) либо ведет в состояние из
// перечисления, либо дает явную IllegalTransitionError — третьих
// исходов нет. Вызывается при старте как защитный инвариант.
func (t *TransitionTable) Validate() error {
	for _, state := range AllStates() {
		for _, event := range AllEvents() {
			next, err := t.NextState(state, event)
			if err != nil {
				var ite *IllegalTransitionError
				if errors.As(err, &ite) {
					continue
				}
				return fmt.Errorf("ячейка (%s, %s): %w", state, event, err)
			}
			if !next.IsValid() {
				return fmt.Errorf("ячейка (%s, %s) ведет в состояние вне перечисления: %v",
					state, event, next)
			}
		}
	}
	return nil
}

// Len возвращает количество легальных переходов в таблице.
func (t *TransitionTable) Len() int {
	return len(t.next)
}
