package callfsm

import (
	"fmt"
	"log/slog"
)

// StateID — закрытое перечисление состояний звонка.
type StateID int

const (
	// StateIdle — линия свободна
	StateIdle StateID = iota
	// StateRinging — идет входящий вызов, телефон звонит
	StateRinging
	// StateInCall — разговор установлен
	StateInCall
)

// NumStates — размер перечисления состояний.
const NumStates = 3

var stateNames = map[StateID]string{
	StateIdle:    "Idle",
	StateRinging: "Ringing",
	StateInCall:  "InCall",
}

// String возвращает строковое представление состояния
func (s StateID) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("StateID(%d)", int(s))
}

// IsValid сообщает, принадлежит ли значение перечислению
func (s StateID) IsValid() bool {
	_, ok := stateNames[s]
	return ok
}

// AllStates возвращает все состояния перечисления в порядке объявления.
func AllStates() []StateID {
	return []StateID{StateIdle, StateRinging, StateInCall}
}

// StateHandler владеет side-effect логикой одного состояния.
// Каждый вариант объявляет конечный набор принимаемых событий;
// событие вне набора — нарушение контракта, Handle возвращает
// UnhandledEventError, не выполняя никакой операции.
//
// Обработчики не хранят данных конкретного звонка, поэтому три
// экземпляра создаются один раз и разделяются на все время работы
// процесса.
type StateHandler interface {
	// ID возвращает идентификатор состояния обработчика
	ID() StateID
	// Handle выполняет операцию для события в этом состоянии
	Handle(event Event) error
}

// ActionFunc — приемник человекочитаемых описаний выполненных действий.
// Единственный наблюдаемый side effect автомата.
type ActionFunc func(action string)

// slogActions пишет действия в структурированный лог.
func slogActions(log *slog.Logger) ActionFunc {
	return func(action string) {
		log.Info(action)
	}
}

// operation — именованная операция обработчика для одного события.
type operation func(act ActionFunc)

func opStartRinging(act ActionFunc) { act("Phone started ringing") }
func opStartCall(act ActionFunc)    { act("Call answered. Starting conversation") }
func opStopRinging(act ActionFunc)  { act("Call declined") }
func opEndCall(act ActionFunc)      { act("Call ended") }

// stateHandler — общая реализация обработчика: неизменяемое
// отображение событие -> операция, заполняемое конструктором варианта.
type stateHandler struct {
	id  StateID
	ops map[Event]operation
	act ActionFunc
}

func (h *stateHandler) ID() StateID {
	return h.id
}

func (h *stateHandler) Handle(event Event) error {
	op, ok := h.ops[event]
	if !ok {
		return &UnhandledEventError{State: h.id, Event: event}
	}
	op(h.act)
	return nil
}

// NewIdleHandler создает обработчик состояния Idle.
// Принимает только INCOMING_CALL.
func NewIdleHandler(act ActionFunc) StateHandler {
	return &stateHandler{
		id:  StateIdle,
		act: act,
		ops: map[Event]operation{
			EventIncomingCall: opStartRinging,
		},
	}
}

// NewRingingHandler создает обработчик состояния Ringing.
// Принимает CALL_ANSWERED и CALL_DECLINED.
func NewRingingHandler(act ActionFunc) StateHandler {
	return &stateHandler{
		id:  StateRinging,
		act: act,
		ops: map[Event]operation{
			EventCallAnswered: opStartCall,
			EventCallDeclined: opStopRinging,
		},
	}
}

// NewInCallHandler создает обработчик состояния InCall.
// Принимает только CALL_ENDED.
func NewInCallHandler(act ActionFunc) StateHandler {
	return &stateHandler{
		id:  StateInCall,
		act: act,
		ops: map[Event]operation{
			EventCallEnded: opEndCall,
		},
	}
}

// NewHandlers создает все три обработчика состояний с общим приемником
// действий.
func NewHandlers(act ActionFunc) map[StateID]StateHandler {
	return map[StateID]StateHandler{
		StateIdle:    NewIdleHandler(act),
		StateRinging: NewRingingHandler(act),
		StateInCall:  NewInCallHandler(act),
	}
}
