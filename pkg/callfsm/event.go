package callfsm

import "fmt"

// Event — закрытое перечисление событий звонка.
// Событие не несет данных кроме собственного тега.
type Event int

const (
	// EventIncomingCall — поступил входящий вызов
	EventIncomingCall Event = iota
	// EventCallDeclined — вызов отклонен до ответа
	EventCallDeclined
	// EventCallAnswered — на вызов ответили
	EventCallAnswered
	// EventCallEnded — разговор завершен
	EventCallEnded
)

// NumEvents — размер перечисления событий.
const NumEvents = 4

var eventNames = map[Event]string{
	EventIncomingCall: "INCOMING_CALL",
	EventCallDeclined: "CALL_DECLINED",
	EventCallAnswered: "CALL_ANSWERED",
	EventCallEnded:    "CALL_ENDED",
}

// String возвращает строковое представление события
func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// IsValid сообщает, принадлежит ли значение перечислению.
// Значения вне перечисления приходят только с границы источника
// и отбрасываются с ошибкой EventDecodingError.
func (e Event) IsValid() bool {
	_, ok := eventNames[e]
	return ok
}

// AllEvents возвращает все события перечисления в порядке объявления.
func AllEvents() []Event {
	return []Event{EventIncomingCall, EventCallDeclined, EventCallAnswered, EventCallEnded}
}
