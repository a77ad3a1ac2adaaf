package callfsm

import "fmt"

// ErrorCategory — категории ошибок автомата для классификации
type ErrorCategory string

const (
	// Ошибки диспетчеризации событий
	ErrorCategoryState ErrorCategory = "STATE"
	// Ошибки таблицы переходов
	ErrorCategoryTable ErrorCategory = "TABLE"
	// Ошибки границы источника событий
	ErrorCategorySource ErrorCategory = "SOURCE"
	// Ошибки конфигурации и построения
	ErrorCategoryConfig ErrorCategory = "CONFIG"
)

// String возвращает строковое представление категории
func (c ErrorCategory) String() string {
	return string(c)
}

// UnhandledEventError — событие не принимается текущим состоянием
// (например CALL_ANSWERED в Idle). Восстановимая ошибка: состояние
// не меняется, цикл обработки продолжается.
type UnhandledEventError struct {
	State StateID
	Event Event
}

func (e *UnhandledEventError) Error() string {
	return fmt.Sprintf("[%s:UNHANDLED_EVENT] событие %s не обрабатывается в состоянии %s",
		ErrorCategoryState, e.Event, e.State)
}

// Category возвращает категорию ошибки
func (e *UnhandledEventError) Category() ErrorCategory { return ErrorCategoryState }

// IllegalTransitionError — в таблице нет перехода для пары
// (состояние, событие). Проверяется независимо от принятия события
// обработчиком как защитный инвариант. Восстановимая ошибка.
type IllegalTransitionError struct {
	State StateID
	Event Event
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("[%s:ILLEGAL_TRANSITION] нет перехода из состояния %s по событию %s",
		ErrorCategoryTable, e.State, e.Event)
}

// Category возвращает категорию ошибки
func (e *IllegalTransitionError) Category() ErrorCategory { return ErrorCategoryTable }

// EventDecodingError — граница источника выдала значение вне
// перечисления Event. Фатальна только для самого события: оно
// пропускается, цикл продолжается.
type EventDecodingError struct {
	Raw int
}

func (e *EventDecodingError) Error() string {
	return fmt.Sprintf("[%s:EVENT_DECODING] значение %d вне перечисления событий",
		ErrorCategorySource, e.Raw)
}

// Category возвращает категорию ошибки
func (e *EventDecodingError) Category() ErrorCategory { return ErrorCategorySource }
