// Package callfsm реализует конечный автомат жизненного цикла одного
// телефонного звонка.
//
// Автомат состоит из трех частей:
//   - обработчики состояний (Idle, Ringing, InCall), каждый со своим
//     неизменяемым набором принимаемых событий и их операций
//   - таблица переходов (StateID, Event) -> StateID, построенная один раз
//     при старте и проверяемая на полноту пространства 3x4
//   - машина (Machine), которая обрабатывает события строго по одному:
//     диспетчеризация -> поиск перехода -> смена состояния как единая
//     операция под мьютексом
//
// События доставляются через границу Source: продюсер уведомляет о
// готовности, потребитель сам извлекает значение события. Любой реальный
// источник сигнализации (см. pkg/sipsource) или синтетический генератор
// (см. pkg/eventgen) подключается через эту пару операций без изменения
// самой машины.
//
// Все ошибки обработки событий восстановимые: отклоненное или нелегальное
// событие оставляет состояние неизменным, цикл обработки продолжается.
// Фатальной может быть только ошибка построения таблицы или обработчиков
// при старте.
package callfsm
