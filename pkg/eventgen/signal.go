// Package eventgen содержит синтетический источник событий звонка:
// продюсер на таймере и одноместный сигнал готовности между продюсером
// и потребителем.
package eventgen

import (
	"context"
	"sync/atomic"
)

// Signal — одноместное уведомление "событие готово".
//
// Notify никогда не блокирует продюсера. Уведомления, пришедшие до
// того как потребитель успел забрать предыдущее, схлопываются в одно:
// семантика at-most-one-pending, как у условной переменной с
// notify_one. Схлопнутые уведомления считаются, а не исчезают молча.
type Signal struct {
	ch      chan struct{}
	dropped int64
	onDrop  func()
}

// NewSignal создает сигнал. onDrop, если не nil, вызывается при каждом
// схлопнутом уведомлении.
func NewSignal(onDrop func()) *Signal {
	return &Signal{
		ch:     make(chan struct{}, 1),
		onDrop: onDrop,
	}
}

// Notify сообщает потребителю о готовности события. Не блокирует.
func (s *Signal) Notify() {
	select {
	case s.ch <- struct{}{}:
	default:
		atomic.AddInt64(&s.dropped, 1)
		if s.onDrop != nil {
			s.onDrop()
		}
	}
}

// Wait блокируется до следующего уведомления либо отмены контекста.
// Одно уведомление будит ровно одного ожидающего.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped возвращает число схлопнутых уведомлений.
func (s *Signal) Dropped() int64 {
	return atomic.LoadInt64(&s.dropped)
}
