// Package sipsource — реальный телефонный фронтенд для автомата звонка.
//
// Принимает SIP сигнализацию через UAS и отображает ее на события
// callfsm: INVITE -> INCOMING_CALL, CANCEL -> CALL_DECLINED,
// ответ 200 OK -> CALL_ANSWERED, BYE -> CALL_ENDED. Машина при этом
// не меняется: пакет реализует ту же границу callfsm.Source, что и
// синтетический генератор.
//
// В отличие от генератора передача здесь очередная, а не одноместная:
// событие, порожденное реальным вызовом, нельзя терять между
// уведомлением и потреблением. Переполнение ограниченной очереди
// отбрасывает событие на стороне продюсера и учитывается в метриках.
package sipsource

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/emiago/sipgo"
	"github.com/emiago/sipgo/sip"

	"github.com/arzzra/phone_fsm/pkg/callfsm"
)

// Config — конфигурация SIP источника событий.
type Config struct {
	// ListenAddr адрес UDP транспорта host:port
	ListenAddr string
	// UserAgent значение заголовка User-Agent
	UserAgent string
	// QueueSize размер очереди событий к потребителю
	QueueSize int
	// AnswerAfter задержка автоответа на входящий вызов;
	// 0 — только ручной Answer
	AnswerAfter time.Duration
	// SDPHost и SDPPort — адрес медиа в SDP ответе
	SDPHost string
	SDPPort int
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		ListenAddr:  "127.0.0.1:5060",
		UserAgent:   "PhoneFSM/1.0",
		QueueSize:   16,
		AnswerAfter: 2 * time.Second,
		SDPHost:     "127.0.0.1",
		SDPPort:     40000,
	}
}

// Validate проверяет конфигурацию
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("не задан адрес транспорта")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("размер очереди должен быть положительным: %d", c.QueueSize)
	}
	if c.SDPPort <= 0 || c.SDPPort > 65535 {
		return fmt.Errorf("некорректный медиа порт: %d", c.SDPPort)
	}
	return nil
}

// Source — SIP источник событий звонка. Реализует callfsm.Source.
// Одна линия: второй INVITE во время активного вызова получает
// 486 Busy Here и события не порождает.
type Source struct {
	cfg Config
	ua  *sipgo.UserAgent
	srv *sipgo.Server
	log *slog.Logger

	metrics *callfsm.Metrics

	mu     sync.Mutex
	active *call

	events     chan callfsm.Event
	pending    callfsm.Event
	hasPending bool
}

// SourceOption — функциональная опция источника.
type SourceOption func(*Source)

// WithLogger устанавливает логгер источника
func WithLogger(log *slog.Logger) SourceOption {
	return func(s *Source) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics подключает учет отброшенных событий
func WithMetrics(m *callfsm.Metrics) SourceOption {
	return func(s *Source) {
		s.metrics = m
	}
}

// New создает SIP источник. Сокеты не открываются до Listen.
func New(cfg Config, opts ...SourceOption) (*Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("конфигурация SIP источника: %w", err)
	}

	ua, err := sipgo.NewUA(sipgo.WithUserAgent(cfg.UserAgent))
	if err != nil {
		return nil, fmt.Errorf("создание user agent: %w", err)
	}

	srv, err := sipgo.NewServer(ua)
	if err != nil {
		_ = ua.Close()
		return nil, fmt.Errorf("создание SIP сервера: %w", err)
	}

	s := &Source{
		cfg:    cfg,
		ua:     ua,
		srv:    srv,
		log:    slog.Default().With("component", "sipsource"),
		events: make(chan callfsm.Event, cfg.QueueSize),
	}
	for _, opt := range opts {
		opt(s)
	}

	srv.OnInvite(s.handleInvite)
	srv.OnCancel(s.handleCancel)
	srv.OnAck(s.handleAck)
	srv.OnBye(s.handleBye)

	return s, nil
}

// Listen принимает SIP на UDP. Блокирует до отмены контекста.
func (s *Source) Listen(ctx context.Context) error {
	s.log.Info("SIP транспорт запущен", "addr", s.cfg.ListenAddr)
	return s.srv.ListenAndServe(ctx, "udp", s.cfg.ListenAddr)
}

// Close освобождает ресурсы SIP стека.
func (s *Source) Close() error {
	if err := s.srv.Close(); err != nil {
		return err
	}
	return s.ua.Close()
}

// Wait блокируется до появления события в очереди либо отмены контекста.
func (s *Source) Wait(ctx context.Context) error {
	select {
	case event := <-s.events:
		s.mu.Lock()
		s.pending = event
		s.hasPending = true
		s.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextEvent возвращает событие, извлеченное последним Wait.
func (s *Source) NextEvent() (callfsm.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasPending {
		return 0, fmt.Errorf("нет ожидающего события: NextEvent без предшествующего Wait")
	}
	s.hasPending = false
	return s.pending, nil
}

// push кладет событие в очередь к потребителю. Не блокирует:
// при переполнении событие отбрасывается и учитывается.
func (s *Source) push(event callfsm.Event) {
	select {
	case s.events <- event:
	default:
		s.log.Warn("очередь событий переполнена, событие отброшено", "event", event)
		s.metrics.ObserveNotifyDropped()
	}
}

// Answer отвечает на активный входящий вызов: 200 OK с минимальным
// аудио SDP. Порождает CALL_ANSWERED.
func (s *Source) Answer() error {
	s.mu.Lock()
	c := s.active
	if c == nil {
		s.mu.Unlock()
		return fmt.Errorf("нет активного вызова для ответа")
	}
	// Переход состояния вызова — под тем же мьютексом, что и линия:
	// конкурирующие CANCEL/BYE видят либо ringing, либо answered,
	// но не промежуток между ними.
	if err := c.fsm.Event(context.Background(), callActionAnswer); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("ответ невозможен в состоянии %s: %w", c.fsm.Current(), err)
	}
	s.mu.Unlock()

	body, err := buildAnswerSDP(s.cfg.SDPHost, s.cfg.SDPPort)
	if err != nil {
		return fmt.Errorf("построение SDP ответа: %w", err)
	}

	res := sip.NewResponseFromRequest(c.invite, sip.StatusOK, "OK", body)
	res.AppendHeader(sip.NewHeader("Contact", fmt.Sprintf("<sip:fsm@%s>", s.cfg.ListenAddr)))
	res.AppendHeader(sip.NewHeader("Content-Type", "application/sdp"))
	res.AppendHeader(sip.NewHeader("Content-Length", fmt.Sprintf("%d", len(body))))

	if err := c.inviteTx.Respond(res); err != nil {
		return fmt.Errorf("отправка 200 OK: %w", err)
	}

	s.log.Info("вызов принят", "call_id", c.callID)
	s.push(callfsm.EventCallAnswered)
	return nil
}

func (s *Source) handleInvite(req *sip.Request, tx sip.ServerTransaction) {
	callID := req.CallID()
	if callID == nil {
		res := sip.NewResponseFromRequest(req, sip.StatusBadRequest, "Missing Call-ID", nil)
		s.respond(tx, res)
		return
	}

	s.mu.Lock()
	if s.active != nil {
		s.mu.Unlock()
		s.log.Info("линия занята, вызов отклонен", "call_id", callID.Value())
		res := sip.NewResponseFromRequest(req, 486, "Busy Here", nil)
		s.respond(tx, res)
		return
	}
	c := newCall(callID.Value(), req, tx)
	s.active = c
	s.mu.Unlock()

	s.respond(tx, sip.NewResponseFromRequest(req, sip.StatusTrying, "Trying", nil))
	s.respond(tx, sip.NewResponseFromRequest(req, 180, "Ringing", nil))

	from := ""
	if h := req.From(); h != nil {
		from = h.Address.String()
	}
	s.log.Info("входящий вызов", "call_id", c.callID, "from", from)
	s.push(callfsm.EventIncomingCall)

	if s.cfg.AnswerAfter > 0 {
		time.AfterFunc(s.cfg.AnswerAfter, func() {
			if err := s.Answer(); err != nil {
				s.log.Warn("автоответ не выполнен", "call_id", c.callID, "error", err)
			}
		})
	}
}

func (s *Source) handleCancel(req *sip.Request, tx sip.ServerTransaction) {
	// CANCEL после ответа недопустим: вызов уже не в ringing
	c := s.endActive(req, callActionDecline)
	if c == nil {
		res := sip.NewResponseFromRequest(req, sip.StatusCallTransactionDoesNotExists, "Call Does Not Exist", nil)
		s.respond(tx, res)
		return
	}

	s.respond(tx, sip.NewResponseFromRequest(req, sip.StatusOK, "OK", nil))
	s.respond(c.inviteTx, sip.NewResponseFromRequest(c.invite, sip.StatusRequestTerminated, "Request Terminated", nil))

	s.log.Info("вызов отклонен", "call_id", c.callID)
	s.push(callfsm.EventCallDeclined)
}

func (s *Source) handleBye(req *sip.Request, tx sip.ServerTransaction) {
	// BYE до ответа не завершает разговор, которого еще нет
	c := s.endActive(req, callActionHangup)
	if c == nil {
		res := sip.NewResponseFromRequest(req, sip.StatusCallTransactionDoesNotExists, "Call Does Not Exist", nil)
		s.respond(tx, res)
		return
	}

	s.respond(tx, sip.NewResponseFromRequest(req, sip.StatusOK, "OK", nil))

	s.log.Info("вызов завершен", "call_id", c.callID)
	s.push(callfsm.EventCallEnded)
}

func (s *Source) handleAck(req *sip.Request, tx sip.ServerTransaction) {
	// ACK подтверждает 200 OK и ответа не требует
	s.log.Debug("получен ACK", "call_id", callIDValue(req))
}

// endActive снимает активный вызов с линии, если запрос относится к
// нему и действие допустимо в его состоянии сигнализации. Проверка
// допустимости и снятие с линии выполняются под одним мьютексом:
// при отказе в завершении линия ни на миг не выглядит свободной.
// Возвращает nil для чужого Call-ID или недопустимого действия.
func (s *Source) endActive(req *sip.Request, action string) *call {
	callID := req.CallID()
	if callID == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || s.active.callID != callID.Value() {
		return nil
	}
	if err := s.active.fsm.Event(context.Background(), action); err != nil {
		return nil
	}
	c := s.active
	s.active = nil
	return c
}

func (s *Source) respond(tx sip.ServerTransaction, res *sip.Response) {
	if err := tx.Respond(res); err != nil {
		s.log.Error("отправка ответа не удалась", "status", res.StatusCode, "error", err)
	}
}

func callIDValue(req *sip.Request) string {
	if callID := req.CallID(); callID != nil {
		return callID.Value()
	}
	return ""
}

var _ callfsm.Source = (*Source)(nil)
