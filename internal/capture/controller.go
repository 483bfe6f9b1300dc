package capture

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"tolmach/internal/artifact"
	"tolmach/internal/i18n"
)

const queueSize = 256

// Source запрашивает аудиопоток с микрофона. Может вернуть ошибку
// (нет устройства, устройство занято, доступ запрещён).
type Source interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream - открытый поток записи.
type Stream interface {
	// Start начинает доставку фрагментов в handler.
	Start(h Handler) error
	// Stop просит поток остановиться. Подтверждение приходит через Handler.OnStop.
	Stop() error
}

// Handler получает уведомления от потока.
// Все OnData сессии приходят до её OnStop.
type Handler interface {
	OnData(chunk []byte)
	OnStop()
}

// Alerter показывает пользователю блокирующее сообщение.
type Alerter interface {
	Alert(message string)
}

// Sink получает собранный артефакт.
type Sink interface {
	Deliver(a artifact.Artifact)
}

// formatter реализуют источники, знающие формат своих фрагментов.
type formatter interface {
	Format() artifact.Format
}

// Controller владеет единственной сессией записи и обрабатывает события
// строго последовательно в одной горутине.
type Controller struct {
	source  Source
	alerter Alerter
	sinks   []Sink

	events chan Event
	done   chan struct{}

	// postMu удерживается на время отправки события, closed выставляется
	// под ним после остановки Run.
	postMu sync.RWMutex
	closed bool

	// session принадлежит горутине Run.
	session Session

	mu        sync.Mutex
	state     State
	listeners []func(State)
}

// New создаёт Controller.
func New(source Source, alerter Alerter, sinks ...Sink) *Controller {
	format := artifact.DefaultFormat
	if f, ok := source.(formatter); ok {
		format = f.Format()
	}

	return &Controller{
		source:  source,
		alerter: alerter,
		sinks:   sinks,
		events:  make(chan Event, queueSize),
		done:    make(chan struct{}),
		session: NewSession(format),
	}
}

// OnStateChange добавляет обработчик смены состояния.
// Вызывается из горутины Run.
func (c *Controller) OnStateChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// State возвращает текущее состояние.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsRecording возвращает true если идёт запись.
func (c *Controller) IsRecording() bool {
	return c.State().IsRecording()
}

// Start начинает новую сессию. Повторный вызов во время записи игнорируется.
func (c *Controller) Start() { c.post(Event{Kind: EventStart}) }

// Stop завершает запись. Вне записи ничего не делает.
func (c *Controller) Stop() { c.post(Event{Kind: EventStop}) }

// Toggle начинает запись в idle и останавливает во время записи.
func (c *Controller) Toggle() { c.post(Event{Kind: EventToggle}) }

// post ставит событие в очередь. Возвращает false, если Run уже завершён.
func (c *Controller) post(ev Event) bool {
	c.postMu.RLock()
	defer c.postMu.RUnlock()
	if c.closed {
		return false
	}

	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

// Run обрабатывает события до отмены ctx. Блокирующая функция.
func (c *Controller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return
		case ev := <-c.events:
			c.dispatch(ctx, ev)
		}
	}
}

// shutdown останавливает текущий поток и потоки, открытые уже после отмены.
func (c *Controller) shutdown() {
	if c.session.stream != nil {
		c.session.stream.Stop()
	}

	close(c.done)
	c.postMu.Lock()
	c.closed = true
	c.postMu.Unlock()

	for {
		select {
		case ev := <-c.events:
			if ev.Kind == EventAcquired && ev.Stream != nil {
				ev.Stream.Stop()
			}
		default:
			return
		}
	}
}

func (c *Controller) dispatch(ctx context.Context, ev Event) {
	prev := c.session.State
	next, effects := Transition(c.session, ev)
	c.session = next

	// Поток для чужой сессии никому не нужен.
	if ev.Kind == EventAcquired && len(effects) == 0 && ev.Stream != nil {
		ev.Stream.Stop()
	}

	if next.State != prev {
		log.Debug("capture: transition", "session", next.ID, "from", prev, "to", next.State)
		c.setState(next.State)
	}

	for _, eff := range effects {
		c.apply(ctx, eff)
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	listeners := append([]func(State){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}

func (c *Controller) apply(ctx context.Context, eff Effect) {
	switch eff.Kind {
	case EffectAcquire:
		id := eff.Session
		go func() {
			stream, err := c.source.Open(ctx)
			if err != nil {
				c.post(Event{Kind: EventAcquireFailed, Session: id, Err: err})
				return
			}
			if !c.post(Event{Kind: EventAcquired, Session: id, Stream: stream}) {
				stream.Stop()
			}
		}()

	case EffectBegin:
		h := &sessionHandler{c: c, id: eff.Session}
		if err := eff.Stream.Start(h); err != nil {
			// Сначала сбрасываем сессию, поздний OnStop от Stop будет проигнорирован.
			c.post(Event{Kind: EventAcquireFailed, Session: eff.Session, Err: err})
			eff.Stream.Stop()
			return
		}
		log.Info("capture: recording started", "session", eff.Session)

	case EffectRequestStop:
		if eff.Stream == nil {
			return
		}
		if err := eff.Stream.Stop(); err != nil {
			log.Warn("capture: stop failed", "session", eff.Session, "err", err)
		}

	case EffectAlert:
		log.Error("capture: could not start recording", "err", eff.Err)
		if c.alerter != nil {
			c.alerter.Alert(i18n.T("error_recording_start") + ": " + eff.Err.Error())
		}

	case EffectDeliver:
		log.Info("capture: recording assembled",
			"session", eff.Session,
			"bytes", eff.Artifact.Len(),
			"seconds", eff.Artifact.DurationSeconds())
		if eff.Artifact.Empty() {
			log.Warn("capture: recording has no audio", "session", eff.Session)
		}
		for _, s := range c.sinks {
			s.Deliver(eff.Artifact)
		}
	}
}

// sessionHandler помечает события платформы ID сессии.
type sessionHandler struct {
	c    *Controller
	id   string
	once sync.Once
}

func (h *sessionHandler) OnData(chunk []byte) {
	h.c.post(Event{Kind: EventData, Session: h.id, Chunk: chunk})
}

func (h *sessionHandler) OnStop() {
	h.once.Do(func() {
		h.c.post(Event{Kind: EventStopped, Session: h.id})
	})
}
