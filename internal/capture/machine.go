// Package capture управляет сессией записи с микрофона.
//
// Переходы описаны чистой функцией Transition: (сессия, событие) -> (сессия, эффекты).
// Controller исполняет эффекты и подаёт события от платформы в одну очередь.
package capture

import (
	"github.com/google/uuid"

	"tolmach/internal/artifact"
)

// State - состояние сессии записи.
type State int

const (
	StateIdle      State = iota
	StateAcquiring       // ждём доступ к микрофону
	StateRecording
	StateStopping // остановка запрошена, ждём подтверждения
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// IsRecording возвращает true пока платформа пишет данные в сессию.
func (s State) IsRecording() bool {
	return s == StateRecording || s == StateStopping
}

// EventKind - тип события.
type EventKind int

const (
	EventStart EventKind = iota
	EventStop
	EventToggle
	EventAcquired
	EventAcquireFailed
	EventData
	EventStopped
)

// Event - входящее событие. Платформенные события несут ID сессии.
type Event struct {
	Kind    EventKind
	Session string
	Stream  Stream
	Chunk   []byte
	Err     error
}

// EffectKind - тип побочного эффекта перехода.
type EffectKind int

const (
	EffectAcquire EffectKind = iota
	EffectBegin
	EffectRequestStop
	EffectAlert
	EffectDeliver
)

// Effect - побочный эффект, который исполняет Controller.
type Effect struct {
	Kind     EffectKind
	Session  string
	Stream   Stream
	Err      error
	Artifact artifact.Artifact
}

// Session - единственная активная сессия записи.
type Session struct {
	ID     string
	State  State
	Chunks [][]byte
	Format artifact.Format
	stream Stream
}

// NewSession возвращает сессию в состоянии idle.
func NewSession(format artifact.Format) Session {
	return Session{State: StateIdle, Format: format}
}

// newID подменяется в тестах.
var newID = func() string { return uuid.NewString() }

// Transition вычисляет следующее состояние сессии. Ввод-вывода нет.
// Сессия передаётся во владение: предыдущее значение после вызова не используется.
func Transition(s Session, ev Event) (Session, []Effect) {
	if ev.Kind == EventToggle {
		switch s.State {
		case StateIdle:
			ev.Kind = EventStart
		case StateRecording:
			ev.Kind = EventStop
		default:
			return s, nil
		}
	}

	switch ev.Kind {
	case EventStart:
		if s.State != StateIdle {
			return s, nil
		}
		s.ID = newID()
		s.State = StateAcquiring
		return s, []Effect{{Kind: EffectAcquire, Session: s.ID}}

	case EventStop:
		if s.State != StateRecording {
			return s, nil
		}
		s.State = StateStopping
		return s, []Effect{{Kind: EffectRequestStop, Session: s.ID, Stream: s.stream}}
	}

	// Дальше только события платформы для текущей сессии.
	if ev.Session != s.ID {
		return s, nil
	}

	switch ev.Kind {
	case EventAcquired:
		if s.State != StateAcquiring {
			return s, nil
		}
		s.State = StateRecording
		s.Chunks = nil
		s.stream = ev.Stream
		return s, []Effect{{Kind: EffectBegin, Session: s.ID, Stream: ev.Stream}}

	case EventAcquireFailed:
		// Поток мог открыться, но не запуститься: такая сессия тоже отбрасывается.
		if s.State != StateAcquiring && s.State != StateRecording {
			return s, nil
		}
		s.State = StateIdle
		s.Chunks = nil
		s.stream = nil
		return s, []Effect{{Kind: EffectAlert, Session: s.ID, Err: ev.Err}}

	case EventData:
		if !s.State.IsRecording() || len(ev.Chunk) == 0 {
			return s, nil
		}
		s.Chunks = append(s.Chunks, ev.Chunk)
		return s, nil

	case EventStopped:
		if !s.State.IsRecording() {
			return s, nil
		}
		a := artifact.Assemble(s.Chunks, s.Format)
		s.State = StateIdle
		s.Chunks = nil
		s.stream = nil
		return s, []Effect{{Kind: EffectDeliver, Session: s.ID, Artifact: a}}
	}

	return s, nil
}
