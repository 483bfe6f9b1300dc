package capture

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"tolmach/internal/artifact"
)

func withIDs(t *testing.T) {
	t.Helper()
	n := 0
	prev := newID
	newID = func() string {
		n++
		return fmt.Sprintf("s%d", n)
	}
	t.Cleanup(func() { newID = prev })
}

type nopStream struct{}

func (nopStream) Start(Handler) error { return nil }
func (nopStream) Stop() error         { return nil }

func startRecording(t *testing.T) Session {
	t.Helper()
	s := NewSession(artifact.DefaultFormat)
	s, effects := Transition(s, Event{Kind: EventStart})
	if len(effects) != 1 || effects[0].Kind != EffectAcquire {
		t.Fatalf("Expected acquire effect, got %+v", effects)
	}
	s, effects = Transition(s, Event{Kind: EventAcquired, Session: s.ID, Stream: nopStream{}})
	if s.State != StateRecording || len(effects) != 1 || effects[0].Kind != EffectBegin {
		t.Fatalf("Expected recording with begin effect, got %v %+v", s.State, effects)
	}
	return s
}

func TestStartAcquiresMicrophone(t *testing.T) {
	withIDs(t)
	s, effects := Transition(NewSession(artifact.DefaultFormat), Event{Kind: EventStart})

	if s.State != StateAcquiring {
		t.Errorf("Expected acquiring, got %v", s.State)
	}
	if s.ID != "s1" || effects[0].Session != "s1" {
		t.Errorf("Unexpected session ID %q", s.ID)
	}
}

func TestAssembledArtifactIsConcatenation(t *testing.T) {
	withIDs(t)

	for _, n := range []int{0, 1, 3, 50} {
		t.Run(fmt.Sprintf("%d chunks", n), func(t *testing.T) {
			s := startRecording(t)

			var want []byte
			for i := 0; i < n; i++ {
				chunk := bytes.Repeat([]byte{byte(i)}, i+1)
				want = append(want, chunk...)
				s, _ = Transition(s, Event{Kind: EventData, Session: s.ID, Chunk: chunk})
			}

			s, effects := Transition(s, Event{Kind: EventStop})
			if s.State != StateStopping || len(effects) != 1 || effects[0].Kind != EffectRequestStop {
				t.Fatalf("Expected stopping, got %v %+v", s.State, effects)
			}

			s, effects = Transition(s, Event{Kind: EventStopped, Session: s.ID})
			if s.State != StateIdle {
				t.Errorf("Expected idle, got %v", s.State)
			}
			if len(effects) != 1 || effects[0].Kind != EffectDeliver {
				t.Fatalf("Expected deliver effect, got %+v", effects)
			}
			if !bytes.Equal(effects[0].Artifact.Data, want) {
				t.Errorf("Artifact mismatch: expected %d bytes, got %d", len(want), effects[0].Artifact.Len())
			}
		})
	}
}

func TestDataAfterStopRequestIsKept(t *testing.T) {
	withIDs(t)
	s := startRecording(t)

	s, _ = Transition(s, Event{Kind: EventData, Session: s.ID, Chunk: []byte{1}})
	s, _ = Transition(s, Event{Kind: EventStop})
	s, _ = Transition(s, Event{Kind: EventData, Session: s.ID, Chunk: []byte{2}})
	_, effects := Transition(s, Event{Kind: EventStopped, Session: s.ID})

	if !bytes.Equal(effects[0].Artifact.Data, []byte{1, 2}) {
		t.Errorf("Unexpected artifact %v", effects[0].Artifact.Data)
	}
}

func TestStopWhileIdleIsNoop(t *testing.T) {
	s := NewSession(artifact.DefaultFormat)
	next, effects := Transition(s, Event{Kind: EventStop})

	if next.State != StateIdle || len(effects) != 0 || next.ID != "" {
		t.Errorf("Expected no-op, got %v %+v", next.State, effects)
	}
}

func TestStopWhileAcquiringIsNoop(t *testing.T) {
	withIDs(t)
	s, _ := Transition(NewSession(artifact.DefaultFormat), Event{Kind: EventStart})
	next, effects := Transition(s, Event{Kind: EventStop})

	if next.State != StateAcquiring || len(effects) != 0 {
		t.Errorf("Expected no-op, got %v %+v", next.State, effects)
	}
}

func TestStartReentryIsIgnored(t *testing.T) {
	withIDs(t)
	s := startRecording(t)
	s, _ = Transition(s, Event{Kind: EventData, Session: s.ID, Chunk: []byte{7}})

	next, effects := Transition(s, Event{Kind: EventStart})
	if next.State != StateRecording || len(effects) != 0 {
		t.Errorf("Expected ignored start, got %v %+v", next.State, effects)
	}
	if next.ID != s.ID || len(next.Chunks) != 1 {
		t.Error("Re-entry must not reset the session")
	}
}

func TestToggle(t *testing.T) {
	withIDs(t)
	s := NewSession(artifact.DefaultFormat)

	s, effects := Transition(s, Event{Kind: EventToggle})
	if s.State != StateAcquiring || effects[0].Kind != EffectAcquire {
		t.Fatalf("Toggle from idle must start, got %v", s.State)
	}

	s, effects = Transition(s, Event{Kind: EventToggle})
	if s.State != StateAcquiring || len(effects) != 0 {
		t.Fatalf("Toggle while acquiring must be ignored, got %v", s.State)
	}

	s, _ = Transition(s, Event{Kind: EventAcquired, Session: s.ID, Stream: nopStream{}})
	s, effects = Transition(s, Event{Kind: EventToggle})
	if s.State != StateStopping || effects[0].Kind != EffectRequestStop {
		t.Fatalf("Toggle while recording must stop, got %v", s.State)
	}
}

func TestAcquireFailureAlertsAndStaysIdle(t *testing.T) {
	withIDs(t)
	s, _ := Transition(NewSession(artifact.DefaultFormat), Event{Kind: EventStart})

	denied := errors.New("permission denied")
	s, effects := Transition(s, Event{Kind: EventAcquireFailed, Session: s.ID, Err: denied})

	if s.State != StateIdle {
		t.Errorf("Expected idle, got %v", s.State)
	}
	if len(effects) != 1 || effects[0].Kind != EffectAlert || effects[0].Err != denied {
		t.Errorf("Expected exactly one alert, got %+v", effects)
	}
}

func TestStaleEventsAreIgnored(t *testing.T) {
	withIDs(t)
	s := startRecording(t)
	old := s.ID

	s, _ = Transition(s, Event{Kind: EventStop})
	s, _ = Transition(s, Event{Kind: EventStopped, Session: old})
	s = startRecording(t)

	s, _ = Transition(s, Event{Kind: EventData, Session: old, Chunk: []byte{1}})
	next, effects := Transition(s, Event{Kind: EventStopped, Session: old})

	if len(next.Chunks) != 0 {
		t.Error("Chunks from an old session must be dropped")
	}
	if next.State != StateRecording || len(effects) != 0 {
		t.Errorf("Stale stop must be ignored, got %v %+v", next.State, effects)
	}
}

func TestNewSessionClearsChunks(t *testing.T) {
	withIDs(t)
	s := startRecording(t)
	s, _ = Transition(s, Event{Kind: EventData, Session: s.ID, Chunk: []byte{1, 2}})
	s, _ = Transition(s, Event{Kind: EventStop})
	s, _ = Transition(s, Event{Kind: EventStopped, Session: s.ID})

	s, _ = Transition(s, Event{Kind: EventStart})
	s, _ = Transition(s, Event{Kind: EventAcquired, Session: s.ID, Stream: nopStream{}})
	if len(s.Chunks) != 0 {
		t.Errorf("Expected empty chunk sequence, got %d", len(s.Chunks))
	}
}

func TestStateString(t *testing.T) {
	if StateRecording.String() != "recording" || State(42).String() != "unknown" {
		t.Error("Unexpected state names")
	}
}
