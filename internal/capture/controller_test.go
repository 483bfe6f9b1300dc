package capture

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"tolmach/internal/artifact"
)

type fakeStream struct {
	mu       sync.Mutex
	handler  Handler
	stops    int
	startErr error
}

func (s *fakeStream) Start(h Handler) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
	return nil
}

// Stop подтверждает остановку асинхронно, как это делает платформа.
func (s *fakeStream) Stop() error {
	s.mu.Lock()
	s.stops++
	h := s.handler
	s.mu.Unlock()
	if h != nil {
		go h.OnStop()
	}
	return nil
}

func (s *fakeStream) emit(chunk []byte) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	h.OnData(chunk)
}

func (s *fakeStream) started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handler != nil
}

type fakeSource struct {
	mu     sync.Mutex
	err    error
	opens  int
	stream *fakeStream
}

func (s *fakeSource) Open(context.Context) (Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	if s.err != nil {
		return nil, s.err
	}
	s.stream = &fakeStream{}
	return s.stream, nil
}

func (s *fakeSource) current() *fakeStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

type fakeAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (a *fakeAlerter) Alert(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, msg)
}

func (a *fakeAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.messages)
}

type chanSink chan artifact.Artifact

func (c chanSink) Deliver(a artifact.Artifact) { c <- a }

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func runController(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestControllerRecordsAndDelivers(t *testing.T) {
	src := &fakeSource{}
	alerts := &fakeAlerter{}
	sink1, sink2 := make(chanSink, 1), make(chanSink, 1)
	c := New(src, alerts, sink1, sink2)
	runController(t, c)

	c.Start()
	waitFor(t, "recording", func() bool { return c.State() == StateRecording })
	waitFor(t, "stream start", func() bool { return src.current().started() })

	stream := src.current()
	stream.emit([]byte{1, 2})
	stream.emit([]byte{3, 4})
	c.Stop()

	for _, sink := range []chanSink{sink1, sink2} {
		select {
		case a := <-sink:
			if !bytes.Equal(a.Data, []byte{1, 2, 3, 4}) {
				t.Errorf("Unexpected artifact %v", a.Data)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Artifact was not delivered")
		}
	}

	waitFor(t, "idle", func() bool { return c.State() == StateIdle })
	if alerts.count() != 0 {
		t.Errorf("Unexpected alerts %v", alerts.messages)
	}
}

func TestControllerStopWhileIdle(t *testing.T) {
	src := &fakeSource{}
	sink := make(chanSink, 1)
	c := New(src, &fakeAlerter{}, sink)

	var changes []State
	var mu sync.Mutex
	c.OnStateChange(func(s State) {
		mu.Lock()
		changes = append(changes, s)
		mu.Unlock()
	})
	runController(t, c)

	c.Stop()
	c.Stop()
	time.Sleep(50 * time.Millisecond)

	select {
	case <-sink:
		t.Fatal("No artifact expected")
	default:
	}

	mu.Lock()
	defer mu.Unlock()
	if len(changes) != 0 || c.State() != StateIdle {
		t.Errorf("Expected no state change, got %v", changes)
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	if src.opens != 0 {
		t.Error("Microphone must not be requested")
	}
}

func TestControllerAcquireDenied(t *testing.T) {
	src := &fakeSource{err: errors.New("permission denied")}
	alerts := &fakeAlerter{}
	c := New(src, alerts)

	var mu sync.Mutex
	var sawRecording bool
	c.OnStateChange(func(s State) {
		mu.Lock()
		if s == StateRecording {
			sawRecording = true
		}
		mu.Unlock()
	})
	runController(t, c)

	c.Start()
	waitFor(t, "alert", func() bool { return alerts.count() == 1 })
	waitFor(t, "idle", func() bool { return c.State() == StateIdle })

	time.Sleep(50 * time.Millisecond)
	if alerts.count() != 1 {
		t.Errorf("Expected exactly one alert, got %d", alerts.count())
	}
	if !strings.Contains(alerts.messages[0], "permission denied") {
		t.Errorf("Alert must mention the cause: %q", alerts.messages[0])
	}

	mu.Lock()
	defer mu.Unlock()
	if sawRecording {
		t.Error("Must not enter recording")
	}
}

func TestControllerStreamStartFailure(t *testing.T) {
	src := &startFailSource{}
	alerts := &fakeAlerter{}
	sink := make(chanSink, 1)
	c := New(src, alerts, sink)
	runController(t, c)

	c.Start()
	waitFor(t, "alert", func() bool { return alerts.count() == 1 })
	waitFor(t, "idle", func() bool { return c.State() == StateIdle })

	select {
	case <-sink:
		t.Error("No artifact expected after failed start")
	case <-time.After(50 * time.Millisecond):
	}
}

type startFailSource struct{}

func (startFailSource) Open(context.Context) (Stream, error) {
	return &fakeStream{startErr: errors.New("device busy")}, nil
}

func TestControllerToggle(t *testing.T) {
	src := &fakeSource{}
	sink := make(chanSink, 1)
	c := New(src, &fakeAlerter{}, sink)
	runController(t, c)

	c.Toggle()
	waitFor(t, "recording", func() bool { return c.IsRecording() })
	waitFor(t, "stream start", func() bool { return src.current().started() })

	src.current().emit([]byte{9})
	c.Toggle()

	select {
	case a := <-sink:
		if !bytes.Equal(a.Data, []byte{9}) {
			t.Errorf("Unexpected artifact %v", a.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Artifact was not delivered")
	}
}

func TestControllerRepeatedStartKeepsSession(t *testing.T) {
	src := &fakeSource{}
	sink := make(chanSink, 1)
	c := New(src, &fakeAlerter{}, sink)
	runController(t, c)

	c.Start()
	waitFor(t, "stream start", func() bool { return src.current() != nil && src.current().started() })
	src.current().emit([]byte{1})

	c.Start()
	c.Start()
	c.Stop()

	select {
	case a := <-sink:
		if !bytes.Equal(a.Data, []byte{1}) {
			t.Errorf("Unexpected artifact %v", a.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Artifact was not delivered")
	}

	src.mu.Lock()
	defer src.mu.Unlock()
	if src.opens != 1 {
		t.Errorf("Expected one microphone request, got %d", src.opens)
	}
}

func TestControllerStopsStreamOnShutdown(t *testing.T) {
	src := &fakeSource{}
	c := New(src, &fakeAlerter{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	c.Start()
	waitFor(t, "stream start", func() bool { return src.current() != nil && src.current().started() })

	cancel()
	<-done

	stream := src.current()
	stream.mu.Lock()
	defer stream.mu.Unlock()
	if stream.stops == 0 {
		t.Error("Stream must be stopped on shutdown")
	}
}

// gatedSource отдаёт поток только после release.
type gatedSource struct {
	fakeSource
	opening chan struct{}
	release chan struct{}
}

func (s *gatedSource) Open(ctx context.Context) (Stream, error) {
	close(s.opening)
	<-s.release
	return s.fakeSource.Open(ctx)
}

func TestControllerStopsStreamOpenedAfterShutdown(t *testing.T) {
	src := &gatedSource{opening: make(chan struct{}), release: make(chan struct{})}
	c := New(src, &fakeAlerter{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	c.Start()
	<-src.opening
	if c.State() != StateAcquiring {
		t.Fatalf("Expected acquiring, got %v", c.State())
	}

	cancel()
	<-done
	close(src.release)

	waitFor(t, "stream stop", func() bool {
		stream := src.current()
		if stream == nil {
			return false
		}
		stream.mu.Lock()
		defer stream.mu.Unlock()
		return stream.stops > 0
	})
}

func TestControllerPostAfterShutdown(t *testing.T) {
	c := New(&fakeSource{}, &fakeAlerter{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Run(ctx)

	if c.post(Event{Kind: EventStart}) {
		t.Error("Post after shutdown must be rejected")
	}
}
