package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"tolmach/internal/artifact"
)

// ErrNothingToPlay возвращается когда запись ещё не привязана.
var ErrNothingToPlay = errors.New("audio: nothing to play")

// Player - элемент воспроизведения последней записи.
type Player struct {
	mu      sync.Mutex
	current artifact.Artifact
	bound   bool
	playing bool
	onReady []func()
}

// NewPlayer создаёт пустой Player.
func NewPlayer() *Player {
	return &Player{}
}

// Deliver привязывает новую запись. Реализует capture.Sink.
func (p *Player) Deliver(a artifact.Artifact) {
	p.mu.Lock()
	p.current = a
	p.bound = true
	callbacks := append([]func(){}, p.onReady...)
	p.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// OnReady вызывается каждый раз когда привязана новая запись.
func (p *Player) OnReady(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onReady = append(p.onReady, fn)
}

// Ready возвращает true если есть что воспроизводить.
func (p *Player) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bound
}

// Current возвращает привязанную запись.
func (p *Player) Current() (artifact.Artifact, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.bound
}

// Play воспроизводит запись через устройство вывода по умолчанию.
// Блокирует до конца записи или отмены ctx. Повторный вызов во время
// воспроизведения ничего не делает.
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	if !p.bound {
		p.mu.Unlock()
		return ErrNothingToPlay
	}
	if p.playing {
		p.mu.Unlock()
		return nil
	}
	p.playing = true
	a := p.current
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.playing = false
		p.mu.Unlock()
	}()

	out := make([]int16, FramesPerBuffer*a.Format.Channels)
	stream, err := portaudio.OpenDefaultStream(0, a.Format.Channels, float64(a.Format.SampleRate), FramesPerBuffer, out)
	if err != nil {
		return fmt.Errorf("open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start output stream: %w", err)
	}
	defer stream.Stop()

	samples := a.Samples()
	for offset := 0; offset < len(samples); {
		if err := ctx.Err(); err != nil {
			return err
		}
		offset += fill(out, samples[offset:])
		if err := stream.Write(); err != nil {
			return fmt.Errorf("write output stream: %w", err)
		}
	}
	return nil
}

// fill копирует сэмплы в буфер и добивает хвост тишиной.
func fill(buf, samples []int16) int {
	n := copy(buf, samples)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return n
}
