// Package audio предоставляет запись с микрофона и воспроизведение через PortAudio.
package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"

	"tolmach/internal/artifact"
	"tolmach/internal/capture"
)

const (
	// SampleRate - частота дискретизации (сервер всё равно приводит к 16kHz).
	SampleRate = 16000
	// Channels - количество каналов (mono).
	Channels = 1
	// FramesPerBuffer - размер буфера, один фрагмент на буфер.
	FramesPerBuffer = 1024
)

// Init инициализирует PortAudio. Вызывается один раз при старте.
func Init() error {
	return portaudio.Initialize()
}

// Terminate освобождает PortAudio.
func Terminate() {
	portaudio.Terminate()
}

// Microphone открывает потоки записи с микрофона по умолчанию.
type Microphone struct {
	level atomic.Uint32 // float32 bits
}

// NewMicrophone создаёт Microphone. PortAudio должен быть инициализирован.
func NewMicrophone() *Microphone {
	return &Microphone{}
}

// Format возвращает формат фрагментов.
func (m *Microphone) Format() artifact.Format {
	return artifact.Format{SampleRate: SampleRate, Channels: Channels, BitDepth: 16}
}

// Level возвращает уровень сигнала последнего фрагмента (RMS, 0..1).
func (m *Microphone) Level() float32 {
	return math.Float32frombits(m.level.Load())
}

// Open запрашивает поток с микрофона.
// Ошибка означает что устройства нет, оно занято или доступ запрещён.
func (m *Microphone) Open(ctx context.Context) (capture.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buffer := make([]float32, FramesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(
		Channels,        // input channels
		0,               // output channels
		SampleRate,      // sample rate
		FramesPerBuffer, // frames per buffer
		buffer,
	)
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}

	return &inputStream{mic: m, stream: stream, buffer: buffer}, nil
}

// inputStream - один сеанс записи.
type inputStream struct {
	mic    *Microphone
	mu     sync.Mutex
	stream *portaudio.Stream
	buffer []float32
	state  int // 0 - открыт, 1 - пишет, 2 - остановлен
}

const (
	streamOpen = iota
	streamRunning
	streamStopped
)

// Start запускает поток и цикл чтения.
func (s *inputStream) Start(h capture.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != streamOpen {
		return fmt.Errorf("stream already started")
	}

	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("start input stream: %w", err)
	}
	s.state = streamRunning

	go s.readLoop(h)
	return nil
}

// Stop просит цикл чтения завершиться. OnStop придёт после последнего OnData.
func (s *inputStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case streamOpen:
		// Поток так и не запустился: закрываем сразу.
		s.state = streamStopped
		return s.stream.Close()
	case streamRunning:
		s.state = streamStopped
	}
	return nil
}

func (s *inputStream) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == streamRunning
}

func (s *inputStream) readLoop(h capture.Handler) {
	defer func() {
		s.stream.Stop()
		s.stream.Close()
		s.mic.level.Store(0)
		h.OnStop()
	}()

	for s.running() {
		// Проверяем доступность данных, чтобы Read не блокировал остановку
		available, err := s.stream.AvailableToRead()
		if err != nil || available == 0 {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if err := s.stream.Read(); err != nil {
			log.Debug("audio: read failed", "err", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		s.mic.level.Store(math.Float32bits(rms(s.buffer)))
		h.OnData(EncodePCM16(s.buffer))
	}
}

// EncodePCM16 переводит float32 [-1, 1] в little-endian int16.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, sample := range samples {
		if sample > 1.0 {
			sample = 1.0
		} else if sample < -1.0 {
			sample = -1.0
		}
		val := int16(sample * math.MaxInt16)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(val))
	}
	return out
}

func rms(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sum / float64(len(samples))))
}
