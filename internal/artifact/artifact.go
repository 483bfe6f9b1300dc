// Package artifact собирает записанные фрагменты аудио в единый файл.
package artifact

import (
	"encoding/binary"
	"fmt"
)

// Format описывает PCM формат фрагментов.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat - 16kHz mono 16-bit, то что ждёт сервер перевода после ffmpeg.
var DefaultFormat = Format{
	SampleRate: 16000,
	Channels:   1,
	BitDepth:   16,
}

// MIMEType возвращает MIME тип сырого PCM потока (RFC 2586).
func (f Format) MIMEType() string {
	return fmt.Sprintf("audio/L16;rate=%d;channels=%d", f.SampleRate, f.Channels)
}

// BytesPerSecond возвращает размер одной секунды аудио в байтах.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * f.BitDepth / 8
}

// Artifact - единый бинарный объект, собранный из фрагментов одной сессии.
// После создания не изменяется.
type Artifact struct {
	Data     []byte
	MIMEType string
	Format   Format
}

// Assemble склеивает фрагменты в порядке поступления.
func Assemble(chunks [][]byte, format Format) Artifact {
	size := 0
	for _, c := range chunks {
		size += len(c)
	}

	data := make([]byte, 0, size)
	for _, c := range chunks {
		data = append(data, c...)
	}

	return Artifact{
		Data:     data,
		MIMEType: format.MIMEType(),
		Format:   format,
	}
}

// Len возвращает размер данных в байтах.
func (a Artifact) Len() int {
	return len(a.Data)
}

// Empty возвращает true если в записи нет ни одного сэмпла.
func (a Artifact) Empty() bool {
	return len(a.Data) == 0
}

// Samples декодирует little-endian PCM16 в сэмплы.
// Нечётный хвостовой байт отбрасывается.
func (a Artifact) Samples() []int16 {
	n := len(a.Data) / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(a.Data[i*2:]))
	}
	return samples
}

// DurationSeconds возвращает длительность записи.
func (a Artifact) DurationSeconds() float64 {
	bps := a.Format.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return float64(len(a.Data)) / float64(bps)
}
