package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

const (
	// FileName - фиксированное имя файла в форме, независимо от записи.
	FileName = "recording.wav"
	// FileMIMEType - MIME тип файла в форме.
	FileMIMEType = "audio/wav"

	tempPrefix = "RecordTemp_"
)

// File - файловая обёртка над артефактом для отправки формой.
type File struct {
	Name     string
	MIMEType string
	Path     string
	Size     int64
}

// NewFile записывает артефакт в WAV контейнер во временный файл.
// dir == "" означает системную временную директорию.
func NewFile(a Artifact, dir string) (*File, error) {
	if dir == "" {
		dir = os.TempDir()
	}

	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	path := filepath.Join(dir, tempPrefix+id+".wav")

	if err := writeWav(path, a); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write wav: %w", err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	return &File{
		Name:     FileName,
		MIMEType: FileMIMEType,
		Path:     path,
		Size:     stat.Size(),
	}, nil
}

// Open открывает содержимое файла для чтения.
func (f *File) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// Remove удаляет временный файл. Файлы пользователя без префикса RecordTemp_ не трогает.
func (f *File) Remove() error {
	if !strings.HasPrefix(filepath.Base(f.Path), tempPrefix) {
		return nil
	}
	return os.Remove(f.Path)
}

func writeWav(path string, a Artifact) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	format := a.Format
	if format.SampleRate == 0 {
		format = DefaultFormat
	}

	samples := a.Samples()
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: format.Channels,
			SampleRate:  format.SampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: format.BitDepth,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}

	enc := wav.NewEncoder(out, format.SampleRate, format.BitDepth, format.Channels, 1)
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
