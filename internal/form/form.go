// Package form собирает и отправляет форму загрузки записи на сервер перевода.
package form

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"sync"
	"time"

	htmltomd "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/charmbracelet/log"

	"tolmach/internal/artifact"
)

const (
	// FileField - имя поля с файлом записи.
	FileField = "audio"
	// TargetField - имя поля выбора языка.
	TargetField = "target"

	// DefaultTarget - язык перевода по умолчанию.
	DefaultTarget = "de"
	// DefaultTimeout - перевод, синтез речи и распознавание на сервере не быстрые.
	DefaultTimeout = 5 * time.Minute

	maxResultBytes = 8 << 20
)

var (
	// ErrNoFile - в форме нет файла.
	ErrNoFile = errors.New("form: no file attached")
	// ErrNotAudio - выбранный файл не является аудио.
	ErrNotAudio = errors.New("form: file is not audio")
)

// Config - настройки формы.
type Config struct {
	URL     string
	Target  string
	Fields  map[string]string
	TempDir string
	Timeout time.Duration
}

// Result - ответ сервера.
type Result struct {
	Status int
	Text   string
}

// Form - исходящая форма загрузки.
type Form struct {
	mu       sync.Mutex
	url      string
	target   string
	fields   map[string]string
	tempDir  string
	file     *artifact.File
	onSubmit []func(target string)
	onAttach []func(*artifact.File)
	onTarget []func(string)

	httpClient *http.Client
}

// New создаёт форму.
func New(cfg Config) *Form {
	target := cfg.Target
	if target == "" {
		target = DefaultTarget
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	fields := make(map[string]string, len(cfg.Fields))
	for k, v := range cfg.Fields {
		fields[k] = v
	}

	return &Form{
		url:     cfg.URL,
		target:  target,
		fields:  fields,
		tempDir: cfg.TempDir,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Deliver собирает файл из записи и заменяет им выбор в поле файла.
// Реализует capture.Sink.
func (f *Form) Deliver(a artifact.Artifact) {
	file, err := artifact.NewFile(a, f.tempDir)
	if err != nil {
		log.Error("form: could not build file", "err", err)
		return
	}
	f.attach(file)
}

// AttachPath прикрепляет существующий аудиофайл пользователя.
func (f *Form) AttachPath(path string) error {
	mimeType, err := DetectAudio(path)
	if err != nil {
		return err
	}

	file, err := userFile(path, mimeType)
	if err != nil {
		return err
	}
	f.attach(file)
	return nil
}

func (f *Form) attach(file *artifact.File) {
	f.mu.Lock()
	prev := f.file
	f.file = file
	callbacks := append([]func(*artifact.File){}, f.onAttach...)
	f.mu.Unlock()

	if prev != nil && prev.Path != file.Path {
		if err := prev.Remove(); err != nil {
			log.Debug("form: could not remove previous file", "path", prev.Path, "err", err)
		}
	}

	log.Info("form: file attached", "name", file.Name, "type", file.MIMEType, "size", file.Size)
	for _, fn := range callbacks {
		fn(file)
	}
}

// File возвращает прикреплённый файл или nil.
func (f *Form) File() *artifact.File {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file
}

// OnAttach вызывается при каждой замене файла.
func (f *Form) OnAttach(fn func(*artifact.File)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onAttach = append(f.onAttach, fn)
}

// SetValue устанавливает целевой язык. Реализует recent.Selector.
func (f *Form) SetValue(code string) {
	code = strings.TrimSpace(code)
	if code == "" {
		return
	}

	f.mu.Lock()
	f.target = code
	callbacks := append([]func(string){}, f.onTarget...)
	f.mu.Unlock()

	for _, fn := range callbacks {
		fn(code)
	}
}

// Target возвращает текущий целевой язык.
func (f *Form) Target() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.target
}

// OnTargetChange вызывается при смене целевого языка.
func (f *Form) OnTargetChange(fn func(string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onTarget = append(f.onTarget, fn)
}

// OnSubmit добавляет обработчик отправки. Обработчики вызываются до запроса
// и не могут его отменить или изменить.
func (f *Form) OnSubmit(fn func(target string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onSubmit = append(f.onSubmit, fn)
}

// Submit отправляет форму multipart запросом.
func (f *Form) Submit(ctx context.Context) (*Result, error) {
	f.mu.Lock()
	file := f.file
	target := f.target
	url := f.url
	fields := make(map[string]string, len(f.fields))
	for k, v := range f.fields {
		fields[k] = v
	}
	listeners := append([]func(string){}, f.onSubmit...)
	f.mu.Unlock()

	if file == nil {
		return nil, ErrNoFile
	}

	for _, fn := range listeners {
		fn(target)
	}

	// Файл открывается до запуска pipe: Deliver может удалить его в любой момент.
	in, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	body, contentType := encode(file, in, target, fields)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		body.Close()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	log.Info("form: submitting", "url", url, "target", target, "file", file.Name)
	start := time.Now()

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResultBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	log.Info("form: response", "status", resp.StatusCode, "took", time.Since(start).Round(time.Millisecond))

	result := &Result{Status: resp.StatusCode, Text: renderText(raw, resp.Header.Get("Content-Type"))}
	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("server error %d: %s", resp.StatusCode, result.Text)
	}
	return result, nil
}

// encode пишет multipart тело в pipe, не загружая файл целиком в память.
// Владение in переходит к encode.
func encode(file *artifact.File, in io.ReadCloser, target string, fields map[string]string) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		defer in.Close()
		err := writeParts(mw, file, in, target, fields)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func writeParts(mw *multipart.Writer, file *artifact.File, in io.Reader, target string, fields map[string]string) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FileField, escapeQuotes(file.Name)))
	h.Set("Content-Type", file.MIMEType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}

	if _, err := io.Copy(part, in); err != nil {
		return err
	}

	if err := mw.WriteField(TargetField, target); err != nil {
		return err
	}
	for k, v := range fields {
		if k == TargetField || k == FileField || v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// renderText превращает HTML страницу результата в читаемый текст.
func renderText(raw []byte, contentType string) string {
	text := strings.TrimSpace(string(raw))
	if !strings.Contains(contentType, "html") && !strings.HasPrefix(text, "<") {
		return text
	}

	md, err := htmltomd.ConvertString(text)
	if err != nil {
		log.Debug("form: html-to-markdown failed", "err", err)
		return text
	}
	return strings.TrimSpace(md)
}

func userFile(path, mimeType string) (*artifact.File, error) {
	size, err := fileSize(path)
	if err != nil {
		return nil, err
	}
	return &artifact.File{
		Name:     filepath.Base(path),
		MIMEType: mimeType,
		Path:     path,
		Size:     size,
	}, nil
}
