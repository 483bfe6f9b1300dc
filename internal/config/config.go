// Package config предоставляет конфигурацию приложения с сохранением в файл.
package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const (
	// DefaultServerURL - адрес веб-сервиса перевода (Flask по умолчанию слушает 5000).
	DefaultServerURL = "http://localhost:5000/translate"
	// EnvServerURL переопределяет адрес сервера.
	EnvServerURL = "TOLMACH_SERVER_URL"

	fileName    = "config.json"
	storageName = "storage.db"
)

// DefaultLanguages - языки, которые поддерживает EasyNMT opus-mt.
var DefaultLanguages = []string{
	"ar", "de", "en", "es", "fr", "it", "ja", "ko", "nl", "pl", "pt", "ru", "sv", "tr", "uk", "zh",
}

// DefaultFields - дополнительные поля формы со значениями веб-приложения.
var DefaultFields = map[string]string{
	"whisper_model": "base",
	"easynmt_model": "opus-mt",
	"tts_lang":      "a",
	"voice":         "af_heart",
}

// configData структура для сериализации.
type configData struct {
	ServerURL     string            `json:"server_url"`
	Target        string            `json:"target"`
	Languages     []string          `json:"languages,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
	UILanguage    string            `json:"ui_language,omitempty"`
	Notifications bool              `json:"notifications"`
	Hotkey        HotkeyConfig      `json:"hotkey"`
	StoragePath   string            `json:"storage_path,omitempty"`
}

// Config хранит настройки приложения.
type Config struct {
	mu            sync.RWMutex
	serverURL     string
	target        string
	languages     []string
	fields        map[string]string
	uiLanguage    string
	notifications bool
	hotkey        HotkeyConfig
	storagePath   string
	configPath    string
}

// New создаёт конфигурацию, загружая из файла или с настройками по умолчанию.
// Пустой path означает config.json рядом с бинарником.
func New(path string) *Config {
	c := defaults()

	if path == "" {
		path = defaultPath()
	}
	c.configPath = path

	c.load()
	c.applyEnv()

	return c
}

func defaults() *Config {
	fields := make(map[string]string, len(DefaultFields))
	for k, v := range DefaultFields {
		fields[k] = v
	}

	return &Config{
		serverURL:     DefaultServerURL,
		target:        "de",
		languages:     append([]string(nil), DefaultLanguages...),
		fields:        fields,
		uiLanguage:    "ru", // По умолчанию русский интерфейс
		notifications: true,
		hotkey: HotkeyConfig{
			Modifiers: []Modifier{ModCtrl, ModShift},
			Key:       KeyR,
		},
	}
}

// defaultPath возвращает путь к config.json рядом с бинарником.
func defaultPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	// Резолвим симлинки
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(execPath), fileName)
}

// load загружает конфигурацию из файла.
func (c *Config) load() {
	if c.configPath == "" {
		return
	}

	data, err := os.ReadFile(c.configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("config: read failed", "path", c.configPath, "err", err)
		}
		return // Файл не существует, используем defaults
	}

	var cfg configData
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Warn("config: bad file, using defaults", "path", c.configPath, "err", err)
		return
	}

	if cfg.ServerURL != "" {
		c.serverURL = cfg.ServerURL
	}
	if cfg.Target != "" {
		c.target = cfg.Target
	}
	if len(cfg.Languages) > 0 {
		c.languages = cfg.Languages
	}
	for k, v := range cfg.Fields {
		c.fields[k] = v
	}
	if cfg.UILanguage != "" {
		c.uiLanguage = cfg.UILanguage
	}
	c.notifications = cfg.Notifications
	if cfg.Hotkey.Key != "" {
		c.hotkey = cfg.Hotkey
	}
	c.storagePath = cfg.StoragePath
}

// applyEnv читает .env рядом с конфигом и переменные окружения.
func (c *Config) applyEnv() {
	if c.configPath != "" {
		envPath := filepath.Join(filepath.Dir(c.configPath), ".env")
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("config: .env not loaded", "path", envPath, "err", err)
		}
	}

	if url := strings.TrimSpace(os.Getenv(EnvServerURL)); url != "" {
		c.serverURL = url
	}
}

// save сохраняет конфигурацию в файл. Вызывается под c.mu.
func (c *Config) save() {
	if c.configPath == "" {
		return
	}

	cfg := configData{
		ServerURL:     c.serverURL,
		Target:        c.target,
		Languages:     c.languages,
		Fields:        c.fields,
		UILanguage:    c.uiLanguage,
		Notifications: c.notifications,
		Hotkey:        c.hotkey,
		StoragePath:   c.storagePath,
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return
	}

	if err := os.WriteFile(c.configPath, data, 0644); err != nil {
		log.Warn("config: save failed", "path", c.configPath, "err", err)
	}
}

// ServerURL возвращает адрес формы загрузки.
func (c *Config) ServerURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverURL
}

// SetServerURL устанавливает адрес без сохранения (флаг командной строки).
func (c *Config) SetServerURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serverURL = url
}

// Target возвращает последний выбранный язык перевода.
func (c *Config) Target() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.target
}

// SetTarget устанавливает язык перевода.
func (c *Config) SetTarget(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.target == code {
		return
	}
	c.target = code
	c.save()
}

// Languages возвращает список языков для выбора.
func (c *Config) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.languages...)
}

// Fields возвращает копию дополнительных полей формы.
func (c *Config) Fields() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.fields))
	for k, v := range c.fields {
		out[k] = v
	}
	return out
}

// ToggleNotifications переключает состояние уведомлений.
func (c *Config) ToggleNotifications() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = !c.notifications
	c.save()
	return c.notifications
}

// NotificationsEnabled возвращает true если уведомления включены.
func (c *Config) NotificationsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notifications
}

// Hotkey возвращает текущую горячую клавишу.
func (c *Config) Hotkey() HotkeyConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hotkey
}

// SetHotkey устанавливает горячую клавишу.
func (c *Config) SetHotkey(hk HotkeyConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hotkey = hk
	c.save()
}

// UILanguage возвращает язык интерфейса.
func (c *Config) UILanguage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.uiLanguage
}

// StoragePath возвращает путь к базе локального хранилища.
// По умолчанию storage.db рядом с конфигом.
func (c *Config) StoragePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.storagePath != "" {
		return c.storagePath
	}
	if c.configPath == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(c.configPath), storageName)
}

// SetStoragePath переопределяет путь к хранилищу без сохранения.
func (c *Config) SetStoragePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storagePath = path
}
