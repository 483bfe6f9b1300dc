// Package app содержит основную логику приложения.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"tolmach/internal/artifact"
	"tolmach/internal/audio"
	"tolmach/internal/capture"
	"tolmach/internal/config"
	"tolmach/internal/dialog"
	"tolmach/internal/form"
	"tolmach/internal/hotkey"
	"tolmach/internal/i18n"
	"tolmach/internal/indicator"
	"tolmach/internal/notify"
	"tolmach/internal/recent"
	"tolmach/internal/storage"
	"tolmach/internal/tray"
)

// Options - параметры командной строки, переопределяющие конфиг.
type Options struct {
	ConfigPath string
	ServerURL  string
	DBPath     string
	Hotkey     string
}

// App представляет главное приложение.
type App struct {
	mu      sync.Mutex
	sending bool
	closed  bool

	config    *config.Config
	store     storage.Store
	recent    *recent.Tracker
	form      *form.Form
	mic       *audio.Microphone
	player    *audio.Player
	capture   *capture.Controller
	notifier  *notify.Notifier
	tray      *tray.Tray
	hotkey    *hotkey.Handler
	indicator *indicator.Window

	ctx    context.Context
	cancel context.CancelFunc
}

// New создаёт новое приложение.
func New(opts Options) (*App, error) {
	cfg := config.New(opts.ConfigPath)
	if opts.ServerURL != "" {
		cfg.SetServerURL(opts.ServerURL)
	}
	if opts.DBPath != "" {
		cfg.SetStoragePath(opts.DBPath)
	}
	if opts.Hotkey != "" {
		hk, err := config.ParseHotkey(opts.Hotkey)
		if err != nil {
			return nil, err
		}
		cfg.SetHotkey(hk)
	}

	// Инициализируем язык интерфейса из конфига
	if uiLang := cfg.UILanguage(); uiLang != "" && !i18n.SetLanguage(i18n.Language(uiLang)) {
		log.Warn("unknown ui language", "lang", uiLang)
	}

	if err := audio.Init(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		config:   cfg,
		store:    openStore(cfg.StoragePath()),
		notifier: notify.New(cfg.NotificationsEnabled()),
		mic:      audio.NewMicrophone(),
		player:   audio.NewPlayer(),
		ctx:      ctx,
		cancel:   cancel,
	}
	app.recent = recent.New(app.store)

	app.form = form.New(form.Config{
		URL:     cfg.ServerURL(),
		Target:  cfg.Target(),
		Fields:  cfg.Fields(),
		TempDir: os.TempDir(),
	})
	app.capture = capture.New(app.mic, dialog.Alerter{}, app.form, app.player)
	app.indicator = indicator.New(app.mic.Level)
	app.hotkey = hotkey.New(app.capture.Toggle)

	app.tray = tray.New(tray.Callbacks{
		OnRecordToggle: app.capture.Toggle,
		OnPlay:         app.play,
		OnAttach:       app.attachFile,
		OnSelectTarget: app.selectTarget,
		OnSend:         app.send,
		OnNotificationsToggle: func() bool {
			enabled := app.config.ToggleNotifications()
			app.notifier.SetEnabled(enabled)
			return enabled
		},
		OnQuit: app.Close,
	}, cfg.NotificationsEnabled())

	app.wire()
	return app, nil
}

// openStore открывает sqlite хранилище. Если база недоступна, список недавних
// языков живёт только до выхода.
func openStore(path string) storage.Store {
	if path == "" {
		return storage.NewMemory()
	}
	db, err := storage.OpenSQLite(path)
	if err != nil {
		log.Warn("storage unavailable, using memory", "path", path, "err", err)
		return storage.NewMemory()
	}
	return db
}

func (a *App) wire() {
	a.form.OnSubmit(a.recent.RecordSubmission)
	a.form.OnTargetChange(func(code string) {
		a.config.SetTarget(code)
		a.tray.SetTarget(code)
	})
	a.form.OnAttach(func(f *artifact.File) {
		a.tray.SetSendable(true)
		a.notifier.Attached(f.Name)
	})

	a.player.OnReady(func() {
		a.tray.SetPlayable(a.player.Ready())
	})

	a.capture.OnStateChange(a.onCaptureState)
}

// Run запускает приложение. Блокирует до выхода из трея.
func (a *App) Run() {
	go a.capture.Run(a.ctx)

	a.tray.Run(func() {
		a.tray.SetTarget(a.form.Target())

		// Кнопки недавних языков строятся один раз при запуске
		a.recent.Render(a.tray.Recent(), a.form)

		// Регистрируем горячую клавишу после инициализации трея
		if err := a.hotkey.Register(a.config.Hotkey()); err != nil {
			log.Error("hotkey registration failed", "err", err)
			a.notifier.Error(i18n.T("error_hotkey_register"))
		}

		log.Info("ready", "server", a.config.ServerURL(), "target", a.form.Target())
		a.notifier.Info(i18n.T("notify_ready"))
	})
}

func (a *App) onCaptureState(s capture.State) {
	log.Debug("capture state", "state", s)

	switch s {
	case capture.StateRecording:
		a.indicator.Show()
		a.notifier.Recording()
	case capture.StateStopping:
		a.indicator.SetState(indicator.StateStopping)
	case capture.StateIdle:
		a.indicator.Hide()
	}
	a.refreshTray()
}

func (a *App) refreshTray() {
	a.mu.Lock()
	sending := a.sending
	a.mu.Unlock()

	switch {
	case a.capture.IsRecording():
		a.tray.SetState(tray.StateRecording)
	case sending:
		a.tray.SetState(tray.StateSending)
	default:
		a.tray.SetState(tray.StateIdle)
	}
}

// send отправляет форму. Повторное нажатие во время отправки игнорируется.
func (a *App) send() {
	a.mu.Lock()
	if a.sending || a.closed {
		a.mu.Unlock()
		return
	}
	a.sending = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.sending = false
		a.mu.Unlock()
		a.refreshTray()
	}()

	a.refreshTray()
	a.notifier.Sending(a.form.Target())

	ctx, cancel := context.WithTimeout(a.ctx, form.DefaultTimeout)
	defer cancel()

	res, err := a.form.Submit(ctx)
	switch {
	case errors.Is(err, form.ErrNoFile):
		dialog.ShowError(i18n.T("dialog_alert_title"), i18n.T("error_no_file"))
		return
	case err != nil:
		log.Error("submit failed", "err", err)
		a.notifier.Error(i18n.T("error_send"))
		msg := err.Error()
		if res != nil && res.Text != "" {
			msg = res.Text
		}
		dialog.ShowError(i18n.T("error_send"), msg)
		return
	}

	a.notifier.Done(res.Text)
	dialog.ShowResult(res.Text)
}

func (a *App) play() {
	if err := a.player.Play(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("playback failed", "err", err)
		a.notifier.Error(i18n.T("error_playback") + ": " + err.Error())
	}
}

func (a *App) attachFile() {
	path, err := dialog.SelectFile()
	if err != nil {
		if !errors.Is(err, dialog.ErrCanceled) {
			log.Warn("file dialog failed", "err", err)
		}
		return
	}

	if err := a.form.AttachPath(path); err != nil {
		log.Warn("attach failed", "path", path, "err", err)
		msg := i18n.T("error_attach")
		if errors.Is(err, form.ErrNotAudio) {
			msg = i18n.T("error_not_audio")
		}
		dialog.ShowError(i18n.T("dialog_alert_title"), msg)
	}
}

func (a *App) selectTarget() {
	code, err := dialog.SelectTarget(a.config.Languages(), a.form.Target())
	if err != nil {
		return // Пользователь отменил
	}
	a.form.SetValue(code)
}

// Close освобождает ресурсы приложения.
func (a *App) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()

	a.capture.Stop()
	// Даём микрофону завершить текущий буфер
	time.Sleep(100 * time.Millisecond)
	a.cancel()

	if a.hotkey != nil {
		a.hotkey.Unregister()
	}
	a.indicator.Hide()

	if f := a.form.File(); f != nil {
		f.Remove()
	}

	if c, ok := a.store.(io.Closer); ok {
		c.Close()
	}

	audio.Terminate()
}
