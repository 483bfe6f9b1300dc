// Package tray предоставляет системный трей с меню.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"tolmach/embedded"
	"tolmach/internal/i18n"
	"tolmach/internal/recent"
)

// State представляет состояние приложения для отображения в трее.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateSending
)

// Callbacks содержит обработчики событий меню.
type Callbacks struct {
	OnRecordToggle        func()
	OnPlay                func()
	OnAttach              func()
	OnSelectTarget        func()
	OnSend                func()
	OnNotificationsToggle func() bool
	OnQuit                func()
}

// Tray управляет иконкой в системном трее.
type Tray struct {
	callbacks Callbacks

	mu       sync.Mutex
	state    State
	target   string
	canPlay  bool
	canSend  bool
	notifyOn bool

	status    *systray.MenuItem
	recordBtn *systray.MenuItem
	playBtn   *systray.MenuItem
	attachBtn *systray.MenuItem
	targetBtn *systray.MenuItem
	sendBtn   *systray.MenuItem
	notifyBtn *systray.MenuItem
	quitBtn   *systray.MenuItem

	recent *Recent
}

// New создаёт новый Tray.
func New(callbacks Callbacks, notifications bool) *Tray {
	return &Tray{
		callbacks: callbacks,
		notifyOn:  notifications,
		recent:    &Recent{},
	}
}

// Recent возвращает подменю недавних языков.
func (t *Tray) Recent() *Recent {
	return t.recent
}

// Run запускает системный трей. Блокирующая функция.
func (t *Tray) Run(onReady func()) {
	systray.Run(func() {
		t.onReady()
		if onReady != nil {
			onReady()
		}
	}, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(embedded.IconIdle)
	systray.SetTitle(i18n.T("app_name"))
	systray.SetTooltip(i18n.T("app_tooltip"))

	// Статус
	t.status = systray.AddMenuItem(i18n.T("tray_ready"), "")
	t.status.Disable()

	systray.AddSeparator()

	t.recordBtn = systray.AddMenuItem(i18n.T("tray_record"), i18n.T("tray_record_hint"))
	t.playBtn = systray.AddMenuItem(i18n.T("tray_play"), i18n.T("tray_play_hint"))
	t.attachBtn = systray.AddMenuItem(i18n.T("tray_attach"), i18n.T("tray_attach_hint"))

	systray.AddSeparator()

	// Язык перевода
	t.targetBtn = systray.AddMenuItem(i18n.Tf("tray_target", t.Target()), i18n.T("tray_target_hint"))
	recentMenu := systray.AddMenuItem(i18n.T("tray_recent"), i18n.T("tray_recent_hint"))
	t.recent.attach(recentMenu)

	t.sendBtn = systray.AddMenuItem(i18n.T("tray_send"), i18n.T("tray_send_hint"))

	systray.AddSeparator()

	// Уведомления
	t.notifyBtn = systray.AddMenuItemCheckbox(i18n.T("tray_notifications"), i18n.T("tray_notifications_hint"), t.notifyOn)

	systray.AddSeparator()

	// Выход
	t.quitBtn = systray.AddMenuItem(i18n.T("tray_quit"), i18n.T("tray_quit_hint"))

	t.refresh()

	// Обработка событий меню
	go t.handleMenuEvents()
}

func (t *Tray) handleMenuEvents() {
	for {
		select {
		case <-t.recordBtn.ClickedCh:
			call(t.callbacks.OnRecordToggle)

		case <-t.playBtn.ClickedCh:
			call(t.callbacks.OnPlay)

		case <-t.attachBtn.ClickedCh:
			call(t.callbacks.OnAttach)

		case <-t.targetBtn.ClickedCh:
			call(t.callbacks.OnSelectTarget)

		case <-t.sendBtn.ClickedCh:
			call(t.callbacks.OnSend)

		// Уведомления
		case <-t.notifyBtn.ClickedCh:
			if t.callbacks.OnNotificationsToggle != nil {
				enabled := t.callbacks.OnNotificationsToggle()
				if enabled {
					t.notifyBtn.Check()
				} else {
					t.notifyBtn.Uncheck()
				}
			}

		// Выход
		case <-t.quitBtn.ClickedCh:
			call(t.callbacks.OnQuit)
			systray.Quit()
			return
		}
	}
}

func call(fn func()) {
	if fn != nil {
		go fn()
	}
}

// SetState устанавливает состояние приложения и обновляет иконку.
func (t *Tray) SetState(state State) {
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
	t.refresh()
}

// SetTarget обновляет пункт целевого языка.
func (t *Tray) SetTarget(code string) {
	t.mu.Lock()
	t.target = code
	t.mu.Unlock()
	t.refresh()
}

// Target возвращает отображаемый целевой язык.
func (t *Tray) Target() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.target
}

// SetPlayable включает пункт воспроизведения.
func (t *Tray) SetPlayable(ok bool) {
	t.mu.Lock()
	t.canPlay = ok
	t.mu.Unlock()
	t.refresh()
}

// SetSendable включает пункт отправки.
func (t *Tray) SetSendable(ok bool) {
	t.mu.Lock()
	t.canSend = ok
	t.mu.Unlock()
	t.refresh()
}

func (t *Tray) refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == nil {
		return // Меню ещё не построено
	}

	key := "tray_ready"
	switch t.state {
	case StateIdle:
		systray.SetIcon(embedded.IconIdle)
	case StateRecording:
		systray.SetIcon(embedded.IconRecording)
		key = "tray_recording"
	case StateSending:
		systray.SetIcon(embedded.IconProcessing)
		key = "tray_sending"
	}
	systray.SetTooltip(i18n.T("app_name") + " - " + i18n.T(key))
	t.status.SetTitle(i18n.T(key))

	if t.state == StateRecording {
		t.recordBtn.SetTitle(i18n.T("tray_stop"))
	} else {
		t.recordBtn.SetTitle(i18n.T("tray_record"))
	}

	t.targetBtn.SetTitle(i18n.Tf("tray_target", t.target))

	setEnabled(t.playBtn, t.canPlay && t.state == StateIdle)
	setEnabled(t.sendBtn, t.canSend && t.state == StateIdle)
	setEnabled(t.attachBtn, t.state == StateIdle)
}

func setEnabled(item *systray.MenuItem, ok bool) {
	if ok {
		item.Enable()
	} else {
		item.Disable()
	}
}

func (t *Tray) onExit() {
	// Cleanup при выходе
}

// Recent - подменю кнопок быстрого выбора языка. Реализует recent.View.
// Кнопки копятся до построения меню и переносятся в пункты при attach.
type Recent struct {
	mu      sync.Mutex
	hidden  bool
	buttons []button

	menu  *systray.MenuItem
	slots []*systray.MenuItem
}

type button struct {
	label   string
	onClick func()
}

var _ recent.View = (*Recent)(nil)

// Hide скрывает подменю.
func (r *Recent) Hide() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hidden = true
	r.apply()
}

// Show показывает подменю.
func (r *Recent) Show() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hidden = false
	r.apply()
}

// Clear удаляет все кнопки.
func (r *Recent) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buttons = nil
	r.apply()
}

// AddButton добавляет кнопку. Кнопки сверх recent.MaxEntries игнорируются.
func (r *Recent) AddButton(label string, onClick func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.buttons) >= recent.MaxEntries {
		return
	}
	r.buttons = append(r.buttons, button{label: label, onClick: onClick})
	r.apply()
}

// Labels возвращает подписи текущих кнопок.
func (r *Recent) Labels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.buttons))
	for i, b := range r.buttons {
		out[i] = b.label
	}
	return out
}

// Hidden сообщает, скрыто ли подменю.
func (r *Recent) Hidden() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hidden
}

// click вызывает обработчик кнопки в слоте i.
func (r *Recent) click(i int) {
	r.mu.Lock()
	var fn func()
	if i < len(r.buttons) {
		fn = r.buttons[i].onClick
	}
	r.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// attach создаёт фиксированные слоты подменю. systray не умеет удалять пункты,
// поэтому лишние слоты скрываются.
func (r *Recent) attach(menu *systray.MenuItem) {
	r.mu.Lock()
	r.menu = menu
	for i := 0; i < recent.MaxEntries; i++ {
		slot := menu.AddSubMenuItem("", "")
		r.slots = append(r.slots, slot)

		go func(i int, slot *systray.MenuItem) {
			for range slot.ClickedCh {
				r.click(i)
			}
		}(i, slot)
	}
	r.apply()
	r.mu.Unlock()
}

// apply переносит состояние в пункты меню. Вызывается под r.mu.
func (r *Recent) apply() {
	if r.menu == nil {
		return
	}

	if r.hidden || len(r.buttons) == 0 {
		r.menu.Hide()
	} else {
		r.menu.Show()
	}

	for i, slot := range r.slots {
		if i < len(r.buttons) {
			slot.SetTitle(r.buttons[i].label)
			slot.Show()
		} else {
			slot.Hide()
		}
	}
}
