// Package notify предоставляет системные уведомления.
package notify

import (
	"sync/atomic"

	"github.com/gen2brain/beeep"

	"tolmach/internal/i18n"
)

const (
	appName = "Tolmach"
	maxText = 100
)

// send подменяется в тестах.
var send = beeep.Notify

// Notifier отправляет системные уведомления.
type Notifier struct {
	enabled atomic.Bool
}

// New создаёт новый Notifier.
func New(enabled bool) *Notifier {
	n := &Notifier{}
	n.enabled.Store(enabled)
	return n
}

// SetEnabled включает/выключает уведомления.
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled.Store(enabled)
}

// Recording показывает уведомление о начале записи.
func (n *Notifier) Recording() {
	n.notify(i18n.T("notify_recording"), i18n.T("notify_recording_hint"))
}

// Attached сообщает, что файл записи прикреплён к форме.
func (n *Notifier) Attached(name string) {
	n.notify(i18n.T("notify_attached"), name+". "+i18n.T("notify_attached_hint"))
}

// Sending показывает уведомление об отправке формы.
func (n *Notifier) Sending(target string) {
	n.notify(i18n.T("notify_sending"), target+": "+i18n.T("notify_sending_hint"))
}

// Done показывает начало ответа сервера.
func (n *Notifier) Done(text string) {
	n.notify(i18n.T("notify_done"), truncate(text))
}

// Error показывает уведомление об ошибке.
func (n *Notifier) Error(msg string) {
	n.notify(i18n.T("notify_error"), msg)
}

// Info показывает информационное уведомление.
func (n *Notifier) Info(msg string) {
	n.notify("", truncate(msg))
}

func (n *Notifier) notify(title, message string) {
	if !n.enabled.Load() {
		return
	}
	// Игнорируем ошибки уведомлений - они не критичны
	if title != "" {
		_ = send(appName+": "+title, message, "")
	} else {
		_ = send(appName, message, "")
	}
}

func truncate(text string) string {
	r := []rune(text)
	if len(r) > maxText {
		return string(r[:maxText]) + "..."
	}
	return text
}
