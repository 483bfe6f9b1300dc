// Package dialog предоставляет GUI диалоги приложения.
package dialog

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/ncruces/zenity"

	"tolmach/internal/i18n"
)

// ErrCanceled - пользователь закрыл диалог.
var ErrCanceled = zenity.ErrCanceled

// Alerter показывает модальные сообщения об ошибках.
// Реализует capture.Alerter.
type Alerter struct{}

// Alert показывает сообщение. Блокирует до закрытия окна.
func (Alerter) Alert(message string) {
	log.Warn("alert", "message", message)
	if err := zenity.Error(message, zenity.Title(i18n.T("dialog_alert_title"))); err != nil && !errors.Is(err, zenity.ErrCanceled) {
		log.Debug("dialog: alert failed", "err", err)
	}
}

// SelectTarget открывает список языков перевода.
// Возвращает выбранный код или ErrCanceled.
func SelectTarget(languages []string, current string) (string, error) {
	if len(languages) == 0 {
		return "", fmt.Errorf("нет доступных языков")
	}

	opts := []zenity.Option{
		zenity.Title(i18n.T("dialog_target_title")),
	}
	if current != "" {
		opts = append(opts, zenity.DefaultItems(current))
	}

	code, err := zenity.List(i18n.T("dialog_target_prompt"), languages, opts...)
	if err != nil {
		return "", err // Пользователь отменил
	}
	if code == "" {
		return "", ErrCanceled
	}
	return code, nil
}

// SelectFile открывает выбор аудиофайла.
func SelectFile() (string, error) {
	return zenity.SelectFile(
		zenity.Title(i18n.T("dialog_file_title")),
		zenity.FileFilters{
			{Name: "Audio", Patterns: []string{"*.wav", "*.mp3", "*.ogg", "*.oga", "*.opus", "*.flac", "*.m4a", "*.webm"}, CaseFold: true},
			{Name: "*", Patterns: []string{"*"}},
		},
	)
}

// ShowResult показывает текст ответа сервера.
func ShowResult(text string) {
	zenity.Info(text, zenity.Title(i18n.T("dialog_result_title")), zenity.NoIcon)
}

// ShowError показывает сообщение об ошибке.
func ShowError(title, message string) {
	zenity.Error(message, zenity.Title(title))
}
