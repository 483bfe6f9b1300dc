// Package i18n provides internationalization support.
package i18n

import (
	"fmt"
	"sync"
)

// Language represents a UI language.
type Language string

const (
	RU Language = "ru"
	EN Language = "en"
)

var (
	mu      sync.RWMutex
	current = RU // Default language
)

// Translations for all supported languages.
var translations = map[Language]map[string]string{
	RU: {
		// App
		"app_name":    "Tolmach",
		"app_tooltip": "Tolmach - голосовой перевод",

		// Tray menu
		"tray_ready":              "Готов к работе",
		"tray_recording":          "Запись...",
		"tray_sending":            "Отправка...",
		"tray_record":             "Начать запись",
		"tray_record_hint":        "Записать голос с микрофона",
		"tray_stop":               "Остановить запись",
		"tray_play":               "Прослушать запись",
		"tray_play_hint":          "Воспроизвести последнюю запись",
		"tray_attach":             "Выбрать файл...",
		"tray_attach_hint":        "Отправить готовый аудиофайл",
		"tray_target":             "Язык перевода: %s",
		"tray_target_hint":        "Выбор целевого языка",
		"tray_recent":             "Недавние языки",
		"tray_recent_hint":        "Быстрый выбор языка",
		"tray_send":               "Перевести",
		"tray_send_hint":          "Отправить запись на сервер перевода",
		"tray_notifications":      "Уведомления",
		"tray_notifications_hint": "Показывать уведомления",
		"tray_quit":               "Выход",
		"tray_quit_hint":          "Закрыть приложение",

		// Notifications
		"notify_recording":      "Запись...",
		"notify_recording_hint": "Говорите в микрофон",
		"notify_attached":       "Запись готова",
		"notify_attached_hint":  "Нажмите «Перевести» для отправки",
		"notify_sending":        "Отправка...",
		"notify_sending_hint":   "Пожалуйста, подождите",
		"notify_done":           "Готово",
		"notify_error":          "Ошибка",
		"notify_ready":          "Tolmach готов к работе",

		// Indicator window
		"indicator_recording": "Запись",
		"indicator_stopping":  "Завершение записи...",
		"indicator_hint":      "Повторное нажатие горячей клавиши остановит запись",

		// Dialogs
		"dialog_alert_title":   "Tolmach",
		"dialog_target_title":  "Язык перевода",
		"dialog_target_prompt": "Выберите язык перевода:",
		"dialog_file_title":    "Выберите аудиофайл",
		"dialog_result_title":  "Результат перевода",

		// Errors
		"error_recording_start": "Не удалось начать запись",
		"error_no_file":         "Нет записи для отправки",
		"error_not_audio":       "Файл не является аудио",
		"error_send":            "Ошибка отправки",
		"error_playback":        "Ошибка воспроизведения",
		"error_attach":          "Не удалось подготовить файл",
		"error_hotkey_register": "Не удалось зарегистрировать горячую клавишу",
	},

	EN: {
		// App
		"app_name":    "Tolmach",
		"app_tooltip": "Tolmach - voice translation",

		// Tray menu
		"tray_ready":              "Ready",
		"tray_recording":          "Recording...",
		"tray_sending":            "Sending...",
		"tray_record":             "Start Recording",
		"tray_record_hint":        "Record voice from the microphone",
		"tray_stop":               "Stop Recording",
		"tray_play":               "Play recording",
		"tray_play_hint":          "Play back the last recording",
		"tray_attach":             "Choose file...",
		"tray_attach_hint":        "Send an existing audio file",
		"tray_target":             "Target language: %s",
		"tray_target_hint":        "Select target language",
		"tray_recent":             "Recent languages",
		"tray_recent_hint":        "Quick language selection",
		"tray_send":               "Translate",
		"tray_send_hint":          "Upload the recording to the translation server",
		"tray_notifications":      "Notifications",
		"tray_notifications_hint": "Show notifications",
		"tray_quit":               "Quit",
		"tray_quit_hint":          "Close application",

		// Notifications
		"notify_recording":      "Recording...",
		"notify_recording_hint": "Speak into the microphone",
		"notify_attached":       "Recording ready",
		"notify_attached_hint":  "Choose Translate to upload it",
		"notify_sending":        "Sending...",
		"notify_sending_hint":   "Please wait",
		"notify_done":           "Done",
		"notify_error":          "Error",
		"notify_ready":          "Tolmach is ready",

		// Indicator window
		"indicator_recording": "Recording",
		"indicator_stopping":  "Finishing recording...",
		"indicator_hint":      "Press the hotkey again to stop",

		// Dialogs
		"dialog_alert_title":   "Tolmach",
		"dialog_target_title":  "Target language",
		"dialog_target_prompt": "Select target language:",
		"dialog_file_title":    "Choose an audio file",
		"dialog_result_title":  "Translation result",

		// Errors
		"error_recording_start": "Could not start recording",
		"error_no_file":         "Nothing to send",
		"error_not_audio":       "File is not audio",
		"error_send":            "Upload failed",
		"error_playback":        "Playback error",
		"error_attach":          "Could not prepare the file",
		"error_hotkey_register": "Could not register hotkey",
	},
}

// T returns the translation for the given key.
func T(key string) string {
	mu.RLock()
	defer mu.RUnlock()

	if strings, ok := translations[current]; ok {
		if s, ok := strings[key]; ok {
			return s
		}
	}
	// Fallback to key itself
	return key
}

// Tf formats the translation for the given key.
func Tf(key string, args ...any) string {
	return fmt.Sprintf(T(key), args...)
}

// SetLanguage sets the current UI language. Unknown languages are ignored.
func SetLanguage(lang Language) bool {
	if _, ok := translations[lang]; !ok {
		return false
	}
	mu.Lock()
	defer mu.Unlock()
	current = lang
	return true
}

// GetLanguage returns the current UI language.
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return current
}
