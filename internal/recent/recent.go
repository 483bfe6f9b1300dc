// Package recent хранит список недавно выбранных языков перевода.
package recent

import (
	"encoding/json"

	"github.com/charmbracelet/log"

	"tolmach/internal/storage"
)

const (
	// StorageKey - фиксированный ключ списка в хранилище.
	StorageKey = "recentLanguages"
	// MaxEntries - максимальная длина списка.
	MaxEntries = 5
)

// View - контейнер кнопок быстрого выбора.
type View interface {
	Hide()
	Show()
	Clear()
	AddButton(label string, onClick func())
}

// Selector - поле выбора целевого языка.
type Selector interface {
	SetValue(code string)
}

// Push переносит code в начало списка без дубликатов и обрезает до max.
// Исходный срез не изменяется.
func Push(list []string, code string, max int) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, code)
	for _, c := range list {
		if c != code {
			out = append(out, c)
		}
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// Tracker ведёт список последних выбранных языков.
type Tracker struct {
	store storage.Store
	key   string
	max   int
}

// New создаёт Tracker поверх хранилища.
func New(store storage.Store) *Tracker {
	return &Tracker{
		store: store,
		key:   StorageKey,
		max:   MaxEntries,
	}
}

// Load читает сохранённый список. Ошибки хранилища дают пустой список.
// Пустые коды и повторы отбрасываются, длина ограничена max.
func (t *Tracker) Load() []string {
	raw, ok, err := t.store.Get(t.key)
	if err != nil {
		log.Debug("recent: read failed", "err", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		log.Debug("recent: bad stored value", "err", err)
		return nil
	}
	return normalize(list, t.max)
}

func normalize(list []string, max int) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, c := range list {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// Render перерисовывает кнопки быстрого выбора.
// Пустой список скрывает контейнер.
func (t *Tracker) Render(view View, selector Selector) {
	list := t.Load()
	if len(list) == 0 {
		view.Hide()
		return
	}

	view.Clear()
	for _, code := range list {
		code := code
		view.AddButton(code, func() {
			selector.SetValue(code)
		})
	}
	view.Show()
}

// RecordSubmission запоминает язык отправленной формы.
// Контейнер не перерисовывается, новый список виден при следующем запуске.
func (t *Tracker) RecordSubmission(code string) {
	if code == "" {
		return
	}

	list := Push(t.Load(), code, t.max)
	data, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := t.store.Set(t.key, string(data)); err != nil {
		log.Debug("recent: write failed", "err", err)
	}
}
