package recent

import (
	"errors"
	"reflect"
	"testing"

	"tolmach/internal/storage"
)

type fakeView struct {
	hidden  bool
	shown   bool
	labels  []string
	clicks  []func()
	renders int
}

func (v *fakeView) Hide()  { v.hidden = true; v.shown = false }
func (v *fakeView) Show()  { v.shown = true; v.hidden = false; v.renders++ }
func (v *fakeView) Clear() { v.labels = nil; v.clicks = nil }
func (v *fakeView) AddButton(label string, onClick func()) {
	v.labels = append(v.labels, label)
	v.clicks = append(v.clicks, onClick)
}

type fakeSelector struct{ value string }

func (s *fakeSelector) SetValue(code string) { s.value = code }

type brokenStore struct{}

func (brokenStore) Get(string) (string, bool, error) { return "", false, errors.New("disabled") }
func (brokenStore) Set(string, string) error         { return errors.New("full") }

func TestPush(t *testing.T) {
	tests := []struct {
		name string
		list []string
		code string
		want []string
	}{
		{"empty", nil, "de", []string{"de"}},
		{"move to front", []string{"fr", "es", "de"}, "es", []string{"es", "fr", "de"}},
		{"already first", []string{"es", "fr"}, "es", []string{"es", "fr"}},
		{"new code", []string{"fr", "es"}, "it", []string{"it", "fr", "es"}},
		{"truncate", []string{"a", "b", "c", "d", "e"}, "f", []string{"f", "a", "b", "c", "d"}},
		{"existing at full length", []string{"a", "b", "c", "d", "e"}, "e", []string{"e", "a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Push(tt.list, tt.code, MaxEntries)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPushDoesNotMutateInput(t *testing.T) {
	list := []string{"fr", "es", "de"}
	Push(list, "es", MaxEntries)
	if !reflect.DeepEqual(list, []string{"fr", "es", "de"}) {
		t.Errorf("Input mutated: %v", list)
	}
}

func TestRecordSubmissionMovesToFront(t *testing.T) {
	store := storage.NewMemory()
	store.Set(StorageKey, `["fr","es","de"]`)
	tr := New(store)

	tr.RecordSubmission("es")

	if got := tr.Load(); !reflect.DeepEqual(got, []string{"es", "fr", "de"}) {
		t.Errorf("Unexpected list %v", got)
	}
}

func TestRecordSubmissionTruncates(t *testing.T) {
	tr := New(storage.NewMemory())
	for _, c := range []string{"a", "b", "c", "d", "e", "f"} {
		tr.RecordSubmission(c)
	}

	got := tr.Load()
	if len(got) != MaxEntries {
		t.Fatalf("Expected %d entries, got %d", MaxEntries, len(got))
	}
	if !reflect.DeepEqual(got, []string{"f", "e", "d", "c", "b"}) {
		t.Errorf("Unexpected list %v", got)
	}
}

func TestRecordSubmissionIgnoresEmptyCode(t *testing.T) {
	store := storage.NewMemory()
	New(store).RecordSubmission("")
	if _, ok, _ := store.Get(StorageKey); ok {
		t.Error("Empty code must not be stored")
	}
}

func TestLoadToleratesBadValue(t *testing.T) {
	store := storage.NewMemory()
	store.Set(StorageKey, "not json")
	tr := New(store)

	if got := tr.Load(); len(got) != 0 {
		t.Errorf("Expected empty list, got %v", got)
	}

	tr.RecordSubmission("de")
	if got := tr.Load(); !reflect.DeepEqual(got, []string{"de"}) {
		t.Errorf("Expected [de], got %v", got)
	}
}

func TestStorageFailuresAreSilent(t *testing.T) {
	tr := New(brokenStore{})
	tr.RecordSubmission("de")

	v := &fakeView{}
	tr.Render(v, &fakeSelector{})
	if !v.hidden {
		t.Error("Container must be hidden when storage is unavailable")
	}
}

func TestRenderEmptyHidesContainer(t *testing.T) {
	v := &fakeView{}
	New(storage.NewMemory()).Render(v, &fakeSelector{})

	if !v.hidden || v.shown {
		t.Error("Expected hidden container")
	}
	if len(v.labels) != 0 {
		t.Errorf("Expected no buttons, got %v", v.labels)
	}
}

func TestRenderButtonsSetSelector(t *testing.T) {
	store := storage.NewMemory()
	store.Set(StorageKey, `["es","fr"]`)
	tr := New(store)

	v := &fakeView{}
	sel := &fakeSelector{}
	tr.Render(v, sel)

	if !v.shown {
		t.Error("Expected visible container")
	}
	if !reflect.DeepEqual(v.labels, []string{"es", "fr"}) {
		t.Fatalf("Unexpected buttons %v", v.labels)
	}

	v.clicks[1]()
	if sel.value != "fr" {
		t.Errorf("Expected selector fr, got %q", sel.value)
	}
	v.clicks[0]()
	if sel.value != "es" {
		t.Errorf("Expected selector es, got %q", sel.value)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	store := storage.NewMemory()
	store.Set(StorageKey, `["es","fr","de"]`)
	tr := New(store)

	v := &fakeView{}
	tr.Render(v, &fakeSelector{})
	first := append([]string(nil), v.labels...)
	tr.Render(v, &fakeSelector{})

	if !reflect.DeepEqual(first, v.labels) {
		t.Errorf("Render output changed: %v vs %v", first, v.labels)
	}
	if !v.shown {
		t.Error("Expected visible container")
	}
}

func TestRecordSubmissionDoesNotRerender(t *testing.T) {
	store := storage.NewMemory()
	store.Set(StorageKey, `["es"]`)
	tr := New(store)

	v := &fakeView{}
	tr.Render(v, &fakeSelector{})
	tr.RecordSubmission("fr")

	if !reflect.DeepEqual(v.labels, []string{"es"}) {
		t.Errorf("View must keep load-time list, got %v", v.labels)
	}
	if v.renders != 1 {
		t.Errorf("Expected one render, got %d", v.renders)
	}
}

func TestLoadNormalizesStoredValue(t *testing.T) {
	store := storage.NewMemory()
	store.Set(StorageKey, `["fr","fr","","de","es","it","nl","pl"]`)
	tr := New(store)

	want := []string{"fr", "de", "es", "it", "nl"}
	if got := tr.Load(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	v := &fakeView{}
	tr.Render(v, &fakeSelector{})
	if !reflect.DeepEqual(v.labels, want) {
		t.Errorf("Unexpected buttons %v", v.labels)
	}

	tr.RecordSubmission("de")
	if got := tr.Load(); !reflect.DeepEqual(got, []string{"de", "fr", "es", "it", "nl"}) {
		t.Errorf("Unexpected list after submit %v", got)
	}
	raw, _, _ := store.Get(StorageKey)
	if raw != `["de","fr","es","it","nl"]` {
		t.Errorf("Unexpected stored value %s", raw)
	}
}
