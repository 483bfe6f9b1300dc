package i18n

import "testing"

func TestLanguagesHaveSameKeys(t *testing.T) {
	ru, en := translations[RU], translations[EN]
	for k := range ru {
		if _, ok := en[k]; !ok {
			t.Errorf("Key %q missing in EN", k)
		}
	}
	for k := range en {
		if _, ok := ru[k]; !ok {
			t.Errorf("Key %q missing in RU", k)
		}
	}
}

func TestTFallsBackToKey(t *testing.T) {
	if got := T("no_such_key"); got != "no_such_key" {
		t.Errorf("Expected key fallback, got %q", got)
	}
}

func TestTf(t *testing.T) {
	prev := GetLanguage()
	defer SetLanguage(prev)

	SetLanguage(EN)
	if got := Tf("tray_target", "de"); got != "Target language: de" {
		t.Errorf("Unexpected %q", got)
	}
}

func TestSetLanguageIgnoresUnknown(t *testing.T) {
	prev := GetLanguage()
	defer SetLanguage(prev)

	SetLanguage(RU)
	if SetLanguage("de") {
		t.Error("Unknown language must be rejected")
	}
	if GetLanguage() != RU {
		t.Errorf("Language changed to %q", GetLanguage())
	}
}
