package i18n

import (
	"testing"
	"testing/fstest"
)

func TestPrinterTranslates(t *testing.T) {
	cases := []struct {
		locale string
		want   string
	}{
		{"en", "Starting combat: Alice vs Bob..."},
		{"es", "Iniciando combate: Alice vs Bob..."},
		{"fr", "Starting combat: Alice vs Bob..."},
	}
	for _, tc := range cases {
		t.Run(tc.locale, func(t *testing.T) {
			got := Printer(tc.locale).Sprintf("combat.starting", "Alice", "Bob")
			if got != tc.want {
				t.Errorf("Sprintf() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	base := registered[BaseLocale]
	for _, locale := range Locales() {
		for key := range base {
			if _, ok := Lookup(locale, key); !ok {
				t.Errorf("locale %s is missing %s", locale, key)
			}
		}
	}
}

func TestRegisterRejectsMissingLocale(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/xx.yaml": {Data: []byte("messages:\n  a: b\n")},
	}
	if _, err := register(fsys); err == nil {
		t.Fatal("expected error for catalog without locale")
	}
}
