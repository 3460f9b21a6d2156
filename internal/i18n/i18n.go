// Package i18n registers the operator-facing message catalogs.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the canonical source locale.
const BaseLocale = "en"

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

//go:embed locales/*.yaml
var localesFS embed.FS

var registered = mustRegister()

// Locales lists the registered locales.
func Locales() []string {
	out := make([]string, 0, len(registered))
	for locale := range registered {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Printer returns a printer for locale, falling back to BaseLocale when the
// locale has no catalog.
func Printer(locale string) *message.Printer {
	if _, ok := registered[locale]; !ok {
		locale = BaseLocale
	}
	return message.NewPrinter(language.Make(locale))
}

// Lookup returns the raw message for key in locale, if any.
func Lookup(locale, key string) (string, bool) {
	msgs, ok := registered[locale]
	if !ok {
		return "", false
	}
	msg, ok := msgs[key]
	return msg, ok
}

func mustRegister() map[string]map[string]string {
	out, err := register(localesFS)
	if err != nil {
		panic(err)
	}
	return out
}

func register(fsys fs.FS) (map[string]map[string]string, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	out := map[string]map[string]string{}
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
		if file.Locale == "" {
			return nil, fmt.Errorf("catalog %s: missing locale", path)
		}
		tag := language.Make(file.Locale)
		for key, msg := range file.Messages {
			if err := message.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("catalog %s: set %s: %w", path, key, err)
			}
		}
		out[file.Locale] = file.Messages
	}
	if _, ok := out[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s has no catalog", BaseLocale)
	}
	return out, nil
}
