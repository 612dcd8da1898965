// Package translation loads the message catalogs and substitutes
// %placeholder% parameters into translated strings.
package translation

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/messages.*.yaml
var catalogFS embed.FS

// FallbackLocale is used when a key is missing from the requested locale.
const FallbackLocale = "en"

// Translator resolves message keys for one locale. It is safe for
// concurrent use; catalogs are read-only after New returns.
type Translator struct {
	locale   string
	catalogs map[string]map[string]string
}

// New loads the embedded catalogs and selects locale. An unknown locale is
// an error so misconfiguration shows up at start-up.
func New(locale string) (*Translator, error) {
	catalogs, err := loadCatalogs(catalogFS)
	if err != nil {
		return nil, err
	}
	locale = normalizeLocale(locale)
	if locale == "" {
		locale = FallbackLocale
	}
	if _, ok := catalogs[locale]; !ok {
		return nil, fmt.Errorf("no message catalog for locale %q", locale)
	}
	return &Translator{locale: locale, catalogs: catalogs}, nil
}

// Locale returns the active locale.
func (t *Translator) Locale() string { return t.locale }

// Locales returns the locales with a catalog, sorted.
func (t *Translator) Locales() []string {
	locales := make([]string, 0, len(t.catalogs))
	for l := range t.catalogs {
		locales = append(locales, l)
	}
	sort.Strings(locales)
	return locales
}

// WithLocale returns a translator sharing the catalogs but using locale.
// Unknown locales keep the current one.
func (t *Translator) WithLocale(locale string) *Translator {
	locale = normalizeLocale(locale)
	if _, ok := t.catalogs[locale]; !ok {
		return t
	}
	return &Translator{locale: locale, catalogs: t.catalogs}
}

// Trans returns the message for key with params substituted. Params keys
// carry their delimiters, e.g. "%user_email%". A missing key is returned as is.
func (t *Translator) Trans(key string, params map[string]string) string {
	msg, ok := t.catalogs[t.locale][key]
	if !ok {
		msg, ok = t.catalogs[FallbackLocale][key]
	}
	if !ok {
		msg = key
	}
	if len(params) == 0 {
		return msg
	}

	// Sorted for a deterministic replacer when placeholders overlap.
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(params)*2)
	for _, k := range keys {
		pairs = append(pairs, k, params[k])
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

func loadCatalogs(fsys fs.FS) (map[string]map[string]string, error) {
	files, err := fs.Glob(fsys, "catalog/messages.*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	catalogs := make(map[string]map[string]string, len(files))
	for _, file := range files {
		locale := strings.TrimSuffix(strings.TrimPrefix(path.Base(file), "messages."), ".yaml")
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", file, err)
		}
		messages := make(map[string]string)
		if err := yaml.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", file, err)
		}
		catalogs[locale] = messages
	}
	return catalogs, nil
}

// normalizeLocale accepts "fr_FR", "fr-FR" or "fr" and returns the language part.
func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "_-"); i > 0 {
		locale = locale[:i]
	}
	return locale
}
