package provider

import (
	"fmt"
	"strings"

	"github.com/camelCaseNick/dialect/internal/settings"
)

// Known backend names. The set is closed: selection resolves through New,
// never through runtime registration.
const (
	NameGoogle         = "google"
	NameLibreTranslate = "libretranslate"
	NameLingva         = "lingva"

	// DefaultName is used when the configured translator name is blank or
	// unknown.
	DefaultName = NameGoogle
)

// New constructs the backend for name, bound to its settings scope in the
// store. Unknown names are an error; callers that want fallback semantics
// resolve through ResolveName first.
func New(name string, store *settings.Store) (Backend, error) {
	if store == nil {
		return nil, fmt.Errorf("settings store is nil")
	}

	switch normalizeName(name) {
	case NameGoogle:
		return NewGoogleBackend(store.Scope(NameGoogle)), nil
	case NameLibreTranslate:
		return NewLibreTranslateBackend(store.Scope(NameLibreTranslate)), nil
	case NameLingva:
		return NewLingvaBackend(store.Scope(NameLingva)), nil
	default:
		return nil, fmt.Errorf("translation backend %q is not known (available: %s)", name, strings.Join(Names(), ", "))
	}
}

// ResolveName maps a configured translator name onto a known backend name,
// falling back to the default for blank or unknown values.
func ResolveName(name string) string {
	normalized := normalizeName(name)
	for _, known := range Names() {
		if normalized == known {
			return known
		}
	}
	return DefaultName
}

// DisplayName returns the human-readable name for a backend without
// constructing it.
func DisplayName(name string) string {
	switch normalizeName(name) {
	case NameGoogle:
		return "Google Translate"
	case NameLibreTranslate:
		return "LibreTranslate"
	case NameLingva:
		return "Lingva Translate"
	default:
		return strings.TrimSpace(name)
	}
}

// Names lists the known backend names in stable order.
func Names() []string {
	return []string{NameGoogle, NameLibreTranslate, NameLingva}
}

func normalizeName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
