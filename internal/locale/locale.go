package locale

import (
	"os"
	"strings"
)

// Message keys for user-visible strings delivered through the result
// metadata channel.
const (
	MsgInvalidAPIKey   = "invalid-api-key"
	MsgAPIKeyRequired  = "api-key-required"
	MsgNetworkIssue    = "network-issue"
	MsgCopyToClipboard = "copy-to-clipboard"
	MsgTranslateHint   = "translate-hint"
)

type catalog map[string]string

var catalogs = map[string]catalog{
	"en": {
		MsgInvalidAPIKey:   "The provided API key is invalid",
		MsgAPIKeyRequired:  "API key required",
		MsgNetworkIssue:    "Translation failed, check for network issues",
		MsgCopyToClipboard: "Copy to clipboard",
		MsgTranslateHint:   "Translate “%s” with %s",
	},
	"de": {
		MsgInvalidAPIKey:   "Der angegebene API-Schlüssel ist ungültig",
		MsgAPIKeyRequired:  "API-Schlüssel erforderlich",
		MsgNetworkIssue:    "Übersetzung fehlgeschlagen, Netzwerkverbindung prüfen",
		MsgCopyToClipboard: "In die Zwischenablage kopieren",
		MsgTranslateHint:   "„%s“ mit %s übersetzen",
	},
	"es": {
		MsgInvalidAPIKey:   "La clave de API proporcionada no es válida",
		MsgAPIKeyRequired:  "Se requiere una clave de API",
		MsgNetworkIssue:    "Falló la traducción, compruebe la conexión de red",
		MsgCopyToClipboard: "Copiar al portapapeles",
		MsgTranslateHint:   "Traducir «%s» con %s",
	},
	"fr": {
		MsgInvalidAPIKey:   "La clé d'API fournie est invalide",
		MsgAPIKeyRequired:  "Clé d'API requise",
		MsgNetworkIssue:    "Échec de la traduction, vérifiez la connexion réseau",
		MsgCopyToClipboard: "Copier dans le presse-papiers",
		MsgTranslateHint:   "Traduire « %s » avec %s",
	},
}

// Translator renders user-facing messages for one locale.
type Translator struct {
	locale string
}

// New builds a translator for the given locale. Unknown locales fall back
// to English.
func New(locale string) *Translator {
	return &Translator{locale: normalizeLocale(locale)}
}

// FromEnv builds a translator from the process locale environment,
// honoring LC_ALL, then LC_MESSAGES, then LANG.
func FromEnv() *Translator {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return New(value)
		}
	}
	return New("en")
}

// T looks up the message for key. Missing keys resolve through the English
// catalog; a key absent there too is returned verbatim.
func (t *Translator) T(key string) string {
	loc := "en"
	if t != nil && t.locale != "" {
		loc = t.locale
	}
	if msgs, ok := catalogs[loc]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	if msg, ok := catalogs["en"][key]; ok {
		return msg
	}
	return key
}

// Locale returns the resolved locale code.
func (t *Translator) Locale() string {
	if t == nil {
		return "en"
	}
	return t.locale
}

func normalizeLocale(raw string) string {
	// "de_DE.UTF-8" -> "de"
	value := strings.ToLower(strings.TrimSpace(raw))
	if dot := strings.IndexByte(value, '.'); dot >= 0 {
		value = value[:dot]
	}
	if under := strings.IndexAny(value, "_-"); under >= 0 {
		value = value[:under]
	}
	if _, ok := catalogs[value]; !ok {
		return "en"
	}
	return value
}
