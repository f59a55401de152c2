package provider

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/camelCaseNick/dialect/internal/language"
	"github.com/camelCaseNick/dialect/internal/settings"
)

const googleEndpoint = "https://translate.googleapis.com/translate_a/single"

// GoogleBackend translates through the public gtx endpoint. It needs no
// initialization and no credentials.
type GoogleBackend struct {
	scope *settings.Scope
}

func NewGoogleBackend(scope *settings.Scope) *GoogleBackend {
	return &GoogleBackend{scope: scope}
}

func (b *GoogleBackend) Name() string {
	return NameGoogle
}

func (b *GoogleBackend) DisplayName() string {
	return "Google Translate"
}

func (b *GoogleBackend) InitSteps() []InitStep {
	return nil
}

func (b *GoogleBackend) Failed() bool {
	return false
}

func (b *GoogleBackend) SrcLanguages() []string {
	return configuredLanguages(b.scope, settings.KeySrcLangs, []string{language.Auto})
}

func (b *GoogleBackend) DestLanguages() []string {
	return configuredLanguages(b.scope, settings.KeyDestLangs, []string{"en"})
}

func (b *GoogleBackend) Settings() *settings.Scope {
	return b.scope
}

func (b *GoogleBackend) BuildTranslationRequest(text, src, dest string) (*http.Request, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}
	src = language.NormalizeCode(src)
	if src == "" {
		src = language.Auto
	}
	dest = language.NormalizeCode(dest)
	if dest == "" {
		return nil, fmt.Errorf("destination language is required")
	}

	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("dt", "t")
	query.Set("sl", src)
	query.Set("tl", dest)
	query.Set("q", text)

	return http.NewRequest(http.MethodGet, googleEndpoint+"?"+query.Encode(), nil)
}

// ParseTranslationResponse decodes the gtx nested-array payload: segment
// translations live at [0][i][0] and the detected source language at [2].
func (b *GoogleBackend) ParseTranslationResponse(body []byte) (Translation, error) {
	var payload []any
	if err := json.Unmarshal(body, &payload); err != nil {
		return Translation{}, fmt.Errorf("decode translation response: %w", err)
	}
	if len(payload) == 0 {
		return Translation{}, fmt.Errorf("translation response is empty")
	}

	segments, ok := payload[0].([]any)
	if !ok {
		return Translation{}, fmt.Errorf("translation response missing segments")
	}

	var builder strings.Builder
	for _, segment := range segments {
		parts, ok := segment.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if piece, ok := parts[0].(string); ok {
			builder.WriteString(piece)
		}
	}

	translated := strings.TrimSpace(builder.String())
	if translated == "" {
		return Translation{}, fmt.Errorf("translation response contained no text")
	}

	detected := ""
	if len(payload) > 2 {
		if code, ok := payload[2].(string); ok {
			detected = language.NormalizeCode(code)
		}
	}

	return Translation{Text: translated, DetectedSrc: detected}, nil
}

func configuredLanguages(scope *settings.Scope, key string, fallback []string) []string {
	langs := scope.Strings(key)
	normalized := make([]string, 0, len(langs))
	for _, code := range langs {
		if code = language.NormalizeCode(code); code != "" {
			normalized = append(normalized, code)
		}
	}
	if len(normalized) == 0 {
		return fallback
	}
	return normalized
}
