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

// LingvaBackend talks to a configurable Lingva instance. One init step
// fetches the instance's language list; no credentials are involved.
type LingvaBackend struct {
	scope *settings.Scope

	supported map[string]struct{}
	failed    bool
}

func NewLingvaBackend(scope *settings.Scope) *LingvaBackend {
	return &LingvaBackend{scope: scope}
}

func (b *LingvaBackend) Name() string {
	return NameLingva
}

func (b *LingvaBackend) DisplayName() string {
	return "Lingva Translate"
}

func (b *LingvaBackend) InitSteps() []InitStep {
	return []InitStep{
		{
			Name: "languages",
			Request: func() (*http.Request, error) {
				return http.NewRequest(http.MethodGet, b.instanceURL()+"/api/v1/languages", nil)
			},
			Consume: b.consumeLanguages,
		},
	}
}

func (b *LingvaBackend) Failed() bool {
	return b != nil && b.failed
}

func (b *LingvaBackend) SrcLanguages() []string {
	return configuredLanguages(b.scope, settings.KeySrcLangs, []string{language.Auto})
}

func (b *LingvaBackend) DestLanguages() []string {
	return configuredLanguages(b.scope, settings.KeyDestLangs, []string{"en"})
}

func (b *LingvaBackend) Settings() *settings.Scope {
	return b.scope
}

func (b *LingvaBackend) BuildTranslationRequest(text, src, dest string) (*http.Request, error) {
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

	endpoint := fmt.Sprintf(
		"%s/api/v1/%s/%s/%s",
		b.instanceURL(),
		url.PathEscape(src),
		url.PathEscape(dest),
		url.PathEscape(text),
	)
	return http.NewRequest(http.MethodGet, endpoint, nil)
}

func (b *LingvaBackend) ParseTranslationResponse(body []byte) (Translation, error) {
	var parsed lingvaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Translation{}, fmt.Errorf("decode translation response: %w", err)
	}
	if msg := strings.TrimSpace(parsed.Error); msg != "" {
		return Translation{}, fmt.Errorf("translation rejected by instance: %s", msg)
	}

	translated := strings.TrimSpace(parsed.Translation)
	if translated == "" {
		return Translation{}, fmt.Errorf("translation response was empty")
	}

	return Translation{
		Text:        translated,
		DetectedSrc: language.NormalizeCode(parsed.Info.DetectedSource),
	}, nil
}

func (b *LingvaBackend) consumeLanguages(body []byte) error {
	var parsed lingvaLanguagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		b.failed = true
		return fmt.Errorf("decode languages: %w", err)
	}
	if len(parsed.Languages) == 0 {
		b.failed = true
		return fmt.Errorf("instance reported no languages")
	}

	supported := make(map[string]struct{}, len(parsed.Languages))
	for _, lang := range parsed.Languages {
		if code := language.NormalizeCode(lang.Code); code != "" {
			supported[code] = struct{}{}
		}
	}
	b.supported = supported
	return nil
}

func (b *LingvaBackend) instanceURL() string {
	instance := strings.TrimRight(strings.TrimSpace(b.scope.String(settings.KeyInstanceURL)), "/")
	if instance == "" {
		instance = "https://lingva.ml"
	}
	return instance
}

type lingvaResponse struct {
	Translation string `json:"translation"`
	Info        struct {
		DetectedSource string `json:"detectedSource"`
	} `json:"info"`
	Error string `json:"error"`
}

type lingvaLanguagesResponse struct {
	Languages []struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"languages"`
}
