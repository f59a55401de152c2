package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/camelCaseNick/dialect/internal/language"
	"github.com/camelCaseNick/dialect/internal/settings"
)

// LibreTranslateBackend talks to a configurable LibreTranslate instance.
// It declares two init steps: the instance's frontend settings (whether an
// API key is accepted or required) and its language list.
type LibreTranslateBackend struct {
	scope *settings.Scope

	keyRequired  bool
	keySupported bool
	supported    map[string]struct{}
	failed       bool
}

func NewLibreTranslateBackend(scope *settings.Scope) *LibreTranslateBackend {
	return &LibreTranslateBackend{scope: scope}
}

func (b *LibreTranslateBackend) Name() string {
	return NameLibreTranslate
}

func (b *LibreTranslateBackend) DisplayName() string {
	return "LibreTranslate"
}

func (b *LibreTranslateBackend) InitSteps() []InitStep {
	return []InitStep{
		{
			Name:    "settings",
			Request: func() (*http.Request, error) { return b.instanceGet("/frontend/settings") },
			Consume: b.consumeSettings,
		},
		{
			Name:    "languages",
			Request: func() (*http.Request, error) { return b.instanceGet("/languages") },
			Consume: b.consumeLanguages,
		},
	}
}

func (b *LibreTranslateBackend) Failed() bool {
	return b != nil && b.failed
}

func (b *LibreTranslateBackend) SrcLanguages() []string {
	return configuredLanguages(b.scope, settings.KeySrcLangs, []string{language.Auto})
}

func (b *LibreTranslateBackend) DestLanguages() []string {
	return configuredLanguages(b.scope, settings.KeyDestLangs, []string{"en"})
}

func (b *LibreTranslateBackend) Settings() *settings.Scope {
	return b.scope
}

// KeyRequired reports whether the instance demands an API key. Meaningful
// after the "settings" init response has been consumed.
func (b *LibreTranslateBackend) KeyRequired() bool {
	return b != nil && b.keyRequired
}

// Supports reports whether the instance's language list includes code.
func (b *LibreTranslateBackend) Supports(code string) bool {
	if b == nil || len(b.supported) == 0 {
		return false
	}
	_, ok := b.supported[language.NormalizeCode(code)]
	return ok
}

func (b *LibreTranslateBackend) BuildTranslationRequest(text, src, dest string) (*http.Request, error) {
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

	payload := libreTranslateRequest{
		Q:      text,
		Source: src,
		Target: dest,
	}
	if key := strings.TrimSpace(b.scope.String(settings.KeyAPIKey)); key != "" {
		payload.APIKey = key
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal translation request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, b.instanceURL()+"/translate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build translation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (b *LibreTranslateBackend) ParseTranslationResponse(body []byte) (Translation, error) {
	var parsed libreTranslateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Translation{}, fmt.Errorf("decode translation response: %w", err)
	}

	if msg := strings.TrimSpace(parsed.Error); msg != "" {
		return Translation{}, b.classifyError(msg)
	}

	translated := strings.TrimSpace(parsed.TranslatedText)
	if translated == "" {
		return Translation{}, fmt.Errorf("translation response was empty")
	}

	return Translation{
		Text:        translated,
		DetectedSrc: language.NormalizeCode(parsed.DetectedLanguage.Language),
	}, nil
}

// classifyError maps instance-reported errors onto the two recoverable
// credential conditions. An instance that does not accept API keys cannot
// genuinely reject one, so its errors stay unclassified.
func (b *LibreTranslateBackend) classifyError(msg string) error {
	lowered := strings.ToLower(msg)
	switch {
	case !b.keySupported || !strings.Contains(lowered, "api key"):
		return fmt.Errorf("translation rejected by instance: %s", msg)
	case strings.Contains(lowered, "invalid api key"):
		return fmt.Errorf("%w: %s", ErrInvalidAPIKey, msg)
	case b.keyRequired && strings.TrimSpace(b.scope.String(settings.KeyAPIKey)) == "":
		return fmt.Errorf("%w: %s", ErrAPIKeyRequired, msg)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidAPIKey, msg)
	}
}

func (b *LibreTranslateBackend) consumeSettings(body []byte) error {
	var parsed libreTranslateFrontendSettings
	if err := json.Unmarshal(body, &parsed); err != nil {
		b.failed = true
		return fmt.Errorf("decode frontend settings: %w", err)
	}
	b.keySupported = parsed.APIKeys
	b.keyRequired = parsed.KeyRequired
	return nil
}

func (b *LibreTranslateBackend) consumeLanguages(body []byte) error {
	var parsed []libreTranslateLanguage
	if err := json.Unmarshal(body, &parsed); err != nil {
		b.failed = true
		return fmt.Errorf("decode languages: %w", err)
	}
	if len(parsed) == 0 {
		b.failed = true
		return fmt.Errorf("instance reported no languages")
	}

	supported := make(map[string]struct{}, len(parsed))
	for _, lang := range parsed {
		if code := language.NormalizeCode(lang.Code); code != "" {
			supported[code] = struct{}{}
		}
	}
	b.supported = supported
	return nil
}

func (b *LibreTranslateBackend) instanceGet(path string) (*http.Request, error) {
	return http.NewRequest(http.MethodGet, b.instanceURL()+path, nil)
}

func (b *LibreTranslateBackend) instanceURL() string {
	instance := strings.TrimRight(strings.TrimSpace(b.scope.String(settings.KeyInstanceURL)), "/")
	if instance == "" {
		instance = "https://libretranslate.com"
	}
	return instance
}

type libreTranslateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	APIKey string `json:"api_key,omitempty"`
}

type libreTranslateResponse struct {
	TranslatedText   string `json:"translatedText"`
	DetectedLanguage struct {
		Language string `json:"language"`
	} `json:"detectedLanguage"`
	Error string `json:"error"`
}

type libreTranslateFrontendSettings struct {
	APIKeys     bool `json:"apiKeys"`
	KeyRequired bool `json:"keyRequired"`
}

type libreTranslateLanguage struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
