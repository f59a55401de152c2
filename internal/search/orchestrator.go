package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/camelCaseNick/dialect/internal/langdetect"
	"github.com/camelCaseNick/dialect/internal/language"
	"github.com/camelCaseNick/dialect/internal/locale"
	"github.com/camelCaseNick/dialect/internal/provider"
	"github.com/camelCaseNick/dialect/internal/settings"
)

// LanguagePair is the orchestrator's current source/destination selection.
// Dest is empty only while the provider handle is pending or failed.
type LanguagePair struct {
	Source string
	Dest   string
}

// State is a consistent snapshot of the orchestrator for the adapter.
type State struct {
	Live        bool
	Ready       bool
	Failed      bool
	Source      string
	Dest        string
	BackendName string
	DisplayName string
}

// Orchestrator is the translation state machine. It owns the provider
// handle, the language pair, and the result cache; the single mutex keeps
// reloads and translations from interleaving, so a reload acts as a
// barrier: translations either see the old handle or the fully published
// new one.
type Orchestrator struct {
	store     *settings.Store
	transport provider.Transport
	messages  *locale.Translator
	logger    zerolog.Logger

	mu           sync.Mutex
	liveEnabled  bool
	handle       *ProviderHandle
	pair         LanguagePair
	cache        *ResultCache
	watchedScope string
}

func NewOrchestrator(
	store *settings.Store,
	transport provider.Transport,
	messages *locale.Translator,
	logger zerolog.Logger,
) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		transport: transport,
		messages:  messages,
		logger:    logger,
		cache:     newResultCache(),
	}
	o.refreshLiveLocked()
	return o
}

// Reload rebuilds the provider handle for the currently configured backend,
// running its initialization protocol through the transport. The new handle
// is built first and published atomically; the cache is cleared because old
// entries' interpretive context (provider name, languages) no longer holds.
func (o *Orchestrator) Reload(ctx context.Context) {
	name := provider.ResolveName(o.store.String("", settings.KeyTranslatorName))
	o.logger.Info().Str("backend", name).Msg("reloading translation backend")

	handle := newProviderHandle(name, o.store)
	if handle.pending() {
		handle.finish(o.runInitSteps(ctx, handle))
	}

	o.mu.Lock()
	o.handle = handle
	o.watchedScope = ""
	if handle.ready() {
		o.watchedScope = name
	}
	source := handle.firstSrcLanguage()
	if source == "" {
		source = language.Auto
	}
	o.pair = LanguagePair{
		Source: source,
		Dest:   handle.firstDestLanguage(),
	}
	o.cache.clear()
	o.refreshLiveLocked()
	o.mu.Unlock()

	if handle.failed() {
		o.logger.Error().
			Err(handle.lastErr).
			Str("backend", name).
			Msg("translation backend failed to load")
		return
	}
	o.logger.Info().
		Str("backend", name).
		Str("dest", handle.firstDestLanguage()).
		Msg("translation backend loaded")
}

func (o *Orchestrator) runInitSteps(ctx context.Context, handle *ProviderHandle) error {
	for _, step := range handle.steps {
		req, err := step.Request()
		if err != nil {
			return fmt.Errorf("build %s init request: %w", step.Name, err)
		}
		body, err := o.transport.Send(ctx, req)
		if err != nil {
			return fmt.Errorf("send %s init request: %w", step.Name, err)
		}
		if err := step.Consume(body); err != nil {
			return fmt.Errorf("consume %s init response: %w", step.Name, err)
		}
	}
	return nil
}

// OnConfigChanged reacts to an application-scope settings change. A
// translator-scoped key triggers a full reload; the live-translation and
// search-provider toggles recompute the effective live flag. The two
// reactions are independent.
func (o *Orchestrator) OnConfigChanged(ctx context.Context, key string) {
	if settings.IsTranslatorKey(key) {
		o.Reload(ctx)
	}
	switch key {
	case settings.KeyLiveTranslation, settings.KeySearchProviderEnabled:
		o.mu.Lock()
		o.refreshLiveLocked()
		o.mu.Unlock()
	}
}

// OnProviderSettingsChanged reacts to a change in the active backend's
// settings scope. The destination-language list is a cheap pointer update;
// any other backend key (credentials, instance URL) may shape internal
// backend state and forces a reconstruction. Scopes other than the one
// subscribed on the last successful reload are ignored.
func (o *Orchestrator) OnProviderSettingsChanged(ctx context.Context, scope, key string) {
	o.mu.Lock()
	watched := o.watchedScope
	o.mu.Unlock()
	if watched == "" || !strings.EqualFold(scope, watched) {
		return
	}

	if key == settings.KeyDestLangs {
		o.mu.Lock()
		if o.handle.ready() {
			o.pair.Dest = o.handle.firstDestLanguage()
			o.cache.clear()
		}
		o.mu.Unlock()
		o.logger.Debug().Str("dest", o.State().Dest).Msg("destination language updated")
		return
	}

	o.Reload(ctx)
}

// Translate runs one translation exchange for text and returns the result
// key under which the outcome is addressable. Callers must have verified
// that text is non-empty and that source differs from destination.
//
// Every failure is folded into the error key for the text. The network
// branch and the two credential branches also store a displayable message;
// an unrecognized parse failure deliberately leaves the cache entry absent,
// so the describe layer falls back to echoing the id.
func (o *Orchestrator) Translate(ctx context.Context, text string) string {
	o.mu.Lock()
	defer o.mu.Unlock()

	errKey := ErrorKey(text)
	if !o.handle.ready() {
		o.logger.Warn().Msg("translate called while backend is not ready")
		return errKey
	}
	backend := o.handle.backend

	req, err := backend.BuildTranslationRequest(text, o.pair.Source, o.pair.Dest)
	if err != nil {
		o.logger.Error().Err(err).Msg("building translation request failed")
		o.cache.delete(text)
		return errKey
	}

	body, err := o.transport.Send(ctx, req)
	if err != nil {
		o.logger.Warn().Err(err).Msg("translation transport failed")
		o.cache.delete(text)
		o.cache.put(errKey, o.messages.T(locale.MsgNetworkIssue))
		return errKey
	}

	// A query owns exactly one live cache key at a time: storing under one
	// form evicts the other, so a retry never leaves a stale counterpart.
	translation, err := backend.ParseTranslationResponse(body)
	switch {
	case err == nil:
		detected := translation.DetectedSrc
		if detected == "" && language.IsAuto(o.pair.Source) {
			detected = langdetect.DetectSource(text)
		}
		o.logger.Debug().
			Str("detected_src", detected).
			Str("dest", o.pair.Dest).
			Msg("translation succeeded")
		o.cache.delete(errKey)
		o.cache.put(text, translation.Text)
		return text
	case errors.Is(err, provider.ErrInvalidAPIKey):
		o.cache.delete(text)
		o.cache.put(errKey, o.messages.T(locale.MsgInvalidAPIKey))
		return errKey
	case errors.Is(err, provider.ErrAPIKeyRequired):
		o.cache.delete(text)
		o.cache.put(errKey, o.messages.T(locale.MsgAPIKeyRequired))
		return errKey
	default:
		o.logger.Error().Err(err).Msg("translation response processing failed")
		o.cache.delete(text)
		return errKey
	}
}

// State returns a consistent snapshot for the adapter.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := State{
		Live:   o.liveEnabled,
		Source: o.pair.Source,
		Dest:   o.pair.Dest,
	}
	if o.handle != nil {
		s.Ready = o.handle.ready()
		s.Failed = o.handle.failed()
		s.BackendName = o.handle.backendName
		s.DisplayName = o.handle.displayName()
	}
	return s
}

// CachedText reads a result id from the cache.
func (o *Orchestrator) CachedText(id string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cache.get(id)
}

// ClearCache drops every cached result. The describe path calls this after
// serving the clipboard pairing: results are single-read.
func (o *Orchestrator) ClearCache() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cache.clear()
}

// CacheLen reports the number of live cache entries.
func (o *Orchestrator) CacheLen() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cache.len()
}

// liveEnabled is the conjunction of the live-translation and
// search-provider toggles.
func (o *Orchestrator) refreshLiveLocked() {
	o.liveEnabled = o.store.Bool("", settings.KeyLiveTranslation) &&
		o.store.Bool("", settings.KeySearchProviderEnabled)
}
