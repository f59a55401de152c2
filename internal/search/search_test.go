package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/camelCaseNick/dialect/internal/locale"
	"github.com/camelCaseNick/dialect/internal/settings"
)

const googleBody = `[[["bonjour","hello",null,null,10]],null,"en"]`

type stubResponse struct {
	body []byte
	err  error
}

type stubTransport struct {
	mu     sync.Mutex
	routes map[string]stubResponse
	calls  []string
}

func newStubTransport() *stubTransport {
	return &stubTransport{routes: make(map[string]stubResponse)}
}

func (t *stubTransport) route(substr string, body string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes[substr] = stubResponse{body: []byte(body)}
}

func (t *stubTransport) fail(substr string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes[substr] = stubResponse{err: err}
}

func (t *stubTransport) Send(_ context.Context, req *http.Request) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	url := req.URL.String()
	t.calls = append(t.calls, url)
	for substr, resp := range t.routes {
		if strings.Contains(url, substr) {
			return resp.body, resp.err
		}
	}
	return nil, fmt.Errorf("no stub route for %s", url)
}

func (t *stubTransport) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

type stubLauncher struct {
	mu    sync.Mutex
	texts []string
}

func (l *stubLauncher) Launch(_ context.Context, text string, _ uint32) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.texts = append(l.texts, text)
	return nil
}

type fixture struct {
	store     *settings.Store
	transport *stubTransport
	orch      *Orchestrator
	adapter   *Adapter
	launcher  *stubLauncher
}

func newFixture(t *testing.T, reload bool) *fixture {
	t.Helper()

	store := settings.New(zerolog.Nop())
	store.Set("google", settings.KeyDestLangs, []string{"fr"})

	transport := newStubTransport()
	transport.route("translate_a/single", googleBody)

	orch := NewOrchestrator(store, transport, locale.New("en"), zerolog.Nop())
	if reload {
		orch.Reload(context.Background())
	}

	launcher := &stubLauncher{}
	adapter := NewAdapter(orch, launcher, locale.New("en"), zerolog.Nop())
	adapter.loadWait = 20 * time.Millisecond
	adapter.loadPoll = 5 * time.Millisecond

	return &fixture{
		store:     store,
		transport: transport,
		orch:      orch,
		adapter:   adapter,
		launcher:  launcher,
	}
}

func TestErrorKeyIsDisjointFromText(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"hello", "a", "translation", "copy"} {
		if ErrorKey(text) == text {
			t.Fatalf("error key must differ from text %q", text)
		}
	}
	if !IsErrorKey(ErrorKey("hello")) || IsErrorKey("hello") {
		t.Fatalf("error key detection is wrong")
	}
	if !IsClipboardKey(ClipboardKey("hello")) || IsClipboardKey("hello") {
		t.Fatalf("clipboard key detection is wrong")
	}
}

func TestListResultsSuccessReturnsTranslationAndClipboardIDs(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	ids := f.adapter.ListResults(context.Background(), []string{"hello"})

	if len(ids) != 2 {
		t.Fatalf("expected two ids, got %v", ids)
	}
	if ids[0] != "hello" {
		t.Fatalf("unexpected result id: %q", ids[0])
	}
	if ids[1] != "copy-to-clipboardhello" {
		t.Fatalf("unexpected clipboard id: %q", ids[1])
	}
}

func TestDescribeSingleCachedID(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.adapter.ListResults(context.Background(), []string{"hello"})

	metas := f.adapter.DescribeResults([]string{"hello"})
	if len(metas) != 1 {
		t.Fatalf("expected one meta, got %v", metas)
	}
	if metas[0].ID != "hello" || metas[0].Name != "bonjour" {
		t.Fatalf("unexpected meta: %+v", metas[0])
	}
	if metas[0].Description != "" {
		t.Fatalf("single-id describe must not carry a description: %+v", metas[0])
	}
}

func TestDescribeClipboardPairingClearsCache(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	ids := f.adapter.ListResults(context.Background(), []string{"hello"})

	metas := f.adapter.DescribeResults(ids)
	if len(metas) != 2 {
		t.Fatalf("expected two metas, got %v", metas)
	}
	if metas[0].Name != "bonjour" {
		t.Fatalf("unexpected translation meta: %+v", metas[0])
	}
	if metas[0].Description != "French - Google Translate" {
		t.Fatalf("unexpected description: %q", metas[0].Description)
	}
	if metas[1].ClipboardText != "bonjour" {
		t.Fatalf("unexpected clipboard payload: %+v", metas[1])
	}
	if metas[1].Name != "Copy to clipboard" {
		t.Fatalf("unexpected clipboard label: %q", metas[1].Name)
	}

	if f.orch.CacheLen() != 0 {
		t.Fatalf("cache must be cleared after the clipboard pairing is served")
	}

	// The pairing is single-read: a repeated describe echoes the ids.
	again := f.adapter.DescribeResults(ids)
	if len(again) != 2 || again[0].Name != ids[0] || again[1].Name != ids[1] {
		t.Fatalf("expected id-echo fallback after eviction, got %v", again)
	}
}

func TestStaticHintWhenLiveDisabled(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.store.Set("", settings.KeyLiveTranslation, false)
	f.orch.OnConfigChanged(context.Background(), settings.KeyLiveTranslation)

	want := "Translate “bonjour monde” with Google Translate"
	first := f.adapter.ListResults(context.Background(), []string{"bonjour", "monde"})
	if len(first) != 1 || first[0] != want {
		t.Fatalf("unexpected static hint: %v", first)
	}

	second := f.adapter.ListResults(context.Background(), []string{"bonjour", "monde"})
	if len(second) != 1 || second[0] != first[0] {
		t.Fatalf("static hint must be stable across calls: %v vs %v", first, second)
	}

	if calls := f.transport.callCount(); calls != 0 {
		t.Fatalf("static mode must not hit the transport, saw %d calls", calls)
	}
}

func TestLiveRequiresBothToggles(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.store.Set("", settings.KeySearchProviderEnabled, false)
	f.orch.OnConfigChanged(context.Background(), settings.KeySearchProviderEnabled)

	if f.orch.State().Live {
		t.Fatalf("live must be the conjunction of both toggles")
	}
}

func TestNetworkFailureStoresLocalizedMessage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.transport.fail("translate_a/single", fmt.Errorf("connection refused"))

	ids := f.adapter.ListResults(context.Background(), []string{"hello"})
	if len(ids) != 1 || ids[0] != "translation-errorhello" {
		t.Fatalf("unexpected ids for network failure: %v", ids)
	}

	metas := f.adapter.DescribeResults(ids)
	if metas[0].Name != "Translation failed, check for network issues" {
		t.Fatalf("unexpected failure message: %+v", metas[0])
	}
}

func TestRetryKeepsOneLiveCacheKeyPerQuery(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.transport.fail("translate_a/single", fmt.Errorf("connection refused"))

	ids := f.adapter.ListResults(context.Background(), []string{"hello"})
	if len(ids) != 1 || ids[0] != "translation-errorhello" {
		t.Fatalf("unexpected ids for failed attempt: %v", ids)
	}

	// The retry succeeds: the stale error entry must be evicted along with
	// storing the translation.
	f.transport.route("translate_a/single", googleBody)
	ids = f.adapter.ListResults(context.Background(), []string{"hello"})
	if len(ids) != 2 || ids[0] != "hello" {
		t.Fatalf("unexpected ids for retried attempt: %v", ids)
	}
	if _, ok := f.orch.CachedText("translation-errorhello"); ok {
		t.Fatalf("stale error entry must not outlive a successful retry")
	}
	if f.orch.CacheLen() != 1 {
		t.Fatalf("expected exactly one live entry, got %d", f.orch.CacheLen())
	}

	// And the other way round: a failure after a success evicts the old
	// translation.
	f.transport.fail("translate_a/single", fmt.Errorf("connection refused"))
	ids = f.adapter.ListResults(context.Background(), []string{"hello"})
	if len(ids) != 1 || ids[0] != "translation-errorhello" {
		t.Fatalf("unexpected ids after renewed failure: %v", ids)
	}
	if _, ok := f.orch.CachedText("hello"); ok {
		t.Fatalf("stale translation must not outlive a failed retry")
	}
	if f.orch.CacheLen() != 1 {
		t.Fatalf("expected exactly one live entry, got %d", f.orch.CacheLen())
	}
}

func TestUnrecognizedFailureLeavesCacheEntryAbsent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.adapter.ListResults(context.Background(), []string{"hello"})
	f.transport.route("translate_a/single", "definitely not json")

	ids := f.adapter.ListResults(context.Background(), []string{"hello"})
	if len(ids) != 1 || ids[0] != "translation-errorhello" {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if _, ok := f.orch.CachedText(ids[0]); ok {
		t.Fatalf("unrecognized failures must not populate the cache")
	}
	if f.orch.CacheLen() != 0 {
		t.Fatalf("an earlier translation must not survive an unrecognized failure")
	}

	metas := f.adapter.DescribeResults(ids)
	if metas[0].Name != ids[0] {
		t.Fatalf("expected id-echo fallback, got %+v", metas[0])
	}
}

func TestInvalidAPIKeySurfacesLocalizedEntry(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.store.Set("", settings.KeyTranslatorName, "libretranslate")
	f.transport.route("frontend/settings", `{"apiKeys": true, "keyRequired": false}`)
	f.transport.route("libretranslate.com/languages", `[{"code":"en"},{"code":"fr"}]`)
	f.transport.route("libretranslate.com/translate", `{"error": "Invalid API key"}`)
	f.orch.Reload(context.Background())

	if state := f.orch.State(); !state.Ready {
		t.Fatalf("expected libretranslate to load, state %+v", state)
	}

	ids := f.adapter.ListResults(context.Background(), []string{"hello"})
	if len(ids) != 1 || ids[0] != "translation-errorhello" {
		t.Fatalf("unexpected ids: %v", ids)
	}

	metas := f.adapter.DescribeResults(ids)
	if metas[0].Name != "The provided API key is invalid" {
		t.Fatalf("unexpected message: %+v", metas[0])
	}
}

func TestReloadFailureResetsDestinationAndFallsBackToHint(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.store.Set("", settings.KeyTranslatorName, "libretranslate")
	f.transport.fail("frontend/settings", fmt.Errorf("connection refused"))
	f.orch.Reload(context.Background())

	state := f.orch.State()
	if !state.Failed || state.Ready {
		t.Fatalf("expected failed load, state %+v", state)
	}
	if state.Dest != "" {
		t.Fatalf("destination must be empty while load has failed, got %q", state.Dest)
	}

	ids := f.adapter.ListResults(context.Background(), []string{"hello"})
	if len(ids) != 1 || !strings.Contains(ids[0], "Translate “hello” with") {
		t.Fatalf("expected static hint fallback, got %v", ids)
	}
	if calls := f.transport.callCount(); calls != 1 {
		t.Fatalf("listing after failed load must not translate, saw %d transport calls", calls)
	}
}

func TestReloadSuccessSetsFirstDestination(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.store.Set("", settings.KeyTranslatorName, "libretranslate")
	f.store.Set("libretranslate", settings.KeyDestLangs, []string{"de", "en"})
	f.transport.route("frontend/settings", `{"apiKeys": false, "keyRequired": false}`)
	f.transport.route("libretranslate.com/languages", `[{"code":"de"},{"code":"en"}]`)
	f.orch.Reload(context.Background())

	state := f.orch.State()
	if !state.Ready || state.Dest != "de" {
		t.Fatalf("expected ready with first configured destination, state %+v", state)
	}
}

func TestDestLangsChangeIsCheapUpdate(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	before := f.transport.callCount()

	f.store.Set("google", settings.KeyDestLangs, []string{"de", "fr"})
	f.orch.OnProviderSettingsChanged(context.Background(), "google", settings.KeyDestLangs)

	state := f.orch.State()
	if state.Dest != "de" {
		t.Fatalf("expected destination to follow the new list head, got %q", state.Dest)
	}
	if f.transport.callCount() != before {
		t.Fatalf("dest-langs update must not touch the transport")
	}
}

func TestOtherBackendSettingTriggersReload(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.adapter.ListResults(context.Background(), []string{"hello"})
	if f.orch.CacheLen() == 0 {
		t.Fatalf("expected a cached translation before the reload")
	}

	f.orch.OnProviderSettingsChanged(context.Background(), "google", settings.KeyAPIKey)
	if f.orch.CacheLen() != 0 {
		t.Fatalf("a backend-setting reload must clear the cache")
	}
	if state := f.orch.State(); !state.Ready {
		t.Fatalf("expected google to reload cleanly, state %+v", state)
	}
}

func TestIgnoredScopeDoesNotReload(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.adapter.ListResults(context.Background(), []string{"hello"})
	before := f.orch.CacheLen()

	f.orch.OnProviderSettingsChanged(context.Background(), "libretranslate", settings.KeyAPIKey)
	if f.orch.CacheLen() != before {
		t.Fatalf("changes in a non-active scope must be ignored")
	}
}

func TestSubsearchDiscardsPreviousResults(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	first := f.adapter.ListResults(context.Background(), []string{"hello"})

	f.transport.route("translate_a/single", `[[["salut","hi",null,null,10]],null,"en"]`)
	ids := f.adapter.Subsearch(context.Background(), first, []string{"hi"})
	if len(ids) != 2 || ids[0] != "hi" {
		t.Fatalf("unexpected subsearch ids: %v", ids)
	}
}

func TestPendingLoadFallsBackToHintAfterBoundedWait(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false) // never reloaded: pending window

	start := time.Now()
	ids := f.adapter.ListResults(context.Background(), []string{"hello"})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("bounded wait took too long: %v", elapsed)
	}
	if len(ids) != 1 || !strings.Contains(ids[0], "Translate “hello” with") {
		t.Fatalf("expected static hint during pending window, got %v", ids)
	}
}

func TestActivateLaunchesApplicationForNonClipboardIDs(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	if err := f.adapter.Activate(context.Background(), "hello", []string{"hello"}, 42); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if len(f.launcher.texts) != 1 || f.launcher.texts[0] != "hello" {
		t.Fatalf("unexpected launches: %v", f.launcher.texts)
	}

	if err := f.adapter.Activate(context.Background(), ClipboardKey("hello"), []string{"hello"}, 43); err != nil {
		t.Fatalf("activate clipboard id: %v", err)
	}
	if len(f.launcher.texts) != 1 {
		t.Fatalf("clipboard ids must not launch the application")
	}
}

func TestWatcherRoutesChanges(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	watcher := NewConfigWatcher(f.orch, f.store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx)

	f.store.Set("", settings.KeyLiveTranslation, false)

	deadline := time.Now().Add(2 * time.Second)
	for f.orch.State().Live {
		if time.Now().After(deadline) {
			t.Fatalf("watcher did not apply the live-translation change")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEmptyTermsYieldNoResults(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	if ids := f.adapter.ListResults(context.Background(), nil); len(ids) != 0 {
		t.Fatalf("expected no ids for empty terms, got %v", ids)
	}
	if ids := f.adapter.ListResults(context.Background(), []string{" ", ""}); len(ids) != 0 {
		t.Fatalf("expected no ids for blank terms, got %v", ids)
	}
}
