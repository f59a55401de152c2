package search

import (
	"fmt"

	"github.com/camelCaseNick/dialect/internal/provider"
	"github.com/camelCaseNick/dialect/internal/settings"
)

// ProviderHandle wraps one active backend instance together with its
// remaining initialization requirements and error state. While neither
// loaded nor loadFailed is set the handle is pending and must not be used
// to build translation requests; the two flags are never both true.
type ProviderHandle struct {
	backendName string
	backend     provider.Backend
	steps       []provider.InitStep

	loaded     bool
	loadFailed bool
	lastErr    error
}

// newProviderHandle constructs the backend for backendName. Backends that
// declare zero init steps come back already loaded; otherwise the caller
// runs the steps and reports the combined outcome through finish.
// Construction failure yields a failed handle, never an error to the
// caller: load failure is a recoverable service state.
func newProviderHandle(backendName string, store *settings.Store) *ProviderHandle {
	h := &ProviderHandle{backendName: backendName}

	backend, err := provider.New(backendName, store)
	if err != nil {
		h.loadFailed = true
		h.lastErr = fmt.Errorf("construct backend %q: %w", backendName, err)
		return h
	}
	h.backend = backend
	h.steps = backend.InitSteps()

	if len(h.steps) == 0 {
		h.loaded = true
	}
	return h
}

// finish records the combined outcome of running the handle's init steps.
// A nil outcome transitions to loaded unless the backend's own error flag
// is set after consuming its responses.
func (h *ProviderHandle) finish(outcome error) {
	if h == nil || h.loaded || h.loadFailed {
		return
	}
	if outcome != nil {
		h.loadFailed = true
		h.lastErr = outcome
		return
	}
	if h.backend != nil && h.backend.Failed() {
		h.loadFailed = true
		h.lastErr = fmt.Errorf("backend %q reported an internal error after initialization", h.backendName)
		return
	}
	h.loaded = true
}

func (h *ProviderHandle) ready() bool {
	return h != nil && h.loaded
}

func (h *ProviderHandle) failed() bool {
	return h != nil && h.loadFailed
}

func (h *ProviderHandle) pending() bool {
	return h != nil && !h.loaded && !h.loadFailed
}

func (h *ProviderHandle) displayName() string {
	if h == nil {
		return ""
	}
	if h.backend != nil {
		return h.backend.DisplayName()
	}
	return provider.DisplayName(h.backendName)
}

// firstDestLanguage returns the backend's default destination language, or
// "" while the handle is not ready.
func (h *ProviderHandle) firstDestLanguage() string {
	if !h.ready() || h.backend == nil {
		return ""
	}
	dests := h.backend.DestLanguages()
	if len(dests) == 0 {
		return ""
	}
	return dests[0]
}

func (h *ProviderHandle) firstSrcLanguage() string {
	if h == nil || h.backend == nil {
		return ""
	}
	srcs := h.backend.SrcLanguages()
	if len(srcs) == 0 {
		return ""
	}
	return srcs[0]
}
