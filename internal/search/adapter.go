package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/camelCaseNick/dialect/internal/language"
	"github.com/camelCaseNick/dialect/internal/locale"
)

const (
	// How long a listing call waits for an in-flight backend load before
	// falling back to the static hint. A bounded poll replaces transparent
	// re-entry so a stuck load can never recurse.
	loadWaitTimeout  = 2 * time.Second
	loadPollInterval = 50 * time.Millisecond
)

// ResultMeta is one entry of a describe response.
type ResultMeta struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	ClipboardText string `json:"clipboardText,omitempty"`
}

// Adapter implements the four boundary operations of the host shell's
// search protocol in terms of the orchestrator and its cache. It owns the
// result-id encoding.
type Adapter struct {
	orch     *Orchestrator
	launcher Launcher
	messages *locale.Translator
	logger   zerolog.Logger

	loadWait time.Duration
	loadPoll time.Duration
}

func NewAdapter(orch *Orchestrator, launcher Launcher, messages *locale.Translator, logger zerolog.Logger) *Adapter {
	return &Adapter{
		orch:     orch,
		launcher: launcher,
		messages: messages,
		logger:   logger,
		loadWait: loadWaitTimeout,
		loadPoll: loadPollInterval,
	}
}

// ListResults maps a term list onto result ids. Live mode translates and
// returns the result key plus a clipboard affordance on success; static
// mode returns a single non-actionable hint whose id doubles as its
// display text.
func (a *Adapter) ListResults(ctx context.Context, terms []string) []string {
	text := joinTerms(terms)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	state := a.orch.State()
	if !state.Live {
		return []string{a.staticHint(text, state)}
	}

	state = a.waitForLoad(ctx, state)
	if !state.Ready {
		return []string{a.staticHint(text, state)}
	}
	if sameLanguage(state.Source, state.Dest) {
		// Translate is a no-op when source equals destination.
		return []string{a.staticHint(text, state)}
	}

	key := a.orch.Translate(ctx, text)
	ids := []string{key}
	if !IsErrorKey(key) {
		ids = append(ids, ClipboardKey(text))
	}
	return ids
}

// Subsearch discards previous results: the protocol always supplies the
// full current term list, so a subsearch is just a fresh listing.
func (a *Adapter) Subsearch(ctx context.Context, previousIDs, newTerms []string) []string {
	_ = previousIDs
	return a.ListResults(ctx, newTerms)
}

// DescribeResults resolves result ids into display metadata. The two-id
// success shape (translation plus its clipboard pairing) is served once and
// then the whole cache is cleared; ids the cache does not know echo
// themselves as a defensive fallback.
func (a *Adapter) DescribeResults(ids []string) []ResultMeta {
	if len(ids) == 1 {
		id := ids[0]
		if text, ok := a.orch.CachedText(id); ok {
			return []ResultMeta{{ID: id, Name: text}}
		}
		return []ResultMeta{{ID: id, Name: id}}
	}

	if len(ids) == 2 && ids[1] == clipboardTag+ids[0] {
		if translated, ok := a.orch.CachedText(ids[0]); ok {
			state := a.orch.State()
			translationMeta := ResultMeta{ID: ids[0], Name: translated}
			if state.Live {
				translationMeta.Description = fmt.Sprintf(
					"%s - %s",
					language.DisplayName(state.Dest),
					state.DisplayName,
				)
			}
			metas := []ResultMeta{
				translationMeta,
				{
					ID:            ids[1],
					Name:          a.messages.T(locale.MsgCopyToClipboard),
					ClipboardText: translated,
				},
			}
			a.orch.ClearCache()
			return metas
		}
	}

	metas := make([]ResultMeta, 0, len(ids))
	for _, id := range ids {
		metas = append(metas, ResultMeta{ID: id, Name: id})
	}
	return metas
}

// Activate handles a result activation. Clipboard-tagged ids are resolved
// on the host client side and never reach the launch path; everything else
// opens the full application primed with the query.
func (a *Adapter) Activate(ctx context.Context, resultID string, terms []string, timestamp uint32) error {
	if IsClipboardKey(resultID) {
		return nil
	}
	return a.LaunchSearch(ctx, terms, timestamp)
}

// LaunchSearch spawns the full application with the joined terms as the
// initial query.
func (a *Adapter) LaunchSearch(ctx context.Context, terms []string, timestamp uint32) error {
	text := joinTerms(terms)
	if err := a.launcher.Launch(ctx, text, timestamp); err != nil {
		a.logger.Error().Err(err).Msg("launching application failed")
		return err
	}
	return nil
}

// waitForLoad polls the orchestrator while a backend load is in flight,
// bounded by loadWaitTimeout and the caller's context.
func (a *Adapter) waitForLoad(ctx context.Context, state State) State {
	if !state.Ready && !state.Failed {
		deadline := time.Now().Add(a.loadWait)
		for state.Pending() && time.Now().Before(deadline) {
			select {
			case <-ctx.Done():
				return state
			case <-time.After(a.loadPoll):
			}
			state = a.orch.State()
		}
	}
	return state
}

func (a *Adapter) staticHint(text string, state State) string {
	name := state.DisplayName
	if name == "" {
		name = "Dialect"
	}
	return fmt.Sprintf(a.messages.T(locale.MsgTranslateHint), text, name)
}

// Pending reports the load-in-flight window of a state snapshot.
func (s State) Pending() bool {
	return !s.Ready && !s.Failed
}

func sameLanguage(source, dest string) bool {
	if language.IsAuto(source) {
		return false
	}
	return source != "" && source == dest
}

// joinTerms rebuilds the query text exactly as the id encoding expects:
// terms joined by single spaces, nothing trimmed.
func joinTerms(terms []string) string {
	return strings.Join(terms, " ")
}
