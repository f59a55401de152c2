package search

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/camelCaseNick/dialect/internal/settings"
)

// ConfigWatcher routes settings-change notifications to the orchestrator:
// application-scope keys through OnConfigChanged, backend-scope keys
// through OnProviderSettingsChanged. Changes are handled in delivery order.
type ConfigWatcher struct {
	orch    *Orchestrator
	logger  zerolog.Logger
	changes <-chan settings.Change
}

// NewConfigWatcher subscribes to the store immediately, so no change
// published after construction is lost even if Run starts later.
func NewConfigWatcher(orch *Orchestrator, store *settings.Store, logger zerolog.Logger) *ConfigWatcher {
	return &ConfigWatcher{
		orch:    orch,
		logger:  logger,
		changes: store.Subscribe(),
	}
}

// Run dispatches change notifications until the context ends.
func (w *ConfigWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case change := <-w.changes:
			w.dispatch(ctx, change)
		}
	}
}

func (w *ConfigWatcher) dispatch(ctx context.Context, change settings.Change) {
	w.logger.Debug().
		Str("scope", change.Scope).
		Str("key", change.Key).
		Msg("settings change")

	if change.Scope == "" {
		w.orch.OnConfigChanged(ctx, change.Key)
		return
	}
	w.orch.OnProviderSettingsChanged(ctx, change.Scope, change.Key)
}
