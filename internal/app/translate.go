package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/camelCaseNick/dialect/internal/cli"
	"github.com/camelCaseNick/dialect/internal/config"
	"github.com/camelCaseNick/dialect/internal/language"
	"github.com/camelCaseNick/dialect/internal/locale"
	"github.com/camelCaseNick/dialect/internal/logging"
	"github.com/camelCaseNick/dialect/internal/provider"
	"github.com/camelCaseNick/dialect/internal/search"
	"github.com/camelCaseNick/dialect/internal/settings"
)

func runTranslate(args []string) int {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	backendName := fs.String("backend", "", "Translation backend (google, libretranslate, lingva)")
	from := fs.String("from", "auto", "Source language code, or auto")
	to := fs.String("to", "", "Destination language code")
	timeout := fs.Duration("timeout", time.Minute, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "translate requires the text to translate")
		return 2
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		fmt.Fprintln(os.Stderr, "translate argument must not be empty")
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	store := settings.New(logger)
	if path := strings.TrimSpace(cfg.SettingsFile); path != "" {
		if err := store.LoadFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "Settings file rejected: %v\n", err)
			return 1
		}
	}

	resolved := provider.ResolveName(store.String("", settings.KeyTranslatorName))
	if name := strings.TrimSpace(*backendName); name != "" {
		resolved = provider.ResolveName(name)
		store.Set("", settings.KeyTranslatorName, resolved)
	}

	srcLang := language.NormalizeCode(*from)
	destLang := language.NormalizeCode(*to)
	if destLang != "" {
		store.Set(resolved, settings.KeyDestLangs, []string{destLang})
	}
	if srcLang != "" {
		store.Set(resolved, settings.KeySrcLangs, []string{srcLang})
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	transport := provider.NewHTTPTransport(cfg.RequestTimeout)
	orch := search.NewOrchestrator(store, transport, locale.FromEnv(), logger)
	orch.Reload(ctx)

	state := orch.State()
	if !state.Ready {
		fmt.Fprintf(os.Stderr, "Backend %s failed to load\n", resolved)
		return 1
	}
	if !language.IsAuto(state.Source) && state.Source == state.Dest {
		fmt.Fprintln(os.Stderr, "Source and destination languages are identical")
		return 2
	}

	key := orch.Translate(ctx, text)
	translated, ok := orch.CachedText(key)
	if search.IsErrorKey(key) {
		if !ok {
			translated = "translation failed"
		}
		fmt.Fprintln(os.Stderr, translated)
		return 1
	}

	fmt.Println(translated)
	return 0
}
