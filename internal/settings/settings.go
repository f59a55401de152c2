package settings

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Application-scope keys.
const (
	KeyTranslatorName        = "translator-name"
	KeyLiveTranslation       = "live-translation"
	KeySearchProviderEnabled = "search-provider-enabled"
)

// Backend-scope keys. Every backend scope carries src-langs and dest-langs;
// backends that talk to a configurable instance add instance-url and api-key.
const (
	KeySrcLangs    = "src-langs"
	KeyDestLangs   = "dest-langs"
	KeyInstanceURL = "instance-url"
	KeyAPIKey      = "api-key"
)

// TranslatorKeyPrefix marks application-scope keys that select or shape the
// active translator. Any change to such a key requires a full backend reload.
const TranslatorKeyPrefix = "translator-"

// Change identifies one modified key. Scope is empty for application-scope
// keys and the backend name for backend-scoped keys.
type Change struct {
	Scope string
	Key   string
}

// Store holds configuration values and fans change notifications out to
// subscribers. It replaces ambient global settings: every consumer receives
// the store explicitly and watches an explicit channel.
type Store struct {
	mu     sync.RWMutex
	values map[string]map[string]any
	subs   []chan Change
	logger zerolog.Logger
}

// New builds a store seeded with the built-in defaults.
func New(logger zerolog.Logger) *Store {
	return &Store{
		values: defaultValues(),
		logger: logger,
	}
}

// Subscribe registers a change listener. The returned channel is buffered;
// a subscriber that stops draining loses notifications rather than blocking
// the writer.
func (s *Store) Subscribe() <-chan Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Change, 16)
	s.subs = append(s.subs, ch)
	return ch
}

// Set stores a value under scope/key and notifies subscribers. An empty
// scope addresses application-scope keys.
func (s *Store) Set(scope, key string, value any) {
	scope = normalizeScope(scope)
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}

	s.mu.Lock()
	if s.values == nil {
		s.values = make(map[string]map[string]any)
	}
	scoped, ok := s.values[scope]
	if !ok {
		scoped = make(map[string]any)
		s.values[scope] = scoped
	}
	scoped[key] = value
	subs := make([]chan Change, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	change := Change{Scope: scope, Key: key}
	for _, ch := range subs {
		select {
		case ch <- change:
		default:
			s.logger.Warn().
				Str("scope", scope).
				Str("key", key).
				Msg("settings subscriber is not draining, dropping change")
		}
	}
}

// String returns the string value under scope/key, or "" when unset or of
// another type.
func (s *Store) String(scope, key string) string {
	value, ok := s.lookup(scope, key)
	if !ok {
		return ""
	}
	str, _ := value.(string)
	return str
}

// Bool returns the boolean value under scope/key, defaulting to false.
func (s *Store) Bool(scope, key string) bool {
	value, ok := s.lookup(scope, key)
	if !ok {
		return false
	}
	b, _ := value.(bool)
	return b
}

// Strings returns the ordered string-list value under scope/key.
func (s *Store) Strings(scope, key string) []string {
	value, ok := s.lookup(scope, key)
	if !ok {
		return nil
	}
	switch typed := value.(type) {
	case []string:
		out := make([]string, len(typed))
		copy(out, typed)
		return out
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// Scope returns a view bound to one backend scope.
func (s *Store) Scope(name string) *Scope {
	return &Scope{store: s, name: normalizeScope(name)}
}

func (s *Store) lookup(scope, key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scoped, ok := s.values[normalizeScope(scope)]
	if !ok {
		return nil, false
	}
	value, ok := scoped[strings.TrimSpace(key)]
	return value, ok
}

// Scope is a store view bound to one backend's settings.
type Scope struct {
	store *Store
	name  string
}

func (sc *Scope) Name() string {
	if sc == nil {
		return ""
	}
	return sc.name
}

func (sc *Scope) String(key string) string {
	if sc == nil || sc.store == nil {
		return ""
	}
	return sc.store.String(sc.name, key)
}

func (sc *Scope) Strings(key string) []string {
	if sc == nil || sc.store == nil {
		return nil
	}
	return sc.store.Strings(sc.name, key)
}

func (sc *Scope) Set(key string, value any) {
	if sc == nil || sc.store == nil {
		return
	}
	sc.store.Set(sc.name, key, value)
}

// IsTranslatorKey reports whether an application-scope key shapes the
// active translator selection and therefore requires a full reload.
func IsTranslatorKey(key string) bool {
	return strings.HasPrefix(strings.TrimSpace(key), TranslatorKeyPrefix)
}

func normalizeScope(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func defaultValues() map[string]map[string]any {
	return map[string]map[string]any{
		"": {
			KeyTranslatorName:        "google",
			KeyLiveTranslation:       true,
			KeySearchProviderEnabled: true,
		},
		"google": {
			KeySrcLangs:  []string{"auto"},
			KeyDestLangs: []string{"en", "fr", "de", "es"},
		},
		"libretranslate": {
			KeyInstanceURL: "https://libretranslate.com",
			KeyAPIKey:      "",
			KeySrcLangs:    []string{"auto"},
			KeyDestLangs:   []string{"en", "fr", "de", "es"},
		},
		"lingva": {
			KeyInstanceURL: "https://lingva.ml",
			KeySrcLangs:    []string{"auto"},
			KeyDestLangs:   []string{"en", "fr", "de", "es"},
		},
	}
}
