package settings

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed settings.schema.json
var settingsSchemaJSON string

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

type settingsFile struct {
	TranslatorName        *string                       `json:"translator-name,omitempty"`
	LiveTranslation       *bool                         `json:"live-translation,omitempty"`
	SearchProviderEnabled *bool                         `json:"search-provider-enabled,omitempty"`
	Backends              map[string]backendFileSection `json:"backends,omitempty"`
}

type backendFileSection struct {
	InstanceURL *string  `json:"instance-url,omitempty"`
	APIKey      *string  `json:"api-key,omitempty"`
	SrcLangs    []string `json:"src-langs,omitempty"`
	DestLangs   []string `json:"dest-langs,omitempty"`
}

// LoadFile applies a JSON settings file on top of the store's current
// values. The payload is validated against the embedded schema before any
// key is applied, so a malformed file changes nothing.
func (s *Store) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read settings file: %w", err)
	}
	return s.applyPayload(raw)
}

func (s *Store) applyPayload(raw []byte) error {
	value, err := decodeStrictJSON(raw)
	if err != nil {
		return fmt.Errorf("decode settings JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("load settings schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("settings schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("normalize settings JSON: %w", err)
	}
	var parsed settingsFile
	if err := json.Unmarshal(normalized, &parsed); err != nil {
		return fmt.Errorf("unmarshal settings: %w", err)
	}

	if parsed.TranslatorName != nil {
		s.Set("", KeyTranslatorName, strings.TrimSpace(*parsed.TranslatorName))
	}
	if parsed.LiveTranslation != nil {
		s.Set("", KeyLiveTranslation, *parsed.LiveTranslation)
	}
	if parsed.SearchProviderEnabled != nil {
		s.Set("", KeySearchProviderEnabled, *parsed.SearchProviderEnabled)
	}
	for name, section := range parsed.Backends {
		scope := s.Scope(name)
		if section.InstanceURL != nil {
			scope.Set(KeyInstanceURL, strings.TrimSpace(*section.InstanceURL))
		}
		if section.APIKey != nil {
			scope.Set(KeyAPIKey, strings.TrimSpace(*section.APIKey))
		}
		if len(section.SrcLangs) > 0 {
			scope.Set(KeySrcLangs, section.SrcLangs)
		}
		if len(section.DestLangs) > 0 {
			scope.Set(KeyDestLangs, section.DestLangs)
		}
	}
	return nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("settings.schema.json", strings.NewReader(settingsSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile("settings.schema.json")
	})
	return compiledSchema, compiledSchemaErr
}

func decodeStrictJSON(raw []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if err := decoder.Decode(new(any)); err != io.EOF {
		return nil, fmt.Errorf("trailing data after JSON document")
	}
	return value, nil
}
