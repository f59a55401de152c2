package language

import (
	"sort"
	"strings"
)

var displayNames = map[string]string{
	"ar": "Arabic",
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"id": "Indonesian",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"nl": "Dutch",
	"pl": "Polish",
	"pt": "Portuguese",
	"ru": "Russian",
	"sv": "Swedish",
	"th": "Thai",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"vi": "Vietnamese",
	"zh": "Chinese",
}

// DisplayName returns a human-readable name for a language code.
// Unknown codes fall back to the uppercased code itself.
func DisplayName(code string) string {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return ""
	}
	if normalized == Auto {
		return "Auto"
	}
	if name, ok := displayNames[normalized]; ok {
		return name
	}
	return strings.ToUpper(normalized)
}

// KnownCodes lists the language codes with a curated display name.
func KnownCodes() []string {
	codes := make([]string, 0, len(displayNames))
	for code := range displayNames {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
