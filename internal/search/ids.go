package search

import "strings"

// Reserved result-id prefixes. Ids multiplex three things onto one
// id-addressed space: the plain query text (success), an error marker, and
// a copy-to-clipboard affordance. The tags are concatenated directly in
// front of the query text with no separator; a query that itself starts
// with one of them would be misread, which is accepted as a heuristic
// rather than escaped.
const (
	errorTag     = "translation-error"
	clipboardTag = "copy-to-clipboard"
)

// ErrorKey derives the error result id for a query.
func ErrorKey(text string) string {
	return errorTag + text
}

// ClipboardKey derives the clipboard-affordance result id for a query.
func ClipboardKey(text string) string {
	return clipboardTag + text
}

// IsErrorKey reports whether id carries the error tag.
func IsErrorKey(id string) bool {
	return strings.HasPrefix(id, errorTag)
}

// IsClipboardKey reports whether id carries the clipboard tag.
func IsClipboardKey(id string) bool {
	return strings.HasPrefix(id, clipboardTag)
}
