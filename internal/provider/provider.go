// Package provider defines the capability contract every translation
// backend honors, plus the closed set of concrete backends the service can
// load. Backends never talk to the network themselves: they build
// transport-ready requests and consume raw response bodies, so the caller
// owns every exchange.
package provider

import (
	"errors"
	"net/http"

	"github.com/camelCaseNick/dialect/internal/settings"
)

// Distinguished recoverable outcomes of parsing a translation response.
// Anything else returned from ParseTranslationResponse is unrecoverable.
var (
	ErrInvalidAPIKey  = errors.New("invalid api key")
	ErrAPIKeyRequired = errors.New("api key required")
)

// Translation is the parsed result of one translation exchange.
type Translation struct {
	Text        string
	DetectedSrc string
}

// InitStep is one named asynchronous initialization requirement of a
// backend. The caller sends the built request through the transport and
// feeds the raw response back through Consume.
type InitStep struct {
	Name    string
	Request func() (*http.Request, error)
	Consume func(body []byte) error
}

// Backend is the fixed capability contract of a translation backend.
type Backend interface {
	// Name is the stable machine identifier used for selection and scoping.
	Name() string
	// DisplayName is shown to the user next to results.
	DisplayName() string
	// InitSteps lists the ordered initialization requirements. An empty
	// list means the backend is usable immediately after construction.
	InitSteps() []InitStep
	// Failed reports the backend's internal error flag. It is meaningful
	// after all init step responses have been consumed.
	Failed() bool
	// SrcLanguages lists supported source codes; may include "auto".
	SrcLanguages() []string
	// DestLanguages lists configured destination codes, first entry is the
	// default.
	DestLanguages() []string
	// Settings is the backend's observable settings scope.
	Settings() *settings.Scope
	// BuildTranslationRequest produces a transport-ready request for
	// translating text from src (or "auto") into dest.
	BuildTranslationRequest(text, src, dest string) (*http.Request, error)
	// ParseTranslationResponse extracts the translation from a raw response
	// body. It returns ErrInvalidAPIKey or ErrAPIKeyRequired for the two
	// recoverable credential conditions.
	ParseTranslationResponse(body []byte) (Translation, error)
}
