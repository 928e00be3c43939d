// Package translate implements machine translation of catalog entries.
//
// A Translator turns one string into another language. Dummy returns its
// input unchanged; HTTPTranslator talks to OpenAI-compatible chat APIs
// (OpenAI, Ollama) and the Google Gemini generateContent API. The file
// helpers fill empty translations in PO files, several files at a time.
package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minios-linux/transx/config"
	po "github.com/minios-linux/transx/pofile"
)

// Translator translates text from sourceLang to targetLang. sourceLang
// may be "auto".
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

var (
	_ po.Translator = Dummy{}
	_ po.Translator = (*HTTPTranslator)(nil)
)

// Dummy returns the input text unchanged. It is the default provider and
// is useful for seeding catalogs with the source text.
type Dummy struct{}

// Translate returns text.
func (Dummy) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}

// ---------------------------------------------------------------------------
// Provider IDs
// ---------------------------------------------------------------------------

const (
	ProviderDummy  = "dummy"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// Provider holds the configuration for an HTTP translation service.
type Provider struct {
	// ID is the provider identifier (openai, gemini, ollama).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL.
	BaseURL string
	// APIKey is the authentication key (empty for local services).
	APIKey string
	// Model is the model identifier.
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the request timeout.
	Timeout time.Duration
}

// needsKey reports whether requests fail without an API key.
func (p Provider) needsKey() bool {
	return p.ID == ProviderOpenAI || p.ID == ProviderGemini
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderOpenAI: {
			ID:      ProviderOpenAI,
			Name:    "OpenAI",
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: 60 * time.Second,
		},
		ProviderGemini: {
			ID:      ProviderGemini,
			Name:    "Google AI (Gemini)",
			BaseURL: "https://generativelanguage.googleapis.com",
			Model:   "gemini-2.0-flash",
			Timeout: 120 * time.Second,
		},
		ProviderOllama: {
			ID:      ProviderOllama,
			Name:    "Ollama",
			BaseURL: "http://localhost:11434/v1",
			Model:   "llama3",
			Timeout: 120 * time.Second,
		},
	}
}

// New builds the translator described by the configuration section.
// Empty fields keep the provider defaults.
func New(cfg config.Translator, opts ...HTTPOption) (Translator, error) {
	id := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if id == "" || id == ProviderDummy {
		return Dummy{}, nil
	}

	prov, ok := DefaultProviders()[id]
	if !ok {
		return nil, fmt.Errorf("unknown translator provider %q (want one of %s)", cfg.Provider, strings.Join(config.Providers, ", "))
	}
	if cfg.BaseURL != "" {
		prov.BaseURL = cfg.BaseURL
	}
	if cfg.Model != "" {
		prov.Model = cfg.Model
	}
	if cfg.Timeout > 0 {
		prov.Timeout = cfg.Timeout
	}
	prov.APIKey = cfg.APIKey
	prov.Proxy = cfg.Proxy

	if prov.needsKey() && prov.APIKey == "" {
		return nil, fmt.Errorf("%s: API key required (set translator.api_key or TRANSX_API_KEY)", prov.Name)
	}

	all := []HTTPOption{
		WithMaxRetries(cfg.MaxRetries),
		WithRequestsPerSecond(cfg.RequestsPerSecond),
	}
	return NewHTTP(prov, append(all, opts...)...), nil
}

// langOverride replaces the languages its callers pass. Empty fields
// leave the caller's value.
type langOverride struct {
	tr             Translator
	source, target string
}

func (o langOverride) Translate(ctx context.Context, text, source, target string) (string, error) {
	if o.source != "" {
		source = o.source
	}
	if o.target != "" {
		target = o.target
	}
	return o.tr.Translate(ctx, text, source, target)
}
