// Package i18n is the runtime side of transx: a Translator bound to a
// locales directory resolves message ids in the active locale and
// interpolates parameters into the result.
//
// Usage:
//
//	tr, err := i18n.New("locales", i18n.WithDefaultLocale("en_US"))
//	if err != nil {
//	    return err
//	}
//	_ = tr.SetLocale("zh_CN")
//	fmt.Println(tr.Tr("Hello, {name}!", i18n.Param("name", "Alice")))
//	fmt.Println(tr.Tr("Open", i18n.Context("menu")))
package i18n

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	po "github.com/minios-linux/transx/pofile"
	"github.com/minios-linux/transx/store"
)

// DefaultLocale is used when no default locale is configured.
const DefaultLocale = "en_US"

// Translator resolves messages for one locales root. It is not safe for
// concurrent use.
type Translator struct {
	store         *store.Store
	locale        string
	defaultLocale string
	strict        bool
	normalize     func(string) string
	logger        zerolog.Logger

	// missing deduplicates debug logs for messages without translation.
	missing sync.Map
}

type options struct {
	defaultLocale string
	strict        bool
	autoCompile   bool
	domain        string
	normalize     func(string) string
	logger        *zerolog.Logger
}

// Option configures a Translator.
type Option func(*options)

// WithDefaultLocale sets the locale activated by New.
func WithDefaultLocale(locale string) Option {
	return func(c *options) { c.defaultLocale = locale }
}

// WithStrict turns misses into errors: missing locales and catalogs from
// SetLocale, missing messages and parameters from TrE.
func WithStrict(strict bool) Option {
	return func(c *options) { c.strict = strict }
}

// WithAutoCompile controls compiling PO files to MO on load (default on).
func WithAutoCompile(on bool) Option {
	return func(c *options) { c.autoCompile = on }
}

// WithDomain sets the catalog file name (default "messages").
func WithDomain(domain string) Option {
	return func(c *options) { c.domain = domain }
}

// WithLocaleNormalizer maps every locale passed to SetLocale through fn,
// for example langmeta.Normalize so that "zh-CN" loads "zh_CN".
func WithLocaleNormalizer(fn func(string) string) Option {
	return func(c *options) { c.normalize = fn }
}

// WithLogger replaces the default sub-logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *options) { c.logger = &l }
}

// New creates a translator for the locales directory root and activates
// the default locale. Only a strict translator fails when the default
// locale has no catalog.
func New(root string, opts ...Option) (*Translator, error) {
	cfg := options{defaultLocale: DefaultLocale, autoCompile: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := log.With().Str("sys", "i18n").Logger()
	if cfg.logger != nil {
		logger = *cfg.logger
	}
	if cfg.defaultLocale == "" {
		return nil, invalidArgument("empty default locale")
	}

	t := &Translator{
		store: store.New(root,
			store.WithStrict(cfg.strict),
			store.WithAutoCompile(cfg.autoCompile),
			store.WithDomain(cfg.domain),
			store.WithLogger(logger),
		),
		strict:    cfg.strict,
		normalize: cfg.normalize,
		logger:    logger,
	}
	t.defaultLocale = t.normalizeLocale(cfg.defaultLocale)

	logger.Debug().
		Str("root", root).
		Str("default_locale", t.defaultLocale).
		Bool("strict", t.strict).
		Msg("translator initialized")

	if err := t.SetLocale(t.defaultLocale); err != nil {
		return nil, err
	}
	return t, nil
}

// Locale returns the active locale.
func (t *Translator) Locale() string { return t.locale }

// DefaultLocale returns the locale activated by New.
func (t *Translator) DefaultLocale() string { return t.defaultLocale }

// Strict reports whether the translator runs in strict mode.
func (t *Translator) Strict() bool { return t.strict }

// Store exposes the underlying catalog store.
func (t *Translator) Store() *store.Store { return t.store }

func (t *Translator) normalizeLocale(locale string) string {
	if t.normalize == nil || locale == "" {
		return locale
	}
	return t.normalize(locale)
}

// SetLocale activates locale and loads its catalog if not cached. In
// graceful mode a locale without catalog is still activated and every
// lookup falls back to the message id; in strict mode the error is
// returned and the active locale is unchanged.
func (t *Translator) SetLocale(locale string) error {
	if locale == "" {
		return invalidArgument("empty locale")
	}
	locale = t.normalizeLocale(locale)

	loaded, err := t.store.Load(locale)
	if err != nil {
		return fmt.Errorf("setting locale %s: %w", locale, err)
	}
	t.locale = locale
	t.logger.Debug().Str("locale", locale).Bool("loaded", loaded).Msg("locale set")
	return nil
}

// AddTranslation stores an in-memory translation in the active locale,
// overriding anything loaded from disk.
func (t *Translator) AddTranslation(id, text, ctx string) error {
	if err := validate(id, ctx); err != nil {
		return err
	}
	if _, err := t.store.Ensure(t.locale).AddMessage(id, ctx, text); err != nil {
		return invalidArgument("%v", err)
	}
	return nil
}

func validate(id, ctx string) error {
	if id == "" {
		return invalidArgument("empty message id")
	}
	if strings.Contains(ctx, po.ContextSeparator) {
		return invalidArgument("context %q contains the context separator", ctx)
	}
	return nil
}

// Resolve looks (id, ctx) up in the active locale. On a miss a graceful
// translator returns id, a strict one a *NotFoundError.
func (t *Translator) Resolve(id, ctx string) (string, error) {
	if err := validate(id, ctx); err != nil {
		return id, err
	}
	if s, ok := store.Lookup(t.store.Catalog(t.locale), id, ctx); ok {
		return s, nil
	}
	return t.miss(id, ctx)
}

func (t *Translator) miss(id, ctx string) (string, error) {
	key := po.Key{ID: id, Context: ctx}.String()
	if t.strict {
		return id, &NotFoundError{Kind: KindMessage, Name: key}
	}
	if _, seen := t.missing.LoadOrStore(t.locale+"\x00"+key, struct{}{}); !seen {
		t.logger.Debug().Str("locale", t.locale).Str("key", key).Msg("no translation")
	}
	return id, nil
}

// TrOption carries the context and parameters of one Tr call.
type TrOption func(*call)

type call struct {
	ctx          string
	params       map[string]any
	strictFormat bool
}

func (c *call) set(k string, v any) {
	if c.params == nil {
		c.params = make(map[string]any)
	}
	c.params[k] = v
}

// Context selects the message context (msgctxt).
func Context(ctx string) TrOption {
	return func(c *call) { c.ctx = ctx }
}

// Param sets one named parameter.
func Param(key string, value any) TrOption {
	return func(c *call) { c.set(key, value) }
}

// Params sets several named parameters.
func Params(m map[string]any) TrOption {
	return func(c *call) {
		for k, v := range m {
			c.set(k, v)
		}
	}
}

// Args sets positional parameters {0}, {1}, ...
func Args(values ...any) TrOption {
	return func(c *call) {
		for i, v := range values {
			c.set(strconv.Itoa(i), v)
		}
	}
}

// StrictFormat reports missing parameters as errors for this call even on
// a graceful translator.
func StrictFormat() TrOption {
	return func(c *call) { c.strictFormat = true }
}

func newCall(opts []TrOption) call {
	var c call
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// TrE resolves id in the active locale and interpolates the parameters.
func (t *Translator) TrE(id string, opts ...TrOption) (string, error) {
	c := newCall(opts)
	text, err := t.Resolve(id, c.ctx)
	if err != nil {
		return text, err
	}
	return t.format(text, c)
}

func (t *Translator) format(text string, c call) (string, error) {
	out, err := Interpolate(text, c.params, t.strict || c.strictFormat)
	if err != nil {
		return text, fmt.Errorf("formatting %q: %w", text, err)
	}
	return out, nil
}

// Tr is TrE for callers that cannot handle errors: failures are logged
// and the best available text is returned.
func (t *Translator) Tr(id string, opts ...TrOption) string {
	out, err := t.TrE(id, opts...)
	if err != nil {
		t.logger.Warn().Err(err).Str("locale", t.locale).Str("msgid", id).Msg("translation failed")
	}
	return out
}

// TrNE picks the singular or plural translation for n. The parameter "n"
// is set to n unless given explicitly. On a miss a graceful translator
// uses singular for n == 1 and plural otherwise.
func (t *Translator) TrNE(singular, plural string, n int, opts ...TrOption) (string, error) {
	c := newCall(opts)
	if err := validate(singular, c.ctx); err != nil {
		return singular, err
	}
	if _, ok := c.params["n"]; !ok {
		c.set("n", n)
	}

	text, ok := store.LookupPlural(t.store.Catalog(t.locale), singular, c.ctx, n)
	if !ok {
		fallback := plural
		if n == 1 || plural == "" {
			fallback = singular
		}
		var err error
		if text, err = t.miss(singular, c.ctx); err != nil {
			return fallback, err
		}
		text = fallback
	}
	return t.format(text, c)
}

// TrN is TrNE with errors logged instead of returned.
func (t *Translator) TrN(singular, plural string, n int, opts ...TrOption) string {
	out, err := t.TrNE(singular, plural, n, opts...)
	if err != nil {
		t.logger.Warn().Err(err).Str("locale", t.locale).Str("msgid", singular).Msg("translation failed")
	}
	return out
}
