// Package store loads per-locale message catalogs from a gettext locale
// tree and caches them for the lifetime of the store.
//
// The layout is:
//
//	<root>/<locale>/LC_MESSAGES/<domain>.mo
//	<root>/<locale>/LC_MESSAGES/<domain>.po
//
// The compiled file is preferred. The text catalog is used when no MO
// exists, when the MO is corrupt, or when the PO is newer than the MO.
package store

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/minios-linux/transx/mofile"
	po "github.com/minios-linux/transx/pofile"
)

// DefaultDomain is the gettext domain used when none is configured.
const DefaultDomain = "messages"

// Store maps locale strings to loaded catalogs. It is not safe for
// concurrent use; callers serialize access.
type Store struct {
	root        string
	domain      string
	strict      bool
	autoCompile bool
	logger      zerolog.Logger

	catalogs map[string]*po.Catalog
}

// Option configures a Store.
type Option func(*Store)

// WithStrict makes missing locales and catalogs errors instead of misses.
func WithStrict(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

// WithAutoCompile compiles a PO loaded without a usable MO into the MO
// path. Failures are logged only.
func WithAutoCompile(on bool) Option {
	return func(s *Store) { s.autoCompile = on }
}

// WithDomain sets the catalog file name without extension.
func WithDomain(domain string) Option {
	return func(s *Store) {
		if domain != "" {
			s.domain = domain
		}
	}
}

// WithLogger replaces the default sub-logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a store rooted at the given locales directory.
func New(root string, opts ...Option) *Store {
	s := &Store{
		root:        root,
		domain:      DefaultDomain,
		autoCompile: true,
		logger:      log.With().Str("sys", "store").Logger(),
		catalogs:    make(map[string]*po.Catalog),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the locales directory.
func (s *Store) Root() string { return s.root }

// Domain returns the catalog domain.
func (s *Store) Domain() string { return s.domain }

// Strict reports whether misses are errors.
func (s *Store) Strict() bool { return s.strict }

// LocaleDir returns <root>/<locale>/LC_MESSAGES.
func (s *Store) LocaleDir(locale string) string {
	return filepath.Join(s.root, locale, "LC_MESSAGES")
}

// Paths returns the MO and PO paths for locale.
func (s *Store) Paths(locale string) (moPath, poPath string) {
	dir := s.LocaleDir(locale)
	return filepath.Join(dir, s.domain+".mo"), filepath.Join(dir, s.domain+".po")
}

// Load makes the catalog for locale available. It returns true when a
// catalog is cached after the call. In graceful mode a missing locale or
// catalog returns false and a nil error; in strict mode it returns a
// *NotFoundError.
func (s *Store) Load(locale string) (bool, error) {
	if locale == "" {
		return false, invalidArgument("empty locale")
	}
	if _, ok := s.catalogs[locale]; ok {
		return true, nil
	}

	l := s.logger.With().Str("locale", locale).Logger()

	dir := s.LocaleDir(locale)
	if !isDir(dir) {
		if s.strict {
			return false, &NotFoundError{Kind: KindLocale, Name: locale, Path: dir}
		}
		l.Debug().Str("dir", dir).Msg("locale directory not found")
		return false, nil
	}

	moPath, poPath := s.Paths(locale)
	moInfo, moErr := os.Stat(moPath)
	poInfo, poErr := os.Stat(poPath)

	if moErr == nil && (poErr != nil || !poInfo.ModTime().After(moInfo.ModTime())) {
		cat, err := mofile.ReadFile(moPath)
		if err == nil {
			s.put(locale, cat)
			l.Debug().Str("file", moPath).Int("messages", cat.Len()).Msg("loaded compiled catalog")
			return true, nil
		}
		l.Warn().Err(err).Str("file", moPath).Msg("cannot read compiled catalog, trying PO")
	}

	if poErr == nil {
		cat, err := po.ParseFile(poPath)
		if err != nil {
			return false, err
		}
		s.put(locale, cat)
		l.Debug().Str("file", poPath).Int("messages", cat.Len()).Msg("loaded text catalog")
		if s.autoCompile {
			s.compile(l, cat, moPath)
		}
		return true, nil
	}

	if s.strict {
		return false, &NotFoundError{Kind: KindCatalog, Name: locale, Path: poPath}
	}
	l.Debug().Str("dir", dir).Msg("no catalog for locale")
	return false, nil
}

func (s *Store) compile(l zerolog.Logger, cat *po.Catalog, moPath string) {
	if err := mofile.WriteFile(moPath, cat); err != nil {
		l.Warn().Err(err).Str("file", moPath).Msg("auto-compile failed")
		return
	}
	l.Debug().Str("file", moPath).Msg("auto-compiled catalog")
}

func (s *Store) put(locale string, cat *po.Catalog) {
	cat.Metadata.Set(po.FieldLanguage, locale)
	s.catalogs[locale] = cat
}

// Catalog returns the cached catalog for locale, or nil.
func (s *Store) Catalog(locale string) *po.Catalog {
	return s.catalogs[locale]
}

// Ensure returns the cached catalog for locale, creating an empty
// in-memory one when nothing is loaded. Used for runtime additions.
func (s *Store) Ensure(locale string) *po.Catalog {
	if cat, ok := s.catalogs[locale]; ok {
		return cat
	}
	cat := po.New()
	s.put(locale, cat)
	return cat
}

// Put caches cat for locale, replacing any loaded catalog.
func (s *Store) Put(locale string, cat *po.Catalog) {
	s.put(locale, cat)
}

// Locales returns the cached locale strings, sorted.
func (s *Store) Locales() []string {
	out := make([]string, 0, len(s.catalogs))
	for loc := range s.catalogs {
		out = append(out, loc)
	}
	slices.Sort(out)
	return out
}

// Available lists locale directories under root that contain a PO or MO
// for the store's domain, sorted.
func (s *Store) Available() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		moPath, poPath := s.Paths(e.Name())
		if fileExists(moPath) || fileExists(poPath) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// Lookup resolves (id, ctx) in cat. A nil catalog, a missing entry and
// an empty or fuzzy translation are misses.
func Lookup(cat *po.Catalog, id, ctx string) (string, bool) {
	if cat == nil {
		return "", false
	}
	return cat.Lookup(id, ctx)
}

// LookupPlural resolves the plural form for n. Only the singular/plural
// choice is made: form 0 for n == 1, otherwise form 1 when present.
func LookupPlural(cat *po.Catalog, id, ctx string, n int) (string, bool) {
	if cat == nil {
		return "", false
	}
	e := cat.Get(id, ctx)
	if e == nil || e.IsFuzzy() {
		return "", false
	}
	if len(e.MsgStrPlural) == 0 {
		if e.MsgStr == "" {
			return "", false
		}
		return e.MsgStr, true
	}
	idx := 0
	if n != 1 {
		idx = 1
		if _, ok := e.MsgStrPlural[idx]; !ok {
			idx = 0
		}
	}
	s := e.MsgStrPlural[idx]
	return s, s != ""
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
