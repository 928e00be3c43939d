// Package merge brings per-locale PO catalogs up to date with a POT
// template, the way msgmerge does for a whole locales tree.
package merge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	po "github.com/minios-linux/transx/pofile"
)

// Result describes what happened to one locale catalog.
type Result struct {
	Lang string
	Path string
	// Created is set when the PO did not exist and was generated from
	// the template.
	Created bool
	// Added counts template entries that were new to the catalog.
	Added int
	// Obsolete counts entries that left the template.
	Obsolete int
	// Total and Translated are the catalog stats after the merge.
	Total      int
	Translated int
}

type options struct {
	preserveFuzzy bool
	logger        zerolog.Logger
}

// Option configures UpdateFile and UpdateDir.
type Option func(*options)

// WithPreserveFuzzy keeps fuzzy flags on entries that survive the merge.
// Enabled by default.
func WithPreserveFuzzy(keep bool) Option {
	return func(o *options) { o.preserveFuzzy = keep }
}

// WithLogger replaces the default sub-logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func newOptions(opts []Option) options {
	o := options{
		preserveFuzzy: true,
		logger:        log.With().Str("sys", "merge").Logger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Merge returns local updated from template without modifying either:
//   - entries in both keep their translation
//   - new template entries are added untranslated
//   - entries that left the template become obsolete and are returned
func Merge(local, template *po.Catalog, preserveFuzzy bool) (*po.Catalog, []*po.Entry) {
	merged := local.Clone()
	obsolete := merged.Update(template, preserveFuzzy)
	return merged, obsolete
}

// POPath returns <localesDir>/<lang>/LC_MESSAGES/<domain>.po.
func POPath(localesDir, lang, domain string) string {
	return filepath.Join(localesDir, lang, "LC_MESSAGES", domain+".po")
}

// UpdateFile merges template into the PO at path and writes it back.
// A missing PO is created from the template. The Language header is
// set to lang and Plural-Forms is filled in when absent.
func UpdateFile(template *po.Catalog, path, lang string, opts ...Option) (*Result, error) {
	o := newOptions(opts)
	res := &Result{Lang: lang, Path: path}

	local, err := po.ParseFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		local = po.NewLocale(template, lang)
		res.Created = true
		res.Added = local.Len()
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	default:
		for _, e := range template.Entries() {
			if local.Get(e.MsgID, e.MsgCtxt) == nil {
				res.Added++
			}
		}
		var obsolete []*po.Entry
		local, obsolete = Merge(local, template, o.preserveFuzzy)
		res.Obsolete = len(obsolete)
	}

	if lang != "" {
		local.Metadata.Set(po.FieldLanguage, lang)
	}
	if _, ok := local.Metadata.Lookup(po.FieldPluralForms); !ok {
		local.Metadata.Set(po.FieldPluralForms, po.PluralFormsForLang(local.Language()))
	}

	if err := local.Save(path); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}

	total, translated, _, _ := local.Stats()
	res.Total, res.Translated = total, translated

	o.logger.Debug().
		Str("lang", lang).
		Bool("created", res.Created).
		Int("added", res.Added).
		Int("obsolete", res.Obsolete).
		Msg("catalog updated")
	return res, nil
}

// UpdateDir merges the template at potPath into
// <localesDir>/<lang>/LC_MESSAGES/<domain>.po for each language.
// Processing stops at the first failure; results for the languages
// handled so far are returned with the error.
func UpdateDir(potPath, localesDir, domain string, langs []string, opts ...Option) ([]*Result, error) {
	if len(langs) == 0 {
		return nil, fmt.Errorf("no languages to update")
	}
	if _, err := os.Stat(potPath); err != nil {
		return nil, fmt.Errorf("template %s: %w", potPath, err)
	}
	template, err := po.ParseFile(potPath)
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", potPath, err)
	}

	results := make([]*Result, 0, len(langs))
	for _, lang := range langs {
		res, err := UpdateFile(template, POPath(localesDir, lang, domain), lang, opts...)
		if err != nil {
			return results, fmt.Errorf("updating %s: %w", lang, err)
		}
		results = append(results, res)
	}
	return results, nil
}
