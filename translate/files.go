package translate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	po "github.com/minios-linux/transx/pofile"
)

// FileResult reports the outcome for one PO file.
type FileResult struct {
	Path       string
	Lang       string
	Translated int
	Remaining  int
}

type fileOptions struct {
	source, target string
}

// FileOption configures TranslateFile and TranslateFiles.
type FileOption func(*fileOptions)

// WithSourceLang sets the source language passed to the translator
// (default "auto").
func WithSourceLang(lang string) FileOption {
	return func(o *fileOptions) { o.source = lang }
}

// WithTargetLang forces the target language instead of reading it from
// the file.
func WithTargetLang(lang string) FileOption {
	return func(o *fileOptions) { o.target = lang }
}

// TranslateFile fills the empty translations of the PO file at path and
// saves it when anything changed. The target language is, in order: the
// WithTargetLang option, the Language header, the locale directory in
// the path. A file without a Language header gets one.
func TranslateFile(ctx context.Context, tr Translator, path string, opts ...FileOption) (*FileResult, error) {
	var o fileOptions
	for _, opt := range opts {
		opt(&o)
	}

	cat, err := po.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	lang := o.target
	if lang == "" {
		lang = cat.Language()
	}
	if lang == "" {
		lang = LangFromPath(path)
	}
	if lang == "" {
		return nil, fmt.Errorf("%s: cannot determine target language", path)
	}
	changed := false
	if cat.Language() == "" {
		cat.Metadata.Set(po.FieldLanguage, lang)
		changed = true
	}

	logger := log.With().Str("sys", "translate").Str("file", path).Str("lang", lang).Logger()

	var wrapped Translator = langOverride{tr: tr, source: o.source, target: lang}
	n := cat.TranslateEntries(ctx, wrapped)
	if n > 0 || changed {
		if err := cat.Save(path); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
	}

	_, _, _, untranslated := cat.Stats()
	logger.Info().Int("translated", n).Int("remaining", untranslated).Msg("file translated")
	return &FileResult{Path: path, Lang: lang, Translated: n, Remaining: untranslated}, nil
}

// TranslateFiles runs TranslateFile over paths with at most
// maxConcurrent files in flight (at least 1). Results keep the order of
// paths. The first error cancels the remaining files.
func TranslateFiles(ctx context.Context, tr Translator, paths []string, maxConcurrent int, opts ...FileOption) ([]*FileResult, error) {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	results := make([]*FileResult, len(paths))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, path := range paths {
		g.Go(func() error {
			res, err := TranslateFile(gctx, tr, path, opts...)
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// LangFromPath guesses the locale of a PO file from its location:
// "locales/de/LC_MESSAGES/app.po" and "po/de.po" both give "de".
func LangFromPath(path string) string {
	dir := filepath.Dir(path)
	if filepath.Base(dir) == "LC_MESSAGES" {
		return filepath.Base(filepath.Dir(dir))
	}
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext == ".po" {
		return strings.TrimSuffix(base, ext)
	}
	return ""
}
