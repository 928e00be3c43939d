// Package extract collects translatable strings from source files into a
// gettext template catalog.
//
// Go files are parsed with go/ast. Every other supported language goes
// through a small token scanner that understands string literals and
// comments well enough to find calls such as
//
//	tr("Hello")
//	tr("Welcome", context="greeting")
//	ngettext("%d file", "%d files", n)
//
// Only literal arguments are extracted; calls with computed arguments
// are skipped.
package extract

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	po "github.com/minios-linux/transx/pofile"
)

// GeneratedBy is written into the Generated-By header of templates.
const GeneratedBy = "transx"

// SupportedExtensions maps file extensions to source language names.
var SupportedExtensions = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".pyw":   "Python",
	".c":     "C",
	".h":     "C",
	".cc":    "C++",
	".cpp":   "C++",
	".cxx":   "C++",
	".hh":    "C++",
	".hpp":   "C++",
	".m":     "ObjectiveC",
	".sh":    "Shell",
	".bash":  "Shell",
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".ts":    "JavaScript",
	".tsx":   "JavaScript",
	".pl":    "Perl",
	".pm":    "Perl",
	".php":   "PHP",
	".java":  "Java",
	".cs":    "C#",
	".awk":   "awk",
	".tcl":   "Tcl",
	".rb":    "Ruby",
	".lua":   "Lua",
	".vala":  "Vala",
	".html":  "HTML",
	".jinja": "HTML",
	".j2":    "HTML",
}

// shebangLanguages maps interpreter names found on a #! line to languages.
var shebangLanguages = map[string]string{
	"sh":      "Shell",
	"bash":    "Shell",
	"dash":    "Shell",
	"zsh":     "Shell",
	"python":  "Python",
	"python3": "Python",
	"perl":    "Perl",
	"ruby":    "Ruby",
}

// skipDirs contains directory names to skip during source file scanning.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"__pycache__":  true,
	".tox":         true,
	".venv":        true,
	"venv":         true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	".eggs":        true,
}

// Result summarizes one extraction run.
type Result struct {
	// SourceFiles is the list of source files scanned.
	SourceFiles []string
	// Languages is the set of detected source languages.
	Languages []string
	// Messages is the number of distinct messages collected.
	Messages int
}

// Extractor accumulates messages from any number of sources into one
// catalog. It is not safe for concurrent use.
type Extractor struct {
	keywords    map[string][]Keyword
	commentTags []string
	catalog     *po.Catalog
	files       []string
	logger      zerolog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithKeywords replaces the default keyword specs. An empty list keeps
// the defaults.
func WithKeywords(specs ...string) Option {
	return func(x *Extractor) {
		if len(specs) > 0 {
			x.keywords = keywordMap(specs)
		}
	}
}

// WithCommentTags sets the comment prefixes copied into the template as
// extracted comments.
func WithCommentTags(tags ...string) Option {
	return func(x *Extractor) { x.commentTags = tags }
}

// WithLogger replaces the default sub-logger.
func WithLogger(l zerolog.Logger) Option {
	return func(x *Extractor) { x.logger = l }
}

// New creates an extractor using DefaultKeywords and DefaultCommentTags
// unless overridden.
func New(opts ...Option) *Extractor {
	x := &Extractor{
		keywords:    keywordMap(DefaultKeywords),
		commentTags: DefaultCommentTags,
		catalog:     po.New(),
		logger:      log.With().Str("sys", "extract").Logger(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Catalog returns the collected messages. The catalog is live: later
// extraction calls keep adding to it.
func (x *Extractor) Catalog() *po.Catalog { return x.catalog }

// Files returns the files scanned so far, in scan order.
func (x *Extractor) Files() []string { return x.files }

// ExtractSource scans src as source text in lang and returns the number
// of calls that produced a message. name is used for references. Go
// sources that fail to parse are reported as an error; every other
// language is scanned best-effort.
func (x *Extractor) ExtractSource(name, lang string, src []byte) (int, error) {
	name = filepath.ToSlash(name)
	n := 0
	emit := func(kws []Keyword, c *call, comments []string) {
		for _, kw := range kws {
			msgid, plural, ctx, ok := c.message(kw)
			if !ok {
				continue
			}
			if strings.Contains(ctx, po.ContextSeparator) {
				x.logger.Debug().Str("file", name).Int("line", c.line).Msg("skipping context with separator")
				continue
			}
			e := po.NewEntry(msgid, ctx)
			e.MsgIDPlural = plural
			e.AddLocation(name, c.line)
			for _, text := range comments {
				e.AddComment(text, true)
			}
			if _, err := x.catalog.Add(e); err != nil {
				x.logger.Debug().Err(err).Str("file", name).Int("line", c.line).Msg("skipping message")
				continue
			}
			n++
			break
		}
	}

	if lang == "Go" {
		if err := extractGo(name, src, x.keywords, x.commentTags, emit); err != nil {
			return n, fmt.Errorf("parsing %s: %w", name, err)
		}
		return n, nil
	}

	toks := tokenize(string(src), commentStyles[lang])
	scanCalls(toks, x.keywords, x.commentTags, emit)
	return n, nil
}

// ExtractFile reads and scans one file. The language comes from the
// extension, or from a #! line for extension-less scripts.
func (x *Extractor) ExtractFile(path string) error {
	lang := LanguageOf(path)
	if lang == "" {
		return fmt.Errorf("%s: unsupported source type", path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	x.files = append(x.files, path)

	n, err := x.ExtractSource(path, lang, src)
	if err != nil {
		return err
	}
	x.logger.Debug().Str("file", path).Str("lang", lang).Int("messages", n).Msg("scanned")
	return nil
}

// ExtractPaths scans files and directories. Directories are walked with
// FindSources. A file that cannot be parsed is logged and skipped so one
// bad file does not stop extraction.
func (x *Extractor) ExtractPaths(paths []string) (*Result, error) {
	var files []string
	var dirs []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", p, err)
		}
		if info.IsDir() {
			dirs = append(dirs, p)
		} else {
			files = append(files, p)
		}
	}
	found, err := FindSources(dirs)
	if err != nil {
		return nil, err
	}
	files = append(files, found...)
	if len(files) == 0 {
		return nil, fmt.Errorf("no source files found in %s", strings.Join(paths, ", "))
	}

	for _, f := range files {
		if err := x.ExtractFile(f); err != nil {
			x.logger.Warn().Err(err).Msg("skipping file")
		}
	}

	return &Result{
		SourceFiles: files,
		Languages:   DetectedLanguages(files),
		Messages:    x.catalog.Len(),
	}, nil
}

// Template returns a fresh POT catalog holding the collected messages
// under a standard header.
func (x *Extractor) Template(info po.TemplateInfo) *po.Catalog {
	if info.GeneratedBy == "" {
		info.GeneratedBy = GeneratedBy
	}
	tmpl := po.NewTemplate(info)
	for _, e := range x.catalog.Entries() {
		if _, err := tmpl.Add(e); err != nil {
			x.logger.Debug().Err(err).Str("msgid", e.MsgID).Msg("dropping message")
		}
	}
	return tmpl
}

// WriteTemplate saves Template(info) to path, creating directories.
func (x *Extractor) WriteTemplate(path string, info po.TemplateInfo) error {
	if err := x.Template(info).Save(path); err != nil {
		return fmt.Errorf("writing template %s: %w", path, err)
	}
	x.logger.Info().Str("path", path).Int("messages", x.catalog.Len()).Msg("template written")
	return nil
}

// LanguageOf returns the source language for path, or "" when the file
// is not a supported source.
func LanguageOf(path string) string {
	if lang, ok := SupportedExtensions[filepath.Ext(path)]; ok {
		return lang
	}
	if filepath.Ext(path) == "" {
		return detectShebang(path)
	}
	return ""
}

// detectShebang reads the first line of path and maps its interpreter
// to a language. "#!/usr/bin/env python3" and "#!/bin/bash" are both
// understood.
func detectShebang(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return ""
	}
	if !bytes.HasPrefix(line, []byte("#!")) {
		return ""
	}
	fields := strings.Fields(string(line[2:]))
	if len(fields) == 0 {
		return ""
	}
	interp := filepath.Base(fields[0])
	if interp == "env" && len(fields) > 1 {
		interp = fields[1]
	}
	return shebangLanguages[interp]
}

// FindSources recursively finds all source files with known extensions in dirs.
// Skips common non-source directories (node_modules, .git, __pycache__, etc.)
// and Go test files.
func FindSources(dirs []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	for _, dir := range dirs {
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil // skip unreadable entries
			}
			if info.IsDir() {
				if skipDirs[info.Name()] && path != dir {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, "_test.go") {
				return nil
			}
			if LanguageOf(path) != "" && !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// DetectedLanguages returns the set of source languages found in the file list.
func DetectedLanguages(files []string) []string {
	var langs []string
	for lang := range FilesByLanguage(files) {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// FilesByLanguage groups source files by their language.
func FilesByLanguage(files []string) map[string][]string {
	result := make(map[string][]string)
	for _, f := range files {
		if lang := LanguageOf(f); lang != "" {
			result[lang] = append(result[lang], f)
		}
	}
	return result
}

// DescribeFiles returns a human-readable summary of the source files found.
func DescribeFiles(files []string) string {
	byLang := FilesByLanguage(files)
	var parts []string
	for _, lang := range DetectedLanguages(files) {
		parts = append(parts, fmt.Sprintf("%d %s", len(byLang[lang]), lang))
	}
	return strings.Join(parts, ", ")
}
