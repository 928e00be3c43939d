// Package pofile implements reading and writing of PO/POT files
// following the GNU gettext format specification.
package pofile

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrHeaderID is returned when a caller tries to store an ordinary message
// under the empty msgid, which is reserved for the header.
var ErrHeaderID = errors.New("pofile: empty msgid is reserved for the header")

// ErrInvalidContext is returned for a msgctxt containing the context separator.
var ErrInvalidContext = errors.New("pofile: msgctxt must not contain the EOT separator")

// Catalog represents a parsed PO/POT file: header metadata plus messages
// keyed by (msgid, msgctxt).
type Catalog struct {
	// Metadata is the header entry's "Key: Value" block.
	Metadata Metadata
	// HeaderComments are translator comments above the header entry.
	HeaderComments []string
	// HeaderFlags are flags on the header entry (POT files carry "fuzzy").
	HeaderFlags []string

	entries  map[Key]*Entry
	obsolete []*Entry
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[Key]*Entry)}
}

// Len returns the number of active (non-obsolete) entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Add inserts e or folds it into the entry with the same key. References,
// comments and flags accumulate; the translation is only overwritten when
// e carries one. The stored entry is returned.
func (c *Catalog) Add(e *Entry) (*Entry, error) {
	if e.MsgID == "" {
		return nil, ErrHeaderID
	}
	if strings.Contains(e.MsgCtxt, ContextSeparator) {
		return nil, ErrInvalidContext
	}
	if c.entries == nil {
		c.entries = make(map[Key]*Entry)
	}
	if e.Obsolete {
		c.obsolete = append(c.obsolete, e.Clone())
		return e, nil
	}
	if existing, ok := c.entries[e.Key()]; ok {
		existing.merge(e)
		return existing, nil
	}
	stored := e.Clone()
	c.entries[stored.Key()] = stored
	return stored, nil
}

// AddMessage is shorthand for Add with a bare id, context and translation.
func (c *Catalog) AddMessage(msgid, msgctxt, msgstr string) (*Entry, error) {
	return c.Add(&Entry{MsgID: msgid, MsgCtxt: msgctxt, MsgStr: msgstr})
}

// Get returns the active entry for (msgid, msgctxt), or nil.
func (c *Catalog) Get(msgid, msgctxt string) *Entry {
	return c.entries[Key{ID: msgid, Context: msgctxt}]
}

// Lookup returns the translation for (msgid, msgctxt). Untranslated and
// fuzzy entries report false.
func (c *Catalog) Lookup(msgid, msgctxt string) (string, bool) {
	e := c.Get(msgid, msgctxt)
	if e == nil || e.MsgStr == "" || e.IsFuzzy() {
		return "", false
	}
	return e.MsgStr, true
}

// Delete removes an active entry and reports whether it existed.
func (c *Catalog) Delete(msgid, msgctxt string) bool {
	k := Key{ID: msgid, Context: msgctxt}
	if _, ok := c.entries[k]; !ok {
		return false
	}
	delete(c.entries, k)
	return true
}

// Entries returns the active entries sorted by (msgid, msgctxt).
func (c *Catalog) Entries() []*Entry {
	out := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sortEntries(out)
	return out
}

// Obsolete returns the entries written as "#~" lines.
func (c *Catalog) Obsolete() []*Entry {
	return slices.Clone(c.obsolete)
}

func sortEntries(entries []*Entry) {
	slices.SortFunc(entries, func(a, b *Entry) int {
		return compareKeys(a.Key(), b.Key())
	})
}

// Language returns the header's Language field.
func (c *Catalog) Language() string {
	return c.Metadata.Get(FieldLanguage)
}

// Stats returns translation statistics.
func (c *Catalog) Stats() (total, translated, fuzzy, untranslated int) {
	for _, e := range c.entries {
		total++
		if e.IsFuzzy() {
			fuzzy++
		} else if e.IsTranslated() {
			translated++
		} else {
			untranslated++
		}
	}
	return
}

// Untranslated returns entries that have no translation and are not fuzzy.
func (c *Catalog) Untranslated() []*Entry {
	var result []*Entry
	for _, e := range c.Entries() {
		if !e.IsTranslated() && !e.IsFuzzy() {
			result = append(result, e)
		}
	}
	return result
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	out := New()
	out.Metadata = c.Metadata.Clone()
	out.HeaderComments = slices.Clone(c.HeaderComments)
	out.HeaderFlags = slices.Clone(c.HeaderFlags)
	for k, e := range c.entries {
		out.entries[k] = e.Clone()
	}
	for _, e := range c.obsolete {
		out.obsolete = append(out.obsolete, e.Clone())
	}
	return out
}

// ---------------------------------------------------------------------------
// Headers
// ---------------------------------------------------------------------------

// TemplateInfo describes the project a POT template is generated for.
type TemplateInfo struct {
	Project     string
	Version     string
	Copyright   string
	BugsAddress string
	GeneratedBy string
}

// NewTemplate creates an empty POT catalog with the standard header.
func NewTemplate(info TemplateInfo) *Catalog {
	if info.Project == "" {
		info.Project = "PACKAGE"
	}
	if info.Version == "" {
		info.Version = "VERSION"
	}
	now := time.Now().UTC().Format("2006-01-02 15:04-0700")

	c := New()
	c.HeaderComments = []string{
		"SOME DESCRIPTIVE TITLE.",
		fmt.Sprintf("Copyright (C) %d %s", time.Now().Year(), info.Copyright),
		fmt.Sprintf("This file is distributed under the same license as the %s package.", info.Project),
		"FIRST AUTHOR <EMAIL@ADDRESS>, YEAR.",
		"",
	}
	c.HeaderFlags = []string{"fuzzy"}
	c.Metadata.Set(FieldProjectIDVersion, info.Project+" "+info.Version)
	c.Metadata.Set(FieldReportBugsTo, info.BugsAddress)
	c.Metadata.Set(FieldPOTCreationDate, now)
	c.Metadata.Set(FieldPORevisionDate, "YEAR-MO-DA HO:MI+ZONE")
	c.Metadata.Set(FieldLastTranslator, "FULL NAME <EMAIL@ADDRESS>")
	c.Metadata.Set(FieldLanguageTeam, "LANGUAGE <LL@li.org>")
	c.Metadata.Set(FieldLanguage, "")
	c.Metadata.Set(FieldMIMEVersion, "1.0")
	c.Metadata.Set(FieldContentType, "text/plain; charset=UTF-8")
	c.Metadata.Set(FieldTransferEncoding, "8bit")
	if info.GeneratedBy != "" {
		c.Metadata.Set(FieldGeneratedBy, info.GeneratedBy)
	}
	return c
}

// NewLocale creates a PO catalog for lang from a template: every template
// entry untranslated, header copied with Language and Plural-Forms set.
func NewLocale(template *Catalog, lang string) *Catalog {
	c := New()
	c.Metadata = template.Metadata.Clone()
	c.Metadata.Set(FieldLanguage, lang)
	c.Metadata.Set(FieldPluralForms, PluralFormsForLang(lang))
	project := c.Metadata.Get(FieldProjectIDVersion)
	c.HeaderComments = []string{
		fmt.Sprintf("Translations for %s.", project),
		fmt.Sprintf("This file is distributed under the same license as the %s package.", project),
	}

	for _, e := range template.Entries() {
		ne := e.Clone()
		ne.MsgStr = ""
		ne.MsgStrPlural = nil
		ne.SetFuzzy(false)
		c.entries[ne.Key()] = ne
	}
	return c
}

// PluralFormsForLang returns the standard Plural-Forms header for a language code.
func PluralFormsForLang(lang string) string {
	// Normalize to base language
	base := lang
	if idx := strings.IndexAny(lang, "_-"); idx > 0 {
		base = lang[:idx]
	}

	switch base {
	case "ja", "ko", "zh", "vi", "th", "id", "ms":
		return "nplurals=1; plural=0;"
	case "fr", "pt":
		return "nplurals=2; plural=(n > 1);"
	case "en", "de", "nl", "sv", "da", "no", "nb", "nn", "fi", "es", "it", "el", "he", "hu", "tr", "bg", "hi", "ur":
		return "nplurals=2; plural=(n != 1);"
	case "ru", "uk", "be", "hr", "sr", "bs":
		return "nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);"
	case "pl":
		return "nplurals=3; plural=(n==1 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);"
	case "cs", "sk":
		return "nplurals=3; plural=(n==1 ? 0 : n>=2 && n<=4 ? 1 : 2);"
	case "ar":
		return "nplurals=6; plural=(n==0 ? 0 : n==1 ? 1 : n==2 ? 2 : n%100>=3 && n%100<=10 ? 3 : n%100>=11 ? 4 : 5);"
	default:
		return "nplurals=2; plural=(n != 1);"
	}
}
