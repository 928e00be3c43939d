package pofile

import (
	"slices"
	"strconv"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// ContextSeparator joins msgctxt and msgid in flat string tables (MO files,
// gettext runtimes).
const ContextSeparator = gotext.EotSeparator

// Location is a source reference written as "#: file:line".
type Location struct {
	File string
	Line int
}

// String renders the location in gettext reference form.
func (l Location) String() string {
	if l.Line <= 0 {
		return l.File
	}
	return l.File + ":" + strconv.Itoa(l.Line)
}

// ParseLocation splits a "file:line" reference. References without a
// numeric line suffix are kept whole as the file name.
func ParseLocation(ref string) Location {
	idx := strings.LastIndexByte(ref, ':')
	if idx <= 0 {
		return Location{File: ref}
	}
	line, err := strconv.Atoi(ref[idx+1:])
	if err != nil || line < 0 {
		return Location{File: ref}
	}
	return Location{File: ref[:idx], Line: line}
}

// Key identifies a message inside a catalog. An empty Context means the
// message has no msgctxt.
type Key struct {
	ID      string
	Context string
}

// String returns the flat form used by compiled catalogs: context and id
// joined by ContextSeparator, or the bare id.
func (k Key) String() string {
	if k.Context == "" {
		return k.ID
	}
	return k.Context + ContextSeparator + k.ID
}

// SplitKey is the inverse of Key.String.
func SplitKey(flat string) Key {
	if ctx, id, ok := strings.Cut(flat, ContextSeparator); ok {
		return Key{ID: id, Context: ctx}
	}
	return Key{ID: flat}
}

func compareKeys(a, b Key) int {
	if c := strings.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	return strings.Compare(a.Context, b.Context)
}

// Entry represents a single translatable message in a PO file.
type Entry struct {
	// TranslatorComments are lines starting with "# " (translator comments).
	TranslatorComments []string
	// ExtractedComments are lines starting with "#." (extracted/automatic comments).
	ExtractedComments []string
	// References are source code locations, lines starting with "#:".
	References []Location
	// Flags are format flags, lines starting with "#,".
	Flags []string
	// PreviousMsgID stores the previous msgid for fuzzy entries, lines starting with "#|".
	PreviousMsgID string

	// MsgCtxt is the message context (msgctxt).
	MsgCtxt string
	// MsgID is the untranslated string.
	MsgID string
	// MsgIDPlural is the untranslated plural string.
	MsgIDPlural string
	// MsgStr is the translated string (singular or the only form).
	MsgStr string
	// MsgStrPlural maps plural form index to translated string.
	MsgStrPlural map[int]string

	// Obsolete marks entries prefixed with "#~".
	Obsolete bool
}

// NewEntry returns an untranslated entry for msgid in the given context.
func NewEntry(msgid, msgctxt string) *Entry {
	return &Entry{MsgID: msgid, MsgCtxt: msgctxt}
}

// Key returns the catalog identity of the entry.
func (e *Entry) Key() Key {
	return Key{ID: e.MsgID, Context: e.MsgCtxt}
}

// IsTranslated returns true if the entry has a non-empty translation.
func (e *Entry) IsTranslated() bool {
	if e.MsgID == "" {
		return false // header entry
	}
	if e.IsFuzzy() {
		return false
	}
	if e.MsgIDPlural != "" {
		for _, v := range e.MsgStrPlural {
			if v == "" {
				return false
			}
		}
		return len(e.MsgStrPlural) > 0
	}
	return e.MsgStr != ""
}

// hasTranslation reports whether msgstr (or every msgstr[N]) is filled,
// regardless of flags.
func (e *Entry) hasTranslation() bool {
	if e.MsgIDPlural == "" {
		return e.MsgStr != ""
	}
	if len(e.MsgStrPlural) == 0 {
		return false
	}
	for _, v := range e.MsgStrPlural {
		if v == "" {
			return false
		}
	}
	return true
}

// IsFuzzy returns true if the entry is marked fuzzy.
func (e *Entry) IsFuzzy() bool {
	return e.HasFlag("fuzzy")
}

// SetFuzzy adds or removes the fuzzy flag.
func (e *Entry) SetFuzzy(fuzzy bool) {
	if fuzzy {
		e.AddFlag("fuzzy")
		return
	}
	e.Flags = slices.DeleteFunc(e.Flags, func(f string) bool { return f == "fuzzy" })
}

// HasFlag checks if a specific flag is present.
func (e *Entry) HasFlag(flag string) bool {
	return slices.Contains(e.Flags, flag)
}

// AddFlag adds a flag unless it is already set.
func (e *Entry) AddFlag(flag string) {
	flag = strings.TrimSpace(flag)
	if flag == "" || e.HasFlag(flag) {
		return
	}
	e.Flags = append(e.Flags, flag)
}

// AddLocation appends a source reference unless it is already recorded.
func (e *Entry) AddLocation(file string, line int) {
	loc := Location{File: file, Line: line}
	if slices.Contains(e.References, loc) {
		return
	}
	e.References = append(e.References, loc)
}

// AddComment appends an extracted (auto) or translator comment.
func (e *Entry) AddComment(text string, auto bool) {
	if auto {
		if !slices.Contains(e.ExtractedComments, text) {
			e.ExtractedComments = append(e.ExtractedComments, text)
		}
		return
	}
	if !slices.Contains(e.TranslatorComments, text) {
		e.TranslatorComments = append(e.TranslatorComments, text)
	}
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	c.TranslatorComments = slices.Clone(e.TranslatorComments)
	c.ExtractedComments = slices.Clone(e.ExtractedComments)
	c.References = slices.Clone(e.References)
	c.Flags = slices.Clone(e.Flags)
	if e.MsgStrPlural != nil {
		c.MsgStrPlural = make(map[int]string, len(e.MsgStrPlural))
		for k, v := range e.MsgStrPlural {
			c.MsgStrPlural[k] = v
		}
	}
	return &c
}

// merge folds other into e: references, comments and flags accumulate,
// translations are overwritten only by non-empty values.
func (e *Entry) merge(other *Entry) {
	for _, ref := range other.References {
		e.AddLocation(ref.File, ref.Line)
	}
	for _, c := range other.ExtractedComments {
		e.AddComment(c, true)
	}
	for _, c := range other.TranslatorComments {
		e.AddComment(c, false)
	}
	for _, f := range other.Flags {
		e.AddFlag(f)
	}
	if other.MsgIDPlural != "" {
		e.MsgIDPlural = other.MsgIDPlural
	}
	if other.MsgStr != "" {
		e.MsgStr = other.MsgStr
	}
	for idx, v := range other.MsgStrPlural {
		if v == "" {
			continue
		}
		if e.MsgStrPlural == nil {
			e.MsgStrPlural = make(map[int]string)
		}
		e.MsgStrPlural[idx] = v
	}
}
