package pofile

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePO = `# Russian translations.
msgid ""
msgstr ""
"Project-Id-Version: transx 1.0\n"
"Language: ru\n"

#. extracted comment
#: app.py:12
msgid "hello"
msgstr "privet"

msgctxt "menu"
msgid "Open"
msgstr "Otkryt fail"

#, fuzzy
#| msgid "old count"
msgid "count"
msgid_plural "counts"
msgstr[0] "odin"
msgstr[1] "mnogo"

msgid ""
"multi\n"
"line"
msgstr ""
"mnogo\n"
"strok"

#~ msgid "gone"
#~ msgstr "ushel"
`

func TestParseReadsEntriesAndHeader(t *testing.T) {
	t.Parallel()

	c, err := Parse(strings.NewReader(samplePO))
	require.NoError(t, err)

	assert.Equal(t, "ru", c.Metadata.Get("language"))
	assert.Equal(t, "transx 1.0", c.Metadata.Get(FieldProjectIDVersion))
	assert.Equal(t, []string{"Russian translations."}, c.HeaderComments)
	assert.Equal(t, 4, c.Len())

	hello := c.Get("hello", "")
	require.NotNil(t, hello)
	assert.Equal(t, "privet", hello.MsgStr)
	assert.Equal(t, []Location{{File: "app.py", Line: 12}}, hello.References)
	assert.Equal(t, []string{"extracted comment"}, hello.ExtractedComments)

	open := c.Get("Open", "menu")
	require.NotNil(t, open)
	assert.Equal(t, "Otkryt fail", open.MsgStr)
	assert.Nil(t, c.Get("Open", ""))

	count := c.Get("count", "")
	require.NotNil(t, count)
	assert.True(t, count.IsFuzzy())
	assert.Equal(t, "old count", count.PreviousMsgID)
	assert.Equal(t, map[int]string{0: "odin", 1: "mnogo"}, count.MsgStrPlural)

	multi := c.Get("multi\nline", "")
	require.NotNil(t, multi)
	assert.Equal(t, "mnogo\nstrok", multi.MsgStr)

	obsolete := c.Obsolete()
	require.Len(t, obsolete, 1)
	assert.Equal(t, "gone", obsolete[0].MsgID)
	assert.True(t, obsolete[0].Obsolete)
}

func TestParseSkipsMalformedLines(t *testing.T) {
	t.Parallel()

	input := `msgid "a"
msgstr "b"
garbage line here
msgstr[x] "bad index"

"stray continuation"

msgid "c"
msgstr "d"
`
	c, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "b", c.Get("a", "").MsgStr)
	assert.Equal(t, "d", c.Get("c", "").MsgStr)
}

func TestParseEntriesWithoutBlankSeparator(t *testing.T) {
	t.Parallel()

	input := "msgid \"a\"\nmsgstr \"1\"\nmsgid \"b\"\nmsgstr \"2\"\n"
	c, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "1", c.Get("a", "").MsgStr)
	assert.Equal(t, "2", c.Get("b", "").MsgStr)
}

func TestEscapeUnescape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: "hello", want: "hello"},
		{name: "quote", raw: `say "hi"`, want: `say \"hi\"`},
		{name: "backslash first", raw: `a\nb`, want: `a\\nb`},
		{name: "controls", raw: "a\nb\tc\rd", want: `a\nb\tc\rd`},
		{name: "backslash before quote", raw: `\"`, want: `\\\"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Escape(tc.raw))
			assert.Equal(t, tc.raw, Unescape(Escape(tc.raw)))
		})
	}

	assert.Equal(t, `\q`, Unescape(`\q`), "unknown escapes are kept")
}

func TestWriteParseRoundTrip(t *testing.T) {
	t.Parallel()

	c := New()
	c.Metadata.Set(FieldProjectIDVersion, "demo 1.0")
	c.Metadata.Set(FieldLanguage, "zh_CN")
	entries := []*Entry{
		{MsgID: "Hello", MsgStr: "你好", References: []Location{{File: "main.py", Line: 3}}},
		{MsgID: "Open", MsgCtxt: "button", MsgStr: "Open"},
		{MsgID: "Open", MsgCtxt: "menu", MsgStr: "Open file"},
		{MsgID: "Tab\there", MsgStr: "quote \" and \\ back\r\n"},
		{MsgID: "Line one\nLine two\n", MsgStr: "A\nB\n"},
		{MsgID: "%d file", MsgIDPlural: "%d files", MsgStrPlural: map[int]string{0: "%d 文件", 1: "%d 文件们"}},
		{MsgID: "untranslated"},
	}
	for _, e := range entries {
		_, err := c.Add(e)
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf))

	round, err := Parse(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, c.Metadata.Map(), round.Metadata.Map())
	require.Equal(t, c.Len(), round.Len())
	for _, e := range c.Entries() {
		got := round.Get(e.MsgID, e.MsgCtxt)
		require.NotNil(t, got, "missing %q/%q", e.MsgID, e.MsgCtxt)
		assert.Equal(t, e.MsgStr, got.MsgStr)
		assert.Equal(t, e.MsgIDPlural, got.MsgIDPlural)
		if len(e.MsgStrPlural) > 0 {
			assert.Equal(t, e.MsgStrPlural, got.MsgStrPlural)
		}
	}

	// Serialization is deterministic.
	var again bytes.Buffer
	require.NoError(t, round.Write(&again))
	assert.Equal(t, buf.String(), again.String())
}

func TestWriteSortsByIDThenContext(t *testing.T) {
	t.Parallel()

	c := New()
	for _, e := range []*Entry{
		{MsgID: "b"}, {MsgID: "a", MsgCtxt: "z"}, {MsgID: "a"}, {MsgID: "a", MsgCtxt: "m"},
	} {
		_, err := c.Add(e)
		require.NoError(t, err)
	}

	var keys []Key
	for _, e := range c.Entries() {
		keys = append(keys, e.Key())
	}
	assert.Equal(t, []Key{{ID: "a"}, {ID: "a", Context: "m"}, {ID: "a", Context: "z"}, {ID: "b"}}, keys)
}

func TestSaveCreatesDirectoriesAndLoadMissingIsEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "zh_CN", "LC_MESSAGES", "messages.po")

	missing, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, missing.Len())

	c := New()
	_, err = c.AddMessage("Hello", "", "你好")
	require.NoError(t, err)
	require.NoError(t, c.Save(path))

	_, err = os.Stat(path)
	require.NoError(t, err)

	loaded, err := Load(path)
	require.NoError(t, err)
	got, ok := loaded.Lookup("Hello", "")
	assert.True(t, ok)
	assert.Equal(t, "你好", got)
}

func TestAddIsAdditiveAndRejectsHeaderID(t *testing.T) {
	t.Parallel()

	c := New()
	_, err := c.Add(&Entry{MsgID: ""})
	assert.True(t, errors.Is(err, ErrHeaderID))

	_, err = c.Add(&Entry{MsgID: "x", MsgCtxt: "bad" + ContextSeparator})
	assert.ErrorIs(t, err, ErrInvalidContext)

	_, err = c.Add(&Entry{MsgID: "Save", MsgStr: "Enregistrer", References: []Location{{File: "a.py", Line: 1}}, Flags: []string{"python-format"}})
	require.NoError(t, err)
	stored, err := c.Add(&Entry{MsgID: "Save", References: []Location{{File: "b.py", Line: 2}}, ExtractedComments: []string{"toolbar"}})
	require.NoError(t, err)

	assert.Equal(t, "Enregistrer", stored.MsgStr, "empty translation does not overwrite")
	assert.Equal(t, []Location{{File: "a.py", Line: 1}, {File: "b.py", Line: 2}}, stored.References)
	assert.Equal(t, []string{"toolbar"}, stored.ExtractedComments)
	assert.Equal(t, []string{"python-format"}, stored.Flags)

	stored, err = c.AddMessage("Save", "", "Sauver")
	require.NoError(t, err)
	assert.Equal(t, "Sauver", stored.MsgStr)
	assert.Equal(t, 1, c.Len())
}

func TestContextDisambiguation(t *testing.T) {
	t.Parallel()

	c := New()
	_, err := c.AddMessage("Open", "button", "Open")
	require.NoError(t, err)
	_, err = c.AddMessage("Open", "menu", "Open file")
	require.NoError(t, err)

	got, ok := c.Lookup("Open", "button")
	assert.True(t, ok)
	assert.Equal(t, "Open", got)

	got, ok = c.Lookup("Open", "menu")
	assert.True(t, ok)
	assert.Equal(t, "Open file", got)

	_, ok = c.Lookup("Open", "")
	assert.False(t, ok)
}

func TestEntryMutatorsAndClone(t *testing.T) {
	t.Parallel()

	e := NewEntry("id", "")
	e.AddLocation("a.py", 1)
	e.AddLocation("a.py", 1)
	e.AddComment("auto", true)
	e.AddComment("user", false)
	e.AddFlag("needs-review")
	e.AddFlag("needs-review")
	e.MsgStrPlural = map[int]string{0: "x"}

	assert.Len(t, e.References, 1)
	assert.Equal(t, []string{"needs-review"}, e.Flags)

	c := e.Clone()
	c.References[0].Line = 99
	c.Flags[0] = "changed"
	c.MsgStrPlural[0] = "y"
	assert.Equal(t, 1, e.References[0].Line)
	assert.Equal(t, "needs-review", e.Flags[0])
	assert.Equal(t, "x", e.MsgStrPlural[0])

	e.SetFuzzy(true)
	assert.True(t, e.IsFuzzy())
	e.SetFuzzy(false)
	assert.False(t, e.IsFuzzy())
}

func TestParseLocationAndKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Location{File: "src/app.py", Line: 10}, ParseLocation("src/app.py:10"))
	assert.Equal(t, Location{File: "C:file"}, ParseLocation("C:file"))
	assert.Equal(t, "src/app.py:10", Location{File: "src/app.py", Line: 10}.String())

	k := Key{ID: "Open", Context: "menu"}
	assert.Equal(t, "menu\x04Open", k.String())
	assert.Equal(t, k, SplitKey(k.String()))
	assert.Equal(t, Key{ID: "plain"}, SplitKey("plain"))
}

func TestMetadata(t *testing.T) {
	t.Parallel()

	m := ParseMetadata("Project-Id-Version: x 1\nbroken line\nLanguage: de\n")
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "de", m.Get("LANGUAGE"))

	m.Set("language", "fr")
	m.Set(FieldPluralForms, "nplurals=2; plural=(n > 1);")
	assert.Equal(t, "Project-Id-Version: x 1\nLanguage: fr\nPlural-Forms: nplurals=2; plural=(n > 1);\n", m.String())

	m.Delete(FieldPluralForms)
	_, ok := m.Lookup(FieldPluralForms)
	assert.False(t, ok)
}

func TestNewTemplateAndLocale(t *testing.T) {
	t.Parallel()

	tpl := NewTemplate(TemplateInfo{Project: "demo", Version: "2.0", GeneratedBy: "transx"})
	assert.Equal(t, "demo 2.0", tpl.Metadata.Get(FieldProjectIDVersion))
	assert.Equal(t, []string{"fuzzy"}, tpl.HeaderFlags)
	_, err := tpl.Add(&Entry{MsgID: "Hello", Flags: []string{"fuzzy", "python-format"}})
	require.NoError(t, err)

	loc := NewLocale(tpl, "ru")
	assert.Equal(t, "ru", loc.Language())
	assert.Equal(t, PluralFormsForLang("ru"), loc.Metadata.Get(FieldPluralForms))
	assert.Empty(t, loc.HeaderFlags)
	hello := loc.Get("Hello", "")
	require.NotNil(t, hello)
	assert.Equal(t, []string{"python-format"}, hello.Flags)
	assert.Equal(t, "", tpl.Language(), "template is not modified")
}

func TestUpdateMergesFromTemplate(t *testing.T) {
	t.Parallel()

	local := New()
	local.Metadata.Set(FieldLanguage, "fr")
	local.Metadata.Set(FieldPOTCreationDate, "old")
	_, _ = local.Add(&Entry{MsgID: "Hello", MsgStr: "Bonjour", Flags: []string{"fuzzy"}, References: []Location{{File: "old.py", Line: 1}}, TranslatorComments: []string{"keep me"}})
	_, _ = local.Add(&Entry{MsgID: "Removed", MsgStr: "Supprimé", References: []Location{{File: "gone.py", Line: 9}}})

	tpl := New()
	tpl.Metadata.Set(FieldLanguage, "")
	tpl.Metadata.Set(FieldPOTCreationDate, "new")
	_, _ = tpl.Add(&Entry{MsgID: "Hello", References: []Location{{File: "new.py", Line: 5}}, ExtractedComments: []string{"greeting"}, Flags: []string{"python-format"}})
	_, _ = tpl.Add(&Entry{MsgID: "Added", References: []Location{{File: "new.py", Line: 6}}})

	obsolete := local.Update(tpl, true)

	require.Len(t, obsolete, 1)
	assert.Equal(t, "Removed", obsolete[0].MsgID)
	assert.Nil(t, local.Get("Removed", ""))
	assert.Len(t, local.Obsolete(), 1)

	hello := local.Get("Hello", "")
	require.NotNil(t, hello)
	assert.Equal(t, "Bonjour", hello.MsgStr)
	assert.Equal(t, []Location{{File: "new.py", Line: 5}}, hello.References)
	assert.Equal(t, []string{"greeting"}, hello.ExtractedComments)
	assert.Equal(t, []string{"keep me"}, hello.TranslatorComments)
	assert.Equal(t, []string{"fuzzy", "python-format"}, hello.Flags)

	added := local.Get("Added", "")
	require.NotNil(t, added)
	assert.Equal(t, "", added.MsgStr)

	assert.Equal(t, "fr", local.Language())
	assert.Equal(t, "new", local.Metadata.Get(FieldPOTCreationDate))
}

func TestUpdateDropsFuzzyWhenNotPreserved(t *testing.T) {
	t.Parallel()

	local := New()
	_, _ = local.Add(&Entry{MsgID: "Hello", MsgStr: "Hallo", Flags: []string{"fuzzy"}, PreviousMsgID: "Helo"})
	tpl := New()
	_, _ = tpl.Add(&Entry{MsgID: "Hello"})

	assert.Empty(t, local.Update(tpl, false))
	hello := local.Get("Hello", "")
	assert.False(t, hello.IsFuzzy())
	assert.Empty(t, hello.PreviousMsgID)
}

func TestUpdateRefreshesHeaderExceptLanguage(t *testing.T) {
	t.Parallel()

	local := New()
	local.Metadata.Set(FieldLanguage, "fr")
	local.Metadata.Set(FieldContentType, "text/plain; charset=ISO-8859-1")
	local.Metadata.Set(FieldLastTranslator, "Alice")
	local.Metadata.Set(FieldPluralForms, "nplurals=2; plural=(n > 1);")

	tpl := New()
	tpl.Metadata.Set("language", "")
	tpl.Metadata.Set(FieldContentType, "text/plain; charset=UTF-8")
	tpl.Metadata.Set(FieldLastTranslator, "Bob")
	tpl.Metadata.Set(FieldPluralForms, "nplurals=INTEGER; plural=EXPRESSION;")
	tpl.Metadata.Set("X-Generator", "transx")

	local.Update(tpl, true)

	assert.Equal(t, "text/plain; charset=UTF-8", local.Metadata.Get(FieldContentType))
	assert.Equal(t, "Bob", local.Metadata.Get(FieldLastTranslator))
	assert.Equal(t, "transx", local.Metadata.Get("X-Generator"))
	assert.Equal(t, "fr", local.Language())
	assert.Equal(t, "nplurals=2; plural=(n > 1);", local.Metadata.Get(FieldPluralForms))

	tpl.Metadata.Set(FieldPluralForms, "nplurals=1; plural=0;")
	local.Update(tpl, true)
	assert.Equal(t, "nplurals=1; plural=0;", local.Metadata.Get(FieldPluralForms))
}

func TestUpdateRestoresObsoleteEntry(t *testing.T) {
	t.Parallel()

	local := New()
	local.Metadata.Set(FieldLanguage, "fr")
	_, _ = local.Add(&Entry{MsgID: "Bye", MsgStr: "Au revoir", TranslatorComments: []string{"informal"}})
	_, _ = local.Add(&Entry{MsgID: "Hello", MsgStr: "Bonjour"})

	without := New()
	_, _ = without.Add(&Entry{MsgID: "Hello"})
	with := New()
	_, _ = with.Add(&Entry{MsgID: "Hello"})
	_, _ = with.Add(&Entry{MsgID: "Bye", References: []Location{{File: "app.py", Line: 3}}})

	require.Len(t, local.Update(without, true), 1)
	require.Len(t, local.Update(without, true), 0)
	require.Len(t, local.Obsolete(), 1)

	assert.Empty(t, local.Update(with, true))
	assert.Empty(t, local.Obsolete())

	bye := local.Get("Bye", "")
	require.NotNil(t, bye)
	assert.Equal(t, "Au revoir", bye.MsgStr)
	assert.True(t, bye.IsFuzzy())
	assert.False(t, bye.Obsolete)
	assert.Equal(t, []string{"informal"}, bye.TranslatorComments)
	assert.Equal(t, []Location{{File: "app.py", Line: 3}}, bye.References)

	var buf bytes.Buffer
	require.NoError(t, local.Write(&buf))
	assert.Equal(t, 1, strings.Count(buf.String(), `msgid "Bye"`))
	assert.NotContains(t, buf.String(), "#~")
}

func TestUpdateKeepsOneObsoleteCopyPerKey(t *testing.T) {
	t.Parallel()

	local := New()
	_, _ = local.Add(&Entry{MsgID: "Bye", MsgStr: "Au revoir"})
	empty := New()
	require.Len(t, local.Update(empty, true), 1)

	// Re-added by hand, then dropped from the template again.
	_, _ = local.Add(&Entry{MsgID: "Bye", MsgStr: "Salut"})
	require.Len(t, local.Update(empty, true), 1)

	obsolete := local.Obsolete()
	require.Len(t, obsolete, 1)
	assert.Equal(t, "Salut", obsolete[0].MsgStr)
}

type fakeTranslator struct {
	fail map[string]bool
	seen []string
}

func (f *fakeTranslator) Translate(_ context.Context, text, source, target string) (string, error) {
	f.seen = append(f.seen, source+">"+target+":"+text)
	if f.fail[text] {
		return "", errors.New("boom")
	}
	return "[" + target + "] " + text, nil
}

func TestTranslateEntriesFillsEmptyAndSkipsFailures(t *testing.T) {
	t.Parallel()

	c := New()
	c.Metadata.Set(FieldLanguage, "de")
	_, _ = c.AddMessage("Done", "", "Fertig")
	_, _ = c.AddMessage("Hello", "", "")
	_, _ = c.AddMessage("Broken", "", "")
	_, _ = c.Add(&Entry{MsgID: "%d file", MsgIDPlural: "%d files"})

	tr := &fakeTranslator{fail: map[string]bool{"Broken": true}}
	n := c.TranslateEntries(context.Background(), tr)

	assert.Equal(t, 2, n)
	assert.Equal(t, "Fertig", c.Get("Done", "").MsgStr)
	assert.Equal(t, "[de] Hello", c.Get("Hello", "").MsgStr)
	assert.Equal(t, "", c.Get("Broken", "").MsgStr)
	assert.Equal(t, map[int]string{0: "[de] %d file", 1: "[de] %d files"}, c.Get("%d file", "").MsgStrPlural)
	assert.Contains(t, tr.seen, "auto>de:Hello")
	assert.NotContains(t, tr.seen, "auto>de:Done")
}

func TestStatsAndUntranslated(t *testing.T) {
	t.Parallel()

	c, err := Parse(strings.NewReader(samplePO))
	require.NoError(t, err)
	_, _ = c.AddMessage("new", "", "")

	total, translated, fuzzy, untranslated := c.Stats()
	assert.Equal(t, 5, total)
	assert.Equal(t, 3, translated)
	assert.Equal(t, 1, fuzzy)
	assert.Equal(t, 1, untranslated)
	require.Len(t, c.Untranslated(), 1)
	assert.Equal(t, "new", c.Untranslated()[0].MsgID)
}
