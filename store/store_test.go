package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/transx/mofile"
	po "github.com/minios-linux/transx/pofile"
)

func writePO(t *testing.T, root, locale string, msgs map[string]string) string {
	t.Helper()

	cat := po.New()
	cat.Metadata.Set(po.FieldLanguage, locale)
	for id, str := range msgs {
		_, err := cat.AddMessage(id, "", str)
		require.NoError(t, err)
	}
	path := filepath.Join(root, locale, "LC_MESSAGES", DefaultDomain+".po")
	require.NoError(t, cat.Save(path))
	return path
}

func TestLoadPrefersCompiledCatalog(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	poPath := writePO(t, root, "de", map[string]string{"Hello": "Hallo (po)"})

	mo := po.New()
	_, err := mo.AddMessage("Hello", "", "Hallo (mo)")
	require.NoError(t, err)
	moPath := filepath.Join(root, "de", "LC_MESSAGES", "messages.mo")
	require.NoError(t, mofile.WriteFile(moPath, mo))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(poPath, old, old))

	s := New(root)
	ok, err := s.Load("de")
	require.NoError(t, err)
	require.True(t, ok)

	got, found := Lookup(s.Catalog("de"), "Hello", "")
	assert.True(t, found)
	assert.Equal(t, "Hallo (mo)", got)
	assert.Equal(t, "de", s.Catalog("de").Language())
}

func TestLoadFallsBackToPOAndCompiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writePO(t, root, "fr", map[string]string{"Hello": "Bonjour", "Pending": ""})

	s := New(root)
	ok, err := s.Load("fr")
	require.NoError(t, err)
	require.True(t, ok)

	got, _ := Lookup(s.Catalog("fr"), "Hello", "")
	assert.Equal(t, "Bonjour", got)

	moPath, _ := s.Paths("fr")
	compiled, err := mofile.ReadFile(moPath)
	require.NoError(t, err, "PO is auto-compiled on load")
	got, _ = compiled.Lookup("Hello", "")
	assert.Equal(t, "Bonjour", got)
	assert.NotNil(t, compiled.Get("Pending", ""), "untranslated entries survive auto-compile")
}

func TestLoadWithoutAutoCompile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writePO(t, root, "fr", map[string]string{"Hello": "Bonjour"})

	s := New(root, WithAutoCompile(false))
	ok, err := s.Load("fr")
	require.NoError(t, err)
	require.True(t, ok)

	moPath, _ := s.Paths("fr")
	assert.NoFileExists(t, moPath)
}

func TestLoadNewerPOWinsOverStaleMO(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	stale := po.New()
	_, err := stale.AddMessage("Hello", "", "old")
	require.NoError(t, err)
	moPath := filepath.Join(root, "es", "LC_MESSAGES", "messages.mo")
	require.NoError(t, mofile.WriteFile(moPath, stale))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(moPath, old, old))

	writePO(t, root, "es", map[string]string{"Hello": "Hola"})

	s := New(root)
	ok, err := s.Load("es")
	require.NoError(t, err)
	require.True(t, ok)
	got, _ := Lookup(s.Catalog("es"), "Hello", "")
	assert.Equal(t, "Hola", got)
}

func TestLoadCorruptMOFallsBackToPO(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	poPath := writePO(t, root, "it", map[string]string{"Hello": "Ciao"})
	moPath := filepath.Join(root, "it", "LC_MESSAGES", "messages.mo")
	require.NoError(t, os.WriteFile(moPath, []byte("not a catalog"), 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(poPath, old, old))

	s := New(root, WithAutoCompile(false))
	ok, err := s.Load("it")
	require.NoError(t, err)
	require.True(t, ok)
	got, _ := Lookup(s.Catalog("it"), "Hello", "")
	assert.Equal(t, "Ciao", got)
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pt", "LC_MESSAGES"), 0o755))

	graceful := New(root)
	ok, err := graceful.Load("xx")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = graceful.Load("pt")
	require.NoError(t, err)
	assert.False(t, ok)

	strict := New(root, WithStrict(true))
	_, err = strict.Load("xx")
	require.Error(t, err)
	assert.True(t, IsNotFound(err, KindLocale))

	_, err = strict.Load("pt")
	require.Error(t, err)
	assert.True(t, IsNotFound(err, KindCatalog))
	assert.False(t, IsNotFound(err, KindLocale))

	_, err = graceful.Load("")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestLoadCachesByExactLocale(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	poPath := writePO(t, root, "de", map[string]string{"Hello": "Hallo"})

	s := New(root, WithAutoCompile(false))
	ok, err := s.Load("de")
	require.NoError(t, err)
	require.True(t, ok)

	// A cache hit does not touch the filesystem again.
	require.NoError(t, os.Remove(poPath))
	ok, err = s.Load("de")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Load("de_DE")
	require.NoError(t, err)
	assert.False(t, ok, "no normalization inside the store")
	assert.Equal(t, []string{"de"}, s.Locales())
}

func TestDomainEnsureAndAvailable(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cat := po.New()
	_, err := cat.AddMessage("Hi", "", "Salut")
	require.NoError(t, err)
	require.NoError(t, cat.Save(filepath.Join(root, "fr", "LC_MESSAGES", "app.po")))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty", "LC_MESSAGES"), 0o755))

	s := New(root, WithDomain("app"))
	assert.Equal(t, "app", s.Domain())
	ok, err := s.Load("fr")
	require.NoError(t, err)
	assert.True(t, ok)

	avail, err := s.Available()
	require.NoError(t, err)
	assert.Equal(t, []string{"fr"}, avail)

	mem := s.Ensure("ja_JP")
	_, err = mem.AddMessage("Hi", "", "こんにちは")
	require.NoError(t, err)
	got, _ := Lookup(s.Catalog("ja_JP"), "Hi", "")
	assert.Equal(t, "こんにちは", got)
	assert.Same(t, mem, s.Ensure("ja_JP"))

	missing, err := New(filepath.Join(root, "nope")).Available()
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestLookupPlural(t *testing.T) {
	t.Parallel()

	cat := po.New()
	_, err := cat.Add(&po.Entry{MsgID: "%d file", MsgIDPlural: "%d files", MsgStrPlural: map[int]string{0: "%d Datei", 1: "%d Dateien"}})
	require.NoError(t, err)
	_, err = cat.AddMessage("File", "", "Datei")
	require.NoError(t, err)

	got, ok := LookupPlural(cat, "%d file", "", 1)
	assert.True(t, ok)
	assert.Equal(t, "%d Datei", got)
	got, _ = LookupPlural(cat, "%d file", "", 3)
	assert.Equal(t, "%d Dateien", got)
	got, _ = LookupPlural(cat, "File", "", 3)
	assert.Equal(t, "Datei", got)

	_, ok = LookupPlural(nil, "x", "", 1)
	assert.False(t, ok)
	_, ok = Lookup(nil, "x", "")
	assert.False(t, ok)
}
