package i18n

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	po "github.com/minios-linux/transx/pofile"
)

func TestRegistryLifecycle(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeCatalog(t, root, "zh_CN", &po.Entry{MsgID: "Hello", MsgStr: "你好"})

	r := NewRegistry(WithDefaultLocale("zh_CN")).WithEnviron(map[string]string{})

	_, ok := r.Get("app")
	assert.False(t, ok)

	a, err := r.Create("app", root)
	require.NoError(t, err)
	assert.Equal(t, "你好", a.Tr("Hello"))

	got, ok := r.Get("app")
	require.True(t, ok)
	assert.Same(t, a, got)

	same, err := r.GetOrCreate("app", "/elsewhere")
	require.NoError(t, err)
	assert.Same(t, a, same)

	b, err := r.Create("app", root, WithDefaultLocale("fr"))
	require.NoError(t, err)
	assert.NotSame(t, a, b, "Create replaces")
	assert.Equal(t, "fr", b.Locale())

	_, err = r.GetOrCreate("other", root)
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "other"}, r.Apps())

	assert.True(t, r.Remove("other"))
	assert.False(t, r.Remove("other"))

	r.Clear()
	assert.Empty(t, r.Apps())

	_, err = r.Create("", root)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRegistryEnvironmentOverrides(t *testing.T) {
	t.Parallel()

	envRoot := t.TempDir()
	writeCatalog(t, envRoot, "de", &po.Entry{MsgID: "Hello", MsgStr: "Hallo"})

	r := NewRegistry().WithEnviron(map[string]string{
		"TRANSX_MY_APP_LOCALES_ROOT":   envRoot,
		"TRANSX_MY_APP_DEFAULT_LOCALE": "de",
	})

	tr, err := r.Create("my-app", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, envRoot, tr.Store().Root())
	assert.Equal(t, "Hallo", tr.Tr("Hello"))

	strict := NewRegistry().WithEnviron(map[string]string{"TRANSX_S_STRICT": "true"})
	_, err = strict.Create("s", t.TempDir())
	assert.True(t, IsNotFound(err, KindLocale))
	_, ok := strict.Get("s")
	assert.False(t, ok, "failed creation is not registered")
}

func TestRegistryConcurrentGetOrCreate(t *testing.T) {
	t.Parallel()

	r := NewRegistry().WithEnviron(map[string]string{})
	root := t.TempDir()

	var wg sync.WaitGroup
	results := make([]*Translator, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr, err := r.GetOrCreate("shared", root)
			if err == nil {
				results[i] = tr
			}
		}(i)
	}
	wg.Wait()

	for _, tr := range results {
		require.NotNil(t, tr)
		assert.Same(t, results[0], tr)
	}
}
