package i18n

import (
	"fmt"
	"slices"
	"sync"

	"github.com/minios-linux/transx/config"
)

// Registry holds one Translator per application name. It replaces a
// process-wide instance cache: callers own the registry and pass it
// where needed. Safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	translators map[string]*Translator
	defaults    []Option
	environ     map[string]string
}

// NewRegistry creates an empty registry. defaults are applied to every
// translator before the per-call options.
func NewRegistry(defaults ...Option) *Registry {
	return &Registry{
		translators: make(map[string]*Translator),
		defaults:    defaults,
	}
}

// WithEnviron makes the registry read TRANSX_<APP>_* settings from env
// instead of the process environment.
func (r *Registry) WithEnviron(env map[string]string) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.environ = env
	return r
}

// Create builds a translator for app and stores it, replacing any
// existing one. TRANSX_<APP>_LOCALES_ROOT overrides root and
// TRANSX_<APP>_DEFAULT_LOCALE, TRANSX_<APP>_DOMAIN and
// TRANSX_<APP>_STRICT override the corresponding options.
func (r *Registry) Create(app, root string, opts ...Option) (*Translator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.create(app, root, opts)
}

func (r *Registry) create(app, root string, opts []Option) (*Translator, error) {
	if app == "" {
		return nil, invalidArgument("empty application name")
	}

	env, err := config.LoadEnv(app, r.environ)
	if err != nil {
		return nil, err
	}
	if env.LocalesRoot != "" {
		root = env.LocalesRoot
	}

	all := slices.Concat(r.defaults, opts)
	if env.DefaultLocale != "" {
		all = append(all, WithDefaultLocale(env.DefaultLocale))
	}
	if env.Domain != "" {
		all = append(all, WithDomain(env.Domain))
	}
	if env.Strict {
		all = append(all, WithStrict(true))
	}

	t, err := New(root, all...)
	if err != nil {
		return nil, fmt.Errorf("creating translator %q: %w", app, err)
	}

	r.translators[app] = t
	return t, nil
}

// Get returns the translator registered for app.
func (r *Registry) Get(app string) (*Translator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.translators[app]
	return t, ok
}

// GetOrCreate returns the registered translator for app or creates one.
// root and opts are ignored when a translator already exists.
func (r *Registry) GetOrCreate(app, root string, opts ...Option) (*Translator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.translators[app]; ok {
		return t, nil
	}
	return r.create(app, root, opts)
}

// Remove drops the translator for app and reports whether it existed.
func (r *Registry) Remove(app string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.translators[app]
	delete(r.translators, app)
	return ok
}

// Clear drops every translator.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.translators)
}

// Apps returns the registered application names, sorted.
func (r *Registry) Apps() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	apps := make([]string, 0, len(r.translators))
	for app := range r.translators {
		apps = append(apps, app)
	}
	slices.Sort(apps)
	return apps
}
