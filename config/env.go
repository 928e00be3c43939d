package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by transx.
const EnvPrefix = "TRANSX_"

// Env holds settings taken from the environment. Empty fields mean
// "not set" and leave the file or default value in place.
type Env struct {
	LocalesRoot   string `env:"LOCALES_ROOT"`
	DefaultLocale string `env:"DEFAULT_LOCALE"`
	Domain        string `env:"DOMAIN"`
	Strict        bool   `env:"STRICT"`
	APIKey        string `env:"API_KEY"`
	Provider      string `env:"PROVIDER"`
	BaseURL       string `env:"BASE_URL"`
	Model         string `env:"MODEL"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadDotEnv loads KEY=value pairs from the given .env files into the
// process environment without overriding existing variables. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// AppPrefix returns the variable prefix for a registry application:
// TRANSX_<APP>_ with the name upper-cased and non-alphanumerics mapped
// to underscores.
func AppPrefix(app string) string {
	var b strings.Builder
	b.WriteString(EnvPrefix)
	for _, r := range strings.ToUpper(app) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	b.WriteByte('_')
	return b.String()
}

// LoadEnv parses TRANSX_* variables. When app is non-empty the
// TRANSX_<APP>_* variables are used instead. environ overrides the
// process environment (used by tests); pass nil to read os.Environ.
func LoadEnv(app string, environ map[string]string) (Env, error) {
	prefix := EnvPrefix
	if app != "" {
		prefix = AppPrefix(app)
	}
	var e Env
	opts := env.Options{Prefix: prefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&e, opts); err != nil {
		return Env{}, fmt.Errorf("parsing %s* environment: %w", prefix, err)
	}
	return e, nil
}

// ApplyEnv overlays the non-empty environment values on f.
func (f *File) ApplyEnv(e Env) {
	if e.LocalesRoot != "" {
		f.LocalesDir = e.LocalesRoot
	}
	if e.DefaultLocale != "" {
		f.DefaultLocale = e.DefaultLocale
	}
	if e.Domain != "" {
		f.Domain = e.Domain
	}
	if e.APIKey != "" {
		f.Translator.APIKey = e.APIKey
	}
	if e.Provider != "" {
		f.Translator.Provider = e.Provider
	}
	if e.BaseURL != "" {
		f.Translator.BaseURL = e.BaseURL
	}
	if e.Model != "" {
		f.Translator.Model = e.Model
	}
}
