// Package config reads the .transx.yaml project file and TRANSX_* environment.
//
// The project file is optional. Values are layered: built-in defaults,
// then .transx.yaml, then the environment, then CLI flags (applied by the
// caller).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .transx.yaml structure.
type File struct {
	// LocalesDir is the locale tree relative to the project root (default "locales").
	LocalesDir string `yaml:"locales_dir,omitempty"`
	// Domain is the catalog file name without extension (default "messages").
	Domain string `yaml:"domain,omitempty"`
	// DefaultLocale is the runtime default locale (default "en_US").
	DefaultLocale string `yaml:"default_locale,omitempty"`
	// SourceLang is the language of the message ids (default "en").
	SourceLang string `yaml:"source_lang,omitempty"`
	// Languages are the locales maintained for this project.
	Languages []string `yaml:"languages,omitempty"`
	// Sources are files or directories scanned by extract (default ".").
	Sources []string `yaml:"sources,omitempty"`
	// Keywords are extra extraction keywords in xgettext syntax ("name:1,2c").
	Keywords []string `yaml:"keywords,omitempty"`

	// --- template header ---

	Project     string `yaml:"project,omitempty"`
	Version     string `yaml:"version,omitempty"`
	Copyright   string `yaml:"copyright,omitempty"`
	BugsAddress string `yaml:"bugs_address,omitempty"`

	// Translator configures machine translation.
	Translator Translator `yaml:"translator,omitempty"`
}

// Translator is the machine-translation section.
type Translator struct {
	// Provider: "dummy", "openai", "gemini", "ollama" (default "dummy").
	Provider string `yaml:"provider,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	// Timeout per request (default 60s).
	Timeout time.Duration `yaml:"timeout,omitempty"`
	Proxy   string        `yaml:"proxy,omitempty"`
	// MaxRetries on rate limiting and transient failures (default 3).
	MaxRetries int `yaml:"max_retries,omitempty"`
	// MaxConcurrent parallel file jobs (default 1).
	MaxConcurrent int `yaml:"max_concurrent,omitempty"`
	// RequestsPerSecond paces requests; 0 means unlimited.
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
}

// Providers lists the accepted translator provider names.
var Providers = []string{"dummy", "openai", "gemini", "ollama"}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// FileName is the project config file name.
const FileName = ".transx.yaml"

// Default returns the configuration used when no project file exists.
func Default() *File {
	f := &File{}
	f.applyDefaults()
	return f
}

func (f *File) applyDefaults() {
	if f.LocalesDir == "" {
		f.LocalesDir = "locales"
	}
	if f.Domain == "" {
		f.Domain = "messages"
	}
	if f.DefaultLocale == "" {
		f.DefaultLocale = "en_US"
	}
	if f.SourceLang == "" {
		f.SourceLang = "en"
	}
	if len(f.Sources) == 0 {
		f.Sources = []string{"."}
	}
	if f.Translator.Provider == "" {
		f.Translator.Provider = "dummy"
	}
	if f.Translator.Timeout == 0 {
		f.Translator.Timeout = 60 * time.Second
	}
	if f.Translator.MaxRetries == 0 {
		f.Translator.MaxRetries = 3
	}
	if f.Translator.MaxConcurrent == 0 {
		f.Translator.MaxConcurrent = 1
	}
}

// Load reads and validates .transx.yaml from rootDir. A missing file
// yields Default().
func Load(rootDir string) (*File, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.applyDefaults()

	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

func (f *File) validate() error {
	if strings.ContainsAny(f.Domain, `/\`) {
		return fmt.Errorf("domain %q must be a bare file name", f.Domain)
	}
	valid := false
	for _, p := range Providers {
		if f.Translator.Provider == p {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown translator provider %q (valid: %s)",
			f.Translator.Provider, strings.Join(Providers, ", "))
	}
	if f.Translator.MaxConcurrent < 0 || f.Translator.MaxRetries < 0 {
		return fmt.Errorf("translator limits must not be negative")
	}
	for i, lang := range f.Languages {
		if strings.TrimSpace(lang) == "" {
			return fmt.Errorf("language #%d is empty", i+1)
		}
	}
	return nil
}

// Save writes f as .transx.yaml into rootDir.
func (f *File) Save(rootDir string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	path := filepath.Join(rootDir, FileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
