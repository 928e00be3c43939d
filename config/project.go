package config

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// Project is a project root with its resolved configuration.
type Project struct {
	// Root is the absolute project root.
	Root string
	// File is the merged configuration (defaults, file, environment).
	File *File
}

// Resolve loads .env and .transx.yaml from rootDir and overlays the
// TRANSX_* environment.
func Resolve(rootDir string) (*Project, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	if err := LoadDotEnv(filepath.Join(absRoot, ".env")); err != nil {
		return nil, err
	}
	f, err := Load(absRoot)
	if err != nil {
		return nil, err
	}
	e, err := LoadEnv("", nil)
	if err != nil {
		return nil, err
	}
	f.ApplyEnv(e)
	return &Project{Root: absRoot, File: f}, nil
}

// LocalesDir returns the absolute locale tree.
func (p *Project) LocalesDir() string {
	if filepath.IsAbs(p.File.LocalesDir) {
		return p.File.LocalesDir
	}
	return filepath.Join(p.Root, p.File.LocalesDir)
}

// POTPath returns <locales>/<domain>.pot.
func (p *Project) POTPath() string {
	return filepath.Join(p.LocalesDir(), p.File.Domain+".pot")
}

// POPath returns <locales>/<lang>/LC_MESSAGES/<domain>.po.
func (p *Project) POPath(lang string) string {
	return filepath.Join(p.LocalesDir(), lang, "LC_MESSAGES", p.File.Domain+".po")
}

// MOPath returns <locales>/<lang>/LC_MESSAGES/<domain>.mo.
func (p *Project) MOPath(lang string) string {
	return filepath.Join(p.LocalesDir(), lang, "LC_MESSAGES", p.File.Domain+".mo")
}

// Languages returns the configured languages, or those detected from the
// locale tree when none are configured.
func (p *Project) Languages() []string {
	if len(p.File.Languages) > 0 {
		return p.File.Languages
	}
	return DetectLanguages(p.LocalesDir())
}

var langCodeRe = regexp.MustCompile(`^[a-z]{2,3}([_-][A-Za-z0-9]{2,8})*$`)

// isLangCode checks if a string looks like a locale code (en, ru, pt_BR,
// zh_Hans, sr_RS-latin).
func isLangCode(s string) bool {
	return langCodeRe.MatchString(s)
}

// DetectLanguages finds locales in a gettext tree: directories named like
// a locale code that hold at least one .po or .mo under LC_MESSAGES.
func DetectLanguages(localesDir string) []string {
	entries, err := os.ReadDir(localesDir)
	if err != nil {
		return nil
	}

	var langs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		lang := entry.Name()
		if !isLangCode(lang) {
			continue
		}
		msgDir := filepath.Join(localesDir, lang, "LC_MESSAGES")
		if subEntries, err := os.ReadDir(msgDir); err == nil {
			for _, sub := range subEntries {
				if ext := filepath.Ext(sub.Name()); ext == ".po" || ext == ".mo" {
					langs = append(langs, lang)
					break
				}
			}
		}
	}
	sort.Strings(langs)
	return langs
}
