// Package settings stores per-user transx settings: translator API keys
// and an optional custom translation prompt.
//
// Files live in the XDG data directory:
//
//	$XDG_DATA_HOME/transx/  (default: ~/.local/share/transx/)
//
//   - auth.json   API keys and base URLs keyed by provider ID, mode 0600
//   - prompt.txt  replaces the built-in translation system prompt
//
// Lookup order for API keys:
//  1. --api-key flag, TRANSX_API_KEY or translator.api_key
//  2. the provider's own variable (OPENAI_API_KEY, GEMINI_API_KEY)
//  3. this credential store
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	dataDirName    = "transx"
	authFileName   = "auth.json"
	promptFileName = "prompt.txt"
)

// Credential is the stored entry for one provider.
type Credential struct {
	Key     string `json:"key,omitempty"`
	BaseURL string `json:"baseUrl,omitempty"`
}

// Store holds all provider credentials, keyed by provider ID.
type Store map[string]*Credential

// ---------------------------------------------------------------------------
// File paths
// ---------------------------------------------------------------------------

// DataDir returns the transx data directory. $XDG_DATA_HOME is honored,
// falling back to ~/.local/share.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func dataFile(name string) (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// FilePath returns the auth.json path for display purposes.
func FilePath() string {
	p, err := dataFile(authFileName)
	if err != nil {
		return ""
	}
	return p
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store. A missing file is an empty store; a
// corrupt one is an error so it is never silently overwritten.
func Load() (Store, error) {
	path, err := dataFile(authFileName)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(Store), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if store == nil {
		store = make(Store)
	}
	return store, nil
}

// Save writes the credential store with 0600 permissions.
func Save(store Store) error {
	path, err := dataFile(authFileName)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Credentials
// ---------------------------------------------------------------------------

// Get returns the stored credential for a provider, or nil.
func Get(providerID string) (*Credential, error) {
	store, err := Load()
	if err != nil {
		return nil, err
	}
	return store[providerID], nil
}

// SetAPIKey stores an API key and optional base URL for a provider.
func SetAPIKey(providerID, key, baseURL string) error {
	store, err := Load()
	if err != nil {
		return err
	}
	store[providerID] = &Credential{Key: key, BaseURL: baseURL}
	return Save(store)
}

// Remove deletes the credential of a provider. Removing a missing entry
// is not an error.
func Remove(providerID string) error {
	store, err := Load()
	if err != nil {
		return err
	}
	if _, ok := store[providerID]; !ok {
		return nil
	}
	delete(store, providerID)
	return Save(store)
}

// Providers returns the sorted IDs that have stored credentials.
func (s Store) Providers() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EnvVarForProvider returns the conventional API key variable of a
// provider, or "" when it has none.
func EnvVarForProvider(providerID string) string {
	switch providerID {
	case "openai":
		return "OPENAI_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	}
	return ""
}

// ResolveAPIKey returns explicit when set, else the provider's
// environment variable, else the stored key.
func ResolveAPIKey(providerID, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if v := EnvVarForProvider(providerID); v != "" {
		if key := os.Getenv(v); key != "" {
			return key
		}
	}
	if c, err := Get(providerID); err == nil && c != nil {
		return c.Key
	}
	return ""
}

// ---------------------------------------------------------------------------
// Prompt
// ---------------------------------------------------------------------------

// Prompt returns the user's custom translation prompt, or "" when
// prompt.txt does not exist.
func Prompt() (string, error) {
	path, err := dataFile(promptFileName)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ---------------------------------------------------------------------------
// Display helpers
// ---------------------------------------------------------------------------

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
