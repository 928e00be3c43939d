// Package langmeta normalizes locale codes to the gettext form used for
// directory names (ll_CC) and provides display names for them.
package langmeta

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Aliases maps lower-cased informal codes and names to canonical
// locales. Bare language codes with a dominant region resolve to it.
var Aliases = map[string]string{
	// East Asian
	"zh": "zh_CN", "zh-cn": "zh_CN", "zh-hans": "zh_CN", "zh-hans-cn": "zh_CN", "zhs": "zh_CN", "cn": "zh_CN", "chi": "zh_CN", "chinese": "zh_CN",
	"zh-tw": "zh_TW", "zh-hant": "zh_TW", "zh-hant-tw": "zh_TW", "zht": "zh_TW", "tw": "zh_TW",
	"ja": "ja_JP", "jp": "ja_JP", "jpn": "ja_JP", "japanese": "ja_JP",
	"ko": "ko_KR", "kr": "ko_KR", "kor": "ko_KR", "korean": "ko_KR",

	// European
	"en": "en_US", "eng": "en_US", "english": "en_US",
	"fr": "fr_FR", "fra": "fr_FR", "french": "fr_FR",
	"de": "de_DE", "deu": "de_DE", "ger": "de_DE", "german": "de_DE",
	"es": "es_ES", "spa": "es_ES", "spanish": "es_ES",
	"it": "it_IT", "ita": "it_IT", "italian": "it_IT",
	"pt": "pt_BR", "por": "pt_BR", "portuguese": "pt_BR",
	"ru": "ru_RU", "rus": "ru_RU", "russian": "ru_RU",

	// Other
	"ar": "ar_SA", "ara": "ar_SA", "arabic": "ar_SA",
	"hi": "hi_IN", "hin": "hi_IN", "hindi": "hi_IN",
	"vi": "vi_VN", "vie": "vi_VN", "vietnamese": "vi_VN",
	"th": "th_TH", "tha": "th_TH", "thai": "th_TH",
}

// Normalize converts a locale code in any common spelling to ll_CC form:
// "zh-CN", "zh_cn", "zh-Hans" and "chinese" all become "zh_CN", and a
// bare "ja" becomes "ja_JP". Codes that are not aliases keep their
// parts, with the language lower-cased and the region upper-cased.
// Encoding and modifier suffixes ("de_DE.UTF-8", "sr@latin") are
// dropped. It fails for codes that are not valid BCP 47 tags.
func Normalize(code string) (string, error) {
	code = strings.TrimSpace(code)
	if i := strings.IndexAny(code, ".@"); i >= 0 {
		code = code[:i]
	}
	if code == "" {
		return "", fmt.Errorf("empty language code")
	}

	key := strings.ToLower(strings.ReplaceAll(code, "_", "-"))
	if canon, ok := Aliases[key]; ok {
		return canon, nil
	}

	if _, err := language.Parse(key); err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}

	parts := strings.Split(key, "-")
	for i := 1; i < len(parts); i++ {
		switch p := parts[i]; {
		case len(p) == 4:
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		case len(p) == 2 || len(p) == 3 && p[0] >= '0' && p[0] <= '9':
			parts[i] = strings.ToUpper(p)
		}
	}
	return strings.Join(parts, "_"), nil
}

// Canonical is Normalize without the error: invalid codes are returned
// unchanged. Suitable as a runtime locale normalizer.
func Canonical(code string) string {
	if n, err := Normalize(code); err == nil {
		return n
	}
	return code
}

// Tag parses a gettext locale code into a BCP 47 tag.
func Tag(code string) (language.Tag, error) {
	if i := strings.IndexAny(code, ".@"); i >= 0 {
		code = code[:i]
	}
	return language.Parse(strings.ReplaceAll(code, "_", "-"))
}

// EnglishName returns the English display name ("German",
// "Simplified Chinese"), or code itself when unknown.
func EnglishName(code string) string {
	tag, err := Tag(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

// NativeName returns the name of the language in itself ("Deutsch",
// "日本語"), or code itself when unknown.
func NativeName(code string) string {
	tag, err := Tag(code)
	if err != nil {
		return code
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return code
}

// Known returns the sorted canonical locales reachable through Aliases.
func Known() []string {
	seen := make(map[string]bool)
	var out []string
	for _, canon := range Aliases {
		if !seen[canon] {
			seen[canon] = true
			out = append(out, canon)
		}
	}
	sort.Strings(out)
	return out
}
