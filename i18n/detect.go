package i18n

import (
	"os"
	"strings"
)

// DetectLocale reads the environment to find the user's preferred locale,
// following GNU gettext priority: LANGUAGE > LC_ALL > LC_MESSAGES > LANG.
// It returns DefaultLocale when none is usable.
func DetectLocale() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		// LANGUAGE can be a colon-separated list; take the first
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		// Strip encoding and modifier ("ru_RU.UTF-8@euro" -> "ru_RU")
		if idx := strings.IndexAny(val, ".@"); idx >= 0 {
			val = val[:idx]
		}
		// "C" and "POSIX" mean no translation
		if val == "C" || val == "POSIX" || val == "" {
			continue
		}
		return val
	}
	return DefaultLocale
}
