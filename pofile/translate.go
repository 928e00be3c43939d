package pofile

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Translator is the machine-translation capability TranslateEntries needs.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// TranslateEntries fills every empty translation using tr, with source
// language "auto" and the header's Language as target. A failing entry is
// logged and left untranslated. Returns the number of entries filled.
func (c *Catalog) TranslateEntries(ctx context.Context, tr Translator) int {
	target := c.Language()
	if target == "" {
		target = "en"
	}

	done := 0
	for _, e := range c.Entries() {
		if e.hasTranslation() {
			continue
		}
		if err := ctx.Err(); err != nil {
			log.Warn().Str("sys", "pofile").Err(err).Msg("translation cancelled")
			break
		}
		if translateEntry(ctx, tr, e, target) {
			done++
		}
	}
	return done
}

func translateEntry(ctx context.Context, tr Translator, e *Entry, target string) bool {
	one := func(text string) (string, bool) {
		out, err := tr.Translate(ctx, text, "auto", target)
		if err != nil {
			log.Warn().Str("sys", "pofile").Str("msgid", e.MsgID).Err(err).Msg("translation failed")
			return "", false
		}
		return out, out != ""
	}

	if e.MsgIDPlural == "" {
		text, ok := one(e.MsgID)
		if ok {
			e.MsgStr = text
			log.Debug().Str("sys", "pofile").Str("msgid", e.MsgID).Str("msgstr", text).Msg("translated")
		}
		return ok
	}

	singular, ok := one(e.MsgID)
	if !ok {
		return false
	}
	plural, ok := one(e.MsgIDPlural)
	if !ok {
		return false
	}
	e.MsgStrPlural = map[int]string{0: singular, 1: plural}
	return true
}
