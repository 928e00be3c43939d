package pofile

import (
	"maps"
	"slices"
	"strings"
)

// Update refreshes the catalog from a newer template, the msgmerge way:
//   - entries in both keep the local translation; references, extracted
//     comments and the plural id come from the template
//   - template-only entries are added untranslated, unless an obsolete
//     entry with the same key exists: that one is restored with its old
//     translation and marked fuzzy
//   - local-only entries are removed, marked obsolete and returned; an
//     older obsolete copy with the same key is replaced
//   - every header field is refreshed from the template except Language,
//     and except a Plural-Forms the template leaves empty or as the
//     "nplurals=INTEGER" placeholder
//
// With preserveFuzzy false, fuzzy flags on kept entries are dropped.
func (c *Catalog) Update(template *Catalog, preserveFuzzy bool) []*Entry {
	if c.entries == nil {
		c.entries = make(map[Key]*Entry)
	}

	for _, tpl := range template.Entries() {
		existing, ok := c.entries[tpl.Key()]
		if !ok {
			c.entries[tpl.Key()] = c.revive(tpl)
			continue
		}

		existing.References = slices.Clone(tpl.References)
		existing.ExtractedComments = slices.Clone(tpl.ExtractedComments)
		existing.MsgIDPlural = tpl.MsgIDPlural
		existing.Flags = mergeFlags(existing.Flags, tpl.Flags)
		if !preserveFuzzy {
			existing.SetFuzzy(false)
			existing.PreviousMsgID = ""
		}
	}

	var obsolete []*Entry
	for k, e := range c.entries {
		if template.entries[k] != nil {
			continue
		}
		delete(c.entries, k)
		e.Obsolete = true
		e.References = nil
		obsolete = append(obsolete, e)
	}
	sortEntries(obsolete)
	for _, e := range obsolete {
		c.takeObsolete(e.Key())
	}
	c.obsolete = append(c.obsolete, obsolete...)

	for _, f := range template.Metadata.Fields() {
		if strings.EqualFold(f.Key, FieldLanguage) {
			continue
		}
		if strings.EqualFold(f.Key, FieldPluralForms) && placeholderPluralForms(f.Value) {
			if _, ok := c.Metadata.Lookup(FieldPluralForms); ok {
				continue
			}
		}
		c.Metadata.Set(f.Key, f.Value)
	}

	return obsolete
}

// revive returns the active entry for a template entry that is new to
// the catalog. A matching obsolete entry gives back its translation.
func (c *Catalog) revive(tpl *Entry) *Entry {
	e := tpl.Clone()
	e.MsgStr = ""
	e.MsgStrPlural = nil
	e.TranslatorComments = nil
	e.SetFuzzy(false)

	old := c.takeObsolete(tpl.Key())
	if old == nil || !old.hasTranslation() {
		return e
	}
	e.MsgStr = old.MsgStr
	e.MsgStrPlural = maps.Clone(old.MsgStrPlural)
	e.TranslatorComments = slices.Clone(old.TranslatorComments)
	e.SetFuzzy(true)
	return e
}

// takeObsolete removes the obsolete entry with key k and returns it, or
// nil when there is none.
func (c *Catalog) takeObsolete(k Key) *Entry {
	for i, e := range c.obsolete {
		if e.Key() == k {
			c.obsolete = slices.Delete(c.obsolete, i, i+1)
			return e
		}
	}
	return nil
}

func placeholderPluralForms(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.Contains(v, "INTEGER")
}

// mergeFlags combines flags from PO and POT, preferring POT format flags
// while keeping PO-specific flags like "fuzzy".
func mergeFlags(poFlags, potFlags []string) []string {
	var result []string
	// Put fuzzy first if present
	if slices.Contains(poFlags, "fuzzy") || slices.Contains(potFlags, "fuzzy") {
		result = append(result, "fuzzy")
	}
	for _, f := range slices.Concat(poFlags, potFlags) {
		if f != "fuzzy" && !slices.Contains(result, f) {
			result = append(result, f)
		}
	}
	return result
}
